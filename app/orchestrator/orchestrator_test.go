package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ManualRAG/app/locales"
	"ManualRAG/app/models"
	"ManualRAG/app/rag"
)

type stubSearcher struct {
	docs []rag.Document
	err  error
	last string
}

func (s *stubSearcher) Search(_ context.Context, query string, _ int) ([]rag.Document, error) {
	s.last = query
	return s.docs, s.err
}

func fixedDocs() []rag.Document {
	return []rag.Document{
		{Content: "Check oil pressure and verify seals", Kind: rag.KindText, SourceFile: "fervi.pdf"},
		{Content: strings.Repeat("Torque the head bolts in a cross pattern. ", 10), Kind: rag.KindText, SourceFile: "fervi.pdf"},
		{Content: "Hydraulic schematic", Kind: rag.KindImageDescription, ImagePath: "/img/s.png", SourceFile: "fervi.pdf"},
	}
}

func TestAnswerGenerated(t *testing.T) {
	gen := &models.MockGenerator{Tokens: []string{"Check ", "the ", "seals."}}
	gen.On("Probe", mock.Anything).Return(nil)
	gen.On("ChatStream", mock.Anything, "mistral", mock.Anything).Return("", nil)

	store := &stubSearcher{docs: fixedDocs()}
	o := New(&models.MockVision{}, store, gen)

	var partial []string
	resp, err := o.Answer(context.Background(), Request{
		Text:     "oil pressure error",
		Language: locales.English,
		Model:    "mistral",
	}, func(tok string) { partial = append(partial, tok) })

	require.NoError(t, err)
	assert.Equal(t, StateGenerated, resp.State)
	assert.Equal(t, "Check the seals.", resp.Answer)
	assert.Equal(t, []string{"Check ", "the ", "seals."}, partial)
	assert.Equal(t, "oil pressure error", store.last)
	assert.Len(t, resp.Documents, 3)
	assert.Empty(t, resp.Notice)
}

func TestAnswerFallbackOnProbeFailure(t *testing.T) {
	gen := &models.MockGenerator{}
	gen.On("Probe", mock.Anything).Return(errors.New("connection refused"))

	o := New(&models.MockVision{}, &stubSearcher{docs: fixedDocs()}, gen)

	resp, err := o.Answer(context.Background(), Request{Text: "oil pressure error", Language: locales.English}, nil)
	require.NoError(t, err)
	assert.Equal(t, StateFallback, resp.State)
	assert.Contains(t, resp.Notice, "connection refused")

	// Top-2 excerpts, each bounded, under the header and disclaimer.
	assert.Contains(t, resp.Answer, "**Based on the manual:**")
	assert.Contains(t, resp.Answer, "1. Check oil pressure and verify seals...")
	assert.Contains(t, resp.Answer, "2. ")
	assert.NotContains(t, resp.Answer, "Hydraulic schematic")
	assert.Contains(t, resp.Answer, "simulated response")
	gen.AssertNotCalled(t, "ChatStream", mock.Anything, mock.Anything, mock.Anything)
}

func TestFallbackDeterministic(t *testing.T) {
	loc := locales.For(locales.Italian)
	a := FallbackAnswer(loc, fixedDocs())
	b := FallbackAnswer(loc, fixedDocs())
	assert.Equal(t, a, b)
	assert.Contains(t, a, "**Basato sul manuale:**")
}

func TestFallbackTruncatesLongExcerpts(t *testing.T) {
	docs := []rag.Document{{Content: strings.Repeat("x", 500), Kind: rag.KindText}}
	answer := FallbackAnswer(locales.For(locales.English), docs)
	assert.Contains(t, answer, strings.Repeat("x", 200)+"...")
	assert.NotContains(t, answer, strings.Repeat("x", 201))
}

func TestAnswerFallbackOnStreamError(t *testing.T) {
	gen := &models.MockGenerator{Tokens: []string{"partial "}}
	gen.On("Probe", mock.Anything).Return(nil)
	gen.On("ChatStream", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("stream reset"))

	o := New(&models.MockVision{}, &stubSearcher{docs: fixedDocs()}, gen)

	resp, err := o.Answer(context.Background(), Request{Text: "oil pressure", Language: locales.English}, nil)
	require.NoError(t, err)
	assert.Equal(t, StateFallback, resp.State)
	assert.Contains(t, resp.Notice, "stream reset")
}

func TestAnswerNoResults(t *testing.T) {
	o := New(&models.MockVision{}, &stubSearcher{}, &models.MockGenerator{})

	resp, err := o.Answer(context.Background(), Request{Text: "anything", Language: locales.English}, nil)
	require.NoError(t, err)
	assert.Equal(t, StateNoResults, resp.State)
	assert.Empty(t, resp.Answer)
}

func TestAnswerEmptyQuerySkipsRetrieval(t *testing.T) {
	store := &stubSearcher{docs: fixedDocs()}
	o := New(&models.MockVision{}, store, &models.MockGenerator{})

	resp, err := o.Answer(context.Background(), Request{Text: "   ", Language: locales.English}, nil)
	require.NoError(t, err)
	assert.Equal(t, StateNoResults, resp.State)
	assert.Empty(t, store.last)
}

func TestAnswerRetrievalErrorIsNoResults(t *testing.T) {
	o := New(&models.MockVision{}, &stubSearcher{err: errors.New("store down")}, &models.MockGenerator{})

	resp, err := o.Answer(context.Background(), Request{Text: "oil", Language: locales.English}, nil)
	require.NoError(t, err)
	assert.Equal(t, StateNoResults, resp.State)
}

func TestAnswerImageQuery(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "broken_gauge.jpg")
	require.NoError(t, os.WriteFile(img, []byte{0xff, 0xd8}, 0o644))

	vision := &models.MockVision{}
	vision.On("Describe", mock.Anything, img, locales.English).Return("Pressure gauge stuck at zero", nil)

	store := &stubSearcher{docs: fixedDocs()}
	gen := &models.MockGenerator{Tokens: []string{"Replace the gauge."}}
	gen.On("Probe", mock.Anything).Return(nil)
	gen.On("ChatStream", mock.Anything, mock.Anything, mock.Anything).Return("", nil)

	o := New(vision, store, gen)
	resp, err := o.Answer(context.Background(), Request{ImagePath: img, Language: locales.English, Model: "mistral"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Pressure gauge stuck at zero", resp.ImageAnalysis)
	assert.Equal(t, "Pressure gauge stuck at zero", store.last)
	assert.Equal(t, StateGenerated, resp.State)
	vision.AssertExpectations(t)
}

func TestAnswerImageQueryVisionDegraded(t *testing.T) {
	vision := &models.MockVision{}
	vision.On("Describe", mock.Anything, mock.Anything, locales.Italian).Return("", errors.New("vision down"))

	store := &stubSearcher{docs: fixedDocs()}
	gen := &models.MockGenerator{}
	gen.On("Probe", mock.Anything).Return(errors.New("down too"))

	o := New(vision, store, gen)
	resp, err := o.Answer(context.Background(), Request{ImagePath: "/tmp/photo.png", Language: locales.Italian}, nil)
	require.NoError(t, err)
	// Resolution still yields a non-empty placeholder and proceeds.
	assert.NotEmpty(t, resp.Query)
	assert.Contains(t, resp.Query, "Descrizione simulata")
	assert.Equal(t, resp.Query, store.last)
	assert.Equal(t, StateFallback, resp.State)
}

func TestAnswerRejectsUnsupportedImage(t *testing.T) {
	o := New(&models.MockVision{}, &stubSearcher{}, &models.MockGenerator{})
	_, err := o.Answer(context.Background(), Request{ImagePath: "/tmp/diagram.tiff", Language: locales.English}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".tiff")
}
