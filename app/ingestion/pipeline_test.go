package ingestion

import (
	"context"
	"errors"
	"hash/fnv"
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
	"ManualRAG/app/storage"
)

type wordEncoder struct{}

func (wordEncoder) EmbedText(_ context.Context, input string) ([]float32, error) {
	vec := make([]float32, rag.VectorSize)
	for _, word := range strings.Fields(strings.ToLower(input)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,;:!?")))
		vec[h.Sum32()%rag.VectorSize]++
	}
	return vec, nil
}

type fakeLedger struct {
	runs []storage.Run
}

func (f *fakeLedger) SaveRun(_ context.Context, run storage.Run) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeLedger) RunsBySource(_ context.Context, sourceFile string) ([]storage.Run, error) {
	var out []storage.Run
	for _, r := range f.runs {
		if r.SourceFile == sourceFile {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) History(_ context.Context, _ int) ([]storage.Run, error) {
	return f.runs, nil
}

func newTestPipeline(t *testing.T, runner Runner, vision models.Vision) (*Pipeline, *rag.Store, *fakeLedger) {
	t.Helper()
	store := rag.NewStore(rag.NewMemoryStore(), wordEncoder{})
	require.NoError(t, store.EnsureCollection(context.Background()))
	ledger := &fakeLedger{}
	return NewPipeline(NewPartitionerWithRunner(runner), vision, store, ledger, locales.English), store, ledger
}

func TestProcessManualIndexesTextAndImages(t *testing.T) {
	vision := &models.MockVision{}
	vision.On("Describe", mock.Anything, mock.Anything, locales.English).Return("Exploded view of the hydraulic pump", nil)

	runner := &mockRunner{
		textOut:    []byte("PUMP MAINTENANCE\n\nDrain the circuit before removing the hydraulic pump body."),
		imageFiles: 1,
	}
	pipeline, store, ledger := newTestPipeline(t, runner, vision)

	count, err := pipeline.ProcessManual(context.Background(), "/manuals/pump.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := store.Search(context.Background(), "hydraulic pump", 4)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, doc := range results {
		assert.Equal(t, "pump.pdf", doc.SourceFile)
	}

	require.Len(t, ledger.runs, 1)
	assert.Equal(t, storage.StatusIndexed, ledger.runs[0].Status)
	assert.Equal(t, 2, ledger.runs[0].Documents)
	vision.AssertExpectations(t)
}

func TestProcessManualNoiseFilter(t *testing.T) {
	runner := &mockRunner{
		// "Page 3" trims to under the noise floor and must not be indexed.
		textOut: []byte("Lubricate every grease fitting on the boom arm before seasonal storage.\n\nPage 3"),
	}
	store := rag.NewStore(rag.NewMemoryStore(), wordEncoder{})
	require.NoError(t, store.EnsureCollection(context.Background()))
	partitioner := NewPartitionerWithRunner(runner)
	partitioner.CombineUnder = 0 // every section stands alone
	ledger := &fakeLedger{}
	pipeline := NewPipeline(partitioner, &models.MockVision{}, store, ledger, locales.English)

	count, err := pipeline.ProcessManual(context.Background(), "/manuals/noise.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, ledger.runs[0].Documents)

	results, err := store.Search(context.Background(), "Page 3", 4)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "Lubricate")
}

func TestProcessManualEmptyYieldsPlaceholder(t *testing.T) {
	runner := &mockRunner{textOut: []byte("   \n\n  ")}
	pipeline, store, ledger := newTestPipeline(t, runner, &models.MockVision{})

	count, err := pipeline.ProcessManual(context.Background(), "/manuals/empty.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := store.Search(context.Background(), "empty.pdf indexed without extractable content", 4)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "empty.pdf", results[0].SourceFile)
	assert.Contains(t, results[0].Content, "empty.pdf")

	require.Len(t, ledger.runs, 1)
	assert.Equal(t, storage.StatusPlaceholder, ledger.runs[0].Status)
}

func TestProcessManualPartitionFailureRecorded(t *testing.T) {
	runner := &mockRunner{
		textErr:   errors.New("pdftotext: damaged xref"),
		imagesErr: errors.New("pdfimages: missing"),
	}
	pipeline, _, ledger := newTestPipeline(t, runner, &models.MockVision{})

	_, err := pipeline.ProcessManual(context.Background(), "/manuals/damaged.pdf", t.TempDir())
	require.Error(t, err)
	require.Len(t, ledger.runs, 1)
	assert.Equal(t, storage.StatusFailed, ledger.runs[0].Status)
}

func TestProcessDirectoryContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.PDF"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	runner := &mockRunner{textOut: []byte("General maintenance instructions for the whole machine family.")}
	pipeline, _, ledger := newTestPipeline(t, runner, &models.MockVision{})

	require.NoError(t, pipeline.ProcessDirectory(context.Background(), dir, t.TempDir()))
	assert.Len(t, ledger.runs, 2)
}

func TestProcessDirectoryAbortsOnDeadStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.pdf"), []byte("%PDF"), 0o644))

	// Collection never created: every upsert fails, so the run must
	// abort instead of skipping manual after manual.
	store := rag.NewStore(rag.NewMemoryStore(), wordEncoder{})
	ledger := &fakeLedger{}
	runner := &mockRunner{textOut: []byte("General maintenance instructions for the whole machine family.")}
	pipeline := NewPipeline(NewPartitionerWithRunner(runner), &models.MockVision{}, store, ledger, locales.English)

	err := pipeline.ProcessDirectory(context.Background(), dir, t.TempDir())
	require.ErrorIs(t, err, rag.ErrStoreUnavailable)

	require.Len(t, ledger.runs, 1)
	assert.Equal(t, storage.StatusFailed, ledger.runs[0].Status)
}

func TestProcessDirectoryEmptyIsSuccess(t *testing.T) {
	pipeline, _, ledger := newTestPipeline(t, &mockRunner{}, &models.MockVision{})
	require.NoError(t, pipeline.ProcessDirectory(context.Background(), t.TempDir(), t.TempDir()))
	assert.Empty(t, ledger.runs)
}

func TestProcessDirectoryMissingDirFails(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, &mockRunner{}, &models.MockVision{})
	err := pipeline.ProcessDirectory(context.Background(), "/does/not/exist", t.TempDir())
	require.Error(t, err)
}
