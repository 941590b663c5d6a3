// Package orchestrator resolves a user query, retrieves manual context
// and drives the answer model, degrading to a deterministic response when
// the model is unavailable.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"ManualRAG/app/locales"
	"ManualRAG/app/models"
	"ManualRAG/app/rag"
)

const (
	// resultLimit caps retrieval for one request.
	resultLimit = 4
	// previewRunes bounds each excerpt quoted by the fallback answer.
	previewRunes = 200
)

type State string

const (
	StateGenerated State = "answered-generated"
	StateFallback  State = "answered-fallback"
	StateNoResults State = "no-results"
)

// Request is one user question: free text or an image of the problem.
type Request struct {
	Text      string
	ImagePath string
	Language  locales.Language
	Model     string
}

type Response struct {
	Query         string         `json:"query"`
	ImageAnalysis string         `json:"image_analysis,omitempty"`
	Documents     []rag.Document `json:"documents"`
	Answer        string         `json:"answer"`
	State         State          `json:"state"`
	Notice        string         `json:"notice,omitempty"`
}

type searcher interface {
	Search(ctx context.Context, query string, limit int) ([]rag.Document, error)
}

type Orchestrator struct {
	vision    models.Vision
	store     searcher
	generator models.Generator
}

func New(vision models.Vision, store searcher, generator models.Generator) *Orchestrator {
	return &Orchestrator{
		vision:    vision,
		store:     store,
		generator: generator,
	}
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Answer runs one request to a terminal state. onToken, when non-nil,
// observes every generated token so callers can show the partial answer
// while the stream is still running. Only invalid input is an error; any
// collaborator failure degrades inside the response instead.
func (o *Orchestrator) Answer(ctx context.Context, req Request, onToken func(string)) (*Response, error) {
	loc := locales.For(req.Language)
	resp := &Response{}

	query := strings.TrimSpace(req.Text)
	if req.ImagePath != "" {
		ext := strings.ToLower(filepath.Ext(req.ImagePath))
		if !imageExtensions[ext] {
			return nil, fmt.Errorf("unsupported image format %q", ext)
		}
		desc, err := o.vision.Describe(ctx, req.ImagePath, req.Language)
		if err != nil || desc == "" {
			log.Printf("⚠️ Image resolution degraded: %v", err)
			desc = loc.MockDescription
		}
		resp.ImageAnalysis = desc
		query = desc
	}
	resp.Query = query

	if query != "" {
		docs, err := o.store.Search(ctx, query, resultLimit)
		if err != nil {
			log.Printf("⚠️ Retrieval failed, treating as no results: %v", err)
			docs = nil
		}
		resp.Documents = docs
	}

	if len(resp.Documents) == 0 {
		resp.State = StateNoResults
		return resp, nil
	}

	prompt := buildPrompt(loc, resp.Documents, query)

	if err := o.generator.Probe(ctx); err != nil {
		o.fallBack(resp, loc, err)
		return resp, nil
	}

	answer, err := o.generator.ChatStream(ctx, req.Model, []models.Message{{Role: "user", Content: prompt}}, onToken)
	if err != nil {
		log.Printf("⚠️ Generation failed mid-stream: %v", err)
		o.fallBack(resp, loc, err)
		return resp, nil
	}

	resp.Answer = answer
	resp.State = StateGenerated
	return resp, nil
}

// fallBack fills the response with the deterministic answer. No retry:
// the generator gets one probe per request.
func (o *Orchestrator) fallBack(resp *Response, loc locales.Strings, cause error) {
	resp.Answer = FallbackAnswer(loc, resp.Documents)
	resp.State = StateFallback
	resp.Notice = fmt.Sprintf(loc.ServiceUnavailable, cause)
}

func buildPrompt(loc locales.Strings, docs []rag.Document, query string) string {
	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}
	contextText := strings.Join(contents, "\n---\n")
	return loc.SystemInstruction + "\n\n" + fmt.Sprintf(loc.PromptTemplate, contextText, query)
}
