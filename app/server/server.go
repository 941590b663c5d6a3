// Package server exposes the query path over HTTP. Answers stream as
// server-sent events so the caller sees the response grow while the
// model is still generating.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ManualRAG/app/locales"
	"ManualRAG/app/orchestrator"
)

type Server struct {
	orchestrator *orchestrator.Orchestrator
	imagesDir    string
	defaultModel string
	addr         string
}

func New(orch *orchestrator.Orchestrator, imagesDir, defaultModel, addr string) *Server {
	return &Server{
		orchestrator: orch,
		imagesDir:    imagesDir,
		defaultModel: defaultModel,
		addr:         addr,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(s.imagesDir))))
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 300 * time.Second, // generation streams can run long
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("🚀 Query API listening on %s", s.addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleQuery accepts a multipart form with either a `text` field or an
// `image` upload, plus `language` and `model` selectors. The reply is an
// SSE stream: `token` events while the answer grows, then one `done`
// event with the full response and retrieved documents.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	req := orchestrator.Request{
		Text:     r.FormValue("text"),
		Language: locales.Parse(r.FormValue("language")),
		Model:    r.FormValue("model"),
	}
	if req.Model == "" {
		req.Model = s.defaultModel
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		path, saveErr := s.saveUpload(file, header.Filename)
		if saveErr != nil {
			http.Error(w, saveErr.Error(), http.StatusBadRequest)
			return
		}
		defer os.Remove(path)
		req.ImagePath = path
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	resp, err := s.orchestrator.Answer(r.Context(), req, func(token string) {
		writeEvent(w, flusher, "token", map[string]string{"content": token})
	})
	if err != nil {
		writeEvent(w, flusher, "error", map[string]string{"error": err.Error()})
		return
	}

	writeEvent(w, flusher, "done", resp)
}

func (s *Server) saveUpload(file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png":
	default:
		return "", fmt.Errorf("unsupported image format %q", ext)
	}

	tmp, err := os.CreateTemp("", "query-image-*"+ext)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	defer tmp.Close()

	if _, err = io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}
	return tmp.Name(), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️ Could not encode %s event: %v", event, err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
