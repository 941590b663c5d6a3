package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"ManualRAG/app/utils/restclient"
)

const (
	chatEndpoint      = "/api/chat"
	embeddingEndpoint = "/api/embeddings"
	tagsEndpoint      = "/api/tags"
)

// ErrUnavailable is returned by Probe when the model server cannot be
// reached or refuses the liveness request.
var ErrUnavailable = errors.New("model server unavailable")

var (
	_ Encoder   = &OllamaClient{}
	_ Vision    = &OllamaClient{}
	_ Generator = &OllamaClient{}
)

// OllamaClient talks to a local Ollama server and implements all three
// model collaborator contracts.
type OllamaClient struct {
	restClient     *restclient.RestClient
	cache          sync.Map
	visionModel    string
	embeddingModel string
}

func NewOllamaClient(baseURL, visionModel, embeddingModel string) *OllamaClient {
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		restClient:     restclient.NewRestClient(baseURL, nil),
		visionModel:    visionModel,
		embeddingModel: embeddingModel,
	}
}

func (mc *OllamaClient) Probe(ctx context.Context) error {
	_, status, err := mc.restClient.Get(ctx, tagsEndpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: http %d", ErrUnavailable, status)
	}
	return nil
}

// ChatStream runs one streaming chat completion. fn observes every token
// as it arrives; the concatenated response is returned when the stream
// finishes.
func (mc *OllamaClient) ChatStream(ctx context.Context, model string, messages []Message, fn func(token string)) (string, error) {
	payload := chatRequestPayload{
		Model:    model,
		Messages: messages,
		Stream:   true,
	}

	var full string
	status, err := mc.restClient.PostStream(ctx, chatEndpoint, payload, nil, func(line []byte) error {
		var chunk chatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			log.Printf("⚠️ Skipping malformed stream line: %v", err)
			return nil
		}
		if chunk.Error != "" {
			return fmt.Errorf("model error: %s", chunk.Error)
		}
		if chunk.Message.Content != "" {
			full += chunk.Message.Content
			if fn != nil {
				fn(chunk.Message.Content)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("chat stream failed: http %d", status)
	}
	return full, nil
}
