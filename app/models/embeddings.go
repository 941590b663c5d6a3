package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

func (mc *OllamaClient) EmbedText(ctx context.Context, input string) ([]float32, error) {
	if v, ok := mc.cache.Load(input); ok {
		if emb, ok2 := v.([]float32); ok2 {
			return emb, nil
		}
	}

	if mc.embeddingModel == "" {
		return nil, errors.New("embedding model is empty; configure OllamaClient.embeddingModel")
	}

	req := embeddingRequestPayload{
		Model:  mc.embeddingModel,
		Prompt: input,
	}
	resp, err := mc.sendEmbeddings(ctx, req, 3)
	if err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.New("no embedding data returned")
	}
	mc.cache.Store(input, resp.Embedding)
	return resp.Embedding, nil
}

func (mc *OllamaClient) sendEmbeddings(ctx context.Context, payload embeddingRequestPayload, maxRetries int) (*embeddingResponse, error) {
	var (
		lastErr error
		body    []byte
		status  int
		out     embeddingResponse
	)

	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if i > 0 {
			time.Sleep(time.Duration(100*(1<<uint(i))) * time.Millisecond)
		}

		b, s, err := mc.restClient.Post(ctx, embeddingEndpoint, payload, nil)
		body, status, lastErr = b, s, err
		if err != nil {
			log.Printf("⚠️ embed attempt %d failed: http=%d err=%v", i+1, status, err)
			continue
		}
		if status != http.StatusOK {
			lastErr = fmt.Errorf("embeddings http %d: %s", status, body)
			log.Printf("⚠️ %v", lastErr)
			continue
		}
		if err := json.Unmarshal(body, &out); err != nil {
			lastErr = fmt.Errorf("parse embeddings json: %w", err)
			log.Printf("⚠️ %v", lastErr)
			continue
		}

		return &out, nil
	}
	return nil, fmt.Errorf("embeddings request failed after %d retries: %w", maxRetries, lastErr)
}
