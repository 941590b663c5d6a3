package models

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"ManualRAG/app/locales"
)

// Describe sends the image to the vision model and returns its textual
// description. It never fails hard: when the image cannot be read or the
// model is unreachable, the locale's simulated description is returned so
// ingestion and query resolution can proceed.
func (mc *OllamaClient) Describe(ctx context.Context, imagePath string, lang locales.Language) (string, error) {
	loc := locales.For(lang)

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		log.Printf("⚠️ Cannot read image %s: %v", imagePath, err)
		return loc.MockDescription, nil
	}

	log.Printf("🖼️ Generating description for %s (%s)...", imagePath, lang)

	payload := chatRequestPayload{
		Model: mc.visionModel,
		Messages: []Message{{
			Role:    "user",
			Content: loc.VisionPrompt,
			Images:  []string{base64.StdEncoding.EncodeToString(raw)},
		}},
		Stream: false,
	}

	body, status, err := mc.restClient.Post(ctx, chatEndpoint, payload, nil)
	if err != nil || status != http.StatusOK {
		log.Printf("⚠️ Error describing image %s: http=%d err=%v", imagePath, status, err)
		return loc.MockDescription, nil
	}

	var resp chatResponse
	if err = json.Unmarshal(body, &resp); err != nil || resp.Message.Content == "" {
		log.Printf("⚠️ Unusable vision response for %s: %v", imagePath, err)
		return loc.MockDescription, nil
	}

	return resp.Message.Content, nil
}
