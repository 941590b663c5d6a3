package models

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ManualRAG/app/locales"
)

type MockEncoder struct {
	mock.Mock
}

func (m *MockEncoder) EmbedText(ctx context.Context, input string) ([]float32, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockVision struct {
	mock.Mock
}

func (m *MockVision) Describe(ctx context.Context, imagePath string, lang locales.Language) (string, error) {
	args := m.Called(ctx, imagePath, lang)
	return args.String(0), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
	Tokens []string
}

func (m *MockGenerator) Probe(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGenerator) ChatStream(ctx context.Context, model string, messages []Message, fn func(token string)) (string, error) {
	args := m.Called(ctx, model, messages)
	full := ""
	for _, tok := range m.Tokens {
		full += tok
		if fn != nil {
			fn(tok)
		}
	}
	if args.Error(1) != nil {
		return "", args.Error(1)
	}
	if args.String(0) != "" {
		return args.String(0), nil
	}
	return full, nil
}
