package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type QdrantConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"gt=0,lte=65535"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
}

type ModelsConfig struct {
	Generation string `yaml:"generation" validate:"required"`
	Vision     string `yaml:"vision" validate:"required"`
	Embedding  string `yaml:"embedding" validate:"required"`
}

type Config struct {
	Qdrant     QdrantConfig `yaml:"qdrant"`
	Ollama     OllamaConfig `yaml:"ollama"`
	Models     ModelsConfig `yaml:"models"`
	Collection string       `yaml:"collection" validate:"required"`
	ManualsDir string       `yaml:"manuals_dir" validate:"required"`
	ImagesDir  string       `yaml:"images_dir" validate:"required"`
	LedgerPath string       `yaml:"ledger_path"`
	Language   string       `yaml:"language" validate:"oneof=Italiano English"`
	HTTPAddr   string       `yaml:"http_addr" validate:"required"`
}

func Default() *Config {
	return &Config{
		Qdrant: QdrantConfig{Host: "localhost", Port: 6334},
		Ollama: OllamaConfig{BaseURL: "http://localhost:11434"},
		Models: ModelsConfig{
			Generation: "mistral",
			Vision:     "llava",
			Embedding:  "all-minilm",
		},
		Collection: "manuals_rag",
		ManualsDir: "data_manuals",
		ImagesDir:  "extracted_images",
		LedgerPath: "data/ingestion.db",
		Language:   "Italiano",
		HTTPAddr:   ":8080",
	}
}

// LoadConfig reads the YAML config at path, expanding ${ENV} references
// first. A missing file yields the default local setup.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("ℹ️ Config %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read configs file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configs: %w", err)
	}
	return nil
}
