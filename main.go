package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ManualRAG/app/configs"
	"ManualRAG/app/ingestion"
	"ManualRAG/app/locales"
	"ManualRAG/app/models"
	"ManualRAG/app/orchestrator"
	"ManualRAG/app/rag"
	"ManualRAG/app/server"
	"ManualRAG/app/storage"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "manualrag",
		Short:        "Multimodal assistant over industrial maintenance manuals",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration file")
	root.AddCommand(newIngestCommand(), newServeCommand())

	if err := root.Execute(); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

func newIngestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Index every PDF manual from the configured directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg, err := configs.LoadConfig(configPath)
			if err != nil {
				return err
			}

			client := models.NewOllamaClient(cfg.Ollama.BaseURL, cfg.Models.Vision, cfg.Models.Embedding)

			vectors, err := rag.NewQdrantStore(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Collection)
			if err != nil {
				return err
			}
			store := rag.NewStore(vectors, client)
			defer store.Close()
			if err = store.EnsureCollection(ctx); err != nil {
				return fmt.Errorf("vector store unavailable: %w", err)
			}

			ledger, err := storage.NewSQLiteLedger(cfg.LedgerPath)
			if err != nil {
				return err
			}
			defer ledger.Close()

			pipeline := ingestion.NewPipeline(ingestion.NewPartitioner(), client, store, ledger, locales.Parse(cfg.Language))
			if err = pipeline.ProcessDirectory(ctx, cfg.ManualsDir, cfg.ImagesDir); err != nil {
				return err
			}

			runs, err := ledger.History(ctx, 10)
			if err != nil {
				return fmt.Errorf("read ingestion history: %w", err)
			}
			for _, run := range runs {
				log.Printf("📂 %s  %s  %d documents  %s", run.CreatedAt.Format("2006-01-02 15:04"), run.SourceFile, run.Documents, run.Status)
			}
			return nil
		},
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg, err := configs.LoadConfig(configPath)
			if err != nil {
				return err
			}

			client := models.NewOllamaClient(cfg.Ollama.BaseURL, cfg.Models.Vision, cfg.Models.Embedding)

			vectors, err := rag.NewQdrantStore(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Collection)
			if err != nil {
				return err
			}
			store := rag.NewStore(vectors, client)
			defer store.Close()

			orch := orchestrator.New(client, store, client)
			srv := server.New(orch, cfg.ImagesDir, cfg.Models.Generation, cfg.HTTPAddr)
			return srv.Start(ctx)
		},
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
