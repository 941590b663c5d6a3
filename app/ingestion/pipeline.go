package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xlab/treeprint"

	"ManualRAG/app/locales"
	"ManualRAG/app/models"
	"ManualRAG/app/rag"
	"ManualRAG/app/storage"
)

// minTextLength is the noise floor: text-bearing elements whose trimmed
// content is this long or shorter produce no document.
const minTextLength = 10

type Pipeline struct {
	partitioner *Partitioner
	vision      models.Vision
	store       *rag.Store
	ledger      storage.Interface
	lang        locales.Language
}

// NewPipeline wires the ingestion write path. ledger may be nil when no
// run history is wanted.
func NewPipeline(partitioner *Partitioner, vision models.Vision, store *rag.Store, ledger storage.Interface, lang locales.Language) *Pipeline {
	return &Pipeline{
		partitioner: partitioner,
		vision:      vision,
		store:       store,
		ledger:      ledger,
		lang:        lang,
	}
}

// ProcessManual partitions one manual, describes its diagrams and indexes
// everything as a single batch. A manual that yields nothing still gets a
// placeholder document so it stays discoverable in the index. Returns the
// number of documents written.
func (p *Pipeline) ProcessManual(ctx context.Context, pdfPath, imageDir string) (int, error) {
	log.Printf("📄 Processing %s...", pdfPath)
	source := filepath.Base(pdfPath)

	elements, err := p.partitioner.Partition(ctx, pdfPath, imageDir)
	if err != nil {
		p.recordRun(ctx, source, 0, storage.StatusFailed, err.Error())
		return 0, err
	}

	var docs []rag.Document
	for _, el := range elements {
		switch {
		case el.Category == CategoryImage:
			desc, derr := p.vision.Describe(ctx, el.ImagePath, p.lang)
			if derr != nil || desc == "" {
				log.Printf("⚠️ No description for %s: %v", el.ImagePath, derr)
				continue
			}
			docs = append(docs, rag.Document{
				Content:    desc,
				Kind:       rag.KindImageDescription,
				ImagePath:  el.ImagePath,
				SourceFile: source,
			})
		case el.Category.TextBearing():
			if len([]rune(strings.TrimSpace(el.Text))) > minTextLength {
				docs = append(docs, rag.Document{
					Content:    el.Text,
					Kind:       rag.KindText,
					SourceFile: source,
				})
			}
		}
	}

	status := storage.StatusIndexed
	if len(docs) == 0 {
		log.Printf("⚠️ No content found in %s. Indexing a placeholder document.", source)
		docs = []rag.Document{{
			Content:    fmt.Sprintf(locales.For(p.lang).PlaceholderDocument, source),
			Kind:       rag.KindText,
			SourceFile: source,
		}}
		status = storage.StatusPlaceholder
	}

	count, err := p.store.AddDocuments(ctx, docs)
	if err != nil {
		p.recordRun(ctx, source, 0, storage.StatusFailed, err.Error())
		return 0, fmt.Errorf("index %s: %w", source, err)
	}

	p.recordRun(ctx, source, count, status, "")
	log.Printf("✅ Finished processing %s. Added %d items.", source, count)
	return count, nil
}

// ProcessDirectory ingests every PDF under dir, one manual at a time.
// Per-file extraction failures are logged and skipped and an empty
// directory is a successful no-op, but an unavailable vector store
// aborts the run.
func (p *Pipeline) ProcessDirectory(ctx context.Context, dir, imageDir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read manuals directory %s: %w", dir, err)
	}

	tree := treeprint.NewWithRoot(dir)
	matched := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		matched++

		count, perr := p.ProcessManual(ctx, filepath.Join(dir, entry.Name()), imageDir)
		if perr != nil {
			// A dead store fails every upsert; only extraction problems
			// are confined to the one manual.
			if errors.Is(perr, rag.ErrStoreUnavailable) {
				return perr
			}
			log.Printf("❌ Skipping %s: %v", entry.Name(), perr)
			tree.AddNode(fmt.Sprintf("%s (failed)", entry.Name()))
			continue
		}
		tree.AddNode(fmt.Sprintf("%s (%d documents)", entry.Name(), count))
	}

	if matched == 0 {
		log.Printf("ℹ️ No PDF manuals found in %s", dir)
		return nil
	}

	log.Printf("🌲 Ingestion summary:\n%s", tree.String())
	return nil
}

func (p *Pipeline) recordRun(ctx context.Context, source string, documents int, status, detail string) {
	if p.ledger == nil {
		return
	}
	err := p.ledger.SaveRun(ctx, storage.Run{
		SourceFile: source,
		Documents:  documents,
		Status:     status,
		Detail:     detail,
	})
	if err != nil {
		log.Printf("⚠️ Could not record ingestion run for %s: %v", source, err)
	}
}
