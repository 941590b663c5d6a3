package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Runner executes an external extraction tool. Abstracted so tests can
// substitute canned output for the poppler binaries.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %s", name, bytes.TrimSpace(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Partitioner splits a manual into ordered typed elements using the
// poppler tools. High-fidelity mode recovers text and images; when it
// cannot run it falls back to text-only fast mode. The fallback is a
// correctness requirement: ingestion never aborts just because image
// extraction is unavailable in the environment.
type Partitioner struct {
	runner Runner

	// Chunking policy. The hard budget is never exceeded; the soft limit
	// splits proactively; sections shorter than CombineUnder merge into
	// the running chunk.
	MaxCharacters int
	SoftLimit     int
	CombineUnder  int
}

const (
	defaultMaxCharacters = 4000
	defaultSoftLimit     = 3800
	defaultCombineUnder  = 2000
)

func NewPartitioner() *Partitioner {
	return NewPartitionerWithRunner(execRunner{})
}

func NewPartitionerWithRunner(r Runner) *Partitioner {
	return &Partitioner{
		runner:        r,
		MaxCharacters: defaultMaxCharacters,
		SoftLimit:     defaultSoftLimit,
		CombineUnder:  defaultCombineUnder,
	}
}

// Partition extracts the ordered elements of one manual. Image elements
// reference raster files written under imageDir.
func (p *Partitioner) Partition(ctx context.Context, pdfPath, imageDir string) ([]Element, error) {
	elements, err := p.partitionHiRes(ctx, pdfPath, imageDir)
	if err == nil {
		return elements, nil
	}

	log.Printf("⚠️ High-res extraction failed for %s: %v", pdfPath, err)
	log.Printf("↩️ Falling back to fast extraction (text only, no images)...")

	elements, err = p.partitionFast(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("fast extraction of %s: %w", pdfPath, err)
	}
	return elements, nil
}

func (p *Partitioner) partitionHiRes(ctx context.Context, pdfPath, imageDir string) ([]Element, error) {
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	raw, err := p.runner.Run(ctx, "pdftotext", "-layout", pdfPath, "-")
	if err != nil {
		return nil, err
	}

	images, err := p.extractImages(ctx, pdfPath, imageDir)
	if err != nil {
		return nil, err
	}

	elements := p.chunkByTitle(classifyText(string(raw)))
	return append(elements, images...), nil
}

func (p *Partitioner) partitionFast(ctx context.Context, pdfPath string) ([]Element, error) {
	raw, err := p.runner.Run(ctx, "pdftotext", pdfPath, "-")
	if err != nil {
		return nil, err
	}
	return p.chunkByTitle(classifyText(string(raw))), nil
}

func (p *Partitioner) extractImages(ctx context.Context, pdfPath, imageDir string) ([]Element, error) {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	prefix := filepath.Join(imageDir, base)

	if _, err := p.runner.Run(ctx, "pdfimages", "-png", pdfPath, prefix); err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	elements := make([]Element, 0, len(paths))
	for _, path := range paths {
		elements = append(elements, Element{Category: CategoryImage, ImagePath: path})
	}
	return elements, nil
}

var (
	blockSeparator = regexp.MustCompile(`\n\s*\n`)
	headingPattern = regexp.MustCompile(`^\d+(\.\d+)*[.)]?\s+\S`)
	listPattern    = regexp.MustCompile(`^([-*•]|\d+[.)])\s+`)
	columnGap      = regexp.MustCompile(`\S {2,}\S`)
)

// classifyText splits raw extracted text into blocks and assigns each a
// category from the closed element set.
func classifyText(text string) []Element {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n\n")

	var elements []Element
	for _, block := range blockSeparator.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		elements = append(elements, Element{Category: classifyBlock(block), Text: block})
	}
	return elements
}

func classifyBlock(block string) Category {
	lines := strings.Split(block, "\n")

	if len(lines) == 1 {
		line := strings.TrimSpace(lines[0])
		if listPattern.MatchString(line) {
			return CategoryListItem
		}
		if isTitleLine(line) {
			return CategoryTitle
		}
	}

	listCount, tableCount := 0, 0
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if listPattern.MatchString(l) {
			listCount++
		}
		if strings.Count(l, "|") >= 2 || len(columnGap.FindAllString(l, -1)) >= 2 {
			tableCount++
		}
	}
	if len(lines) > 1 {
		if listCount*2 >= len(lines) {
			return CategoryListItem
		}
		if tableCount*2 >= len(lines) {
			return CategoryTable
		}
	}

	if letterRatio(block) < 0.5 {
		return CategoryUncategorizedText
	}
	return CategoryNarrativeText
}

func isTitleLine(line string) bool {
	runes := []rune(line)
	if len(runes) == 0 || len(runes) > 80 || strings.HasSuffix(line, ".") {
		return false
	}
	if headingPattern.MatchString(line) {
		return true
	}

	words := strings.Fields(line)
	if len(words) > 8 {
		return false
	}
	capitalized := 0
	for _, w := range words {
		first := []rune(w)[0]
		if unicode.IsUpper(first) || unicode.IsDigit(first) {
			capitalized++
		}
	}
	return capitalized == len(words)
}

func letterRatio(block string) float64 {
	letters, total := 0, 0
	for _, r := range block {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}
