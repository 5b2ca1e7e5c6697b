package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// sampleLimit bounds the amount of text sent to the classification
// capability per document.
const sampleLimit = 3000

// imageConfidence is the fixed score assigned to vision-transcribed
// documents, which carry no layout information to estimate from.
const imageConfidence = 85

// TableExtractor extracts zero or more raw tables from a PDF on disk.
// An empty result means no tabular structure was found.
type TableExtractor interface {
	Tables(path string) []RawTable
}

// TextExtractor extracts the page count and per-page text blocks from a
// PDF on disk.
type TextExtractor interface {
	Text(path string) (pageCount int, blocks []string, err error)
}

// Classifier assigns a document-format label to a text sample via an
// external capability. The raw response is mapped with ParseFormat.
type Classifier interface {
	Classify(ctx context.Context, sample string) (string, error)
}

// Transcriber extracts financial key-value text from an image document
// via an external vision capability.
type Transcriber interface {
	Transcribe(ctx context.Context, image []byte, contentType string) (string, error)
}

// Pipeline runs the extraction-and-normalization sequence. Documents
// are processed one at a time; no state is shared across documents.
type Pipeline struct {
	tables      TableExtractor
	text        TextExtractor
	classifier  Classifier
	transcriber Transcriber
}

// NewPipeline creates a Pipeline with the PDF extractors and the given
// capability providers.
func NewPipeline(classifier Classifier, transcriber Transcriber) *Pipeline {
	return NewPipelineWithDeps(NewPDFTables(), PDFText{}, classifier, transcriber)
}

// NewPipelineWithDeps creates a Pipeline with custom extractors for testing.
func NewPipelineWithDeps(tables TableExtractor, text TextExtractor, classifier Classifier, transcriber Transcriber) *Pipeline {
	return &Pipeline{
		tables:      tables,
		text:        text,
		classifier:  classifier,
		transcriber: transcriber,
	}
}

// Process extracts, classifies, and normalizes one document. PDFs go
// through table and text extraction; everything else goes through
// vision transcription. The returned Result is owned by the caller.
func (p *Pipeline) Process(ctx context.Context, doc Document) (*Result, error) {
	if doc.ContentType == "application/pdf" {
		return p.processPDF(ctx, doc)
	}
	return p.processImage(ctx, doc)
}

func (p *Pipeline) processPDF(ctx context.Context, doc Document) (*Result, error) {
	path, cleanup, err := scratchFile(doc)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pageCount, blocks, err := p.text.Text(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	tables := p.tables.Tables(path)

	text := strings.Join(blocks, "\n")
	rows := StructureLines(doc.Name, text)

	return &Result{
		Tables:     tables,
		TextBlocks: blocks,
		Format:     p.classify(ctx, text),
		Confidence: Confidence(len(tables), len(blocks)),
		Dataset:    Merge(tables, rows),
		PageCount:  pageCount,
	}, nil
}

// processImage handles non-PDF documents with a single vision call. A
// transcription failure fails the document; there is no retry and no
// fallback on this path.
func (p *Pipeline) processImage(ctx context.Context, doc Document) (*Result, error) {
	text, err := p.transcriber.Transcribe(ctx, doc.Data, doc.ContentType)
	if err != nil {
		return nil, fmt.Errorf("transcribing image: %w", err)
	}

	rows := StructureLines(doc.Name, text)
	return &Result{
		TextBlocks: []string{text},
		Format:     p.classify(ctx, text),
		Confidence: imageConfidence,
		Dataset:    Merge(nil, rows),
		PageCount:  1,
	}, nil
}

// classify truncates the sample and invokes the classification
// capability at most once. Any failure degrades to FormatUnknown; no
// error ever reaches the caller from here.
func (p *Pipeline) classify(ctx context.Context, text string) Format {
	sample := text
	if len(sample) > sampleLimit {
		sample = sample[:sampleLimit]
	}
	if strings.TrimSpace(sample) == "" {
		return FormatUnknown
	}

	label, err := p.classifier.Classify(ctx, sample)
	if err != nil {
		slog.Warn("Classification failed, using default label", "error", err)
		return FormatUnknown
	}
	return ParseFormat(label)
}

// scratchFile writes the document to a temporary location for library
// consumption. The cleanup function is safe to call on every return
// path and removes the file.
func scratchFile(doc Document) (string, func(), error) {
	f, err := os.CreateTemp("", "ledgerlens-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("creating scratch file: %w", err)
	}
	path := f.Name()

	if _, err := f.Write(doc.Data); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, fmt.Errorf("writing scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, fmt.Errorf("closing scratch file: %w", err)
	}

	cleanup := func() {
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to remove scratch file", "path", path, "error", err)
		}
	}
	return path, cleanup, nil
}
