package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlens/ledgerlens/internal/extract"
	"github.com/ledgerlens/ledgerlens/internal/feedback"
)

// Pipeline runs the extraction pipeline for one document.
type Pipeline interface {
	Process(ctx context.Context, doc extract.Document) (*extract.Result, error)
}

// IDGenerator generates unique IDs for records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// BatchItem is the per-file outcome of a batch upload. A failed file
// carries its error; it never aborts the rest of the batch.
type BatchItem struct {
	Name   string
	Record *Record
	Err    error
}

// Service ties the extraction pipeline to persistence, storage, and the
// feedback log. Documents are processed sequentially.
type Service struct {
	db          DB
	storage     Storage
	pipeline    Pipeline
	feedback    *feedback.Log
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a Service with UUID record IDs and wall-clock time.
func NewService(db DB, storage Storage, pipeline Pipeline, fb *feedback.Log) *Service {
	return NewServiceWithDeps(db, storage, pipeline, fb, uuidGenerator{}, defaultTimeSource{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing.
func NewServiceWithDeps(db DB, storage Storage, pipeline Pipeline, fb *feedback.Log, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		pipeline:    pipeline,
		feedback:    fb,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	multiSpace  = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up phone-generated and otherwise awkward
// upload names before they hit the filesystem.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeChars.ReplaceAllString(base, "")
	base = multiSpace.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "document"
	}
	return base + ext
}

// ProcessDocument stores the original file, runs the pipeline, and
// persists the result. The stored file is cleaned up again if the
// pipeline or the database fails.
func (s *Service) ProcessDocument(ctx context.Context, name string, data []byte, contentType string) (*Record, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(name)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	result, err := s.pipeline.Process(ctx, extract.Document{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		slog.Error("Failed to process document",
			"name", name,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("processing document: %w", err)
	}

	record := &Record{
		ID:          id,
		Name:        name,
		ContentType: contentType,
		Filename:    savedPath,
		Result:      *result,
		CreatedAt:   now,
	}

	if err := s.db.SaveRecord(record); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving record: %w", err)
	}
	return record, nil
}

// ProcessBatch processes documents one at a time, to completion, in the
// order given. A failing document is reported in its BatchItem and the
// batch carries on.
func (s *Service) ProcessBatch(ctx context.Context, docs []extract.Document) []BatchItem {
	items := make([]BatchItem, 0, len(docs))
	for _, doc := range docs {
		record, err := s.ProcessDocument(ctx, doc.Name, doc.Data, doc.ContentType)
		if err != nil {
			slog.Warn("Batch item failed", "name", doc.Name, "error", err)
			items = append(items, BatchItem{Name: doc.Name, Err: err})
			continue
		}
		items = append(items, BatchItem{Name: doc.Name, Record: record})
	}
	return items
}

// GetRecord retrieves a record by ID.
func (s *Service) GetRecord(id string) (*Record, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return record, nil
}

// ListRecords returns all records.
func (s *Service) ListRecords() ([]*Record, error) {
	records, err := s.db.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes a record and its stored file.
func (s *Service) DeleteRecord(id string) error {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return fmt.Errorf("getting record for deletion: %w", err)
	}

	if err := s.storage.Delete(record.Filename); err != nil {
		slog.Warn("Failed to delete stored file", "filename", record.Filename, "error", err)
	}

	if err := s.db.DeleteRecord(id); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// GetDocumentFile retrieves the original uploaded file for a record.
func (s *Service) GetDocumentFile(id string) ([]byte, string, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting record: %w", err)
	}

	data, err := s.storage.Get(record.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting document file: %w", err)
	}
	return data, record.ContentType, nil
}

// ExportDataset serializes a record's merged dataset. Supported formats
// are "csv" and "xlsx".
func (s *Service) ExportDataset(id, format string) ([]byte, string, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting record: %w", err)
	}

	switch format {
	case "", "csv":
		data, err := datasetCSV(record.Result.Dataset)
		if err != nil {
			return nil, "", err
		}
		return data, "text/csv; charset=utf-8", nil
	case "xlsx":
		data, err := datasetXLSX(record.Result.Dataset)
		if err != nil {
			return nil, "", err
		}
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}
}

// AddFeedback appends reviewer feedback for a record to the bounded log.
func (s *Service) AddFeedback(documentID, message string) (feedback.Entry, error) {
	if strings.TrimSpace(message) == "" {
		return feedback.Entry{}, fmt.Errorf("feedback message is required")
	}
	entry := feedback.Entry{
		DocumentID: documentID,
		Message:    message,
		CreatedAt:  s.timeSource.Now(),
	}
	s.feedback.Add(entry)
	return entry, nil
}

// ListFeedback returns the retained feedback entries, oldest first.
func (s *Service) ListFeedback() []feedback.Entry {
	return s.feedback.Entries()
}
