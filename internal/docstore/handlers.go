package docstore

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/ledgerlens/ledgerlens/internal/extract"
)

// maxUploadSize bounds multipart parsing; high-resolution phone photos
// of receipts can be large.
const maxUploadSize = int64(50 << 20) // 50MB

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// detectContentType resolves the media type of an uploaded file from
// its declared type, falling back to the filename extension.
func detectContentType(declared, filename string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

// batchItemResponse is the JSON shape of one batch upload outcome.
type batchItemResponse struct {
	Name   string  `json:"name"`
	Record *Record `json:"record,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// handleUploadDocuments accepts one or more files and processes them
// sequentially. Individual failures are reported per file; the batch
// itself always completes.
func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Error parsing form"})
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No files provided"})
		return
	}

	var docs []extract.Document
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			slog.Error("Error opening uploaded file", "filename", header.Filename, "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Error reading upload"})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			slog.Error("Error reading uploaded file", "filename", header.Filename, "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Error reading upload"})
			return
		}
		docs = append(docs, extract.Document{
			Name:        header.Filename,
			ContentType: detectContentType(header.Header.Get("Content-Type"), header.Filename),
			Data:        data,
		})
	}

	items := s.service.ProcessBatch(r.Context(), docs)

	resp := make([]batchItemResponse, 0, len(items))
	failed := 0
	for _, item := range items {
		out := batchItemResponse{Name: item.Name, Record: item.Record}
		if item.Err != nil {
			out.Error = item.Err.Error()
			failed++
		}
		resp = append(resp, out)
	}

	code := http.StatusCreated
	if failed == len(items) {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, resp)
}

// handleListRecords returns all stored records
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListRecords()
	if err != nil {
		slog.Error("Error listing records", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleGetRecord returns a single record
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := s.service.GetRecord(r.PathValue("id"))
	if err != nil {
		corsError(w, "Record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleDeleteRecord removes a record and its stored file
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRecord(r.PathValue("id")); err != nil {
		corsError(w, "Record not found", http.StatusNotFound)
		return
	}
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleGetDocumentFile serves the original uploaded document
func (s *Server) handleGetDocumentFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetDocumentFile(r.PathValue("id"))
	if err != nil {
		corsError(w, "Record not found", http.StatusNotFound)
		return
	}
	setCORSHeaders(w)
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleExportDataset serves the merged dataset as CSV or XLSX
func (s *Server) handleExportDataset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	format := r.URL.Query().Get("format")

	data, contentType, err := s.service.ExportDataset(id, format)
	if err != nil {
		slog.Error("Error exporting dataset", "id", id, "format", format, "error", err)
		corsError(w, "Export failed", http.StatusBadRequest)
		return
	}

	ext := format
	if ext == "" {
		ext = "csv"
	}
	setCORSHeaders(w)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.`+ext+`"`)
	w.Write(data)
}

type feedbackRequest struct {
	DocumentID string `json:"document_id"`
	Message    string `json:"message"`
}

// handleAddFeedback appends reviewer feedback to the bounded log
func (s *Server) handleAddFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	entry, err := s.service.AddFeedback(req.DocumentID, req.Message)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// handleListFeedback returns the retained feedback entries
func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListFeedback())
}
