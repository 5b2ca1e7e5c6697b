package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ledgerlens/ledgerlens/internal/extract"
	"github.com/ledgerlens/ledgerlens/internal/feedback"
)

// multipartBody builds a multipart request body with one file part per entry.
func multipartBody(field string, files map[string][]byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, data := range files {
		part, err := writer.CreateFormFile(field, name)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(data)
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(writer.Close()).To(Succeed())
	return body, writer.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		db       *mockDB
		storage  *mockStorage
		pipeline *mockPipeline
		server   *Server
		recorder *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		pipeline = &mockPipeline{result: &extract.Result{
			Format:     extract.FormatInvoice,
			Confidence: 90,
			Dataset: extract.Dataset{
				Columns: []string{"Source", "Field", "Value"},
				Rows:    [][]string{{"doc.pdf", "Total", "42.00"}},
			},
			PageCount: 1,
		}}
		service := NewServiceWithDeps(db, storage, pipeline, feedback.NewLog(5),
			&fixedIDGenerator{}, &fixedTimeSource{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)})
		server = NewServer(service, BasicAuth{})
		recorder = httptest.NewRecorder()
	})

	Describe("POST /api/documents", func() {
		It("processes an upload and returns the records", func() {
			body, contentType := multipartBody("files", map[string][]byte{"doc.pdf": []byte("%PDF-1.4")})
			req := httptest.NewRequest("POST", "/api/documents", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusCreated))
			var items []batchItemResponse
			Expect(json.NewDecoder(recorder.Body).Decode(&items)).To(Succeed())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Record.Result.Format).To(Equal(extract.FormatInvoice))
			Expect(items[0].Error).To(BeEmpty())
		})

		It("accepts the singular file field", func() {
			body, contentType := multipartBody("file", map[string][]byte{"doc.pdf": []byte("%PDF-1.4")})
			req := httptest.NewRequest("POST", "/api/documents", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusCreated))
		})

		It("returns 422 when every file fails", func() {
			pipeline.err = errors.New("unreadable")
			body, contentType := multipartBody("files", map[string][]byte{"bad.pdf": []byte("junk")})
			req := httptest.NewRequest("POST", "/api/documents", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusUnprocessableEntity))
			var items []batchItemResponse
			Expect(json.NewDecoder(recorder.Body).Decode(&items)).To(Succeed())
			Expect(items[0].Error).To(ContainSubstring("unreadable"))
		})

		It("rejects requests without files", func() {
			body, contentType := multipartBody("files", nil)
			req := httptest.NewRequest("POST", "/api/documents", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/documents", func() {
		It("lists records", func() {
			Expect(db.SaveRecord(&Record{ID: "abc", Name: "doc.pdf"})).To(Succeed())

			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/documents", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var records []*Record
			Expect(json.NewDecoder(recorder.Body).Decode(&records)).To(Succeed())
			Expect(records).To(HaveLen(1))
		})
	})

	Describe("GET /api/documents/{id}", func() {
		It("returns the record", func() {
			Expect(db.SaveRecord(&Record{ID: "abc", Name: "doc.pdf"})).To(Succeed())

			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/documents/abc", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
		})

		It("returns 404 for unknown IDs", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/documents/nope", nil))

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("DELETE /api/documents/{id}", func() {
		It("removes the record", func() {
			Expect(db.SaveRecord(&Record{ID: "abc", Filename: "abc_doc.pdf"})).To(Succeed())

			server.ServeHTTP(recorder, httptest.NewRequest("DELETE", "/api/documents/abc", nil))

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(db.records).To(BeEmpty())
		})
	})

	Describe("GET /api/documents/{id}/file", func() {
		It("serves the original upload", func() {
			_, err := storage.Save("abc_doc.pdf", []byte("%PDF-1.4"))
			Expect(err).NotTo(HaveOccurred())
			Expect(db.SaveRecord(&Record{ID: "abc", ContentType: "application/pdf", Filename: "abc_doc.pdf"})).To(Succeed())

			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/documents/abc/file", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Header().Get("Content-Type")).To(Equal("application/pdf"))
			Expect(recorder.Body.Bytes()).To(Equal([]byte("%PDF-1.4")))
		})
	})

	Describe("GET /api/documents/{id}/export", func() {
		BeforeEach(func() {
			record, err := NewServiceWithDeps(db, storage, pipeline, feedback.NewLog(5),
				&fixedIDGenerator{}, &fixedTimeSource{now: time.Now()}).
				ProcessDocument(context.Background(), "doc.pdf", []byte("%PDF-1.4"), "application/pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(record.ID).To(Equal("id-1"))
		})

		It("serves CSV by default", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/documents/id-1/export", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Header().Get("Content-Type")).To(HavePrefix("text/csv"))
			Expect(recorder.Header().Get("Content-Disposition")).To(ContainSubstring("id-1.csv"))
			Expect(recorder.Body.String()).To(Equal("Source,Field,Value\ndoc.pdf,Total,42.00\n"))
		})

		It("serves XLSX when requested", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/documents/id-1/export?format=xlsx", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Header().Get("Content-Type")).To(ContainSubstring("spreadsheetml"))
			Expect(recorder.Body.Len()).NotTo(BeZero())
		})

		It("rejects unknown formats", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/documents/id-1/export?format=pdf", nil))

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("feedback endpoints", func() {
		It("accepts feedback and lists it back", func() {
			body := strings.NewReader(`{"document_id":"id-1","message":"wrong total"}`)
			req := httptest.NewRequest("POST", "/api/feedback", body)

			server.ServeHTTP(recorder, req)
			Expect(recorder.Code).To(Equal(http.StatusCreated))

			recorder = httptest.NewRecorder()
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/feedback", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var entries []feedback.Entry
			Expect(json.NewDecoder(recorder.Body).Decode(&entries)).To(Succeed())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Message).To(Equal("wrong total"))
		})

		It("rejects feedback without a message", func() {
			body := strings.NewReader(`{"document_id":"id-1","message":""}`)
			server.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/feedback", body))

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects invalid JSON", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/feedback", strings.NewReader("{")))

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("authentication", func() {
		BeforeEach(func() {
			service := NewServiceWithDeps(db, storage, pipeline, feedback.NewLog(5),
				&fixedIDGenerator{}, &fixedTimeSource{now: time.Now()})
			server = NewServer(service, BasicAuth{Username: "user", Password: "pass"})
		})

		It("rejects requests without credentials", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/documents", nil))

			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
			Expect(recorder.Header().Get("WWW-Authenticate")).To(ContainSubstring("LedgerLens"))
		})

		It("rejects wrong credentials", func() {
			req := httptest.NewRequest("GET", "/api/documents", nil)
			req.SetBasicAuth("user", "wrong")

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts valid credentials", func() {
			req := httptest.NewRequest("GET", "/api/documents", nil)
			req.SetBasicAuth("user", "pass")

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
		})
	})
})
