package extract

// Document is a single uploaded financial document awaiting processing.
// It is immutable once constructed; the pipeline never mutates it.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// RawTable is a detected table as a 2-D grid of cell text. The header
// row, if any, is not identified; callers must infer it.
type RawTable [][]string

// Row is one field/value fact attributed to a source document. It is
// the atomic unit of the merged output dataset.
type Row struct {
	Source string `json:"source"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

// Result holds everything extracted from one document. It is built once
// per processing invocation and owned exclusively by the caller.
type Result struct {
	Tables     []RawTable `json:"tables"`
	TextBlocks []string   `json:"text_blocks"`
	Format     Format     `json:"format"`
	Confidence int        `json:"confidence"` // 0-100
	Dataset    Dataset    `json:"dataset"`
	PageCount  int        `json:"page_count"`
}
