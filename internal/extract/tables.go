package extract

import (
	"fmt"
	"log/slog"

	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/graphicsstate"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"
)

// tableStrategy pairs a layout-detection configuration with a loggable
// name. Strategies are tried in order until one yields tables.
type tableStrategy struct {
	name   string
	config tables.Config
}

// tableStrategies is the fallback chain for table detection: ruled-line
// ("bordered") detection first, whitespace-alignment detection second.
// There is deliberately no third entry.
var tableStrategies = []tableStrategy{
	{name: "bordered", config: tables.Config{
		MinRows:            2,
		MinCols:            2,
		MinConfidence:      0.5,
		UseLines:           true,
		UseWhitespace:      false,
		MaxCellGap:         5.0,
		AlignmentTolerance: 2.0,
		DetectMergedCells:  true,
	}},
	{name: "whitespace", config: tables.Config{
		MinRows:            2,
		MinCols:            2,
		MinConfidence:      0.5,
		UseLines:           false,
		UseWhitespace:      true,
		MaxCellGap:         5.0,
		AlignmentTolerance: 2.0,
		DetectMergedCells:  true,
	}},
}

// tableDetectFunc runs one detection pass over a document on disk.
type tableDetectFunc func(path string, config tables.Config) ([]RawTable, error)

// PDFTables extracts raw tables from PDF documents using the strategy
// chain. An empty result is valid and means "no tabular structure
// found"; strategy failures are logged, never returned.
type PDFTables struct {
	strategies []tableStrategy
	detect     tableDetectFunc
}

// NewPDFTables creates a PDFTables with the default strategy chain.
func NewPDFTables() *PDFTables {
	return &PDFTables{
		strategies: tableStrategies,
		detect:     detectTables,
	}
}

// Tables runs each strategy in order over the document and returns the
// first non-empty result. If the primary strategy errors or finds
// nothing, the secondary runs once; if both come up empty, the empty
// result stands. Never fails.
func (p *PDFTables) Tables(path string) []RawTable {
	var last []RawTable
	for _, strategy := range p.strategies {
		detected, err := p.detect(path, strategy.config)
		if err != nil {
			slog.Warn("Table detection strategy failed",
				"strategy", strategy.name,
				"path", path,
				"error", err,
			)
			continue
		}
		if len(detected) > 0 {
			return detected
		}
		last = detected
	}
	return last
}

// detectTables runs the geometric detector with the given configuration
// over every page of the document.
func detectTables(path string, config tables.Config) ([]RawTable, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer r.Close()

	pageCount, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}

	detector := tables.NewGeometricDetector()
	if err := detector.Configure(config); err != nil {
		return nil, fmt.Errorf("configuring detector: %w", err)
	}

	var out []RawTable
	for i := 0; i < pageCount; i++ {
		page, err := r.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		modelPage, err := buildModelPage(r, page, i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		detected, err := detector.Detect(modelPage)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		for _, t := range detected {
			out = append(out, tableCells(t))
		}
	}
	return out, nil
}

// buildModelPage assembles a model.Page with positioned text fragments
// and ruled lines, which is what the geometric detector consumes.
func buildModelPage(r *reader.Reader, page *pages.Page, index int) (*model.Page, error) {
	width, _ := page.Width()
	height, _ := page.Height()

	modelPage := model.NewPage(width, height)
	modelPage.Number = index + 1

	fragments, err := r.ExtractTextFragments(page)
	if err != nil {
		return nil, fmt.Errorf("extracting text fragments: %w", err)
	}
	for _, f := range fragments {
		modelPage.RawText = append(modelPage.RawText, model.TextFragment{
			Text:     f.Text,
			BBox:     model.NewBBox(f.X, f.Y, f.Width, f.Height),
			FontSize: f.FontSize,
			FontName: f.FontName,
		})
	}

	modelPage.RawLines = pageLines(page)
	return modelPage, nil
}

// pageLines extracts drawn lines and rectangle edges from the page's
// content streams. Failures here just mean no ruled lines, which the
// whitespace strategy tolerates.
func pageLines(page *pages.Page) []model.Line {
	contents, err := page.Contents()
	if err != nil || contents == nil {
		return nil
	}

	var data []byte
	for _, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		decoded, err := stream.Decode()
		if err != nil {
			continue
		}
		data = append(data, decoded...)
	}
	if len(data) == 0 {
		return nil
	}

	extractor := graphicsstate.NewGraphicsExtractor()
	if err := extractor.ExtractFromBytes(data); err != nil {
		return nil
	}
	return append(extractor.ToModelLines(), extractor.ToModelRectangles()...)
}

// tableCells flattens a detected table into a grid of cell text.
func tableCells(t *model.Table) RawTable {
	grid := make(RawTable, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell.Text)
		}
		grid = append(grid, cells)
	}
	return grid
}
