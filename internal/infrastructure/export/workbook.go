// Package export renders exemption requests into Excel workbooks
package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
	"github.com/garyjia/exemption-tracker/internal/domain/workflow"
)

// Sheet names of an exported workbook
const (
	SheetRequest  = "Request"
	SheetItems    = "Line items"
	SheetProgress = "Progress"
)

const amountFormat = "#,##0.00"

type column struct {
	header string
	width  float64
	value  func(taxation.LineItem) interface{}
}

var (
	labelColumn    = column{"Label", 36, func(li taxation.LineItem) interface{} { return li.Label }}
	quantityColumn = column{"Quantity", 12, func(li taxation.LineItem) interface{} { return li.Quantity }}
	dutyColumn     = column{"Custom duty", 26, func(li taxation.LineItem) interface{} { return li.CustomDuty.String() }}
	rateColumn     = column{"Tax rate (%)", 12, func(li taxation.LineItem) interface{} { return li.TaxRate }}
	totalColumn    = column{"Total", 16, func(li taxation.LineItem) interface{} { return li.Total }}
	taxColumn      = column{"Tax amount", 16, func(li taxation.LineItem) interface{} { return li.TaxAmount }}
	vatColumn      = column{"VAT included", 16, func(li taxation.LineItem) interface{} { return li.VatIncluded }}
)

// columnsFor lists the item columns shown for a tax category, in sheet order
func columnsFor(category taxation.TaxCategory) []column {
	if category == taxation.CategoryImportation {
		return []column{
			labelColumn,
			{"Tariff position", 16, func(li taxation.LineItem) interface{} { return li.TariffPosition }},
			quantityColumn,
			{"CIF", 16, func(li taxation.LineItem) interface{} { return li.UnitPrice }},
			dutyColumn,
			{"IT/IC", 8, func(li taxation.LineItem) interface{} { return string(li.ItIc) }},
			rateColumn,
			totalColumn,
			taxColumn,
			vatColumn,
		}
	}
	return []column{
		labelColumn,
		{"Issue date", 14, func(li taxation.LineItem) interface{} { return li.IssueDate }},
		{"Nature of operation", 24, func(li taxation.LineItem) interface{} { return li.NatureOfOperation }},
		quantityColumn,
		{"Unit price", 16, func(li taxation.LineItem) interface{} { return li.UnitPrice }},
		dutyColumn,
		rateColumn,
		totalColumn,
		taxColumn,
		vatColumn,
	}
}

// WorkbookExporter implements port.RequestExporter with excelize
type WorkbookExporter struct {
	logger *zap.Logger
}

// NewWorkbookExporter creates a new WorkbookExporter
func NewWorkbookExporter(logger *zap.Logger) *WorkbookExporter {
	return &WorkbookExporter{logger: logger}
}

// Export renders the request, its items and its stage progress as an .xlsx file
func (e *WorkbookExporter) Export(ctx context.Context, req *entity.ExemptionRequest, progress []workflow.StageProgress) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetRequest); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetItems, SheetProgress} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(amountFormat)})
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	e.writeRequestSheet(f, req, headerStyle)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.writeItemsSheet(f, req, headerStyle, amountStyle)
	e.writeProgressSheet(f, progress, headerStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Workbook rendered",
		zap.Int64("request_id", req.ID),
		zap.Int("items", len(req.Items)),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), nil
}

func (e *WorkbookExporter) writeRequestSheet(f *excelize.File, req *entity.ExemptionRequest, headerStyle int) {
	rows := [][2]interface{}{
		{"Reference", req.Reference},
		{"Title", req.Title},
		{"Tax category", req.TaxCategory.String()},
		{"Current stage", req.CurrentStage},
		{"Items", req.Summary.ItemCount},
		{"Total", req.Summary.Total},
		{"Tax amount", req.Summary.TaxAmount},
		{"VAT included", req.Summary.VatIncluded},
		{"Last updated", req.UpdatedAt.Format("2006-01-02 15:04")},
	}
	for i, row := range rows {
		e.setCell(f, SheetRequest, 1, i+1, row[0])
		e.setCell(f, SheetRequest, 2, i+1, row[1])
	}
	e.style(f, SheetRequest, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle)
	_ = f.SetColWidth(SheetRequest, "A", "A", 18)
	_ = f.SetColWidth(SheetRequest, "B", "B", 40)
}

func (e *WorkbookExporter) writeItemsSheet(f *excelize.File, req *entity.ExemptionRequest, headerStyle, amountStyle int) {
	cols := columnsFor(req.TaxCategory)

	for c, col := range cols {
		e.setCell(f, SheetItems, c+1, 1, col.header)
		name, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(SheetItems, name, name, col.width)
	}
	last, _ := excelize.ColumnNumberToName(len(cols))
	e.style(f, SheetItems, "A1", last+"1", headerStyle)

	for r, item := range req.Items {
		for c, col := range cols {
			e.setCell(f, SheetItems, c+1, r+2, col.value(item))
		}
	}

	// totals row under the table
	totalsRow := len(req.Items) + 2
	e.setCell(f, SheetItems, 1, totalsRow, "Total")
	n := len(cols)
	e.setCell(f, SheetItems, n-2, totalsRow, req.Summary.Total)
	e.setCell(f, SheetItems, n-1, totalsRow, req.Summary.TaxAmount)
	e.setCell(f, SheetItems, n, totalsRow, req.Summary.VatIncluded)
	e.style(f, SheetItems, fmt.Sprintf("A%d", totalsRow), fmt.Sprintf("%s%d", last, totalsRow), headerStyle)

	first, _ := excelize.ColumnNumberToName(n - 2)
	if len(req.Items) > 0 {
		e.style(f, SheetItems, fmt.Sprintf("%s2", first), fmt.Sprintf("%s%d", last, totalsRow-1), amountStyle)
	}
}

func (e *WorkbookExporter) writeProgressSheet(f *excelize.File, progress []workflow.StageProgress, headerStyle int) {
	for c, h := range []string{"#", "Stage", "Status"} {
		e.setCell(f, SheetProgress, c+1, 1, h)
	}
	e.style(f, SheetProgress, "A1", "C1", headerStyle)
	_ = f.SetColWidth(SheetProgress, "B", "B", 34)
	_ = f.SetColWidth(SheetProgress, "C", "C", 12)

	for i, p := range progress {
		e.setCell(f, SheetProgress, 1, i+2, p.Index+1)
		e.setCell(f, SheetProgress, 2, i+2, p.Name)
		e.setCell(f, SheetProgress, 3, i+2, string(p.Status))
	}
}

// setCell sets a cell value by 1-based column and row
func (e *WorkbookExporter) setCell(f *excelize.File, sheet string, col, row int, value interface{}) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		e.logger.Warn("Invalid cell coordinates", zap.Int("col", col), zap.Int("row", row), zap.Error(err))
		return
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func (e *WorkbookExporter) style(f *excelize.File, sheet, from, to string, style int) {
	if err := f.SetCellStyle(sheet, from, to, style); err != nil {
		e.logger.Warn("Failed to set cell style", zap.String("sheet", sheet), zap.Error(err))
	}
}

func strPtr(s string) *string { return &s }

// Verify interface compliance
var _ port.RequestExporter = (*WorkbookExporter)(nil)
