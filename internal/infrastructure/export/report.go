package export

import (
	"context"
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/zap"

	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
	"github.com/garyjia/exemption-tracker/internal/domain/workflow"
)

var (
	headerBackground  = &props.Color{Red: 221, Green: 235, Blue: 247}
	summaryBackground = &props.Color{Red: 240, Green: 240, Blue: 240}
	mutedText         = &props.Color{Red: 100, Green: 100, Blue: 100}

	statusColors = map[workflow.StageStatus]*props.Color{
		workflow.StatusCompleted: {Red: 226, Green: 239, Blue: 218},
		workflow.StatusCurrent:   {Red: 255, Green: 242, Blue: 204},
	}
)

// ReportExporter implements port.RequestExporter as a printable PDF summary
type ReportExporter struct {
	logger *zap.Logger
}

// NewReportExporter creates a new ReportExporter
func NewReportExporter(logger *zap.Logger) *ReportExporter {
	return &ReportExporter{logger: logger}
}

// Export renders the request header, its line items with totals and its stage progress
func (e *ReportExporter) Export(ctx context.Context, req *entity.ExemptionRequest, progress []workflow.StageProgress) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   mutedText,
		}).
		Build()

	m := maroto.New(cfg)

	addReportHeader(m, req)
	addItemsTable(m, req.Items)
	addItemsSummary(m, req.Summary)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	addProgressTable(m, progress)

	doc, err := m.Generate()
	if err != nil {
		e.logger.Error("Failed to render PDF report", zap.Int64("request_id", req.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	content := doc.GetBytes()

	e.logger.Info("PDF report rendered",
		zap.Int64("request_id", req.ID),
		zap.Int("items", len(req.Items)),
		zap.Int("size", len(content)))

	return content, nil
}

func addReportHeader(m core.Maroto, req *entity.ExemptionRequest) {
	title := "Exemption request " + req.Reference
	if req.Title != "" {
		title += " - " + req.Title
	}
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(text.New(title, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Center})),
		),
	)

	info := props.Text{Size: 9, Color: mutedText}
	infoRight := info
	infoRight.Align = align.Right
	m.AddRows(
		row.New(7).Add(
			col.New(4).Add(text.New("Tax category: "+req.TaxCategory.String(), info)),
			col.New(4).Add(text.New("Current stage: "+stageLabel(req.CurrentStage), info)),
			col.New(4).Add(text.New("Last updated: "+req.UpdatedAt.Format("2006-01-02 15:04"), infoRight)),
		),
		row.New(4),
	)
}

// itemCells lists the item columns with their grid widths; the widths add up to 12
var itemCells = []struct {
	header string
	size   int
	right  bool
	value  func(taxation.LineItem) string
}{
	{"Label", 3, false, func(li taxation.LineItem) string { return li.Label }},
	{"Custom duty", 2, false, func(li taxation.LineItem) string { return li.CustomDuty.String() }},
	{"Qty", 1, true, func(li taxation.LineItem) string { return formatNumber(li.Quantity) }},
	{"Price", 1, true, func(li taxation.LineItem) string { return formatAmount(li.UnitPrice) }},
	{"Rate %", 1, true, func(li taxation.LineItem) string { return formatNumber(li.TaxRate) }},
	{"Total", 1, true, func(li taxation.LineItem) string { return formatAmount(li.Total) }},
	{"Tax", 1, true, func(li taxation.LineItem) string { return formatAmount(li.TaxAmount) }},
	{"VAT included", 2, true, func(li taxation.LineItem) string { return formatAmount(li.VatIncluded) }},
}

func addItemsTable(m core.Maroto, items []taxation.LineItem) {
	header := props.Text{Size: 8, Style: fontstyle.Bold}
	headerCell := &props.Cell{BackgroundColor: headerBackground}

	cols := make([]core.Col, 0, len(itemCells))
	for _, c := range itemCells {
		p := header
		if c.right {
			p.Align = align.Right
		}
		cols = append(cols, col.New(c.size).Add(text.New(c.header, p)).WithStyle(headerCell))
	}
	m.AddRows(row.New(7).Add(cols...))

	body := props.Text{Size: 8}
	for _, item := range items {
		cols := make([]core.Col, 0, len(itemCells))
		for _, c := range itemCells {
			p := body
			if c.right {
				p.Align = align.Right
			}
			cols = append(cols, col.New(c.size).Add(text.New(c.value(item), p)))
		}
		m.AddRows(row.New(6).Add(cols...))
	}

	if len(items) == 0 {
		m.AddRows(row.New(6).Add(col.New(12).Add(text.New("No line items", props.Text{Size: 8, Color: mutedText}))))
	}
}

func addItemsSummary(m core.Maroto, summary taxation.Summary) {
	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	cell := &props.Cell{BackgroundColor: summaryBackground}

	m.AddRows(row.New(3))
	for _, line := range []struct {
		name  string
		value float64
	}{
		{"Total", summary.Total},
		{"Tax amount", summary.TaxAmount},
		{"VAT included", summary.VatIncluded},
	} {
		m.AddRows(
			row.New(7).Add(
				col.New(9).Add(text.New(line.name, label)).WithStyle(cell),
				col.New(3).Add(text.New(formatAmount(line.value), label)).WithStyle(cell),
			),
		)
	}
	m.AddRows(row.New(6))
}

func addProgressTable(m core.Maroto, progress []workflow.StageProgress) {
	header := props.Text{Size: 8, Style: fontstyle.Bold}
	headerCell := &props.Cell{BackgroundColor: headerBackground}
	m.AddRows(
		row.New(7).Add(
			col.New(1).Add(text.New("#", header)).WithStyle(headerCell),
			col.New(8).Add(text.New("Stage", header)).WithStyle(headerCell),
			col.New(3).Add(text.New("Status", header)).WithStyle(headerCell),
		),
	)

	body := props.Text{Size: 8}
	for _, p := range progress {
		cols := []core.Col{
			col.New(1).Add(text.New(strconv.Itoa(p.Index+1), body)),
			col.New(8).Add(text.New(p.Name, body)),
			col.New(3).Add(text.New(string(p.Status), body)),
		}
		if bg, ok := statusColors[p.Status]; ok {
			style := &props.Cell{BackgroundColor: bg}
			for i := range cols {
				cols[i] = cols[i].WithStyle(style)
			}
		}
		m.AddRows(row.New(6).Add(cols...))
	}
}

func stageLabel(stage string) string {
	if stage == "" {
		return workflow.Stages[0].String()
	}
	return stage
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatNumber drops the decimals of whole numbers
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
