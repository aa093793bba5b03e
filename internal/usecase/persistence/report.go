package persistence

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/annotator/internal/domain"
	domann "github.com/kailas-cloud/annotator/internal/domain/annotation"
)

// ReportSheet is the sheet name of the spreadsheet report.
const ReportSheet = "Annotations"

var reportHeader = []any{"Page", "Label", "Label ID", "Color", "Text", "Rects", "Left", "Top", "Width", "Height"}

// ReportFileName returns the download name of a spreadsheet report.
func ReportFileName(documentName string) string {
	return strings.TrimSuffix(FileName(documentName), ".json") + ".xlsx"
}

// ExportReport renders the annotations as an XLSX workbook, one row per
// annotation with its first rectangle. The color cell is filled with the
// highlight color.
func (g *Gateway) ExportReport(meta Meta, anns []domann.Annotation) ([]byte, error) {
	if len(anns) == 0 {
		return nil, domain.ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   meta.DocumentName,
		Subject: fmt.Sprintf("annotations at scale %g", meta.Scale),
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	if err := f.SetSheetRow(ReportSheet, "A1", &reportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(ReportSheet, "A1", "J1", bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}
	if err := f.SetColWidth(ReportSheet, "E", "E", 60); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	fills := make(map[string]int)
	for i := range anns {
		a := &anns[i]
		row := i + 2
		first := a.FirstRect()
		values := []any{
			a.PageNumber(), a.Label(), a.LabelID(), a.Color(), a.Text(), len(a.Rects()),
			first.Left, first.Top, first.Width, first.Height,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(ReportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}

		rgb, ok := domann.ResolveColor(a.Color())
		if !ok {
			continue
		}
		style, ok := fills[rgb.Hex()]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(rgb.Hex(), "#")}},
			})
			if err != nil {
				return nil, fmt.Errorf("fill style: %w", err)
			}
			fills[rgb.Hex()] = style
		}
		colorCell, _ := excelize.CoordinatesToCellName(4, row)
		if err := f.SetCellStyle(ReportSheet, colorCell, colorCell, style); err != nil {
			return nil, fmt.Errorf("apply fill: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	g.logger.Debug("Annotation report exported", zap.Int("count", len(anns)))
	return buf.Bytes(), nil
}
