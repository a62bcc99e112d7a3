package export

import (
	"fmt"

	"github.com/piwi3910/StowPlan/internal/engine"
	"github.com/piwi3910/StowPlan/internal/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the packing list workbook.
const (
	SheetSummary = "Summary"
	SheetLoaded  = "Loaded"
	SheetWaiting = "Waiting"
)

var packingHeaders = []interface{}{"Name", "Count", "L (mm)", "W (mm)", "H (mm)", "Weight (kg)"}

// ExportPackingList writes p as an XLSX workbook: a summary sheet plus the
// aggregated loaded and waiting tables, one sheet each.
func ExportPackingList(path string, p *model.Project) error {
	if p == nil || p.Len() == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDDDDD"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	loaded, waiting := p.Split()
	loadedRows := AggregateItems(loaded)
	waitingRows := AggregateItems(waiting)

	summary := engine.Summarize(p.Items(), p.Container)
	if err := writeSummary(f, p, summary, loadedRows, waitingRows, bold); err != nil {
		return err
	}
	for _, sheet := range []struct {
		name string
		rows []AggregateRow
	}{
		{SheetLoaded, loadedRows},
		{SheetWaiting, waitingRows},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return err
		}
		if err := writeAggregateSheet(f, sheet.name, sheet.rows, bold); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet.name, err)
		}
	}

	return f.SaveAs(path)
}

func writeSummary(f *excelize.File, p *model.Project, summary engine.LoadSummary, loadedRows, waitingRows []AggregateRow, style int) error {
	c := p.Container
	loadedBoxes, _ := totals(loadedRows)
	waitingBoxes, _ := totals(waitingRows)
	meta := p.Meta()

	rows := [][]interface{}{
		{"Project", p.Name},
		{"Container", c.Name},
		{"Inner length (mm)", c.InnerLength},
		{"Inner width (mm)", c.InnerWidth},
		{"Inner height (mm)", c.InnerHeight},
		{"Door height (mm)", c.DoorHeight},
		{"Loaded boxes", loadedBoxes},
		{"Loaded weight (kg)", round2(summary.LoadedWeight)},
		{"Waiting boxes", waitingBoxes},
		{"Waiting weight (kg)", round2(summary.WaitingWeight)},
		{"Floor utilization (%)", round2(summary.FloorUtilization)},
		{"Max stack height (mm)", summary.MaxStackHeight},
		{"User", meta.User},
		{"Version", meta.Version},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), style); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "B", 24)
}

func writeAggregateSheet(f *excelize.File, sheet string, rows []AggregateRow, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &packingHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", style); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{r.Name, r.Count, r.Length, r.Width, r.Height, r.Weight}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	n, w := totals(rows)
	totalRow := len(rows) + 2
	total := []interface{}{"Total", n, nil, nil, nil, round2(w)}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", totalRow), &total); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("F%d", totalRow), style); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "F", 12)
}
