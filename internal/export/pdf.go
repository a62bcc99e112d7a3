// Package export renders the final layout of a project into printable
// documents: a PDF loading report, QR-coded box labels and an XLSX packing
// list. It only reads the project; nothing here moves or validates items.
package export

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/StowPlan/internal/engine"
	"github.com/piwi3910/StowPlan/internal/model"
)

// ErrNothingToExport is returned when a project has no items.
var ErrNothingToExport = errors.New("nothing to export")

// rgb is a fill colour for a drawn item.
type rgb struct {
	R, G, B int
}

// fallbackColors is used for items whose colour cannot be parsed.
var fallbackColors = []rgb{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 30.0
	drawAreaTop  = marginTop + headerHeight + 8.0
	tableRowH    = 6.0
)

var tableColWidths = []float64{90, 25, 35, 35, 35, 40}

// ExportPDF writes a loading report for p: a top view of the container
// floor followed by the loaded and waiting boxes, aggregated into tables.
func ExportPDF(path string, p *model.Project) error {
	if p == nil || p.Len() == 0 {
		return ErrNothingToExport
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(p.Name, true)
	pdf.SetCreator("StowPlan", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	stamp := time.Now().Format("2006-01-02 15:04")
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(marginLeft, marginTop)
		title := stamp
		if p.Name != "" {
			title = p.Name + " - " + stamp
		}
		pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, tr(title), "", 0, "L", false, 0, "")
	})
	pdf.SetFooterFunc(func() {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.SetXY(marginLeft, pageHeight-marginBottom+4)
		pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	loaded, waiting := p.Split()
	summary := engine.Summarize(p.Items(), p.Container)

	pdf.AddPage()
	renderTopView(pdf, tr, p.Container, loaded, waiting, summary)

	pdf.AddPage()
	y := drawAreaTop - 4
	y = renderTable(pdf, tr, "Loaded", AggregateItems(loaded), y)
	renderTable(pdf, tr, "Waiting", AggregateItems(waiting), y+8)

	return pdf.OutputFileAndClose(path)
}

// renderTopView draws the container floor with every loaded item on the
// current page.
func renderTopView(pdf *fpdf.Fpdf, tr func(string) string, c model.Container, loaded, waiting []model.Item, summary engine.LoadSummary) {
	// Stats line
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	loadedBoxes, _ := totals(AggregateItems(loaded))
	waitingBoxes, _ := totals(AggregateItems(waiting))
	stats := fmt.Sprintf("%s: %.0f x %.0f x %.0f mm, door %.0f mm | Loaded: %d boxes, %.1f kg | Waiting: %d boxes | Floor: %.1f%% | Max height: %.0f mm",
		c.Name, c.InnerLength, c.InnerWidth, c.InnerHeight, c.DoorHeight,
		loadedBoxes, summary.LoadedWeight, waitingBoxes, summary.FloorUtilization, summary.MaxStackHeight)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, tr(stats), "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight

	scale := math.Min(drawWidth/c.InnerLength, drawHeight/c.InnerWidth)
	canvasW := c.InnerLength * scale
	canvasH := c.InnerWidth * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Container floor
	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.6)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	// Door side
	pdf.SetDrawColor(200, 120, 0)
	pdf.SetLineWidth(1.2)
	pdf.Line(offsetX+canvasW, offsetY, offsetX+canvasW, offsetY+canvasH)

	for i, it := range loaded {
		drawItem(pdf, tr, it, i, c, scale, offsetX, offsetY)
	}

	drawDimensionAnnotations(pdf, c, offsetX, offsetY, canvasW, canvasH)
	drawLegend(pdf, tr, loaded, offsetY+canvasH+8)
}

func drawItem(pdf *fpdf.Fpdf, tr func(string) string, it model.Item, idx int, c model.Container, scale, offsetX, offsetY float64) {
	bb := it.BoundingBox()
	x := offsetX + bb.MinX*scale
	y := offsetY + bb.MinY*scale
	w := bb.Width() * scale
	h := bb.Height() * scale

	col := itemColor(it, idx)
	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.3)
	height := model.ItemHeight(it)
	if hi, ok := it.(model.HeightItem); ok && hi.TotalHeight() > c.DoorHeight {
		pdf.SetDrawColor(220, 0, 0)
		pdf.SetLineWidth(0.8)
	}
	pdf.Rect(x, y, w, h, "FD")

	if w <= 12 || h <= 6 {
		return
	}

	pdf.SetFont("Helvetica", "", labelFontSize(w, h))
	if luminance(col) < 0.5 {
		pdf.SetTextColor(255, 255, 255)
	} else {
		pdf.SetTextColor(0, 0, 0)
	}

	name := tr(it.Label())
	detail := fmt.Sprintf("%.0fx%.0f", bb.Width(), bb.Height())
	if s, ok := it.(*model.Stack); ok {
		detail = fmt.Sprintf("%dx, %.0f mm", s.BoxCount(), height)
	}

	nameW := pdf.GetStringWidth(name)
	detailW := pdf.GetStringWidth(detail)
	if nameW < w-2 {
		pdf.SetXY(x+(w-nameW)/2, y+h/2-4)
		pdf.CellFormat(nameW, 4, name, "", 0, "C", false, 0, "")
	}
	if h > 12 && detailW < w-2 {
		pdf.SetXY(x+(w-detailW)/2, y+h/2)
		pdf.CellFormat(detailW, 4, detail, "", 0, "C", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

// drawDimensionAnnotations adds length and width labels outside the floor rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, c model.Container, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	lengthLabel := fmt.Sprintf("%.0f mm", c.InnerLength)
	lw := pdf.GetStringWidth(lengthLabel)
	pdf.SetXY(offsetX+(canvasW-lw)/2, offsetY+canvasH+1)
	pdf.CellFormat(lw, 4, lengthLabel, "", 0, "C", false, 0, "")

	widthLabel := fmt.Sprintf("%.0f mm", c.InnerWidth)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	ww := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX-3-ww/2, offsetY+canvasH/2-2)
	pdf.CellFormat(ww, 4, widthLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	doorLabel := "door"
	dw := pdf.GetStringWidth(doorLabel)
	pdf.SetTextColor(200, 120, 0)
	pdf.SetXY(offsetX+canvasW+1, offsetY+canvasH/2-2)
	pdf.CellFormat(dw, 4, doorLabel, "", 0, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
}

// drawLegend renders a compact legend of loaded items below the floor plan.
func drawLegend(pdf *fpdf.Fpdf, tr func(string) string, items []model.Item, startY float64) {
	if len(items) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Loaded:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight
	maxY := pageHeight - marginBottom - 5

	for i, it := range items {
		col := itemColor(it, i)
		label := tr(it.Label())
		if boxes := model.ItemBoxes(it); len(boxes) > 0 && boxes[0].Rotation == model.Rot90 {
			label += " R"
		}
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
			if startY > maxY {
				return
			}
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderTable draws an aggregated table starting at y and returns the y
// below its last row. Rows that do not fit continue on a new page.
func renderTable(pdf *fpdf.Fpdf, tr func(string) string, title string, rows []AggregateRow, y float64) float64 {
	headers := []string{"Name", "Count", "L (mm)", "W (mm)", "H (mm)", "Weight (kg)"}

	if y+3*tableRowH > pageHeight-marginBottom {
		pdf.AddPage()
		y = drawAreaTop - 4
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	y += 9

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(220, 220, 220)
		x := marginLeft
		for i, h := range headers {
			pdf.SetXY(x, y)
			pdf.CellFormat(tableColWidths[i], tableRowH, h, "1", 0, "C", true, 0, "")
			x += tableColWidths[i]
		}
		y += tableRowH
		pdf.SetFont("Helvetica", "", 9)
	}
	drawHeader()

	if len(rows) == 0 {
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(sum(tableColWidths), tableRowH, "none", "1", 0, "C", false, 0, "")
		return y + tableRowH
	}

	for i, r := range rows {
		if y+tableRowH > pageHeight-marginBottom {
			pdf.AddPage()
			y = drawAreaTop - 4
			drawHeader()
		}
		cells := []string{
			tr(r.Name),
			strconv.Itoa(r.Count),
			formatMM(r.Length),
			formatMM(r.Width),
			formatMM(r.Height),
			fmt.Sprintf("%.2f", r.Weight),
		}
		if i%2 == 1 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		x := marginLeft
		for j, cell := range cells {
			align := "R"
			if j == 0 {
				align = "L"
			}
			pdf.SetXY(x, y)
			pdf.CellFormat(tableColWidths[j], tableRowH, cell, "1", 0, align, true, 0, "")
			x += tableColWidths[j]
		}
		y += tableRowH
	}

	n, w := totals(rows)
	if y+tableRowH > pageHeight-marginBottom {
		pdf.AddPage()
		y = drawAreaTop - 4
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(tableColWidths[0], tableRowH, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(tableColWidths[1], tableRowH, strconv.Itoa(n), "1", 0, "R", false, 0, "")
	rest := tableColWidths[2] + tableColWidths[3] + tableColWidths[4]
	pdf.CellFormat(rest, tableRowH, "", "1", 0, "R", false, 0, "")
	pdf.CellFormat(tableColWidths[5], tableRowH, fmt.Sprintf("%.2f", w), "1", 0, "R", false, 0, "")
	return y + tableRowH
}

// itemColor returns the colour of the item's first box, or a fallback.
func itemColor(it model.Item, idx int) rgb {
	boxes := model.ItemBoxes(it)
	if len(boxes) > 0 {
		if col, ok := parseHexColor(boxes[0].Color); ok {
			return col
		}
	}
	return fallbackColors[idx%len(fallbackColors)]
}

// parseHexColor parses "#RRGGBB".
func parseHexColor(s string) (rgb, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, true
}

// luminance returns the relative brightness of col in [0, 1].
func luminance(col rgb) float64 {
	return (0.299*float64(col.R) + 0.587*float64(col.G) + 0.114*float64(col.B)) / 255
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sum(vs []float64) float64 {
	var t float64
	for _, v := range vs {
		t += v
	}
	return t
}
