// Package importer provides CSV, Excel and DXF import of box lists.
// It supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition in English and German.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/StowPlan/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Items    []model.Item
	Errors   []string
	Warnings []string
}

// Boxes returns every imported box, including stack members.
func (r ImportResult) Boxes() []*model.Box {
	var out []*model.Box
	for _, it := range r.Items {
		out = append(out, model.ItemBoxes(it)...)
	}
	return out
}

// Options controls how rows become items.
type Options struct {
	// Stacked turns a row with quantity > 1 into one stack instead of
	// separate boxes.
	Stacked bool
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Name     int
	Quantity int
	Length   int
	Width    int
	Height   int
	Weight   int
	Color    int
	X        int
	Y        int
	Rotation int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"name":     {"name", "label", "description", "desc", "item", "bezeichnung", "artikel"},
	"quantity": {"quantity", "qty", "count", "num", "amount", "pcs", "pieces", "menge", "anzahl", "stk"},
	"length":   {"length", "l", "len", "length_mm", "länge", "laenge"},
	"width":    {"width", "w", "b", "width_mm", "breite"},
	"height":   {"height", "h", "height_mm", "höhe", "hoehe"},
	"weight":   {"weight", "weight_kg", "kg", "mass", "gewicht"},
	"color":    {"color", "colour", "color_hex", "farbe"},
	"x":        {"x", "pos_x", "pos_x_mm"},
	"y":        {"y", "pos_y", "pos_y_mm"},
	"rotation": {"rotation", "rot", "rot_deg", "drehung"},
}

// Palette is assigned to rows without an explicit colour, in row order.
// The first eight entries are the Okabe-Ito colour-blind safe set.
var Palette = []string{
	"#E69F00", "#56B4E9", "#009E73", "#F0E442",
	"#0072B2", "#D55E00", "#CC79A7", "#999999",
	"#332288", "#117733", "#DDCC77", "#88CCEE",
	"#44AA99", "#AA4499", "#DDDDDD",
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		// Only consider delimiters that produce more than 1 column
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// positionalMapping is the column order of a header-less sheet:
// Name, Quantity, L, W, H, Weight, Colour.
var positionalMapping = ColumnMapping{
	Name:     0,
	Quantity: 1,
	Length:   2,
	Width:    3,
	Height:   4,
	Weight:   5,
	Color:    6,
	X:        -1,
	Y:        -1,
	Rotation: -1,
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// A row counts as a header only when at least two roles match and none of
// its cells is a number.
// Returns the mapping and true if a header was detected, or the positional
// mapping and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{
		Name: -1, Quantity: -1, Length: -1, Width: -1, Height: -1,
		Weight: -1, Color: -1, X: -1, Y: -1, Rotation: -1,
	}
	slots := map[string]*int{
		"name":     &mapping.Name,
		"quantity": &mapping.Quantity,
		"length":   &mapping.Length,
		"width":    &mapping.Width,
		"height":   &mapping.Height,
		"weight":   &mapping.Weight,
		"color":    &mapping.Color,
		"x":        &mapping.X,
		"y":        &mapping.Y,
		"rotation": &mapping.Rotation,
	}

	roles := 0
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					if slot := slots[role]; *slot == -1 {
						*slot = i
						roles++
					}
				}
			}
		}
	}

	// A data row whose name happens to be an alias matches one role at most,
	// and it carries numbers.
	if roles < 2 {
		return positionalMapping, false
	}
	for _, cell := range row {
		if _, err := parseNumber(strings.TrimSpace(cell)); err == nil {
			return positionalMapping, false
		}
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber accepts both decimal points and decimal commas.
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// parsedRow is a parsed row before it is expanded into boxes.
type parsedRow struct {
	name     string
	qty      int
	length   float64
	width    float64
	height   float64
	weight   float64
	color    string
	x, y     float64
	rotation model.Rotation
}

// parseRow extracts a parsedRow from the cells using the given column mapping.
// Returns the parsed row, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, rowNum int) (parsedRow, string, string) {
	pr := parsedRow{name: getCell(row, mapping.Name), qty: 1}
	if pr.name == "" {
		pr.name = fmt.Sprintf("Box_%d", rowNum)
	}

	dims := []struct {
		label string
		idx   int
		dst   *float64
	}{
		{"length", mapping.Length, &pr.length},
		{"width", mapping.Width, &pr.width},
		{"height", mapping.Height, &pr.height},
	}
	for _, d := range dims {
		s := getCell(row, d.idx)
		if s == "" {
			return parsedRow{}, fmt.Sprintf("%s: Missing %s value", rowLabel, d.label), ""
		}
		v, err := parseNumber(s)
		if err != nil {
			return parsedRow{}, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, d.label, s), ""
		}
		if v <= 0 {
			return parsedRow{}, fmt.Sprintf("%s: Length, width, and height must be positive", rowLabel), ""
		}
		*d.dst = v
	}

	if s := getCell(row, mapping.Quantity); s != "" {
		qty, err := strconv.Atoi(s)
		if err != nil {
			return parsedRow{}, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, s), ""
		}
		if qty <= 0 {
			return parsedRow{}, fmt.Sprintf("%s: Quantity must be positive", rowLabel), ""
		}
		pr.qty = qty
	}

	if s := getCell(row, mapping.Weight); s != "" {
		w, err := parseNumber(s)
		if err != nil || w < 0 {
			return parsedRow{}, fmt.Sprintf("%s: Invalid weight '%s'", rowLabel, s), ""
		}
		pr.weight = w
	}

	for _, p := range []struct {
		idx int
		dst *float64
	}{{mapping.X, &pr.x}, {mapping.Y, &pr.y}} {
		if s := getCell(row, p.idx); s != "" {
			v, err := parseNumber(s)
			if err != nil {
				return parsedRow{}, fmt.Sprintf("%s: Invalid position '%s'", rowLabel, s), ""
			}
			*p.dst = v
		}
	}

	if s := getCell(row, mapping.Rotation); s != "" {
		rot, err := strconv.Atoi(strings.TrimSuffix(s, "°"))
		if err != nil || !model.Rotation(rot).Valid() {
			return parsedRow{}, fmt.Sprintf("%s: Rotation must be 0 or 90, got '%s'", rowLabel, s), ""
		}
		pr.rotation = model.Rotation(rot)
	}

	var warning string
	if s := getCell(row, mapping.Color); s != "" {
		if !strings.HasPrefix(s, "#") && isHex(s) {
			s = "#" + s
		}
		if strings.HasPrefix(s, "#") {
			pr.color = strings.ToUpper(s)
		} else {
			warning = fmt.Sprintf("%s: Unknown colour '%s', using palette colour", rowLabel, s)
		}
	}

	return pr, "", warning
}

func isHex(s string) bool {
	if len(s) != 6 {
		return false
	}
	_, err := strconv.ParseUint(s, 16, 32)
	return err == nil
}

// expand turns a row into items: quantity 1 is a single box named after the
// row, larger quantities are boxes named <name>_<i>, optionally as one stack.
func (pr parsedRow) expand(opts Options) ([]model.Item, error) {
	newBox := func(name string) *model.Box {
		b := model.NewBox(name, pr.length, pr.width, pr.height)
		b.Weight = pr.weight
		b.Color = pr.color
		b.MoveTo(pr.x, pr.y)
		b.Rotation = pr.rotation
		return b
	}

	if pr.qty == 1 {
		return []model.Item{newBox(pr.name)}, nil
	}

	boxes := make([]*model.Box, pr.qty)
	for i := range boxes {
		boxes[i] = newBox(fmt.Sprintf("%s_%d", pr.name, i+1))
	}
	if opts.Stacked {
		s, err := model.NewStack(pr.name, boxes...)
		if err != nil {
			return nil, err
		}
		return []model.Item{s}, nil
	}
	items := make([]model.Item, len(boxes))
	for i, b := range boxes {
		items[i] = b
	}
	return items, nil
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportFile dispatches on the file extension: .xlsx/.xlsm go to
// ImportExcel, everything else to ImportCSV.
func ImportFile(path string, opts Options) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx":
		return ImportExcel(path, opts)
	default:
		return ImportCSV(path, opts)
	}
}

// ImportCSV imports boxes from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string, opts Options) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings, opts)
}

// ImportCSVFromReader imports boxes from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune, opts Options) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil, opts)
}

// ImportExcel imports boxes from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string, opts Options) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil, opts)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into boxes.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string, opts Options) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Length == -1 {
			missing = append(missing, "Length")
		}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 5 {
		// No known header: an unrecognised header still has a non-numeric length cell
		if _, err := parseNumber(strings.TrimSpace(rows[0][positionalMapping.Length])); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	rowNum := 0
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}
		rowNum++

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		pr, errMsg, warning := parseRow(row, mapping, rowLabel, rowNum)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		if pr.color == "" {
			pr.color = Palette[(rowNum-1)%len(Palette)]
		}

		items, err := pr.expand(opts)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rowLabel, err))
			continue
		}
		result.Items = append(result.Items, items...)
	}

	return result
}
