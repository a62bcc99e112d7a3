package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/StowPlan/internal/model"
	"github.com/xuri/excelize/v2"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("Name,Length,Width,Height\nPallet,1200,800,144\nCrate,600,400,400\n")
	got := DetectCSVDelimiter(data)
	if got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	data := []byte("Name;Length;Width;Height\nPallet;1200;800;144\nCrate;600;400;400\n")
	got := DetectCSVDelimiter(data)
	if got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("Name\tLength\tWidth\tHeight\nPallet\t1200\t800\t144\n")
	got := DetectCSVDelimiter(data)
	if got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Pipe(t *testing.T) {
	data := []byte("Name|Length|Width|Height\nPallet|1200|800|144\n")
	got := DetectCSVDelimiter(data)
	if got != '|' {
		t.Errorf("expected pipe delimiter, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	row := []string{"Name", "Quantity", "Length", "Width", "Height", "Weight", "Color"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := ColumnMapping{Name: 0, Quantity: 1, Length: 2, Width: 3, Height: 4, Weight: 5, Color: 6, X: -1, Y: -1, Rotation: -1}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_GermanHeaders(t *testing.T) {
	row := []string{"Bezeichnung", "Menge", "Länge", "Breite", "Höhe", "Gewicht", "Farbe"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Fatal("expected German header to be detected")
	}
	if mapping.Name != 0 || mapping.Quantity != 1 || mapping.Length != 2 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
	if mapping.Width != 3 || mapping.Height != 4 || mapping.Weight != 5 || mapping.Color != 6 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_CaseInsensitive(t *testing.T) {
	row := []string{"LABEL", "L", "W", "H", "QTY"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.Name != 0 || mapping.Length != 1 || mapping.Width != 2 || mapping.Height != 3 || mapping.Quantity != 4 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_PlacementColumns(t *testing.T) {
	row := []string{"name", "length_mm", "width_mm", "height_mm", "pos_x_mm", "pos_y_mm", "rot_deg"}
	mapping, _ := DetectColumns(row)

	if mapping.X != 4 || mapping.Y != 5 || mapping.Rotation != 6 {
		t.Errorf("expected placement columns at 4,5,6, got %+v", mapping)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	row := []string{"Pallet", "2", "1200", "800", "144"}
	mapping, isHeader := DetectColumns(row)

	if isHeader {
		t.Error("expected no header detection for numeric data")
	}
	if mapping != positionalMapping {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

func TestDetectColumns_NameAliasInDataRow(t *testing.T) {
	for _, row := range [][]string{
		{"Box", "2", "1200", "800", "1000"},
		{"Item", "1", "600", "400", "500"},
		{"Artikel", "1", "600", "400", "500"},
		{"Name", "1", "600", "400", "500"},
	} {
		if _, isHeader := DetectColumns(row); isHeader {
			t.Errorf("%v: data row detected as header", row)
		}
	}
}

func TestDetectColumns_NumericDimensionsAreData(t *testing.T) {
	if _, isHeader := DetectColumns([]string{"Label", "Qty", "600", "400", "500"}); isHeader {
		t.Error("row with numeric dimensions detected as header")
	}
	if _, isHeader := DetectColumns([]string{"Label", "L", "400", "W", "H"}); isHeader {
		t.Error("row with a numeric mapped cell detected as header")
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "Name,Length,Width,Height,Weight,Color\nPallet,1200,800,144,25,#336699\nCrate,600,400,400,12.5,\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	boxes := result.Boxes()
	if len(boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d", len(boxes))
	}

	b := boxes[0]
	if b.Name != "Pallet" {
		t.Errorf("expected name 'Pallet', got %q", b.Name)
	}
	if b.Length != 1200 || b.Width != 800 || b.Height != 144 {
		t.Errorf("unexpected dimensions %s", b)
	}
	if b.Weight != 25 {
		t.Errorf("expected weight 25, got %f", b.Weight)
	}
	if b.Color != "#336699" {
		t.Errorf("expected colour #336699, got %s", b.Color)
	}
	if boxes[1].Color != Palette[1] {
		t.Errorf("expected palette colour %s for the second row, got %s", Palette[1], boxes[1].Color)
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "Pallet,1,1200,800,144,25\nCrate,1,600,400,400\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	boxes := result.Boxes()
	if len(boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d (errors: %v)", len(boxes), result.Errors)
	}
	if boxes[0].Name != "Pallet" || boxes[0].Length != 1200 || boxes[0].Weight != 25 {
		t.Errorf("unexpected first box %+v", boxes[0])
	}
}

func TestImportCSVFromReader_HeaderlessFirstRowNamedBox(t *testing.T) {
	data := "Box,2,1200,800,1000,50,#FF0000\nCrate,1,600,400,500,10,#00FF00\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	boxes := result.Boxes()
	if len(boxes) != 3 {
		t.Fatalf("expected 3 boxes, got %d", len(boxes))
	}
	if boxes[0].Name != "Box_1" || boxes[1].Name != "Box_2" || boxes[2].Name != "Crate" {
		t.Errorf("unexpected names %q %q %q", boxes[0].Name, boxes[1].Name, boxes[2].Name)
	}
	if boxes[0].Height != 1000 || boxes[0].Color != "#FF0000" {
		t.Errorf("unexpected first box %+v", boxes[0])
	}
}

func TestImportCSVFromReader_UnknownHeaderSkipped(t *testing.T) {
	data := "Artikel-Nr,Stück,L mm,B mm,H mm\nPallet,1,1200,800,144\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
}

func TestImportCSVFromReader_GermanDecimalComma(t *testing.T) {
	data := "Bezeichnung;Menge;Länge;Breite;Höhe;Gewicht\nKiste;1;600,5;400;300,25;12,5\n"
	result := ImportCSVFromReader(strings.NewReader(data), ';', Options{})

	boxes := result.Boxes()
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d (errors: %v)", len(boxes), result.Errors)
	}
	if boxes[0].Length != 600.5 || boxes[0].Height != 300.25 || boxes[0].Weight != 12.5 {
		t.Errorf("unexpected values %+v", boxes[0])
	}
}

func TestImportCSVFromReader_QuantityExpands(t *testing.T) {
	data := "Name,Qty,Length,Width,Height\nCrate,3,600,400,400\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d (errors: %v)", len(result.Items), result.Errors)
	}
	for i, it := range result.Items {
		b, ok := it.(*model.Box)
		if !ok {
			t.Fatalf("item %d: expected *model.Box, got %T", i, it)
		}
		want := "Crate_" + string(rune('1'+i))
		if b.Name != want {
			t.Errorf("item %d: expected name %q, got %q", i, want, b.Name)
		}
		if b.Color != Palette[0] {
			t.Errorf("item %d: boxes from one row share a colour, got %s", i, b.Color)
		}
	}
}

func TestImportCSVFromReader_StackedOption(t *testing.T) {
	data := "Name,Qty,Length,Width,Height,Weight\nCrate,3,600,400,400,10\nPallet,1,1200,800,144,25\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{Stacked: true})

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}

	s, ok := result.Items[0].(*model.Stack)
	if !ok {
		t.Fatalf("expected *model.Stack, got %T", result.Items[0])
	}
	if s.BoxCount() != 3 {
		t.Errorf("expected 3 boxes in stack, got %d", s.BoxCount())
	}
	if s.TotalHeight() != 1200 {
		t.Errorf("expected stack height 1200, got %f", s.TotalHeight())
	}
	if s.TotalWeight() != 30 {
		t.Errorf("expected stack weight 30, got %f", s.TotalWeight())
	}

	if _, ok := result.Items[1].(*model.Box); !ok {
		t.Errorf("a single box stays a box, got %T", result.Items[1])
	}
	if len(result.Boxes()) != 4 {
		t.Errorf("expected 4 boxes in total, got %d", len(result.Boxes()))
	}
}

func TestImportCSVFromReader_Placement(t *testing.T) {
	data := "name,length_mm,width_mm,height_mm,pos_x_mm,pos_y_mm,rot_deg\nPallet,1200,800,144,100,50,90\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	boxes := result.Boxes()
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d (errors: %v)", len(boxes), result.Errors)
	}
	b := boxes[0]
	if b.X != 100 || b.Y != 50 {
		t.Errorf("expected position (100, 50), got (%f, %f)", b.X, b.Y)
	}
	if b.Rotation != model.Rot90 {
		t.Errorf("expected rotation 90, got %v", b.Rotation)
	}
	if b.PlacedLength() != 800 {
		t.Errorf("expected placed length 800, got %f", b.PlacedLength())
	}
}

func TestImportCSVFromReader_InvalidRotation(t *testing.T) {
	data := "Name,Length,Width,Height,Rotation\nPallet,1200,800,144,45\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Rotation must be 0 or 90") {
		t.Errorf("unexpected error %q", result.Errors[0])
	}
}

func TestImportCSVFromReader_ColourWithoutHash(t *testing.T) {
	data := "Name,Length,Width,Height,Colour\nPallet,1200,800,144,aa3366\nCrate,600,400,400,blue\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	boxes := result.Boxes()
	if len(boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d (errors: %v)", len(boxes), result.Errors)
	}
	if boxes[0].Color != "#AA3366" {
		t.Errorf("expected #AA3366, got %s", boxes[0].Color)
	}
	if boxes[1].Color != Palette[1] {
		t.Errorf("expected palette fallback, got %s", boxes[1].Color)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Unknown colour 'blue'") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unknown colour warning, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_MissingName(t *testing.T) {
	data := "Name,Length,Width,Height\n,1200,800,144\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	boxes := result.Boxes()
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d (errors: %v)", len(boxes), result.Errors)
	}
	if boxes[0].Name != "Box_1" {
		t.Errorf("expected generated name Box_1, got %q", boxes[0].Name)
	}
}

func TestImportCSVFromReader_MissingRequiredColumns(t *testing.T) {
	data := "Name,Length,Weight\nPallet,1200,25\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	if len(result.Errors) == 0 {
		t.Fatal("expected error for missing columns")
	}
	if !strings.Contains(result.Errors[0], "Width, Height") {
		t.Errorf("expected missing Width and Height, got %q", result.Errors[0])
	}
}

func TestImportCSVFromReader_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"non-numeric length", "Pallet,abc,800,144,1", "Invalid length 'abc'"},
		{"zero width", "Pallet,1200,0,144,1", "must be positive"},
		{"missing height", "Pallet,1200,800,,1", "Missing height"},
		{"negative quantity", "Pallet,1200,800,144,-2", "Quantity must be positive"},
		{"fractional quantity", "Pallet,1200,800,144,1.5", "Invalid quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := "Name,Length,Width,Height,Qty\n" + tt.row + "\n"
			result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})
			if len(result.Items) != 0 {
				t.Errorf("expected no items, got %d", len(result.Items))
			}
			if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, result.Errors)
			}
			if !strings.HasPrefix(result.Errors[0], "Line 2:") {
				t.Errorf("expected error to name line 2, got %q", result.Errors[0])
			}
		})
	}
}

func TestImportCSVFromReader_SkipsEmptyRows(t *testing.T) {
	data := "Name,Length,Width,Height\nPallet,1200,800,144\n,,,\nCrate,600,400,400\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d (errors: %v)", len(result.Items), result.Errors)
	}
}

// ─── CSV File Import Tests ──────────────────────────────────

func TestImportCSV_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boxes.csv")
	content := "Name,Qty,Length,Width,Height\nPallet,2,1200,800,144\nCrate,1,600,400,400\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportCSV(path, Options{})

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Items))
	}
}

func TestImportCSV_SemicolonFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boxes.csv")
	content := "Name;Length;Width;Height\nPallet;1200;800;144\nCrate;600;400;400\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportCSV(path, Options{})

	if len(result.Items) != 2 {
		t.Errorf("expected 2 items, got %d (errors: %v)", len(result.Items), result.Errors)
	}

	hasSemicolonWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			hasSemicolonWarning = true
		}
	}
	if !hasSemicolonWarning {
		t.Error("expected warning about semicolon delimiter detection")
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV("/nonexistent/path/file.csv", Options{})

	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportCSV_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportCSV(path, Options{})

	if len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "boxes.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Name", "Quantity", "Length", "Width", "Height", "Weight"},
		{"Pallet", 2, 1200, 800, 144, 25},
		{"Crate", 1, 600, 400, 400, 12},
	})

	result := ImportExcel(path, Options{})

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	boxes := result.Boxes()
	if len(boxes) != 3 {
		t.Fatalf("expected 3 boxes, got %d", len(boxes))
	}
	if boxes[0].Name != "Pallet_1" || boxes[1].Name != "Pallet_2" {
		t.Errorf("expected Pallet_1 and Pallet_2, got %q and %q", boxes[0].Name, boxes[1].Name)
	}
	if boxes[2].Name != "Crate" {
		t.Errorf("expected 'Crate', got %q", boxes[2].Name)
	}
}

func TestImportExcel_WithoutHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Pallet", 1, 1200, 800, 144},
		{"Crate", 1, 600, 400, 400},
	})

	result := ImportExcel(path, Options{})

	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d (errors: %v)", len(result.Items), result.Errors)
	}
}

func TestImportExcel_Stacked(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Menge", "Bezeichnung", "Höhe", "Breite", "Länge"},
		{2, "Kiste", 500, 400, 600},
	})

	result := ImportExcel(path, Options{Stacked: true})

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	s, ok := result.Items[0].(*model.Stack)
	if !ok {
		t.Fatalf("expected *model.Stack, got %T", result.Items[0])
	}
	if s.Length() != 600 || s.Width() != 400 || s.TotalHeight() != 1000 {
		t.Errorf("unexpected stack %s", s)
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	result := ImportExcel("/nonexistent/file.xlsx", Options{})

	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportExcel_InvalidData(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Name", "Length", "Width", "Height"},
		{"Pallet", "abc", 800, 144},
	})

	result := ImportExcel(path, Options{})

	if len(result.Errors) == 0 {
		t.Fatal("expected error for invalid length")
	}
	if !strings.HasPrefix(result.Errors[0], "Row 2:") {
		t.Errorf("expected error to name row 2, got %q", result.Errors[0])
	}
}

func TestImportFile_DispatchesOnExtension(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Name", "Length", "Width", "Height"},
		{"Pallet", 1200, 800, 144},
	})

	result := ImportFile(path, Options{})
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d (errors: %v)", len(result.Items), result.Errors)
	}
}

// ─── Edge Cases ────────────────────────────────────────────

func TestImportCSVFromReader_OnlyHeaders(t *testing.T) {
	data := "Name,Length,Width,Height\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	if len(result.Items) != 0 {
		t.Errorf("expected 0 items for header-only file, got %d", len(result.Items))
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
}

func TestImportCSVFromReader_WhitespaceInValues(t *testing.T) {
	data := "Name , Length , Width , Height\n Pallet , 1200 , 800 , 144 \n"
	result := ImportCSVFromReader(strings.NewReader(data), ',', Options{})

	boxes := result.Boxes()
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d (errors: %v)", len(boxes), result.Errors)
	}
	if boxes[0].Name != "Pallet" || boxes[0].Length != 1200 {
		t.Errorf("unexpected box %+v", boxes[0])
	}
}
