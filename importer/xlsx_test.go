package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func decFromString(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", value, err)
	}
	return d
}

func workbookOf(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"Sku", "Product Name", "Quantity", "Unit Price", "Extra Fee", "Commission Fee", "Discount", "Container Code"}
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		t.Fatalf("SetSheetRow header: %v", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow %d: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestParseWorkbook(t *testing.T) {
	reader := workbookOf(t, [][]interface{}{
		{"A-1", "Item A", 2, 10, 0, 0, 0, "CTN-1"},
		{"B-2", "Item B", 1, "5.5", "0.5", 1, 0, ""},
		{"", "Item C", 3, 4, "", "", 2, ""},
	})

	batch, err := ParseWorkbook(reader, "upload.xlsx")
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if len(batch.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(batch.Rows))
	}
	if batch.ID == "" || batch.FileName != "upload.xlsx" {
		t.Errorf("batch identity wrong: %+v", batch)
	}

	first := batch.Rows[0]
	if first.Sku != "A-1" || first.ProductName != "Item A" || first.Quantity != 2 || first.ContainerCode != "CTN-1" {
		t.Errorf("first row wrong: %+v", first)
	}
	second := batch.Rows[1]
	if !second.UnitPrice.Equal(decFromString(t, "5.5")) || !second.ExtraFee.Equal(decFromString(t, "0.5")) {
		t.Errorf("second row amounts wrong: %+v", second)
	}
	third := batch.Rows[2]
	if third.Sku != "" || third.Quantity != 3 || !third.Discount.Equal(decFromString(t, "2")) {
		t.Errorf("third row wrong: %+v", third)
	}
}

func TestParseWorkbookSkipsBlankRows(t *testing.T) {
	reader := workbookOf(t, [][]interface{}{
		{"A-1", "Item A", 2, 10, 0, 0, 0, ""},
		{"", "", "", "", "", "", "", ""},
		{"B-2", "Item B", 1, 5, 0, 0, 0, ""},
	})
	batch, err := ParseWorkbook(reader, "upload.xlsx")
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if len(batch.Rows) != 2 {
		t.Errorf("expected blank row to be skipped, got %d rows", len(batch.Rows))
	}
}

func TestParseWorkbookRejectsBadRows(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]interface{}
		wantErr string
	}{
		{
			"unparseable quantity",
			[][]interface{}{{"A-1", "Item A", "two", 10, 0, 0, 0, ""}},
			"error in row 2",
		},
		{
			"negative unit price",
			[][]interface{}{{"A-1", "Item A", 1, -10, 0, 0, 0, ""}},
			"unit price cannot be negative",
		},
		{
			"missing product name",
			[][]interface{}{{"A-1", "", 1, 10, 0, 0, 0, ""}},
			"product name is null in row 2",
		},
		{
			"header only",
			nil,
			"no data rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWorkbook(workbookOf(t, tt.rows), "upload.xlsx")
			if err == nil {
				t.Fatalf("expected parse error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseWorkbookRejectsOtherFileTypes(t *testing.T) {
	if _, err := ParseWorkbook(strings.NewReader("sku,name\n"), "upload.csv"); err == nil {
		t.Fatalf("expected file-type rejection")
	}
}

func TestParseWorkbookRejectsGarbage(t *testing.T) {
	if _, err := ParseWorkbook(strings.NewReader("not a zip archive"), "upload.xlsx"); err == nil {
		t.Fatalf("expected structural parse error")
	}
}
