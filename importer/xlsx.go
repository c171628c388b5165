package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"bitbucket.org/mmdatafocus/transfer_console/models"
	"bitbucket.org/mmdatafocus/transfer_console/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Expected column order of the upload template. Row 1 is the header.
const (
	colSku = iota
	colProductName
	colQuantity
	colUnitPrice
	colExtraFee
	colCommissionFee
	colDiscount
	colContainerCode
)

var ErrEmptyWorkbook = errors.New("the uploaded file contains no data rows")

// ParseWorkbook decodes an uploaded .xlsx into a staged import batch. Any
// row that cannot be decoded fails the whole parse; no partial batch is
// ever staged.
func ParseWorkbook(reader io.Reader, fileName string) (*models.ImportBatch, error) {
	if !strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		return nil, fmt.Errorf("invalid file type: only .xlsx files are allowed")
	}

	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("unable to open Excel file: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet: %v", err)
	}
	if len(rows) <= 1 {
		return nil, ErrEmptyWorkbook
	}

	parsed := make([]models.ImportRow, 0, len(rows)-1)
	for idx, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		importRow, err := populateImportRow(row)
		if err != nil {
			return nil, fmt.Errorf("error in row %d: %v", idx+2, err)
		}
		if importRow.ProductName == "" {
			return nil, fmt.Errorf("product name is null in row %d", idx+2)
		}
		parsed = append(parsed, importRow)
	}
	if len(parsed) == 0 {
		return nil, ErrEmptyWorkbook
	}

	return models.NewImportBatch(fileName, parsed), nil
}

func populateImportRow(row []string) (models.ImportRow, error) {
	importRow := models.ImportRow{
		Sku:           cell(row, colSku),
		ProductName:   cell(row, colProductName),
		ContainerCode: cell(row, colContainerCode),
	}

	if raw := cell(row, colQuantity); raw != "" {
		qty, err := utils.ParseDecimal(raw)
		if err != nil {
			return importRow, fmt.Errorf("could not parse quantity: %v", err)
		}
		if qty.IsNegative() {
			return importRow, errors.New("quantity cannot be negative")
		}
		importRow.Quantity = qty.IntPart()
	}

	var err error
	if importRow.UnitPrice, err = amountCell(row, colUnitPrice, "unit price"); err != nil {
		return importRow, err
	}
	if importRow.ExtraFee, err = amountCell(row, colExtraFee, "extra fee"); err != nil {
		return importRow, err
	}
	if importRow.CommissionFee, err = amountCell(row, colCommissionFee, "commission fee"); err != nil {
		return importRow, err
	}
	if importRow.Discount, err = amountCell(row, colDiscount, "discount"); err != nil {
		return importRow, err
	}
	return importRow, nil
}

func amountCell(row []string, col int, label string) (decimal.Decimal, error) {
	raw := cell(row, col)
	if raw == "" {
		return decimal.Zero, nil
	}
	dec, err := utils.ParseDecimal(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not parse %s: %v", label, err)
	}
	if dec.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s cannot be negative", label)
	}
	return dec, nil
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
