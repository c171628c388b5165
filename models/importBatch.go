package models

import (
	"time"

	"bitbucket.org/mmdatafocus/transfer_console/utils"
	"github.com/shopspring/decimal"
)

// ImportRow is one spreadsheet-derived candidate row. It is deliberately a
// separate type from LineItem: parsed rows carry no local ids and belong to
// no destination until the user confirms the merge.
type ImportRow struct {
	Sku           string          `json:"sku"`
	ProductName   string          `json:"product_name"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ExtraFee      decimal.Decimal `json:"extra_fee"`
	CommissionFee decimal.Decimal `json:"commission_fee"`
	Discount      decimal.Decimal `json:"discount"`
	ContainerCode string          `json:"container_code"`
}

// ImportBatch is the staged, unconfirmed output of one file parse. It is
// held for user confirmation and discarded after merge or cancel; a batch
// is never merged twice.
type ImportBatch struct {
	ID       string      `json:"id"`
	FileName string      `json:"file_name"`
	Rows     []ImportRow `json:"rows"`
	StagedAt time.Time   `json:"staged_at"`
}

func NewImportBatch(fileName string, rows []ImportRow) *ImportBatch {
	return &ImportBatch{
		ID:       utils.GenerateLocalId(),
		FileName: fileName,
		Rows:     rows,
		StagedAt: time.Now(),
	}
}

// ToLineItem converts one candidate row into a fresh line item. Imported
// rows carry no catalog product id; the user links them (or the strict
// submission check rejects them).
func (row ImportRow) ToLineItem() LineItem {
	item := NewLineItem()
	item.Sku = row.Sku
	item.ProductName = row.ProductName
	item.Quantity = row.Quantity
	item.UnitPrice = row.UnitPrice
	item.ExtraFee = row.ExtraFee
	item.CommissionFee = row.CommissionFee
	item.Discount = row.Discount
	item.ContainerCode = row.ContainerCode
	return item
}

// MergeImportBatch appends every row of the batch, in order, as new line
// items of one destination. The caller discards the batch afterward
// whether or not the merge happened.
func (w AllocationWorkspace) MergeImportBatch(destinationId string, batch *ImportBatch) (AllocationWorkspace, error) {
	if batch == nil || len(batch.Rows) == 0 {
		return w, nil
	}
	items := make([]LineItem, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		items = append(items, row.ToLineItem())
	}
	return w.AddLine(destinationId, items...)
}
