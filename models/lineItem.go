package models

import (
	"bitbucket.org/mmdatafocus/transfer_console/utils"
	"github.com/shopspring/decimal"
)

// LineItem is one product row inside a destination. The ID is generated
// locally for the editing session and is distinct from any backend
// product id; CatalogProductId is only set when the row came from a
// catalog selection.
type LineItem struct {
	ID               string          `json:"id"`
	Sku              string          `json:"sku"`
	ProductName      string          `json:"product_name"`
	Quantity         int64           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ExtraFee         decimal.Decimal `json:"extra_fee"`
	CommissionFee    decimal.Decimal `json:"commission_fee"`
	Discount         decimal.Decimal `json:"discount"`
	ContainerCode    string          `json:"container_code"`
	CatalogProductId int             `json:"catalog_product_id"`
}

// NewLineItem returns a zero-valued row with a fresh local id.
func NewLineItem() LineItem {
	return LineItem{
		ID:            utils.GenerateLocalId(),
		UnitPrice:     decimal.Zero,
		ExtraFee:      decimal.Zero,
		CommissionFee: decimal.Zero,
		Discount:      decimal.Zero,
	}
}

// WithField returns a copy of the item with one column replaced by coerced
// user input and is the only mutation path for line rows. Numeric columns
// coerce malformed, empty or negative input to zero so the grid never
// becomes unrenderable. Unknown fields are a no-op.
func (item LineItem) WithField(field LineItemField, raw string) LineItem {
	switch field {
	case FieldSku:
		item.Sku = raw
	case FieldProductName:
		item.ProductName = raw
	case FieldQuantity:
		item.Quantity = utils.CoerceQuantity(raw)
	case FieldUnitPrice:
		item.UnitPrice = utils.CoerceAmount(raw)
	case FieldExtraFee:
		item.ExtraFee = utils.CoerceAmount(raw)
	case FieldCommissionFee:
		item.CommissionFee = utils.CoerceAmount(raw)
	case FieldDiscount:
		item.Discount = utils.CoerceAmount(raw)
	case FieldContainerCode:
		item.ContainerCode = raw
	}
	return item
}

// Total is quantity x (unitPrice + extraFee + commissionFee) - discount,
// floored at zero. Excess discount is absorbed, never carried over. This
// formula must match the backend's own computation; the summary screens
// reconcile against it.
func (item LineItem) Total() decimal.Decimal {
	perUnit := item.UnitPrice.Add(item.ExtraFee).Add(item.CommissionFee)
	total := decimal.NewFromInt(item.Quantity).Mul(perUnit).Sub(item.Discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// CloneWithNewId deep-copies the row under a fresh local id.
func (item LineItem) CloneWithNewId() LineItem {
	clone := item
	clone.ID = utils.GenerateLocalId()
	return clone
}
