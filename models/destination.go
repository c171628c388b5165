package models

import (
	"bitbucket.org/mmdatafocus/transfer_console/utils"
	"github.com/shopspring/decimal"
)

// Destination is one target location of the transfer with its own ordered
// line list. Insertion order is meaningful; it is the display and
// submission order. Every method returns a new value and never mutates the
// receiver's line slice, so older snapshots stay intact.
type Destination struct {
	ID               string     `json:"id"`
	TargetLocationId *int       `json:"target_location_id"`
	Lines            []LineItem `json:"lines"`
}

// DestinationTotals is the per-destination fold of its line items.
// Recomputed on every read, never stored.
type DestinationTotals struct {
	TotalQuantity      int64           `json:"total_quantity"`
	TotalExtraFee      decimal.Decimal `json:"total_extra_fee"`
	TotalCommissionFee decimal.Decimal `json:"total_commission_fee"`
	TotalDiscount      decimal.Decimal `json:"total_discount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
}

func NewDestination() Destination {
	return Destination{ID: utils.GenerateLocalId()}
}

func (d Destination) copyLines() []LineItem {
	lines := make([]LineItem, len(d.Lines))
	copy(lines, d.Lines)
	return lines
}

// AddLine appends the supplied items, or one fresh blank row when called
// with none.
func (d Destination) AddLine(items ...LineItem) Destination {
	if len(items) == 0 {
		items = []LineItem{NewLineItem()}
	}
	d.Lines = append(d.copyLines(), items...)
	return d
}

// RemoveLine removes the row at index. Out-of-range indexes are a no-op;
// the console never produces one, but the contract must not panic.
func (d Destination) RemoveLine(index int) Destination {
	if index < 0 || index >= len(d.Lines) {
		return d
	}
	lines := d.copyLines()
	d.Lines = append(lines[:index], lines[index+1:]...)
	return d
}

// UpdateLine replaces one column of the row at index with coerced user
// input. Out-of-range indexes are a no-op.
func (d Destination) UpdateLine(index int, field LineItemField, raw string) Destination {
	if index < 0 || index >= len(d.Lines) {
		return d
	}
	lines := d.copyLines()
	lines[index] = lines[index].WithField(field, raw)
	d.Lines = lines
	return d
}

// Aggregate folds the line list into the five destination totals.
func (d Destination) Aggregate() DestinationTotals {
	totals := DestinationTotals{
		TotalExtraFee:      decimal.Zero,
		TotalCommissionFee: decimal.Zero,
		TotalDiscount:      decimal.Zero,
		TotalAmount:        decimal.Zero,
	}
	for _, item := range d.Lines {
		totals.TotalQuantity += item.Quantity
		totals.TotalExtraFee = totals.TotalExtraFee.Add(item.ExtraFee)
		totals.TotalCommissionFee = totals.TotalCommissionFee.Add(item.CommissionFee)
		totals.TotalDiscount = totals.TotalDiscount.Add(item.Discount)
		totals.TotalAmount = totals.TotalAmount.Add(item.Total())
	}
	return totals
}

// Clone returns a new destination carrying deep copies of every line under
// fresh ids, with the target location reset. Used when a new destination is
// seeded from the product template of the first one. No line instance is
// ever shared between two destinations.
func (d Destination) Clone() Destination {
	clone := Destination{ID: utils.GenerateLocalId()}
	if len(d.Lines) == 0 {
		return clone
	}
	clone.Lines = make([]LineItem, 0, len(d.Lines))
	for _, item := range d.Lines {
		clone.Lines = append(clone.Lines, item.CloneWithNewId())
	}
	return clone
}
