package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/transfer_console/models"
	"github.com/shopspring/decimal"
)

func lineWith(quantity int64, unitPrice, extraFee, commissionFee, discount string) models.LineItem {
	item := models.NewLineItem()
	item.Quantity = quantity
	item.UnitPrice = dec(unitPrice)
	item.ExtraFee = dec(extraFee)
	item.CommissionFee = dec(commissionFee)
	item.Discount = dec(discount)
	return item
}

func TestDestinationAddLineAppendsBlankByDefault(t *testing.T) {
	d := models.NewDestination().AddLine()
	if len(d.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(d.Lines))
	}
	if d.Lines[0].Quantity != 0 || !d.Lines[0].UnitPrice.Equal(decimal.Zero) {
		t.Errorf("blank line is not zero-valued: %+v", d.Lines[0])
	}
}

func TestDestinationRemoveLineOutOfRangeIsNoOp(t *testing.T) {
	d := models.NewDestination().AddLine(lineWith(1, "10", "0", "0", "0"))
	for _, index := range []int{-1, 1, 99} {
		got := d.RemoveLine(index)
		if len(got.Lines) != 1 {
			t.Errorf("RemoveLine(%d) changed line count to %d", index, len(got.Lines))
		}
	}
}

func TestDestinationValueSemantics(t *testing.T) {
	original := models.NewDestination().AddLine(lineWith(2, "500", "0", "0", "0"))

	updated := original.UpdateLine(0, models.FieldQuantity, "9")
	if original.Lines[0].Quantity != 2 {
		t.Errorf("updating the new value mutated the original: quantity = %d", original.Lines[0].Quantity)
	}
	if updated.Lines[0].Quantity != 9 {
		t.Errorf("update lost: quantity = %d, want 9", updated.Lines[0].Quantity)
	}

	extended := original.AddLine()
	if len(original.Lines) != 1 || len(extended.Lines) != 2 {
		t.Errorf("AddLine mutated the original: %d vs %d lines", len(original.Lines), len(extended.Lines))
	}
}

func TestDestinationAggregate(t *testing.T) {
	d := models.NewDestination().
		AddLine(lineWith(3, "1000", "100", "0", "200")).
		AddLine(lineWith(2, "50", "5", "10", "0"))

	totals := d.Aggregate()
	if totals.TotalQuantity != 5 {
		t.Errorf("TotalQuantity = %d, want 5", totals.TotalQuantity)
	}
	if !totals.TotalExtraFee.Equal(dec("105")) {
		t.Errorf("TotalExtraFee = %s, want 105", totals.TotalExtraFee)
	}
	if !totals.TotalCommissionFee.Equal(dec("10")) {
		t.Errorf("TotalCommissionFee = %s, want 10", totals.TotalCommissionFee)
	}
	if !totals.TotalDiscount.Equal(dec("200")) {
		t.Errorf("TotalDiscount = %s, want 200", totals.TotalDiscount)
	}
	// 3x(1000+100)-200 = 3100, 2x(50+5+10) = 130
	if !totals.TotalAmount.Equal(dec("3230")) {
		t.Errorf("TotalAmount = %s, want 3230", totals.TotalAmount)
	}
}

func TestDestinationAggregateMatchesLineSum(t *testing.T) {
	d := models.NewDestination().
		AddLine(lineWith(4, "9.99", "0.01", "0", "5")).
		AddLine(lineWith(1, "100", "0", "0", "500")).
		AddLine(lineWith(7, "3", "1", "2", "0"))

	sum := decimal.Zero
	for _, item := range d.Lines {
		sum = sum.Add(item.Total())
	}
	if !d.Aggregate().TotalAmount.Equal(sum) {
		t.Errorf("aggregate %s != line sum %s", d.Aggregate().TotalAmount, sum)
	}
}

func TestCloneIsolation(t *testing.T) {
	source := models.NewDestination().AddLine(lineWith(2, "500", "0", "0", "0"))
	target := 42
	source.TargetLocationId = &target

	clone := source.Clone()

	if clone.ID == source.ID {
		t.Fatalf("clone kept the destination id")
	}
	if clone.TargetLocationId != nil {
		t.Errorf("clone kept the target location %d", *clone.TargetLocationId)
	}
	if len(clone.Lines) != 1 {
		t.Fatalf("expected 1 cloned line, got %d", len(clone.Lines))
	}
	if clone.Lines[0].ID == source.Lines[0].ID {
		t.Errorf("cloned line shares the original line id")
	}

	// Mutating the clone must not reach the source.
	mutated := clone.UpdateLine(0, models.FieldQuantity, "5")
	if source.Lines[0].Quantity != 2 {
		t.Errorf("mutating the clone changed the source: quantity = %d", source.Lines[0].Quantity)
	}
	if !mutated.Lines[0].Total().Equal(dec("2500")) {
		t.Errorf("clone line total = %s, want 2500", mutated.Lines[0].Total())
	}
	if !source.Lines[0].Total().Equal(dec("1000")) {
		t.Errorf("source line total = %s, want 1000", source.Lines[0].Total())
	}
}
