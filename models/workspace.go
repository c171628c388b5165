package models

import (
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/transfer_console/config"
	"bitbucket.org/mmdatafocus/transfer_console/utils"
	"github.com/shopspring/decimal"
)

var (
	ErrLastDestination    = errors.New("at least one destination is required. the last destination cannot be removed")
	ErrTargetIsSource     = errors.New("transfers cannot be made within the same warehouse. please choose a different one and proceed")
	ErrDestinationMissing = errors.New("destination not found")
	ErrSubmitInFlight     = errors.New("a submission for this transfer is already in progress")
	ErrWorkspaceCommitted = errors.New("this transfer has already been submitted")
)

// AllocationWorkspace is the full in-memory editing state of one
// transfer-creation session: the shared source location, the ordered
// destination list and the order metadata. It lives only for the session
// and is converted once, atomically, into a submission payload.
//
// Every method is a pure transform returning a new value; the only
// stateful transitions are BeginSubmission / CompleteSubmission /
// AbortSubmission, which drive the Editing -> Submitting -> Committed
// machine.
type AllocationWorkspace struct {
	ID               string          `json:"id"`
	SourceLocationId int             `json:"source_location_id"`
	TransferDate     time.Time       `json:"transfer_date"`
	PaymentMode      PaymentMode     `json:"payment_mode"`
	Note             string          `json:"note"`
	Status           WorkspaceStatus `json:"status"`
	Destinations     []Destination   `json:"destinations"`
}

// WorkspaceTotals is the element-wise sum of every destination's totals.
type WorkspaceTotals struct {
	TotalQuantity      int64           `json:"total_quantity"`
	TotalExtraFee      decimal.Decimal `json:"total_extra_fee"`
	TotalCommissionFee decimal.Decimal `json:"total_commission_fee"`
	TotalDiscount      decimal.Decimal `json:"total_discount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
}

// ValidationFailure reports the first violated submission rule. LineIndex
// is -1 unless the failure points at a specific row.
type ValidationFailure struct {
	Reason           ValidationReason `json:"reason"`
	DestinationId    string           `json:"destination_id,omitempty"`
	DestinationIndex int              `json:"destination_index"`
	LineIndex        int              `json:"line_index"`
}

// NewWorkspace opens a fresh editing session. The first destination exists
// from creation; the minimum-destination invariant holds from the start.
func NewWorkspace(sourceLocationId int, transferDate time.Time, paymentMode PaymentMode, note string) AllocationWorkspace {
	return AllocationWorkspace{
		ID:               utils.GenerateLocalId(),
		SourceLocationId: sourceLocationId,
		TransferDate:     transferDate,
		PaymentMode:      paymentMode,
		Note:             note,
		Status:           WorkspaceStatusEditing,
		Destinations:     []Destination{NewDestination()},
	}
}

func (w AllocationWorkspace) copyDestinations() []Destination {
	destinations := make([]Destination, len(w.Destinations))
	copy(destinations, w.Destinations)
	return destinations
}

func (w AllocationWorkspace) findDestination(id string) int {
	for i, d := range w.Destinations {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Destination returns the destination with the given id.
func (w AllocationWorkspace) Destination(id string) (Destination, bool) {
	idx := w.findDestination(id)
	if idx < 0 {
		return Destination{}, false
	}
	return w.Destinations[idx], true
}

// AddDestination appends a new destination. When a template is supplied
// (the console convention: the first existing destination) the new one is
// seeded through Clone, never by reference. The new destination's id is
// returned so the session can make it the active one.
func (w AllocationWorkspace) AddDestination(template *Destination) (AllocationWorkspace, string) {
	var added Destination
	if template != nil {
		added = template.Clone()
	} else {
		added = NewDestination()
	}
	w.Destinations = append(w.copyDestinations(), added)
	return w, added.ID
}

// RemoveDestination removes one destination by id. Removing the last
// remaining destination is refused and the workspace is returned unchanged.
func (w AllocationWorkspace) RemoveDestination(id string) (AllocationWorkspace, error) {
	idx := w.findDestination(id)
	if idx < 0 {
		return w, ErrDestinationMissing
	}
	if len(w.Destinations) <= 1 {
		return w, ErrLastDestination
	}
	destinations := w.copyDestinations()
	w.Destinations = append(destinations[:idx], destinations[idx+1:]...)
	return w, nil
}

// SetDestinationTarget sets (or clears, on nil) the target location of one
// destination. A destination may never target the workspace source; the
// attempt is refused and the prior value kept.
func (w AllocationWorkspace) SetDestinationTarget(id string, targetLocationId *int) (AllocationWorkspace, error) {
	idx := w.findDestination(id)
	if idx < 0 {
		return w, ErrDestinationMissing
	}
	if targetLocationId != nil && *targetLocationId == w.SourceLocationId {
		return w, ErrTargetIsSource
	}
	destinations := w.copyDestinations()
	destinations[idx].TargetLocationId = targetLocationId
	w.Destinations = destinations
	return w, nil
}

// SelectableTargets filters the known location ids down to the set a
// destination may ship to, excluding the workspace source.
func (w AllocationWorkspace) SelectableTargets(locationIds []int) []int {
	targets := make([]int, 0, len(locationIds))
	for _, id := range locationIds {
		if id != w.SourceLocationId {
			targets = append(targets, id)
		}
	}
	return targets
}

func (w AllocationWorkspace) replaceDestination(id string, replace func(Destination) Destination) (AllocationWorkspace, error) {
	idx := w.findDestination(id)
	if idx < 0 {
		return w, ErrDestinationMissing
	}
	destinations := w.copyDestinations()
	destinations[idx] = replace(destinations[idx])
	w.Destinations = destinations
	return w, nil
}

// AddLine appends the supplied items (or one blank row) to one destination.
func (w AllocationWorkspace) AddLine(destinationId string, items ...LineItem) (AllocationWorkspace, error) {
	return w.replaceDestination(destinationId, func(d Destination) Destination {
		return d.AddLine(items...)
	})
}

// RemoveLine removes one row of one destination by position.
func (w AllocationWorkspace) RemoveLine(destinationId string, index int) (AllocationWorkspace, error) {
	return w.replaceDestination(destinationId, func(d Destination) Destination {
		return d.RemoveLine(index)
	})
}

// UpdateLine updates one column of one row of one destination.
func (w AllocationWorkspace) UpdateLine(destinationId string, index int, field LineItemField, raw string) (AllocationWorkspace, error) {
	return w.replaceDestination(destinationId, func(d Destination) Destination {
		return d.UpdateLine(index, field, raw)
	})
}

// Aggregate sums every destination's own aggregate.
func (w AllocationWorkspace) Aggregate() WorkspaceTotals {
	totals := WorkspaceTotals{
		TotalExtraFee:      decimal.Zero,
		TotalCommissionFee: decimal.Zero,
		TotalDiscount:      decimal.Zero,
		TotalAmount:        decimal.Zero,
	}
	for _, d := range w.Destinations {
		dt := d.Aggregate()
		totals.TotalQuantity += dt.TotalQuantity
		totals.TotalExtraFee = totals.TotalExtraFee.Add(dt.TotalExtraFee)
		totals.TotalCommissionFee = totals.TotalCommissionFee.Add(dt.TotalCommissionFee)
		totals.TotalDiscount = totals.TotalDiscount.Add(dt.TotalDiscount)
		totals.TotalAmount = totals.TotalAmount.Add(dt.TotalAmount)
	}
	return totals
}

// ValidateForSubmission checks the submission rules in a fixed order and
// reports the first violation: every destination has a target, every
// destination has at least one line, every line is backed by a catalog
// product, the source location is set. Rows without a catalog product are
// allowed while editing but rejected here unless STRICT_CATALOG_LINES is
// switched off.
func (w AllocationWorkspace) ValidateForSubmission() *ValidationFailure {
	for i, d := range w.Destinations {
		if d.TargetLocationId == nil {
			return &ValidationFailure{Reason: ValidationReasonMissingTarget, DestinationId: d.ID, DestinationIndex: i, LineIndex: -1}
		}
	}
	for i, d := range w.Destinations {
		if len(d.Lines) == 0 {
			return &ValidationFailure{Reason: ValidationReasonNoLineItems, DestinationId: d.ID, DestinationIndex: i, LineIndex: -1}
		}
	}
	if config.StrictCatalogLines() {
		for i, d := range w.Destinations {
			for j, item := range d.Lines {
				if item.CatalogProductId <= 0 {
					return &ValidationFailure{Reason: ValidationReasonNonCatalogLine, DestinationId: d.ID, DestinationIndex: i, LineIndex: j}
				}
			}
		}
	}
	if w.SourceLocationId <= 0 {
		return &ValidationFailure{Reason: ValidationReasonMissingSource, DestinationIndex: -1, LineIndex: -1}
	}
	return nil
}

// BeginSubmission moves the workspace into Submitting. A second submit
// while one is in flight is rejected, as is submitting a committed or
// invalid workspace.
func (w AllocationWorkspace) BeginSubmission() (AllocationWorkspace, error) {
	switch w.Status {
	case WorkspaceStatusSubmitting:
		return w, ErrSubmitInFlight
	case WorkspaceStatusCommitted:
		return w, ErrWorkspaceCommitted
	}
	if failure := w.ValidateForSubmission(); failure != nil {
		return w, errors.New("transfer is not ready for submission: " + string(failure.Reason))
	}
	w.Status = WorkspaceStatusSubmitting
	return w, nil
}

// CompleteSubmission marks the workspace committed. Terminal.
func (w AllocationWorkspace) CompleteSubmission() AllocationWorkspace {
	w.Status = WorkspaceStatusCommitted
	return w
}

// AbortSubmission returns the workspace to Editing after a transport or
// backend failure, leaving every destination and line untouched for retry.
func (w AllocationWorkspace) AbortSubmission() AllocationWorkspace {
	if w.Status == WorkspaceStatusSubmitting {
		w.Status = WorkspaceStatusEditing
	}
	return w
}
