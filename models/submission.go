package models

import (
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/transfer_console/utils"
	"github.com/shopspring/decimal"
)

// SubmissionPayload is the wire shape the order-creation endpoint expects.
// The backend schema is an external contract; field names here must track
// it, not the workspace model.
type SubmissionPayload struct {
	SourceLocationId int                     `json:"source_location_id"`
	OrderDate        time.Time               `json:"order_date"`
	PaymentMethod    string                  `json:"payment_method"`
	Note             string                  `json:"note"`
	Destinations     []SubmissionDestination `json:"destinations"`
}

type SubmissionDestination struct {
	TargetLocationId int              `json:"target_location_id"`
	Lines            []SubmissionLine `json:"lines"`
}

type SubmissionLine struct {
	CatalogProductId int             `json:"catalog_product_id"`
	Quantity         int64           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ExtraFee         decimal.Decimal `json:"extra_fee"`
	CommissionFee    decimal.Decimal `json:"commission_fee"`
	Discount         decimal.Decimal `json:"discount"`
	Note             string          `json:"note"`
}

// ToSubmissionPayload converts the workspace snapshot into the wire
// payload. Only callable once validation passes and no submission is in
// flight; the optional container code of each row is encoded into the line
// note.
func (w AllocationWorkspace) ToSubmissionPayload() (*SubmissionPayload, error) {
	switch w.Status {
	case WorkspaceStatusSubmitting:
		return nil, ErrSubmitInFlight
	case WorkspaceStatusCommitted:
		return nil, ErrWorkspaceCommitted
	}
	if failure := w.ValidateForSubmission(); failure != nil {
		return nil, fmt.Errorf("transfer is not ready for submission: %s", failure.Reason)
	}

	payload := SubmissionPayload{
		SourceLocationId: w.SourceLocationId,
		OrderDate:        w.TransferDate,
		PaymentMethod:    string(w.PaymentMode),
		Note:             w.Note,
		Destinations:     make([]SubmissionDestination, 0, len(w.Destinations)),
	}
	for _, d := range w.Destinations {
		dest := SubmissionDestination{
			TargetLocationId: utils.DereferencePtr(d.TargetLocationId),
			Lines:            make([]SubmissionLine, 0, len(d.Lines)),
		}
		for _, item := range d.Lines {
			note := ""
			if item.ContainerCode != "" {
				note = fmt.Sprintf("container:%s", item.ContainerCode)
			}
			dest.Lines = append(dest.Lines, SubmissionLine{
				CatalogProductId: item.CatalogProductId,
				Quantity:         item.Quantity,
				UnitPrice:        item.UnitPrice,
				ExtraFee:         item.ExtraFee,
				CommissionFee:    item.CommissionFee,
				Discount:         item.Discount,
				Note:             note,
			})
		}
		payload.Destinations = append(payload.Destinations, dest)
	}
	return &payload, nil
}
