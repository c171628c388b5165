package models

type WorkspaceStatus string

const (
	WorkspaceStatusEditing    WorkspaceStatus = "Editing"
	WorkspaceStatusSubmitting WorkspaceStatus = "Submitting"
	WorkspaceStatusCommitted  WorkspaceStatus = "Committed"
)

func ParseWorkspaceStatus(value string) (WorkspaceStatus, bool) {
	workspaceStatus := map[string]WorkspaceStatus{
		"Editing":    WorkspaceStatusEditing,
		"Submitting": WorkspaceStatusSubmitting,
		"Committed":  WorkspaceStatusCommitted,
	}
	status, ok := workspaceStatus[value]
	return status, ok
}

// LineItemField names the user-editable columns of a line row. Field updates
// arrive from the console as (field, raw string) pairs.
type LineItemField string

const (
	FieldSku           LineItemField = "sku"
	FieldProductName   LineItemField = "productName"
	FieldQuantity      LineItemField = "quantity"
	FieldUnitPrice     LineItemField = "unitPrice"
	FieldExtraFee      LineItemField = "extraFee"
	FieldCommissionFee LineItemField = "commissionFee"
	FieldDiscount      LineItemField = "discount"
	FieldContainerCode LineItemField = "containerCode"
)

func ParseLineItemField(value string) (LineItemField, bool) {
	lineItemField := map[string]LineItemField{
		"sku":           FieldSku,
		"productName":   FieldProductName,
		"quantity":      FieldQuantity,
		"unitPrice":     FieldUnitPrice,
		"extraFee":      FieldExtraFee,
		"commissionFee": FieldCommissionFee,
		"discount":      FieldDiscount,
		"containerCode": FieldContainerCode,
	}
	field, ok := lineItemField[value]
	return field, ok
}

// ValidationReason is the discriminated failure emitted by
// ValidateForSubmission. The console highlights the offending
// destination/line from the accompanying positions.
type ValidationReason string

const (
	ValidationReasonMissingTarget  ValidationReason = "MissingTarget"
	ValidationReasonNoLineItems    ValidationReason = "NoLineItems"
	ValidationReasonNonCatalogLine ValidationReason = "NonCatalogLine"
	ValidationReasonMissingSource  ValidationReason = "MissingSource"
)

type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "Cash"
	PaymentModeCredit       PaymentMode = "Credit"
	PaymentModeBankTransfer PaymentMode = "BankTransfer"
)

func ParsePaymentMode(value string) (PaymentMode, bool) {
	paymentMode := map[string]PaymentMode{
		"Cash":         PaymentModeCash,
		"Credit":       PaymentModeCredit,
		"BankTransfer": PaymentModeBankTransfer,
	}
	mode, ok := paymentMode[value]
	return mode, ok
}
