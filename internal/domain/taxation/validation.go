package taxation

import (
	"fmt"
	"strings"
)

// ErrorKind identifies a save-time validation failure
type ErrorKind string

const (
	CustomDutyRequired        ErrorKind = "CustomDutyRequired"
	IssueDateRequired         ErrorKind = "IssueDateRequired"
	LabelRequired             ErrorKind = "LabelRequired"
	QuantityRequired          ErrorKind = "QuantityRequired"
	PriceRequired             ErrorKind = "PriceRequired"
	TaxRateConstraintViolated ErrorKind = "TaxRateConstraintViolated"
	ItIcInvalid               ErrorKind = "ItIcInvalid"
	AmountOutOfRange          ErrorKind = "AmountOutOfRange"
)

// FieldError is one failed check on a line item
type FieldError struct {
	Field   string    `json:"field"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ValidationResult collects every failed check, in evaluation order
type ValidationResult struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// OK reports whether the item may be saved
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// First returns the failure a sequential form would surface, or nil
func (r ValidationResult) First() *FieldError {
	if len(r.Errors) == 0 {
		return nil
	}
	return &r.Errors[0]
}

// Has reports whether a failure of the given kind was recorded
func (r ValidationResult) Has(kind ErrorKind) bool {
	for _, e := range r.Errors {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func (r *ValidationResult) add(field string, kind ErrorKind, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Kind: kind, Message: msg})
}

// ValidateForSave runs the required-field and tax-rate checks for a line item.
// Negative quantities and prices fail the positivity checks. An IT/IC flag must be
// IT, IC or empty and is only accepted under importation; derived amounts must be finite.
func ValidateForSave(item LineItem, category TaxCategory) ValidationResult {
	var result ValidationResult

	if item.CustomDuty.IsEmpty() {
		result.add("custom_duty", CustomDutyRequired, "custom duty is required")
	}

	if category == CategoryLocalAcquisition && strings.TrimSpace(item.IssueDate) == "" {
		result.add("issue_date", IssueDateRequired, "issue date is required")
	}

	if strings.TrimSpace(item.Label) == "" {
		result.add("label", LabelRequired, "label is required")
	}

	if !(item.Quantity > 0) {
		result.add("quantity", QuantityRequired, "quantity must be greater than 0")
	}

	if !(item.UnitPrice > 0) {
		priceName := "unit price"
		if category == CategoryImportation {
			priceName = "CIF"
		}
		result.add("unit_price", PriceRequired, priceName+" must be greater than 0")
	}

	if !IsValidTaxRate(item.TaxRate, item.CustomDuty, item.ItIc, category) {
		constraint := ConstraintsFor(item.CustomDuty, item.ItIc, category)
		result.add("tax_rate", TaxRateConstraintViolated,
			fmt.Sprintf("tax rate %s%% %s", formatRate(item.TaxRate), constraint.Describe()))
	}

	if !item.ItIc.IsValid() {
		result.add("it_ic", ItIcInvalid, fmt.Sprintf("IT/IC must be %q, %q or empty, got %q", ItIcIT, ItIcIC, item.ItIc))
	} else if item.ItIc != ItIcNone && category != CategoryImportation {
		result.add("it_ic", ItIcInvalid, "IT/IC only applies to importation")
	}

	if !item.HasFiniteAmounts() {
		result.add("total", AmountOutOfRange, "quantity and price are too large to compute the amounts")
	}

	return result
}
