package taxation

import (
	"math"
	"strconv"
	"strings"
)

// LineItem is one row of a request's entity table.
// Total, TaxAmount and VatIncluded are derived and overwritten on every recalculation.
type LineItem struct {
	Label      string     `json:"label"`
	Quantity   float64    `json:"quantity"`
	UnitPrice  float64    `json:"unit_price"` // CIF under importation
	TaxRate    float64    `json:"tax_rate"`
	CustomDuty CustomDuty `json:"custom_duty"`
	ItIc       ItIc       `json:"it_ic,omitempty"`

	// Local acquisition only
	IssueDate         string `json:"issue_date,omitempty"`
	NatureOfOperation string `json:"nature_of_operation,omitempty"`

	// Importation only
	TariffPosition string `json:"tariff_position,omitempty"`

	Total       float64 `json:"total"`
	TaxAmount   float64 `json:"tax_amount"`
	VatIncluded float64 `json:"vat_included"`
}

// IsBlank reports whether the row carries no user input at all.
// Blank rows are dropped rather than validated when a table is saved.
func (li LineItem) IsBlank() bool {
	return strings.TrimSpace(li.Label) == "" &&
		li.Quantity == 0 &&
		li.UnitPrice == 0 &&
		li.TaxRate == 0 &&
		li.CustomDuty.IsEmpty() &&
		li.ItIc == ItIcNone &&
		li.IssueDate == "" &&
		li.NatureOfOperation == "" &&
		li.TariffPosition == ""
}

// HasFiniteAmounts reports whether the inputs and derived amounts are all finite numbers
func (li LineItem) HasFiniteAmounts() bool {
	return finite(li.Quantity, li.UnitPrice, li.TaxRate, li.Total, li.TaxAmount, li.VatIncluded)
}

// Recalculated returns a copy of the item with derived amounts refreshed
func (li LineItem) Recalculated(category TaxCategory) LineItem {
	totals := Recalculate(CalcInput{
		Quantity:  li.Quantity,
		UnitPrice: li.UnitPrice,
		TaxRate:   li.TaxRate,
		ItIc:      li.ItIc,
		Category:  category,
	})
	li.Total = totals.Total
	li.TaxAmount = totals.TaxAmount
	li.VatIncluded = totals.VatIncluded
	return li
}

// ParseAmount coerces free-form numeric text to a number.
// Partial or malformed input ("", "-", "12.", "1,5", "abc") never fails: unparseable text is 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimSuffix(s, ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
