package taxation

import "math"

// CalcInput holds the fields that drive a line item's derived amounts.
// Zero values stand in for absent input.
type CalcInput struct {
	Quantity  float64
	UnitPrice float64
	TaxRate   float64
	ItIc      ItIc
	Category  TaxCategory
}

// Totals are the derived monetary fields of a line item
type Totals struct {
	Total       float64 `json:"total"`
	TaxAmount   float64 `json:"tax_amount"`
	VatIncluded float64 `json:"vat_included"`
}

// Recalculate computes total, tax amount and VAT-inclusive total.
// An IT line under importation carries no tax whatever its rate.
// Negative input is not clamped; save-time validation rejects it.
func Recalculate(in CalcInput) Totals {
	total := in.Quantity * in.UnitPrice

	var taxAmount float64
	if in.Category == CategoryImportation && in.ItIc == ItIcIT {
		taxAmount = 0
	} else {
		taxAmount = total * (in.TaxRate / 100)
	}

	return Totals{
		Total:       total,
		TaxAmount:   taxAmount,
		VatIncluded: total + taxAmount,
	}
}

// Summary aggregates the derived amounts of every line in a request
type Summary struct {
	ItemCount   int     `json:"item_count"`
	Total       float64 `json:"total"`
	TaxAmount   float64 `json:"tax_amount"`
	VatIncluded float64 `json:"vat_included"`
}

// IsFinite reports whether every sum is a finite number
func (s Summary) IsFinite() bool {
	return finite(s.Total, s.TaxAmount, s.VatIncluded)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SummarizeItems sums the derived amounts of already recalculated items
func SummarizeItems(items []LineItem) Summary {
	var s Summary
	for _, item := range items {
		s.ItemCount++
		s.Total += item.Total
		s.TaxAmount += item.TaxAmount
		s.VatIncluded += item.VatIncluded
	}
	return s
}
