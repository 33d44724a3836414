package taxation

import (
	"sort"
	"strings"
)

// SortField names a sortable line-item column
type SortField string

const (
	SortByLabel       SortField = "label"
	SortByQuantity    SortField = "quantity"
	SortByUnitPrice   SortField = "unit_price"
	SortByTotal       SortField = "total"
	SortByVatIncluded SortField = "vat_included"
)

// SortItems returns a sorted copy of items. Unknown fields keep the input order.
// The sort is stable so equal keys keep their entry order in both directions.
func SortItems(items []LineItem, field SortField, descending bool) []LineItem {
	sorted := make([]LineItem, len(items))
	copy(sorted, items)

	less := lessFunc(field)
	if less == nil {
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})
	return sorted
}

func lessFunc(field SortField) func(a, b LineItem) bool {
	switch field {
	case SortByLabel:
		return func(a, b LineItem) bool { return strings.ToLower(a.Label) < strings.ToLower(b.Label) }
	case SortByQuantity:
		return func(a, b LineItem) bool { return a.Quantity < b.Quantity }
	case SortByUnitPrice:
		return func(a, b LineItem) bool { return a.UnitPrice < b.UnitPrice }
	case SortByTotal:
		return func(a, b LineItem) bool { return a.Total < b.Total }
	case SortByVatIncluded:
		return func(a, b LineItem) bool { return a.VatIncluded < b.VatIncluded }
	default:
		return nil
	}
}
