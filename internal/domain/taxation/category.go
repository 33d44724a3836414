// Package taxation holds the line-item tax rules for exemption requests:
// derived amounts, tax-rate constraints per custom duty, and save-time validation.
package taxation

import "strings"

// TaxCategory selects the field set and custom duties that apply to a request
type TaxCategory string

const (
	CategoryLocalAcquisition TaxCategory = "location_acquisition"
	CategoryImportation      TaxCategory = "importation"
)

// IsValid returns true if the category is one of the two known categories
func (c TaxCategory) IsValid() bool {
	switch c {
	case CategoryLocalAcquisition, CategoryImportation:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category
func (c TaxCategory) String() string {
	return string(c)
}

// CustomDuty names the tax or duty applied to a line item.
// Values outside the known constants are accepted and use the default rate range.
type CustomDuty string

const (
	DutyTVA                     CustomDuty = "TVA"
	DutyTVAImportation          CustomDuty = "TVA à l'importation"
	DutyDroitsEntree            CustomDuty = "Droits d'entrée"
	DutyDroitsAccises           CustomDuty = "Droits d'accises"
	DutyRedevanceAdministrative CustomDuty = "Redevance administrative"
)

// String returns the string representation of the duty
func (d CustomDuty) String() string {
	return string(d)
}

// IsEmpty reports whether no duty has been selected
func (d CustomDuty) IsEmpty() bool {
	return strings.TrimSpace(string(d)) == ""
}

// ItIc distinguishes duty-exempt (IT) from dutiable (IC) import lines
type ItIc string

const (
	ItIcNone ItIc = ""
	ItIcIT   ItIc = "IT"
	ItIcIC   ItIc = "IC"
)

// IsValid returns true for IT, IC or unset
func (v ItIc) IsValid() bool {
	switch v {
	case ItIcNone, ItIcIT, ItIcIC:
		return true
	default:
		return false
	}
}

// CustomDutyOptions returns the duties offered for a tax category, in display order
func CustomDutyOptions(category TaxCategory) []CustomDuty {
	switch category {
	case CategoryLocalAcquisition:
		return []CustomDuty{DutyTVA, DutyDroitsAccises}
	case CategoryImportation:
		return []CustomDuty{
			DutyDroitsEntree,
			DutyTVAImportation,
			DutyDroitsAccises,
			DutyRedevanceAdministrative,
		}
	default:
		return nil
	}
}
