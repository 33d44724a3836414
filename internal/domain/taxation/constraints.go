package taxation

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultMinRate = 1
	defaultMaxRate = 100

	standardVATRate = 16
	reducedVATRate  = 8
)

// Constraint describes the legal tax-rate values for a line item.
// Exactly one of Fixed, AllowedValues or the Min/Max range is active.
type Constraint struct {
	Fixed         *float64  `json:"fixed,omitempty"`
	AllowedValues []float64 `json:"allowed_values,omitempty"`
	Min           *float64  `json:"min,omitempty"`
	Max           *float64  `json:"max,omitempty"`
}

// ConstraintsFor returns the tax-rate constraint for a duty under a category.
//
//	importation + IT           -> fixed 0
//	location_acquisition + TVA -> one of {8, 16}
//	TVA (any other category)   -> fixed 16
//	TVA à l'importation        -> fixed 16
//	anything else              -> 1..100
func ConstraintsFor(duty CustomDuty, itIc ItIc, category TaxCategory) Constraint {
	switch {
	case category == CategoryImportation && itIc == ItIcIT:
		return fixedRate(0)
	case category == CategoryLocalAcquisition && duty == DutyTVA:
		return Constraint{AllowedValues: []float64{reducedVATRate, standardVATRate}}
	case duty == DutyTVA:
		return fixedRate(standardVATRate)
	case duty == DutyTVAImportation:
		return fixedRate(standardVATRate)
	default:
		return rangeRate(defaultMinRate, defaultMaxRate)
	}
}

// IsValidTaxRate checks a rate against the constraint for the given context.
// A zero rate on an IT line is always accepted.
func IsValidTaxRate(rate float64, duty CustomDuty, itIc ItIc, category TaxCategory) bool {
	if itIc == ItIcIT && rate == 0 {
		return true
	}
	return ConstraintsFor(duty, itIc, category).Allows(rate)
}

// Allows reports whether rate satisfies the constraint
func (c Constraint) Allows(rate float64) bool {
	switch {
	case c.Fixed != nil:
		return rate == *c.Fixed
	case len(c.AllowedValues) > 0:
		for _, v := range c.AllowedValues {
			if rate == v {
				return true
			}
		}
		return false
	case c.Min != nil && c.Max != nil:
		return rate >= *c.Min && rate <= *c.Max
	default:
		return true
	}
}

// DefaultRate is the rate to fall back to when the current one is stale:
// the fixed value, else the first allowed value, else the minimum, else 1.
func (c Constraint) DefaultRate() float64 {
	switch {
	case c.Fixed != nil:
		return *c.Fixed
	case len(c.AllowedValues) > 0:
		return c.AllowedValues[0]
	case c.Min != nil:
		return *c.Min
	default:
		return defaultMinRate
	}
}

// Describe renders the constraint for error messages
func (c Constraint) Describe() string {
	switch {
	case c.Fixed != nil:
		return fmt.Sprintf("must be exactly %s%%", formatRate(*c.Fixed))
	case len(c.AllowedValues) > 0:
		values := make([]string, len(c.AllowedValues))
		for i, v := range c.AllowedValues {
			values[i] = formatRate(v) + "%"
		}
		return "must be one of " + strings.Join(values, ", ")
	case c.Min != nil && c.Max != nil:
		return fmt.Sprintf("must be between %s%% and %s%%", formatRate(*c.Min), formatRate(*c.Max))
	default:
		return "is unconstrained"
	}
}

func fixedRate(v float64) Constraint {
	return Constraint{Fixed: &v}
}

func rangeRate(lo, hi float64) Constraint {
	return Constraint{Min: &lo, Max: &hi}
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
