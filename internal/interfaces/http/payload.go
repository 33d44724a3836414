package http

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/garyjia/exemption-tracker/internal/application/service"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
)

// flexObject is a JSON object whose keys are matched without regard to case
// or underscores, so "taxRate", "tax_rate" and "TaxRate" are the same key
type flexObject map[string]json.RawMessage

// UnmarshalJSON implements json.Unmarshaler
func (o *flexObject) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(flexObject, len(raw))
	for k, v := range raw {
		out[normalizeKey(k)] = v
	}
	*o = out
	return nil
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(k))
}

func (o flexObject) lookup(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := o[normalizeKey(k)]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || string(bytes.TrimSpace(v)) == "null"
}

// str returns the first present key as text. Numbers are kept in their JSON spelling.
func (o flexObject) str(keys ...string) string {
	v, ok := o.lookup(keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v))
}

// num returns the first present key as a number. Strings are coerced and
// anything unparseable reads as 0.
func (o flexObject) num(keys ...string) float64 {
	v, ok := o.lookup(keys...)
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return taxation.ParseAmount(s)
	}
	return 0
}

func (o flexObject) boolean(keys ...string) bool {
	v, ok := o.lookup(keys...)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	switch strings.ToLower(o.str(keys...)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (o flexObject) object(keys ...string) flexObject {
	v, ok := o.lookup(keys...)
	if !ok {
		return nil
	}
	var obj flexObject
	if err := json.Unmarshal(v, &obj); err != nil {
		return nil
	}
	return obj
}

func (o flexObject) objects(keys ...string) []flexObject {
	v, ok := o.lookup(keys...)
	if !ok {
		return nil
	}
	var list []flexObject
	if err := json.Unmarshal(v, &list); err != nil {
		return nil
	}
	return list
}

// toLineItem maps a client line-item object onto the canonical LineItem.
// Derived amounts are ignored; they are recomputed on the server.
func toLineItem(o flexObject) taxation.LineItem {
	return taxation.LineItem{
		Label:             o.str("label", "designation", "description"),
		Quantity:          o.num("quantity", "qty"),
		UnitPrice:         o.num("unitPrice", "price", "cif"),
		TaxRate:           o.num("taxRate", "rate"),
		CustomDuty:        taxation.CustomDuty(strings.TrimSpace(o.str("customDuty", "duty"))),
		ItIc:              taxation.ItIc(strings.ToUpper(strings.TrimSpace(o.str("itIc")))),
		IssueDate:         strings.TrimSpace(o.str("issueDate", "date")),
		NatureOfOperation: o.str("natureOfOperation"),
		TariffPosition:    strings.TrimSpace(o.str("tariffPosition")),
	}
}

func toLineItems(list []flexObject) []taxation.LineItem {
	items := make([]taxation.LineItem, 0, len(list))
	for _, o := range list {
		items = append(items, toLineItem(o))
	}
	return items
}

func taxCategoryOf(o flexObject) taxation.TaxCategory {
	return taxation.TaxCategory(strings.TrimSpace(o.str("taxCategory", "category")))
}

func toRequestInput(o flexObject) service.RequestInput {
	return service.RequestInput{
		Reference:   o.str("reference", "ref"),
		Title:       o.str("title", "name"),
		TaxCategory: taxCategoryOf(o),
		Items:       toLineItems(o.objects("items", "entities", "lineItems")),
	}
}
