package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/exemption-tracker/internal/application/service"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
)

// ConstraintResponse is a tax-rate constraint with its display helpers
type ConstraintResponse struct {
	taxation.Constraint
	DefaultRate float64 `json:"default_rate"`
	Description string  `json:"description"`
}

// ItemCheckResponse is a recalculated line item and its save-time validation
type ItemCheckResponse struct {
	Item   taxation.LineItem     `json:"item"`
	Valid  bool                  `json:"valid"`
	Errors []taxation.FieldError `json:"errors"`
}

func toConstraintResponse(c taxation.Constraint) ConstraintResponse {
	return ConstraintResponse{
		Constraint:  c,
		DefaultRate: c.DefaultRate(),
		Description: c.Describe(),
	}
}

// itemWithCategory reads a line item either nested under "item" or inlined in
// the body, together with the tax category
func itemWithCategory(body flexObject) (taxation.LineItem, taxation.TaxCategory) {
	src := body.object("item", "entity")
	if src == nil {
		src = body
	}
	category := taxCategoryOf(body)
	if category == "" {
		category = taxCategoryOf(src)
	}
	return toLineItem(src), category
}

// finiteOr422 writes a 422 response and returns false when an item's amounts overflow
func finiteOr422(c *gin.Context, items ...taxation.LineItem) bool {
	for _, item := range items {
		if !item.HasFiniteAmounts() {
			c.JSON(http.StatusUnprocessableEntity, Response{
				Success: false,
				Error:   service.ErrValidation.Error(),
				Details: []taxation.FieldError{{
					Field:   "total",
					Kind:    taxation.AmountOutOfRange,
					Message: "quantity and price are too large to compute the amounts",
				}},
			})
			return false
		}
	}
	return true
}

func queryAny(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v, ok := c.GetQuery(k); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ListCustomDuties handles GET /api/tax/custom-duties?category=...
func (h *Handlers) ListCustomDuties(c *gin.Context) {
	category := taxation.TaxCategory(queryAny(c, "category", "tax_category", "taxCategory"))
	ok(c, http.StatusOK, taxation.CustomDutyOptions(category))
}

// GetConstraints handles GET /api/tax/constraints?custom_duty=...&it_ic=...&category=...
func (h *Handlers) GetConstraints(c *gin.Context) {
	duty := taxation.CustomDuty(queryAny(c, "custom_duty", "customDuty"))
	itIc := taxation.ItIc(strings.ToUpper(queryAny(c, "it_ic", "itIc")))
	category := taxation.TaxCategory(queryAny(c, "category", "tax_category", "taxCategory"))

	ok(c, http.StatusOK, toConstraintResponse(taxation.ConstraintsFor(duty, itIc, category)))
}

// Recalculate handles POST /api/tax/recalculate
func (h *Handlers) Recalculate(c *gin.Context) {
	body, valid := bindFlex(c)
	if !valid {
		return
	}
	item, category := itemWithCategory(body)
	item = item.Recalculated(category)
	if !finiteOr422(c, item) {
		return
	}
	ok(c, http.StatusOK, item)
}

// ValidateItem handles POST /api/tax/validate
func (h *Handlers) ValidateItem(c *gin.Context) {
	body, valid := bindFlex(c)
	if !valid {
		return
	}
	item, category := itemWithCategory(body)
	item = item.Recalculated(category)
	if !finiteOr422(c, item) {
		return
	}

	result := taxation.ValidateForSave(item, category)
	errs := result.Errors
	if errs == nil {
		errs = []taxation.FieldError{}
	}
	ok(c, http.StatusOK, ItemCheckResponse{Item: item, Valid: result.OK(), Errors: errs})
}

// ChangeCustomDuty handles POST /api/tax/custom-duty-change.
// The body carries the current item and the newly selected duty.
func (h *Handlers) ChangeCustomDuty(c *gin.Context) {
	body, valid := bindFlex(c)
	if !valid {
		return
	}
	item, category := itemWithCategory(body)
	duty := taxation.CustomDuty(strings.TrimSpace(body.str("customDuty", "duty", "value")))

	updated := taxation.OnCustomDutyChange(item, duty, category)
	if !finiteOr422(c, updated) {
		return
	}
	ok(c, http.StatusOK, gin.H{
		"item":       updated,
		"constraint": toConstraintResponse(taxation.ConstraintsFor(updated.CustomDuty, updated.ItIc, category)),
	})
}

// ChangeItIc handles POST /api/tax/it-ic-change.
// The body carries the current item and the newly selected IT/IC flag.
func (h *Handlers) ChangeItIc(c *gin.Context) {
	body, valid := bindFlex(c)
	if !valid {
		return
	}
	item, category := itemWithCategory(body)
	itIc := taxation.ItIc(strings.ToUpper(strings.TrimSpace(body.str("itIc", "value"))))

	updated := taxation.OnItIcChange(item, itIc, category)
	if !finiteOr422(c, updated) {
		return
	}
	ok(c, http.StatusOK, gin.H{
		"item":       updated,
		"constraint": toConstraintResponse(taxation.ConstraintsFor(updated.CustomDuty, updated.ItIc, category)),
	})
}

// SortItems handles POST /api/tax/sort
func (h *Handlers) SortItems(c *gin.Context) {
	body, valid := bindFlex(c)
	if !valid {
		return
	}
	category := taxCategoryOf(body)
	items := toLineItems(body.objects("items", "entities"))
	for i := range items {
		items[i] = items[i].Recalculated(category)
	}
	if !finiteOr422(c, items...) {
		return
	}

	field := taxation.SortField(strings.TrimSpace(body.str("sortBy", "field")))
	descending := body.boolean("descending", "desc")
	if order := strings.ToLower(body.str("order", "direction")); order == "desc" {
		descending = true
	}

	sorted := taxation.SortItems(items, field, descending)
	summary := taxation.SummarizeItems(sorted)
	if !summary.IsFinite() {
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: "line item amounts are too large to total"})
		return
	}
	ok(c, http.StatusOK, gin.H{
		"items":   sorted,
		"summary": summary,
	})
}
