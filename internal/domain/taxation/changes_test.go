package taxation

import "testing"

func TestOnCustomDutyChange(t *testing.T) {
	tests := []struct {
		name     string
		item     LineItem
		duty     CustomDuty
		category TaxCategory
		wantRate float64
		wantTax  float64
	}{
		{
			name:     "fixed duty forces rate",
			item:     LineItem{Quantity: 2, UnitPrice: 50, TaxRate: 5, ItIc: ItIcIC},
			duty:     DutyTVAImportation,
			category: CategoryImportation,
			wantRate: 16,
			wantTax:  16,
		},
		{
			name:     "TVA under importation forces 16",
			item:     LineItem{Quantity: 1, UnitPrice: 100, TaxRate: 3},
			duty:     DutyTVA,
			category: CategoryImportation,
			wantRate: 16,
			wantTax:  16,
		},
		{
			name:     "IT line stays at zero",
			item:     LineItem{Quantity: 1, UnitPrice: 100, TaxRate: 0, ItIc: ItIcIT},
			duty:     DutyTVAImportation,
			category: CategoryImportation,
			wantRate: 0,
			wantTax:  0,
		},
		{
			name:     "IC line with stale zero gets range minimum",
			item:     LineItem{Quantity: 1, UnitPrice: 100, TaxRate: 0, ItIc: ItIcIC},
			duty:     DutyDroitsEntree,
			category: CategoryImportation,
			wantRate: 1,
			wantTax:  1,
		},
		{
			name:     "IC line keeps a chosen non-zero rate",
			item:     LineItem{Quantity: 1, UnitPrice: 100, TaxRate: 20, ItIc: ItIcIC},
			duty:     DutyDroitsAccises,
			category: CategoryImportation,
			wantRate: 20,
			wantTax:  20,
		},
		{
			name:     "local TVA keeps rate for the user to pick",
			item:     LineItem{Quantity: 1, UnitPrice: 100, TaxRate: 8},
			duty:     DutyTVA,
			category: CategoryLocalAcquisition,
			wantRate: 8,
			wantTax:  8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OnCustomDutyChange(tt.item, tt.duty, tt.category)
			if got.CustomDuty != tt.duty {
				t.Errorf("CustomDuty = %q, want %q", got.CustomDuty, tt.duty)
			}
			if got.TaxRate != tt.wantRate {
				t.Errorf("TaxRate = %v, want %v", got.TaxRate, tt.wantRate)
			}
			if !almostEqual(got.TaxAmount, tt.wantTax) {
				t.Errorf("TaxAmount = %v, want %v", got.TaxAmount, tt.wantTax)
			}
			if got.VatIncluded != got.Total+got.TaxAmount {
				t.Errorf("VatIncluded = %v, want %v", got.VatIncluded, got.Total+got.TaxAmount)
			}
		})
	}
}

func TestOnItIcChange(t *testing.T) {
	t.Run("IT forces zero rate", func(t *testing.T) {
		item := LineItem{Quantity: 4, UnitPrice: 100, TaxRate: 16, CustomDuty: DutyDroitsEntree, ItIc: ItIcIC}

		got := OnItIcChange(item, ItIcIT, CategoryImportation)

		if got.ItIc != ItIcIT || got.TaxRate != 0 || got.TaxAmount != 0 || got.VatIncluded != 400 {
			t.Errorf("OnItIcChange(IT) = %+v", got)
		}
	})

	t.Run("IC restores default rate after IT", func(t *testing.T) {
		item := LineItem{Quantity: 4, UnitPrice: 100, TaxRate: 0, CustomDuty: DutyDroitsEntree, ItIc: ItIcIT}

		got := OnItIcChange(item, ItIcIC, CategoryImportation)

		if got.TaxRate != 1 {
			t.Errorf("TaxRate = %v, want 1", got.TaxRate)
		}
		if !almostEqual(got.TaxAmount, 4) {
			t.Errorf("TaxAmount = %v, want 4", got.TaxAmount)
		}
	})

	t.Run("IC restores fixed rate", func(t *testing.T) {
		item := LineItem{Quantity: 1, UnitPrice: 100, TaxRate: 0, CustomDuty: DutyTVAImportation, ItIc: ItIcIT}

		got := OnItIcChange(item, ItIcIC, CategoryImportation)

		if got.TaxRate != 16 || !almostEqual(got.TaxAmount, 16) {
			t.Errorf("OnItIcChange(IC) = rate %v tax %v, want 16/16", got.TaxRate, got.TaxAmount)
		}
	})

	t.Run("IC keeps a valid rate", func(t *testing.T) {
		item := LineItem{Quantity: 1, UnitPrice: 100, TaxRate: 12, CustomDuty: DutyDroitsEntree, ItIc: ItIcIC}

		got := OnItIcChange(item, ItIcIC, CategoryImportation)

		if got.TaxRate != 12 {
			t.Errorf("TaxRate = %v, want 12", got.TaxRate)
		}
	})

	t.Run("ignored outside importation", func(t *testing.T) {
		item := LineItem{Quantity: 1, UnitPrice: 100, TaxRate: 16, CustomDuty: DutyTVA}

		got := OnItIcChange(item, ItIcIT, CategoryLocalAcquisition)

		if got.ItIc != ItIcNone || got.TaxRate != 16 || !almostEqual(got.TaxAmount, 16) {
			t.Errorf("OnItIcChange outside importation = %+v", got)
		}
	})

	t.Run("IC result always validates", func(t *testing.T) {
		for _, duty := range CustomDutyOptions(CategoryImportation) {
			item := LineItem{Label: "x", Quantity: 1, UnitPrice: 1, CustomDuty: duty, ItIc: ItIcIT}
			got := OnItIcChange(item, ItIcIC, CategoryImportation)
			if !IsValidTaxRate(got.TaxRate, got.CustomDuty, got.ItIc, CategoryImportation) {
				t.Errorf("duty %q: rate %v not valid after switching to IC", duty, got.TaxRate)
			}
			if got.TaxRate == 0 {
				t.Errorf("duty %q: IC line left at zero rate", duty)
			}
		}
	})
}
