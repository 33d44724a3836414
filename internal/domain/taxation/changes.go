package taxation

// OnCustomDutyChange applies a new duty to the item.
// A fixed-rate duty forces its rate. An IC line left at zero (inherited from IT mode)
// is moved to the constraint's default rate so it never keeps a stale zero.
func OnCustomDutyChange(item LineItem, duty CustomDuty, category TaxCategory) LineItem {
	item.CustomDuty = duty

	constraint := ConstraintsFor(duty, item.ItIc, category)
	switch {
	case constraint.Fixed != nil:
		item.TaxRate = *constraint.Fixed
	case item.ItIc == ItIcIC && item.TaxRate == 0:
		item.TaxRate = constraint.DefaultRate()
	}

	return item.Recalculated(category)
}

// OnItIcChange switches an import line between IT and IC.
// IT forces a zero rate; IC restores a valid non-zero rate when the current one is zero or invalid.
// Outside importation the flag does not apply and is cleared.
func OnItIcChange(item LineItem, itIc ItIc, category TaxCategory) LineItem {
	if category != CategoryImportation {
		item.ItIc = ItIcNone
		return item.Recalculated(category)
	}

	item.ItIc = itIc

	switch itIc {
	case ItIcIT:
		item.TaxRate = 0
	case ItIcIC:
		constraint := ConstraintsFor(item.CustomDuty, ItIcIC, category)
		if item.TaxRate == 0 || !constraint.Allows(item.TaxRate) {
			item.TaxRate = constraint.DefaultRate()
		}
	}

	return item.Recalculated(category)
}
