package models

// DangerousAllergens returns the allergens of item that prefs marks as allergic.
// Absent keys count as false. The filter engine and the item detail view both
// rely on this rule.
func DangerousAllergens(item MenuItem, prefs map[int64]bool) []Allergen {
	if len(prefs) == 0 {
		return nil
	}
	var out []Allergen
	for _, a := range item.Allergens {
		if prefs[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

// HasDangerousAllergen reports whether item contains any allergen marked true in prefs.
func HasDangerousAllergen(item MenuItem, prefs map[int64]bool) bool {
	return len(DangerousAllergens(item, prefs)) > 0
}
