package bot

import (
	"fmt"
	"strings"

	"vegn-telegram/lang"
	"vegn-telegram/models"
	"vegn-telegram/services"
)

// formatPrice renders cents as euros with a French decimal comma: 1250 -> "12,50 €".
func formatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d €", sign, cents/100, cents%100)
}

func allergenCodes(as []models.Allergen) string {
	codes := make([]string, 0, len(as))
	for _, a := range as {
		label := a.Label
		if label == "" {
			label = a.Code
		}
		codes = append(codes, label)
	}
	return strings.Join(codes, ", ")
}

func itemButtonLabel(it models.MenuItem, prefs map[int64]bool) string {
	label := fmt.Sprintf("%s · %s", it.Name, formatPrice(it.PriceCents))
	if it.IsVegan {
		label = "🌱 " + label
	}
	if models.HasDangerousAllergen(it, prefs) {
		label = "⚠️ " + label
	}
	return label
}

// itemText is the detail view of a menu item. It warns about the allergens
// the customer declared.
func itemText(l string, e services.CatalogEntry, prefs map[int64]bool, inCart int, favorite bool) string {
	it := e.Item
	var sb strings.Builder
	sb.WriteString(it.Name)
	if it.IsVegan {
		sb.WriteString(" 🌱")
	}
	sb.WriteString("\n")
	if e.Restaurant.RestaurantName != "" {
		sb.WriteString(e.Restaurant.RestaurantName + "\n")
	}
	sb.WriteString(formatPrice(it.PriceCents) + "\n")
	if it.Description != "" {
		sb.WriteString("\n" + it.Description + "\n")
	}
	if len(it.Allergens) > 0 {
		sb.WriteString("\n" + lang.T(l, "item_allergens", allergenCodes(it.Allergens)) + "\n")
	}
	if danger := models.DangerousAllergens(it, prefs); len(danger) > 0 {
		sb.WriteString("\n⚠️ " + lang.T(l, "item_danger", allergenCodes(danger)) + "\n")
	}
	if favorite {
		sb.WriteString("\n" + lang.T(l, "item_is_favorite") + "\n")
	}
	if inCart > 0 {
		sb.WriteString("\n" + lang.T(l, "item_in_cart", inCart) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func cartText(l string, lines []models.CartLine, totalItems int, totalCents int64) string {
	if len(lines) == 0 {
		return lang.T(l, "cart_empty")
	}
	var sb strings.Builder
	sb.WriteString(lang.T(l, "cart_header") + "\n\n")
	for _, line := range lines {
		fmt.Fprintf(&sb, "• %s × %d = %s\n", line.Name, line.Quantity, formatPrice(line.SubtotalCents()))
		if line.RestaurantName != "" {
			fmt.Fprintf(&sb, "  %s\n", line.RestaurantName)
		}
	}
	sb.WriteString("\n" + lang.T(l, "cart_total", totalItems, formatPrice(totalCents)))
	return sb.String()
}

func favoritesText(l string, favs []models.FavoriteItem) string {
	if len(favs) == 0 {
		return lang.T(l, "favorites_empty")
	}
	var sb strings.Builder
	sb.WriteString(lang.T(l, "favorites_header", len(favs)) + "\n\n")
	for _, f := range favs {
		fmt.Fprintf(&sb, "• %s · %s", f.Name, formatPrice(f.PriceCents))
		if f.RestaurantName != "" {
			fmt.Fprintf(&sb, " (%s)", f.RestaurantName)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func allergensText(l string, selected int) string {
	if selected == 0 {
		return lang.T(l, "allergens_header") + "\n\n" + lang.T(l, "allergens_none")
	}
	return lang.T(l, "allergens_header") + "\n\n" + lang.T(l, "allergens_count", selected)
}

func sortLabel(l string, f services.Filter) string {
	by := f.SortBy
	if by == "" {
		by = services.SortByName
	}
	order := f.SortOrder
	if order == "" {
		order = services.SortAsc
	}
	return lang.T(l, "sort_"+string(by)) + " " + lang.T(l, "order_"+string(order))
}

func priceRangeLabel(l string, f services.Filter) string {
	if f.PriceMax == 0 {
		if f.PriceMin == 0 {
			return lang.T(l, "price_any")
		}
		return lang.T(l, "price_from", f.PriceMin)
	}
	return lang.T(l, "price_between", f.PriceMin, f.PriceMax)
}

func filterText(l string, f services.Filter) string {
	var sb strings.Builder
	sb.WriteString(lang.T(l, "filters_header"))
	if n := f.ActiveCount(); n > 0 {
		sb.WriteString(" " + lang.T(l, "filters_active", n))
	}
	sb.WriteString("\n\n")
	if f.SearchTerm != "" {
		sb.WriteString(lang.T(l, "filter_search", f.SearchTerm) + "\n")
	}
	sb.WriteString(lang.T(l, "filter_price", priceRangeLabel(l, f)) + "\n")
	if f.VeganOnly {
		sb.WriteString(lang.T(l, "filter_vegan_on") + "\n")
	} else {
		sb.WriteString(lang.T(l, "filter_vegan_off") + "\n")
	}
	excluded := 0
	for _, allergic := range f.Allergens {
		if allergic {
			excluded++
		}
	}
	sb.WriteString(lang.T(l, "filter_allergens", excluded) + "\n")
	sb.WriteString(lang.T(l, "filter_sort", sortLabel(l, f)))
	return sb.String()
}

func eventText(l string, e models.Event) string {
	var sb strings.Builder
	sb.WriteString(e.Title + "\n")
	sb.WriteString(formatDate(e.DateStart))
	if e.DateEnd != "" {
		sb.WriteString(" → " + formatDate(e.DateEnd))
	}
	sb.WriteString("\n")
	if e.Description != "" {
		sb.WriteString("\n" + e.Description + "\n")
	}
	if e.AvailableSpots != nil {
		sb.WriteString("\n" + lang.T(l, "event_spots", *e.AvailableSpots) + "\n")
	}
	if e.Status == models.EventStatusCancelled {
		sb.WriteString("\n" + lang.T(l, "event_cancelled") + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func bookingStatusLabel(l, status string) string {
	switch status {
	case models.BookingStatusConfirmed:
		return lang.T(l, "status_confirmed")
	case models.BookingStatusCancelled:
		return lang.T(l, "status_cancelled")
	default:
		return lang.T(l, "status_pending")
	}
}

func bookingsText(l string, bookings []models.PersonalBooking) string {
	if len(bookings) == 0 {
		return lang.T(l, "bookings_empty")
	}
	var sb strings.Builder
	sb.WriteString(lang.T(l, "bookings_header", len(bookings)) + "\n\n")
	for _, pb := range bookings {
		title := lang.T(l, "booking_event_fallback", pb.EventID)
		when := ""
		if pb.Event != nil {
			title = pb.Event.Title
			when = formatDate(pb.Event.DateStart)
		}
		fmt.Fprintf(&sb, "• #%d %s", pb.ID, title)
		if when != "" {
			fmt.Fprintf(&sb, " · %s", when)
		}
		fmt.Fprintf(&sb, "\n  %s · %s\n", lang.T(l, "booking_pax", pb.Pax), bookingStatusLabel(l, pb.Status))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatDate turns the backend's "2024-06-01T19:30:00" into "2024-06-01 19:30".
func formatDate(s string) string {
	s = strings.Replace(s, "T", " ", 1)
	if len(s) >= len("2006-01-02 15:04") {
		return s[:len("2006-01-02 15:04")]
	}
	return s
}
