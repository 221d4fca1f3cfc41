package services

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"vegn-telegram/models"
)

type SortField string

const (
	SortByName       SortField = "name"
	SortByPrice      SortField = "price"
	SortByPopularity SortField = "popularity"
)

// SortFields lists the sort options in the order the bot cycles through them.
var SortFields = []SortField{SortByName, SortByPrice, SortByPopularity}

// Next returns the sort field after f, wrapping around.
func (f SortField) Next() SortField {
	for i, s := range SortFields {
		if s == f {
			return SortFields[(i+1)%len(SortFields)]
		}
	}
	return SortByName
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) Reverse() SortOrder {
	if o == SortDesc {
		return SortAsc
	}
	return SortDesc
}

const (
	defaultPriceMin = 0
	defaultPriceMax = 50

	// MaxPrice bounds both ends of a price range, in euros, so that cent
	// conversions cannot overflow.
	MaxPrice = 100000
)

// Filter is the menu filter configuration. Prices are in major units (euros).
// PriceMax of zero means no upper bound.
type Filter struct {
	SearchTerm string
	PriceMin   int64
	PriceMax   int64
	VeganOnly  bool
	// Allergens excludes every item carrying an allergen marked true.
	Allergens map[int64]bool
	SortBy    SortField
	SortOrder SortOrder
	// Popularity holds per-item scores for SortByPopularity. Missing items score 0.
	Popularity map[int64]int64
}

// DefaultFilter returns the filter a new session starts with: 0 to 50 euros, sorted by name.
func DefaultFilter() Filter {
	return Filter{
		PriceMin:  defaultPriceMin,
		PriceMax:  defaultPriceMax,
		SortBy:    SortByName,
		SortOrder: SortAsc,
	}
}

// Clone returns a copy of f that shares no maps with it.
func (f Filter) Clone() Filter {
	f.Allergens = maps.Clone(f.Allergens)
	f.Popularity = maps.Clone(f.Popularity)
	return f
}

// ActiveCount counts the filter groups that narrow the default view.
func (f Filter) ActiveCount() int {
	n := 0
	if f.SearchTerm != "" {
		n++
	}
	if f.VeganOnly {
		n++
	}
	if f.PriceMin > defaultPriceMin || (f.PriceMax > 0 && f.PriceMax < defaultPriceMax) {
		n++
	}
	for _, allergic := range f.Allergens {
		if allergic {
			n++
			break
		}
	}
	return n
}

// Validate reports an inverted price range or an unknown sort option.
func (f Filter) Validate() error {
	if f.PriceMin < 0 || f.PriceMax < 0 {
		return fmt.Errorf("price range must not be negative")
	}
	if f.PriceMin > MaxPrice || f.PriceMax > MaxPrice {
		return fmt.Errorf("price range must not exceed %d", MaxPrice)
	}
	if f.PriceMax > 0 && f.PriceMin > f.PriceMax {
		return fmt.Errorf("price range %d-%d is inverted", f.PriceMin, f.PriceMax)
	}
	switch f.SortBy {
	case "", SortByName, SortByPrice, SortByPopularity:
	default:
		return fmt.Errorf("unknown sort field %q", f.SortBy)
	}
	switch f.SortOrder {
	case "", SortAsc, SortDesc:
	default:
		return fmt.Errorf("unknown sort order %q", f.SortOrder)
	}
	return nil
}

func (f Filter) keep(item models.MenuItem, term string) bool {
	if term != "" &&
		!strings.Contains(strings.ToLower(item.Name), term) &&
		!strings.Contains(strings.ToLower(item.Description), term) {
		return false
	}
	if item.PriceCents < min(f.PriceMin, MaxPrice)*100 {
		return false
	}
	if f.PriceMax > 0 && item.PriceCents > min(f.PriceMax, MaxPrice)*100 {
		return false
	}
	if f.VeganOnly && !item.IsVegan {
		return false
	}
	return !models.HasDangerousAllergen(item, f.Allergens)
}

// ApplyFilter returns the items that pass every predicate of f, sorted last.
// Items with equal sort keys keep their input order. items is not modified.
func ApplyFilter(items []models.MenuItem, f Filter) []models.MenuItem {
	term := strings.ToLower(f.SearchTerm)
	out := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if f.keep(item, term) {
			out = append(out, item)
		}
	}
	if len(out) < 2 {
		return out
	}

	cmp := comparator(f)
	desc := f.SortOrder == SortDesc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

func comparator(f Filter) func(a, b models.MenuItem) int {
	switch f.SortBy {
	case SortByPrice:
		return func(a, b models.MenuItem) int {
			return compareInt(a.PriceCents, b.PriceCents)
		}
	case SortByPopularity:
		return func(a, b models.MenuItem) int {
			return compareInt(f.Popularity[a.ID], f.Popularity[b.ID])
		}
	default:
		// collate.Collator is not safe for concurrent use.
		c := collate.New(language.French)
		return func(a, b models.MenuItem) int {
			return c.CompareString(a.Name, b.Name)
		}
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// PriceBounds returns the whole-euro range covering items: the lowest price
// rounded down and the highest rounded up. An empty list gives the default range.
func PriceBounds(items []models.MenuItem) (lo, hi int64) {
	if len(items) == 0 {
		return defaultPriceMin, defaultPriceMax
	}
	minC, maxC := items[0].PriceCents, items[0].PriceCents
	for _, it := range items[1:] {
		minC = min(minC, it.PriceCents)
		maxC = max(maxC, it.PriceCents)
	}
	return floorDiv(minC, 100), -floorDiv(-maxC, 100)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
