package bot

import (
	"fmt"
	"strconv"
	"strings"

	"vegn-telegram/services"
)

// Callback data is "<action>[:<id>][:<arg>]" and must fit Telegram's 64 bytes.
const (
	actionMenu       = "menu"
	actionRestaurant = "rest"
	actionItem       = "item"
	actionAdd        = "add"
	actionInc        = "inc"
	actionDec        = "dec"
	actionRemove     = "rm"
	actionCart       = "cart"
	actionFavorite   = "fav"
	actionFavorites  = "favs"
	actionAllergen   = "alg"
	actionAllergens  = "algs"
	actionFilter     = "flt"
	actionFilters    = "flts"
	actionEvents     = "events"
	actionEvent      = "evt"
	actionBook       = "book"
	actionBookings   = "bookings"
	actionLanguage   = "lang"

	argClear   = "clear"
	argList    = "list"
	argRefresh = "refresh"

	filterVegan = "vegan"
	filterSort  = "sort"
	filterOrder = "order"
	filterPrice = "price"
	filterReset = "reset"
)

const maxCallbackData = 64

// Actions whose first field is a numeric id.
var idActions = map[string]bool{
	actionRestaurant: true,
	actionItem:       true,
	actionAdd:        true,
	actionInc:        true,
	actionDec:        true,
	actionRemove:     true,
	actionFavorite:   true,
	actionAllergen:   true,
	actionEvent:      true,
	actionBook:       true,
}

type callback struct {
	Action string
	ID     int64
	Arg    string
	// Pax is the seat count of a book callback.
	Pax int
	// PriceMin and PriceMax are set by flt:price callbacks.
	PriceMin, PriceMax int64
}

func parseCallback(data string) (callback, error) {
	if data == "" || len(data) > maxCallbackData {
		return callback{}, fmt.Errorf("invalid callback length %d", len(data))
	}
	parts := strings.Split(data, ":")
	cb := callback{Action: parts[0]}
	rest := parts[1:]

	if idActions[cb.Action] {
		if len(rest) == 0 {
			return callback{}, fmt.Errorf("%s: missing id", cb.Action)
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil || id <= 0 {
			return callback{}, fmt.Errorf("%s: bad id %q", cb.Action, rest[0])
		}
		cb.ID = id
		rest = rest[1:]
	}
	if len(rest) > 0 {
		cb.Arg = rest[0]
	}

	switch cb.Action {
	case actionBook:
		pax, err := strconv.Atoi(cb.Arg)
		if err != nil || pax < 1 || pax > maxPax {
			return callback{}, fmt.Errorf("book: bad pax %q", cb.Arg)
		}
		cb.Pax = pax
	case actionFilter:
		switch cb.Arg {
		case filterVegan, filterSort, filterOrder, filterReset:
		case filterPrice:
			if len(rest) != 3 {
				return callback{}, fmt.Errorf("flt:price: want min and max")
			}
			lo, err1 := strconv.ParseInt(rest[1], 10, 64)
			hi, err2 := strconv.ParseInt(rest[2], 10, 64)
			if err1 != nil || err2 != nil || lo < 0 || hi < 0 || lo > services.MaxPrice || hi > services.MaxPrice {
				return callback{}, fmt.Errorf("flt:price: bad range %q-%q", rest[1], rest[2])
			}
			cb.PriceMin, cb.PriceMax = lo, hi
		default:
			return callback{}, fmt.Errorf("flt: unknown filter %q", cb.Arg)
		}
	case actionMenu, actionRestaurant, actionItem, actionAdd, actionInc, actionDec, actionRemove,
		actionCart, actionFavorite, actionFavorites, actionAllergen, actionAllergens, actionFilters,
		actionEvents, actionEvent, actionBookings, actionLanguage:
	default:
		return callback{}, fmt.Errorf("unknown action %q", cb.Action)
	}
	return cb, nil
}

func idData(action string, id int64, args ...string) string {
	s := action + ":" + strconv.FormatInt(id, 10)
	for _, a := range args {
		s += ":" + a
	}
	return s
}

func priceData(lo, hi int64) string {
	return fmt.Sprintf("%s:%s:%d:%d", actionFilter, filterPrice, lo, hi)
}
