package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data    string
		want    callback
		wantErr bool
	}{
		{data: "menu", want: callback{Action: actionMenu}},
		{data: "rest:3", want: callback{Action: actionRestaurant, ID: 3}},
		{data: "fav:12:list", want: callback{Action: actionFavorite, ID: 12, Arg: argList}},
		{data: "cart:clear", want: callback{Action: actionCart, Arg: argClear}},
		{data: "book:4:2", want: callback{Action: actionBook, ID: 4, Arg: "2", Pax: 2}},
		{data: "flt:vegan", want: callback{Action: actionFilter, Arg: filterVegan}},
		{data: "flt:price:10:20", want: callback{Action: actionFilter, Arg: filterPrice, PriceMin: 10, PriceMax: 20}},
		{data: "lang:en", want: callback{Action: actionLanguage, Arg: "en"}},
		{data: "", wantErr: true},
		{data: "item", wantErr: true},
		{data: "item:abc", wantErr: true},
		{data: "item:-1", wantErr: true},
		{data: "book:4", wantErr: true},
		{data: "book:4:9", wantErr: true},
		{data: "flt:price:10", wantErr: true},
		{data: "flt:price:-1:5", wantErr: true},
		{data: "flt:price:0:100001", wantErr: true},
		{data: "flt:price:92233720368547759:0", wantErr: true},
		{data: "flt:price:0:100000", want: callback{Action: actionFilter, Arg: filterPrice, PriceMax: 100000}},
		{data: "flt:bogus", wantErr: true},
		{data: "order:1", wantErr: true},
		{data: "menu:" + strings.Repeat("x", maxCallbackData), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := parseCallback(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	data := []string{
		idData(actionFavorite, 9007199254740991, argList),
		idData(actionBook, 9007199254740991, "4"),
		priceData(9007199254740991, 9007199254740991),
	}
	for _, d := range data {
		assert.LessOrEqual(t, len(d), maxCallbackData, d)
		_, err := parseCallback(d)
		assert.NoError(t, err, d)
	}
}
