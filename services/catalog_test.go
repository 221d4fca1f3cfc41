package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vegn-telegram/models"
)

type fakeCatalogClient struct {
	mu          sync.Mutex
	restaurants func(call int) ([]models.Restaurant, error)
	menus       map[int64][]models.Menu
	allergens   []models.Allergen
	allergenErr error

	restaurantCalls atomic.Int32
	menuCalls       atomic.Int32
}

func (f *fakeCatalogClient) Restaurants(context.Context) ([]models.Restaurant, error) {
	call := int(f.restaurantCalls.Add(1))
	return f.restaurants(call)
}

func (f *fakeCatalogClient) ActiveMenus(_ context.Context, restaurantID int64) ([]models.Menu, error) {
	f.menuCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	menus, ok := f.menus[restaurantID]
	if !ok {
		return nil, errors.New("no menus")
	}
	return menus, nil
}

func (f *fakeCatalogClient) Allergens(context.Context) ([]models.Allergen, error) {
	return f.allergens, f.allergenErr
}

func TestCatalog_LoadAllAndLookup(t *testing.T) {
	ctx := context.Background()
	client := &fakeCatalogClient{
		restaurants: func(int) ([]models.Restaurant, error) {
			return []models.Restaurant{{ID: 1, Name: "Bastille"}, {ID: 2, Name: "République"}}, nil
		},
		menus: map[int64][]models.Menu{
			1: {
				{ID: 10, MenuItems: []models.MenuItem{item(100, "Salade", 1200), item(101, "Burger", 1500)}},
				{ID: 11, MenuItems: []models.MenuItem{item(101, "Burger", 1500), item(102, "Dahl", 1100)}},
			},
			2: {{ID: 20, MenuItems: []models.MenuItem{item(200, "Curry", 1300)}}},
		},
	}
	cat := NewCatalog(client, nil)

	require.NoError(t, cat.LoadAll(ctx))

	items, err := cat.MenuItems(ctx, models.Restaurant{ID: 1, Name: "Bastille"}, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 101, 102}, ids(items), "items shared by two menus appear once")
	assert.Equal(t, int32(2), client.menuCalls.Load(), "cached menus are not fetched again")

	entry, ok := cat.Item(200)
	require.True(t, ok)
	assert.Equal(t, "République", entry.Restaurant.RestaurantName)

	r, ok := cat.Restaurant(2)
	require.True(t, ok)
	assert.Equal(t, "République", r.Name)
	assert.Len(t, cat.AllItems(), 4)
}

func TestCatalog_LoadAllReportsMenuFailure(t *testing.T) {
	client := &fakeCatalogClient{
		restaurants: func(int) ([]models.Restaurant, error) {
			return []models.Restaurant{{ID: 1}, {ID: 3}}, nil
		},
		menus: map[int64][]models.Menu{1: {}},
	}
	err := NewCatalog(client, nil).LoadAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restaurant 3")
}

func TestCatalog_RestaurantsErrorIsReturned(t *testing.T) {
	client := &fakeCatalogClient{
		restaurants: func(int) ([]models.Restaurant, error) { return nil, errors.New("connection refused") },
	}
	_, err := NewCatalog(client, nil).Restaurants(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCatalog_StaleResponseIsDropped(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})
	client := &fakeCatalogClient{
		restaurants: func(call int) ([]models.Restaurant, error) {
			if call == 1 {
				close(started)
				<-release
				return []models.Restaurant{{ID: 1, Name: "old"}}, nil
			}
			return []models.Restaurant{{ID: 1, Name: "new"}}, nil
		},
	}
	cat := NewCatalog(client, nil)

	done := make(chan []models.Restaurant)
	go func() {
		rs, _ := cat.Restaurants(ctx, true)
		done <- rs
	}()
	<-started

	fresh, err := cat.Restaurants(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "new", fresh[0].Name)

	close(release)
	slow := <-done
	assert.Equal(t, "new", slow[0].Name, "the older request must not overwrite the newer one")

	cached, err := cat.Restaurants(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "new", cached[0].Name)
}

func TestCatalog_AllergensFallBackToEUList(t *testing.T) {
	client := &fakeCatalogClient{allergenErr: errors.New("503")}
	got := NewCatalog(client, nil).Allergens(context.Background())
	assert.Len(t, got, 14)
	assert.Equal(t, "GLUTEN", got[0].Code)

	client = &fakeCatalogClient{allergens: []models.Allergen{gluten}}
	assert.Equal(t, []models.Allergen{gluten}, NewCatalog(client, nil).Allergens(context.Background()))
}

func TestCatalog_RefreshDropsWithdrawnItems(t *testing.T) {
	ctx := context.Background()
	client := &fakeCatalogClient{
		restaurants: func(call int) ([]models.Restaurant, error) {
			if call == 1 {
				return []models.Restaurant{{ID: 1, Name: "Bastille"}, {ID: 2, Name: "République"}}, nil
			}
			return []models.Restaurant{{ID: 1, Name: "Bastille"}}, nil
		},
		menus: map[int64][]models.Menu{
			1: {{ID: 10, MenuItems: []models.MenuItem{item(100, "Salade", 1200), item(101, "Burger", 1500)}}},
			2: {{ID: 20, MenuItems: []models.MenuItem{item(200, "Curry", 1300)}}},
		},
	}
	cat := NewCatalog(client, nil)
	require.NoError(t, cat.LoadAll(ctx))
	assert.True(t, cat.Complete())

	client.mu.Lock()
	client.menus[1] = []models.Menu{{ID: 10, MenuItems: []models.MenuItem{item(100, "Salade", 1200)}}}
	client.mu.Unlock()
	_, err := cat.MenuItems(ctx, models.Restaurant{ID: 1, Name: "Bastille"}, true)
	require.NoError(t, err)

	_, ok := cat.Item(101)
	assert.False(t, ok, "item removed from the menu")
	_, ok = cat.Item(100)
	assert.True(t, ok)

	_, err = cat.Restaurants(ctx, true)
	require.NoError(t, err)
	_, ok = cat.Item(200)
	assert.False(t, ok, "restaurant removed from the list")
	assert.Len(t, cat.AllItems(), 1)
}

func TestCatalog_Complete(t *testing.T) {
	ctx := context.Background()
	client := &fakeCatalogClient{
		restaurants: func(int) ([]models.Restaurant, error) {
			return []models.Restaurant{{ID: 1, Name: "Bastille"}, {ID: 2, Name: "République"}}, nil
		},
		menus: map[int64][]models.Menu{
			1: {{ID: 10, MenuItems: []models.MenuItem{item(100, "Salade", 1200)}}},
			2: {{ID: 20, MenuItems: []models.MenuItem{item(200, "Curry", 1300)}}},
		},
	}
	cat := NewCatalog(client, nil)
	assert.False(t, cat.Complete())

	_, err := cat.MenuItems(ctx, models.Restaurant{ID: 1, Name: "Bastille"}, false)
	require.NoError(t, err)
	_, err = cat.Restaurants(ctx, false)
	require.NoError(t, err)
	assert.False(t, cat.Complete(), "menus of restaurant 2 are missing")

	require.NoError(t, cat.LoadAll(ctx))
	assert.True(t, cat.Complete())
}
