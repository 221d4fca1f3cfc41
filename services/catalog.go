package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"vegn-telegram/models"
)

// CatalogClient is the part of the backend the catalog reads from.
type CatalogClient interface {
	Restaurants(ctx context.Context) ([]models.Restaurant, error)
	ActiveMenus(ctx context.Context, restaurantID int64) ([]models.Menu, error)
	Allergens(ctx context.Context) ([]models.Allergen, error)
}

const menuLoadConcurrency = 4

// CatalogEntry is a menu item together with the restaurant that serves it.
type CatalogEntry struct {
	Item       models.MenuItem
	Restaurant models.RestaurantRef
}

// Catalog caches the reference data the bot shows: restaurants, the items of
// their active menus and the allergen list.
//
// Identical concurrent fetches share one backend call. Every fetch is numbered
// per resource; a response is only applied if no later-issued fetch has been
// applied already, so a slow stale response cannot overwrite a fresh one.
type Catalog struct {
	client CatalogClient
	logger *zap.Logger
	group  singleflight.Group

	mu          sync.RWMutex
	issued      map[string]uint64
	applied     map[string]uint64
	restaurants []models.Restaurant
	menus       map[int64][]models.MenuItem
	menuRefs    map[int64]models.RestaurantRef
	items       map[int64]CatalogEntry
	allergens   []models.Allergen
}

func NewCatalog(client CatalogClient, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		client:   client,
		logger:   logger,
		issued:   make(map[string]uint64),
		applied:  make(map[string]uint64),
		menus:    make(map[int64][]models.MenuItem),
		menuRefs: make(map[int64]models.RestaurantRef),
		items:    make(map[int64]CatalogEntry),
	}
}

func (c *Catalog) nextSeq(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued[key]++
	return c.issued[key]
}

// tryApply runs apply under the write lock when seq is newer than the last
// applied fetch of key. It reports whether it did.
func (c *Catalog) tryApply(key string, seq uint64, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.applied[key] {
		return false
	}
	c.applied[key] = seq
	apply()
	return true
}

// fetch loads one resource. With force set, an in-flight call for key is not
// joined and a new request is issued.
func fetch[T, R any](ctx context.Context, c *Catalog, key string, force bool, load func(context.Context) (T, error), apply func(T), current func() R) (R, error) {
	if force {
		c.group.Forget(key)
	}
	_, err, _ := c.group.Do(key, func() (any, error) {
		seq := c.nextSeq(key)
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if !c.tryApply(key, seq, func() { apply(fresh) }) {
			c.logger.Debug("dropping stale response", zap.String("resource", key), zap.Uint64("seq", seq))
		}
		return nil, nil
	})
	if err != nil {
		var zero R
		return zero, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return current(), nil
}

// Restaurants returns the restaurant list, fetching it when force is set or nothing is cached.
func (c *Catalog) Restaurants(ctx context.Context, force bool) ([]models.Restaurant, error) {
	if !force {
		c.mu.RLock()
		cached := c.restaurants
		c.mu.RUnlock()
		if cached != nil {
			return slices.Clone(cached), nil
		}
	}
	out, err := fetch(ctx, c, "restaurants", force,
		c.client.Restaurants,
		func(rs []models.Restaurant) {
			if rs == nil {
				rs = []models.Restaurant{}
			}
			c.restaurants = rs
			c.pruneMenus()
		},
		func() []models.Restaurant { return slices.Clone(c.restaurants) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load restaurants: %w", err)
	}
	return out, nil
}

// Restaurant returns a cached restaurant by id.
func (c *Catalog) Restaurant(id int64) (models.Restaurant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.restaurants {
		if r.ID == id {
			return r, true
		}
	}
	return models.Restaurant{}, false
}

// MenuItems returns the items of every active menu of a restaurant, each item
// once, in menu order.
func (c *Catalog) MenuItems(ctx context.Context, restaurant models.Restaurant, force bool) ([]models.MenuItem, error) {
	if !force {
		c.mu.RLock()
		cached, ok := c.menus[restaurant.ID]
		c.mu.RUnlock()
		if ok {
			return slices.Clone(cached), nil
		}
	}
	key := fmt.Sprintf("menus:%d", restaurant.ID)
	ref := restaurant.Ref()
	out, err := fetch(ctx, c, key, force,
		func(ctx context.Context) ([]models.Menu, error) {
			return c.client.ActiveMenus(ctx, restaurant.ID)
		},
		func(menus []models.Menu) {
			items := flattenMenus(menus)
			c.menus[restaurant.ID] = items
			c.menuRefs[restaurant.ID] = ref
			c.reindex()
		},
		func() []models.MenuItem { return slices.Clone(c.menus[restaurant.ID]) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load menus of restaurant %d: %w", restaurant.ID, err)
	}
	return out, nil
}

func flattenMenus(menus []models.Menu) []models.MenuItem {
	seen := make(map[int64]bool)
	items := []models.MenuItem{}
	for _, m := range menus {
		for _, it := range m.MenuItems {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			items = append(items, it)
		}
	}
	return items
}

// pruneMenus drops the menus of restaurants missing from the current list
// and refreshes the restaurant names copied into items. c.mu must be held.
func (c *Catalog) pruneMenus() {
	listed := make(map[int64]models.Restaurant, len(c.restaurants))
	for _, r := range c.restaurants {
		listed[r.ID] = r
	}
	for id := range c.menus {
		r, ok := listed[id]
		if !ok {
			delete(c.menus, id)
			delete(c.menuRefs, id)
			continue
		}
		c.menuRefs[id] = r.Ref()
	}
	c.reindex()
}

// reindex rebuilds the item index from the cached menus, so items withdrawn by
// a refresh cannot be looked up any more. c.mu must be held.
func (c *Catalog) reindex() {
	items := make(map[int64]CatalogEntry, len(c.items))
	for _, rid := range slices.Sorted(maps.Keys(c.menus)) {
		ref := c.menuRefs[rid]
		for _, it := range c.menus[rid] {
			items[it.ID] = CatalogEntry{Item: it, Restaurant: ref}
		}
	}
	c.items = items
}

// Complete reports whether the restaurant list and the menus of every listed
// restaurant are cached.
func (c *Catalog) Complete() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.restaurants == nil {
		return false
	}
	for _, r := range c.restaurants {
		if _, ok := c.menus[r.ID]; !ok {
			return false
		}
	}
	return true
}

// Item looks up a menu item loaded through MenuItems.
func (c *Catalog) Item(id int64) (CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[id]
	return e, ok
}

// AllItems returns every cached item across restaurants, ordered by restaurant then menu.
func (c *Catalog) AllItems() []CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []CatalogEntry
	for _, r := range c.restaurants {
		for _, it := range c.menus[r.ID] {
			out = append(out, CatalogEntry{Item: it, Restaurant: r.Ref()})
		}
	}
	return out
}

// LoadAll refreshes restaurants and then the menus of all of them in parallel.
func (c *Catalog) LoadAll(ctx context.Context) error {
	restaurants, err := c.Restaurants(ctx, true)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(menuLoadConcurrency)
	for _, r := range restaurants {
		g.Go(func() error {
			_, err := c.MenuItems(gctx, r, true)
			return err
		})
	}
	return g.Wait()
}

// Allergens returns the allergen reference list. When the backend cannot serve
// it and nothing was loaded before, the 14 regulated EU allergens are used.
func (c *Catalog) Allergens(ctx context.Context) []models.Allergen {
	c.mu.RLock()
	cached := c.allergens
	c.mu.RUnlock()
	if cached != nil {
		return slices.Clone(cached)
	}
	out, err := fetch(ctx, c, "allergens", false,
		c.client.Allergens,
		func(as []models.Allergen) {
			if len(as) > 0 {
				c.allergens = as
			}
		},
		func() []models.Allergen { return slices.Clone(c.allergens) },
	)
	if err != nil {
		c.logger.Warn("failed to load allergens, using EU list", zap.Error(err))
	}
	if len(out) == 0 {
		return slices.Clone(models.EUAllergens)
	}
	return out
}
