package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"vegn-telegram/models"
	"vegn-telegram/storage"
)

const allergenPrefsKeyPrefix = "allergenPreferences"

func AllergenPreferencesKey(userID int64) string {
	return fmt.Sprintf("%s:%d", allergenPrefsKeyPrefix, userID)
}

// AllergenPreferences maps allergen ids to "customer is allergic". Ids never
// toggled are absent and count as false.
//
// Every change replaces the map, so a map handed out by Preferences or to a
// subscriber is never written to afterwards.
type AllergenPreferences struct {
	prefs *storage.Value[map[int64]bool]

	subMu  sync.Mutex
	subs   map[int]func(map[int64]bool)
	nextID int
}

func NewAllergenPreferences(ctx context.Context, kv storage.KV, userID int64, logger *zap.Logger) *AllergenPreferences {
	return &AllergenPreferences{
		prefs: storage.NewValue(ctx, kv, AllergenPreferencesKey(userID), func() map[int64]bool { return map[int64]bool{} }, logger),
		subs:  make(map[int]func(map[int64]bool)),
	}
}

// Preferences returns the current map. Callers must not modify it.
func (a *AllergenPreferences) Preferences() map[int64]bool {
	var out map[int64]bool
	a.prefs.View(func(m map[int64]bool) { out = m })
	return out
}

// Set records whether the customer is allergic to allergenID.
func (a *AllergenPreferences) Set(ctx context.Context, allergenID int64, allergic bool) {
	a.update(ctx, func(m map[int64]bool) (map[int64]bool, bool) {
		if cur, ok := m[allergenID]; ok && cur == allergic {
			return m, false
		}
		next := clonePrefs(m)
		next[allergenID] = allergic
		return next, true
	})
}

// Toggle flips the flag for allergenID and returns the new value.
func (a *AllergenPreferences) Toggle(ctx context.Context, allergenID int64) bool {
	var now bool
	a.update(ctx, func(m map[int64]bool) (map[int64]bool, bool) {
		next := clonePrefs(m)
		now = !m[allergenID]
		next[allergenID] = now
		return next, true
	})
	return now
}

// Clear forgets every declared allergy.
func (a *AllergenPreferences) Clear(ctx context.Context) {
	a.update(ctx, func(map[int64]bool) (map[int64]bool, bool) {
		return map[int64]bool{}, true
	})
}

// Selected returns the ids marked allergic, in ascending order.
func (a *AllergenPreferences) Selected() []int64 {
	var ids []int64
	for id, allergic := range a.Preferences() {
		if allergic {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (a *AllergenPreferences) Count() int {
	return len(a.Selected())
}

func (a *AllergenPreferences) IsAllergic(allergenID int64) bool {
	return a.Preferences()[allergenID]
}

// Dangerous returns the allergens of item the customer declared.
func (a *AllergenPreferences) Dangerous(item models.MenuItem) []models.Allergen {
	return models.DangerousAllergens(item, a.Preferences())
}

// Subscribe registers fn to be called with the new map after each change.
// Calls happen synchronously on the goroutine that made the change. The
// returned func removes the subscription.
func (a *AllergenPreferences) Subscribe(fn func(map[int64]bool)) (unsubscribe func()) {
	a.subMu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	a.subMu.Unlock()
	return func() {
		a.subMu.Lock()
		delete(a.subs, id)
		a.subMu.Unlock()
	}
}

func (a *AllergenPreferences) update(ctx context.Context, fn func(map[int64]bool) (map[int64]bool, bool)) {
	var (
		next    map[int64]bool
		changed bool
	)
	a.prefs.Mutate(ctx, func(m map[int64]bool) (map[int64]bool, bool) {
		next, changed = fn(m)
		return next, changed
	})
	if !changed {
		return
	}
	a.subMu.Lock()
	keys := slices.Sorted(maps.Keys(a.subs))
	fns := make([]func(map[int64]bool), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, a.subs[k])
	}
	a.subMu.Unlock()
	for _, f := range fns {
		f(next)
	}
}

func clonePrefs(m map[int64]bool) map[int64]bool {
	next := make(map[int64]bool, len(m)+1)
	maps.Copy(next, m)
	return next
}
