package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vegn-telegram/storage"
)

func TestSessions_GetCachesPerUser(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessions(storage.NewMemory(), nil, nil)

	a := sessions.Get(ctx, 1)
	assert.Same(t, a, sessions.Get(ctx, 1))
	assert.NotSame(t, a, sessions.Get(ctx, 2))
}

func TestSession_RehydratesFromStorage(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	first := NewSessions(kv, nil, nil).Get(ctx, 1)
	first.Cart.Add(ctx, item(1, "Salade", 1200), bastille)
	first.Favorites.Add(ctx, item(2, "Burger", 1500), bastille)
	first.Allergens.Set(ctx, 5, true)
	first.SetLanguage(ctx, "en")

	// a new process sees the same state
	second := NewSessions(kv, nil, nil).Get(ctx, 1)
	assert.Equal(t, 1, second.Cart.TotalItems())
	assert.True(t, second.Favorites.IsFavorite(2))
	assert.True(t, second.Allergens.IsAllergic(5))
	assert.Equal(t, "en", second.Language())
	assert.Equal(t, map[int64]bool{5: true}, second.Filter().Allergens)
}

func TestSession_FilterFollowsAllergenPreferences(t *testing.T) {
	ctx := context.Background()
	sess := NewSessions(storage.NewMemory(), nil, nil).Get(ctx, 1)

	assert.Empty(t, sess.Filter().Allergens)
	sess.Allergens.Toggle(ctx, 5)
	assert.Equal(t, map[int64]bool{5: true}, sess.Filter().Allergens)

	sess.UpdateFilter(func(f *Filter) {
		f.VeganOnly = true
		f.Allergens = nil
	})
	f := sess.Filter()
	assert.True(t, f.VeganOnly)
	assert.Equal(t, map[int64]bool{5: true}, f.Allergens, "the filter cannot drop allergen preferences")

	sess.ResetFilter()
	f = sess.Filter()
	assert.False(t, f.VeganOnly)
	assert.Equal(t, SortByName, f.SortBy)
	assert.Equal(t, map[int64]bool{5: true}, f.Allergens)
}

func TestSession_DefaultLanguage(t *testing.T) {
	sess := NewSessions(storage.NewMemory(), nil, nil).Get(context.Background(), 1)
	assert.Equal(t, DefaultLanguage, sess.Language())
	assert.False(t, sess.Token.LoggedIn())
}

func TestPopularity_CountsCartAdds(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	pop := NewPopularity(ctx, kv, nil)
	sessions := NewSessions(kv, pop, nil)

	sessions.Get(ctx, 1).Cart.Add(ctx, item(3, "Éclair", 450), bastille)
	sessions.Get(ctx, 2).Cart.Add(ctx, item(3, "Éclair", 450), bastille)
	sessions.Get(ctx, 2).Cart.Add(ctx, item(4, "Dahl", 1100), bastille)

	assert.Equal(t, int64(2), pop.Score(3))
	assert.Equal(t, int64(0), pop.Score(99))

	f := sessions.Get(ctx, 1).Filter()
	require.NotNil(t, f.Popularity)
	assert.Equal(t, int64(2), f.Popularity[3])

	reloaded := NewPopularity(ctx, kv, nil)
	assert.Equal(t, map[int64]int64{3: 2, 4: 1}, reloaded.Scores())
}
