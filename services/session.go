package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"vegn-telegram/api"
	"vegn-telegram/storage"
)

const (
	languageKeyPrefix = "vegn-bio-language"
	DefaultLanguage   = "fr"
)

func LanguageKey(userID int64) string {
	return fmt.Sprintf("%s:%d", languageKeyPrefix, userID)
}

// Session is everything the bot keeps for one customer. It is built once by
// Sessions.Get, which is the only place customer state is read back from storage.
type Session struct {
	UserID    int64
	Cart      *Cart
	Favorites *Favorites
	Bookings  *PersonalBookings
	Allergens *AllergenPreferences
	Token     *api.Token

	language   *storage.Value[string]
	popularity *Popularity

	mu     sync.Mutex
	filter Filter
}

func newSession(ctx context.Context, kv storage.KV, userID int64, popularity *Popularity, logger *zap.Logger) *Session {
	s := &Session{
		UserID:     userID,
		Cart:       NewCart(ctx, kv, userID, logger.Named("cart")),
		Favorites:  NewFavorites(ctx, kv, userID, logger.Named("favorites")),
		Bookings:   NewPersonalBookings(ctx, kv, userID, logger.Named("bookings")),
		Allergens:  NewAllergenPreferences(ctx, kv, userID, logger.Named("allergens")),
		Token:      &api.Token{},
		language:   storage.NewValue(ctx, kv, LanguageKey(userID), func() string { return DefaultLanguage }, logger.Named("language")),
		popularity: popularity,
		filter:     DefaultFilter(),
	}
	if popularity != nil {
		s.Cart.onAdd = popularity.Record
	}
	s.filter.Allergens = s.Allergens.Preferences()
	s.Allergens.Subscribe(func(prefs map[int64]bool) {
		s.mu.Lock()
		s.filter.Allergens = prefs
		s.mu.Unlock()
	})
	return s
}

// Filter returns the current filter with the customer's allergen map and the
// latest popularity scores filled in.
func (s *Session) Filter() Filter {
	s.mu.Lock()
	f := s.filter.Clone()
	s.mu.Unlock()
	if s.popularity != nil {
		f.Popularity = s.popularity.Scores()
	}
	return f
}

// UpdateFilter applies fn to the filter. The allergen map is owned by the
// allergen preferences and is restored after fn runs.
func (s *Session) UpdateFilter(fn func(*Filter)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allergens := s.filter.Allergens
	fn(&s.filter)
	s.filter.Allergens = allergens
	s.filter.Popularity = nil
}

// ResetFilter restores the default filter, keeping the allergen preferences.
func (s *Session) ResetFilter() {
	s.UpdateFilter(func(f *Filter) { *f = DefaultFilter() })
}

func (s *Session) Language() string {
	var lang string
	s.language.View(func(v string) { lang = v })
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

func (s *Session) SetLanguage(ctx context.Context, lang string) {
	s.language.Mutate(ctx, func(cur string) (string, bool) {
		return lang, cur != lang
	})
}

// Sessions creates customer sessions on first use and keeps them for the life of the process.
type Sessions struct {
	kv         storage.KV
	popularity *Popularity
	logger     *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessions(kv storage.KV, popularity *Popularity, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		kv:         kv,
		popularity: popularity,
		logger:     logger,
		sessions:   make(map[int64]*Session),
	}
}

// Get returns the session of userID, loading it from storage the first time.
func (s *Sessions) Get(ctx context.Context, userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	sess := newSession(ctx, s.kv, userID, s.popularity, s.logger.With(zap.Int64("user_id", userID)))
	s.sessions[userID] = sess
	return sess
}
