package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vegn-telegram/models"
	"vegn-telegram/storage"
)

const bookingsKeyPrefix = "vegn-bio-personal-bookings"

func PersonalBookingsKey(userID int64) string {
	return fmt.Sprintf("%s:%d", bookingsKeyPrefix, userID)
}

// BookingSource fetches the current state of a booking from the backend.
type BookingSource interface {
	Booking(ctx context.Context, id int64) (models.Booking, error)
}

// BookingUpdate is a partial booking. Nil fields are left untouched.
type BookingUpdate struct {
	Status        *string
	Pax           *int
	CustomerPhone *string
}

func (u BookingUpdate) apply(b *models.Booking) {
	if u.Status != nil {
		b.Status = *u.Status
	}
	if u.Pax != nil {
		b.Pax = *u.Pax
	}
	if u.CustomerPhone != nil {
		b.CustomerPhone = *u.CustomerPhone
	}
}

// PersonalBookings is the customer's own list of reservations.
type PersonalBookings struct {
	bookings *storage.Collection[models.PersonalBooking]
	logger   *zap.Logger
}

func NewPersonalBookings(ctx context.Context, kv storage.KV, userID int64, logger *zap.Logger) *PersonalBookings {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonalBookings{
		bookings: storage.NewCollection(ctx, kv, PersonalBookingsKey(userID), func(b models.PersonalBooking) int64 { return b.ID }, logger),
		logger:   logger,
	}
}

// Add appends booking unless one with the same id is already stored.
func (p *PersonalBookings) Add(ctx context.Context, booking models.PersonalBooking) bool {
	return p.bookings.Append(ctx, booking)
}

// Update merges patch into the booking with the given id. Unknown ids are ignored.
func (p *PersonalBookings) Update(ctx context.Context, id int64, patch BookingUpdate) bool {
	return p.bookings.Update(ctx, id, func(b *models.PersonalBooking) {
		patch.apply(&b.Booking)
	})
}

func (p *PersonalBookings) Remove(ctx context.Context, id int64) {
	p.bookings.Remove(ctx, id)
}

func (p *PersonalBookings) Count() int {
	return p.bookings.Len()
}

func (p *PersonalBookings) Items() []models.PersonalBooking {
	return p.bookings.Items()
}

func (p *PersonalBookings) Find(id int64) (models.PersonalBooking, bool) {
	return p.bookings.Find(id)
}

// Refresh re-reads every stored booking from src and merges the fields the
// backend may change. Bookings that fail to load keep their local copy; the
// failures are joined into the returned error.
func (p *PersonalBookings) Refresh(ctx context.Context, src BookingSource) error {
	var errs []error
	for _, local := range p.bookings.Items() {
		remote, err := src.Booking(ctx, local.ID)
		if err != nil {
			p.logger.Warn("failed to refresh booking", zap.Int64("booking_id", local.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("booking %d: %w", local.ID, err))
			continue
		}
		p.Update(ctx, local.ID, BookingUpdate{
			Status:        &remote.Status,
			Pax:           &remote.Pax,
			CustomerPhone: &remote.CustomerPhone,
		})
	}
	return errors.Join(errs...)
}
