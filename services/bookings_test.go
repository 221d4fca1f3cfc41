package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vegn-telegram/models"
	"vegn-telegram/storage"
)

type fakeBookingSource map[int64]models.Booking

func (f fakeBookingSource) Booking(_ context.Context, id int64) (models.Booking, error) {
	b, ok := f[id]
	if !ok {
		return models.Booking{}, errors.New("not found")
	}
	return b, nil
}

func booking(id int64, status string) models.PersonalBooking {
	return models.PersonalBooking{
		Booking: models.Booking{ID: id, EventID: 10, CustomerName: "Camille", Pax: 2, Status: status},
		Event:   &models.Event{ID: 10, Title: "Atelier cuisine", Status: models.EventStatusActive},
	}
}

func TestPersonalBookings_AddDedupes(t *testing.T) {
	ctx := context.Background()
	pb := NewPersonalBookings(ctx, storage.NewMemory(), 1, nil)

	assert.True(t, pb.Add(ctx, booking(1, models.BookingStatusPending)))
	assert.False(t, pb.Add(ctx, booking(1, models.BookingStatusConfirmed)))
	assert.Equal(t, 1, pb.Count())

	got, ok := pb.Find(1)
	require.True(t, ok)
	assert.Equal(t, models.BookingStatusPending, got.Status)
}

func TestPersonalBookings_Update(t *testing.T) {
	ctx := context.Background()
	pb := NewPersonalBookings(ctx, storage.NewMemory(), 1, nil)
	pb.Add(ctx, booking(1, models.BookingStatusPending))

	status := models.BookingStatusConfirmed
	assert.True(t, pb.Update(ctx, 1, BookingUpdate{Status: &status}))
	assert.False(t, pb.Update(ctx, 2, BookingUpdate{Status: &status}))

	got, _ := pb.Find(1)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)
	assert.Equal(t, 2, got.Pax, "fields without a patch value stay")
	require.NotNil(t, got.Event)
	assert.Equal(t, "Atelier cuisine", got.Event.Title)
}

func TestPersonalBookings_RemoveAndReload(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	pb := NewPersonalBookings(ctx, kv, 1, nil)
	pb.Add(ctx, booking(1, models.BookingStatusPending))
	pb.Add(ctx, booking(2, models.BookingStatusPending))
	pb.Remove(ctx, 1)
	pb.Remove(ctx, 1)

	reloaded := NewPersonalBookings(ctx, kv, 1, nil)
	require.Equal(t, 1, reloaded.Count())
	assert.Equal(t, int64(2), reloaded.Items()[0].ID)
	assert.NotNil(t, reloaded.Items()[0].Event)
}

func TestPersonalBookings_Refresh(t *testing.T) {
	ctx := context.Background()
	pb := NewPersonalBookings(ctx, storage.NewMemory(), 1, nil)
	pb.Add(ctx, booking(1, models.BookingStatusPending))
	pb.Add(ctx, booking(2, models.BookingStatusPending))

	src := fakeBookingSource{
		1: {ID: 1, EventID: 10, Pax: 3, Status: models.BookingStatusConfirmed},
	}
	err := pb.Refresh(ctx, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "booking 2")

	got, _ := pb.Find(1)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)
	assert.Equal(t, 3, got.Pax)

	kept, _ := pb.Find(2)
	assert.Equal(t, models.BookingStatusPending, kept.Status, "failed refresh keeps the local copy")
}
