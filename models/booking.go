package models

const (
	EventStatusActive    = "ACTIVE"
	EventStatusCancelled = "CANCELLED"

	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)

// Event is a restaurant event customers can book seats for.
// Dates stay as the backend's local date-time strings.
type Event struct {
	ID             int64  `json:"id"`
	RestaurantID   int64  `json:"restaurantId"`
	Title          string `json:"title"`
	Type           string `json:"type,omitempty"`
	DateStart      string `json:"dateStart"`
	DateEnd        string `json:"dateEnd,omitempty"`
	Capacity       *int   `json:"capacity,omitempty"`
	Description    string `json:"description,omitempty"`
	Status         string `json:"status"`
	AvailableSpots *int   `json:"availableSpots,omitempty"`
}

type Booking struct {
	ID            int64  `json:"id"`
	EventID       int64  `json:"eventId"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	Pax           int    `json:"pax"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt"`
}

type CreateBookingInput struct {
	EventID       int64  `json:"eventId"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	Pax           int    `json:"pax"`
}

// PersonalBooking is the customer's own copy of a booking, with the event
// denormalized when it was known at booking time.
type PersonalBooking struct {
	Booking
	Event *Event `json:"event,omitempty"`
}
