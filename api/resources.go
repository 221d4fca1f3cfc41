package api

import (
	"context"
	"fmt"
	"net/url"

	"vegn-telegram/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
	Role        string `json:"role"`
	FullName    string `json:"fullName"`
}

type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// Login authenticates and, on success, stores the access token on the client's token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return AuthResponse{}, err
	}
	if c.token != nil {
		if err := c.token.Set(resp.AccessToken); err != nil {
			return AuthResponse{}, err
		}
	}
	return resp, nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.get(ctx, "/auth/me", nil, &u)
	return u, err
}

func (c *Client) Restaurants(ctx context.Context) ([]models.Restaurant, error) {
	var out []models.Restaurant
	err := c.get(ctx, "/restaurants", nil, &out)
	return out, err
}

// ActiveMenus returns the menus a restaurant serves today.
func (c *Client) ActiveMenus(ctx context.Context, restaurantID int64) ([]models.Menu, error) {
	var out []models.Menu
	err := c.get(ctx, fmt.Sprintf("/menus/restaurant/%d/active", restaurantID), nil, &out)
	return out, err
}

func (c *Client) MenuItem(ctx context.Context, id int64) (models.MenuItem, error) {
	var out models.MenuItem
	err := c.get(ctx, fmt.Sprintf("/menu-items/%d", id), nil, &out)
	return out, err
}

// SearchMenuItems matches item names on the backend.
func (c *Client) SearchMenuItems(ctx context.Context, name string) ([]models.MenuItem, error) {
	var out []models.MenuItem
	err := c.get(ctx, "/menu-items/search", url.Values{"name": {name}}, &out)
	return out, err
}

func (c *Client) Allergens(ctx context.Context) ([]models.Allergen, error) {
	var out []models.Allergen
	err := c.get(ctx, "/allergens", nil, &out)
	return out, err
}

func (c *Client) Events(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	err := c.get(ctx, "/events", nil, &out)
	return out, err
}

func (c *Client) Event(ctx context.Context, id int64) (models.Event, error) {
	var out models.Event
	err := c.get(ctx, fmt.Sprintf("/events/%d", id), nil, &out)
	return out, err
}

func (c *Client) CreateBooking(ctx context.Context, in models.CreateBookingInput) (models.Booking, error) {
	var out models.Booking
	err := c.post(ctx, "/bookings", in, &out)
	return out, err
}

func (c *Client) Booking(ctx context.Context, id int64) (models.Booking, error) {
	var out models.Booking
	err := c.get(ctx, fmt.Sprintf("/bookings/%d", id), nil, &out)
	return out, err
}
