package models

// Allergen is global reference data fetched once from the backend.
type Allergen struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Label string `json:"label"`
}

// MenuItem is a dish as served by the backend. Prices are in cents.
type MenuItem struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	PriceCents  int64      `json:"priceCents"`
	IsVegan     bool       `json:"isVegan"`
	Allergens   []Allergen `json:"allergens"`
}

// Menu groups the items a restaurant serves over a date range.
type Menu struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	ActiveFrom string     `json:"activeFrom,omitempty"`
	ActiveTo   string     `json:"activeTo,omitempty"`
	MenuItems  []MenuItem `json:"menuItems"`
}

type Restaurant struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Code                string `json:"code"`
	Address             string `json:"address"`
	City                string `json:"city"`
	Phone               string `json:"phone"`
	Email               string `json:"email"`
	MondayThursdayHours string `json:"mondayThursdayHours"`
	FridayHours         string `json:"fridayHours"`
	SaturdayHours       string `json:"saturdayHours"`
	SundayHours         string `json:"sundayHours"`
}

// RestaurantRef is the restaurant identity copied into cart lines and favorites.
type RestaurantRef struct {
	RestaurantID   int64  `json:"restaurantId"`
	RestaurantName string `json:"restaurantName"`
}

// Ref returns the denormalized reference for r.
func (r Restaurant) Ref() RestaurantRef {
	return RestaurantRef{RestaurantID: r.ID, RestaurantName: r.Name}
}

// EUAllergens is the regulated list of 14 allergens, used when the backend cannot serve its own.
var EUAllergens = []Allergen{
	{ID: 1, Code: "GLUTEN", Label: "Céréales contenant du gluten"},
	{ID: 2, Code: "CRUST", Label: "Crustacés"},
	{ID: 3, Code: "EGG", Label: "Œufs"},
	{ID: 4, Code: "FISH", Label: "Poissons"},
	{ID: 5, Code: "PEANUT", Label: "Arachides"},
	{ID: 6, Code: "SOY", Label: "Soja"},
	{ID: 7, Code: "MILK", Label: "Lait"},
	{ID: 8, Code: "NUTS", Label: "Fruits à coque"},
	{ID: 9, Code: "CELERY", Label: "Céleri"},
	{ID: 10, Code: "MUSTARD", Label: "Moutarde"},
	{ID: 11, Code: "SESAME", Label: "Sésame"},
	{ID: 12, Code: "SULPHITES", Label: "Sulfites"},
	{ID: 13, Code: "LUPIN", Label: "Lupin"},
	{ID: 14, Code: "MOLLUSCS", Label: "Mollusques"},
}
