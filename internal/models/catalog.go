package models

// Source is a donation source (food bank, council, ...). Reference data.
type Source struct {
	Name string `json:"name"`
}

// FoodType describes a loggable category of food.
// RequiresTemp marks types that must carry pickup/dropoff temperatures.
type FoodType struct {
	Name         string `json:"name"`
	RequiresTemp bool   `json:"requires_temp"`
	SortOrder    int    `json:"sort_order"`
}
