package models

import "time"

// LedgerEntry is a single logged donation.
type LedgerEntry struct {
	ID           int64     `json:"id"`
	Source       string    `json:"source"`
	Type         string    `json:"type"`
	WeightLb     float64   `json:"weight_lb"`
	TempPickupF  *float64  `json:"temp_pickup_f,omitempty"`  // °F, only for temperature-controlled types
	TempDropoffF *float64  `json:"temp_dropoff_f,omitempty"` // °F
	CreatedAt    time.Time `json:"created_at"`
}
