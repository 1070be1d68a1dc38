package model

import "time"

type Business struct {
	ID       string
	Name     string
	Timezone string
}

// Location resolves the business timezone; an empty name means UTC.
func (b Business) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(b.Timezone)
}

// BusinessHours is the recurring schedule for one weekday (0 = Sunday).
// OpenTime and CloseTime are nil when the row is closed.
type BusinessHours struct {
	BusinessID string
	DayOfWeek  int
	IsClosed   bool
	OpenTime   *Clock
	CloseTime  *Clock
}

// SpecialHours overrides BusinessHours entirely for one date.
type SpecialHours struct {
	BusinessID string
	Date       time.Time
	IsClosed   bool
	OpenTime   *Clock
	CloseTime  *Clock
	Reason     string
}

type Employee struct {
	ID         string
	BusinessID string
	Name       string
	IsActive   bool
}

type Service struct {
	ID              string `json:"id"`
	BusinessID      string `json:"business_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
	IsActive        bool   `json:"is_active"`
}

type Client struct {
	ID    string
	Name  string
	Email string
	Phone string
}

func (c Client) HasContact() bool {
	return c.Email != "" || c.Phone != ""
}
