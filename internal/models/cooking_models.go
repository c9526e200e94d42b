package models

import "time"

// CookingEvent records one committed cooking transaction.
type CookingEvent struct {
	ID       int64     `json:"cooking_event_id" db:"id"`
	UserID   int64     `json:"actor_id" db:"user_id"`
	MenuID   int64     `json:"menu_id" db:"menu_id"`
	Quantity int       `json:"quantity" db:"quantity"`
	CookedAt time.Time `json:"timestamp" db:"cooked_at"`
}

// CookingHistoryEntry is a cooking event joined with display names.
type CookingHistoryEntry struct {
	ID       int64     `json:"log_id"`
	Quantity int       `json:"quantity"`
	CookedAt time.Time `json:"cooked_at"`
	MenuName string    `json:"menu_name"`
	UserName *string   `json:"user_name,omitempty"`
}

// CookingHistoryFilters defines the available filters for the history listing.
type CookingHistoryFilters struct {
	UserID    *int64
	StartDate *time.Time
	EndDate   *time.Time
}
