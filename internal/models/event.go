package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description *string   `bun:"description" json:"description"`
	Date        time.Time `bun:"date,notnull" json:"date"`
	Location    string    `bun:"location,notnull" json:"location"`
	EditToken   string    `bun:"edit_token,notnull,unique" json:"edit_token"`

	// Not a column: attached by the service layer to the response of the
	// create/update that supplied it. Every read from the store leaves it empty.
	Technologies []string `bun:"-" json:"technologies"`
}

// EventRequest is the inbound shape shared by create and update. Date arrives
// as an ISO-8601-like string and is parsed at the service boundary.
type EventRequest struct {
	Title        string   `json:"title" validate:"required"`
	Description  *string  `json:"description"`
	Date         string   `json:"date" validate:"required"`
	Location     string   `json:"location" validate:"required"`
	Technologies []string `json:"technologies"`
}
