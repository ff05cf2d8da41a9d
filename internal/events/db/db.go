package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-meetups/internal/metrics"
	"ms-meetups/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateEvent assigns a fresh edit token, inserts the row inside a
// transaction and returns the persisted record with its new id. The token is
// the only credential ever issued for mutating the event.
func (d *DB) CreateEvent(ctx context.Context, event models.Event) (*models.Event, error) {
	defer metrics.ObserveDBQuery("create", time.Now())
	event.EditToken = uuid.NewString()

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&event).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents returns events ordered by date ascending. When search is set,
// only rows whose title, description or location contains it
// (case-insensitive) are returned. Offset/limit apply after filter and order.
func (d *DB) ListEvents(ctx context.Context, skip, limit int, search string) ([]models.Event, error) {
	defer metrics.ObserveDBQuery("list", time.Now())
	var events []models.Event

	q := d.Bun.NewSelect().Model(&events)
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(title) LIKE ?", pattern).
				WhereOr("LOWER(description) LIKE ?", pattern).
				WhereOr("LOWER(location) LIKE ?", pattern)
		})
	}

	err := q.Order("date ASC").Offset(skip).Limit(limit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// GetEventByID returns (nil, nil) when no row matches. Absence is a domain
// condition, not a storage error; the service layer turns it into not-found.
func (d *DB) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	defer metrics.ObserveDBQuery("get_by_id", time.Now())
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetEventByToken returns (nil, nil) when no row carries the token.
func (d *DB) GetEventByToken(ctx context.Context, editToken string) (*models.Event, error) {
	defer metrics.ObserveDBQuery("get_by_token", time.Now())
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("edit_token = ?", editToken).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent rewrites the four mutable columns inside a transaction, then
// re-reads the committed row. Id and edit_token are never touched.
func (d *DB) UpdateEvent(ctx context.Context, event models.Event) (*models.Event, error) {
	defer metrics.ObserveDBQuery("update", time.Now())
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model(&event).
			Column("title", "description", "date", "location").
			Where("id = ?", event.ID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	var fresh models.Event
	err = d.Bun.NewSelect().
		Model(&fresh).
		Where("id = ?", event.ID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &fresh, nil
}
