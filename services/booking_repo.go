package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"ride-booking/internal/status"
	"ride-booking/models"
)

// BookingRepo is the durable store for bookings. Records are never deleted,
// only status-transitioned, so the table doubles as an audit trail.
type BookingRepo interface {
	Save(ctx context.Context, b *models.Booking) error
	Update(ctx context.Context, b *models.Booking) error
	Get(ctx context.Context, id string) (*models.Booking, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

// MemoryBookingRepo backs tests and single-run development.
type MemoryBookingRepo struct {
	mu       sync.RWMutex
	bookings map[string]models.Booking
	codes    map[string]struct{}
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{
		bookings: make(map[string]models.Booking),
		codes:    make(map[string]struct{}),
	}
}

func (r *MemoryBookingRepo) Save(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = *b
	r.codes[b.ConfirmationCode] = struct{}{}
	return nil
}

func (r *MemoryBookingRepo) Update(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return status.ErrBookingNotFound
	}
	r.bookings[b.ID] = *b
	return nil
}

func (r *MemoryBookingRepo) Get(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, status.ErrBookingNotFound
	}
	return &b, nil
}

func (r *MemoryBookingRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.codes[code]
	return ok, nil
}

type bookingRow struct {
	ID               string         `db:"id"`
	SessionID        string         `db:"session_id"`
	TripID           string         `db:"trip_id"`
	Passenger        string         `db:"passenger"` // JSON
	SeatIDs          string         `db:"seat_ids"`  // JSON
	TotalPrice       string         `db:"total_price"`
	Status           string         `db:"status"`
	ConfirmationCode string         `db:"confirmation_code"`
	TransactionID    string         `db:"transaction_id"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	CheckedInAt      sql.NullTime   `db:"checked_in_at"`
}

// SQLBookingRepo stores bookings in sqlite through dbx.
type SQLBookingRepo struct {
	db *dbx.DB
}

func NewSQLBookingRepo(path string) (*SQLBookingRepo, error) {
	db, err := dbx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	repo := &SQLBookingRepo{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SQLBookingRepo) ensureSchema() error {
	_, err := r.db.NewQuery(`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		trip_id TEXT NOT NULL,
		passenger TEXT NOT NULL,
		seat_ids TEXT NOT NULL,
		total_price TEXT NOT NULL,
		status TEXT NOT NULL,
		confirmation_code TEXT NOT NULL UNIQUE,
		transaction_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		checked_in_at TIMESTAMP
	)`).Execute()
	return err
}

func (r *SQLBookingRepo) Save(ctx context.Context, b *models.Booking) error {
	params, err := bookingParams(b)
	if err != nil {
		return err
	}
	_, err = r.db.Insert("bookings", params).WithContext(ctx).Execute()
	return err
}

func (r *SQLBookingRepo) Update(ctx context.Context, b *models.Booking) error {
	params, err := bookingParams(b)
	if err != nil {
		return err
	}
	_, err = r.db.Update("bookings", params, dbx.HashExp{"id": b.ID}).WithContext(ctx).Execute()
	return err
}

func (r *SQLBookingRepo) Get(ctx context.Context, id string) (*models.Booking, error) {
	var row bookingRow
	err := r.db.Select().From("bookings").Where(dbx.HashExp{"id": id}).WithContext(ctx).One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return rowToBooking(&row)
}

func (r *SQLBookingRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	err := r.db.Select("COUNT(*)").From("bookings").
		Where(dbx.HashExp{"confirmation_code": code}).WithContext(ctx).Row(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLBookingRepo) Close() error {
	return r.db.Close()
}

func bookingParams(b *models.Booking) (dbx.Params, error) {
	passenger, err := json.Marshal(b.Passenger)
	if err != nil {
		return nil, err
	}
	seatIDs, err := json.Marshal(b.SeatIDs)
	if err != nil {
		return nil, err
	}

	params := dbx.Params{
		"id":                b.ID,
		"session_id":        b.SessionID,
		"trip_id":           b.TripID,
		"passenger":         string(passenger),
		"seat_ids":          string(seatIDs),
		"total_price":       b.TotalPrice.StringFixed(2),
		"status":            string(b.Status),
		"confirmation_code": b.ConfirmationCode,
		"transaction_id":    b.TransactionID,
		"created_at":        b.CreatedAt,
		"updated_at":        b.UpdatedAt,
	}
	if b.CheckedInAt != nil {
		params["checked_in_at"] = *b.CheckedInAt
	} else {
		params["checked_in_at"] = nil
	}
	return params, nil
}

func rowToBooking(row *bookingRow) (*models.Booking, error) {
	total, err := decimal.NewFromString(row.TotalPrice)
	if err != nil {
		return nil, err
	}

	b := &models.Booking{
		ID:               row.ID,
		SessionID:        row.SessionID,
		TripID:           row.TripID,
		TotalPrice:       total,
		Status:           models.BookingStatus(row.Status),
		ConfirmationCode: row.ConfirmationCode,
		TransactionID:    row.TransactionID,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(row.Passenger), &b.Passenger); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.SeatIDs), &b.SeatIDs); err != nil {
		return nil, err
	}
	if row.CheckedInAt.Valid {
		t := row.CheckedInAt.Time
		b.CheckedInAt = &t
	}
	return b, nil
}
