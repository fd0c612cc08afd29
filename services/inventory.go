package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"ride-booking/internal/status"
	"ride-booking/models"
	"ride-booking/monitoring"
)

// SeatInventory is the only shared mutable resource of the engine. All hold,
// commit, release and free operations are serialized per trip, and a commit
// over multiple seats is all-or-nothing.
type SeatInventory interface {
	// EnsureLayout makes the trip's seat map exist and returns it.
	EnsureLayout(ctx context.Context, tripID string, vehicleType models.VehicleType, capacity int) ([]models.Seat, error)

	// Seats returns the current availability snapshot for a trip.
	Seats(ctx context.Context, tripID string) ([]models.Seat, error)

	// Hold claims a free seat for a session until the TTL runs out. Re-holding
	// a seat the session already owns refreshes the TTL.
	Hold(ctx context.Context, tripID, seatID, sessionID string, ttl time.Duration) error

	// Release drops a hold owned by the session. Idempotent; a seat held by
	// someone else is left alone.
	Release(ctx context.Context, tripID, seatID, sessionID string) error

	// Commit converts the session's holds into booked seats. If any hold is
	// missing, expired or owned by another session, no seat changes state.
	Commit(ctx context.Context, tripID string, seatIDs []string, sessionID, bookingID string) error

	// Free returns booked seats to the pool (cancellation path).
	Free(ctx context.Context, tripID string, seatIDs []string) error
}

type seatRecord struct {
	seat models.Seat
}

// MemoryInventory keeps seat state in process behind a single mutex. Suited
// to single-node deployments and tests; RedisInventory covers the shared
// case.
type MemoryInventory struct {
	mu      sync.Mutex
	trips   map[string]map[string]*seatRecord
	now     func() time.Time
	logger  *zap.Logger
	monitor *monitoring.Monitor
}

func NewMemoryInventory(logger *zap.Logger, monitor *monitoring.Monitor) *MemoryInventory {
	return &MemoryInventory{
		trips:   make(map[string]map[string]*seatRecord),
		now:     time.Now,
		logger:  logger,
		monitor: monitor,
	}
}

func (inv *MemoryInventory) EnsureLayout(ctx context.Context, tripID string, vehicleType models.VehicleType, capacity int) ([]models.Seat, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, ok := inv.trips[tripID]; !ok {
		seats := GenerateLayout(tripID, vehicleType, capacity)
		records := make(map[string]*seatRecord, len(seats))
		for _, s := range seats {
			records[s.ID] = &seatRecord{seat: s}
		}
		inv.trips[tripID] = records
	}

	return inv.snapshotLocked(tripID), nil
}

func (inv *MemoryInventory) Seats(ctx context.Context, tripID string) ([]models.Seat, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, ok := inv.trips[tripID]; !ok {
		return nil, status.ErrTripNotFound
	}
	return inv.snapshotLocked(tripID), nil
}

func (inv *MemoryInventory) Hold(ctx context.Context, tripID, seatID, sessionID string, ttl time.Duration) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	rec, err := inv.seatLocked(tripID, seatID)
	if err != nil {
		return err
	}

	inv.expireLocked(rec)

	seat := &rec.seat
	switch seat.Status {
	case models.SeatBooked:
		inv.monitor.TrackHold("hold", "conflict")
		return fmt.Errorf("%w: seat %s is booked", status.ErrSeatUnavailable, seat.SeatNumber)
	case models.SeatHeld:
		if seat.HeldBy != sessionID {
			inv.monitor.TrackHold("hold", "conflict")
			return fmt.Errorf("%w: seat %s is held", status.ErrSeatUnavailable, seat.SeatNumber)
		}
	}

	expires := inv.now().Add(ttl)
	seat.Status = models.SeatHeld
	seat.HeldBy = sessionID
	seat.HoldExpiresAt = &expires

	inv.monitor.TrackHold("hold", "ok")
	return nil
}

func (inv *MemoryInventory) Release(ctx context.Context, tripID, seatID, sessionID string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	rec, err := inv.seatLocked(tripID, seatID)
	if err != nil {
		return err
	}

	seat := &rec.seat
	if seat.Status == models.SeatHeld && seat.HeldBy == sessionID {
		clearHold(seat)
		inv.monitor.TrackHold("release", "ok")
	}
	return nil
}

func (inv *MemoryInventory) Commit(ctx context.Context, tripID string, seatIDs []string, sessionID, bookingID string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	// Phase one: every hold must be live and owned by the session.
	records := make([]*seatRecord, 0, len(seatIDs))
	now := inv.now()
	for _, seatID := range seatIDs {
		rec, err := inv.seatLocked(tripID, seatID)
		if err != nil {
			return err
		}
		seat := rec.seat
		if seat.Status != models.SeatHeld || seat.HeldBy != sessionID ||
			seat.HoldExpiresAt == nil || !seat.HoldExpiresAt.After(now) {
			inv.monitor.TrackCommit("failed")
			return fmt.Errorf("%w: seat %s", status.ErrHoldExpiredOrMissing, seat.SeatNumber)
		}
		records = append(records, rec)
	}

	// Phase two: flip the whole set.
	for _, rec := range records {
		seat := &rec.seat
		seat.Status = models.SeatBooked
		seat.HeldBy = ""
		seat.HoldExpiresAt = nil
		seat.BookingID = bookingID
	}

	inv.monitor.TrackCommit("ok")
	return nil
}

func (inv *MemoryInventory) Free(ctx context.Context, tripID string, seatIDs []string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, seatID := range seatIDs {
		rec, err := inv.seatLocked(tripID, seatID)
		if err != nil {
			return err
		}
		seat := &rec.seat
		if seat.Status == models.SeatBooked {
			seat.Status = models.SeatFree
			seat.BookingID = ""
		}
	}
	return nil
}

// StartSweeper runs the background hold-expiry sweep until ctx is done.
// Expiry shares the inventory mutex with Commit, so a commit observing a
// live hold can never lose it to the sweep mid-flight.
func (inv *MemoryInventory) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				inv.sweep()
			}
		}
	}()
}

func (inv *MemoryInventory) sweep() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	expired := 0
	for _, records := range inv.trips {
		for _, rec := range records {
			if inv.expireLocked(rec) {
				expired++
			}
		}
	}
	if expired > 0 {
		inv.logger.Info("expired seat holds released", zap.Int("count", expired))
		for i := 0; i < expired; i++ {
			inv.monitor.TrackHold("expire", "ok")
		}
	}
}

func (inv *MemoryInventory) expireLocked(rec *seatRecord) bool {
	seat := &rec.seat
	if seat.Status == models.SeatHeld && seat.HoldExpiresAt != nil && !seat.HoldExpiresAt.After(inv.now()) {
		clearHold(seat)
		return true
	}
	return false
}

func (inv *MemoryInventory) seatLocked(tripID, seatID string) (*seatRecord, error) {
	records, ok := inv.trips[tripID]
	if !ok {
		return nil, status.ErrTripNotFound
	}
	rec, ok := records[seatID]
	if !ok {
		return nil, status.ErrSeatNotFound
	}
	return rec, nil
}

func (inv *MemoryInventory) snapshotLocked(tripID string) []models.Seat {
	records := inv.trips[tripID]
	seats := make([]models.Seat, 0, len(records))
	for _, rec := range records {
		seats = append(seats, rec.seat)
	}
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Column < seats[j].Column
	})
	return seats
}

func clearHold(seat *models.Seat) {
	seat.Status = models.SeatFree
	seat.HeldBy = ""
	seat.HoldExpiresAt = nil
}
