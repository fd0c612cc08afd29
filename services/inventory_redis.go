package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ride-booking/internal/status"
	"ride-booking/models"
	"ride-booking/monitoring"
)

// Seat state lives in one hash per (trip, seat). A held seat carries a key
// TTL so abandoned holds evaporate on their own; booked seats are persisted.
// A key that does not exist is a free seat.
const (
	holdScript = `local st = redis.call('HGET', KEYS[1], 'status')
if st == 'booked' then return 'conflict' end
if st == 'held' then
  local by = redis.call('HGET', KEYS[1], 'held_by')
  if by ~= ARGV[1] then return 'conflict' end
end
redis.call('HSET', KEYS[1], 'status', 'held', 'held_by', ARGV[1], 'hold_expires_at', ARGV[3])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return 'ok'`

	// All-or-nothing: verify every hold, then flip every seat. An expired
	// hold's key is already gone, so its HGET fails the verify pass.
	commitScript = `for i = 1, #KEYS do
  local st = redis.call('HGET', KEYS[i], 'status')
  local by = redis.call('HGET', KEYS[i], 'held_by')
  if st ~= 'held' or by ~= ARGV[1] then return 'stale' end
end
for i = 1, #KEYS do
  redis.call('HSET', KEYS[i], 'status', 'booked', 'booking_id', ARGV[2], 'held_by', '')
  redis.call('PERSIST', KEYS[i])
end
return 'ok'`

	releaseScript = `local st = redis.call('HGET', KEYS[1], 'status')
local by = redis.call('HGET', KEYS[1], 'held_by')
if st == 'held' and by == ARGV[1] then redis.call('DEL', KEYS[1]) end
return 'ok'`
)

// RedisInventory is the shared-state SeatInventory for multi-node
// deployments. Atomicity across seats comes from server-side Lua.
type RedisInventory struct {
	redis   redis.UniversalClient
	logger  *zap.Logger
	monitor *monitoring.Monitor
	now     func() time.Time
}

func NewRedisInventory(client redis.UniversalClient, logger *zap.Logger, monitor *monitoring.Monitor) *RedisInventory {
	return &RedisInventory{redis: client, logger: logger, monitor: monitor, now: time.Now}
}

func seatKey(tripID, seatID string) string {
	return fmt.Sprintf("seat:%s:%s", tripID, seatID)
}

func layoutKey(tripID string) string {
	return fmt.Sprintf("trip:layout:%s", tripID)
}

func (inv *RedisInventory) EnsureLayout(ctx context.Context, tripID string, vehicleType models.VehicleType, capacity int) ([]models.Seat, error) {
	err := inv.redis.HSet(ctx, layoutKey(tripID), map[string]any{
		"vehicle_type": string(vehicleType),
		"capacity":     capacity,
	}).Err()
	if err != nil {
		return nil, err
	}
	return inv.Seats(ctx, tripID)
}

func (inv *RedisInventory) Seats(ctx context.Context, tripID string) ([]models.Seat, error) {
	meta, err := inv.redis.HGetAll(ctx, layoutKey(tripID)).Result()
	if err != nil {
		return nil, err
	}
	if len(meta) == 0 {
		return nil, status.ErrTripNotFound
	}

	capacity, err := strconv.Atoi(meta["capacity"])
	if err != nil {
		return nil, fmt.Errorf("bad layout capacity for trip %s: %w", tripID, err)
	}

	seats := GenerateLayout(tripID, models.VehicleType(meta["vehicle_type"]), capacity)
	for i := range seats {
		state, err := inv.redis.HGetAll(ctx, seatKey(tripID, seats[i].ID)).Result()
		if err != nil {
			return nil, err
		}
		if len(state) == 0 {
			continue
		}
		overlaySeatState(&seats[i], state)
	}

	return seats, nil
}

func overlaySeatState(seat *models.Seat, state map[string]string) {
	switch state["status"] {
	case "held":
		seat.Status = models.SeatHeld
		seat.HeldBy = state["held_by"]
		if unix, err := strconv.ParseInt(state["hold_expires_at"], 10, 64); err == nil {
			expires := time.Unix(unix, 0)
			seat.HoldExpiresAt = &expires
		}
	case "booked":
		seat.Status = models.SeatBooked
		seat.BookingID = state["booking_id"]
	}
}

// checkSeat rejects seat IDs outside the trip's generated layout. Without
// this a hold on an arbitrary key would create a phantom seat.
func (inv *RedisInventory) checkSeat(ctx context.Context, tripID, seatID string) error {
	meta, err := inv.redis.HGetAll(ctx, layoutKey(tripID)).Result()
	if err != nil {
		return err
	}
	if len(meta) == 0 {
		return status.ErrTripNotFound
	}

	capacity, err := strconv.Atoi(meta["capacity"])
	if err != nil {
		return fmt.Errorf("bad layout capacity for trip %s: %w", tripID, err)
	}

	for _, seat := range GenerateLayout(tripID, models.VehicleType(meta["vehicle_type"]), capacity) {
		if seat.ID == seatID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", status.ErrSeatNotFound, seatID)
}

func (inv *RedisInventory) Hold(ctx context.Context, tripID, seatID, sessionID string, ttl time.Duration) error {
	if err := inv.checkSeat(ctx, tripID, seatID); err != nil {
		return err
	}

	expires := inv.now().Add(ttl).Unix()
	res, err := inv.redis.Eval(ctx, holdScript,
		[]string{seatKey(tripID, seatID)},
		sessionID, int(ttl.Seconds()), expires,
	).Result()
	if err != nil {
		return err
	}

	if res != "ok" {
		inv.monitor.TrackHold("hold", "conflict")
		return fmt.Errorf("%w: seat %s", status.ErrSeatUnavailable, seatID)
	}

	inv.monitor.TrackHold("hold", "ok")
	return nil
}

func (inv *RedisInventory) Release(ctx context.Context, tripID, seatID, sessionID string) error {
	err := inv.redis.Eval(ctx, releaseScript,
		[]string{seatKey(tripID, seatID)},
		sessionID,
	).Err()
	if err != nil {
		return err
	}
	inv.monitor.TrackHold("release", "ok")
	return nil
}

func (inv *RedisInventory) Commit(ctx context.Context, tripID string, seatIDs []string, sessionID, bookingID string) error {
	keys := make([]string, len(seatIDs))
	for i, seatID := range seatIDs {
		keys[i] = seatKey(tripID, seatID)
	}

	res, err := inv.redis.Eval(ctx, commitScript, keys, sessionID, bookingID).Result()
	if err != nil {
		return err
	}

	if res != "ok" {
		inv.monitor.TrackCommit("failed")
		return fmt.Errorf("%w: commit for session %s", status.ErrHoldExpiredOrMissing, sessionID)
	}

	inv.monitor.TrackCommit("ok")
	return nil
}

func (inv *RedisInventory) Free(ctx context.Context, tripID string, seatIDs []string) error {
	for _, seatID := range seatIDs {
		key := seatKey(tripID, seatID)
		st, err := inv.redis.HGet(ctx, key, "status").Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return err
		}
		if st == "booked" {
			if err := inv.redis.Del(ctx, key).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}
