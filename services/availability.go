package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yeremiapane/table-reservation/models"
)

// OccupancyReader reports which tables already hold a confirmed reservation at
// a slot. ignoreReservationID (0 for none) is left out of the answer, so a
// reservation being moved does not block itself.
type OccupancyReader interface {
	BookedTableIDs(ctx context.Context, slot time.Time, ignoreReservationID uint) (map[uint]struct{}, error)
}

// FindTable returns the smallest table that seats guests and is free at slot,
// skipping any id in exclude. A nil table with a nil error means fully booked.
func FindTable(
	ctx context.Context,
	inv *Inventory,
	occupancy OccupancyReader,
	slot time.Time,
	guests int,
	ignoreReservationID uint,
	exclude ...uint,
) (*models.Table, error) {
	if guests <= 0 {
		return nil, fmt.Errorf("%w: guests count must be positive, got %d", ErrInvalidInput, guests)
	}
	if guests > inv.MaxCapacity() {
		return nil, nil
	}

	booked, err := occupancy.BookedTableIDs(ctx, slot, ignoreReservationID)
	if err != nil {
		return nil, err
	}

	for _, t := range inv.All() {
		if t.Capacity < guests {
			continue
		}
		if _, taken := booked[t.ID]; taken {
			continue
		}
		if contains(exclude, t.ID) {
			continue
		}

		table := t
		return &table, nil
	}

	return nil, nil
}

func contains(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
