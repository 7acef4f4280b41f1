package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/table-reservation/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errSlotTaken reports that the slot_lock unique index rejected a write, i.e.
// another writer confirmed the same table and slot first.
var errSlotTaken = errors.New("table already booked for slot")

// reservationStore is the gorm access layer of the ledger. It is built either
// on the service's DB handle or on a transaction.
type reservationStore struct {
	db *gorm.DB
}

func newReservationStore(db *gorm.DB) *reservationStore {
	return &reservationStore{db: db}
}

func storageErr(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, errSlotTaken)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// txErr classifies failures raised by the transaction itself (begin, commit).
// Errors returned by the store methods pass through unchanged.
func txErr(err error) error {
	switch {
	case err == nil,
		errors.Is(err, ErrStorage),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, errSlotTaken):
		return err
	}
	return storageErr("transaction", err)
}

func (s *reservationStore) BookedTableIDs(ctx context.Context, slot time.Time, ignoreReservationID uint) (map[uint]struct{}, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("slot_datetime = ? AND status = ?", slot.UTC(), models.StatusConfirmed)
	if ignoreReservationID != 0 {
		query = query.Where("id <> ?", ignoreReservationID)
	}

	var ids []uint
	if err := query.Pluck("table_id", &ids).Error; err != nil {
		return nil, storageErr("query booked tables", err)
	}

	booked := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		booked[id] = struct{}{}
	}
	return booked, nil
}

// findConfirmed returns the phone's confirmed reservation at slot, or the one
// with the latest slot when slot is nil.
func (s *reservationStore) findConfirmed(ctx context.Context, phone string, slot *time.Time) (*models.Reservation, error) {
	query := s.db.WithContext(ctx).
		Where("phone_number = ? AND status = ?", phone, models.StatusConfirmed)
	if slot != nil {
		query = query.Where("slot_datetime = ?", slot.UTC())
	}

	var r models.Reservation
	err := query.Order("slot_datetime DESC").Order("id DESC").First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("find reservation", err)
	}

	return &r, nil
}

func (s *reservationStore) create(ctx context.Context, r *models.Reservation) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		return storageErr("insert reservation", err)
	}
	return nil
}

// move points a confirmed reservation at a new table and slot.
func (s *reservationStore) move(ctx context.Context, id, tableID uint, slot, bookedAt time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, models.StatusConfirmed).
		Updates(map[string]interface{}{
			"table_id":      tableID,
			"slot_datetime": slot.UTC(),
			"booked_at":     bookedAt,
			"slot_lock":     models.SlotLockKey(tableID, slot),
		})
	if result.Error != nil {
		return storageErr("update reservation", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// cancel flips a confirmed reservation to cancelled. It reports whether a row
// changed; an already cancelled row is left as is.
func (s *reservationStore) cancel(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, models.StatusConfirmed).
		Updates(map[string]interface{}{
			"status":       models.StatusCancelled,
			"cancelled_at": at,
			"slot_lock":    nil,
		})
	if result.Error != nil {
		return false, storageErr("cancel reservation", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// confirmedSeatings returns id, table_id and guests_count of every confirmed
// reservation.
func (s *reservationStore) confirmedSeatings(ctx context.Context) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.db.WithContext(ctx).
		Select("id", "table_id", "guests_count").
		Where("status = ?", models.StatusConfirmed).
		Find(&out).Error
	if err != nil {
		return nil, storageErr("query confirmed reservations", err)
	}
	return out, nil
}

func (s *reservationStore) get(ctx context.Context, id uint) (*models.Reservation, error) {
	var r models.Reservation
	if err := s.db.WithContext(ctx).Preload("Table").First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get reservation", err)
	}
	return &r, nil
}

type ReservationFilter struct {
	PhoneNumber string
	Status      models.ReservationStatus
}

func (s *reservationStore) list(ctx context.Context, filter ReservationFilter) ([]models.Reservation, error) {
	query := s.db.WithContext(ctx).Preload("Table")
	if filter.PhoneNumber != "" {
		query = query.Where("phone_number = ?", filter.PhoneNumber)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var out []models.Reservation
	if err := query.Order("slot_datetime ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, storageErr("list reservations", err)
	}
	return out, nil
}
