package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservation/database"
	"github.com/yeremiapane/table-reservation/models"
	"gorm.io/gorm"
)

// A placement that loses the slot_lock race is retried once with the
// next-best table.
const maxPlacementAttempts = 2

type ReservationOptions struct {
	MaxAlternatives int
	// SearchRadius is the alternative search bound in slot steps.
	SearchRadius  int
	DefaultGuests int
}

type AvailabilityResult struct {
	Available    bool          `json:"available"`
	Slot         time.Time     `json:"slot"`
	Table        *models.Table `json:"table,omitempty"`
	Alternatives []time.Time   `json:"alternatives"`
}

type BookResult struct {
	OK             bool                `json:"ok"`
	Reservation    *models.Reservation `json:"reservation,omitempty"`
	Table          *models.Table       `json:"table,omitempty"`
	NormalizedSlot time.Time           `json:"normalized_slot"`
	Reason         Reason              `json:"reason,omitempty"`
	Alternatives   []time.Time         `json:"alternatives,omitempty"`
}

type ChangeResult struct {
	OK             bool                `json:"ok"`
	Reservation    *models.Reservation `json:"reservation,omitempty"`
	Table          *models.Table       `json:"table,omitempty"`
	NormalizedSlot time.Time           `json:"normalized_slot"`
	Reason         Reason              `json:"reason,omitempty"`
}

// ReservationService is the reservation ledger. Book, Change and Cancel are
// serialized by mu and each runs in a single transaction.
type ReservationService struct {
	db           *gorm.DB
	inventory    *Inventory
	normalizer   *SlotNormalizer
	alternatives *AlternativeFinder
	clock        Clock
	log          logrus.FieldLogger
	opts         ReservationOptions

	mu sync.Mutex
}

func NewReservationService(
	db *gorm.DB,
	inventory *Inventory,
	normalizer *SlotNormalizer,
	clock Clock,
	log logrus.FieldLogger,
	opts ReservationOptions,
) *ReservationService {
	if clock == nil {
		clock = RealClock{}
	}
	if opts.MaxAlternatives <= 0 {
		opts.MaxAlternatives = DefaultMaxAlternatives
	}
	if opts.DefaultGuests <= 0 {
		opts.DefaultGuests = 2
	}

	store := newReservationStore(db)
	alternatives := NewAlternativeFinder(inventory, store, normalizer, clock)
	if opts.SearchRadius <= 0 {
		opts.SearchRadius = alternatives.DefaultRadius()
	}

	return &ReservationService{
		db:           db,
		inventory:    inventory,
		normalizer:   normalizer,
		alternatives: alternatives,
		clock:        clock,
		log:          log,
		opts:         opts,
	}
}

func (s *ReservationService) Normalizer() *SlotNormalizer { return s.normalizer }

func (s *ReservationService) Inventory() *Inventory { return s.inventory }

// GuestsOrDefault resolves an optional guest count from a caller.
func (s *ReservationService) GuestsOrDefault(guests *int) int {
	if guests == nil {
		return s.opts.DefaultGuests
	}
	return *guests
}

// CheckAvailability reports a free table at slot or, failing that, the nearest
// alternative slots. It never writes.
func (s *ReservationService) CheckAvailability(ctx context.Context, slot time.Time, guests int) (AvailabilityResult, error) {
	if err := validateSlotAndGuests(slot, guests); err != nil {
		return AvailabilityResult{}, err
	}
	slot = s.normalizer.Normalize(slot)
	if err := s.rejectPast(slot); err != nil {
		return AvailabilityResult{}, err
	}

	table, err := FindTable(ctx, s.inventory, newReservationStore(s.db), slot, guests, 0)
	if err != nil {
		return AvailabilityResult{}, err
	}
	if table != nil {
		return AvailabilityResult{Available: true, Slot: slot, Table: table}, nil
	}

	alternatives, err := s.FindAlternatives(ctx, slot, guests)
	if err != nil {
		return AvailabilityResult{}, err
	}

	return AvailabilityResult{Available: false, Slot: slot, Alternatives: alternatives}, nil
}

// FindAlternatives runs the alternative search with the configured limits.
func (s *ReservationService) FindAlternatives(ctx context.Context, slot time.Time, guests int) ([]time.Time, error) {
	return s.alternatives.FindAlternatives(ctx, slot, guests, s.opts.MaxAlternatives, s.opts.SearchRadius)
}

// Book assigns the best-fitting free table at the slot containing slot and
// records a confirmed reservation. A full slot is reported with
// Reason=NO_TABLE and suggested alternatives, not as an error.
func (s *ReservationService) Book(ctx context.Context, slot time.Time, clientName, phone string, guests int) (BookResult, error) {
	clientName = strings.TrimSpace(clientName)
	phone = strings.TrimSpace(phone)
	if err := validateSlotAndGuests(slot, guests); err != nil {
		return BookResult{}, err
	}
	if clientName == "" {
		return BookResult{}, fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}
	if phone == "" {
		return BookResult{}, fmt.Errorf("%w: phone number is required", ErrInvalidInput)
	}
	slot = s.normalizer.Normalize(slot)
	if err := s.rejectPast(slot); err != nil {
		return BookResult{}, err
	}

	log := s.log.WithFields(logrus.Fields{
		"op":     "Book",
		"slot":   slot.Format(time.RFC3339),
		"phone":  phone,
		"guests": guests,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	var excluded []uint
	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		var (
			table       *models.Table
			reservation *models.Reservation
		)

		err := txErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			store := newReservationStore(tx)

			candidate, err := FindTable(ctx, s.inventory, store, slot, guests, 0, excluded...)
			if err != nil || candidate == nil {
				return err
			}
			table = candidate

			now := s.clock.Now().UTC()
			lock := models.SlotLockKey(candidate.ID, slot)
			r := &models.Reservation{
				TableID:      candidate.ID,
				SlotDatetime: slot.UTC(),
				ClientName:   clientName,
				PhoneNumber:  phone,
				GuestsCount:  guests,
				BookedAt:     now,
				Status:       models.StatusConfirmed,
				SlotLock:     &lock,
			}
			if err := store.create(ctx, r); err != nil {
				return err
			}
			reservation = r
			return nil
		}))

		if errors.Is(err, errSlotTaken) {
			log.WithField("table_id", table.ID).Warn("table taken concurrently, retrying with next candidate")
			excluded = append(excluded, table.ID)
			continue
		}
		if err != nil {
			log.WithError(err).Error("failed to book")
			return BookResult{}, err
		}
		if table == nil {
			break
		}

		s.localize(reservation)
		log.WithFields(logrus.Fields{
			"reservation_id": reservation.ID,
			"table_id":       table.ID,
		}).Info("reservation booked")

		return BookResult{OK: true, Reservation: reservation, Table: table, NormalizedSlot: slot}, nil
	}

	log.Info("no table available")

	alternatives, err := s.FindAlternatives(ctx, slot, guests)
	if err != nil {
		return BookResult{}, err
	}

	return BookResult{OK: false, NormalizedSlot: slot, Reason: ReasonNoTable, Alternatives: alternatives}, nil
}

// Change moves the phone's reservation (the one at oldSlot, or the latest one
// when oldSlot is nil) to newSlot, keeping its guest count and id. When the
// new slot has no table the reservation is left untouched.
func (s *ReservationService) Change(ctx context.Context, phone string, oldSlot *time.Time, newSlot time.Time) (ChangeResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ChangeResult{}, fmt.Errorf("%w: phone number is required", ErrInvalidInput)
	}
	if newSlot.IsZero() {
		return ChangeResult{}, fmt.Errorf("%w: new slot is required", ErrInvalidInput)
	}
	newSlot = s.normalizer.Normalize(newSlot)
	if err := s.rejectPast(newSlot); err != nil {
		return ChangeResult{}, err
	}
	oldSlot = s.normalizeOptional(oldSlot)

	log := s.log.WithFields(logrus.Fields{
		"op":       "Change",
		"phone":    phone,
		"new_slot": newSlot.Format(time.RFC3339),
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	var excluded []uint
	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		var (
			table       *models.Table
			reservation *models.Reservation
		)

		err := txErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			store := newReservationStore(tx)

			current, err := store.findConfirmed(ctx, phone, oldSlot)
			if err != nil {
				return err
			}
			reservation = current

			candidate, err := FindTable(ctx, s.inventory, store, newSlot, current.GuestsCount, current.ID, excluded...)
			if err != nil || candidate == nil {
				return err
			}
			table = candidate

			now := s.clock.Now().UTC()
			if err := store.move(ctx, current.ID, candidate.ID, newSlot, now); err != nil {
				return err
			}

			current.TableID = candidate.ID
			current.SlotDatetime = newSlot
			current.BookedAt = now
			return nil
		}))

		switch {
		case errors.Is(err, ErrNotFound):
			log.Info("no confirmed reservation to change")
			return ChangeResult{OK: false, NormalizedSlot: newSlot, Reason: ReasonNotFound}, nil
		case errors.Is(err, errSlotTaken):
			log.WithField("table_id", table.ID).Warn("table taken concurrently, retrying with next candidate")
			excluded = append(excluded, table.ID)
			continue
		case err != nil:
			log.WithError(err).Error("failed to change reservation")
			return ChangeResult{}, err
		}

		if table == nil {
			break
		}

		s.localize(reservation)
		log.WithFields(logrus.Fields{
			"reservation_id": reservation.ID,
			"table_id":       table.ID,
		}).Info("reservation changed")

		return ChangeResult{OK: true, Reservation: reservation, Table: table, NormalizedSlot: newSlot}, nil
	}

	log.Info("no table available for new slot")
	return ChangeResult{OK: false, NormalizedSlot: newSlot, Reason: ReasonNoTable}, nil
}

// Cancel cancels the phone's reservation at slot, or its latest one when slot
// is nil. It returns false when there was nothing to cancel.
func (s *ReservationService) Cancel(ctx context.Context, phone string, slot *time.Time) (bool, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return false, fmt.Errorf("%w: phone number is required", ErrInvalidInput)
	}
	slot = s.normalizeOptional(slot)

	log := s.log.WithFields(logrus.Fields{"op": "Cancel", "phone": phone})

	s.mu.Lock()
	defer s.mu.Unlock()

	var cancelledID uint
	err := txErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := newReservationStore(tx)

		current, err := store.findConfirmed(ctx, phone, slot)
		if err != nil {
			return err
		}

		ok, err := store.cancel(ctx, current.ID, s.clock.Now().UTC())
		if err != nil {
			return err
		}
		if ok {
			cancelledID = current.ID
		}
		return nil
	}))
	if errors.Is(err, ErrNotFound) {
		log.Info("nothing to cancel")
		return false, nil
	}
	if err != nil {
		log.WithError(err).Error("failed to cancel reservation")
		return false, err
	}

	if cancelledID != 0 {
		log.WithField("reservation_id", cancelledID).Info("reservation cancelled")
	}
	return cancelledID != 0, nil
}

// ReloadInventory replaces the table inventory. The new set is refused with
// ErrInvalidInput when it drops a table, or shrinks one below its party size,
// that a confirmed reservation still holds. Nothing is written on refusal.
func (s *ReservationService) ReloadInventory(ctx context.Context, tables []models.Table) error {
	set, err := s.inventory.buildSet(tables)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = txErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		held, err := newReservationStore(tx).confirmedSeatings(ctx)
		if err != nil {
			return err
		}

		for _, r := range held {
			t, ok := set.byID[r.TableID]
			if !ok {
				return fmt.Errorf("%w: table %d is held by reservation %d", ErrInvalidInput, r.TableID, r.ID)
			}
			if t.Capacity < r.GuestsCount {
				return fmt.Errorf("%w: table %d seats %d but reservation %d has %d guests",
					ErrInvalidInput, t.ID, t.Capacity, r.ID, r.GuestsCount)
			}
		}

		if err := database.SyncTables(tx, tables); err != nil {
			return storageErr("sync tables", err)
		}
		return nil
	}))
	if err != nil {
		s.log.WithError(err).Warn("table inventory not reloaded")
		return err
	}

	s.inventory.current.Store(set)
	s.log.WithField("tables", len(set.ordered)).Info("table inventory reloaded")
	return nil
}

func (s *ReservationService) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	r, err := newReservationStore(s.db).get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.localize(r)
	return r, nil
}

// List returns reservations of every status matching filter, oldest slot first.
func (s *ReservationService) List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, error) {
	filter.PhoneNumber = strings.TrimSpace(filter.PhoneNumber)
	out, err := newReservationStore(s.db).list(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range out {
		s.localize(&out[i])
	}
	return out, nil
}

func (s *ReservationService) normalizeOptional(slot *time.Time) *time.Time {
	if slot == nil || slot.IsZero() {
		return nil
	}
	normalized := s.normalizer.Normalize(*slot)
	return &normalized
}

// localize returns stored UTC timestamps in the restaurant location.
func (s *ReservationService) localize(r *models.Reservation) {
	loc := s.normalizer.Location()
	r.SlotDatetime = r.SlotDatetime.In(loc)
	r.BookedAt = r.BookedAt.In(loc)
	if r.CancelledAt != nil {
		at := r.CancelledAt.In(loc)
		r.CancelledAt = &at
	}
}

// rejectPast refuses a normalized slot that starts before the current slot.
func (s *ReservationService) rejectPast(slot time.Time) error {
	if slot.Before(s.normalizer.Normalize(s.clock.Now())) {
		return fmt.Errorf("%w: slot %s is in the past", ErrInvalidInput, slot.Format(time.RFC3339))
	}
	return nil
}

func validateSlotAndGuests(slot time.Time, guests int) error {
	if slot.IsZero() {
		return fmt.Errorf("%w: slot is required", ErrInvalidInput)
	}
	if guests <= 0 {
		return fmt.Errorf("%w: guests count must be positive, got %d", ErrInvalidInput, guests)
	}
	return nil
}
