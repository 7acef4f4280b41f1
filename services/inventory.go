package services

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/yeremiapane/table-reservation/models"
)

type tableSet struct {
	byID map[uint]models.Table
	// ordered by capacity, then id: the best-fit search order
	ordered []models.Table
}

// Inventory is the restaurant's table list. It is read-only after loading;
// Reload swaps the whole set at once. Once reservations exist, reload through
// ReservationService.ReloadInventory so the swap is checked against them.
type Inventory struct {
	current  atomic.Pointer[tableSet]
	validate *validator.Validate
}

func LoadInventory(tables []models.Table) (*Inventory, error) {
	inv := &Inventory{validate: validator.New()}
	if err := inv.Reload(tables); err != nil {
		return nil, err
	}

	return inv, nil
}

// Reload validates tables and replaces the current set. On error the previous
// set stays in place.
func (inv *Inventory) Reload(tables []models.Table) error {
	set, err := inv.buildSet(tables)
	if err != nil {
		return err
	}

	inv.current.Store(set)
	return nil
}

func (inv *Inventory) buildSet(tables []models.Table) (*tableSet, error) {
	set := &tableSet{
		byID:    make(map[uint]models.Table, len(tables)),
		ordered: make([]models.Table, 0, len(tables)),
	}

	for _, t := range tables {
		if err := inv.validate.Struct(t); err != nil {
			return nil, fmt.Errorf("%w: table %d: %v", ErrInvalidInput, t.ID, err)
		}
		if _, dup := set.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate table id %d", ErrInvalidInput, t.ID)
		}
		set.byID[t.ID] = t
		set.ordered = append(set.ordered, t)
	}

	sort.Slice(set.ordered, func(i, j int) bool {
		if set.ordered[i].Capacity != set.ordered[j].Capacity {
			return set.ordered[i].Capacity < set.ordered[j].Capacity
		}
		return set.ordered[i].ID < set.ordered[j].ID
	})

	return set, nil
}

func (inv *Inventory) Get(id uint) (models.Table, bool) {
	t, ok := inv.current.Load().byID[id]
	return t, ok
}

// All returns a copy of the tables, smallest capacity first.
func (inv *Inventory) All() []models.Table {
	ordered := inv.current.Load().ordered
	out := make([]models.Table, len(ordered))
	copy(out, ordered)
	return out
}

func (inv *Inventory) Len() int {
	return len(inv.current.Load().ordered)
}

// MaxCapacity is the largest party any single table can seat.
func (inv *Inventory) MaxCapacity() int {
	ordered := inv.current.Load().ordered
	if len(ordered) == 0 {
		return 0
	}
	return ordered[len(ordered)-1].Capacity
}
