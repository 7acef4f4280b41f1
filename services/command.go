package services

import (
	"context"
	"fmt"
	"time"
)

// Command is one of CheckAvailabilityCommand, BookCommand, CancelCommand or
// ChangeCommand, passed by value. The unexported marker keeps the set closed;
// pointers to commands also satisfy it but Execute rejects them as unknown.
type Command interface {
	command()
}

type CheckAvailabilityCommand struct {
	Slot   time.Time
	Guests *int
}

type BookCommand struct {
	Slot       time.Time
	ClientName string
	Phone      string
	Guests     *int
}

type CancelCommand struct {
	Phone string
	Slot  *time.Time
}

type ChangeCommand struct {
	Phone   string
	OldSlot *time.Time
	NewSlot time.Time
}

func (CheckAvailabilityCommand) command() {}
func (BookCommand) command()              {}
func (CancelCommand) command()            {}
func (ChangeCommand) command()            {}

// Result is the outcome of Execute: AvailabilityResult, BookResult,
// CancelResult or ChangeResult.
type Result interface {
	result()
}

type CancelResult struct {
	Cancelled bool `json:"cancelled"`
}

func (AvailabilityResult) result() {}
func (BookResult) result()         {}
func (CancelResult) result()       {}
func (ChangeResult) result()       {}

// Execute runs a command against the ledger.
func (s *ReservationService) Execute(ctx context.Context, cmd Command) (Result, error) {
	var (
		res Result
		err error
	)

	switch c := cmd.(type) {
	case CheckAvailabilityCommand:
		res, err = s.CheckAvailability(ctx, c.Slot, s.GuestsOrDefault(c.Guests))
	case BookCommand:
		res, err = s.Book(ctx, c.Slot, c.ClientName, c.Phone, s.GuestsOrDefault(c.Guests))
	case CancelCommand:
		var cancelled bool
		cancelled, err = s.Cancel(ctx, c.Phone, c.Slot)
		res = CancelResult{Cancelled: cancelled}
	case ChangeCommand:
		res, err = s.Change(ctx, c.Phone, c.OldSlot, c.NewSlot)
	default:
		return nil, fmt.Errorf("%w: unknown command %T", ErrInvalidInput, cmd)
	}

	if err != nil {
		return nil, err
	}
	return res, nil
}
