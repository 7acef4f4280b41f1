package services

import "time"

// Clock is the source of "now" for the ledger.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
