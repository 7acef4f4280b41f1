package services

import (
	"context"
	"sort"
	"time"
)

const DefaultMaxAlternatives = 5

// AlternativeFinder looks for the nearest slots around a requested one that
// still have a table for the party. It never reserves anything.
type AlternativeFinder struct {
	inventory  *Inventory
	occupancy  OccupancyReader
	normalizer *SlotNormalizer
	clock      Clock
}

func NewAlternativeFinder(inv *Inventory, occupancy OccupancyReader, normalizer *SlotNormalizer, clock Clock) *AlternativeFinder {
	return &AlternativeFinder{
		inventory:  inv,
		occupancy:  occupancy,
		normalizer: normalizer,
		clock:      clock,
	}
}

// DefaultRadius is the number of slot steps in 24 hours.
func (f *AlternativeFinder) DefaultRadius() int {
	return int(24 * time.Hour / f.normalizer.Duration())
}

// FindAlternatives walks ±1, ±2, … slot steps from slot (earlier first at each
// distance) up to radius steps, collecting at most maxResults slots with a free
// table. Slots before the current slot are skipped. The result is ascending.
func (f *AlternativeFinder) FindAlternatives(ctx context.Context, slot time.Time, guests, maxResults, radius int) ([]time.Time, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxAlternatives
	}
	if radius <= 0 {
		radius = f.DefaultRadius()
	}

	slot = f.normalizer.Normalize(slot)
	if guests <= 0 || guests > f.inventory.MaxCapacity() {
		return []time.Time{}, nil
	}

	earliest := f.normalizer.Normalize(f.clock.Now())
	seen := make(map[int64]struct{})
	found := make([]time.Time, 0, maxResults)

	for step := 1; step <= radius && len(found) < maxResults; step++ {
		for _, k := range []int{-step, step} {
			if len(found) >= maxResults {
				break
			}

			candidate := f.normalizer.Step(slot, k)
			if candidate.Equal(slot) || candidate.Before(earliest) {
				continue
			}
			if _, dup := seen[candidate.Unix()]; dup {
				continue
			}
			seen[candidate.Unix()] = struct{}{}

			table, err := FindTable(ctx, f.inventory, f.occupancy, candidate, guests, 0)
			if err != nil {
				return nil, err
			}
			if table != nil {
				found = append(found, candidate)
			}
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Before(found[j]) })
	return found, nil
}
