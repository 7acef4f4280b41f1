package services

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-reservation/database"
	"github.com/yeremiapane/table-reservation/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var msk = time.FixedZone("MSK", 3*60*60)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock(now time.Time) *stubClock {
	return &stubClock{now: now}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeOccupancy answers BookedTableIDs from memory, keyed by slot.
type fakeOccupancy struct {
	booked map[int64][]uint
	err    error
}

func newFakeOccupancy() *fakeOccupancy {
	return &fakeOccupancy{booked: make(map[int64][]uint)}
}

func (f *fakeOccupancy) book(slot time.Time, tableIDs ...uint) {
	f.booked[slot.Unix()] = append(f.booked[slot.Unix()], tableIDs...)
}

func (f *fakeOccupancy) BookedTableIDs(_ context.Context, slot time.Time, _ uint) (map[uint]struct{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uint]struct{})
	for _, id := range f.booked[slot.Unix()] {
		out[id] = struct{}{}
	}
	return out, nil
}

func standardTables() []models.Table {
	return []models.Table{
		{ID: 1, Name: "Hall 1", Capacity: 2, Zone: models.ZoneHall},
		{ID: 2, Name: "Hall 2", Capacity: 4, Zone: models.ZoneHall},
		{ID: 3, Name: "Hall 3", Capacity: 4, Zone: models.ZoneHall},
		{ID: 4, Name: "Veranda 1", Capacity: 6, Zone: models.ZoneVeranda},
		{ID: 5, Name: "Veranda 2", Capacity: 8, Zone: models.ZoneVeranda},
	}
}

func singleTable() []models.Table {
	return []models.Table{{ID: 1, Name: "Hall 1", Capacity: 2, Zone: models.ZoneHall}}
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, msk)
}

// newTestDB opens a file-backed SQLite database so every pooled connection
// sees the same data.
func newTestDB(t *testing.T, tables []models.Table) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "reservations.db")
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SyncTables(db, tables))
	return db
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T, tables []models.Table, clock Clock) (*ReservationService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t, tables)
	inv, err := LoadInventory(tables)
	require.NoError(t, err)

	normalizer, err := NewSlotNormalizer(msk, 30*time.Minute)
	require.NoError(t, err)

	svc := NewReservationService(db, inv, normalizer, clock, quietLogger(), ReservationOptions{})
	return svc, db
}

func newTestNormalizer(t *testing.T) *SlotNormalizer {
	t.Helper()
	n, err := NewSlotNormalizer(msk, 30*time.Minute)
	require.NoError(t, err)
	return n
}
