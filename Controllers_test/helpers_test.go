package Controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/table-reservation/database"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
)

var msk = time.FixedZone("MSK", 3*60*60)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func testTables() []models.Table {
	return []models.Table{
		{ID: 1, Name: "Hall 1", Capacity: 2, Zone: models.ZoneHall},
		{ID: 2, Name: "Hall 2", Capacity: 4, Zone: models.ZoneHall},
		{ID: 3, Name: "Veranda 1", Capacity: 6, Zone: models.ZoneVeranda},
	}
}

// setupTestDB membuka SQLite berbasis file sementara agar semua koneksi
// melihat data yang sama
func setupTestDB(t *testing.T, tables []models.Table) *gorm.DB {
	t.Helper()
	utils.InitLogger()
	utils.InfoLogger.SetOutput(io.Discard)
	utils.ErrorLogger.SetOutput(io.Discard)

	path := filepath.Join(t.TempDir(), "test.db")
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

func newTestService(t *testing.T, db *gorm.DB, tables []models.Table) *services.ReservationService {
	t.Helper()

	inv, err := services.LoadInventory(tables)
	require.NoError(t, err)
	normalizer, err := services.NewSlotNormalizer(msk, 30*time.Minute)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	clock := fixedClock(time.Date(2024, 1, 1, 9, 0, 0, 0, msk))
	return services.NewReservationService(db, inv, normalizer, clock, log, services.ReservationOptions{})
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r http.Handler, method, url string, body interface{}, headers ...string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func decodeData(t *testing.T, resp apiResponse, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, dst), string(resp.Data))
}

func init() {
	gin.SetMode(gin.TestMode)
}
