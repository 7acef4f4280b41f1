package Controllers_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-reservation/controllers"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/services"
)

func setupTableRouter(t *testing.T, tablesFile string) (*gin.Engine, *gorm.DB, *services.ReservationService) {
	t.Helper()
	db := setupTestDB(t, testTables())
	svc := newTestService(t, db, testTables())

	tableCtrl := controllers.NewTableController(svc, tablesFile)
	router := gin.New()
	router.GET("/tables", tableCtrl.GetAllTables)
	router.GET("/tables/:table_id", tableCtrl.GetTableByID)
	router.POST("/admin/tables/reload", tableCtrl.ReloadTables)
	return router, db, svc
}

func TestGetAllTables(t *testing.T) {
	router, _, _ := setupTableRouter(t, "")

	w, resp := doJSON(t, router, http.MethodGet, "/tables", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "List of tables", resp.Message)

	var tables []models.Table
	decodeData(t, resp, &tables)
	require.Len(t, tables, 3)
	assert.Equal(t, 2, tables[0].Capacity)
	assert.Equal(t, models.ZoneVeranda, tables[2].Zone)
}

func TestGetTableByID(t *testing.T) {
	router, _, _ := setupTableRouter(t, "")

	w, resp := doJSON(t, router, http.MethodGet, "/tables/2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var table models.Table
	decodeData(t, resp, &table)
	assert.Equal(t, "Hall 2", table.Name)

	w, _ = doJSON(t, router, http.MethodGet, "/tables/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/tables/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReloadTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tables:
  - {id: 1, name: "Hall 1", capacity: 2, zone: hall}
  - {id: 4, name: "Terrace", capacity: 10, zone: terrace}
`), 0o600))

	router, db, svc := setupTableRouter(t, path)
	inv := svc.Inventory()

	w, resp := doJSON(t, router, http.MethodPost, "/admin/tables/reload", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tables reloaded", resp.Message)

	assert.Equal(t, 2, inv.Len())
	assert.Equal(t, 10, inv.MaxCapacity())
	_, ok := inv.Get(2)
	assert.False(t, ok)

	var stored models.Table
	require.NoError(t, db.First(&stored, 4).Error)
	assert.Equal(t, "Terrace", stored.Name)

	// a broken file keeps the current inventory
	require.NoError(t, os.WriteFile(path, []byte("tables:\n  - {id: 5, name: Bad, capacity: 0, zone: hall}\n"), 0o600))
	w, _ = doJSON(t, router, http.MethodPost, "/admin/tables/reload", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 2, inv.Len())
}

// Meja yang masih dipakai reservasi aktif tidak boleh dihapus atau diperkecil
func TestReloadTablesKeepsConfirmedReservationsSeated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	router, db, svc := setupTableRouter(t, path)

	booked, err := svc.Book(context.Background(), time.Date(2024, 1, 1, 18, 0, 0, 0, msk), "Ivan", "+7900000000", 4)
	require.NoError(t, err)
	require.True(t, booked.OK)
	require.Equal(t, uint(2), booked.Table.ID)

	files := map[string]string{
		"shrunk": `
tables:
  - {id: 1, name: "Hall 1", capacity: 2, zone: hall}
  - {id: 2, name: "Hall 2", capacity: 2, zone: hall}
  - {id: 3, name: "Veranda 1", capacity: 6, zone: veranda}
`,
		"removed": `
tables:
  - {id: 1, name: "Hall 1", capacity: 2, zone: hall}
  - {id: 3, name: "Veranda 1", capacity: 6, zone: veranda}
`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			w, resp := doJSON(t, router, http.MethodPost, "/admin/tables/reload", nil)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.False(t, resp.Status)

			table, ok := svc.Inventory().Get(2)
			require.True(t, ok)
			assert.Equal(t, 4, table.Capacity)

			var stored models.Table
			require.NoError(t, db.First(&stored, 2).Error)
			assert.Equal(t, 4, stored.Capacity)
		})
	}

	// setelah dibatalkan, meja boleh diperkecil
	ok, err := svc.Cancel(context.Background(), "+7900000000", nil)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte(files["shrunk"]), 0o600))
	w, _ := doJSON(t, router, http.MethodPost, "/admin/tables/reload", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	table, _ := svc.Inventory().Get(2)
	assert.Equal(t, 2, table.Capacity)
	var stored models.Table
	require.NoError(t, db.First(&stored, 2).Error)
	assert.Equal(t, 2, stored.Capacity)
}

func TestReloadTablesRejectsDuplicateIDsWithoutWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tables:
  - {id: 1, name: "Hall 1", capacity: 2, zone: hall}
  - {id: 1, name: "Renamed", capacity: 9, zone: hall}
`), 0o600))

	router, db, svc := setupTableRouter(t, path)

	w, _ := doJSON(t, router, http.MethodPost, "/admin/tables/reload", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	table, _ := svc.Inventory().Get(1)
	assert.Equal(t, 2, table.Capacity)

	var stored models.Table
	require.NoError(t, db.First(&stored, 1).Error)
	assert.Equal(t, "Hall 1", stored.Name)
	assert.Equal(t, 2, stored.Capacity)
}
