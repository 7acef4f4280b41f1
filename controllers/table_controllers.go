package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/config"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
)

type TableController struct {
	Reservations *services.ReservationService
	TablesFile   string
}

func NewTableController(reservations *services.ReservationService, tablesFile string) *TableController {
	return &TableController{Reservations: reservations, TablesFile: tablesFile}
}

// GetAllTables -> current inventory, smallest tables first
func (tc *TableController) GetAllTables(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "List of tables", tc.Reservations.Inventory().All())
}

// GetTableByID -> GET /tables/:table_id
func (tc *TableController) GetTableByID(c *gin.Context) {
	var uri struct {
		TableID uint `uri:"table_id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, ok := tc.Reservations.Inventory().Get(uri.TableID)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("table %d not found", uri.TableID))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// ReloadTables -> re-reads the inventory file and swaps the whole set.
// A file that would unseat a confirmed reservation is refused with 422.
func (tc *TableController) ReloadTables(c *gin.Context) {
	tables, err := config.LoadTables(tc.TablesFile)
	if err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}

	if err := tc.Reservations.ReloadInventory(c.Request.Context(), tables); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			utils.RespondError(c, http.StatusUnprocessableEntity, err)
			return
		}
		respondServiceError(c, err)
		return
	}

	inventory := tc.Reservations.Inventory()
	utils.InfoLogger.Printf("Table inventory reloaded: %d tables", inventory.Len())
	utils.RespondJSON(c, http.StatusOK, "Tables reloaded", inventory.All())
}
