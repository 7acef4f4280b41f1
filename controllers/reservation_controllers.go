package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
)

type ReservationController struct {
	Service *services.ReservationService
}

func NewReservationController(svc *services.ReservationService) *ReservationController {
	return &ReservationController{Service: svc}
}

type bookRequest struct {
	Slot        string `json:"slot" binding:"required"`
	ClientName  string `json:"client_name" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	GuestsCount *int   `json:"guests_count"`
}

type cancelRequest struct {
	PhoneNumber string  `json:"phone_number" binding:"required"`
	Slot        *string `json:"slot"`
}

type changeRequest struct {
	PhoneNumber string  `json:"phone_number" binding:"required"`
	OldSlot     *string `json:"old_slot"`
	NewSlot     string  `json:"new_slot" binding:"required"`
}

type availabilityRequest struct {
	Slot        string `json:"slot" form:"slot" binding:"required"`
	GuestsCount *int   `json:"guests_count" form:"guests"`
}

// CheckAvailability -> GET /availability?slot=...&guests=...
func (rc *ReservationController) CheckAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cmd, err := rc.availabilityCommand(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := rc.Service.CheckAvailability(c.Request.Context(), cmd.Slot, rc.Service.GuestsOrDefault(cmd.Guests))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "Slot is available"
	if !result.Available {
		message = "Slot is fully booked"
	}
	utils.RespondJSON(c, http.StatusOK, message, result)
}

// Book -> POST /reservations
func (rc *ReservationController) Book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cmd, err := rc.bookCommand(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := rc.Service.Book(c.Request.Context(), cmd.Slot, cmd.ClientName, cmd.Phone, rc.Service.GuestsOrDefault(cmd.Guests))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if !result.OK {
		utils.RespondJSON(c, http.StatusConflict, "No table available for this slot", result)
		return
	}

	utils.InfoLogger.Printf("Reservation %d booked: table %d at %s", result.Reservation.ID, result.Table.ID, result.NormalizedSlot.Format(time.RFC3339))
	utils.RespondJSON(c, http.StatusCreated, "Reservation confirmed", result)
}

// Cancel -> POST /reservations/cancel
func (rc *ReservationController) Cancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cmd, err := rc.cancelCommand(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	cancelled, err := rc.Service.Cancel(c.Request.Context(), cmd.Phone, cmd.Slot)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "Reservation cancelled"
	if !cancelled {
		message = "Nothing to cancel"
	}
	utils.RespondJSON(c, http.StatusOK, message, services.CancelResult{Cancelled: cancelled})
}

// Change -> POST /reservations/change
func (rc *ReservationController) Change(c *gin.Context) {
	var req changeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cmd, err := rc.changeCommand(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := rc.Service.Change(c.Request.Context(), cmd.Phone, cmd.OldSlot, cmd.NewSlot)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	switch result.Reason {
	case services.ReasonNotFound:
		utils.RespondJSON(c, http.StatusNotFound, "No active reservation for this phone number", result)
	case services.ReasonNoTable:
		utils.RespondJSON(c, http.StatusConflict, "No table available for the new slot", result)
	default:
		utils.RespondJSON(c, http.StatusOK, "Reservation changed", result)
	}
}

// GetAllReservations -> GET /admin/reservations?status=...&phone=...
func (rc *ReservationController) GetAllReservations(c *gin.Context) {
	filter := services.ReservationFilter{PhoneNumber: strings.TrimSpace(c.Query("phone"))}

	switch status := models.ReservationStatus(c.Query("status")); status {
	case "", models.StatusConfirmed, models.StatusCancelled:
		filter.Status = status
	default:
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("%w: unknown status %q", services.ErrInvalidInput, status))
		return
	}

	reservations, err := rc.Service.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

// GetReservationByID -> GET /admin/reservations/:reservation_id
func (rc *ReservationController) GetReservationByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("reservation_id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("%w: invalid reservation id", services.ErrInvalidInput))
		return
	}

	reservation, err := rc.Service.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
}

func (rc *ReservationController) parseOptionalSlot(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	slot, err := rc.Service.Normalizer().ParseSlot(*raw)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (rc *ReservationController) availabilityCommand(req availabilityRequest) (services.CheckAvailabilityCommand, error) {
	slot, err := rc.Service.Normalizer().ParseSlot(req.Slot)
	if err != nil {
		return services.CheckAvailabilityCommand{}, err
	}
	return services.CheckAvailabilityCommand{Slot: slot, Guests: req.GuestsCount}, nil
}

func (rc *ReservationController) bookCommand(req bookRequest) (services.BookCommand, error) {
	slot, err := rc.Service.Normalizer().ParseSlot(req.Slot)
	if err != nil {
		return services.BookCommand{}, err
	}
	return services.BookCommand{
		Slot:       slot,
		ClientName: req.ClientName,
		Phone:      req.PhoneNumber,
		Guests:     req.GuestsCount,
	}, nil
}

func (rc *ReservationController) cancelCommand(req cancelRequest) (services.CancelCommand, error) {
	slot, err := rc.parseOptionalSlot(req.Slot)
	if err != nil {
		return services.CancelCommand{}, err
	}
	return services.CancelCommand{Phone: req.PhoneNumber, Slot: slot}, nil
}

func (rc *ReservationController) changeCommand(req changeRequest) (services.ChangeCommand, error) {
	oldSlot, err := rc.parseOptionalSlot(req.OldSlot)
	if err != nil {
		return services.ChangeCommand{}, err
	}
	newSlot, err := rc.Service.Normalizer().ParseSlot(req.NewSlot)
	if err != nil {
		return services.ChangeCommand{}, err
	}
	return services.ChangeCommand{Phone: req.PhoneNumber, OldSlot: oldSlot, NewSlot: newSlot}, nil
}
