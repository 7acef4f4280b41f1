package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
)

// CommandType names the command carried by a CommandEnvelope.
type CommandType string

const (
	CommandCheckAvailability CommandType = "CheckAvailability"
	CommandBook              CommandType = "Book"
	CommandCancel            CommandType = "Cancel"
	CommandChange            CommandType = "Change"
)

// CommandEnvelope is the single-endpoint form used by the chat layer.
type CommandEnvelope struct {
	Type    CommandType     `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

type CommandResponse struct {
	Type   CommandType     `json:"type"`
	Result services.Result `json:"result"`
}

// Execute -> POST /commands
func (rc *ReservationController) Execute(c *gin.Context) {
	var env CommandEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cmd, err := rc.decodeCommand(env)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := rc.Service.Execute(c.Request.Context(), cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, string(env.Type), CommandResponse{Type: env.Type, Result: result})
}

func (rc *ReservationController) decodeCommand(env CommandEnvelope) (services.Command, error) {
	switch env.Type {
	case CommandCheckAvailability:
		var req availabilityRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return nil, err
		}
		return rc.availabilityCommand(req)
	case CommandBook:
		var req bookRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return nil, err
		}
		return rc.bookCommand(req)
	case CommandCancel:
		var req cancelRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return nil, err
		}
		return rc.cancelCommand(req)
	case CommandChange:
		var req changeRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return nil, err
		}
		return rc.changeCommand(req)
	default:
		return nil, fmt.Errorf("%w: unknown command type %q", services.ErrInvalidInput, env.Type)
	}
}

func decodePayload(raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
	}
	return nil
}
