package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/errs"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/model"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/roomcode"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/service"
)

// RoomHandler handles the room REST API.
type RoomHandler struct {
	rooms   *service.RoomService
	baseURL string
	logger  *zap.Logger
}

// NewRoomHandler creates a room handler. baseURL, when set, is prepended to
// room links in responses.
func NewRoomHandler(rooms *service.RoomService, baseURL string, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{rooms: rooms, baseURL: baseURL, logger: logger}
}

// CreateRoom godoc
// POST /api/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	// An empty body is fine; created_by defaults to anonymous.
	var req model.CreateRoomRequest
	_ = c.ShouldBindJSON(&req)
	room, err := h.rooms.CreateRoom(req.CreatedBy)
	if err != nil {
		h.logger.Error("create room failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}
	resp := model.CreateRoomResponse{RoomCode: room.RoomCode}
	if h.baseURL != "" {
		resp.RoomURL = h.baseURL + "/room/" + room.RoomCode
	}
	c.JSON(http.StatusCreated, resp)
}

// GetRoom godoc
// GET /api/rooms/:roomCode
func (h *RoomHandler) GetRoom(c *gin.Context) {
	code := c.Param("roomCode")
	if !roomcode.IsValid(code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room code format, expected abc-defg-hij"})
		return
	}
	room, err := h.rooms.RoomByCode(code)
	if err != nil {
		if errors.Is(err, errs.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		h.logger.Error("get room failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get room"})
		return
	}
	c.JSON(http.StatusOK, model.RoomInfoResponse{
		RoomCode:         room.RoomCode,
		Active:           room.Active,
		ParticipantCount: room.ParticipantCount,
		LastActivity:     room.LastActivity,
		CreatedAt:        room.CreatedAt,
	})
}

// ValidateRoom godoc
// GET /api/rooms/:roomCode/validate
func (h *RoomHandler) ValidateRoom(c *gin.Context) {
	code := c.Param("roomCode")
	resp := model.ValidateRoomResponse{RoomCode: code, Valid: roomcode.IsValid(code)}
	if resp.Valid {
		if room, err := h.rooms.RoomByCode(code); err == nil {
			resp.Exists = true
			resp.Active = room.Active
		}
	}
	c.JSON(http.StatusOK, resp)
}
