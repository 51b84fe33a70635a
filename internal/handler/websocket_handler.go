package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/errs"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/model"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/service"
)

// SignalWSHandler runs the per-connection event loop on /ws: membership,
// WebRTC signaling relay, transcript fan-out and credit metering all hang
// off the connection registered here, and all of it is torn down when the
// socket goes away.
type SignalWSHandler struct {
	hub         *service.ConnHub
	rooms       *service.RoomService
	relay       *service.SignalingRelay
	transcripts *service.TranscriptService
	metering    *service.MeteringService
	limiter     *service.RateLimiter
	logger      *zap.Logger
}

// NewSignalWSHandler creates the WebSocket signaling handler.
func NewSignalWSHandler(
	hub *service.ConnHub,
	rooms *service.RoomService,
	relay *service.SignalingRelay,
	transcripts *service.TranscriptService,
	metering *service.MeteringService,
	limiter *service.RateLimiter,
	logger *zap.Logger,
) *SignalWSHandler {
	return &SignalWSHandler{
		hub:         hub,
		rooms:       rooms,
		relay:       relay,
		transcripts: transcripts,
		metering:    metering,
		limiter:     limiter,
		logger:      logger,
	}
}

// ServeWS upgrades the request and runs the connection's event loop until
// disconnect.
func (h *SignalWSHandler) ServeWS(c *gin.Context) {
	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.New().String()
	peer, cleanup := h.hub.Register(connID, conn)
	defer cleanup()
	defer h.teardown(connID)

	go h.writePump(peer)
	h.readPump(c.Request.Context(), peer)
}

// teardown releases every per-connection resource. The metering session is
// stopped before membership is dropped so its final events can still reach
// a half-open socket; all steps run regardless of individual failures.
func (h *SignalWSHandler) teardown(connID string) {
	h.metering.Stop(connID)
	h.limiter.Forget(connID)

	participant, room, err := h.rooms.Leave(connID)
	if err != nil {
		h.logger.Warn("leave on disconnect failed", zap.String("conn_id", connID), zap.Error(err))
		return
	}
	if participant != nil && room != nil {
		h.broadcastToRoom(room.ID, connID, model.UserLeftEvent{Type: model.EventUserLeft, UserID: connID})
	}
}

func (h *SignalWSHandler) readPump(ctx context.Context, p *service.Peer) {
	for {
		_, data, err := p.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.String("conn_id", p.ID), zap.Error(err))
			}
			return
		}
		h.dispatch(ctx, p.ID, data)
	}
}

func (h *SignalWSHandler) writePump(p *service.Peer) {
	defer func() {
		_ = p.Conn.Close()
	}()
	for data := range p.Send {
		if err := p.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// dispatch routes one inbound frame. Events from one connection are handled
// sequentially here, which keeps a sender's transcripts ordered per
// recipient; other connections run their own loops concurrently.
func (h *SignalWSHandler) dispatch(ctx context.Context, connID string, data []byte) {
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.sendError(connID, "bad payload")
		return
	}

	switch env.Type {
	case model.EventJoin:
		var p model.JoinPayload
		if err := json.Unmarshal(data, &p); err != nil {
			h.sendError(connID, "bad payload")
			return
		}
		h.handleJoin(connID, p)
	case model.EventLeave:
		h.handleLeave(connID)
	case model.EventOffer, model.EventAnswer, model.EventICECandidate:
		var p model.SignalPayload
		if err := json.Unmarshal(data, &p); err != nil {
			h.sendError(connID, "bad payload")
			return
		}
		h.relay.Forward(connID, env.Type, p)
	case model.EventTranscript:
		var p model.TranscriptPayload
		if err := json.Unmarshal(data, &p); err != nil {
			h.sendError(connID, "bad payload")
			return
		}
		_ = h.transcripts.HandleTranscript(ctx, connID, p)
	case model.EventStartTranslation:
		var p model.StartTranslationPayload
		if err := json.Unmarshal(data, &p); err != nil {
			h.sendError(connID, "bad payload")
			return
		}
		h.handleStartTranslation(connID, p)
	case model.EventStopTranslation:
		h.metering.Stop(connID)
	default:
		h.sendError(connID, "unknown event type")
	}
}

func (h *SignalWSHandler) handleJoin(connID string, p model.JoinPayload) {
	participant, room, err := h.rooms.JoinRoom(connID, p.RoomCode, p.DisplayName, p.ListenLanguage, p.SpeakingLanguage)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrAlreadyJoined):
			h.sendError(connID, "already joined a room, leave first")
		case errors.Is(err, errs.ErrInvalidRoomCode):
			h.sendError(connID, "invalid room code format, expected abc-defg-hij")
		case errors.Is(err, errs.ErrValidation):
			h.sendError(connID, err.Error())
		default:
			h.logger.Error("join failed", zap.String("conn_id", connID), zap.Error(err))
			h.sendError(connID, "failed to join room")
		}
		return
	}

	others, err := h.rooms.RoomParticipants(room.ID)
	if err != nil {
		h.logger.Warn("list participants failed", zap.Error(err))
		others = nil
	}

	existing := make([]model.ParticipantInfo, 0, len(others))
	for _, o := range others {
		if o.ConnectionID == connID {
			continue
		}
		existing = append(existing, model.ParticipantInfo{
			UserID:           o.ConnectionID,
			DisplayName:      o.DisplayName,
			ListenLanguage:   o.ListenLanguage,
			SpeakingLanguage: o.SpeakingLanguage,
		})
		h.hub.Send(o.ConnectionID, model.UserJoinedEvent{
			Type: model.EventUserJoined,
			ParticipantInfo: model.ParticipantInfo{
				UserID:           connID,
				DisplayName:      participant.DisplayName,
				ListenLanguage:   participant.ListenLanguage,
				SpeakingLanguage: participant.SpeakingLanguage,
			},
		})
	}

	h.hub.Send(connID, model.ExistingUsersEvent{Type: model.EventExistingUsers, Users: existing})
	h.hub.Send(connID, model.RoomJoinedEvent{
		Type:             model.EventRoomJoined,
		RoomCode:         room.RoomCode,
		ParticipantCount: room.ParticipantCount,
	})
}

func (h *SignalWSHandler) handleLeave(connID string) {
	participant, room, err := h.rooms.Leave(connID)
	if err != nil {
		h.logger.Warn("leave failed", zap.String("conn_id", connID), zap.Error(err))
		return
	}
	if participant == nil || room == nil {
		return
	}
	h.broadcastToRoom(room.ID, connID, model.UserLeftEvent{Type: model.EventUserLeft, UserID: connID})
}

func (h *SignalWSHandler) handleStartTranslation(connID string, p model.StartTranslationPayload) {
	roomCode := p.RoomCode
	var roomID *string
	if participant, err := h.rooms.ParticipantByConnection(connID); err == nil {
		roomID = &participant.RoomID
		if roomCode == "" {
			if room, err := h.rooms.RoomByID(participant.RoomID); err == nil {
				roomCode = room.RoomCode
			}
		}
	}

	if err := h.metering.Start(connID, p.UserID, roomCode, roomID); err != nil {
		switch {
		case errors.Is(err, errs.ErrInsufficientCredits):
			// insufficient-credits event already sent by the service
		case errors.Is(err, errs.ErrSessionActive):
			h.sendError(connID, "translation session already active")
		case errors.Is(err, errs.ErrUserNotFound):
			h.sendError(connID, "unknown user")
		default:
			h.logger.Error("start translation failed", zap.String("conn_id", connID), zap.Error(err))
			h.sendError(connID, "failed to start translation")
		}
	}
}

func (h *SignalWSHandler) broadcastToRoom(roomID, excludeConnID string, event any) {
	participants, err := h.rooms.RoomParticipants(roomID)
	if err != nil {
		h.logger.Warn("broadcast: list participants failed", zap.Error(err))
		return
	}
	for _, p := range participants {
		if p.ConnectionID == excludeConnID {
			continue
		}
		h.hub.Send(p.ConnectionID, event)
	}
}

func (h *SignalWSHandler) sendError(connID, msg string) {
	h.hub.Send(connID, model.ErrorEvent{Type: model.EventError, Message: msg})
}
