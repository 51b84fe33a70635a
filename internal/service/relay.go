package service

import (
	"go.uber.org/zap"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/model"
)

// SignalingRelay forwards WebRTC negotiation payloads (offer, answer, ICE
// candidate) verbatim to a target connection, tagged with the sender id.
// Delivery is best-effort: if the target is gone the payload is dropped and
// the sender is not told, matching the unreliable signaling contract.
type SignalingRelay struct {
	hub *ConnHub
	log *zap.Logger
}

// NewSignalingRelay creates a relay on top of the connection hub.
func NewSignalingRelay(hub *ConnHub, log *zap.Logger) *SignalingRelay {
	return &SignalingRelay{hub: hub, log: log}
}

// Forward delivers one signaling payload of the given event type from
// senderID to the payload's target.
func (r *SignalingRelay) Forward(senderID, eventType string, p model.SignalPayload) {
	if p.To == "" {
		return
	}
	delivered := r.hub.Send(p.To, model.SignalEvent{
		Type:      eventType,
		From:      senderID,
		Offer:     p.Offer,
		Answer:    p.Answer,
		Candidate: p.Candidate,
	})
	if !delivered {
		r.log.Debug("signal dropped, target not connected",
			zap.String("type", eventType),
			zap.String("from", senderID),
			zap.String("to", p.To))
	}
}
