package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/errs"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/model"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/translate"
)

const maxTranscriptLen = 5000

// EventSender delivers one event to one connection, best-effort.
type EventSender interface {
	Send(connID string, event any) bool
}

// TranscriptService fans one sender's transcript out to every other room
// member, translating per recipient language. Recipients within one event
// are served concurrently; successive events from one sender are processed
// sequentially by its connection's read loop, which preserves per-recipient
// order.
type TranscriptService struct {
	db         *gorm.DB
	rooms      *RoomService
	limiter    *RateLimiter
	translator translate.Translator
	sender     EventSender
	log        *zap.Logger
}

// NewTranscriptService creates the fan-out pipeline.
func NewTranscriptService(db *gorm.DB, rooms *RoomService, limiter *RateLimiter, tr translate.Translator, sender EventSender, log *zap.Logger) *TranscriptService {
	return &TranscriptService{
		db:         db,
		rooms:      rooms,
		limiter:    limiter,
		translator: tr,
		sender:     sender,
		log:        log,
	}
}

// HandleTranscript processes one transcript event from connID. Translator
// failures never surface to the sender: affected recipients get the original
// text instead.
func (s *TranscriptService) HandleTranscript(ctx context.Context, connID string, p model.TranscriptPayload) error {
	if p.Text == "" || len(p.Text) > maxTranscriptLen {
		s.sender.Send(connID, model.ErrorEvent{Type: model.EventError, Message: "text must be 1-5000 characters"})
		return errs.ErrValidation
	}

	if !s.limiter.Allow(connID) {
		retry := s.limiter.RetryAfter(connID)
		s.log.Warn("transcript rate limit exceeded",
			zap.String("conn_id", connID),
			zap.Int("retry_after", retry))
		s.sender.Send(connID, model.RateLimitedEvent{
			Type:              model.EventRateLimited,
			Message:           "Translation rate limit exceeded. Please slow down.",
			RetryAfterSeconds: retry,
		})
		return nil
	}

	room, err := s.rooms.RoomByCode(p.RoomCode)
	if err != nil {
		if errors.Is(err, errs.ErrRoomNotFound) {
			// Sender may hold stale room state; not reported so room
			// existence is not leaked.
			s.log.Debug("transcript for unknown room dropped",
				zap.String("conn_id", connID),
				zap.String("room_code", p.RoomCode))
			return nil
		}
		return err
	}

	participants, err := s.rooms.RoomParticipants(room.ID)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, recipient := range participants {
		if recipient.ConnectionID == connID {
			continue
		}
		wg.Add(1)
		go func(recipient model.Participant) {
			defer wg.Done()
			s.deliver(ctx, room.ID, connID, p, recipient)
		}(recipient)
	}
	wg.Wait()

	if err := s.rooms.TouchActivity(room.ID); err != nil {
		s.log.Warn("refresh room activity", zap.Error(err))
	}
	return nil
}

// deliver translates (when needed) and sends the transcript to one
// recipient, falling back to the original text on any translator error.
func (s *TranscriptService) deliver(ctx context.Context, roomID, fromConnID string, p model.TranscriptPayload, recipient model.Participant) {
	event := model.TranslatedTextEvent{
		Type:         model.EventTranslatedText,
		Original:     p.Text,
		Translated:   p.Text,
		From:         fromConnID,
		FromLanguage: p.Language,
		ToLanguage:   recipient.ListenLanguage,
	}

	if recipient.ListenLanguage != p.Language {
		start := time.Now()
		translated, err := s.translator.Translate(ctx, p.Text, recipient.ListenLanguage, p.Language)
		latency := time.Since(start)
		if err != nil {
			s.log.Warn("translation failed, delivering original text",
				zap.String("from", p.Language),
				zap.String("to", recipient.ListenLanguage),
				zap.Error(err))
		} else {
			event.Translated = translated
			s.audit(roomID, fromConnID, recipient.ConnectionID, p, translated, recipient.ListenLanguage, latency)
		}
	}

	s.sender.Send(recipient.ConnectionID, event)
}

// audit appends a translation log row. Analytics only; failures are logged
// and swallowed.
func (s *TranscriptService) audit(roomID, fromConnID, toConnID string, p model.TranscriptPayload, translated, targetLang string, latency time.Duration) {
	row := model.TranslationLog{
		ID:               uuid.New().String(),
		RoomID:           roomID,
		OriginalText:     p.Text,
		TranslatedText:   translated,
		SourceLanguage:   p.Language,
		TargetLanguage:   targetLang,
		FromConnectionID: fromConnID,
		ToConnectionID:   toConnID,
		LatencyMS:        latency.Milliseconds(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		s.log.Warn("translation log append failed", zap.Error(err))
	}
}
