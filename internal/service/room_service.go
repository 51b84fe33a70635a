package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/errs"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/model"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/roomcode"
)

const (
	maxDisplayNameLen = 100
	maxLanguageLen    = 10
)

// RoomService owns room and participant membership: join, leave, member
// queries and the periodic cleanup of stale rooms. All counter mutations on
// one room are serialized through a per-room lock so concurrent joins and
// leaves never race the increment/decrement.
type RoomService struct {
	db        *gorm.DB
	log       *zap.Logger
	roomLocks sync.Map // room code -> *sync.Mutex
}

// NewRoomService creates a room service.
func NewRoomService(db *gorm.DB, log *zap.Logger) *RoomService {
	return &RoomService{db: db, log: log}
}

func (s *RoomService) lockRoom(code string) *sync.Mutex {
	mu, _ := s.roomLocks.LoadOrStore(code, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// validateField checks a user-supplied string for the given length bound and
// rejects control and markup characters.
func validateField(name, value string, maxLen int) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return fmt.Errorf("%w: %s is required", errs.ErrValidation, name)
	}
	if utf8.RuneCountInString(v) > maxLen {
		return fmt.Errorf("%w: %s too long (max %d)", errs.ErrValidation, name, maxLen)
	}
	for _, r := range v {
		if unicode.IsControl(r) || r == '<' || r == '>' {
			return fmt.Errorf("%w: %s contains invalid characters", errs.ErrValidation, name)
		}
	}
	return nil
}

// JoinRoom registers connID as a participant of roomCode, creating the room
// on first join. A connection that already has an active participant is
// rejected with ErrAlreadyJoined; it must leave first.
func (s *RoomService) JoinRoom(connID, code, displayName, listenLang, speakLang string) (*model.Participant, *model.Room, error) {
	if !roomcode.IsValid(code) {
		return nil, nil, errs.ErrInvalidRoomCode
	}
	if err := validateField("userName", displayName, maxDisplayNameLen); err != nil {
		return nil, nil, err
	}
	if err := validateField("language", listenLang, maxLanguageLen); err != nil {
		return nil, nil, err
	}
	if err := validateField("speakingLanguage", speakLang, maxLanguageLen); err != nil {
		return nil, nil, err
	}

	if existing, err := s.ParticipantByConnection(connID); err == nil && existing != nil {
		return nil, nil, errs.ErrAlreadyJoined
	} else if err != nil && !errors.Is(err, errs.ErrParticipantNotFound) {
		return nil, nil, err
	}

	mu := s.lockRoom(code)
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()
	var room model.Room
	err := s.db.Where("room_code = ?", code).First(&room).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		room = model.Room{
			ID:           uuid.New().String(),
			RoomCode:     code,
			CreatedBy:    displayName,
			Active:       true,
			LastActivity: now,
		}
		if err := s.db.Create(&room).Error; err != nil {
			return nil, nil, fmt.Errorf("create room: %w", err)
		}
	case err != nil:
		return nil, nil, fmt.Errorf("find room: %w", err)
	}

	participant := model.Participant{
		ID:               uuid.New().String(),
		ConnectionID:     connID,
		DisplayName:      strings.TrimSpace(displayName),
		ListenLanguage:   strings.TrimSpace(listenLang),
		SpeakingLanguage: strings.TrimSpace(speakLang),
		RoomID:           room.ID,
		Active:           true,
		JoinedAt:         now,
	}
	if err := s.db.Create(&participant).Error; err != nil {
		return nil, nil, fmt.Errorf("create participant: %w", err)
	}

	updates := map[string]any{
		"participant_count": gorm.Expr("participant_count + 1"),
		"active":            true,
		"last_activity":     now,
	}
	if err := s.db.Model(&model.Room{}).Where("id = ?", room.ID).Updates(updates).Error; err != nil {
		return nil, nil, fmt.Errorf("increment participants: %w", err)
	}
	room.ParticipantCount++
	room.Active = true
	room.LastActivity = now

	s.log.Info("participant joined",
		zap.String("conn_id", connID),
		zap.String("room_code", code),
		zap.String("listen_lang", participant.ListenLanguage),
		zap.String("speak_lang", participant.SpeakingLanguage))
	return &participant, &room, nil
}

// Leave deactivates connID's participant and decrements its room's count,
// deactivating the room when the count reaches zero. Safe to call multiple
// times; after the first call it is a no-op.
func (s *RoomService) Leave(connID string) (*model.Participant, *model.Room, error) {
	participant, err := s.ParticipantByConnection(connID)
	if err != nil {
		if errors.Is(err, errs.ErrParticipantNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var room model.Room
	if err := s.db.Where("id = ?", participant.RoomID).First(&room).Error; err != nil {
		return nil, nil, fmt.Errorf("find room: %w", err)
	}

	mu := s.lockRoom(room.RoomCode)
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()
	if err := s.db.Model(&model.Participant{}).
		Where("id = ? AND active", participant.ID).
		Updates(map[string]any{"active": false, "left_at": now}).Error; err != nil {
		return nil, nil, fmt.Errorf("deactivate participant: %w", err)
	}

	if err := s.db.Where("id = ?", room.ID).First(&room).Error; err != nil {
		return nil, nil, fmt.Errorf("reload room: %w", err)
	}
	count := room.ParticipantCount - 1
	if count < 0 {
		count = 0
	}
	updates := map[string]any{"participant_count": count}
	if count == 0 {
		updates["active"] = false
	}
	if err := s.db.Model(&model.Room{}).Where("id = ?", room.ID).Updates(updates).Error; err != nil {
		return nil, nil, fmt.Errorf("decrement participants: %w", err)
	}
	room.ParticipantCount = count
	if count == 0 {
		room.Active = false
	}

	participant.Active = false
	participant.LeftAt = &now
	s.log.Info("participant left",
		zap.String("conn_id", connID),
		zap.String("room_code", room.RoomCode))
	return participant, &room, nil
}

// RoomByCode returns the room for code, or ErrRoomNotFound.
func (s *RoomService) RoomByCode(code string) (*model.Room, error) {
	var room model.Room
	if err := s.db.Where("room_code = ?", code).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// RoomByID returns the room with the given id, or ErrRoomNotFound.
func (s *RoomService) RoomByID(id string) (*model.Room, error) {
	var room model.Room
	if err := s.db.Where("id = ?", id).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// ParticipantByConnection returns connID's active participant, or
// ErrParticipantNotFound.
func (s *RoomService) ParticipantByConnection(connID string) (*model.Participant, error) {
	var p model.Participant
	if err := s.db.Where("connection_id = ? AND active", connID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

// RoomParticipants returns the active participants of roomID.
func (s *RoomService) RoomParticipants(roomID string) ([]model.Participant, error) {
	var out []model.Participant
	if err := s.db.Where("room_id = ? AND active", roomID).Order("joined_at").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// TouchActivity refreshes roomID's last-activity timestamp.
func (s *RoomService) TouchActivity(roomID string) error {
	return s.db.Model(&model.Room{}).Where("id = ?", roomID).
		Update("last_activity", time.Now().UTC()).Error
}

// CreateRoom creates a room with a freshly generated code, retrying on the
// unlikely collision.
func (s *RoomService) CreateRoom(createdBy string) (*model.Room, error) {
	if createdBy == "" {
		createdBy = "anonymous"
	}
	for attempt := 0; attempt < 5; attempt++ {
		room := model.Room{
			ID:           uuid.New().String(),
			RoomCode:     roomcode.Generate(),
			CreatedBy:    createdBy,
			Active:       true,
			LastActivity: time.Now().UTC(),
		}
		err := s.db.Create(&room).Error
		if err == nil {
			return &room, nil
		}
		s.log.Warn("room code collision, retrying", zap.Error(err))
	}
	return nil, fmt.Errorf("could not allocate a unique room code")
}

// CleanupInactiveRooms deactivates active rooms whose last activity is older
// than age and returns the number of rooms affected.
func (s *RoomService) CleanupInactiveRooms(age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)
	res := s.db.Model(&model.Room{}).
		Where("active AND last_activity < ?", cutoff).
		Update("active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.log.Info("deactivated stale rooms", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}
