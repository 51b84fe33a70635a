package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/errs"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/model"
)

// PlanUnlimited is never debited; usage is still tracked.
const PlanUnlimited = "unlimited"

// CreditService is the account store boundary: balance reads, atomic debits
// and the credit usage session bookkeeping.
type CreditService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewCreditService creates a credit service.
func NewCreditService(db *gorm.DB, log *zap.Logger) *CreditService {
	return &CreditService{db: db, log: log}
}

// GetUser returns the account for userID, or ErrUserNotFound.
func (s *CreditService) GetUser(userID string) (*model.User, error) {
	var u model.User
	if err := s.db.Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetBalance returns userID's current credit balance.
func (s *CreditService) GetBalance(userID string) (int, error) {
	u, err := s.GetUser(userID)
	if err != nil {
		return 0, err
	}
	return u.Credits, nil
}

// Debit atomically deducts amount credits from userID. The deduction is a
// single conditional decrement so concurrent sessions for the same account
// (two tabs, two devices) can never interleave a read-then-write and lose an
// update. Returns ErrInsufficientCredits when the balance cannot cover the
// amount. Unlimited-plan accounts are never debited.
func (s *CreditService) Debit(userID string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: debit amount must be positive", errs.ErrValidation)
	}
	u, err := s.GetUser(userID)
	if err != nil {
		return err
	}
	if u.Plan == PlanUnlimited {
		return nil
	}
	res := s.db.Model(&model.User{}).
		Where("id = ? AND credits >= ?", userID, amount).
		Update("credits", gorm.Expr("credits - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrInsufficientCredits
	}
	return nil
}

// AddCredits adds amount credits to userID and returns the new balance.
func (s *CreditService) AddCredits(userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", errs.ErrValidation)
	}
	res := s.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("credits", gorm.Expr("credits + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, errs.ErrUserNotFound
	}
	return s.GetBalance(userID)
}

// OpenUsageSession creates an active usage session row. userID is nil for
// guest sessions.
func (s *CreditService) OpenUsageSession(userID *string, roomID *string, roomCode string) (*model.CreditUsageSession, error) {
	sess := model.CreditUsageSession{
		ID:                uuid.New().String(),
		UserID:            userID,
		RoomID:            roomID,
		RoomCode:          roomCode,
		StartTime:         time.Now().UTC(),
		TranslationActive: true,
	}
	if err := s.db.Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("open usage session: %w", err)
	}
	return &sess, nil
}

// IncrementUsage adds exactly one credit of usage to session sessionID,
// matching one applied debit.
func (s *CreditService) IncrementUsage(sessionID string) error {
	return s.db.Model(&model.CreditUsageSession{}).
		Where("id = ?", sessionID).
		Update("credits_used", gorm.Expr("credits_used + 1")).Error
}

// CloseUsageSession stamps the end time and clears the active flag. The
// tracked credits_used is kept as-is, never recomputed from elapsed time.
func (s *CreditService) CloseUsageSession(sessionID string) error {
	return s.db.Model(&model.CreditUsageSession{}).
		Where("id = ? AND translation_active", sessionID).
		Updates(map[string]any{
			"end_time":           time.Now().UTC(),
			"translation_active": false,
		}).Error
}

// UsageSession returns one usage session row.
func (s *CreditService) UsageSession(sessionID string) (*model.CreditUsageSession, error) {
	var sess model.CreditUsageSession
	if err := s.db.Where("id = ?", sessionID).First(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

// UsageStats aggregates userID's usage sessions started at or after since,
// returning the session count and the total credits used.
func (s *CreditService) UsageStats(userID string, since time.Time) (int64, int64, error) {
	var row struct {
		Sessions    int64
		CreditsUsed int64
	}
	err := s.db.Model(&model.CreditUsageSession{}).
		Select("COUNT(*) AS sessions, COALESCE(SUM(credits_used), 0) AS credits_used").
		Where("user_id = ? AND start_time >= ?", userID, since).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Sessions, row.CreditsUsed, nil
}

// UsageHistory returns userID's usage sessions, newest first.
func (s *CreditService) UsageHistory(userID string, limit, offset int) ([]model.CreditUsageSession, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var total int64
	if err := s.db.Model(&model.CreditUsageSession{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []model.CreditUsageSession
	if err := s.db.Where("user_id = ?", userID).
		Order("start_time DESC").Limit(limit).Offset(offset).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
