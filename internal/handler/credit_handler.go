package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/errs"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/model"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/service"
)

// CreditHandler handles the credit REST API.
type CreditHandler struct {
	credits *service.CreditService
	logger  *zap.Logger
}

// NewCreditHandler creates a credit handler.
func NewCreditHandler(credits *service.CreditService, logger *zap.Logger) *CreditHandler {
	return &CreditHandler{credits: credits, logger: logger}
}

// GetBalance godoc
// GET /api/credits/:user_id
func (h *CreditHandler) GetBalance(c *gin.Context) {
	userID := c.Param("user_id")
	user, err := h.credits.GetUser(userID)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get balance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get credits"})
		return
	}
	c.JSON(http.StatusOK, model.CreditBalanceResponse{
		UserID:  user.ID,
		Credits: user.Credits,
		Plan:    user.Plan,
	})
}

// GetHistory godoc
// GET /api/credits/:user_id/history?limit=&offset=
func (h *CreditHandler) GetHistory(c *gin.Context) {
	userID := c.Param("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	sessions, total, err := h.credits.UsageHistory(userID, limit, offset)
	if err != nil {
		h.logger.Error("get usage history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get usage history"})
		return
	}
	views := make([]model.UsageSessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, model.UsageSessionView{
			ID:          s.ID,
			RoomCode:    s.RoomCode,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			CreditsUsed: s.CreditsUsed,
			Active:      s.TranslationActive,
		})
	}
	c.JSON(http.StatusOK, model.UsageHistoryResponse{
		Sessions: views,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// GetStats godoc
// GET /api/credits/:user_id/stats?period=7d|30d|90d
func (h *CreditHandler) GetStats(c *gin.Context) {
	userID := c.Param("user_id")
	period := c.DefaultQuery("period", "30d")
	days := 30
	switch period {
	case "7d":
		days = 7
	case "30d":
		days = 30
	case "90d":
		days = 90
	default:
		period = "30d"
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	sessions, used, err := h.credits.UsageStats(userID, since)
	if err != nil {
		h.logger.Error("get usage stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get usage stats"})
		return
	}
	var avg float64
	if sessions > 0 {
		avg = float64(used) / float64(sessions)
	}
	c.JSON(http.StatusOK, model.UsageStatsResponse{
		UserID:               userID,
		Period:               period,
		TotalSessions:        sessions,
		TotalCreditsUsed:     used,
		AvgCreditsPerSession: avg,
	})
}

// AddCredits godoc
// POST /api/credits/add
func (h *CreditHandler) AddCredits(c *gin.Context) {
	var req model.AddCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and amount are required"})
		return
	}
	balance, err := h.credits.AddCredits(req.UserID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, errs.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("add credits failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add credits"})
		}
		return
	}
	h.logger.Info("credits added",
		zap.String("user_id", req.UserID),
		zap.Int("amount", req.Amount),
		zap.String("reason", req.Reason))
	c.JSON(http.StatusOK, model.AddCreditsResponse{UserID: req.UserID, NewBalance: balance})
}
