package model

import "time"

// CreateRoomRequest is the request body for POST /api/rooms.
type CreateRoomRequest struct {
	CreatedBy string `json:"created_by"`
}

// CreateRoomResponse is the response for POST /api/rooms.
type CreateRoomResponse struct {
	RoomCode string `json:"room_code"`
	RoomURL  string `json:"room_url,omitempty"`
}

// RoomInfoResponse is the response for GET /api/rooms/:roomCode.
type RoomInfoResponse struct {
	RoomCode         string    `json:"room_code"`
	Active           bool      `json:"active"`
	ParticipantCount int       `json:"participant_count"`
	LastActivity     time.Time `json:"last_activity"`
	CreatedAt        time.Time `json:"created_at"`
}

// ValidateRoomResponse is the response for GET /api/rooms/:roomCode/validate.
type ValidateRoomResponse struct {
	RoomCode string `json:"room_code"`
	Valid    bool   `json:"valid"`
	Exists   bool   `json:"exists"`
	Active   bool   `json:"active"`
}

// CreditBalanceResponse is the response for GET /api/credits/:user_id.
type CreditBalanceResponse struct {
	UserID  string `json:"user_id"`
	Credits int    `json:"credits"`
	Plan    string `json:"plan"`
}

// UsageHistoryResponse is the response for GET /api/credits/:user_id/history.
type UsageHistoryResponse struct {
	Sessions []UsageSessionView `json:"sessions"`
	Total    int64              `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// UsageSessionView is the API view of one usage session.
type UsageSessionView struct {
	ID          string     `json:"id"`
	RoomCode    string     `json:"room_code"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	CreditsUsed int        `json:"credits_used"`
	Active      bool       `json:"active"`
}

// UsageStatsResponse is the response for GET /api/credits/:user_id/stats.
type UsageStatsResponse struct {
	UserID               string  `json:"user_id"`
	Period               string  `json:"period"`
	TotalSessions        int64   `json:"total_sessions"`
	TotalCreditsUsed     int64   `json:"total_credits_used"`
	AvgCreditsPerSession float64 `json:"avg_credits_per_session"`
}

// AddCreditsRequest is the request body for POST /api/credits/add.
type AddCreditsRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount int    `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

// AddCreditsResponse is the response for POST /api/credits/add.
type AddCreditsResponse struct {
	UserID     string `json:"user_id"`
	NewBalance int    `json:"new_balance"`
}
