package model

import "time"

// Room is a call room keyed by its shareable code (GORM).
type Room struct {
	ID               string    `gorm:"type:uuid;primaryKey"`
	RoomCode         string    `gorm:"size:20;not null;uniqueIndex"`
	CreatedBy        string    `gorm:"size:100;not null;default:anonymous"`
	Active           bool      `gorm:"not null;default:true;index"`
	ParticipantCount int       `gorm:"not null;default:0"`
	LastActivity     time.Time `gorm:"not null;index"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (Room) TableName() string { return "rooms" }

// Participant is one connection's membership in a room. Rows are kept on
// leave (active=false, left_at set) to preserve history.
type Participant struct {
	ID               string     `gorm:"type:uuid;primaryKey"`
	ConnectionID     string     `gorm:"size:100;not null;index:idx_participants_conn_active,unique,where:active"`
	DisplayName      string     `gorm:"size:100;not null"`
	ListenLanguage   string     `gorm:"size:10;not null"`
	SpeakingLanguage string     `gorm:"size:10;not null"`
	RoomID           string     `gorm:"type:uuid;not null;index"`
	Active           bool       `gorm:"not null;default:true;index"`
	JoinedAt         time.Time  `gorm:"not null"`
	LeftAt           *time.Time `gorm:"column:left_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`
}

func (Participant) TableName() string { return "participants" }

// User is a billing account. Signup grants 30 free credits (30 minutes of
// translation); the unlimited plan is never debited.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"size:255;not null;uniqueIndex"`
	Name      string    `gorm:"size:100;not null"`
	Credits   int       `gorm:"not null;default:30"`
	Plan      string    `gorm:"size:20;not null;default:free"` // free, pro, unlimited
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// CreditUsageSession is one contiguous interval of active translation
// billing. CreditsUsed counts successful debits only and is never
// recomputed from elapsed wall clock.
type CreditUsageSession struct {
	ID                string     `gorm:"type:uuid;primaryKey"`
	UserID            *string    `gorm:"type:uuid;index"` // nil for guest sessions
	RoomID            *string    `gorm:"type:uuid"`
	RoomCode          string     `gorm:"size:20;not null"`
	StartTime         time.Time  `gorm:"not null"`
	EndTime           *time.Time `gorm:"column:end_time"`
	CreditsUsed       int        `gorm:"not null;default:0"`
	TranslationActive bool       `gorm:"not null;default:true"`
	CreatedAt         time.Time  `gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime"`
}

func (CreditUsageSession) TableName() string { return "credit_usage_sessions" }

// TranslationLog is an analytics-only audit row for one delivered
// translation. Append failures are swallowed.
type TranslationLog struct {
	ID               string    `gorm:"type:uuid;primaryKey"`
	RoomID           string    `gorm:"type:uuid;not null;index"`
	OriginalText     string    `gorm:"type:text;not null"`
	TranslatedText   string    `gorm:"type:text;not null"`
	SourceLanguage   string    `gorm:"size:10;not null"`
	TargetLanguage   string    `gorm:"size:10;not null"`
	FromConnectionID string    `gorm:"size:100;not null"`
	ToConnectionID   string    `gorm:"size:100;not null"`
	LatencyMS        int64     `gorm:"not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

func (TranslationLog) TableName() string { return "translation_logs" }
