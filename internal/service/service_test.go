package service

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/model"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// A single connection keeps the shared in-memory database visible to
	// every goroutine in concurrency tests.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{},
		&model.Room{},
		&model.Participant{},
		&model.CreditUsageSession{},
		&model.TranslationLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// sentEvent is one event captured by recorderSender.
type sentEvent struct {
	ConnID string
	Event  any
}

// recorderSender is an EventSender that records everything it is asked to
// deliver.
type recorderSender struct {
	mu     sync.Mutex
	events []sentEvent
}

func (r *recorderSender) Send(connID string, event any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{ConnID: connID, Event: event})
	return true
}

func (r *recorderSender) all() []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sentEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorderSender) byConn(connID string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, e := range r.events {
		if e.ConnID == connID {
			out = append(out, e.Event)
		}
	}
	return out
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
