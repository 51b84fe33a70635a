package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/errs"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/model"
)

// meterSession is one connection's active billing interval. The ticker
// goroutine is owned by the session and is guaranteed cancelled on every
// exit path: explicit stop, depletion, disconnect and server shutdown.
type meterSession struct {
	connID  string
	userID  string // empty for guests
	usageID string
	used    atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

func (s *meterSession) cancel() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// MeteringService runs per-connection credit metering: while translation is
// active for a paying user, one credit is debited per tick interval. Guest
// sessions are opened for analytics but never tick.
type MeteringService struct {
	mu       sync.Mutex
	sessions map[string]*meterSession

	credits      *CreditService
	sender       EventSender
	log          *zap.Logger
	interval     time.Duration
	lowThreshold int
}

// NewMeteringService creates the metering service.
func NewMeteringService(credits *CreditService, sender EventSender, interval time.Duration, lowThreshold int, log *zap.Logger) *MeteringService {
	return &MeteringService{
		sessions:     make(map[string]*meterSession),
		credits:      credits,
		sender:       sender,
		log:          log,
		interval:     interval,
		lowThreshold: lowThreshold,
	}
}

// Start opens a metering session for connID. Paying users with a balance of
// zero or less are rejected up front with ErrInsufficientCredits; guests
// (empty userID) get an analytics-only session that never debits.
func (m *MeteringService) Start(connID, userID, roomCode string, roomID *string) error {
	balance := 0
	if userID != "" {
		bal, err := m.credits.GetBalance(userID)
		if err != nil {
			return err
		}
		if bal <= 0 {
			m.sender.Send(connID, model.CreditEvent{Type: model.EventInsufficientCredits, Balance: 0})
			return errs.ErrInsufficientCredits
		}
		balance = bal
	}

	m.mu.Lock()
	if _, exists := m.sessions[connID]; exists {
		m.mu.Unlock()
		return errs.ErrSessionActive
	}
	var uid *string
	if userID != "" {
		uid = &userID
	}
	usage, err := m.credits.OpenUsageSession(uid, roomID, roomCode)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	sess := &meterSession{
		connID:  connID,
		userID:  userID,
		usageID: usage.ID,
		stop:    make(chan struct{}),
	}
	m.sessions[connID] = sess
	m.mu.Unlock()

	if userID != "" {
		go m.run(sess)
	}

	m.log.Info("metering session started",
		zap.String("conn_id", connID),
		zap.String("user_id", userID),
		zap.String("room_code", roomCode),
		zap.Bool("guest", userID == ""))
	m.sender.Send(connID, model.CreditEvent{Type: model.EventSessionStarted, Balance: balance})
	return nil
}

func (m *MeteringService) run(s *meterSession) {
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			if ended := m.tick(s); ended {
				return
			}
		}
	}
}

// tick applies one billing cycle and reports whether the session ended.
// A transient store failure skips the debit and leaves the session running;
// the next tick retries.
func (m *MeteringService) tick(s *meterSession) bool {
	balance, err := m.credits.GetBalance(s.userID)
	if err != nil {
		m.log.Warn("balance read failed, skipping tick",
			zap.String("conn_id", s.connID), zap.Error(err))
		return false
	}
	if balance <= 0 {
		m.deplete(s)
		return true
	}

	if err := m.credits.Debit(s.userID, 1); err != nil {
		if errors.Is(err, errs.ErrInsufficientCredits) {
			// Another session drained the account between the read and the
			// debit.
			m.deplete(s)
			return true
		}
		m.log.Warn("debit failed, skipping tick",
			zap.String("conn_id", s.connID), zap.Error(err))
		return false
	}

	used := s.used.Add(1)
	if err := m.credits.IncrementUsage(s.usageID); err != nil {
		m.log.Warn("usage increment failed", zap.String("usage_id", s.usageID), zap.Error(err))
	}

	newBalance, err := m.credits.GetBalance(s.userID)
	if err != nil {
		newBalance = balance - 1
	}
	m.sender.Send(s.connID, model.CreditEvent{
		Type:    model.EventCreditUpdate,
		Balance: newBalance,
		Used:    int(used),
	})
	if newBalance > 0 && newBalance <= m.lowThreshold {
		m.sender.Send(s.connID, model.CreditEvent{Type: model.EventLowBalanceWarning, Balance: newBalance})
	}
	return false
}

// deplete ends the session because the account ran dry.
func (m *MeteringService) deplete(s *meterSession) {
	m.detach(s.connID)
	s.cancel()
	if err := m.credits.CloseUsageSession(s.usageID); err != nil {
		m.log.Warn("close usage session failed", zap.String("usage_id", s.usageID), zap.Error(err))
	}
	m.log.Info("metering session depleted",
		zap.String("conn_id", s.connID),
		zap.String("user_id", s.userID),
		zap.Int64("used", s.used.Load()))
	m.sender.Send(s.connID, model.CreditEvent{Type: model.EventDepleted, Balance: 0})
}

// detach removes the bookkeeping entry. Unconditional so a failing store
// call can never leak a live timer.
func (m *MeteringService) detach(connID string) *meterSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sessions[connID]
	delete(m.sessions, connID)
	return s
}

// Stop ends connID's session, reports final usage and balance to the
// connection and returns whether a session existed. Used both for an
// explicit stop and for connection teardown; calling it twice is a no-op
// the second time.
func (m *MeteringService) Stop(connID string) bool {
	s := m.detach(connID)
	if s == nil {
		return false
	}
	s.cancel()
	if err := m.credits.CloseUsageSession(s.usageID); err != nil {
		m.log.Warn("close usage session failed", zap.String("usage_id", s.usageID), zap.Error(err))
	}
	balance := 0
	if s.userID != "" {
		if bal, err := m.credits.GetBalance(s.userID); err == nil {
			balance = bal
		}
	}
	used := int(s.used.Load())
	m.log.Info("metering session stopped",
		zap.String("conn_id", connID),
		zap.Int("used", used))
	m.sender.Send(connID, model.CreditEvent{
		Type:    model.EventSessionEnded,
		Balance: balance,
		Used:    used,
	})
	return true
}

// StopAll tears down every active session, used on server shutdown.
func (m *MeteringService) StopAll() {
	m.mu.Lock()
	conns := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		conns = append(conns, id)
	}
	m.mu.Unlock()
	for _, id := range conns {
		m.Stop(id)
	}
}

// ActiveSessions returns the number of live metering sessions.
func (m *MeteringService) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
