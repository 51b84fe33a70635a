package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/errs"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/model"
)

func TestDebitDeductsBalance(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCreditService(db, testLogger())
	u := createUser(t, db, 30, "free")

	require.NoError(t, svc.Debit(u.ID, 1))
	bal, err := svc.GetBalance(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 29, bal)
}

func TestDebitRejectsInsufficientBalance(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCreditService(db, testLogger())
	u := createUser(t, db, 2, "free")

	err := svc.Debit(u.ID, 3)
	require.ErrorIs(t, err, errs.ErrInsufficientCredits)

	bal, err := svc.GetBalance(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, bal, "a rejected debit deducts nothing")
}

func TestDebitUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCreditService(db, testLogger())

	err := svc.Debit("00000000-0000-0000-0000-000000000000", 1)
	require.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestDebitRejectsNonPositiveAmount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCreditService(db, testLogger())
	u := createUser(t, db, 30, "free")

	require.ErrorIs(t, svc.Debit(u.ID, 0), errs.ErrValidation)
	require.ErrorIs(t, svc.Debit(u.ID, -5), errs.ErrValidation)
}

func TestDebitUnlimitedPlanIsFree(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCreditService(db, testLogger())
	u := createUser(t, db, 7, PlanUnlimited)

	for i := 0; i < 20; i++ {
		require.NoError(t, svc.Debit(u.ID, 1))
	}
	bal, err := svc.GetBalance(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, bal)
}

// Two sessions racing for the same account must never overdraw it: with a
// balance of N, exactly N single-credit debits succeed.
func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCreditService(db, testLogger())
	u := createUser(t, db, 10, "free")

	var succeeded, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := svc.Debit(u.ID, 1); {
			case err == nil:
				succeeded.Add(1)
			default:
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, succeeded.Load())
	assert.EqualValues(t, 15, rejected.Load())

	bal, err := svc.GetBalance(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, bal)
}

func TestAddCredits(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCreditService(db, testLogger())
	u := createUser(t, db, 5, "free")

	bal, err := svc.AddCredits(u.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 25, bal)

	_, err = svc.AddCredits(u.ID, 0)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.AddCredits("00000000-0000-0000-0000-000000000000", 5)
	require.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestUsageSessionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCreditService(db, testLogger())
	u := createUser(t, db, 30, "free")

	sess, err := svc.OpenUsageSession(&u.ID, nil, "abc-defg-hij")
	require.NoError(t, err)
	assert.True(t, sess.TranslationActive)
	assert.Nil(t, sess.EndTime)

	require.NoError(t, svc.IncrementUsage(sess.ID))
	require.NoError(t, svc.IncrementUsage(sess.ID))
	require.NoError(t, svc.CloseUsageSession(sess.ID))

	got, err := svc.UsageSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CreditsUsed, "closing keeps the tracked usage")
	assert.False(t, got.TranslationActive)
	require.NotNil(t, got.EndTime)
	assert.False(t, got.EndTime.Before(got.StartTime))

	// Closing twice leaves the first end time in place.
	first := *got.EndTime
	require.NoError(t, svc.CloseUsageSession(sess.ID))
	again, err := svc.UsageSession(sess.ID)
	require.NoError(t, err)
	assert.True(t, first.Equal(*again.EndTime))
}

func TestUsageStatsAggregatesWindow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCreditService(db, testLogger())
	u := createUser(t, db, 30, "free")

	open := func(creditsUsed int, age time.Duration) {
		sess, err := svc.OpenUsageSession(&u.ID, nil, "abc-defg-hij")
		require.NoError(t, err)
		require.NoError(t, db.Model(&model.CreditUsageSession{}).
			Where("id = ?", sess.ID).
			Updates(map[string]any{
				"credits_used": creditsUsed,
				"start_time":   time.Now().UTC().Add(-age),
			}).Error)
	}
	open(3, time.Hour)
	open(5, 48*time.Hour)
	open(100, 40*24*time.Hour) // outside a 30 day window

	since := time.Now().UTC().AddDate(0, 0, -30)
	sessions, used, err := svc.UsageStats(u.ID, since)
	require.NoError(t, err)
	assert.EqualValues(t, 2, sessions)
	assert.EqualValues(t, 8, used)

	// No sessions in range comes back as zeros, not an error.
	sessions, used, err = svc.UsageStats(uuid.New().String(), since)
	require.NoError(t, err)
	assert.Zero(t, sessions)
	assert.Zero(t, used)
}

func TestUsageHistoryPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCreditService(db, testLogger())
	u := createUser(t, db, 30, "free")

	for i := 0; i < 5; i++ {
		_, err := svc.OpenUsageSession(&u.ID, nil, "abc-defg-hij")
		require.NoError(t, err)
	}
	// A guest session does not show up in any user's history.
	_, err := svc.OpenUsageSession(nil, nil, "abc-defg-hij")
	require.NoError(t, err)

	sessions, total, err := svc.UsageHistory(u.ID, 3, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, sessions, 3)

	rest, total, err := svc.UsageHistory(u.ID, 3, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, rest, 2)
}
