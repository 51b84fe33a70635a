package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/model"
)

// fakeTranslator records calls and returns a canned translation or error.
type fakeTranslator struct {
	mu    sync.Mutex
	calls []translateCall
	out   string
	err   error
}

type translateCall struct {
	Text, Target, Source string
}

func (f *fakeTranslator) Name() string { return "fake" }

func (f *fakeTranslator) Translate(_ context.Context, text, targetLang, sourceLang string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, translateCall{Text: text, Target: targetLang, Source: sourceLang})
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTranscriptFixture(t *testing.T, tr *fakeTranslator) (*TranscriptService, *RoomService, *recorderSender) {
	db := setupTestDB(t)
	rooms := NewRoomService(db, testLogger())
	limiter := NewRateLimiter(20, time.Minute)
	sender := &recorderSender{}
	svc := NewTranscriptService(db, rooms, limiter, tr, sender, testLogger())
	return svc, rooms, sender
}

func TestFanoutTranslatesPerRecipientLanguage(t *testing.T) {
	tr := &fakeTranslator{out: "bonjour"}
	svc, rooms, sender := newTranscriptFixture(t, tr)

	_, _, err := rooms.JoinRoom("sender", "abc-defg-hij", "Alice", "en", "en")
	require.NoError(t, err)
	_, _, err = rooms.JoinRoom("en-listener", "abc-defg-hij", "Bob", "en", "en")
	require.NoError(t, err)
	_, _, err = rooms.JoinRoom("fr-listener", "abc-defg-hij", "Chloe", "fr", "fr")
	require.NoError(t, err)

	err = svc.HandleTranscript(context.Background(), "sender", model.TranscriptPayload{
		RoomCode: "abc-defg-hij",
		Text:     "hello",
		Language: "en",
	})
	require.NoError(t, err)

	// The translator ran exactly once, for the fr listener.
	require.Equal(t, 1, tr.callCount())
	assert.Equal(t, translateCall{Text: "hello", Target: "fr", Source: "en"}, tr.calls[0])

	// Same-language listener got the original, untranslated.
	enEvents := sender.byConn("en-listener")
	require.Len(t, enEvents, 1)
	enEvt := enEvents[0].(model.TranslatedTextEvent)
	assert.Equal(t, "hello", enEvt.Original)
	assert.Equal(t, "hello", enEvt.Translated)
	assert.Equal(t, "sender", enEvt.From)

	frEvents := sender.byConn("fr-listener")
	require.Len(t, frEvents, 1)
	frEvt := frEvents[0].(model.TranslatedTextEvent)
	assert.Equal(t, "hello", frEvt.Original)
	assert.Equal(t, "bonjour", frEvt.Translated)
	assert.Equal(t, "en", frEvt.FromLanguage)
	assert.Equal(t, "fr", frEvt.ToLanguage)

	// The sender hears nothing back.
	assert.Empty(t, sender.byConn("sender"))
}

func TestFanoutFallsBackToOriginalOnTranslatorFailure(t *testing.T) {
	tr := &fakeTranslator{err: errors.New("upstream timeout")}
	svc, rooms, sender := newTranscriptFixture(t, tr)

	_, _, err := rooms.JoinRoom("sender", "abc-defg-hij", "Alice", "en", "en")
	require.NoError(t, err)
	_, _, err = rooms.JoinRoom("fr-listener", "abc-defg-hij", "Chloe", "fr", "fr")
	require.NoError(t, err)

	err = svc.HandleTranscript(context.Background(), "sender", model.TranscriptPayload{
		RoomCode: "abc-defg-hij",
		Text:     "hello",
		Language: "en",
	})
	require.NoError(t, err, "translator failure is not an error for the sender")

	frEvents := sender.byConn("fr-listener")
	require.Len(t, frEvents, 1, "the message is never dropped")
	evt := frEvents[0].(model.TranslatedTextEvent)
	assert.Equal(t, "hello", evt.Original)
	assert.Equal(t, "hello", evt.Translated, "fallback delivers the original text")
}

func TestFanoutRateLimitsSenderOnly(t *testing.T) {
	tr := &fakeTranslator{out: "hola"}
	db := setupTestDB(t)
	rooms := NewRoomService(db, testLogger())
	limiter := NewRateLimiter(1, time.Minute)
	sender := &recorderSender{}
	svc := NewTranscriptService(db, rooms, limiter, tr, sender, testLogger())

	_, _, err := rooms.JoinRoom("sender", "abc-defg-hij", "Alice", "en", "en")
	require.NoError(t, err)
	_, _, err = rooms.JoinRoom("es-listener", "abc-defg-hij", "Bob", "es", "es")
	require.NoError(t, err)

	payload := model.TranscriptPayload{RoomCode: "abc-defg-hij", Text: "hello", Language: "en"}
	require.NoError(t, svc.HandleTranscript(context.Background(), "sender", payload))
	require.NoError(t, svc.HandleTranscript(context.Background(), "sender", payload))

	require.Len(t, sender.byConn("es-listener"), 1, "second event was rate limited")

	senderEvents := sender.byConn("sender")
	require.Len(t, senderEvents, 1)
	rl := senderEvents[0].(model.RateLimitedEvent)
	assert.Equal(t, model.EventRateLimited, rl.Type)
	assert.Greater(t, rl.RetryAfterSeconds, 0)
}

func TestFanoutDropsUnknownRoomSilently(t *testing.T) {
	tr := &fakeTranslator{out: "x"}
	svc, _, sender := newTranscriptFixture(t, tr)

	err := svc.HandleTranscript(context.Background(), "sender", model.TranscriptPayload{
		RoomCode: "zzz-zzzz-zzz",
		Text:     "hello",
		Language: "en",
	})
	require.NoError(t, err)
	assert.Empty(t, sender.all(), "no events for a stale room code")
	assert.Zero(t, tr.callCount())
}

func TestFanoutRejectsOversizeText(t *testing.T) {
	tr := &fakeTranslator{out: "x"}
	svc, rooms, sender := newTranscriptFixture(t, tr)

	_, _, err := rooms.JoinRoom("sender", "abc-defg-hij", "Alice", "en", "en")
	require.NoError(t, err)

	big := make([]byte, maxTranscriptLen+1)
	for i := range big {
		big[i] = 'a'
	}
	err = svc.HandleTranscript(context.Background(), "sender", model.TranscriptPayload{
		RoomCode: "abc-defg-hij",
		Text:     string(big),
		Language: "en",
	})
	require.Error(t, err)

	events := sender.byConn("sender")
	require.Len(t, events, 1)
	_, ok := events[0].(model.ErrorEvent)
	assert.True(t, ok)
}

func TestFanoutWritesTranslationAuditLog(t *testing.T) {
	tr := &fakeTranslator{out: "bonjour"}
	db := setupTestDB(t)
	rooms := NewRoomService(db, testLogger())
	limiter := NewRateLimiter(20, time.Minute)
	sender := &recorderSender{}
	svc := NewTranscriptService(db, rooms, limiter, tr, sender, testLogger())

	_, room, err := rooms.JoinRoom("sender", "abc-defg-hij", "Alice", "en", "en")
	require.NoError(t, err)
	_, _, err = rooms.JoinRoom("fr-listener", "abc-defg-hij", "Chloe", "fr", "fr")
	require.NoError(t, err)

	require.NoError(t, svc.HandleTranscript(context.Background(), "sender", model.TranscriptPayload{
		RoomCode: "abc-defg-hij",
		Text:     "hello",
		Language: "en",
	}))

	var logs []model.TranslationLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, room.ID, logs[0].RoomID)
	assert.Equal(t, "hello", logs[0].OriginalText)
	assert.Equal(t, "bonjour", logs[0].TranslatedText)
	assert.Equal(t, "en", logs[0].SourceLanguage)
	assert.Equal(t, "fr", logs[0].TargetLanguage)
	assert.Equal(t, "sender", logs[0].FromConnectionID)
	assert.Equal(t, "fr-listener", logs[0].ToConnectionID)
}
