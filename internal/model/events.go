package model

import "encoding/json"

// WebSocket event types (client -> server).
const (
	EventJoin             = "join"
	EventLeave            = "leave"
	EventOffer            = "offer"
	EventAnswer           = "answer"
	EventICECandidate     = "ice-candidate"
	EventTranscript       = "transcript"
	EventStartTranslation = "start-translation"
	EventStopTranslation  = "stop-translation"
)

// WebSocket event types (server -> client).
const (
	EventRoomJoined          = "room-joined"
	EventExistingUsers       = "existing-users"
	EventUserJoined          = "user-joined"
	EventUserLeft            = "user-left"
	EventTranslatedText      = "translated-text"
	EventRateLimited         = "rate-limited"
	EventSessionStarted      = "session-started"
	EventInsufficientCredits = "insufficient-credits"
	EventCreditUpdate        = "credit-update"
	EventLowBalanceWarning   = "low-balance-warning"
	EventDepleted            = "depleted"
	EventSessionEnded        = "session-ended"
	EventError               = "error"
)

// Envelope is the minimal frame used to dispatch on event type before the
// payload is decoded.
type Envelope struct {
	Type string `json:"type"`
}

// JoinPayload is the client join request.
type JoinPayload struct {
	RoomCode         string `json:"roomCode"`
	DisplayName      string `json:"userName"`
	ListenLanguage   string `json:"language"`
	SpeakingLanguage string `json:"speakingLanguage"`
}

// SignalPayload carries an offer, answer or ICE candidate to one target
// connection. The signaling body is relayed verbatim.
type SignalPayload struct {
	To        string          `json:"to"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// SignalEvent is the relayed form, tagged with the sender's connection id.
type SignalEvent struct {
	Type      string          `json:"type"`
	From      string          `json:"from"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// TranscriptPayload is one unit of recognized speech submitted for fan-out.
type TranscriptPayload struct {
	RoomCode string `json:"roomCode"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

// StartTranslationPayload opens a credit metering session. UserID is empty
// for guests.
type StartTranslationPayload struct {
	UserID   string `json:"userId"`
	RoomCode string `json:"roomCode"`
}

// RoomJoinedEvent confirms a join to the caller.
type RoomJoinedEvent struct {
	Type             string `json:"type"`
	RoomCode         string `json:"roomCode"`
	ParticipantCount int    `json:"participantCount"`
}

// ParticipantInfo describes one room member for join notifications.
type ParticipantInfo struct {
	UserID           string `json:"userId"`
	DisplayName      string `json:"userName"`
	ListenLanguage   string `json:"language"`
	SpeakingLanguage string `json:"speakingLanguage"`
}

// ExistingUsersEvent lists the other active members, sent to a new joiner.
type ExistingUsersEvent struct {
	Type  string            `json:"type"`
	Users []ParticipantInfo `json:"users"`
}

// UserJoinedEvent notifies room members of a new participant.
type UserJoinedEvent struct {
	Type string `json:"type"`
	ParticipantInfo
}

// UserLeftEvent notifies room members that a participant left.
type UserLeftEvent struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// TranslatedTextEvent delivers one transcript to one recipient. Translated
// equals Original when no translation was needed or the translator failed.
type TranslatedTextEvent struct {
	Type         string `json:"type"`
	Original     string `json:"original"`
	Translated   string `json:"translated"`
	From         string `json:"from"`
	FromLanguage string `json:"fromLanguage"`
	ToLanguage   string `json:"toLanguage"`
}

// RateLimitedEvent tells the sender to back off.
type RateLimitedEvent struct {
	Type              string `json:"type"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retryAfterSeconds"`
}

// CreditEvent covers session-started, credit-update, low-balance-warning,
// depleted and session-ended frames.
type CreditEvent struct {
	Type    string `json:"type"`
	Balance int    `json:"balance"`
	Used    int    `json:"used,omitempty"`
}

// ErrorEvent reports a validation or state error to the caller only.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
