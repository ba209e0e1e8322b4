package websocket

import "time"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing      Action = "ping"
	ActionSubscribe Action = "subscribe"
)

// RequestPayload is the envelope every client message is decoded into.
type RequestPayload struct {
	Action Action `json:"action"`
	// ExamID narrows the stream to one exam; empty means all exams.
	ExamID string `json:"exam_id,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError        Event = "error"
	EventPong         Event = "pong"
	EventSubscribed   Event = "subscribed"
	EventScoreUpdated Event = "score_updated"
	EventResultDelete Event = "result_deleted"
)

// ScoreEvent is published on Redis whenever a result's canonical score
// changes, and forwarded verbatim to stream subscribers.
type ScoreEvent struct {
	Event          Event     `json:"event"`
	ResultID       string    `json:"result_id"`
	ExamID         string    `json:"exam_id,omitempty"`
	CorrectAnswers int       `json:"correct_answers"`
	EarnedMarks    float64   `json:"earned_marks"`
	TotalMarks     int       `json:"total_marks"`
	Percentage     int       `json:"percentage"`
	Band           string    `json:"band"`
	At             time.Time `json:"at"`
}

type SubscribedResponse struct {
	Event  Event  `json:"event"`
	ExamID string `json:"exam_id,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
