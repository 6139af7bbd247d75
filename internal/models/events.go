package models

import "time"

// GameEventType определяет тип игрового события, отправляемого в очередь.
type GameEventType string

const (
	GameEventChoiceApplied GameEventType = "choice_applied"
	GameEventEndingReached GameEventType = "ending_reached"
)

// GameEvent публикуется после успешного применения выбора.
type GameEvent struct {
	Type           GameEventType `json:"type"`
	SessionToken   string        `json:"session_id"`
	FromNode       string        `json:"from_node"`
	ToNode         string        `json:"to_node"`
	ChoiceIndex    int           `json:"choice_index"`
	Tag            string        `json:"tag"`
	Score          int           `json:"score"`
	EndingCategory string        `json:"ending_category,omitempty"`
	OccurredAt     time.Time     `json:"occurred_at"`
}
