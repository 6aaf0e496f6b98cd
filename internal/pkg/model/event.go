package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GameEvent is one entry in the append-only game history. Events are
// never rewritten or removed once appended; the history is the audit
// trail for the money that moved through the game.
type GameEvent struct {
	Id          string           `json:"id"`
	Timestamp   time.Time        `json:"timestamp"`
	EventType   EventType        `json:"eventType"`
	UserId      string           `json:"userId"`
	UserName    string           `json:"userName"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description string           `json:"description"`
}

type EventType string

const (
	EventGameCreated  EventType = "gameCreated"
	EventGameEnded    EventType = "gameEnded"
	EventPlayerJoined EventType = "playerJoined"
	EventPlayerLeft   EventType = "playerLeft"
	EventBuyIn        EventType = "buyIn"
	EventCashOut      EventType = "cashOut"
)

func (t *EventType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch EventType(raw) {
	case EventGameCreated, EventGameEnded, EventPlayerJoined, EventPlayerLeft, EventBuyIn, EventCashOut:
		*t = EventType(raw)
		return nil
	}
	return fmt.Errorf("unknown event type %q", raw)
}
