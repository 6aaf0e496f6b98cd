package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// GameRecord is the canonical state of one home game: metadata, seats,
// pending requests and the full event history. It is persisted as a
// single record; every financial mutation rewrites it atomically through
// the ledger store.
type GameRecord struct {
	Id              string             `json:"id"`
	Title           string             `json:"title"`
	CreatorId       string             `json:"creatorId"`
	CreatorName     string             `json:"creatorName"`
	GroupId         string             `json:"groupId"`
	Status          GameStatus         `json:"status"`
	CreatedAt       time.Time          `json:"createdAt"`
	Players         PlayerList         `json:"players"`
	BuyInRequests   BuyInRequestList   `json:"buyInRequests"`
	CashOutRequests CashOutRequestList `json:"cashOutRequests"`
	GameHistory     GameEventList      `json:"gameHistory"`
}

type GameStatus string

const (
	GameActive    GameStatus = "active"
	GameCompleted GameStatus = "completed"
)

func (s *GameStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch GameStatus(raw) {
	case GameActive, GameCompleted:
		*s = GameStatus(raw)
		return nil
	}
	return fmt.Errorf("unknown game status %q", raw)
}

// PlayerByUserId returns a pointer into the player list so callers
// inside a ledger mutation can update the seat in place.
func (r *GameRecord) PlayerByUserId(userId string) *Player {
	for i := range r.Players {
		if r.Players[i].UserId == userId {
			return &r.Players[i]
		}
	}
	return nil
}

func (r *GameRecord) BuyInRequestById(requestId string) *BuyInRequest {
	for i := range r.BuyInRequests {
		if r.BuyInRequests[i].Id == requestId {
			return &r.BuyInRequests[i]
		}
	}
	return nil
}

func (r *GameRecord) CashOutRequestById(requestId string) *CashOutRequest {
	for i := range r.CashOutRequests {
		if r.CashOutRequests[i].Id == requestId {
			return &r.CashOutRequests[i]
		}
	}
	return nil
}

func (r *GameRecord) ActivePlayerCount() int {
	count := 0
	for i := range r.Players {
		if r.Players[i].Status == PlayerActive {
			count++
		}
	}
	return count
}

type PlayerList []Player

func (l PlayerList) Value() (driver.Value, error) {
	return jsonbValue(l)
}

func (l *PlayerList) Scan(value any) error {
	return jsonbScan(value, l)
}

type BuyInRequestList []BuyInRequest

func (l BuyInRequestList) Value() (driver.Value, error) {
	return jsonbValue(l)
}

func (l *BuyInRequestList) Scan(value any) error {
	return jsonbScan(value, l)
}

type CashOutRequestList []CashOutRequest

func (l CashOutRequestList) Value() (driver.Value, error) {
	return jsonbValue(l)
}

func (l *CashOutRequestList) Scan(value any) error {
	return jsonbScan(value, l)
}

type GameEventList []GameEvent

func (l GameEventList) Value() (driver.Value, error) {
	return jsonbValue(l)
}

func (l *GameEventList) Scan(value any) error {
	return jsonbScan(value, l)
}

func jsonbValue(list any) (driver.Value, error) {
	return json.Marshal(list)
}

func jsonbScan(value any, target any) error {
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, target)
	case string:
		return json.Unmarshal([]byte(data), target)
	case nil:
		return nil
	}
	return errors.New("unsupported column type for jsonb list")
}
