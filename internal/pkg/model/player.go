package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Player is one seat in a game. CurrentStack is the chip count as the
// ledger tracks it, not necessarily the physical chips on the table.
// TotalBuyIn only ever grows; a cash-out freezes the stack at the
// settled amount.
type Player struct {
	Id           string          `json:"id"`
	UserId       string          `json:"userId"`
	DisplayName  string          `json:"displayName"`
	CurrentStack decimal.Decimal `json:"currentStack"`
	TotalBuyIn   decimal.Decimal `json:"totalBuyIn"`
	JoinedAt     time.Time       `json:"joinedAt"`
	CashedOutAt  *time.Time      `json:"cashedOutAt,omitempty"`
	Status       PlayerStatus    `json:"status"`
}

type PlayerStatus string

const (
	PlayerActive    PlayerStatus = "active"
	PlayerCashedOut PlayerStatus = "cashedOut"
)

func (s *PlayerStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch PlayerStatus(raw) {
	case PlayerActive, PlayerCashedOut:
		*s = PlayerStatus(raw)
		return nil
	}
	return fmt.Errorf("unknown player status %q", raw)
}
