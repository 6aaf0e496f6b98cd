package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BuyInRequest is a peer's ask to add chips. It stays pending until the
// host approves or declines it; both outcomes are terminal.
type BuyInRequest struct {
	Id          string          `json:"id"`
	UserId      string          `json:"userId"`
	DisplayName string          `json:"displayName"`
	Amount      decimal.Decimal `json:"amount"`
	RequestedAt time.Time       `json:"requestedAt"`
	Status      BuyInStatus     `json:"status"`
}

type BuyInStatus string

const (
	BuyInPending  BuyInStatus = "pending"
	BuyInApproved BuyInStatus = "approved"
	BuyInRejected BuyInStatus = "rejected"
)

func (s *BuyInStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch BuyInStatus(raw) {
	case BuyInPending, BuyInApproved, BuyInRejected:
		*s = BuyInStatus(raw)
		return nil
	}
	return fmt.Errorf("unknown buy-in status %q", raw)
}

// CashOutRequest is a peer's ask to settle their seat. A zero amount is
// legal: a player can bust out with nothing.
type CashOutRequest struct {
	Id          string          `json:"id"`
	UserId      string          `json:"userId"`
	DisplayName string          `json:"displayName"`
	Amount      decimal.Decimal `json:"amount"`
	RequestedAt time.Time       `json:"requestedAt"`
	ProcessedAt *time.Time      `json:"processedAt,omitempty"`
	Status      CashOutStatus   `json:"status"`
}

type CashOutStatus string

const (
	CashOutPending   CashOutStatus = "pending"
	CashOutProcessed CashOutStatus = "processed"
)

func (s *CashOutStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch CashOutStatus(raw) {
	case CashOutPending, CashOutProcessed:
		*s = CashOutStatus(raw)
		return nil
	}
	return fmt.Errorf("unknown cash-out status %q", raw)
}
