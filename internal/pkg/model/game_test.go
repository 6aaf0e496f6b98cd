package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func sampleRecord() *GameRecord {
	joined := time.Date(2026, 8, 1, 20, 5, 0, 0, time.UTC)
	cashedOut := time.Date(2026, 8, 1, 23, 30, 0, 0, time.UTC)
	amount := decimal.NewFromInt(200)

	return &GameRecord{
		Id:          "game-1",
		Title:       "Friday Night",
		CreatorId:   "h",
		CreatorName: "Hank",
		GroupId:     "g1",
		Status:      GameActive,
		CreatedAt:   time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC),
		Players: PlayerList{
			{
				Id:           "player-1",
				UserId:       "p1",
				DisplayName:  "Alice",
				CurrentStack: decimal.NewFromInt(350),
				TotalBuyIn:   decimal.NewFromInt(200),
				JoinedAt:     joined,
				Status:       PlayerActive,
			},
			{
				Id:           "player-2",
				UserId:       "p2",
				DisplayName:  "Bob",
				CurrentStack: decimal.Zero,
				TotalBuyIn:   decimal.NewFromInt(100),
				JoinedAt:     joined,
				CashedOutAt:  &cashedOut,
				Status:       PlayerCashedOut,
			},
		},
		BuyInRequests: BuyInRequestList{
			{
				Id:          "buyin-1",
				UserId:      "p1",
				DisplayName: "Alice",
				Amount:      amount,
				RequestedAt: joined,
				Status:      BuyInApproved,
			},
		},
		CashOutRequests: CashOutRequestList{
			{
				Id:          "cashout-1",
				UserId:      "p2",
				DisplayName: "Bob",
				Amount:      decimal.Zero,
				RequestedAt: cashedOut,
				ProcessedAt: &cashedOut,
				Status:      CashOutProcessed,
			},
		},
		GameHistory: GameEventList{
			{
				Id:          "event-1",
				Timestamp:   time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC),
				EventType:   EventGameCreated,
				UserId:      "h",
				UserName:    "Hank",
				Description: "Hank started the game Friday Night",
			},
			{
				Id:          "event-2",
				Timestamp:   joined,
				EventType:   EventBuyIn,
				UserId:      "p1",
				UserName:    "Alice",
				Amount:      &amount,
				Description: "Alice bought in for 200",
			},
		},
	}
}

func TestGameRecordRoundTrip(t *testing.T) {
	original := sampleRecord()

	first, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded GameRecord
	if err := json.Unmarshal(first, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	second, err := json.Marshal(&decoded)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("round trip changed the record:\n%s\n%s", first, second)
	}

	if !decoded.Players[0].CurrentStack.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("stack lost in round trip: %s", decoded.Players[0].CurrentStack)
	}
	if decoded.Players[1].CashedOutAt == nil || !decoded.Players[1].CashedOutAt.Equal(*original.Players[1].CashedOutAt) {
		t.Fatal("cashedOutAt lost in round trip")
	}
	if decoded.GameHistory[1].Amount == nil || !decoded.GameHistory[1].Amount.Equal(decimal.NewFromInt(200)) {
		t.Fatal("event amount lost in round trip")
	}
}

func TestUnknownEnumValuesFailParsing(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		target  func() any
	}{
		{"game status", `"paused"`, func() any { return new(GameStatus) }},
		{"player status", `"sitting-out"`, func() any { return new(PlayerStatus) }},
		{"buy-in status", `"maybe"`, func() any { return new(BuyInStatus) }},
		{"cash-out status", `"queued"`, func() any { return new(CashOutStatus) }},
		{"event type", `"chatMessage"`, func() any { return new(EventType) }},
	}

	for _, tc := range cases {
		t.Run(strings.ReplaceAll(tc.name, " ", "_"), func(t *testing.T) {
			if err := json.Unmarshal([]byte(tc.payload), tc.target()); err == nil {
				t.Fatalf("expected %s %s to fail parsing", tc.name, tc.payload)
			}
		})
	}
}

func TestMalformedRecordFailsParsing(t *testing.T) {
	payload := `{"id":"game-1","status":"archived","players":[]}`
	var record GameRecord
	if err := json.Unmarshal([]byte(payload), &record); err == nil {
		t.Fatal("expected unknown status to fail record parsing")
	}
}

func TestPlayerListJsonbRoundTrip(t *testing.T) {
	original := sampleRecord().Players

	value, err := original.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var scanned PlayerList
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(scanned) != len(original) {
		t.Fatalf("expected %d players, got %d", len(original), len(scanned))
	}
	if scanned[0].UserId != "p1" || !scanned[0].TotalBuyIn.Equal(decimal.NewFromInt(200)) {
		t.Fatal("player fields lost in jsonb round trip")
	}
}

func TestRecordHelpers(t *testing.T) {
	record := sampleRecord()

	if record.PlayerByUserId("p1") == nil || record.PlayerByUserId("ghost") != nil {
		t.Fatal("PlayerByUserId lookup broken")
	}
	if record.BuyInRequestById("buyin-1") == nil || record.BuyInRequestById("ghost") != nil {
		t.Fatal("BuyInRequestById lookup broken")
	}
	if record.CashOutRequestById("cashout-1") == nil || record.CashOutRequestById("ghost") != nil {
		t.Fatal("CashOutRequestById lookup broken")
	}
	if record.ActivePlayerCount() != 1 {
		t.Fatalf("expected 1 active player, got %d", record.ActivePlayerCount())
	}

	// Lookups return pointers into the record so mutations stick.
	record.PlayerByUserId("p1").DisplayName = "Alicia"
	if record.Players[0].DisplayName != "Alicia" {
		t.Fatal("lookup must return a pointer into the list")
	}
}
