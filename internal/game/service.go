package game

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/chiptally/homegame-backend/internal/ledger"
	"github.com/chiptally/homegame-backend/internal/pkg/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotAuthenticated    = errors.New("caller identity missing")
	ErrPermissionDenied    = errors.New("only the host may perform this action")
	ErrInvalidRequestState = errors.New("request is not in the expected state")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Caller is the already-verified identity of the current caller. The
// auth middleware supplies it; the service trusts it and only decides
// what the identity is allowed to do.
type Caller struct {
	UserId      string
	DisplayName string
}

type gameService struct {
	store ledger.Store
	now   func() time.Time
}

func newGameService(store ledger.Store) *gameService {
	return &gameService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (gs *gameService) createGame(ctx context.Context, title, groupId string, caller Caller) (*model.GameRecord, error) {
	if caller.UserId == "" {
		return nil, ErrNotAuthenticated
	}

	now := gs.now()
	record := &model.GameRecord{
		Id:              uuid.NewString(),
		Title:           title,
		CreatorId:       caller.UserId,
		CreatorName:     caller.DisplayName,
		GroupId:         groupId,
		Status:          model.GameActive,
		CreatedAt:       now,
		Players:         model.PlayerList{},
		BuyInRequests:   model.BuyInRequestList{},
		CashOutRequests: model.CashOutRequestList{},
		GameHistory:     model.GameEventList{},
	}
	appendEvent(record, model.EventGameCreated, caller.UserId, caller.DisplayName, nil,
		caller.DisplayName+" started the game "+title, now)

	if err := gs.store.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (gs *gameService) getGame(ctx context.Context, gameId string) (*model.GameRecord, error) {
	return gs.store.Get(ctx, gameId)
}

func (gs *gameService) listGames(ctx context.Context, groupId string, limit, offset int) ([]model.GameRecord, int64, error) {
	return gs.store.ListByGroup(ctx, groupId, limit, offset)
}

// getHistory returns the event log sorted newest first for display.
// Storage order stays insertion order.
func (gs *gameService) getHistory(ctx context.Context, gameId string) (model.GameEventList, error) {
	record, err := gs.store.Get(ctx, gameId)
	if err != nil {
		return nil, err
	}
	history := make(model.GameEventList, len(record.GameHistory))
	copy(history, record.GameHistory)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.After(history[j].Timestamp)
	})
	return history, nil
}

func (gs *gameService) requestBuyIn(ctx context.Context, gameId string, amount decimal.Decimal, caller Caller) (*model.GameRecord, error) {
	if caller.UserId == "" {
		return nil, ErrNotAuthenticated
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return gs.store.Apply(ctx, gameId, func(record *model.GameRecord) error {
		if record.Status != model.GameActive {
			return ErrInvalidRequestState
		}
		// A seat that already cashed out cannot re-enter the same game.
		if player := record.PlayerByUserId(caller.UserId); player != nil && player.Status == model.PlayerCashedOut {
			return ErrInvalidRequestState
		}

		now := gs.now()
		record.BuyInRequests = append(record.BuyInRequests, model.BuyInRequest{
			Id:          uuid.NewString(),
			UserId:      caller.UserId,
			DisplayName: caller.DisplayName,
			Amount:      amount,
			RequestedAt: now,
			Status:      model.BuyInPending,
		})
		appendEvent(record, model.EventBuyIn, caller.UserId, caller.DisplayName, &amount,
			caller.DisplayName+" requested a buy-in of "+amount.String(), now)
		return nil
	})
}

// hostBuyIn applies a buy-in for the host without an approval step; the
// host is self-trusted.
func (gs *gameService) hostBuyIn(ctx context.Context, gameId string, amount decimal.Decimal, caller Caller) (*model.GameRecord, error) {
	if caller.UserId == "" {
		return nil, ErrNotAuthenticated
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return gs.store.Apply(ctx, gameId, func(record *model.GameRecord) error {
		if record.CreatorId != caller.UserId {
			return ErrPermissionDenied
		}
		if record.Status != model.GameActive {
			return ErrInvalidRequestState
		}
		return creditBuyIn(record, caller.UserId, caller.DisplayName, amount, gs.now())
	})
}

func (gs *gameService) approveBuyIn(ctx context.Context, gameId, requestId string, caller Caller) (*model.GameRecord, error) {
	if caller.UserId == "" {
		return nil, ErrNotAuthenticated
	}

	return gs.store.Apply(ctx, gameId, func(record *model.GameRecord) error {
		if record.CreatorId != caller.UserId {
			return ErrPermissionDenied
		}
		if record.Status != model.GameActive {
			return ErrInvalidRequestState
		}
		request := record.BuyInRequestById(requestId)
		if request == nil {
			return ledger.ErrNotFound
		}
		if request.Status != model.BuyInPending {
			return ErrInvalidRequestState
		}
		if err := creditBuyIn(record, request.UserId, request.DisplayName, request.Amount, gs.now()); err != nil {
			return err
		}
		request.Status = model.BuyInApproved
		return nil
	})
}

func (gs *gameService) declineBuyIn(ctx context.Context, gameId, requestId string, caller Caller) (*model.GameRecord, error) {
	if caller.UserId == "" {
		return nil, ErrNotAuthenticated
	}

	return gs.store.Apply(ctx, gameId, func(record *model.GameRecord) error {
		if record.CreatorId != caller.UserId {
			return ErrPermissionDenied
		}
		if record.Status != model.GameActive {
			return ErrInvalidRequestState
		}
		request := record.BuyInRequestById(requestId)
		if request == nil {
			return ledger.ErrNotFound
		}
		if request.Status != model.BuyInPending {
			return ErrInvalidRequestState
		}
		request.Status = model.BuyInRejected
		appendEvent(record, model.EventBuyIn, request.UserId, request.DisplayName, &request.Amount,
			"Buy-in of "+request.Amount.String()+" for "+request.DisplayName+" was declined", gs.now())
		return nil
	})
}

// requestCashOut records a peer's ask to settle. A zero amount is
// deliberately allowed (busting out with nothing) and no upper bound is
// enforced; the host is trusted to catch mistakes before processing.
func (gs *gameService) requestCashOut(ctx context.Context, gameId string, amount decimal.Decimal, caller Caller) (*model.GameRecord, error) {
	if caller.UserId == "" {
		return nil, ErrNotAuthenticated
	}
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	return gs.store.Apply(ctx, gameId, func(record *model.GameRecord) error {
		if record.Status != model.GameActive {
			return ErrInvalidRequestState
		}
		player := record.PlayerByUserId(caller.UserId)
		if player == nil || player.Status != model.PlayerActive {
			return ErrInvalidRequestState
		}

		now := gs.now()
		record.CashOutRequests = append(record.CashOutRequests, model.CashOutRequest{
			Id:          uuid.NewString(),
			UserId:      caller.UserId,
			DisplayName: caller.DisplayName,
			Amount:      amount,
			RequestedAt: now,
			Status:      model.CashOutPending,
		})
		appendEvent(record, model.EventCashOut, caller.UserId, caller.DisplayName, &amount,
			caller.DisplayName+" requested a cash-out of "+amount.String(), now)
		return nil
	})
}

// processCashOut settles a pending cash-out at the exact requested
// amount. If the settled seat was the last active one the game completes
// in the same write.
func (gs *gameService) processCashOut(ctx context.Context, gameId, requestId string, caller Caller) (*model.GameRecord, error) {
	if caller.UserId == "" {
		return nil, ErrNotAuthenticated
	}

	return gs.store.Apply(ctx, gameId, func(record *model.GameRecord) error {
		if record.CreatorId != caller.UserId {
			return ErrPermissionDenied
		}
		if record.Status != model.GameActive {
			return ErrInvalidRequestState
		}
		request := record.CashOutRequestById(requestId)
		if request == nil {
			return ledger.ErrNotFound
		}
		if request.Status != model.CashOutPending {
			return ErrInvalidRequestState
		}
		player := record.PlayerByUserId(request.UserId)
		if player == nil || player.Status != model.PlayerActive {
			return ErrInvalidRequestState
		}

		now := gs.now()
		settlePlayer(record, player, request.Amount, now)
		request.Status = model.CashOutProcessed
		request.ProcessedAt = &now

		if record.ActivePlayerCount() == 0 {
			completeGame(record, now)
		}
		return nil
	})
}

// processCashoutForGameEnd settles one seat at a host-chosen amount
// without a pending request. It exists for pre-settlement corrections
// right before endGame; a zero amount is allowed.
func (gs *gameService) processCashoutForGameEnd(ctx context.Context, gameId, playerId, userId string, amount decimal.Decimal, caller Caller) (*model.GameRecord, error) {
	if caller.UserId == "" {
		return nil, ErrNotAuthenticated
	}
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	return gs.store.Apply(ctx, gameId, func(record *model.GameRecord) error {
		if record.CreatorId != caller.UserId {
			return ErrPermissionDenied
		}
		if record.Status != model.GameActive {
			return ErrInvalidRequestState
		}
		player := record.PlayerByUserId(userId)
		if player == nil || player.Id != playerId || player.Status != model.PlayerActive {
			return ErrInvalidRequestState
		}

		now := gs.now()
		settlePlayer(record, player, amount, now)
		if record.ActivePlayerCount() == 0 {
			completeGame(record, now)
		}
		return nil
	})
}

// endGame is the bulk settlement: every remaining active seat is cashed
// out at its last tracked stack, then the game completes. One cash-out
// event per forced seat plus a single game-ended event, all in one
// write.
func (gs *gameService) endGame(ctx context.Context, gameId string, caller Caller) (*model.GameRecord, error) {
	if caller.UserId == "" {
		return nil, ErrNotAuthenticated
	}

	return gs.store.Apply(ctx, gameId, func(record *model.GameRecord) error {
		if record.CreatorId != caller.UserId {
			return ErrPermissionDenied
		}
		if record.Status != model.GameActive {
			return ErrInvalidRequestState
		}

		now := gs.now()
		for i := range record.Players {
			player := &record.Players[i]
			if player.Status != model.PlayerActive {
				continue
			}
			settlePlayer(record, player, player.CurrentStack, now)
		}
		completeGame(record, now)
		return nil
	})
}

// creditBuyIn creates or tops up a seat. A fresh seat produces a
// player-joined event before the buy-in event.
func creditBuyIn(record *model.GameRecord, userId, displayName string, amount decimal.Decimal, now time.Time) error {
	player := record.PlayerByUserId(userId)
	switch {
	case player == nil:
		record.Players = append(record.Players, model.Player{
			Id:           uuid.NewString(),
			UserId:       userId,
			DisplayName:  displayName,
			CurrentStack: amount,
			TotalBuyIn:   amount,
			JoinedAt:     now,
			Status:       model.PlayerActive,
		})
		appendEvent(record, model.EventPlayerJoined, userId, displayName, nil,
			displayName+" joined the game", now)
	case player.Status == model.PlayerCashedOut:
		return ErrInvalidRequestState
	default:
		player.CurrentStack = player.CurrentStack.Add(amount)
		player.TotalBuyIn = player.TotalBuyIn.Add(amount)
	}
	appendEvent(record, model.EventBuyIn, userId, displayName, &amount,
		displayName+" bought in for "+amount.String(), now)
	return nil
}

// settlePlayer fixes the final stack: a cash-out replaces the tracked
// stack with the settled amount, it never increments it.
func settlePlayer(record *model.GameRecord, player *model.Player, amount decimal.Decimal, now time.Time) {
	player.CurrentStack = amount
	player.Status = model.PlayerCashedOut
	cashedOutAt := now
	player.CashedOutAt = &cashedOutAt
	appendEvent(record, model.EventCashOut, player.UserId, player.DisplayName, &amount,
		player.DisplayName+" cashed out for "+amount.String(), now)
}

func completeGame(record *model.GameRecord, now time.Time) {
	record.Status = model.GameCompleted
	appendEvent(record, model.EventGameEnded, record.CreatorId, record.CreatorName, nil,
		"Game "+record.Title+" ended", now)
}

func appendEvent(record *model.GameRecord, eventType model.EventType, userId, userName string, amount *decimal.Decimal, description string, timestamp time.Time) {
	record.GameHistory = append(record.GameHistory, model.GameEvent{
		Id:          uuid.NewString(),
		Timestamp:   timestamp,
		EventType:   eventType,
		UserId:      userId,
		UserName:    userName,
		Amount:      amount,
		Description: description,
	})
}
