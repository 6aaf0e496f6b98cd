package game

import (
	"errors"
	"net/http"

	"github.com/chiptally/homegame-backend/internal/ledger"
	"github.com/chiptally/homegame-backend/internal/pkg/reject"
)

const (
	identityMissing     = "error.game.identity-missing"
	gameNotFound        = "error.game.not-found"
	hostOnly            = "error.game.host-only"
	invalidRequestState = "error.game.invalid-request-state"
	invalidAmount       = "error.game.invalid-amount"
	writeContention     = "error.game.write-contention"
)

// problemFor maps service errors onto client-facing problems. Only the
// service decides outcomes; this is pure presentation.
func problemFor(err error) reject.Problem {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return reject.NewProblem().
			WithTitle("Caller identity missing").
			WithStatus(http.StatusUnauthorized).
			WithCode(identityMissing).
			Build()
	case errors.Is(err, ledger.ErrNotFound):
		return reject.NewProblem().
			WithTitle("Game or request not found").
			WithStatus(http.StatusNotFound).
			WithCode(gameNotFound).
			Build()
	case errors.Is(err, ErrPermissionDenied):
		return reject.NewProblem().
			WithTitle("Only the host may do that").
			WithStatus(http.StatusForbidden).
			WithCode(hostOnly).
			Build()
	case errors.Is(err, ErrInvalidRequestState):
		return reject.NewProblem().
			WithTitle("Request is not in the expected state").
			WithStatus(http.StatusConflict).
			WithCode(invalidRequestState).
			Build()
	case errors.Is(err, ErrInvalidAmount):
		return reject.NewProblem().
			WithTitle("Amount must be positive").
			WithStatus(http.StatusBadRequest).
			WithCode(invalidAmount).
			Build()
	case errors.Is(err, ledger.ErrTransactionConflict):
		return reject.NewProblem().
			WithTitle("Game is under heavy write contention, try again").
			WithStatus(http.StatusConflict).
			WithCode(writeContention).
			Build()
	}
	return reject.UnexpectedProblem(err)
}
