package ledger

import (
	"context"
	"errors"

	"github.com/chiptally/homegame-backend/internal/pkg/model"
)

var (
	// ErrNotFound is returned when no game exists for the requested id.
	ErrNotFound = errors.New("game not found")

	// ErrTransactionConflict is returned after the bounded retry budget
	// for contended writes is exhausted.
	ErrTransactionConflict = errors.New("game write conflict: retries exhausted")
)

// Mutation transforms a game record in place. It runs against a private
// snapshot read inside the transaction; returning an error aborts the
// write with no side effects. Mutations must derive every decision from
// the record they are handed, never from an earlier read.
type Mutation func(*model.GameRecord) error

// Store is the transactional persistence boundary for game records.
// Apply guarantees read-apply-write atomicity per game: concurrent
// writers are serialized by conditional writes keyed on a record
// version, and the losing writer re-runs its mutation against the
// winner's committed state.
type Store interface {
	Create(ctx context.Context, record *model.GameRecord) error
	Get(ctx context.Context, gameId string) (*model.GameRecord, error)
	ListByGroup(ctx context.Context, groupId string, limit, offset int) ([]model.GameRecord, int64, error)
	Apply(ctx context.Context, gameId string, mutation Mutation) (*model.GameRecord, error)
}

// ChangeNotifier is told about every committed write so live observers
// can be handed the new state. Notification is best effort and happens
// after the commit; delivery to observers is at-least-once.
type ChangeNotifier interface {
	GameChanged(ctx context.Context, gameId string)
}

const defaultMaxAttempts = 5
