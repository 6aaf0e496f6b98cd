package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/chiptally/homegame-backend/internal/pkg/model"
	"github.com/jpillora/backoff"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// gameRow is the persisted shape: one row per game with the nested
// collections stored as jsonb and a version column for conditional
// writes.
type gameRow struct {
	Id              string `gorm:"primaryKey"`
	Title           string
	CreatorId       string
	CreatorName     string
	GroupId         string
	Status          string
	CreatedAt       time.Time
	Players         model.PlayerList         `gorm:"type:jsonb"`
	BuyInRequests   model.BuyInRequestList   `gorm:"type:jsonb"`
	CashOutRequests model.CashOutRequestList `gorm:"type:jsonb"`
	GameHistory     model.GameEventList      `gorm:"type:jsonb"`
	Version         int64
}

func (gameRow) TableName() string {
	return "game"
}

type PostgresStore struct {
	db          *gorm.DB
	notifier    ChangeNotifier
	maxAttempts int
}

func NewPostgresStore(db *gorm.DB, notifier ChangeNotifier) *PostgresStore {
	return &PostgresStore{
		db:          db,
		notifier:    notifier,
		maxAttempts: defaultMaxAttempts,
	}
}

// SetNotifier attaches the change bridge after construction; the store
// and the bridge reference each other.
func (s *PostgresStore) SetNotifier(notifier ChangeNotifier) {
	s.notifier = notifier
}

func (s *PostgresStore) Create(ctx context.Context, record *model.GameRecord) error {
	row := rowFromRecord(record, 1)
	result := s.db.WithContext(ctx).Create(row)
	if result.Error != nil {
		return result.Error
	}
	s.notify(ctx, record.Id)
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, gameId string) (*model.GameRecord, error) {
	var row gameRow
	result := s.db.WithContext(ctx).First(&row, "id = ?", gameId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return recordFromRow(&row)
}

func (s *PostgresStore) ListByGroup(ctx context.Context, groupId string, limit, offset int) ([]model.GameRecord, int64, error) {
	var total int64
	result := s.db.WithContext(ctx).
		Model(&gameRow{}).
		Where("group_id = ?", groupId).
		Count(&total)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	var rows []gameRow
	result = s.db.WithContext(ctx).
		Where("group_id = ?", groupId).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	records := make([]model.GameRecord, 0, len(rows))
	for i := range rows {
		record, err := recordFromRow(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *record)
	}
	return records, total, nil
}

// Apply runs the read-apply-write cycle. The write is conditional on the
// version read at the start of the cycle; a lost race re-reads the
// winner's committed state and re-runs the mutation, so state-machine
// guards inside the mutation see the post-commit record and fail
// cleanly instead of double-applying.
func (s *PostgresStore) Apply(ctx context.Context, gameId string, mutation Mutation) (*model.GameRecord, error) {
	wait := &backoff.Backoff{
		Min:    10 * time.Millisecond,
		Max:    250 * time.Millisecond,
		Jitter: true,
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		record, version, err := s.load(ctx, gameId)
		if err != nil {
			return nil, err
		}

		if err := mutation(record); err != nil {
			return nil, err
		}

		swapped, err := s.save(ctx, record, version)
		if err != nil {
			return nil, err
		}
		if swapped {
			s.notify(ctx, gameId)
			return record, nil
		}

		log.Debug().
			Str("gameId", gameId).
			Int("attempt", attempt+1).
			Msg("game write lost a version race, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait.Duration()):
		}
	}

	return nil, ErrTransactionConflict
}

func (s *PostgresStore) load(ctx context.Context, gameId string) (*model.GameRecord, int64, error) {
	var row gameRow
	result := s.db.WithContext(ctx).First(&row, "id = ?", gameId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, result.Error
	}
	record, err := recordFromRow(&row)
	if err != nil {
		return nil, 0, err
	}
	return record, row.Version, nil
}

func (s *PostgresStore) save(ctx context.Context, record *model.GameRecord, expectedVersion int64) (bool, error) {
	row := rowFromRecord(record, expectedVersion+1)
	result := s.db.WithContext(ctx).
		Model(&gameRow{}).
		Where("id = ? AND version = ?", record.Id, expectedVersion).
		Updates(map[string]any{
			"title":             row.Title,
			"status":            row.Status,
			"players":           row.Players,
			"buy_in_requests":   row.BuyInRequests,
			"cash_out_requests": row.CashOutRequests,
			"game_history":      row.GameHistory,
			"version":           row.Version,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *PostgresStore) notify(ctx context.Context, gameId string) {
	if s.notifier != nil {
		s.notifier.GameChanged(ctx, gameId)
	}
}

func rowFromRecord(record *model.GameRecord, version int64) *gameRow {
	return &gameRow{
		Id:              record.Id,
		Title:           record.Title,
		CreatorId:       record.CreatorId,
		CreatorName:     record.CreatorName,
		GroupId:         record.GroupId,
		Status:          string(record.Status),
		CreatedAt:       record.CreatedAt,
		Players:         record.Players,
		BuyInRequests:   record.BuyInRequests,
		CashOutRequests: record.CashOutRequests,
		GameHistory:     record.GameHistory,
		Version:         version,
	}
}

func recordFromRow(row *gameRow) (*model.GameRecord, error) {
	status := model.GameStatus(row.Status)
	switch status {
	case model.GameActive, model.GameCompleted:
	default:
		return nil, errors.New("persisted game has unknown status " + row.Status)
	}
	return &model.GameRecord{
		Id:              row.Id,
		Title:           row.Title,
		CreatorId:       row.CreatorId,
		CreatorName:     row.CreatorName,
		GroupId:         row.GroupId,
		Status:          status,
		CreatedAt:       row.CreatedAt,
		Players:         row.Players,
		BuyInRequests:   row.BuyInRequests,
		CashOutRequests: row.CashOutRequests,
		GameHistory:     row.GameHistory,
	}, nil
}
