package ledger

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/chiptally/homegame-backend/internal/pkg/model"
)

// MemoryStore keeps games in process memory with the same versioned
// compare-and-swap semantics as the postgres store. Records are stored
// as serialized JSON so every read hands out an isolated copy and every
// write round-trips through the same codec the database path uses.
type MemoryStore struct {
	mu       sync.Mutex
	rows     map[string]*memoryRow
	notifier ChangeNotifier

	maxAttempts int
}

type memoryRow struct {
	data    []byte
	groupId string
	version int64
}

func NewMemoryStore(notifier ChangeNotifier) *MemoryStore {
	return &MemoryStore{
		rows:        make(map[string]*memoryRow),
		notifier:    notifier,
		maxAttempts: defaultMaxAttempts,
	}
}

func (s *MemoryStore) SetNotifier(notifier ChangeNotifier) {
	s.notifier = notifier
}

func (s *MemoryStore) Create(ctx context.Context, record *model.GameRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rows[record.Id] = &memoryRow{data: data, groupId: record.GroupId, version: 1}
	s.mu.Unlock()

	s.notify(ctx, record.Id)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, gameId string) (*model.GameRecord, error) {
	record, _, err := s.snapshot(gameId)
	return record, err
}

func (s *MemoryStore) ListByGroup(ctx context.Context, groupId string, limit, offset int) ([]model.GameRecord, int64, error) {
	s.mu.Lock()
	matches := make([][]byte, 0)
	for _, row := range s.rows {
		if row.groupId == groupId {
			matches = append(matches, row.data)
		}
	}
	s.mu.Unlock()

	records := make([]model.GameRecord, 0, len(matches))
	for _, data := range matches {
		var record model.GameRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	total := int64(len(records))
	if offset >= len(records) {
		return []model.GameRecord{}, total, nil
	}
	records = records[offset:]
	if limit < len(records) {
		records = records[:limit]
	}
	return records, total, nil
}

func (s *MemoryStore) Apply(ctx context.Context, gameId string, mutation Mutation) (*model.GameRecord, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		record, version, err := s.snapshot(gameId)
		if err != nil {
			return nil, err
		}

		if err := mutation(record); err != nil {
			return nil, err
		}

		swapped, err := s.compareAndSwap(record, version)
		if err != nil {
			return nil, err
		}
		if swapped {
			s.notify(ctx, gameId)
			return record, nil
		}
	}

	return nil, ErrTransactionConflict
}

func (s *MemoryStore) snapshot(gameId string) (*model.GameRecord, int64, error) {
	s.mu.Lock()
	row, ok := s.rows[gameId]
	if !ok {
		s.mu.Unlock()
		return nil, 0, ErrNotFound
	}
	data := row.data
	version := row.version
	s.mu.Unlock()

	var record model.GameRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, 0, err
	}
	return &record, version, nil
}

func (s *MemoryStore) compareAndSwap(record *model.GameRecord, expectedVersion int64) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[record.Id]
	if !ok {
		return false, ErrNotFound
	}
	if row.version != expectedVersion {
		return false, nil
	}
	row.data = data
	row.groupId = record.GroupId
	row.version++
	return true, nil
}

func (s *MemoryStore) notify(ctx context.Context, gameId string) {
	if s.notifier != nil {
		s.notifier.GameChanged(ctx, gameId)
	}
}
