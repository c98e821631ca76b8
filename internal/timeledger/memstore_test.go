package timeledger

import (
	"context"
	"sync"
	"time"

	"numeraapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// memStore mirrors the mongo store's atomicity guarantees with a mutex:
// AddAtomic applies the increment and the history append as one step.
type memStore struct {
	mu   sync.Mutex
	docs map[bson.ObjectID]*schemas.TimeBalance
	err  error // when set, every operation fails with it
}

func newMemStore() *memStore {
	return &memStore{docs: map[bson.ObjectID]*schemas.TimeBalance{}}
}

func (s *memStore) Get(ctx context.Context, uid bson.ObjectID) (*schemas.TimeBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	tb, ok := s.docs[uid]
	if !ok {
		return nil, ErrNotInitialized
	}
	cp := *tb
	cp.History = append([]schemas.Adjustment(nil), tb.History...)
	return &cp, nil
}

func (s *memStore) Create(ctx context.Context, tb *schemas.TimeBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.docs[tb.Id]; ok {
		return ErrAlreadyExists
	}
	cp := *tb
	cp.History = append([]schemas.Adjustment(nil), tb.History...)
	s.docs[tb.Id] = &cp
	return nil
}

func (s *memStore) Overwrite(ctx context.Context, uid bson.ObjectID, seconds int, adj schemas.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	tb, ok := s.docs[uid]
	if !ok {
		return ErrNotInitialized
	}
	tb.RemainingSeconds = seconds
	tb.LastSyncedAt = adj.At
	tb.History = append(tb.History, adj)
	return nil
}

func (s *memStore) AddAtomic(ctx context.Context, uid bson.ObjectID, delta int, adj schemas.Adjustment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	tb, ok := s.docs[uid]
	if !ok {
		tb = &schemas.TimeBalance{Id: uid, Ctime: adj.At}
		s.docs[uid] = tb
	}
	tb.RemainingSeconds += delta
	tb.LastSyncedAt = adj.At
	adj.DeltaSeconds = delta
	adj.Seconds = tb.RemainingSeconds
	tb.History = append(tb.History, adj)
	return tb.RemainingSeconds, nil
}

// setRemaining plants a raw value, bypassing the ledger.
func (s *memStore) setRemaining(uid bson.ObjectID, seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tb, ok := s.docs[uid]; ok {
		tb.RemainingSeconds = seconds
	} else {
		s.docs[uid] = &schemas.TimeBalance{Id: uid, Ctime: time.Now(), RemainingSeconds: seconds}
	}
}
