package store

import (
	"context"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-bankpay/app/entity"
)

// MemoryStore keeps transactions in process memory. It honors the same
// contract as the durable store, including the duplicate-request
// rejection, so tests and single-process deployments can use it
// interchangeably.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     uint64
	byTracking map[int64][]*entity.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     1,
		byTracking: map[int64][]*entity.Transaction{},
	}
}

func (s *MemoryStore) HasRequest(_ context.Context, trackingNumber int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(trackingNumber, entity.TransactionRequest) != nil, nil
}

func (s *MemoryStore) Append(_ context.Context, txn *entity.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if txn.Kind == entity.TransactionRequest && s.findLocked(txn.TrackingNumber, entity.TransactionRequest) != nil {
		return ErrDuplicateRequest
	}

	stored := *txn
	stored.ID = s.nextID
	s.nextID++
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.byTracking[stored.TrackingNumber] = append(s.byTracking[stored.TrackingNumber], &stored)

	txn.ID = stored.ID
	return nil
}

func (s *MemoryStore) FindRequest(_ context.Context, trackingNumber int64) (*entity.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTransaction(s.findLocked(trackingNumber, entity.TransactionRequest)), nil
}

func (s *MemoryStore) LatestVerify(_ context.Context, trackingNumber int64) (*entity.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTransaction(s.latestLocked(trackingNumber, entity.TransactionVerify)), nil
}

func (s *MemoryStore) LatestRefund(_ context.Context, trackingNumber int64) (*entity.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTransaction(s.latestLocked(trackingNumber, entity.TransactionRefund)), nil
}

func (s *MemoryStore) findLocked(trackingNumber int64, kind entity.TransactionKind) *entity.Transaction {
	for _, txn := range s.byTracking[trackingNumber] {
		if txn.Kind == kind {
			return txn
		}
	}
	return nil
}

func (s *MemoryStore) latestLocked(trackingNumber int64, kind entity.TransactionKind) *entity.Transaction {
	items := s.byTracking[trackingNumber]
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Kind == kind {
			return items[i]
		}
	}
	return nil
}

func copyTransaction(txn *entity.Transaction) *entity.Transaction {
	if txn == nil {
		return nil
	}
	copied := *txn
	return &copied
}
