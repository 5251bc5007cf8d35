package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/skyview/skyview-reprojection/internal/platesolve"
)

var (
	// ErrNotFound is returned when a submission is not tracked.
	ErrNotFound = errors.New("submission not found")
)

// MemoryStore is a concurrency-safe in-memory submission store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: submission id
	data map[int]platesolve.Submission

	// retention configuration
	maxHistory int           // max number of submissions kept
	maxAge     time.Duration // optional max age since submission

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[int]platesolve.Submission),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save inserts or replaces a submission and enforces retention.
func (s *MemoryStore) Save(sub platesolve.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sub.SubID] = sub

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		for id, old := range s.data {
			if old.SubmittedAt.Before(cutoff) {
				delete(s.data, id)
			}
		}
	}

	// Enforce retention by count, dropping the oldest first.
	if s.maxHistory > 0 && len(s.data) > s.maxHistory {
		subs := s.sortedLocked()
		for _, old := range subs[:len(subs)-s.maxHistory] {
			delete(s.data, old.SubID)
		}
	}
}

// Get returns a tracked submission.
func (s *MemoryStore) Get(subID int) (platesolve.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.data[subID]
	if !ok {
		return platesolve.Submission{}, ErrNotFound
	}
	return sub, nil
}

// Pending returns the submissions still waiting on the solver, oldest first.
func (s *MemoryStore) Pending() []platesolve.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []platesolve.Submission
	for _, sub := range s.sortedLocked() {
		if !sub.Status.Done() {
			result = append(result, sub)
		}
	}
	return result
}

// Len returns the number of tracked submissions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) sortedLocked() []platesolve.Submission {
	subs := make([]platesolve.Submission, 0, len(s.data))
	for _, sub := range s.data {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].SubmittedAt.Before(subs[j].SubmittedAt)
		}
		return subs[i].SubID < subs[j].SubID
	})
	return subs
}
