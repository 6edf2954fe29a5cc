package history

import (
	"sort"
	"sync"

	"github.com/couchcryptid/precip-history-service/internal/domain"
)

// Store holds every retained observation, keyed by hour-of-month address.
// The tracker serializes all mutation within a cycle; the mutex exists so
// the admin surface can read a consistent snapshot mid-cycle.
type Store struct {
	mu      sync.RWMutex
	records map[domain.Address]domain.Observation
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[domain.Address]domain.Observation)}
}

// Exists reports whether an address is occupied.
func (s *Store) Exists(addr domain.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[addr]
	return ok
}

// InsertIfAbsent stores obs at addr unless the slot is already occupied.
// First write wins: re-fetched rows never overwrite what an earlier cycle
// captured. Returns true when the record was inserted.
func (s *Store) InsertIfAbsent(addr domain.Address, obs domain.Observation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[addr]; ok {
		return false
	}
	s.records[addr] = obs
	return true
}

// Get returns the record at addr, if any.
func (s *Store) Get(addr domain.Address) (domain.Observation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obs, ok := s.records[addr]
	return obs, ok
}

// AllAddresses returns a sorted snapshot of every occupied address. Callers
// iterate the snapshot freely while mutating the store.
func (s *Store) AllAddresses() []domain.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addrs := make([]domain.Address, 0, len(s.records))
	for addr := range s.records {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// DeleteAll removes every listed address. Missing addresses are ignored.
func (s *Store) DeleteAll(addrs []domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, addr := range addrs {
		delete(s.records, addr)
	}
}

// Clear drops every record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[domain.Address]domain.Observation)
}

// Len returns the number of retained records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Newest returns the most recent record by calendar hour. Numeric address
// order is wrong across a month boundary (address 0 on March 1 is newer
// than 743 on February 28), so recency compares the calendar tags.
func (s *Store) Newest() (domain.Observation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest domain.Observation
	found := false
	for _, obs := range s.records {
		if !found || laterObservation(obs, newest) {
			newest = obs
			found = true
		}
	}
	return newest, found
}

func laterObservation(a, b domain.Observation) bool {
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	if a.Month != b.Month {
		return a.Month > b.Month
	}
	if a.DayOfMonth != b.DayOfMonth {
		return a.DayOfMonth > b.DayOfMonth
	}
	return a.HourOfDay > b.HourOfDay
}
