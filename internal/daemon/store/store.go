package store

import (
	"sync"

	"github.com/grovetools/wallcycle/internal/rotation"
)

// Store holds the latest controller snapshot for readers outside the
// controller and fans updates out to subscribers.
type Store struct {
	mu          sync.RWMutex
	snapshot    rotation.Snapshot
	reloads     int
	subscribers map[chan Update]struct{}
}

// New creates a new Store instance.
func New() *Store {
	return &Store{
		snapshot:    rotation.Snapshot{State: rotation.StateIdle, Reason: rotation.ReasonNew},
		subscribers: make(map[chan Update]struct{}),
	}
}

// Get returns the latest snapshot.
func (s *Store) Get() rotation.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Reloads returns how many settings reloads were broadcast.
func (s *Store) Reloads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reloads
}

// ApplyUpdate records u and notifies subscribers.
func (s *Store) ApplyUpdate(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch u.Type {
	case UpdateStatus:
		if u.Snapshot != nil {
			s.snapshot = *u.Snapshot
		}
	case UpdateSettingsReload:
		s.reloads++
	}

	s.broadcast(u)
}

// broadcast must be called with mu held.
func (s *Store) broadcast(u Update) {
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// Non-blocking send to prevent slow clients from stalling the daemon
		}
	}
}

// Subscribe creates a new subscription channel for state updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100)
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}

// BroadcastSettingsReload notifies subscribers that the settings file was reloaded.
func (s *Store) BroadcastSettingsReload(file string) {
	s.ApplyUpdate(Update{
		Type:   UpdateSettingsReload,
		Source: "settings",
		File:   file,
	})
}
