package memory

import (
	"sync"

	"zuynch-quiz-service/internal/app"
)

// RoomStore is an in-memory implementation of app.RoomRepository.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*app.Room),
	}
}

func (s *RoomStore) GetOrCreate(pin string) (*app.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[pin]; ok {
		return room, false
	}
	room := app.NewRoom(pin)
	s.rooms[pin] = room
	return room, true
}

func (s *RoomStore) Get(pin string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[pin]
	return room, ok
}

func (s *RoomStore) DeleteIfEmpty(pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[pin]
	if !ok {
		return
	}
	if room.IsEmpty() {
		delete(s.rooms, pin)
	}
}

func (s *RoomStore) ForEach(fn func(room *app.Room)) {
	s.mu.RLock()
	rooms := make([]*app.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.RUnlock()

	for _, room := range rooms {
		fn(room)
	}
}
