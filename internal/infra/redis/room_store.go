package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"zuynch-quiz-service/internal/app"
)

// RoomStore is a Redis-aware implementation of app.RoomRepository.
// Notes:
//   - Room state itself stays in process memory; the broadcast and round
//     machinery needs in-process pointers.
//   - Redis holds best-effort liveness markers so an operator dashboard (or a
//     future multi-instance router) can see which PINs are live.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Room),
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(pin), "1", s.ttl).Err()
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
		_ = s.client.Del(context.Background(), s.key(pin)).Err()
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

func (s *RoomStore) key(pin string) string {
	return "room:live:" + pin
}
