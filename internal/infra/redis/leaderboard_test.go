package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestLeaderboardRanksByScore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	lb := NewLeaderboard(newClient(mr))

	for _, u := range []struct {
		name  string
		score int
	}{{"Ana", 450}, {"Bob", 200}, {"Cleo", 700}} {
		if err := lb.UpdateScore(ctx, "1234", u.name, u.score); err != nil {
			t.Fatalf("update %s: %v", u.name, err)
		}
	}
	// Scores are absolute, so a new update overwrites the old one.
	if err := lb.UpdateScore(ctx, "1234", "Bob", 900); err != nil {
		t.Fatalf("update: %v", err)
	}

	top, err := lb.Top(ctx, "1234", 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Username != "Bob" || top[0].Score != 900 || top[0].Rank != 1 {
		t.Fatalf("unexpected first entry %+v", top[0])
	}
	if top[1].Username != "Cleo" || top[1].Rank != 2 {
		t.Fatalf("unexpected second entry %+v", top[1])
	}
}

func TestRemoveRoomDropsTheSet(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	lb := NewLeaderboard(newClient(mr))
	if err := lb.UpdateScore(ctx, "1234", "Ana", 100); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := lb.RemoveRoom(ctx, "1234"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	top, err := lb.Top(ctx, "1234", 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("expected empty board, got %+v", top)
	}
}
