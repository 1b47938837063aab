package data

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
)

func TestStateRepo_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "state.db")
	r, err := NewStateRepo(dbPath)
	if err != nil {
		t.Fatalf("NewStateRepo: %v", err)
	}
	defer r.Close()
	ctx := context.Background()

	want := &domain.BotState{
		Terms:       []string{"zebra", "apple", "mango"},
		Chance:      42,
		Admins:      []string{"alice", "bob"},
		Alarms:      map[string]map[string]string{"07:30": {"m1": "alice", "m2": "bob"}, "23:00": {"m3": "carol"}},
		LastMention: "1700000000000",
	}
	if err := r.Save(ctx, "grotebroer", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := r.Load(ctx, "grotebroer")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Term order is significant
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("State mismatch (-want +got):\n%s", diff)
	}
}

func TestStateRepo_SaveReplaces(t *testing.T) {
	r, err := NewStateRepo(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewStateRepo: %v", err)
	}
	defer r.Close()
	ctx := context.Background()

	first := domain.NewBotState()
	first.Terms = []string{"a", "b"}
	first.AddAlarm("08:00", "m1", "x")
	if err := r.Save(ctx, "casio", first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := domain.NewBotState()
	second.Terms = []string{"b"}
	if err := r.Save(ctx, "casio", second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := r.Load(ctx, "casio")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, got.Terms); diff != "" {
		t.Errorf("Terms mismatch (-want +got):\n%s", diff)
	}
	if len(got.Alarms) != 0 {
		t.Errorf("Expected alarms to be cleared, got %v", got.Alarms)
	}
}

func TestStateRepo_BotsAreIsolated(t *testing.T) {
	r, err := NewStateRepo(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewStateRepo: %v", err)
	}
	defer r.Close()
	ctx := context.Background()

	s := domain.NewBotState()
	s.Chance = 10
	s.Terms = []string{"only"}
	if err := r.Save(ctx, "one", s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other, err := r.Load(ctx, "two")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if other.Chance != 0 || len(other.Terms) != 0 || other.Alarms == nil {
		t.Errorf("Expected fresh state for unknown bot, got %+v", other)
	}
}

func TestStateRepo_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	r, err := NewStateRepo(dbPath)
	if err != nil {
		t.Fatalf("NewStateRepo: %v", err)
	}
	s := domain.NewBotState()
	s.Chance = 77
	if err := r.Save(ctx, "msvlieland", s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	r.Close()

	r, err = NewStateRepo(dbPath)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer r.Close()
	got, err := r.Load(ctx, "msvlieland")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Chance != 77 {
		t.Errorf("Expected chance to survive reopen, got %d", got.Chance)
	}
}
