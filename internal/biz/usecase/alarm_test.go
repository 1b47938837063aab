package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
)

func TestAlarmUsecase_SaveThenDrain(t *testing.T) {
	store, stateRepo := newTestStore(t, nil)
	uc := NewAlarmUsecase(store, nil, nopLogger())
	ctx := context.Background()

	if err := uc.Save(ctx, domain.AlarmTime{Hour: 14, Minute: 30}, "m1", "alice"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if stateRepo.saveCount() != 1 {
		t.Errorf("Expected Save to persist once, got %d", stateRepo.saveCount())
	}

	due, err := uc.DrainDue(ctx, 14, 30)
	if err != nil {
		t.Fatalf("DrainDue: %v", err)
	}
	want := []domain.AlarmRequest{{MessageID: "m1", ScreenName: "alice"}}
	if diff := cmp.Diff(want, due); diff != "" {
		t.Errorf("DrainDue mismatch (-want +got):\n%s", diff)
	}
	if _, ok := uc.List()["14:30"]; ok {
		t.Error("Key should be absent after drain")
	}
	if stateRepo.saveCount() != 2 {
		t.Errorf("Expected drain to persist, got %d saves", stateRepo.saveCount())
	}
}

func TestAlarmUsecase_DrainEmptyKeyDoesNotPersist(t *testing.T) {
	store, stateRepo := newTestStore(t, nil)
	uc := NewAlarmUsecase(store, nil, nopLogger())

	due, err := uc.DrainDue(context.Background(), 9, 0)
	if err != nil {
		t.Fatalf("DrainDue: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("Expected nothing due, got %v", due)
	}
	if stateRepo.saveCount() != 0 {
		t.Errorf("Expected no save, got %d", stateRepo.saveCount())
	}
}

func TestAlarmUsecase_RecordMentions(t *testing.T) {
	store, stateRepo := newTestStore(t, nil)
	parser := domain.NewAlarmParser(
		domain.WithKeyword("alarm"),
		domain.WithNow(func() time.Time { return time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC) }),
	)
	uc := NewAlarmUsecase(store, parser, nopLogger())

	mentions := []domain.Status{
		{ID: "10", Text: "@casio alarm 07:30", ScreenName: "alice"},
		{ID: "11", Text: "@casio hello there", ScreenName: "bob"},
		{ID: "12", Text: "@casio alarm 14:00 +0200", ScreenName: "carol"},
	}
	added, err := uc.RecordMentions(context.Background(), mentions, "12")
	if err != nil {
		t.Fatalf("RecordMentions: %v", err)
	}
	if added != 2 {
		t.Errorf("Expected 2 alarms, got %d", added)
	}

	want := map[string]map[string]string{
		"07:30": {"10": "alice"},
		"13:00": {"12": "carol"},
	}
	if diff := cmp.Diff(want, uc.List()); diff != "" {
		t.Errorf("Alarms mismatch (-want +got):\n%s", diff)
	}
	if uc.Cursor() != "12" {
		t.Errorf("Expected cursor 12, got %q", uc.Cursor())
	}
	if stateRepo.saveCount() != 1 {
		t.Errorf("Expected a single save, got %d", stateRepo.saveCount())
	}
}

func TestAlarmUsecase_RecordMentionsNothingNew(t *testing.T) {
	store, stateRepo := newTestStore(t, &domain.BotState{LastMention: "5"})
	uc := NewAlarmUsecase(store, nil, nopLogger())

	added, err := uc.RecordMentions(context.Background(), nil, "5")
	if err != nil {
		t.Fatalf("RecordMentions: %v", err)
	}
	if added != 0 || stateRepo.saveCount() != 0 {
		t.Errorf("Expected no change, got added=%d saves=%d", added, stateRepo.saveCount())
	}
}

func TestAlarmUsecase_DrainKeepsAlarmsWhenSaveFails(t *testing.T) {
	store, stateRepo := newTestStore(t, nil)
	uc := NewAlarmUsecase(store, nil, nopLogger())
	ctx := context.Background()

	if err := uc.Save(ctx, domain.AlarmTime{Hour: 7, Minute: 30}, "m1", "alice"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	stateRepo.saveErr = errBoom

	due, err := uc.DrainDue(ctx, 7, 30)
	if err == nil {
		t.Fatal("Expected save error")
	}
	if len(due) != 0 {
		t.Errorf("Nothing may be answered when the drain was not saved, got %v", due)
	}
	if diff := cmp.Diff(map[string]map[string]string{"07:30": {"m1": "alice"}}, uc.List()); diff != "" {
		t.Errorf("Alarms mismatch (-want +got):\n%s", diff)
	}

	// Storage recovers: the alarm fires once
	stateRepo.saveErr = nil
	due, err = uc.DrainDue(ctx, 7, 30)
	if err != nil || len(due) != 1 {
		t.Errorf("Expected one alarm after recovery, got %v (%v)", due, err)
	}
}
