package data

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/infra/feishu"
)

func TestDryRunRepo_LogsWrites(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := NewDryRunRepo(nil, zap.New(core)).(*dryRunRepo)
	ctx := context.Background()

	if err := r.PostStatus(ctx, "TOET"); err != nil {
		t.Fatalf("PostStatus: %v", err)
	}
	if err := r.Repost(ctx, "om_1"); err != nil {
		t.Fatalf("Repost: %v", err)
	}

	if r.Writes() != 2 {
		t.Errorf("Expected 2 writes, got %d", r.Writes())
	}
	entries := logs.FilterMessage("post_status").All()
	if len(entries) != 1 || entries[0].ContextMap()["text"] != "TOET" {
		t.Errorf("Unexpected post_status log: %+v", entries)
	}
}

func TestDryRunRepo_ReadsFromWrapped(t *testing.T) {
	f := &fakeLark{listed: []*feishu.Message{
		{MsgID: "om_1", CreateTime: 5000, MentionsBot: true, Sender: &feishu.Sender{SenderID: "ou_a"}},
	}}
	r := NewDryRunRepo(newTestSocial(f), zap.NewNop())

	got, cursor, err := r.Mentions(context.Background(), "")
	if err != nil {
		t.Fatalf("Mentions: %v", err)
	}
	if len(got) != 1 || cursor != "5000" {
		t.Errorf("Expected wrapped mentions, got %v %q", got, cursor)
	}

	if err := r.Follow(context.Background(), "ou_a"); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("Expected no writes to reach the platform, got %v", f.calls)
	}
}

func TestDryRunRepo_NoReader(t *testing.T) {
	r := NewDryRunRepo(nil, zap.NewNop())

	got, cursor, err := r.Mentions(context.Background(), "42")
	if err != nil || len(got) != 0 || cursor != "42" {
		t.Errorf("Expected no mentions and unchanged cursor, got %v %q %v", got, cursor, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.Stream(ctx, func(domain.Event) { t.Error("Unexpected event") }); err != nil {
		t.Errorf("Stream: %v", err)
	}
}
