package data

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/infra/feishu"
	"github.com/robot-zoo/robotzoo/internal/metrics"
)

type fakeLark struct {
	calls    []string
	err      error
	listed   []*feishu.Message
	startArg int64
	events   []*feishu.Message
}

func (f *fakeLark) Listen(ctx context.Context, handler feishu.MessageHandler) error {
	for _, m := range f.events {
		handler(m)
	}
	return f.err
}

func (f *fakeLark) SendText(ctx context.Context, idType, id, text string) (string, error) {
	f.calls = append(f.calls, "send "+idType+" "+id+" "+text)
	return "om_new", f.err
}

func (f *fakeLark) Reply(ctx context.Context, msgID, text string) error {
	f.calls = append(f.calls, "reply "+msgID+" "+text)
	return f.err
}

func (f *fakeLark) Forward(ctx context.Context, msgID, chatID string) error {
	f.calls = append(f.calls, "forward "+msgID+" "+chatID)
	return f.err
}

func (f *fakeLark) Delete(ctx context.Context, msgID string) error {
	f.calls = append(f.calls, "delete "+msgID)
	return f.err
}

func (f *fakeLark) AddMembers(ctx context.Context, chatID string, openIDs []string) error {
	f.calls = append(f.calls, "add "+chatID+" "+openIDs[0])
	return f.err
}

func (f *fakeLark) ListMessages(ctx context.Context, chatID string, startSeconds int64, pageSize int) ([]*feishu.Message, error) {
	f.startArg = startSeconds
	return f.listed, f.err
}

func newTestSocial(f *fakeLark) *socialRepo {
	return NewSocialRepo(f, "oc_timeline", 0, metrics.NewNop(), zap.NewNop()).(*socialRepo)
}

func TestSocialRepo_WritesTargetTimeline(t *testing.T) {
	f := &fakeLark{}
	r := newTestSocial(f)
	ctx := context.Background()

	_ = r.PostStatus(ctx, "BEEP")
	_ = r.PostReply(ctx, "om_1", "@bob BEEP")
	_ = r.Repost(ctx, "om_2")
	_ = r.Follow(ctx, "ou_bob")
	_ = r.SendDirectMessage(ctx, "ou_admin", "Term added: go")
	_ = r.DeleteDirectMessage(ctx, "om_3")

	want := []string{
		"send chat_id oc_timeline BEEP",
		"reply om_1 @bob BEEP",
		"forward om_2 oc_timeline",
		"add oc_timeline ou_bob",
		"send open_id ou_admin Term added: go",
		"delete om_3",
	}
	if diff := cmp.Diff(want, f.calls); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSocialRepo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		rateLimited bool
		retryable   bool
	}{
		{"rate limit", &feishu.APIError{Op: "reply", Code: 99991400}, true, true},
		{"im rate limit", &feishu.APIError{Op: "reply", Code: 230020}, true, true},
		{"permanent", &feishu.APIError{Op: "reply", Code: 230002}, false, false},
		{"transport", errors.New("connection reset"), false, true},
		{"cancelled", context.Canceled, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestSocial(&fakeLark{err: tt.err})
			err := r.PostReply(context.Background(), "om_1", "x")

			var se *domain.ServiceError
			if !errors.As(err, &se) {
				t.Fatalf("Expected ServiceError, got %v", err)
			}
			if se.RateLimited != tt.rateLimited || se.Retryable != tt.retryable {
				t.Errorf("Got rateLimited=%v retryable=%v", se.RateLimited, se.Retryable)
			}
			if !errors.Is(err, tt.err) {
				t.Error("Expected cause to be wrapped")
			}
		})
	}
}

func TestSocialRepo_Mentions(t *testing.T) {
	f := &fakeLark{listed: []*feishu.Message{
		{MsgID: "om_old", CreateTime: 1000, MentionsBot: true, Sender: &feishu.Sender{SenderID: "ou_a"}},
		{MsgID: "om_1", CreateTime: 2500, MentionsBot: true, Content: "alarm 7:30", Sender: &feishu.Sender{SenderID: "ou_a"}},
		{MsgID: "om_2", CreateTime: 2600, Content: "no mention", Sender: &feishu.Sender{SenderID: "ou_b"}},
		{MsgID: "om_3", CreateTime: 2700, MentionsBot: true, Sender: &feishu.Sender{SenderID: "cli_x", SenderType: "app"}},
	}}
	r := newTestSocial(f)

	got, cursor, err := r.Mentions(context.Background(), "1000")
	if err != nil {
		t.Fatalf("Mentions: %v", err)
	}
	if f.startArg != 1 {
		t.Errorf("Expected start of 1s, got %d", f.startArg)
	}
	if cursor != "2700" {
		t.Errorf("Expected cursor 2700, got %q", cursor)
	}
	if len(got) != 1 || got[0].ID != "om_1" || got[0].ScreenName != "ou_a" || got[0].Text != "alarm 7:30" {
		t.Errorf("Unexpected mentions: %+v", got)
	}
}

func TestSocialRepo_MentionsKeepsCursorOnEmpty(t *testing.T) {
	r := newTestSocial(&fakeLark{})

	got, cursor, err := r.Mentions(context.Background(), "")
	if err != nil {
		t.Fatalf("Mentions: %v", err)
	}
	if len(got) != 0 || cursor != "" {
		t.Errorf("Expected nothing, got %v cursor %q", got, cursor)
	}
}

func TestSocialRepo_Stream(t *testing.T) {
	f := &fakeLark{events: []*feishu.Message{
		{MsgID: "om_dm", ChatType: "p2p", Content: "+go", Sender: &feishu.Sender{SenderID: "ou_admin"}},
		{MsgID: "om_post", ChatType: "group", ChatID: "oc_1", Content: "golang news", Sender: &feishu.Sender{SenderID: "ou_c"}},
	}}
	r := newTestSocial(f)

	var events []domain.Event
	if err := r.Stream(context.Background(), func(e domain.Event) { events = append(events, e) }); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Kind != domain.EventKindDirectMessage || events[0].DirectMessage.SenderScreenName != "ou_admin" {
		t.Errorf("Unexpected first event: %+v", events[0])
	}
	if events[1].Kind != domain.EventKindStatus || events[1].Status.UserID != "ou_c" || events[1].Status.ChatID != "oc_1" {
		t.Errorf("Unexpected second event: %+v", events[1])
	}
}
