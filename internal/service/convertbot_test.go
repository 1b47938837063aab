package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// draws answers intN by its argument, like a lookup of randint ranges
func draws(byN map[int]int) func(int) int {
	return func(n int) int { return byN[n] }
}

func TestConvertBot_PostTime(t *testing.T) {
	social := &recordingSocial{}
	svc := NewConvertService(social, 2001, draws(map[int]int{2001: 42, 35: 14}), nil, nopLogger())

	at := time.Date(2013, 7, 23, 20, 1, 0, 0, time.FixedZone("CEST", 2*60*60))
	if !svc.PostTime(context.Background(), at) {
		t.Fatal("Expected a post")
	}
	want := []string{"status Current UTC+2 time in base 16 is 14:01"}
	if diff := cmp.Diff(want, social.Calls()); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertBot_NotNow(t *testing.T) {
	social := &recordingSocial{}
	svc := NewConvertService(social, 2001, draws(map[int]int{2001: 13, 35: 14}), nil, nopLogger())

	svc.OnMinute(context.Background(), time.Date(2013, 7, 23, 20, 1, 0, 0, time.UTC))
	if len(social.Calls()) != 0 {
		t.Errorf("Expected no post, got %v", social.Calls())
	}
}

func TestConvertBot_SmallOdds(t *testing.T) {
	social := &recordingSocial{}
	// 42 is out of range for intN(10); the draw wraps to 2
	svc := NewConvertService(social, 10, draws(map[int]int{10: 2, 35: 14}), nil, nopLogger())

	at := time.Date(2013, 7, 23, 20, 1, 0, 0, time.FixedZone("CEST", 2*60*60))
	if !svc.PostTime(context.Background(), at) {
		t.Fatal("Expected a post with odds below the lucky draw")
	}
}

func TestConvertBot_OddsOfOneAlwaysPosts(t *testing.T) {
	social := &recordingSocial{}
	svc := NewConvertService(social, 1, nil, nil, nopLogger())

	for i := 0; i < 5; i++ {
		svc.OnMinute(context.Background(), time.Date(2013, 7, 23, 20, i, 0, 0, time.UTC))
	}
	if got := len(social.Calls()); got != 5 {
		t.Errorf("Expected 5 posts, got %d", got)
	}
}
