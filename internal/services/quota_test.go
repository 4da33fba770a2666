package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashaspath/backend/internal/apperr"
	"github.com/sashaspath/backend/internal/types"
)

func newTestGate(t *testing.T, quota int, counter UsageCounter) *quotaGate {
	t.Helper()
	gate := &quotaGate{
		log:     testLogger(),
		counter: counter,
		quota:   quota,
		now:     time.Now,
	}
	return gate
}

func TestQuotaGate_UserLimitIsEightyPercentFloored(t *testing.T) {
	cases := []struct {
		quota int
		want  int
	}{
		{quota: 100, want: 80},
		{quota: 10, want: 8},
		{quota: 7, want: 5},
		{quota: 1, want: 0},
	}
	for _, tc := range cases {
		gate := newTestGate(t, tc.quota, newFakeCounter())
		if got := gate.userLimit(); got != tc.want {
			t.Fatalf("quota %d: expected user limit %d, got %d", tc.quota, tc.want, got)
		}
	}
}

func TestQuotaGate_AdmitsUpToUserLimitThenRejects(t *testing.T) {
	gate := newTestGate(t, 10, newFakeCounter()) // user limit 8
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if err := gate.Reserve(ctx, false); err != nil {
			t.Fatalf("reservation %d: unexpected error %v", i, err)
		}
	}
	err := gate.Reserve(ctx, false)
	if err == nil {
		t.Fatalf("expected 9th reservation to be rejected")
	}
	if !apperr.IsQuotaExceeded(err) {
		t.Fatalf("expected quota_exceeded, got %v", err)
	}
}

func TestQuotaGate_AdminUsesFullQuota(t *testing.T) {
	counter := newFakeCounter()
	gate := newTestGate(t, 10, counter)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if err := gate.Reserve(ctx, false); err != nil {
			t.Fatalf("reservation %d: unexpected error %v", i, err)
		}
	}
	// Units 9 and 10 are admin-only headroom.
	for i := 0; i < 2; i++ {
		if err := gate.Reserve(ctx, true); err != nil {
			t.Fatalf("admin reservation %d: unexpected error %v", i, err)
		}
	}
	if err := gate.Reserve(ctx, true); err == nil {
		t.Fatalf("expected admin rejection past raw quota")
	}
}

func TestQuotaGate_ConcurrentRaceAtLastUnitAdmitsExactlyOne(t *testing.T) {
	counter := newFakeCounter()
	gate := newTestGate(t, 10, counter) // user limit 8
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if err := gate.Reserve(ctx, false); err != nil {
			t.Fatalf("warmup reservation %d: %v", i, err)
		}
	}

	const racers = 16
	var admitted atomic.Int64
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			if err := gate.Reserve(ctx, false); err == nil {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != 1 {
		t.Fatalf("expected exactly 1 admitted racer, got %d", got)
	}
}

func TestQuotaGate_DayKeyIsUTCCalendarDay(t *testing.T) {
	gate := newTestGate(t, 10, newFakeCounter())
	loc := time.FixedZone("UTC+9", 9*3600)
	// 23:30 local on March 2nd is already March 2nd 14:30 UTC.
	gate.now = func() time.Time {
		return time.Date(2026, 3, 2, 23, 30, 0, 0, loc)
	}
	if got := gate.dayKey(); got != "2026-03-02" {
		t.Fatalf("expected 2026-03-02, got %q", got)
	}
	// 08:00 local on March 3rd is still March 2nd 23:00 UTC.
	gate.now = func() time.Time {
		return time.Date(2026, 3, 3, 8, 0, 0, 0, loc)
	}
	if got := gate.dayKey(); got != "2026-03-02" {
		t.Fatalf("expected 2026-03-02 before UTC midnight, got %q", got)
	}
}

func TestQuotaGate_NoRefundOnDownstreamFailure(t *testing.T) {
	counter := newFakeCounter()
	gate := newTestGate(t, 10, counter)
	generator := &fakeGenerator{
		outlineFn: func(topic string) (*types.CourseOutline, error) {
			return nil, apperr.Newf(apperr.KindGeneration, "model unavailable")
		},
	}
	builder := NewCourseOutlineBuilder(testLogger(), gate, generator)

	if _, err := builder.Build(context.Background(), "Go", false); err == nil {
		t.Fatalf("expected generation failure")
	}

	status, err := gate.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Used != 1 {
		t.Fatalf("expected the failed build to keep its unit, used=%d", status.Used)
	}
}

func TestQuotaGate_StatusReportsRemaining(t *testing.T) {
	gate := newTestGate(t, 10, newFakeCounter())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := gate.Reserve(ctx, false); err != nil {
			t.Fatalf("reserve: %v", err)
		}
	}
	status, err := gate.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Used != 3 || status.Limit != 8 || status.Remaining != 5 {
		t.Fatalf("unexpected status %+v", status)
	}
}
