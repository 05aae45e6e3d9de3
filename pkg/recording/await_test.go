package recording

import (
	"context"
	"testing"
	"time"

	"github.com/livekit/protocol/livekit"
)

func TestWaitForFileStartUsesFileResultFallback(t *testing.T) {
	fileNs := time.Now().Add(-time.Second).UnixNano()
	item := activeEgress("math-101", "EG_1", time.Second)
	item.FileResults = []*livekit.FileInfo{{StartedAt: fileNs}}
	egress := &fakeEgress{items: []*livekit.EgressInfo{item}}
	svc := newTestService(egress, nil)

	got, err := svc.waitForFileStart(context.Background(), "EG_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := fileNs / int64(time.Millisecond); got != want {
		t.Fatalf("expected %d ms, got %d", want, got)
	}
}

func TestWaitForFileStartPrefersFileOverResults(t *testing.T) {
	fileNs := time.Now().Add(-2 * time.Second).UnixNano()
	item := activeEgress("math-101", "EG_1", time.Second)
	item.Result = &livekit.EgressInfo_File{File: &livekit.FileInfo{StartedAt: fileNs}}
	item.FileResults = []*livekit.FileInfo{{StartedAt: fileNs + int64(time.Second)}}
	egress := &fakeEgress{items: []*livekit.EgressInfo{item}}
	svc := newTestService(egress, nil)

	got, err := svc.waitForFileStart(context.Background(), "EG_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := fileNs / int64(time.Millisecond); got != want {
		t.Fatalf("expected the file-level timestamp %d, got %d", want, got)
	}
}

func TestWaitForFileStartTerminalWhenEndedFirst(t *testing.T) {
	item := activeEgress("math-101", "EG_1", time.Second)
	item.EndedAt = time.Now().UnixNano()
	egress := &fakeEgress{items: []*livekit.EgressInfo{item}}
	svc := newTestService(egress, nil)

	if _, err := svc.waitForFileStart(context.Background(), "EG_1"); err == nil {
		t.Fatalf("expected a terminal error when the egress ended before the file started")
	}
}

func TestWaitForFileStartTerminalWhenMissing(t *testing.T) {
	svc := newTestService(&fakeEgress{}, nil)

	if _, err := svc.waitForFileStart(context.Background(), "EG_nope"); err == nil {
		t.Fatalf("expected a terminal error for a missing egress")
	}
}

func TestWaitForFileStartToleratesTransientListingErrors(t *testing.T) {
	fileNs := time.Now().UnixNano()
	item := activeEgress("math-101", "EG_1", time.Second)
	item.Result = &livekit.EgressInfo_File{File: &livekit.FileInfo{StartedAt: fileNs}}
	egress := &fakeEgress{items: []*livekit.EgressInfo{item}, listFailures: 2}
	svc := newTestService(egress, nil)

	got, err := svc.waitForFileStart(context.Background(), "EG_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == 0 {
		t.Fatalf("expected the wait to succeed after transient failures")
	}
}

func TestWaitForFileStartTimesOutWithoutError(t *testing.T) {
	egress := &fakeEgress{items: []*livekit.EgressInfo{activeEgress("math-101", "EG_1", time.Second)}}
	svc := newTestService(egress, nil)
	svc.cfg.StartTimeout = 50 * time.Millisecond

	got, err := svc.waitForFileStart(context.Background(), "EG_1")
	if err != nil {
		t.Fatalf("expected a silent timeout, got %v", err)
	}
	if got != 0 {
		t.Fatalf("expected no start time on timeout, got %d", got)
	}
}
