package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

type recordingService struct {
	mu     sync.Mutex
	events []ports.AuditEventInput
	block  chan struct{}
	err    error
}

func (s *recordingService) Process(_ context.Context, e ports.AuditEventInput) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingService) ListRecent(context.Context, int) ([]domain.AuditEvent, error) {
	return nil, nil
}

func (s *recordingService) snapshot() []ports.AuditEventInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.AuditEventInput(nil), s.events...)
}

func TestDispatcher_StopDrainsQueues(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(4, svc, zerolog.Nop())
	d.Start(context.Background())

	for i := 0; i < 100; i++ {
		d.Record(ports.AuditEventInput{UserID: "user-" + string(rune('a'+i%5)), Action: domain.ActionUserLogin})
	}
	d.Stop()

	if got := len(svc.snapshot()); got != 100 {
		t.Fatalf("expected 100 processed events, got %d", got)
	}
}

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(8, svc, zerolog.Nop())
	d.Start(context.Background())

	actions := []string{domain.ActionUserRegistered, domain.ActionUserLogin, domain.ActionProfileUpdated, domain.ActionUserLogout}
	for _, a := range actions {
		d.Record(ports.AuditEventInput{UserID: "u1", Action: a})
		d.Record(ports.AuditEventInput{UserID: "u2", Action: a})
	}
	d.Stop()

	var u1 []string
	for _, e := range svc.snapshot() {
		if e.UserID == "u1" {
			u1 = append(u1, e.Action)
		}
	}
	if len(u1) != len(actions) {
		t.Fatalf("expected %d events for u1, got %d", len(actions), len(u1))
	}
	for i := range actions {
		if u1[i] != actions[i] {
			t.Fatalf("order broken at %d: %v", i, u1)
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingService{}, zerolog.Nop())
	first := d.shardIndex("user-42")
	for i := 0; i < 10; i++ {
		if d.shardIndex("user-42") != first {
			t.Fatalf("shard index changed between calls")
		}
	}
	if idx := d.shardIndex(""); idx < 0 || idx >= 8 {
		t.Fatalf("shard index out of range: %d", idx)
	}
}

func TestDispatcher_RecordNeverBlocks(t *testing.T) {
	svc := &recordingService{block: make(chan struct{})}
	d := NewDispatcher(1, svc, zerolog.Nop())
	d.Start(context.Background())

	done := make(chan struct{})
	go func() {
		// one in flight plus a full buffer, then overflow
		for i := 0; i < channelBuffer+10; i++ {
			d.Record(ports.AuditEventInput{UserID: "u1", Action: domain.ActionUserLogin})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Record blocked on a full queue")
	}

	close(svc.block)
	d.Stop()
	if got := len(svc.snapshot()); got > channelBuffer+1 || got == 0 {
		t.Fatalf("unexpected processed count %d", got)
	}
}

func TestDispatcher_RecordAfterStopIsDropped(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(2, svc, zerolog.Nop())
	d.Start(context.Background())
	d.Stop()

	d.Record(ports.AuditEventInput{UserID: "u1", Action: domain.ActionUserLogin})
	d.Stop()

	if got := len(svc.snapshot()); got != 0 {
		t.Fatalf("expected no processed events, got %d", got)
	}
}

func TestDispatcher_ProcessErrorDoesNotStopWorker(t *testing.T) {
	svc := &recordingService{err: errors.New("db down")}
	d := NewDispatcher(1, svc, zerolog.Nop())
	d.Start(context.Background())

	d.Record(ports.AuditEventInput{UserID: "u1", Action: domain.ActionUserLogin})
	d.Record(ports.AuditEventInput{UserID: "u1", Action: domain.ActionUserLogout})
	d.Stop()

	if got := len(svc.snapshot()); got != 2 {
		t.Fatalf("expected worker to keep going after errors, got %d events", got)
	}
}
