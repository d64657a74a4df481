package manager

import (
	"context"
	"testing"
	"time"

	"cpmanager/pkg/types"
)

func TestEventPublisher_CycleEmitsEvents(t *testing.T) {
	c := newTestController(t, newFakeBackend(1))
	pub := NewMemoryPublisher()
	c.SetEventPublisher(pub)
	moveTo(t, c, types.StateOnline)
	ctx := context.Background()
	if err := c.Deactivate(ctx); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := c.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	// rejected transition is reported too
	_ = c.Shutdown(ctx)

	want := []string{"startup", "activate_start", "activate_done", "deactivate_start", "deactivate_done", "shutdown", "transition_rejected"}
	got := pub.Names()
	if len(got) != len(want) {
		t.Fatalf("events=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d=%q want %q (all: %v)", i, got[i], want[i], got)
		}
	}
	evts := pub.Events()
	if evts[2].State != types.StateOnline || evts[3].State != types.StateStandby {
		t.Fatalf("unexpected event states: %+v", evts)
	}
}

func TestMultiPublisherFansOut(t *testing.T) {
	a, b := NewMemoryPublisher(), NewMemoryPublisher()
	MultiPublisher{a, nil, b}.Publish(Event{Name: "x", Fields: map[string]any{}})
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatalf("expected both publishers to receive the event")
	}
}

func TestObsServiceDecodesParams(t *testing.T) {
	h, err := NewObsService(context.Background(), map[string]string{
		"name":       "cp",
		"dryrun":     "true",
		"max_blocks": "4",
		"extra":      "kept",
	})
	if err != nil {
		t.Fatalf("NewObsService: %v", err)
	}
	svc := h.(*ObsService)
	if svc.Config.Name != "cp" || !svc.Config.DryRun || svc.Config.MaxBlocks != 4 {
		t.Fatalf("unexpected config: %+v", svc.Config)
	}
	if svc.Params["extra"] != "kept" {
		t.Fatalf("expected raw params retained")
	}
	if time.Since(svc.Created) > time.Minute {
		t.Fatalf("created time not set")
	}
	if _, err := NewObsService(context.Background(), map[string]string{"max_blocks": "many"}); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := NewObsService(context.Background(), map[string]string{"max_blocks": "-1"}); err == nil {
		t.Fatalf("expected validation error")
	}
}
