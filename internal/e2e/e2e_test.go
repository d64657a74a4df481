package e2e

import (
    "context"
    "encoding/json"
    "net/http"
    "os"
    "strings"
    "testing"
    "time"

    "github.com/rs/zerolog"

    "cpmanager/internal/notify"
    "cpmanager/pkg/types"
)

func state(t *testing.T, s *stack) types.ComponentState {
    t.Helper()
    resp, body := httpGet(t, s.srv.URL+"/admin/state")
    if resp.StatusCode != http.StatusOK { t.Fatalf("/admin/state %d %s", resp.StatusCode, body) }
    var st types.StateResponse
    if err := json.Unmarshal(body, &st); err != nil { t.Fatalf("state json: %v", err) }
    return st.State
}

// TestE2E_LifecycleOverHTTP walks the full state cycle and checks
// discoverability follows ONLINE.
func TestE2E_LifecycleOverHTTP(t *testing.T) {
    n, err := notify.New(context.Background(), notify.Config{Backend: notify.BackendNone}, notify.Deps{})
    if err != nil { t.Fatalf("notifier: %v", err) }
    s := newStack(t, n)

    if got := state(t, s); got != types.StateLoaded { t.Fatalf("initial state %s", got) }

    resp, body := httpPostJSON(t, s.srv.URL+"/admin/activate", nil)
    if resp.StatusCode != http.StatusConflict { t.Fatalf("activate from LOADED: %d %s", resp.StatusCode, body) }

    resp, body = httpPostJSON(t, s.srv.URL+"/admin/startup", []byte(`{"obs":"1"}`))
    if resp.StatusCode != http.StatusNoContent { t.Fatalf("startup: %d %s", resp.StatusCode, body) }

    resp, body = httpPostJSON(t, s.srv.URL+"/admin/activate", nil)
    if resp.StatusCode != http.StatusNoContent { t.Fatalf("activate: %d %s", resp.StatusCode, body) }
    if !s.adapter.Find(s.ctrl.Identity()) { t.Fatalf("service not visible once ONLINE") }
    if got := state(t, s); got != types.StateOnline { t.Fatalf("state after activate %s", got) }

    resp, _ = httpGet(t, s.srv.URL+"/readyz")
    if resp.StatusCode != http.StatusOK { t.Fatalf("/readyz when ONLINE: %d", resp.StatusCode) }

    resp, _ = httpPostJSON(t, s.srv.URL+"/admin/selftest", nil)
    if resp.StatusCode != http.StatusConflict { t.Fatalf("selftest when ONLINE: %d", resp.StatusCode) }

    resp, body = httpPostJSON(t, s.srv.URL+"/admin/deactivate", nil)
    if resp.StatusCode != http.StatusNoContent { t.Fatalf("deactivate: %d %s", resp.StatusCode, body) }
    if s.adapter.Find(s.ctrl.Identity()) { t.Fatalf("service still visible after deactivate") }

    resp, _ = httpPostJSON(t, s.srv.URL+"/admin/shutdown", nil)
    if resp.StatusCode != http.StatusNoContent { t.Fatalf("shutdown: %d", resp.StatusCode) }
    if got := state(t, s); got != types.StateLoaded { t.Fatalf("final state %s", got) }

    want := []string{"transition_rejected", "startup", "activate_start", "activate_done",
        "transition_rejected", "deactivate_start", "deactivate_done", "shutdown"}
    got := s.events.Names()
    if strings.Join(got, ",") != strings.Join(want, ",") { t.Fatalf("events %v, want %v", got, want) }
}

// TestE2E_ProcessingTriggersAnnotationTool drives /sbstate into the process
// notifier with a real executable.
func TestE2E_ProcessingTriggersAnnotationTool(t *testing.T) {
    tool, out := writeFakeTool(t, 0)
    n := notify.NewProcessNotifier(notify.Config{
        Tool:          tool,
        Comment:       notify.DefaultComment,
        CredentialEnv: notify.DefaultCredentialEnv,
        Env:           []string{"JIRA_USER=ops", "PATH=" + os.Getenv("PATH")},
    }, zerolog.Nop())
    s := newStack(t, n)

    for _, body := range []string{
        `{"sbid":2055,"state":"EXECUTING","update_time":"t0"}`,
        `{"sbid":2056,"state":"PROCESSING","update_time":"t1"}`,
    } {
        resp, b := httpPostJSON(t, s.srv.URL+"/sbstate", []byte(body))
        if resp.StatusCode != http.StatusAccepted { t.Fatalf("/sbstate %d %s", resp.StatusCode, b) }
    }

    var lines []string
    eventually(t, 5*time.Second, func() bool {
        b, err := os.ReadFile(out)
        if err != nil { return false }
        lines = strings.Split(strings.TrimSpace(string(b)), "\n")
        return len(lines) >= 1
    }, "annotation tool not invoked")
    time.Sleep(50 * time.Millisecond)
    if b, _ := os.ReadFile(out); strings.Count(string(b), "\n") != 1 {
        t.Fatalf("expected exactly one invocation, got %q", string(b))
    }
    want := "annotate 2056 --comment " + notify.DefaultComment + " user=ops"
    if lines[0] != want { t.Fatalf("tool args %q, want %q", lines[0], want) }
}

// TestE2E_ToolFailureKeepsSubscription checks a failing notification does not
// stop later deliveries.
func TestE2E_ToolFailureKeepsSubscription(t *testing.T) {
    tool, out := writeFakeTool(t, 3)
    n := notify.NewProcessNotifier(notify.Config{
        Tool:          tool,
        CredentialEnv: notify.DefaultCredentialEnv,
        Env:           []string{"JIRA_USER=ops", "PATH=" + os.Getenv("PATH")},
    }, zerolog.Nop())
    s := newStack(t, n)

    for _, id := range []string{"1", "2"} {
        resp, b := httpPostJSON(t, s.srv.URL+"/sbstate", []byte(`{"sbid":`+id+`,"state":"PROCESSING"}`))
        if resp.StatusCode != http.StatusAccepted { t.Fatalf("/sbstate %d %s", resp.StatusCode, b) }
    }
    eventually(t, 5*time.Second, func() bool {
        b, err := os.ReadFile(out)
        return err == nil && strings.Count(string(b), "\n") == 2
    }, "second notification not delivered after failure")
}
