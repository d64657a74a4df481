package e2e

import (
    "bytes"
    "context"
    "io"
    "net/http"
    "net/http/httptest"
    "os"
    "path/filepath"
    "runtime"
    "testing"
    "time"

    "github.com/rs/zerolog"

    "cpmanager/internal/httpapi"
    "cpmanager/internal/manager"
    "cpmanager/internal/notify"
    "cpmanager/internal/registry"
    "cpmanager/internal/relay"
)

type stack struct {
    srv     *httptest.Server
    ctrl    *manager.Controller
    adapter *registry.Adapter
    hub     *relay.Hub
    monitor *notify.StateMonitor
    events  *manager.MemoryPublisher
}

// newStack wires controller, adapter, relay and state monitor behind the
// admin mux, the same way the daemon does, minus signals and listeners.
func newStack(t *testing.T, n notify.Notifier) *stack {
    t.Helper()
    log := zerolog.Nop()
    adapter := registry.New(registry.Config{Name: "E2EAdapter", PropagationDelay: 3 * time.Millisecond, Logger: &log})
    events := manager.NewMemoryPublisher()
    ctrl, err := manager.NewWithConfig(manager.ControllerConfig{
        Backend:      adapter,
        PollInterval: time.Millisecond,
        Publisher:    events,
        Logger:       &log,
    })
    if err != nil { t.Fatalf("controller: %v", err) }

    hub := relay.New(relay.Config{Logger: &log})
    mon, err := notify.NewStateMonitor(hub, n, notify.MonitorConfig{Logger: &log})
    if err != nil { t.Fatalf("state monitor: %v", err) }
    if err := mon.Start(context.Background()); err != nil { t.Fatalf("start monitor: %v", err) }
    t.Cleanup(mon.Unsubscribe)

    srv := httptest.NewServer(httpapi.NewMux(ctrl,
        httpapi.WithObjects(adapter.Objects),
        httpapi.WithStatePublisher(mon.Publish),
    ))
    t.Cleanup(srv.Close)
    t.Cleanup(adapter.Destroy)
    return &stack{srv: srv, ctrl: ctrl, adapter: adapter, hub: hub, monitor: mon, events: events}
}

// writeFakeTool installs a shell script that appends its arguments and the
// credential variable to out, one invocation per line.
func writeFakeTool(t *testing.T, exitCode int) (tool, out string) {
    t.Helper()
    if runtime.GOOS == "windows" { t.Skip("shell script tool") }
    dir := t.TempDir()
    out = filepath.Join(dir, "calls.txt")
    tool = filepath.Join(dir, "schedblock")
    script := "#!/bin/sh\necho \"$* user=$JIRA_USER\" >> " + out + "\nexit " + itoa(exitCode) + "\n"
    if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
        t.Fatalf("write tool: %v", err)
    }
    return tool, out
}

func itoa(n int) string {
    return string(rune('0' + n))
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
    t.Helper()
    req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
    if err != nil { t.Fatalf("new req: %v", err) }
    resp, err := http.DefaultClient.Do(req)
    if err != nil { t.Fatalf("do req: %v", err) }
    body, _ := io.ReadAll(resp.Body)
    _ = resp.Body.Close()
    return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
    t.Helper()
    req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
    if err != nil { t.Fatalf("new req: %v", err) }
    req.Header.Set("Content-Type", "application/json")
    resp, err := http.DefaultClient.Do(req)
    if err != nil { t.Fatalf("do req: %v", err) }
    body, _ := io.ReadAll(resp.Body)
    _ = resp.Body.Close()
    return resp, body
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
    t.Helper()
    deadline := time.Now().Add(timeout)
    for !cond() {
        if time.Now().After(deadline) { t.Fatalf("timed out: %s", msg) }
        time.Sleep(5 * time.Millisecond)
    }
}
