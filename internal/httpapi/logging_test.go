package httpapi

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelInfo,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
}

func TestLogOp(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer func() { zlog = nil }()

	logOp(httptest.NewRequest("POST", "/admin/activate", nil), "activate", 204, time.Now(), nil)
	if !strings.Contains(buf.String(), `"op":"activate"`) || !strings.Contains(buf.String(), `"status":204`) {
		t.Fatalf("unexpected log: %s", buf.String())
	}

	buf.Reset()
	logOp(httptest.NewRequest("POST", "/admin/activate?log=error", nil), "activate", 204, time.Now(), nil)
	if buf.Len() != 0 {
		t.Fatalf("success logged at error level: %s", buf.String())
	}
	logOp(httptest.NewRequest("POST", "/admin/activate?log=error", nil), "activate", 409, time.Now(), errors.New("invalid transition"))
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("failure not logged: %s", buf.String())
	}

	buf.Reset()
	logOp(httptest.NewRequest("POST", "/admin/activate?log=off", nil), "activate", 409, time.Now(), errors.New("x"))
	if buf.Len() != 0 {
		t.Fatalf("logged with log=off: %s", buf.String())
	}
}
