package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cpmanager/pkg/types"
)

// Service defines the administrative operations exposed over HTTP.
type Service interface {
	Startup(ctx context.Context, params map[string]string) error
	Shutdown(ctx context.Context) error
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) error
	State() types.ComponentState
	SelfTest(ctx context.Context) ([]types.TestResult, error)
	Version() string
}

// Option configures optional endpoints of the mux.
type Option func(*options)

type options struct {
	objects   func() []string
	publish   func(types.NotificationEvent) error
	readiness map[string]healthcheck.Check
	now       func() time.Time
}

// WithObjects serves GET /objects from fn.
func WithObjects(fn func() []string) Option {
	return func(o *options) { o.objects = fn }
}

// WithStatePublisher enables POST /sbstate. Without it the endpoint answers 503.
func WithStatePublisher(fn func(types.NotificationEvent) error) Option {
	return func(o *options) { o.publish = fn }
}

// WithReadinessCheck adds a check to /readyz next to the ONLINE check.
func WithReadinessCheck(name string, check func() error) Option {
	return func(o *options) { o.readiness[name] = check }
}

// ErrMonitorDisabled is returned by POST /sbstate when no state publisher is configured.
var ErrMonitorDisabled = errors.New("scheduling block state monitor disabled")

type handlers struct {
	svc  Service
	opts options
}

func NewMux(svc Service, opts ...Option) http.Handler {
	o := options{readiness: map[string]healthcheck.Check{}, now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	h := &handlers{svc: svc, opts: o}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.Route("/admin", func(r chi.Router) {
		r.Post("/startup", h.startup)
		r.Post("/shutdown", h.shutdown)
		r.Post("/activate", h.activate)
		r.Post("/deactivate", h.deactivate)
		r.Post("/selftest", h.selfTest)
		r.Get("/state", h.state)
		r.Get("/version", h.version)
	})
	r.Get("/objects", h.objects)
	r.Post("/sbstate", h.sbState)

	health := healthcheck.NewHandler()
	health.AddReadinessCheck("online", func() error {
		if s := svc.State(); s != types.StateOnline {
			return fmt.Errorf("state is %s", s)
		}
		return nil
	})
	for name, check := range o.readiness {
		health.AddReadinessCheck(name, check)
	}
	r.Get("/healthz", health.LiveEndpoint)
	r.Get("/readyz", health.ReadyEndpoint)

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// runOp executes a state transition and writes 204 or the mapped error.
func (h *handlers) runOp(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context) error) {
	start := time.Now()
	ctx, cancel := opContext(r.Context())
	defer cancel()
	err := fn(ctx)
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		logOp(r, op, http.StatusNoContent, start, nil)
		return
	}
	status := statusForError(err)
	if status == http.StatusConflict {
		incrementRejected(op)
	}
	if r.Context().Err() != nil {
		// client went away; nothing to write to
		logOp(r, op, status, start, err)
		return
	}
	writeJSONError(w, status, err.Error())
	logOp(r, op, status, start, err)
}

// startup godoc
// @Summary      Create the hosted service
// @Description  Requires LOADED. The body is an optional JSON object of string parameters.
// @Tags         admin
// @Accept       json
// @Param        params  body  map[string]string  false  "startup parameters"
// @Success      204
// @Failure      400  {object}  types.ErrorResponse
// @Failure      409  {object}  types.ErrorResponse
// @Failure      500  {object}  types.ErrorResponse
// @Router       /admin/startup [post]
func (h *handlers) startup(w http.ResponseWriter, r *http.Request) {
	params := map[string]string{}
	if r.ContentLength != 0 {
		ct := r.Header.Get("Content-Type")
		if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	h.runOp(w, r, "startup", func(ctx context.Context) error { return h.svc.Startup(ctx, params) })
}

// shutdown godoc
// @Summary  Discard the hosted service
// @Tags     admin
// @Success  204
// @Failure  409  {object}  types.ErrorResponse
// @Router   /admin/shutdown [post]
func (h *handlers) shutdown(w http.ResponseWriter, r *http.Request) {
	h.runOp(w, r, "shutdown", h.svc.Shutdown)
}

// activate godoc
// @Summary      Register the hosted service
// @Description  Requires STANDBY. Blocks until the service is discoverable.
// @Tags         admin
// @Success      204
// @Failure      409  {object}  types.ErrorResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /admin/activate [post]
func (h *handlers) activate(w http.ResponseWriter, r *http.Request) {
	h.runOp(w, r, "activate", h.svc.Activate)
}

// deactivate godoc
// @Summary      Withdraw the hosted service
// @Description  Requires ONLINE. The state is STANDBY before deregistration starts.
// @Tags         admin
// @Success      204
// @Failure      409  {object}  types.ErrorResponse
// @Router       /admin/deactivate [post]
func (h *handlers) deactivate(w http.ResponseWriter, r *http.Request) {
	h.runOp(w, r, "deactivate", h.svc.Deactivate)
}

// selfTest godoc
// @Summary  Run diagnostics
// @Tags     admin
// @Produce  json
// @Success  200  {object}  types.SelfTestResponse
// @Failure  409  {object}  types.ErrorResponse
// @Router   /admin/selftest [post]
func (h *handlers) selfTest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := opContext(r.Context())
	defer cancel()
	start := time.Now()
	results, err := h.svc.SelfTest(ctx)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusConflict {
			incrementRejected("selftest")
		}
		writeJSONError(w, status, err.Error())
		logOp(r, "selftest", status, start, err)
		return
	}
	if results == nil {
		results = []types.TestResult{}
	}
	writeJSON(w, http.StatusOK, types.SelfTestResponse{Results: results})
	logOp(r, "selftest", http.StatusOK, start, nil)
}

// state godoc
// @Summary  Current component state
// @Tags     admin
// @Produce  json
// @Success  200  {object}  types.StateResponse
// @Router   /admin/state [get]
func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.StateResponse{State: h.svc.State()})
}

// version godoc
// @Summary  Component version
// @Tags     admin
// @Produce  json
// @Success  200  {object}  types.VersionResponse
// @Router   /admin/version [get]
func (h *handlers) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.VersionResponse{Version: h.svc.Version()})
}

// objects godoc
// @Summary  Identities visible on the service adapter
// @Tags     adapter
// @Produce  json
// @Success  200  {object}  types.ObjectsResponse
// @Router   /objects [get]
func (h *handlers) objects(w http.ResponseWriter, r *http.Request) {
	objs := []string{}
	if h.opts.objects != nil {
		if got := h.opts.objects(); got != nil {
			objs = got
		}
	}
	writeJSON(w, http.StatusOK, types.ObjectsResponse{Objects: objs})
}

// sbState godoc
// @Summary      Publish a scheduling block state change
// @Description  Injects the change onto the subscribed state topic.
// @Tags         notify
// @Accept       json
// @Param        change  body  types.SBStateRequest  true  "state change"
// @Success      202
// @Failure      400  {object}  types.ErrorResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /sbstate [post]
func (h *handlers) sbState(w http.ResponseWriter, r *http.Request) {
	if h.opts.publish == nil {
		writeJSONError(w, http.StatusServiceUnavailable, ErrMonitorDisabled.Error())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.SBStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SBID < 0 {
		writeJSONError(w, http.StatusBadRequest, "sbid must be >= 0")
		return
	}
	st, err := types.ParseObsState(req.State)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ts := strings.TrimSpace(req.UpdateTime)
	if ts == "" {
		ts = h.opts.now().UTC().Format("2006-01-02 15:04:05.000000")
	}
	if err := h.opts.publish(types.NotificationEvent{SBID: req.SBID, State: st, UpdateTime: ts}); err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
