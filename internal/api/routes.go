package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/FlyingRobots-Pequi/pidcal/internal/auth"
	"github.com/FlyingRobots-Pequi/pidcal/internal/chart"
	"github.com/FlyingRobots-Pequi/pidcal/internal/controller"
	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
	"github.com/FlyingRobots-Pequi/pidcal/internal/series"
)

//go:embed web
var webFS embed.FS

// RegisterRoutes registers the /api/v1 endpoints and the operator page.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	apiV1 := "/api/v1"
	m := s.opts.Auth
	read := func(h http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(m.RequireScope(auth.ScopeTelemetry)(h))
	}
	control := func(h http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(m.RequireScope(auth.ScopeControl)(h))
	}

	mux.HandleFunc(apiV1+"/health", s.handleHealth)

	mux.HandleFunc(apiV1+"/status", read(s.handleStatus))
	mux.HandleFunc(apiV1+"/params", read(s.handleParams))
	mux.HandleFunc(apiV1+"/controllers", read(s.handleControllers))
	mux.HandleFunc(apiV1+"/series/{controller}/{axis}", read(s.handleSeries))
	mux.HandleFunc(apiV1+"/charts/{controller}/{file}", read(s.handleChart))
	mux.HandleFunc(apiV1+"/telemetry", read(s.handleTelemetry))

	mux.HandleFunc(apiV1+"/connect", control(s.handleConnect))

	static, _ := fs.Sub(webFS, "web")
	mux.Handle("/{$}", http.FileServer(http.FS(static)))
	mux.Handle("/app.js", http.FileServer(http.FS(static)))
}

// handleHealth handles GET /health. It is never authenticated.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	st := s.opts.App.Status()
	WriteSuccess(w, map[string]interface{}{
		"status":        "ok",
		"state":         st.State,
		"uptimeSeconds": int64(time.Since(s.startTime).Seconds()),
		"auth":          s.opts.Auth.Enabled(),
	})
}

// handleStatus handles GET /status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	WriteSuccess(w, s.opts.App.Status())
}

// handleParams handles GET /params, the displayed parameter table.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	params := s.opts.App.Params()
	if params == nil {
		params = []link.ParamEntry{}
	}
	WriteSuccess(w, map[string]interface{}{
		"count":  len(params),
		"params": params,
	})
}

// handleControllers handles GET /controllers.
func (s *Server) handleControllers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	now, rng := s.opts.Charts.Range()
	WriteSuccess(w, map[string]interface{}{
		"controllers": controller.All(),
		"now":         now,
		"range":       rng,
	})
}

// handleSeries handles GET /series/{controller}/{axis}.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	key, err := parseKey(r.PathValue("controller"), r.PathValue("axis"))
	if err != nil {
		writeAPIError(w, err)
		return
	}

	view, ok := s.opts.Charts.View(key)
	if !ok {
		view = series.View{T: []float64{}, Setpoint: []float64{}, Actual: []float64{}}
	}
	_, rng := s.opts.Charts.Range()
	WriteSuccess(w, map[string]interface{}{
		"controller": key.Controller,
		"axis":       key.Axis,
		"range":      rng,
		"series":     view,
	})
}

// handleChart handles GET /charts/{controller}/{axis}.png.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	axis, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		writeAPIError(w, ErrNotFound)
		return
	}
	key, err := parseKey(r.PathValue("controller"), axis)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := s.opts.Charts.Render(&buf, key); err != nil {
		if errors.Is(err, chart.ErrNotEnoughData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.opts.Logger.Error("chart render failed", "controller", key.Controller, "axis", key.Axis, "err", err)
		WriteError(w, http.StatusInternalServerError, CodeInternal, "Chart rendering failed", nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// handleTelemetry handles GET /telemetry as an SSE stream.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if err := s.opts.Telemetry.Subscribe(r.Context(), w, r); err != nil {
		s.opts.Logger.Warn("telemetry stream ended", "err", err)
	}
}

type connectRequest struct {
	URI string `json:"uri"`
}

// handleConnect handles POST /connect. An empty body or uri connects to the
// configured connection string.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req connectRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && err != io.EOF {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "Malformed JSON or unknown fields", nil)
		return
	}
	if req.URI != "" {
		if _, err := link.ParseURI(req.URI); err != nil {
			writeAPIError(w, err)
			return
		}
	}

	actor := auth.Anonymous.Subject
	if claims := auth.GetClaimsFromRequest(r); claims != nil {
		actor = claims.Subject
	}

	start := time.Now()
	err := s.opts.App.Request(r.Context(), req.URI)
	latency := time.Since(start)

	code := CodeSuccess
	if err != nil {
		code = writeAPIError(w, err).Code
		s.opts.Logger.Warn("connect rejected", "actor", actor, "uri", req.URI, "code", code, "err", err)
	} else {
		WriteSuccess(w, s.opts.App.Status())
		s.opts.Logger.Info("connected", "actor", actor, "uri", req.URI, "latency", latency)
	}

	if aErr := s.opts.Audit.Record(actor, "connect", req.URI, code, latency, err); aErr != nil {
		s.opts.Logger.Error("audit write failed", "err", aErr)
	}
}

// parseKey validates a controller id and axis name from the path.
func parseKey(id, axis string) (series.Key, error) {
	c, ok := controller.Lookup(controller.ID(id))
	if !ok || !c.HasAxis(controller.Axis(axis)) {
		return series.Key{}, ErrNotFound
	}
	return series.Key{Controller: c.ID, Axis: controller.Axis(axis)}, nil
}
