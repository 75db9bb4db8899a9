// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"

	"github.com/DataDog/chaos-seal/engine"
	"github.com/DataDog/chaos-seal/executor"
	"github.com/DataDog/chaos-seal/history"
	"github.com/DataDog/chaos-seal/inventory"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/types"
)

const (
	// DefaultLogPollInterval is how often the log stream looks for new lines
	DefaultLogPollInterval = 500 * time.Millisecond
	defaultHistoryLimit    = 100
	shutdownTimeout        = 5 * time.Second
)

// Dependencies are what the server controls and reads from
type Dependencies struct {
	Handle   *engine.Handle
	Nodes    inventory.Nodes
	Pods     inventory.Pods
	Executor executor.Executor
	History  history.Store
	// Metrics serves /metrics when set
	Metrics http.Handler
	// PolicyPath is overwritten when the policy is replaced, nothing is written when empty
	PolicyPath      string
	LogPollInterval time.Duration
	Log             *zap.SugaredLogger
}

// Server exposes the control surface of the engine over HTTP
type Server struct {
	deps Dependencies
	mux  *http.ServeMux
}

// New returns a server with every route registered
func New(deps Dependencies) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}

	if deps.LogPollInterval <= 0 {
		deps.LogPollInterval = DefaultLogPollInterval
	}

	s := &Server{
		deps: deps,
		mux:  http.NewServeMux(),
	}
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/policy", s.handlePolicy)
	s.mux.HandleFunc("/api/autonomous-mode", s.handleAutonomousMode)
	s.mux.HandleFunc("/api/logs", s.handleLogs)
	s.mux.HandleFunc("/api/nodes", s.handleNodes)
	s.mux.HandleFunc("/api/pods", s.handlePods)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/ws/logs", websocket.Handler(s.streamLogs))

	if s.deps.Metrics != nil {
		s.mux.Handle("/metrics", s.deps.Metrics)
	}
}

// Handler returns the routes wrapped with request logging
func (s *Server) Handler() http.Handler {
	return s.loggingMiddleware(s.mux)
}

// ListenAndServe serves until the context is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.deps.Log.Warnw("error shutting down the server", tags.ErrorKey, err)
		}
	}()

	s.deps.Log.Infow("starting the control server", "addr", addr)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error serving on %s: %w", addr, err)
	}

	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.deps.Log.Debugw("request served", tags.MethodKey, r.Method, tags.PathKey, r.URL.Path, tags.DurationKey, time.Since(start).String())
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

type policyRequest struct {
	// Policy is either a policy object or a YAML document
	Policy json.RawMessage `json:"policy"`
}

type actionRequest struct {
	Action string `json:"action"`
	IP     string `json:"ip,omitempty"`
}

type podRequest struct {
	UID      string `json:"uid"`
	IsForced bool   `json:"isForced"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.deps.Log.Errorw("error encoding response", tags.ErrorKey, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}

	return json.Unmarshal(body, v)
}

// parsePolicy reads the policy field of the request, as an object or a YAML string
func parsePolicy(r *http.Request) (*policy.Policy, error) {
	req := policyRequest{}
	if err := decodeBody(r, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if len(req.Policy) == 0 || string(req.Policy) == "null" {
		return nil, errors.New("policy field missing")
	}

	doc := []byte(req.Policy)

	var text string
	if err := json.Unmarshal(req.Policy, &text); err == nil {
		doc = []byte(text)
	}

	p, err := policy.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("policy not valid: %w", err)
	}

	return p, nil
}

func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		p := s.deps.Handle.Policy()
		if p == nil {
			s.writeError(w, http.StatusNotFound, "no policy loaded")
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]interface{}{"policy": p})
	case http.MethodPost:
		p, err := parsePolicy(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		out, err := policy.Marshal(p)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{"policy": string(out)})
	case http.MethodPut:
		p, err := parsePolicy(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := s.savePolicy(p); err != nil {
			s.deps.Log.Errorw("error writing the policy file", tags.PolicyPathKey, s.deps.PolicyPath, tags.ErrorKey, err)
			s.writeError(w, http.StatusInternalServerError, "unable to overwrite policy file")

			return
		}

		s.deps.Handle.SetPolicy(p)
		s.deps.Log.Infow("policy replaced", tags.ItemsKey, len(p.Scenarios))
		s.writeJSON(w, http.StatusOK, struct{}{})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) savePolicy(p *policy.Policy) error {
	if s.deps.PolicyPath == "" {
		return nil
	}

	out, err := policy.Marshal(p)
	if err != nil {
		return err
	}

	return os.WriteFile(s.deps.PolicyPath, out, 0o644) //nolint:gosec
}

func (s *Server) handleAutonomousMode(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, map[string]bool{"isStarted": s.deps.Handle.IsRunning()})
	case http.MethodPost:
		req := actionRequest{}
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		var err error

		switch req.Action {
		case "":
			s.writeError(w, http.StatusBadRequest, "action field missing")
			return
		case "start":
			err = s.deps.Handle.Start()
		case "stop":
			err = s.deps.Handle.Stop()
		default:
			s.writeError(w, http.StatusBadRequest, "action field must either be 'start' or 'stop'")
			return
		}

		switch {
		case errors.Is(err, engine.ErrAlreadyRunning), errors.Is(err, engine.ErrNotRunning):
			s.writeError(w, http.StatusPreconditionFailed, err.Error())
		case err != nil:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		default:
			s.writeJSON(w, http.StatusOK, struct{}{})
		}
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	offset := 0

	if raw := r.URL.Query().Get("offset"); raw != "" {
		var err error

		offset, err = strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
	}

	if offset < 0 {
		s.writeError(w, http.StatusBadRequest, "offset cannot be negative")
		return
	}

	lines, next := s.deps.Handle.Logs(offset)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"logs": lines, "next": next})
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, map[string][]types.Node{"nodes": s.deps.Nodes.FindNodes("all")})
	case http.MethodPost:
		req := actionRequest{}
		if err := decodeBody(r, &req); err != nil || req.Action == "" || req.IP == "" {
			s.writeError(w, http.StatusBadRequest, "action/ip fields missing")
			return
		}

		if req.Action != "start" && req.Action != "stop" {
			s.writeError(w, http.StatusBadRequest, "invalid action")
			return
		}

		node, found := s.deps.Nodes.GetNodeByIP(req.IP)
		if !found {
			s.writeError(w, http.StatusNotFound, "node ip address not found")
			return
		}

		driver := s.deps.Nodes.Driver()
		action := driver.Stop

		if req.Action == "start" {
			action = driver.Start
		}

		if err := action(r.Context(), node); err != nil {
			s.deps.Log.Errorw("action on node failed", tags.ActionKey, req.Action, tags.NodeKey, node.String(), tags.ErrorKey, err)
			s.writeError(w, http.StatusInternalServerError, "action on node failed")

			return
		}

		s.deps.Log.Infow("action on node done", tags.ActionKey, req.Action, tags.NodeKey, node.String())
		s.writeJSON(w, http.StatusOK, struct{}{})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePods(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		namespace := r.URL.Query().Get("namespace")
		if namespace == "" {
			namespace = inventory.AllNamespaces
		}

		pods, err := s.deps.Pods.FindPods(r.Context(), namespace, "", "")
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		s.writeJSON(w, http.StatusOK, map[string][]types.Pod{"pods": pods})
	case http.MethodPost:
		req := podRequest{}
		if err := decodeBody(r, &req); err != nil || req.UID == "" {
			s.writeError(w, http.StatusBadRequest, "uid field missing")
			return
		}

		pods, err := s.deps.Pods.FindPods(r.Context(), inventory.AllNamespaces, "", "")
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		for _, pod := range pods {
			if pod.UID != req.UID {
				continue
			}

			if err := s.killPod(r.Context(), pod, req.IsForced); err != nil {
				s.deps.Log.Errorw("action on pod failed", tags.PodKey, pod.String(), tags.ErrorKey, err)
				s.writeError(w, http.StatusInternalServerError, "action on pod failed")

				return
			}

			s.writeJSON(w, http.StatusOK, struct{}{})

			return
		}

		s.writeError(w, http.StatusNotFound, "pod uid not found")
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) killPod(ctx context.Context, pod types.Pod, force bool) error {
	if _, found := s.deps.Nodes.GetNodeByIP(pod.HostIP); !found {
		return fmt.Errorf("no node found for host ip %s", pod.HostIP)
	}

	return s.deps.Executor.KillPod(ctx, pod, s.deps.Nodes, types.SignalFromForce(force))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := defaultHistoryLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}

		limit = n
	}

	records, err := s.deps.History.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string][]history.Record{"runs": records})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// streamLogs sends every new log line, starting at the offset query parameter
func (s *Server) streamLogs(ws *websocket.Conn) {
	defer ws.Close() //nolint:errcheck

	offset, _ := strconv.Atoi(ws.Request().URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	ctx := ws.Request().Context()
	ticker := time.NewTicker(s.deps.LogPollInterval)

	defer ticker.Stop()

	for {
		var lines []string

		lines, offset = s.deps.Handle.Logs(offset)

		for _, line := range lines {
			if err := websocket.Message.Send(ws, line); err != nil {
				s.deps.Log.Debugw("log stream closed", tags.ErrorKey, err)
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
