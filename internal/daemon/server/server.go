// Package server provides the HTTP server for the wallcycle daemon.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/websocket"
	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/internal/daemon/engine"
	"github.com/grovetools/wallcycle/internal/daemon/store"
	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/grovetools/wallcycle/pkg/daemon"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Rotation is the controller surface exposed over the API.
type Rotation interface {
	Snapshot() rotation.Snapshot
	Restart() error
	TriggerOverride(dir rotation.Direction) error
	SetPaused(paused bool) error
	TogglePaused() (bool, error)
}

// Server manages the daemon's HTTP server over a Unix socket.
type Server struct {
	logger        *logrus.Entry
	server        *http.Server
	engine        *engine.Engine
	ctl           Rotation
	runningConfig *daemon.RunningConfig
	metrics       http.Handler
	upgrader      websocket.Upgrader
}

// New creates a new Server instance.
func New(logger *logrus.Entry) *Server {
	return &Server{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The socket is private to the user; there is no browser origin to check.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetEngine sets the engine whose store feeds the stream endpoints.
func (s *Server) SetEngine(eng *engine.Engine) {
	s.engine = eng
}

// SetController sets the controller the command endpoints drive.
func (s *Server) SetController(ctl Rotation) {
	s.ctl = ctl
}

// SetRunningConfig sets the running configuration for the server.
func (s *Server) SetRunningConfig(cfg *daemon.RunningConfig) {
	s.runningConfig = cfg
}

// SetMetrics mounts a Prometheus handler at /metrics.
func (s *Server) SetMetrics(h http.Handler) {
	s.metrics = h
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/status", s.handleGetStatus)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("GET /api/stream", s.handleStreamStatus)
	mux.HandleFunc("GET /api/ws", s.handleWebSocket)
	for _, name := range daemon.Commands {
		mux.HandleFunc("POST /api/"+name, s.handleCommand(name))
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return h2c.NewHandler(mux, &http2.Server{})
}

// ListenAndServe starts the daemon on the given unix socket path.
// It blocks until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	// Cleanup stale socket
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	// Set restrictive permissions on socket
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.server = &http.Server{Handler: s.Handler()}

	s.logger.WithField("socket", socketPath).Info("Daemon listening")
	err = s.server.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// runCommand maps a command name to its controller operation.
func (s *Server) runCommand(name string) (rotation.Snapshot, error) {
	if s.ctl == nil {
		return rotation.Snapshot{}, errors.New(errors.ErrCodeInternal, "controller not initialized")
	}

	var err error
	switch name {
	case daemon.CommandNext:
		err = s.ctl.TriggerOverride(rotation.Next)
	case daemon.CommandPrev:
		err = s.ctl.TriggerOverride(rotation.Prev)
	case daemon.CommandTogglePaused:
		_, err = s.ctl.TogglePaused()
	case daemon.CommandPause:
		err = s.ctl.SetPaused(true)
	case daemon.CommandResume:
		err = s.ctl.SetPaused(false)
	case daemon.CommandRestart:
		err = s.ctl.Restart()
	default:
		err = errors.InvalidInput("command", name, "unknown command")
	}
	if err != nil {
		return rotation.Snapshot{}, err
	}

	s.logger.WithField("command", name).Debug("Command applied")
	return s.ctl.Snapshot(), nil
}

func (s *Server) handleCommand(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.runCommand(name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, snap)
	}
}

// handleGetStatus returns the current snapshot.
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	if s.ctl == nil {
		s.writeError(w, errors.New(errors.ErrCodeInternal, "controller not initialized"))
		return
	}
	writeJSON(w, s.ctl.Snapshot())
}

// handleGetConfig returns the running configuration as JSON.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.runningConfig == nil {
		s.writeError(w, errors.New(errors.ErrCodeInternal, "config not initialized"))
		return
	}
	writeJSON(w, s.runningConfig)
}

// handleStreamStatus provides Server-Sent Events (SSE) for status updates.
func (s *Server) handleStreamStatus(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil || s.ctl == nil {
		s.writeError(w, errors.New(errors.ErrCodeInternal, "engine not initialized"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.engine.Store().Subscribe()
	defer s.engine.Store().Unsubscribe(ch)

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE client connected")

	send := func(u *daemon.StatusUpdate) {
		data, err := json.Marshal(u)
		if err != nil {
			s.logger.WithError(err).Error("Failed to marshal update")
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	snap := s.ctl.Snapshot()
	send(&daemon.StatusUpdate{UpdateType: daemon.UpdateInitial, Snapshot: &snap})

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case update, ok := <-ch:
			if !ok {
				return
			}
			if api := convertToAPIUpdate(update); api != nil {
				send(api)
			}
		}
	}
}

// handleWebSocket pushes status updates and accepts commands on one connection.
// Only the writer loop below writes to the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil || s.ctl == nil {
		s.writeError(w, errors.New(errors.ErrCodeInternal, "engine not initialized"))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := s.engine.Store().Subscribe()
	defer s.engine.Store().Unsubscribe(ch)

	replies := make(chan daemon.WSReply, 8)
	writerDone := make(chan struct{})
	defer close(writerDone)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var cmd daemon.WSCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			reply := daemon.WSReply{UpdateType: daemon.UpdateReply, Command: cmd.Command}
			if snap, err := s.runCommand(cmd.Command); err != nil {
				reply.Error = err.Error()
				reply.Code = string(errors.GetCode(err))
			} else {
				reply.Snapshot = &snap
			}
			select {
			case replies <- reply:
			case <-writerDone:
				return
			}
		}
	}()

	snap := s.ctl.Snapshot()
	if err := conn.WriteJSON(daemon.StatusUpdate{UpdateType: daemon.UpdateInitial, Snapshot: &snap}); err != nil {
		return
	}
	s.logger.Debug("WebSocket client connected")

	for {
		select {
		case <-readerDone:
			s.logger.Debug("WebSocket client disconnected")
			return
		case reply := <-replies:
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		case update, ok := <-ch:
			if !ok {
				return
			}
			if api := convertToAPIUpdate(update); api != nil {
				if err := conn.WriteJSON(api); err != nil {
					return
				}
			}
		}
	}
}

// convertToAPIUpdate converts internal store.Update to the public API format.
func convertToAPIUpdate(u store.Update) *daemon.StatusUpdate {
	switch u.Type {
	case store.UpdateStatus:
		if u.Snapshot == nil {
			return nil
		}
		return &daemon.StatusUpdate{UpdateType: daemon.UpdateStatus, Snapshot: u.Snapshot}
	case store.UpdateSettingsReload:
		return &daemon.StatusUpdate{UpdateType: daemon.UpdateSettingsReload, SettingsFile: u.File}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError renders err as a coded JSON error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeShutdown:
		status = http.StatusServiceUnavailable
	}

	apiErr, ok := err.(*errors.Error)
	if !ok {
		apiErr = errors.Wrap(err, errors.ErrCodeInternal, err.Error())
	}
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(apiErr.ToJSON()))
}
