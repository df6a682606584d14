package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/bookcheck/internal/depth"
	"github.com/roach88/bookcheck/internal/harness"
)

// Frame is one outbound update: the playback state, the current book view
// and the verdict that produced the frame (nil on run boundaries).
type Frame struct {
	State   harness.State    `json:"state"`
	View    depth.View       `json:"view"`
	Verdict *harness.Verdict `json:"verdict,omitempty"`
}

// Control is one inbound operator message.
type Control struct {
	// Op is one of "start", "runall", "pause", "resume", "step", "delay",
	// "clear".
	Op string `json:"op"`

	// Script selects the script for "start". Empty selects the first.
	Script string `json:"script,omitempty"`

	// DelayMS is the new inter-directive delay for "delay".
	DelayMS int `json:"delay_ms,omitempty"`
}

// Server bridges websocket clients and a playback controller. Construct
// the controller with harness.WithObserver(srv.Publish) so every executed
// directive is broadcast.
type Server struct {
	controller *harness.Controller
	scripts    []harness.Script
	hub        *hub[Frame]
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	// runCtx bounds operator-initiated runs to the server's lifetime.
	runCtx context.Context
}

// New creates a server for the given scripts. Runs triggered by operators
// are bound to ctx.
func New(ctx context.Context, controller *harness.Controller, scripts []harness.Script, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		controller: controller,
		scripts:    scripts,
		hub:        newHub[Frame](),
		logger:     logger,
		runCtx:     ctx,
	}
}

// Publish broadcasts a controller update to all clients. Safe to install
// as the controller's observer: it never blocks.
func (s *Server) Publish(u harness.Update) {
	s.hub.Broadcast(Frame{State: u.State, View: u.View, Verdict: u.Verdict})
}

// Handler returns the websocket endpoint.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveWS)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sub := s.hub.Subscribe(64)
	defer s.hub.Unsubscribe(sub)
	defer conn.Close()

	// Prime the client with the current state before any directive runs.
	initial := Frame{State: s.controller.State(), View: s.controller.View()}
	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	go s.writeFrames(conn, sub)
	s.readControls(conn)
}

// writeFrames pumps broadcast frames to one client until its subscription
// closes or the write fails.
func (s *Server) writeFrames(conn *websocket.Conn, sub *subscription[Frame]) {
	for frame := range sub.C() {
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
	}
}

// readControls applies inbound control messages until the client goes
// away.
func (s *Server) readControls(conn *websocket.Conn) {
	for {
		var msg Control
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if err := s.apply(msg); err != nil {
			s.logger.Warn("control rejected", "op", msg.Op, "error", err)
		}
	}
}

func (s *Server) apply(msg Control) error {
	switch msg.Op {
	case "start":
		script, err := s.findScript(msg.Script)
		if err != nil {
			return err
		}
		go func() {
			if _, err := s.controller.Start(s.runCtx, script.Name, script.Text); err != nil {
				s.logger.Error("run failed", "script", script.Name, "error", err)
			}
		}()
		return nil
	case "runall":
		go func() {
			if _, err := s.controller.RunAll(s.runCtx, s.scripts); err != nil {
				s.logger.Error("batch run failed", "error", err)
			}
		}()
		return nil
	case "pause":
		s.controller.Pause()
		return nil
	case "resume":
		s.controller.Resume()
		return nil
	case "step":
		s.controller.Step()
		return nil
	case "delay":
		s.controller.SetDelay(time.Duration(msg.DelayMS) * time.Millisecond)
		return nil
	case "clear":
		return s.controller.Clear()
	default:
		return fmt.Errorf("unknown op %q", msg.Op)
	}
}

func (s *Server) findScript(name string) (harness.Script, error) {
	if len(s.scripts) == 0 {
		return harness.Script{}, fmt.Errorf("no scripts loaded")
	}
	if name == "" {
		return s.scripts[0], nil
	}
	for _, sc := range s.scripts {
		if sc.Name == name {
			return sc, nil
		}
	}
	return harness.Script{}, fmt.Errorf("unknown script %q", name)
}
