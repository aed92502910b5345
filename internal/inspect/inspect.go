// Package inspect implements the optional debugger/profiler hook surface:
// a websocket server exposing object browsing (list_globals) and
// property reads on globalThis (get_property) against a running
// runtime.Runtime, the same concern the teacher's
// browse_service/eval_service/inspect_service split covers, reshaped as a
// single JSON-over-websocket protocol since this repo has no protoc/buf
// codegen step to generate connect/grpc service stubs from (see
// DESIGN.md). There is no eval or stack-inspection command.
// golang.org/x/sync's errgroup runs the HTTP listener and its shutdown
// watcher together; net/http serves each connection on its own goroutine.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/ashlang/jsvmcore/internal/runtime"
	"github.com/ashlang/jsvmcore/internal/value"
)

// Session is one connected debugger client's state: its id and the
// connection it reads commands from and writes replies to.
type Session struct {
	ID   string
	conn *websocket.Conn

	mu     sync.Mutex
	paused bool
}

// Server hosts the debugger/profiler websocket endpoint over a single
// runtime.Runtime. Each request handler runs inside its own
// PushScope/PopScope pair and creates no handles; the Values it reads
// are used within that request only, not held across the websocket
// round trip.
type Server struct {
	rt *runtime.Runtime

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session
}

// New wraps rt with a debugger/profiler server. rt must already be
// created and bootstrapped (runtime.Create).
func New(rt *runtime.Runtime) *Server {
	return &Server{
		rt:       rt,
		sessions: make(map[string]*Session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve runs the debugger endpoint on addr until ctx is cancelled,
// shutting the HTTP server down cleanly on cancellation (spec SPEC_FULL's
// "serve + shutdown goroutines" pairing, via errgroup rather than a bare
// go statement plus a separate done channel).
func (s *Server) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug", s.handleConn)

	httpSrv := &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("inspect: listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return httpSrv.Shutdown(context.Background())
	})
	return g.Wait()
}

// command is one inbound debugger-protocol message.
type command struct {
	Type string `json:"type"` // "list_globals" or "get_property"; any other type gets an error reply
	Expr string `json:"expr,omitempty"`
	Recv string `json:"recv,omitempty"` // "global" or a previously-returned handle id
	Name string `json:"name,omitempty"`
}

// reply is one outbound debugger-protocol message.
type reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Value string `json:"value,omitempty"` // Stringify'd result, the wire format an inspector client renders directly
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sess := &Session{ID: uuid.NewString(), conn: conn}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
	}()

	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		conn.WriteJSON(s.dispatch(cmd))
	}
}

func (s *Server) dispatch(cmd command) reply {
	switch cmd.Type {
	case "list_globals":
		return s.listGlobals()
	case "get_property":
		return s.getProperty(cmd.Recv, cmd.Name)
	default:
		return reply{OK: false, Error: fmt.Sprintf("inspect: unknown command %q", cmd.Type)}
	}
}

// listGlobals enumerates globalThis's own enumerable property names, the
// inspector's object-browsing entry point.
func (s *Server) listGlobals() reply {
	idx := s.rt.PushScope()
	defer s.rt.PopScope(idx)

	g := s.rt.GetGlobal()
	names := enumerableOwnNames(s.rt, g)
	data, err := json.Marshal(names)
	if err != nil {
		return reply{OK: false, Error: err.Error()}
	}
	return reply{OK: true, Value: string(data)}
}

// getProperty reads recv[name] against globalThis when recv == "global",
// stringifying the result the same way a stack-frame inspector panel
// would render a property value.
func (s *Server) getProperty(recv, name string) reply {
	if recv != "global" {
		return reply{OK: false, Error: "inspect: only the \"global\" receiver is supported"}
	}
	idx := s.rt.PushScope()
	defer s.rt.PopScope(idx)

	v := s.rt.GetProperty(s.rt.GetGlobal(), name)
	return reply{OK: true, Value: s.rt.Engine.Stringify(v)}
}

// enumerableOwnNames is a best-effort listing for the debugger's object
// browser: it walks the receiver's property names through the same
// for-in machinery script-level iteration uses, so the inspector sees
// exactly what a `for (k in obj)` loop would.
func enumerableOwnNames(rt *runtime.Runtime, v value.Value) []string {
	var names []string
	iter := rt.Engine.PNameList(v)
	for {
		name, ok := rt.Engine.NextPName(iter)
		if !ok {
			break
		}
		names = append(names, rt.Engine.Stringify(name))
	}
	return names
}
