// Package server serves the replay viewer: a single page, for a single
// client, that steps through a recorded attempt's state sequence via
// arrow keys and exits on Escape. It follows the teacher's websocket
// ping/pong and publish-loop pattern, adapted from "stream live training
// updates to however many clients connect" down to "step a fixed,
// precomputed sequence of states back and forth for one client."
package server

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"taxi/server/cell_views"
	"taxi/server/root_view"
	"taxi/world"

	channerics "github.com/niceyeti/channerics/channels"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

const (
	writeWait      = 1 * time.Second
	maxMessageSize = 8192
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	pubResolution  = 100 * time.Millisecond
)

// Server serves the replay viewer for one recorded state sequence.
type Server struct {
	addr     string
	w        *world.World
	frames   []world.State
	rootView *root_view.RootView
	seek     chan int
}

// NewServer builds a replay server over frames, the sequence of states a
// recorded attempt passed through (frames[0] is the initial state).
func NewServer(
	ctx context.Context,
	addr string,
	w *world.World,
	frames []world.State,
) (*Server, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("server: no frames to replay")
	}

	stateUpdates := make(chan world.State)
	rootView := root_view.NewRootView(ctx, w, stateUpdates)

	s := &Server{
		addr:     addr,
		w:        w,
		frames:   frames,
		rootView: rootView,
		seek:     make(chan int),
	}

	go s.driveSeek(ctx, stateUpdates)

	return s, nil
}

// driveSeek owns the current step index and pushes the corresponding
// frame to stateUpdates whenever a client command changes it.
func (s *Server) driveSeek(ctx context.Context, stateUpdates chan<- world.State) {
	index := 0
	select {
	case stateUpdates <- s.frames[index]:
	case <-ctx.Done():
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case delta := <-s.seek:
			next := index + delta
			if next < 0 {
				next = 0
			}
			if next >= len(s.frames) {
				next = len(s.frames) - 1
			}
			index = next
			select {
			case stateUpdates <- s.frames[index]:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Server) Serve() error {
	r := mux.NewRouter()
	r.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWebsocket)

	if err := http.ListenAndServe(s.addr, r); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveWebsocket upgrades the connection and hands it to
// publishEleUpdates, which both reads the client's step commands and
// publishes the resulting board updates for the lifetime of the
// connection.
func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		log.Println("upgrade:", err)
		return
	}
	defer s.closeWebsocket(ws)
	s.publishEleUpdates(r.Context(), ws)
}

// publishEleUpdates reads step commands ("next", "prev", "esc") from the
// client on a background read-pump goroutine, the same shape as the
// teacher's ping/pong read pump, and drives s.seek from them. The
// foreground loop pings the client, watches for its pongs, and writes
// every batch of view updates produced by a seek back to the client as
// JSON, rate-limited so a burst of seeks doesn't flood the connection.
// Without this loop nothing ever drains s.rootView.Updates(), which
// backpressures the whole fastview pipeline and stalls driveSeek.
func (s *Server) publishEleUpdates(ctx context.Context, ws *websocket.Conn) {
	ws.SetReadLimit(maxMessageSize)

	last := time.Now()
	pingResolution := 500 * time.Millisecond
	pubCtx, cancelPub := context.WithCancel(ctx)
	defer cancelPub()
	pinger := channerics.NewTicker(pubCtx.Done(), pingResolution)
	lastPong := time.Now()

	pong := make(chan struct{})
	defer close(pong)
	ws.SetPongHandler(func(appData string) error {
		pong <- struct{}{}
		return nil
	})

	go func() {
		for {
			select {
			case <-pubCtx.Done():
				return
			default:
			}

			_, message, err := ws.ReadMessage()
			if err != nil {
				cancelPub()
				if !isClosure(err) {
					fmt.Println("replay read: ", err)
				}
				return
			}

			switch string(message) {
			case "next":
				select {
				case s.seek <- 1:
				case <-pubCtx.Done():
					return
				}
			case "prev":
				select {
				case s.seek <- -1:
				case <-pubCtx.Done():
					return
				}
			case "esc":
				cancelPub()
				return
			}
		}
	}()

	for {
		select {
		case <-pubCtx.Done():
			return
		case <-pinger:
			if time.Since(lastPong) > pingResolution*2 {
				fmt.Println("replay ping: no pong, closing conn")
				return
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				if isError(err) {
					fmt.Printf("ping failed: %T %v\n", err, err)
				}
				return
			}
		case <-pong:
			lastPong = time.Now()
		case updates := <-s.rootView.Updates():
			if time.Since(last) < pubResolution {
				break
			}
			last = time.Now()

			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				fmt.Printf("failed to set deadline: %T %v\n", err, err)
				return
			}
			if err := ws.WriteJSON(updates); err != nil {
				if isError(err) {
					fmt.Printf("publish failed: %T %v\n", err, err)
				}
				return
			}
		}
	}
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func (s *Server) closeWebsocket(ws *websocket.Conn) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ws.Close()
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	initialCells := cell_views.Convert(s.w, s.frames[0])
	if err := renderTemplate(w, s.rootView, initialCells); err != nil {
		_, _ = w.Write([]byte(err.Error()))
	}
}

func renderTemplate(
	w io.Writer,
	rv *root_view.RootView,
	initialCells [][]cell_views.Cell,
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = rv.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}
	return t.Execute(w, initialCells)
}
