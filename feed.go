package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/logging"

	"barsync/barcolor"
)

const (
	feedWriteTimeout = 5 * time.Second
	feedPingInterval = 30 * time.Second
)

// colorJSON is a color as overlay clients consume it. ARGB 0 means "no override".
type colorJSON struct {
	Hex  string `json:"hex"`
	ARGB uint32 `json:"argb"`
}

func toColorJSON(c barcolor.Color) colorJSON {
	return colorJSON{Hex: c.String(), ARGB: uint32(c)}
}

// feedMessage is sent on connect and on every change.
type feedMessage struct {
	StatusBar         colorJSON `json:"status_bar"`
	StatusBarIcon     colorJSON `json:"status_bar_icon"`
	NavigationBar     colorJSON `json:"navigation_bar"`
	NavigationBarIcon colorJSON `json:"navigation_bar_icon"`
}

func newFeedMessage(c BarColors) feedMessage {
	return feedMessage{
		StatusBar:         toColorJSON(c.StatusBar),
		StatusBarIcon:     toColorJSON(c.StatusBarIcon),
		NavigationBar:     toColorJSON(c.NavigationBar),
		NavigationBarIcon: toColorJSON(c.NavigationBarIcon),
	}
}

// Feed pushes bar colors to WebSocket clients so overlays can theme
// themselves against the live background.
type Feed struct {
	log      logging.LeveledLogger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	last    BarColors
	clients map[chan BarColors]struct{}
}

// NewFeed creates a Feed with no clients.
func NewFeed(log logging.LeveledLogger) *Feed {
	return &Feed{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[chan BarColors]struct{}),
	}
}

// BarColorsChanged queues c for every client. A client that has not caught up
// only ever sees the latest state.
func (f *Feed) BarColorsChanged(c BarColors) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = c
	for ch := range f.clients {
		select {
		case <-ch:
		default:
		}
		ch <- c
	}
}

func (f *Feed) subscribe() (chan BarColors, BarColors) {
	ch := make(chan BarColors, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[ch] = struct{}{}
	return ch, f.last
}

func (f *Feed) unsubscribe(ch chan BarColors) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, ch)
}

// ServeHTTP upgrades the request and streams colors until the client leaves.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Warnf("websocket upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	ch, current := f.subscribe()
	defer f.unsubscribe(ch)
	f.log.Infof("feed client %s connected", r.RemoteAddr)

	// Clients never send data; reading only detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(feedPingInterval)
	defer ping.Stop()

	if err := f.write(conn, current); err != nil {
		f.log.Debugf("feed client %s: %v", r.RemoteAddr, err)
		return
	}
	for {
		select {
		case <-gone:
			f.log.Infof("feed client %s disconnected", r.RemoteAddr)
			return
		case c := <-ch:
			if err := f.write(conn, c); err != nil {
				f.log.Debugf("feed client %s: %v", r.RemoteAddr, err)
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(feedWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (f *Feed) write(conn *websocket.Conn, c BarColors) error {
	conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return conn.WriteJSON(newFeedMessage(c))
}

// ListenAndServe serves the feed at /ws on addr until ctx is cancelled.
func (f *Feed) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", f)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), feedWriteTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	f.log.Infof("serving color feed on %s/ws", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
