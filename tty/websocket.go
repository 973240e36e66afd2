package tty

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/fyne-io/vt100"
)

// controlMessage is the JSON frame a terminal WebSocket server understands.
// Output arrives as plain frames.
type controlMessage struct {
	Type string `json:"type"`
	Cols int    `json:"cols,omitempty"`
	Rows int    `json:"rows,omitempty"`
	Data string `json:"data,omitempty"`
}

// WebSocket is a Transport to a shell served over a WebSocket.
type WebSocket struct {
	URL    string
	Header map[string][]string

	mu     sync.Mutex
	conn   *websocket.Conn
	reader io.Reader
	size   vt100.Size

	writeMu sync.Mutex

	log *log.Logger
}

// NewWebSocket prepares a connection to a ws:// or wss:// URL.
func NewWebSocket(rawURL string) *WebSocket {
	return &WebSocket{
		URL:  rawURL,
		size: vt100.Size{Width: 80, Height: 24},
		log:  vt100.Logger().With("transport", "ws:"+rawURL),
	}
}

func (w *WebSocket) Init(ctx context.Context) error {
	u, err := url.Parse(w.URL)
	if err != nil {
		return fmt.Errorf("parse %s: %w", w.URL, err)
	}
	w.mu.Lock()
	size := w.size
	w.mu.Unlock()
	q := u.Query()
	q.Set("cols", strconv.Itoa(size.Width))
	q.Set("rows", strconv.Itoa(size.Height))
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), w.Header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %s: %w", w.URL, resp.Status, err)
		}
		return fmt.Errorf("dial %s: %w", w.URL, err)
	}
	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	return nil
}

func (w *WebSocket) connection() (*websocket.Conn, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil, vt100.ErrNotConnected
	}
	return w.conn, nil
}

// Read returns the payload of consecutive frames as one stream.
func (w *WebSocket) Read(p []byte) (int, error) {
	conn, err := w.connection()
	if err != nil {
		return 0, err
	}
	for {
		if w.reader == nil {
			kind, r, err := conn.NextReader()
			if err != nil {
				return 0, err
			}
			if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
				continue
			}
			w.reader = r
		}
		n, err := w.reader.Read(p)
		if err == io.EOF {
			w.reader = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, err
	}
}

func (w *WebSocket) Write(p []byte) (int, error) {
	if err := w.send(controlMessage{Type: "input", Data: string(p)}); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocket) send(msg controlMessage) error {
	conn, err := w.connection()
	if err != nil {
		return err
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// Resize sends a resize control frame. Before Init it sets the size requested on dial.
func (w *WebSocket) Resize(term, _ vt100.Size) error {
	w.mu.Lock()
	w.size = term
	connected := w.conn != nil
	w.mu.Unlock()
	if !connected {
		return nil
	}
	return w.send(controlMessage{Type: "resize", Cols: term.Width, Rows: term.Height})
}

func (w *WebSocket) Close() error {
	w.mu.Lock()
	conn := w.conn
	w.conn = nil
	w.mu.Unlock()
	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		w.log.Debug("close frame not sent", "err", err)
	}
	return conn.Close()
}

func (w *WebSocket) ExitStatus() int {
	return 0
}

func (w *WebSocket) Name() string {
	return "ws:" + w.URL
}
