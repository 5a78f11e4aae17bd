// Package chat relays messages of a two-party conversation over a websocket.
//
// A Room owns exactly one connection. There is no reconnect or backoff: when the
// connection drops the room stays closed until the caller opens a new one.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spigell/matchmate/internal/logger"
)

const (
	roomSeparator = "_"
	chatPath      = "/ws/chat/"
	writeWait     = 10 * time.Second
	maxFrameSize  = 1 << 20
	logPreviewLen = 80
)

// Message is a single chat line. Timestamp is ISO-8601 when the backend sets it.
type Message struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp,omitempty"`
}

type outgoing struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// RoomID returns the id both participants compute for their conversation.
func RoomID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, roomSeparator)
}

type Config struct {
	// URL is the websocket base, e.g. ws://localhost:8000.
	URL      string
	RoomID   string
	Username string
	Token    string
}

// Endpoint builds the room URL with the bearer token in the query.
func (c Config) Endpoint() (string, error) {
	base, err := url.Parse(strings.TrimRight(c.URL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse chat url: %w", err)
	}

	switch base.Scheme {
	case "ws", "wss":
	case "http":
		base.Scheme = "ws"
	case "https":
		base.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported chat url scheme %q", base.Scheme)
	}

	base.Path += chatPath + url.PathEscape(c.RoomID)
	q := base.Query()
	q.Set("token", c.Token)
	base.RawQuery = q.Encode()

	return base.String(), nil
}

type Room struct {
	id       string
	username string
	logger   *zap.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu       sync.Mutex
	messages []Message
	open     bool

	updates chan struct{}
	done    chan struct{}
	closeMu sync.Once
}

// Open dials the room and starts appending inbound messages.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Room, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RoomID == "" {
		return nil, errors.New("room id is required")
	}
	if cfg.Username == "" {
		return nil, errors.New("username is required")
	}

	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial chat room %s: %w (status %s)", cfg.RoomID, err, resp.Status)
		}
		return nil, fmt.Errorf("dial chat room %s: %w", cfg.RoomID, err)
	}
	conn.SetReadLimit(maxFrameSize)

	r := &Room{
		id:       cfg.RoomID,
		username: cfg.Username,
		logger:   logger.With(zap.String("room", cfg.RoomID)),
		conn:     conn,
		open:     true,
		updates:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	go r.read()

	r.logger.Debug("chat room opened")
	return r, nil
}

func (r *Room) ID() string { return r.id }

// IsOpen reports whether the connection is still usable.
func (r *Room) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

// Send transmits text as the room's user. It is a no-op on a closed room,
// including one whose peer went away before the reader noticed.
// Delivery is not acknowledged.
func (r *Room) Send(text string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if !r.IsOpen() {
		r.logger.Debug("dropping message on closed room")
		return nil
	}

	_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := r.conn.WriteJSON(outgoing{Text: text, Sender: r.username}); err != nil {
		r.markClosed()
		r.logger.Debug("dropping message, chat channel is gone", zap.Error(err))
		return nil
	}

	r.logger.Debug("message sent", logger.PreviewField("preview", text, logPreviewLen))
	return nil
}

// Messages returns a snapshot of the log in arrival order.
func (r *Room) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Updates signals that new messages were appended. Signals coalesce.
func (r *Room) Updates() <-chan struct{} {
	return r.updates
}

// Done is closed once the connection is gone, whoever closed it.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Close tears the connection down. It is safe to call more than once.
func (r *Room) Close() error {
	var err error
	r.closeMu.Do(func() {
		r.writeMu.Lock()
		r.markClosed()
		_ = r.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		r.writeMu.Unlock()

		err = r.conn.Close()
		r.logger.Debug("chat room closed")
	})
	return err
}

func (r *Room) read() {
	defer func() {
		r.markClosed()
		close(r.done)
		_ = r.Close()
	}()

	for {
		_, payload, err := r.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && r.IsOpen() {
				r.logger.Warn("chat channel error", zap.Error(err))
			} else {
				r.logger.Debug("chat channel finished", zap.Error(err))
			}
			return
		}

		r.append(decode(payload))
	}
}

func (r *Room) markClosed() {
	r.mu.Lock()
	r.open = false
	r.mu.Unlock()
}

// decode accepts the JSON frame format and falls back to plain text frames.
func decode(payload []byte) Message {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err == nil && (msg.Text != "" || msg.Sender != "") {
		return msg
	}
	return Message{Text: string(payload)}
}

func (r *Room) append(msg Message) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()

	select {
	case r.updates <- struct{}{}:
	default:
	}
}
