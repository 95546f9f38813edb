package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/klondike/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// Connection is one WebSocket client playing one stored game. It subscribes
// to the game's event bus, so moves made through the REST API are pushed to
// it as well.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	entry     *sessionEntry
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, entry *sessionEntry, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		entry:  entry,
		logger: logger.WithPrefix("conn").With("game", entry.id),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the game, sends the initial state and begins pumping messages
func (c *Connection) Start() {
	c.entry.With(func(s *game.Session) {
		c.entry.conns[c] = struct{}{}
		s.EventBus().Subscribe(c)
		c.sendState(s)
	})
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.entry.With(func(s *game.Session) {
			delete(c.entry.conns, c)
			s.EventBus().Unsubscribe(c)
		})
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		go func() { _ = c.Close() }()
		return ErrConnectionClosed
	}
}

// OnEvent forwards game events to the client. It runs with the entry lock held.
func (c *Connection) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.CardsMovedEvent:
		c.push(MessageTypeMoved, newMoveView(e.Result))
	case game.StockEvent:
		c.push(MessageTypeMoved, newMoveView(e.Result))
	case game.GameWonEvent:
		c.push(MessageTypeWon, WonView{DealID: e.GameID, Moves: e.Moves})
	}
}

func (c *Connection) push(t MessageType, data any) {
	msg, err := NewMessage(t, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", t, "error", err)
		return
	}
	_ = c.SendMessage(msg) // Ignore send errors on a closing connection
}

func (c *Connection) sendState(s *game.Session) {
	c.push(MessageTypeState, newGameView(c.entry.id, s))
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	c.push(MessageTypeError, ErrorData{Code: code, Message: message})
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handleMessage applies one client message to the game and replies with the new state
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	c.entry.With(func(s *game.Session) {
		if e := apply(s, msg); e != nil {
			c.sendError(e.Code, e.Message)
		}
		c.sendState(s)
	})
}

// apply runs msg against s and describes why it was refused, if it was
func apply(s *game.Session, msg *Message) *ErrorData {
	switch msg.Type {
	case MessageTypeNewGame:
		var data NewGameData
		if err := decode(msg.Data, &data); err != nil {
			return invalid("new game")
		}
		if data.Seed != nil {
			s.NewGameWithSeed(*data.Seed)
		} else {
			s.NewGame()
		}

	case MessageTypeDraw:
		if !s.Draw() {
			return errNothingToDraw
		}

	case MessageTypeRedeal:
		if !s.Redeal() {
			return errRedealRefused
		}

	case MessageTypeUndo:
		if !s.Undo() {
			return errNothingToUndo
		}

	case MessageTypeSelect:
		var data CardRefData
		if err := decode(msg.Data, &data); err != nil {
			return invalid("select")
		}
		if data.Source == nil {
			return missing("source")
		}
		if !s.Select(selection(s.State(), *data.Source, data.CardIndex)) {
			return errNothingThere
		}

	case MessageTypeClearSelection:
		s.ClearSelection()

	case MessageTypeMove:
		var data MoveData
		if err := decode(msg.Data, &data); err != nil {
			return invalid("move")
		}
		if data.Dest == nil {
			return missing("dest")
		}
		if !move(s, data) {
			return errIllegalMove
		}

	case MessageTypeClick:
		var data CardRefData
		if err := decode(msg.Data, &data); err != nil {
			return invalid("click")
		}
		if data.Source == nil {
			return missing("source")
		}
		idx := -1
		if data.CardIndex != nil {
			idx = *data.CardIndex
		}
		s.Click(*data.Source, idx)

	case MessageTypeHints:
		var data HintsData
		if err := decode(msg.Data, &data); err != nil {
			return invalid("hints")
		}
		s.SetShowHints(data.Show)

	default:
		return &ErrorData{Code: CodeUnknownType, Message: "Unknown message type: " + msg.Type.String()}
	}
	return nil
}

// move applies data, falling back to the pending selection when no source
// is named. Callers check that Dest is set.
func move(s *game.Session, data MoveData) bool {
	if data.Source == nil {
		_, ok := s.Move(*data.Dest)
		return ok
	}
	_, ok := s.MoveFrom(selection(s.State(), *data.Source, data.CardIndex), *data.Dest)
	return ok
}

// decode unmarshals optional message data; absent data leaves v untouched
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}
