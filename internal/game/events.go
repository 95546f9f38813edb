package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/lox/klondike/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for game domain events
const (
	EventTypeGameStart  EventType = "game_start"
	EventTypeCardsMoved EventType = "cards_moved"
	EventTypeStock      EventType = "stock"
	EventTypeUndo       EventType = "undo"
	EventTypeGameWon    EventType = "game_won"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents anything that happens to a session worth telling the view about
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// GameStartEvent is published when a new deal is laid out
type GameStartEvent struct {
	GameID    string
	Seed      int64
	timestamp time.Time
}

func (e GameStartEvent) EventType() EventType { return EventTypeGameStart }
func (e GameStartEvent) Timestamp() time.Time { return e.timestamp }

// NewGameStartEvent creates a new game start event
func NewGameStartEvent(gameID string, seed int64) GameStartEvent {
	return GameStartEvent{GameID: gameID, Seed: seed, timestamp: time.Now()}
}

// CardsMovedEvent is published when a run of cards lands on a new pile
type CardsMovedEvent struct {
	GameID    string
	Result    MoveResult
	timestamp time.Time
}

func (e CardsMovedEvent) EventType() EventType { return EventTypeCardsMoved }
func (e CardsMovedEvent) Timestamp() time.Time { return e.timestamp }

// NewCardsMovedEvent creates a new cards moved event
func NewCardsMovedEvent(gameID string, result MoveResult) CardsMovedEvent {
	return CardsMovedEvent{GameID: gameID, Result: result, timestamp: time.Now()}
}

// StockEvent is published for draws and redeals
type StockEvent struct {
	GameID    string
	Result    MoveResult
	StockLeft int
	timestamp time.Time
}

func (e StockEvent) EventType() EventType { return EventTypeStock }
func (e StockEvent) Timestamp() time.Time { return e.timestamp }

// NewStockEvent creates a new stock event
func NewStockEvent(gameID string, result MoveResult, stockLeft int) StockEvent {
	return StockEvent{GameID: gameID, Result: result, StockLeft: stockLeft, timestamp: time.Now()}
}

// UndoEvent is published when a snapshot is restored
type UndoEvent struct {
	GameID      string
	HistoryLeft int
	timestamp   time.Time
}

func (e UndoEvent) EventType() EventType { return EventTypeUndo }
func (e UndoEvent) Timestamp() time.Time { return e.timestamp }

// NewUndoEvent creates a new undo event
func NewUndoEvent(gameID string, historyLeft int) UndoEvent {
	return UndoEvent{GameID: gameID, HistoryLeft: historyLeft, timestamp: time.Now()}
}

// GameWonEvent is published once when the last card reaches a foundation
type GameWonEvent struct {
	GameID    string
	Moves     int
	timestamp time.Time
}

func (e GameWonEvent) EventType() EventType { return EventTypeGameWon }
func (e GameWonEvent) Timestamp() time.Time { return e.timestamp }

// NewGameWonEvent creates a new game won event
func NewGameWonEvent(gameID string, moves int) GameWonEvent {
	return GameWonEvent{GameID: gameID, Moves: moves, timestamp: time.Now()}
}

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventSubscriberFunc adapts a plain function to EventSubscriber
type EventSubscriberFunc func(event GameEvent)

// OnEvent calls f(event)
func (f EventSubscriberFunc) OnEvent(event GameEvent) { f(event) }

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a synchronous in-memory event bus. Subscribers run on
// the publishing goroutine, in subscription order.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events. Function
// subscribers are not comparable and cannot be removed.
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	if _, ok := subscriber.(EventSubscriberFunc); ok {
		return
	}
	for i, sub := range bus.subscribers {
		if _, ok := sub.(EventSubscriberFunc); ok {
			continue
		}
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}

// FormattingOptions controls how events are formatted
type FormattingOptions struct {
	ShowCardIDs bool // Use stable ids ("hearts-7") instead of symbols ("7♥")
	ShowGameID  bool // Prefix lines with the game id
}

// EventFormatter renders events as single log lines
type EventFormatter struct {
	opts FormattingOptions
}

// NewEventFormatter creates a new event formatter with the given options
func NewEventFormatter(opts FormattingOptions) *EventFormatter {
	return &EventFormatter{opts: opts}
}

// Format renders any known event; unknown events render as their type
func (ef *EventFormatter) Format(event GameEvent) string {
	var line, gameID string
	switch e := event.(type) {
	case GameStartEvent:
		line, gameID = fmt.Sprintf("New game dealt (seed %d)", e.Seed), e.GameID
	case CardsMovedEvent:
		line, gameID = ef.formatMove(e.Result), e.GameID
	case StockEvent:
		line, gameID = ef.formatStock(e), e.GameID
	case UndoEvent:
		line, gameID = fmt.Sprintf("Undo (%d left)", e.HistoryLeft), e.GameID
	case GameWonEvent:
		line, gameID = fmt.Sprintf("*** You won in %d moves! ***", e.Moves), e.GameID
	default:
		return event.EventType().String()
	}
	if ef.opts.ShowGameID && gameID != "" {
		return fmt.Sprintf("[%s] %s", gameID, line)
	}
	return line
}

func (ef *EventFormatter) formatMove(r MoveResult) string {
	line := fmt.Sprintf("%s: %s -> %s", ef.formatCards(r.CardIDs), r.From, r.To)
	if r.Flipped != "" {
		line += fmt.Sprintf(" (turned up %s)", ef.formatCard(r.Flipped))
	}
	return line
}

func (ef *EventFormatter) formatStock(e StockEvent) string {
	switch e.Result.Kind {
	case MoveDraw:
		return fmt.Sprintf("Drew %s (%d left in stock)", ef.formatCards(e.Result.CardIDs), e.StockLeft)
	case MoveRedeal:
		return fmt.Sprintf("Redealt %d cards to the stock", len(e.Result.CardIDs))
	default:
		return string(e.Result.Kind)
	}
}

func (ef *EventFormatter) formatCards(ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = ef.formatCard(id)
	}
	return strings.Join(parts, " ")
}

func (ef *EventFormatter) formatCard(id string) string {
	if ef.opts.ShowCardIDs {
		return id
	}
	c, err := deck.ParseID(id)
	if err != nil {
		return id
	}
	return c.String()
}
