package game

import (
	"io"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/klondike/internal/gameid"
	"github.com/lox/klondike/internal/randutil"
)

// ClickOutcome reports what a click on a pile did
type ClickOutcome int

const (
	ClickIgnored ClickOutcome = iota
	ClickSelected
	ClickDeselected
	ClickMoved
	ClickDrew
)

func (o ClickOutcome) String() string {
	switch o {
	case ClickSelected:
		return "selected"
	case ClickDeselected:
		return "deselected"
	case ClickMoved:
		return "moved"
	case ClickDrew:
		return "drew"
	default:
		return "ignored"
	}
}

// Session owns one live game: the current state, its undo history, the
// pending selection and the hint toggle. It is not safe for concurrent use;
// hosts serialise calls.
type Session struct {
	id        string
	seed      int64
	state     State
	history   History
	selection *Selection
	showHints bool
	won       bool
	announced bool
	moves     int

	rng    *rand.Rand
	ids    *gameid.Generator
	bus    EventBus
	logger *log.Logger
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *log.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithRNG sets the random source used to pick seeds for new deals
func WithRNG(rng *rand.Rand) SessionOption {
	return func(s *Session) { s.rng = rng }
}

// WithEventBus sets the bus events are published on
func WithEventBus(bus EventBus) SessionOption {
	return func(s *Session) { s.bus = bus }
}

// WithIDGenerator sets the generator used for game ids
func WithIDGenerator(gen *gameid.Generator) SessionOption {
	return func(s *Session) { s.ids = gen }
}

// WithShowHints sets the initial hint toggle
func WithShowHints(show bool) SessionOption {
	return func(s *Session) { s.showHints = show }
}

// NewSession creates a session and deals its first game
func NewSession(opts ...SessionOption) *Session {
	s := &Session{showHints: true}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.logger = s.logger.WithPrefix("session")
	if s.rng == nil {
		s.rng = randutil.New(randutil.Seed())
	}
	if s.ids == nil {
		s.ids = gameid.NewGenerator(nil, nil)
	}
	if s.bus == nil {
		s.bus = NewEventBus()
	}
	s.NewGame()
	return s
}

// EventBus returns the bus this session publishes on
func (s *Session) EventBus() EventBus { return s.bus }

// ID returns the id of the current game
func (s *Session) ID() string { return s.id }

// Seed returns the seed the current game was dealt from
func (s *Session) Seed() int64 { return s.seed }

// State returns a snapshot of the current position that the caller may keep
func (s *Session) State() State { return s.state.Clone() }

// Selection returns the pending selection, or nil
func (s *Session) Selection() *Selection {
	if s.selection == nil {
		return nil
	}
	sel := *s.selection
	return &sel
}

// Moves returns the number of accepted actions in the current game, net of undos
func (s *Session) Moves() int { return s.moves }

// Won reports whether the current game is won
func (s *Session) Won() bool { return s.won }

// CanUndo reports whether there is anything to undo
func (s *Session) CanUndo() bool { return s.history.Len() > 0 }

// CanRedeal reports whether a redeal is possible right now
func (s *Session) CanRedeal() bool {
	return len(s.state.Stock) == 0 && len(s.state.Waste) > 0
}

// ShowHints reports the hint toggle
func (s *Session) ShowHints() bool { return s.showHints }

// SetShowHints turns drop hints on or off
func (s *Session) SetShowHints(show bool) {
	s.showHints = show
}

// NewGame deals a fresh game from a seed drawn from the session's random source
func (s *Session) NewGame() {
	s.NewGameWithSeed(int64(s.rng.Uint64() >> 1))
}

// NewGameWithSeed deals the game for seed, discarding history and selection
func (s *Session) NewGameWithSeed(seed int64) {
	s.seed = seed
	s.id = s.ids.Generate()
	s.state = Deal(randutil.New(seed))
	s.history.Clear()
	s.selection = nil
	s.won = false
	s.announced = false
	s.moves = 0

	s.logger.Debug("Dealt new game", "game", s.id, "seed", seed)
	s.bus.Publish(NewGameStartEvent(s.id, seed))
}

// Draw turns a card from the stock, or redeals when the stock is empty
func (s *Session) Draw() bool {
	next, result, ok := DrawStock(s.state)
	if !ok {
		s.logger.Debug("Nothing to draw", "game", s.id)
		return false
	}
	s.commit(next)
	s.selection = nil
	s.logger.Debug("Stock action", "game", s.id, "kind", result.Kind, "cards", len(result.CardIDs))
	s.bus.Publish(NewStockEvent(s.id, result, len(s.state.Stock)))
	s.checkWin()
	return true
}

// Redeal recycles the waste into an empty stock
func (s *Session) Redeal() bool {
	next, result, ok := Redeal(s.state)
	if !ok {
		return false
	}
	s.commit(next)
	s.selection = nil
	s.logger.Debug("Redealt waste", "game", s.id, "cards", len(result.CardIDs))
	s.bus.Publish(NewStockEvent(s.id, result, len(s.state.Stock)))
	s.checkWin()
	return true
}

// Select makes sel the pending selection if it names a movable card
func (s *Session) Select(sel Selection) bool {
	if len(Run(s.state, sel)) == 0 {
		return false
	}
	if sel.Source.Kind != Tableau {
		sel.CardIndex = len(*s.state.Pile(sel.Source)) - 1
	}
	s.selection = &sel
	return true
}

// ClearSelection drops the pending selection
func (s *Session) ClearSelection() {
	s.selection = nil
}

// Move applies the pending selection to dest
func (s *Session) Move(dest PileRef) (MoveResult, bool) {
	if s.selection == nil {
		return MoveResult{}, false
	}
	return s.MoveFrom(*s.selection, dest)
}

// MoveFrom moves the run described by sel onto dest. The selection is
// cleared on success and kept on failure.
func (s *Session) MoveFrom(sel Selection, dest PileRef) (MoveResult, bool) {
	next, result, ok := TryMove(s.state, sel, dest)
	if !ok {
		s.logger.Debug("Rejected move", "game", s.id, "from", sel.Source, "index", sel.CardIndex, "to", dest)
		return MoveResult{}, false
	}
	s.commit(next)
	s.selection = nil

	s.logger.Debug("Moved cards", "game", s.id, "from", result.From, "to", result.To,
		"cards", result.CardIDs, "flipped", result.Flipped)
	s.bus.Publish(NewCardsMovedEvent(s.id, result))
	s.checkWin()
	return result, true
}

// Undo restores the position before the last accepted action
func (s *Session) Undo() bool {
	prev, ok := s.history.Undo(s.state)
	if !ok {
		return false
	}
	s.state = prev
	s.selection = nil
	s.moves--
	s.won = CheckWin(s.state)

	s.logger.Debug("Undo", "game", s.id, "historyLeft", s.history.Len())
	s.bus.Publish(NewUndoEvent(s.id, s.history.Len()))
	return true
}

// Hints returns the legal destinations for the pending selection, or no
// hints when nothing is selected or hints are switched off
func (s *Session) Hints() Hints {
	if !s.showHints {
		return ComputeHints(s.state, nil)
	}
	return ComputeHints(s.state, s.selection)
}

// Click interprets a click on a pile the way a point-and-click front end
// does. cardIndex is only used for tableau piles; a negative value means the
// top card.
func (s *Session) Click(ref PileRef, cardIndex int) ClickOutcome {
	switch ref.Kind {
	case Stock:
		if s.Draw() {
			return ClickDrew
		}
		s.selection = nil
		return ClickIgnored
	case Waste:
		return s.clickWaste()
	case Foundation:
		return s.clickFoundation(ref)
	case Tableau:
		return s.clickTableau(ref, cardIndex)
	default:
		return ClickIgnored
	}
}

func (s *Session) clickWaste() ClickOutcome {
	if len(s.state.Waste) == 0 {
		return ClickIgnored
	}
	if s.selection != nil && s.selection.Source == WasteRef() {
		s.selection = nil
		return ClickDeselected
	}
	s.Select(Selection{Source: WasteRef()})
	return ClickSelected
}

func (s *Session) clickFoundation(ref PileRef) ClickOutcome {
	if s.selection != nil {
		if _, ok := s.Move(ref); ok {
			return ClickMoved
		}
	}
	if len(*s.state.Pile(ref)) == 0 {
		return ClickIgnored
	}
	if s.selection != nil && s.selection.Source == ref {
		s.selection = nil
		return ClickDeselected
	}
	s.Select(Selection{Source: ref})
	return ClickSelected
}

func (s *Session) clickTableau(ref PileRef, cardIndex int) ClickOutcome {
	pile := *s.state.Pile(ref)
	if len(pile) == 0 {
		if s.selection != nil {
			if _, ok := s.Move(ref); ok {
				return ClickMoved
			}
		}
		return ClickIgnored
	}

	if cardIndex < 0 || cardIndex >= len(pile) {
		cardIndex = len(pile) - 1
	}
	if !pile[cardIndex].FaceUp {
		return ClickIgnored
	}

	if s.selection != nil {
		if *s.selection == (Selection{Source: ref, CardIndex: cardIndex}) {
			s.selection = nil
			return ClickDeselected
		}
		if _, ok := s.Move(ref); ok {
			return ClickMoved
		}
	}

	s.Select(Selection{Source: ref, CardIndex: cardIndex})
	return ClickSelected
}

// commit records the current state in history and installs next
func (s *Session) commit(next State) {
	s.history.Push(s.state)
	s.state = next
	s.moves++
}

// checkWin updates the won flag; the win is announced once per deal
func (s *Session) checkWin() {
	s.won = CheckWin(s.state)
	if s.won && !s.announced {
		s.announced = true
		s.logger.Info("Game won", "game", s.id, "moves", s.moves)
		s.bus.Publish(NewGameWonEvent(s.id, s.moves))
	}
}
