// Package game implements the rules of Klondike solitaire.
//
// The main type is State, an immutable snapshot of the stock, waste, four
// foundations and seven tableau columns. Rule functions such as TryMove,
// DrawStock and Redeal take a State and return a new one, leaving the input
// untouched when a move is rejected.
//
// Session layers the interactive concerns on top: a pending selection, undo
// history, drop hints and an EventBus that hosts subscribe to.
package game
