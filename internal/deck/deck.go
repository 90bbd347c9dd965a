// Package deck models standard playing cards and the operations a cribbage
// round needs: building a full deck, shuffling, and splitting off dealt cards.
package deck

import (
	"fmt"
	"math/rand"
)

// Suit is one of the four card suits.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Rank is a card rank, A through K.
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Suits lists every suit in deck order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Ranks lists every rank in deck order.
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

var suitSymbols = map[Suit]string{
	Hearts:   "♥",
	Diamonds: "♦",
	Clubs:    "♣",
	Spades:   "♠",
}

// values maps each rank to its pip value for counting (face cards are 10).
var values = map[Rank]int{
	Ace: 1, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
	Eight: 8, Nine: 9, Ten: 10, Jack: 10, Queen: 10, King: 10,
}

// runOrder maps each rank to its position in a run (A low, K high).
var runOrder = map[Rank]int{
	Ace: 1, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
	Eight: 8, Nine: 9, Ten: 10, Jack: 11, Queen: 12, King: 13,
}

// Card is an immutable playing card. ID is the card's position in a fresh
// deck, so two cards with the same ID are the same physical card.
type Card struct {
	ID   string `json:"id"`
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
}

// String renders the card as rank plus suit symbol, e.g. "5♥".
func (c Card) String() string {
	return string(c.Rank) + suitSymbols[c.Suit]
}

// Value returns the card's pip value for counting.
func (c Card) Value() int {
	return values[c.Rank]
}

// Order returns the card's rank position for run scoring.
func (c Card) Order() int {
	return runOrder[c.Rank]
}

// New returns a full, unshuffled 52-card deck.
func New() []Card {
	cards := make([]Card, 0, 52)
	id := 0
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{
				ID:   fmt.Sprintf("card-%d", id),
				Suit: suit,
				Rank: rank,
			})
			id++
		}
	}
	return cards
}

// Shuffle returns a uniformly shuffled copy of cards. The input is not
// modified.
func Shuffle(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Deal splits off the first n cards. The returned slices share no cards and
// together cover the input.
func Deal(cards []Card, n int) (dealt, remaining []Card) {
	if n > len(cards) {
		n = len(cards)
	}
	dealt = make([]Card, n)
	copy(dealt, cards[:n])
	remaining = make([]Card, len(cards)-n)
	copy(remaining, cards[n:])
	return dealt, remaining
}

// IsValidPlay reports whether a card of the given pip value may be played
// onto the running count without exceeding 31.
func IsValidPlay(currentCount, value int) bool {
	return currentCount+value <= 31
}

// CanPlay reports whether any card in hand is playable at the current count.
func CanPlay(hand []Card, currentCount int) bool {
	for _, c := range hand {
		if IsValidPlay(currentCount, c.Value()) {
			return true
		}
	}
	return false
}
