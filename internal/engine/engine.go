// Package engine holds the authoritative cribbage game state and the phase
// state machine that advances it. Every action validates the acting player
// and the current phase, mutates the game in place, and returns announcement
// lines for broadcast. The engine performs no I/O; persistence and transport
// live above it.
package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"cribbage/internal/deck"
)

// Phase is a stage of the game lifecycle. Phases advance strictly forward
// through one round and wrap back to DISCARDING_TO_CRIB for the next.
type Phase string

const (
	PhaseWaitingForPlayers Phase = "WAITING_FOR_PLAYERS"
	PhaseDiscardingToCrib  Phase = "DISCARDING_TO_CRIB"
	PhasePegging           Phase = "PEGGING"
	PhaseCountingHands     Phase = "COUNTING_HANDS"
	PhaseCountingCrib      Phase = "COUNTING_CRIB"
	PhaseGameOver          Phase = "GAME_OVER"
)

// DefaultWinningScore is the standard cribbage target.
const DefaultWinningScore = 121

// CardsPerPlayer is the deal size by table size.
var CardsPerPlayer = map[int]int{2: 6, 4: 5}

// DiscardsPerPlayer is how many cards each player sends to the crib.
var DiscardsPerPlayer = map[int]int{2: 2, 4: 1}

// Player is a seat at the table. Hand shrinks as cards are discarded and
// played; CountingHand is snapshotted after the discard phase and is what the
// counting phases score, so pegging emptying Hand never affects the show.
type Player struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	IsBot        bool        `json:"isBot"`
	IsConnected  bool        `json:"isConnected"`
	Hand         []deck.Card `json:"hand"`
	CountingHand []deck.Card `json:"countingHand"`
	TeamID       int         `json:"teamId,omitempty"`
}

// PeggingState tracks the play phase: the pile since the last reset, the
// running count, and pass bookkeeping. PlayedCardIDs is a set in memory and
// serializes as a sorted list.
type PeggingState struct {
	Pile              []deck.Card
	CurrentCount      int
	PlayedCardIDs     map[string]struct{}
	ConsecutivePasses int
	LastPlayerID      string
}

type peggingStateJSON struct {
	Pile              []deck.Card `json:"pile"`
	CurrentCount      int         `json:"currentCount"`
	PlayedCardIDs     []string    `json:"playedCardIds"`
	ConsecutivePasses int         `json:"consecutivePasses"`
	LastPlayerID      string      `json:"lastPlayerId"`
}

func (p PeggingState) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(p.PlayedCardIDs))
	for id := range p.PlayedCardIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return json.Marshal(peggingStateJSON{
		Pile:              p.Pile,
		CurrentCount:      p.CurrentCount,
		PlayedCardIDs:     ids,
		ConsecutivePasses: p.ConsecutivePasses,
		LastPlayerID:      p.LastPlayerID,
	})
}

func (p *PeggingState) UnmarshalJSON(data []byte) error {
	var raw peggingStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Pile = raw.Pile
	p.CurrentCount = raw.CurrentCount
	p.PlayedCardIDs = make(map[string]struct{}, len(raw.PlayedCardIDs))
	for _, id := range raw.PlayedCardIDs {
		p.PlayedCardIDs[id] = struct{}{}
	}
	p.ConsecutivePasses = raw.ConsecutivePasses
	p.LastPlayerID = raw.LastPlayerID
	return nil
}

func newPeggingState() PeggingState {
	return PeggingState{PlayedCardIDs: make(map[string]struct{})}
}

// Game is the single authoritative record for one match. Player order is
// fixed and defines turn order.
type Game struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Players            []*Player      `json:"players"`
	Deck               []deck.Card    `json:"deck"`
	Crib               []deck.Card    `json:"crib"`
	Starter            *deck.Card     `json:"starter"`
	CurrentPlayerIndex int            `json:"currentPlayerIndex"`
	DealerIndex        int            `json:"dealerIndex"`
	Phase              Phase          `json:"phase"`
	Pegging            PeggingState   `json:"peggingState"`
	Scores             map[string]int `json:"scores"`
	WinningScore       int            `json:"winningScore"`
	PlayerCount        int            `json:"playerCount"`
	CreatedAt          int64          `json:"createdAt"`
	UpdatedAt          int64          `json:"updatedAt"`
}

// New creates a game in WAITING_FOR_PLAYERS with the host seated.
func New(hostName string, playerCount, winningScore int) (*Game, *Player, error) {
	if playerCount != 2 && playerCount != 4 {
		return nil, nil, ErrInvalidPlayerCount
	}
	if winningScore <= 0 {
		winningScore = DefaultWinningScore
	}

	name := RandomName()
	host := &Player{
		ID:          uuid.NewString(),
		Name:        hostName,
		IsConnected: true,
	}
	now := time.Now().UnixMilli()
	g := &Game{
		ID:           name,
		Name:         name,
		Players:      []*Player{host},
		Phase:        PhaseWaitingForPlayers,
		Pegging:      newPeggingState(),
		Scores:       map[string]int{host.ID: 0},
		WinningScore: winningScore,
		PlayerCount:  playerCount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return g, host, nil
}

// AddPlayer seats a new player. Fails once the table is full or the game has
// left the waiting phase.
func (g *Game) AddPlayer(name string, isBot bool) (*Player, error) {
	if len(g.Players) >= g.PlayerCount {
		return nil, ErrGameFull
	}
	if g.Phase != PhaseWaitingForPlayers {
		return nil, ErrGameStarted
	}
	p := &Player{
		ID:          uuid.NewString(),
		Name:        name,
		IsBot:       isBot,
		IsConnected: true,
	}
	g.Players = append(g.Players, p)
	g.Scores[p.ID] = 0
	g.touch()
	return p, nil
}

// Player finds a seated player by id.
func (g *Game) Player(id string) (*Player, error) {
	for _, p := range g.Players {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrPlayerNotFound
}

// CurrentPlayer returns the turn holder.
func (g *Game) CurrentPlayer() *Player {
	return g.Players[g.CurrentPlayerIndex]
}

// Dealer returns the current dealer.
func (g *Game) Dealer() *Player {
	return g.Players[g.DealerIndex]
}

// Full reports whether every seat is taken.
func (g *Game) Full() bool {
	return len(g.Players) == g.PlayerCount
}

// ConnectedHumans counts non-bot players that still hold a connection.
func (g *Game) ConnectedHumans() int {
	n := 0
	for _, p := range g.Players {
		if !p.IsBot && p.IsConnected {
			n++
		}
	}
	return n
}

// Winner returns the winning player once the game is over, else nil.
func (g *Game) Winner() *Player {
	if g.Phase != PhaseGameOver {
		return nil
	}
	for _, p := range g.Players {
		if g.Scores[p.ID] >= g.WinningScore {
			return p
		}
	}
	return nil
}

// Start shuffles, deals, and enters the discard phase. Requires a full table.
func (g *Game) Start() ([]string, error) {
	if g.Phase != PhaseWaitingForPlayers {
		return nil, ErrGameStarted
	}
	if !g.Full() {
		return nil, ErrNotEnoughPlayers
	}
	g.dealRound()
	g.Phase = PhaseDiscardingToCrib
	g.touch()
	return []string{fmt.Sprintf("Cards dealt. %s is the dealer.", g.Dealer().Name)}, nil
}

// dealRound replaces the deck with a fresh shuffle and deals every hand.
func (g *Game) dealRound() {
	g.Deck = deck.Shuffle(deck.New())
	perPlayer := CardsPerPlayer[g.PlayerCount]
	for _, p := range g.Players {
		p.Hand, g.Deck = deck.Deal(g.Deck, perPlayer)
	}
	g.Crib = nil
	g.Starter = nil
	g.Pegging = newPeggingState()
}

// award adds points and checks for an immediate win. Wins end the game the
// moment the score is applied, whatever the phase.
func (g *Game) award(p *Player, points int) (won bool, events []string) {
	if points <= 0 {
		return false, nil
	}
	g.Scores[p.ID] += points
	if g.Scores[p.ID] >= g.WinningScore {
		g.Phase = PhaseGameOver
		return true, []string{fmt.Sprintf("%s wins with %d points!", p.Name, g.Scores[p.ID])}
	}
	return false, nil
}

// cutStarter removes a random card from the remaining deck.
func (g *Game) cutStarter() deck.Card {
	i := rand.Intn(len(g.Deck))
	starter := g.Deck[i]
	g.Deck = append(g.Deck[:i], g.Deck[i+1:]...)
	return starter
}

func (g *Game) touch() {
	g.UpdatedAt = time.Now().UnixMilli()
}

// Marshal serializes the game for the keyed store.
func (g *Game) Marshal() ([]byte, error) {
	return json.Marshal(g)
}

// Unmarshal reconstructs a game from its stored form.
func Unmarshal(data []byte) (*Game, error) {
	var g Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("unmarshal game: %w", err)
	}
	if g.Pegging.PlayedCardIDs == nil {
		g.Pegging.PlayedCardIDs = make(map[string]struct{})
	}
	if g.Scores == nil {
		g.Scores = make(map[string]int)
	}
	return &g, nil
}
