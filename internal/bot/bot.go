// Package bot picks actions for computer-controlled seats. Strategies are
// pure decision functions over the game state; the orchestrator decides when
// a bot is due to act and applies whatever the strategy chooses through the
// same action path as a human player.
package bot

import (
	"math/rand"

	"cribbage/internal/deck"
	"cribbage/internal/engine"
)

// Names is the roster bots draw from, by seat order.
var Names = []string{"Bot Alice", "Bot Bob", "Bot Charlie", "Bot Diana"}

// NameForSeat returns the roster name for a seat index.
func NameForSeat(seat int) string {
	if seat < len(Names) {
		return Names[seat]
	}
	return "Bot"
}

// Strategy selects discards and pegging plays for one bot.
type Strategy interface {
	// SelectDiscards picks which card ids to send to the crib.
	SelectDiscards(g *engine.Game, p *engine.Player) []string
	// SelectPlay picks a card to play, or pass=true when no card is legal.
	SelectPlay(g *engine.Game, p *engine.Player) (cardID string, pass bool)
}

// Random plays uniformly at random among legal moves.
type Random struct{}

func (Random) SelectDiscards(g *engine.Game, p *engine.Player) []string {
	n := engine.DiscardsPerPlayer[g.PlayerCount]
	perm := rand.Perm(len(p.Hand))
	ids := make([]string, 0, n)
	for _, i := range perm[:n] {
		ids = append(ids, p.Hand[i].ID)
	}
	return ids
}

func (Random) SelectPlay(g *engine.Game, p *engine.Player) (string, bool) {
	playable := playableCards(p.Hand, g.Pegging.CurrentCount)
	if len(playable) == 0 {
		return "", true
	}
	return playable[rand.Intn(len(playable))].ID, false
}

func playableCards(hand []deck.Card, currentCount int) []deck.Card {
	var out []deck.Card
	for _, c := range hand {
		if deck.IsValidPlay(currentCount, c.Value()) {
			out = append(out, c)
		}
	}
	return out
}
