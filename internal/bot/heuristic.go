package bot

import (
	"cribbage/internal/deck"
	"cribbage/internal/engine"
	"cribbage/internal/scoring"
)

// Tuning weights for the heuristic strategy's pegging evaluation.
const (
	hitTargetBonus   = 3.0 // reaching 15 or 31
	pairBonus        = 2.0 // pairing the top of the pile
	dangerPenalty    = 1.0 // leaving the count at 5, 10, or 21
	earlyValueWeight = 0.1 // prefer high cards before the count builds
	endgameLowBonus  = 1.0 // hold low cards for a tight count
	starterSample    = 10  // starters sampled when valuing a discard
)

// Heuristic maximizes expected retained-hand value on discard and plays
// pegging cards by a weighted evaluation.
type Heuristic struct{}

// SelectDiscards tries every discard combination, valuing the kept cards over
// a sample of possible starters, adjusted by how much the discard is likely
// to feed the crib: a bonus when the bot deals, a penalty otherwise.
func (Heuristic) SelectDiscards(g *engine.Game, p *engine.Player) []string {
	n := engine.DiscardsPerPlayer[g.PlayerCount]
	combos := discardCombos(p.Hand, n)
	if len(combos) == 0 {
		return nil
	}

	held := make(map[string]struct{}, len(p.Hand))
	for _, c := range p.Hand {
		held[c.ID] = struct{}{}
	}
	var starters []deck.Card
	for _, c := range g.Deck {
		if _, ok := held[c.ID]; ok {
			continue
		}
		starters = append(starters, c)
		if len(starters) == starterSample {
			break
		}
	}

	isDealer := g.Dealer().ID == p.ID
	best := combos[0]
	bestValue := -1.0
	for _, discard := range combos {
		kept := keptCards(p.Hand, discard)
		value := scoring.ExpectedHandValue(kept, starters)

		cribValue := discardCribValue(discard)
		if isDealer {
			value += cribValue * 0.5
		} else {
			value -= cribValue * 0.3
		}

		if value > bestValue {
			bestValue = value
			best = discard
		}
	}

	ids := make([]string, len(best))
	for i, c := range best {
		ids[i] = c.ID
	}
	return ids
}

// SelectPlay scores each legal card: favor hitting 15/31 and pairing, avoid
// leaving counts that hand the opponent an easy fifteen.
func (Heuristic) SelectPlay(g *engine.Game, p *engine.Player) (string, bool) {
	playable := playableCards(p.Hand, g.Pegging.CurrentCount)
	if len(playable) == 0 {
		return "", true
	}

	best := playable[0]
	bestScore := -1e9
	for _, c := range playable {
		newCount := g.Pegging.CurrentCount + c.Value()
		score := 0.0

		if newCount == 15 || newCount == 31 {
			score += hitTargetBonus
		}
		if pile := g.Pegging.Pile; len(pile) > 0 && pile[len(pile)-1].Rank == c.Rank {
			score += pairBonus
		}
		if newCount == 5 || newCount == 10 || newCount == 21 {
			score -= dangerPenalty
		}
		if g.Pegging.CurrentCount < 15 {
			score += float64(c.Value()) * earlyValueWeight
		}
		if g.Pegging.CurrentCount > 20 && c.Value() <= 5 {
			score += endgameLowBonus
		}

		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best.ID, false
}

// discardCribValue estimates how much a discard is worth inside a crib.
func discardCribValue(cards []deck.Card) float64 {
	value := 0.0
	sum := 0
	for _, c := range cards {
		sum += c.Value()
		if c.Rank == deck.Five {
			value++
		}
	}
	if sum == 15 {
		value += 2
	}
	if sum == 5 {
		value++ // pairs with any 10-value starter
	}
	if len(cards) == 2 && cards[0].Rank == cards[1].Rank {
		value += 2
	}
	return value
}

func discardCombos(hand []deck.Card, size int) [][]deck.Card {
	if size == 0 {
		return [][]deck.Card{{}}
	}
	if len(hand) < size {
		return nil
	}
	first, rest := hand[0], hand[1:]
	var out [][]deck.Card
	for _, c := range discardCombos(rest, size-1) {
		out = append(out, append([]deck.Card{first}, c...))
	}
	return append(out, discardCombos(rest, size)...)
}

func keptCards(hand, discard []deck.Card) []deck.Card {
	dropped := make(map[string]struct{}, len(discard))
	for _, c := range discard {
		dropped[c.ID] = struct{}{}
	}
	var kept []deck.Card
	for _, c := range hand {
		if _, ok := dropped[c.ID]; !ok {
			kept = append(kept, c)
		}
	}
	return kept
}
