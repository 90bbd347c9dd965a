package engine

import (
	"fmt"

	"cribbage/internal/deck"
	"cribbage/internal/scoring"
)

// Discard moves the player's chosen cards into the crib. Once the crib is
// complete the starter is cut, heels is checked, every hand is snapshotted
// for the show, and the game enters the pegging phase.
func (g *Game) Discard(playerID string, cardIDs []string) ([]string, error) {
	if g.Phase != PhaseDiscardingToCrib {
		return nil, ErrWrongPhase
	}
	p, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}

	expected := DiscardsPerPlayer[g.PlayerCount]
	if len(cardIDs) != expected {
		return nil, fmt.Errorf("%w: must discard exactly %d", ErrWrongDiscardCount, expected)
	}

	// Validate every card before touching the hand so a bad request leaves
	// the game unchanged.
	indexes := make([]int, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		idx := -1
		for i, c := range p.Hand {
			if c.ID == cardID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, ErrCardNotInHand
		}
		for _, seen := range indexes {
			if seen == idx {
				return nil, ErrCardNotInHand
			}
		}
		indexes = append(indexes, idx)
	}

	for _, idx := range indexes {
		g.Crib = append(g.Crib, p.Hand[idx])
	}
	kept := p.Hand[:0:0]
	for i, c := range p.Hand {
		discarded := false
		for _, idx := range indexes {
			if i == idx {
				discarded = true
				break
			}
		}
		if !discarded {
			kept = append(kept, c)
		}
	}
	p.Hand = kept
	g.touch()

	if len(g.Crib) < g.PlayerCount*expected {
		return nil, nil
	}
	return g.beginPegging(), nil
}

// beginPegging cuts the starter, awards heels, snapshots counting hands, and
// opens play left of the dealer.
func (g *Game) beginPegging() []string {
	starter := g.cutStarter()
	g.Starter = &starter

	events := []string{fmt.Sprintf("Starter card is %s", starter)}

	if starter.Rank == deck.Jack {
		dealer := g.Dealer()
		events = append(events, fmt.Sprintf("%s gets 2 for his heels!", dealer.Name))
		if won, winEvents := g.award(dealer, 2); won {
			return append(events, winEvents...)
		}
	}

	// The show scores these snapshots; pegging empties Hand.
	for _, p := range g.Players {
		p.CountingHand = make([]deck.Card, len(p.Hand))
		copy(p.CountingHand, p.Hand)
	}

	g.Phase = PhasePegging
	g.CurrentPlayerIndex = (g.DealerIndex + 1) % len(g.Players)
	g.Pegging = newPeggingState()
	return events
}

// PlayCard plays one card onto the pile for the turn holder, scores the play,
// and advances the rotation, handling 31 resets, forced goes, and the last
// card.
func (g *Game) PlayCard(playerID, cardID string) ([]string, error) {
	if g.Phase != PhasePegging {
		return nil, ErrWrongPhase
	}
	if g.CurrentPlayer().ID != playerID {
		return nil, ErrNotYourTurn
	}
	p, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}

	cardIdx := -1
	for i, c := range p.Hand {
		if c.ID == cardID {
			cardIdx = i
			break
		}
	}
	if cardIdx == -1 {
		return nil, ErrCardNotInHand
	}

	card := p.Hand[cardIdx]
	if !deck.IsValidPlay(g.Pegging.CurrentCount, card.Value()) {
		return nil, ErrExceedsThirtyOne
	}

	p.Hand = append(p.Hand[:cardIdx], p.Hand[cardIdx+1:]...)
	g.Pegging.Pile = append(g.Pegging.Pile, card)
	g.Pegging.PlayedCardIDs[card.ID] = struct{}{}
	g.Pegging.CurrentCount += card.Value()
	g.Pegging.LastPlayerID = playerID
	g.Pegging.ConsecutivePasses = 0

	points := scoring.Pegging(g.Pegging.Pile, g.Pegging.CurrentCount)

	announcement := fmt.Sprintf("%s plays %s for %d", p.Name, card, g.Pegging.CurrentCount)
	if points > 0 {
		announcement += " - " + scoring.DescribePegging(points, g.Pegging.CurrentCount, g.Pegging.Pile) + "!"
	}
	events := []string{announcement}

	if won, winEvents := g.award(p, points); won {
		g.touch()
		return append(events, winEvents...), nil
	}

	// Hitting 31 exactly resets the pile without ending the rotation.
	if g.Pegging.CurrentCount == 31 {
		g.Pegging.Pile = nil
		g.Pegging.CurrentCount = 0
	}

	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)

	allPlayed := true
	for _, other := range g.Players {
		if len(other.Hand) > 0 {
			allPlayed = false
			break
		}
	}

	if allPlayed {
		// Last card is worth 1 unless the pile just reset on 31.
		if g.Pegging.CurrentCount > 0 && g.Pegging.CurrentCount < 31 {
			events = append(events, fmt.Sprintf("%s gets 1 for last card", p.Name))
			if won, winEvents := g.award(p, 1); won {
				g.touch()
				return append(events, winEvents...), nil
			}
		}
		g.Phase = PhaseCountingHands
		g.CurrentPlayerIndex = (g.DealerIndex + 1) % len(g.Players)
		events = append(events, "Pegging complete! Time to count hands.")
	} else {
		events = append(events, g.skipUnplayable()...)
	}

	g.touch()
	return events, nil
}

// Pass records a go. Only legal when the player truly has no playable card.
func (g *Game) Pass(playerID string) ([]string, error) {
	if g.Phase != PhasePegging {
		return nil, ErrWrongPhase
	}
	if g.CurrentPlayer().ID != playerID {
		return nil, ErrNotYourTurn
	}
	p, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}
	if deck.CanPlay(p.Hand, g.Pegging.CurrentCount) {
		return nil, ErrMustPlayCard
	}

	events := []string{fmt.Sprintf("%s says \"Go\"", p.Name)}
	g.Pegging.ConsecutivePasses++
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)

	goEvents, _ := g.settleGo()
	events = append(events, goEvents...)
	g.touch()
	return events, nil
}

// skipUnplayable rotates past players who cannot play, announcing their
// forced goes, and settles the go point when the passes wrap the table.
func (g *Game) skipUnplayable() []string {
	var events []string
	for attempts := 0; attempts < len(g.Players); attempts++ {
		current := g.CurrentPlayer()
		if len(current.Hand) == 0 || deck.CanPlay(current.Hand, g.Pegging.CurrentCount) {
			break
		}
		events = append(events, fmt.Sprintf("%s says \"Go\"", current.Name))
		g.Pegging.ConsecutivePasses++
		g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	}
	goEvents, _ := g.settleGo()
	return append(events, goEvents...)
}

// settleGo awards the go point to the last player to lay a card and resets
// the pile once every player has passed in turn.
func (g *Game) settleGo() ([]string, bool) {
	if g.Pegging.ConsecutivePasses < len(g.Players) {
		return nil, false
	}
	var events []string
	if g.Pegging.LastPlayerID != "" {
		if lastPlayer, err := g.Player(g.Pegging.LastPlayerID); err == nil {
			events = append(events, fmt.Sprintf("%s gets 1 for the Go", lastPlayer.Name))
			if won, winEvents := g.award(lastPlayer, 1); won {
				return append(events, winEvents...), true
			}
		}
	}
	g.Pegging.Pile = nil
	g.Pegging.CurrentCount = 0
	g.Pegging.ConsecutivePasses = 0
	return events, false
}

// ContinueCounting advances the show one step: during COUNTING_HANDS the
// current player's hand is scored, during COUNTING_CRIB the dealer scores the
// crib and, absent a winner, the next round begins.
func (g *Game) ContinueCounting(playerID string) ([]string, error) {
	switch g.Phase {
	case PhaseCountingHands:
		return g.countHand(playerID)
	case PhaseCountingCrib:
		return g.countCrib(playerID)
	default:
		return nil, ErrWrongPhase
	}
}

func (g *Game) countHand(playerID string) ([]string, error) {
	current := g.CurrentPlayer()
	if current.ID != playerID {
		return nil, ErrNotYourTurn
	}

	breakdown := scoring.Hand(current.CountingHand, *g.Starter)
	events := []string{fmt.Sprintf("%s's hand: %s = %d points",
		current.Name, handString(current.CountingHand), breakdown.Total)}

	if won, winEvents := g.award(current, breakdown.Total); won {
		g.touch()
		return append(events, winEvents...), nil
	}

	// Counting starts left of the dealer; wrapping back there means every
	// hand has been shown.
	next := (g.CurrentPlayerIndex + 1) % len(g.Players)
	firstCounter := (g.DealerIndex + 1) % len(g.Players)
	if next == firstCounter {
		g.Phase = PhaseCountingCrib
		g.CurrentPlayerIndex = g.DealerIndex
	} else {
		g.CurrentPlayerIndex = next
	}
	g.touch()
	return events, nil
}

func (g *Game) countCrib(playerID string) ([]string, error) {
	dealer := g.Dealer()
	if dealer.ID != playerID {
		return nil, ErrNotYourTurn
	}

	breakdown := scoring.Crib(g.Crib, *g.Starter)
	events := []string{fmt.Sprintf("%s's crib: %s = %d points",
		dealer.Name, handString(g.Crib), breakdown.Total)}

	if won, winEvents := g.award(dealer, breakdown.Total); won {
		g.touch()
		return append(events, winEvents...), nil
	}

	// Next round: the deal rotates and play returns to the discard phase.
	g.DealerIndex = (g.DealerIndex + 1) % len(g.Players)
	g.dealRound()
	g.Phase = PhaseDiscardingToCrib
	g.CurrentPlayerIndex = (g.DealerIndex + 1) % len(g.Players)
	events = append(events, fmt.Sprintf("New round! %s is the dealer.", g.Dealer().Name))
	g.touch()
	return events, nil
}

func handString(cards []deck.Card) string {
	s := ""
	for i, c := range cards {
		if i > 0 {
			s += " "
		}
		s += c.String()
	}
	return s
}
