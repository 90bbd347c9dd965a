package engine

import (
	"testing"

	"cribbage/internal/deck"
)

func card(rank deck.Rank, suit deck.Suit) deck.Card {
	return deck.Card{ID: string(rank) + "-" + string(suit), Rank: rank, Suit: suit}
}

func newStartedGame(t *testing.T) *Game {
	t.Helper()
	g, _, err := New("alice", 2, 121)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if _, err := g.AddPlayer("bob", false); err != nil {
		t.Fatalf("add player: %v", err)
	}
	if _, err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return g
}

// riggedPegging builds a 2-player game mid-pegging with fixed hands. Player 0
// deals, player 1 is up first.
func riggedPegging(t *testing.T, hand0, hand1 []deck.Card) *Game {
	t.Helper()
	g, _, err := New("alice", 2, 121)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if _, err := g.AddPlayer("bob", false); err != nil {
		t.Fatalf("add player: %v", err)
	}
	starter := card(deck.Nine, deck.Clubs)
	g.Starter = &starter
	g.Players[0].Hand = hand0
	g.Players[1].Hand = hand1
	for _, p := range g.Players {
		p.CountingHand = append([]deck.Card(nil), p.Hand...)
	}
	g.Phase = PhasePegging
	g.DealerIndex = 0
	g.CurrentPlayerIndex = 1
	g.Pegging = newPeggingState()
	return g
}

func TestNewGame(t *testing.T) {
	g, host, err := New("alice", 2, 0)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if g.Phase != PhaseWaitingForPlayers {
		t.Fatalf("phase = %s, want %s", g.Phase, PhaseWaitingForPlayers)
	}
	if g.WinningScore != DefaultWinningScore {
		t.Fatalf("winning score = %d, want default %d", g.WinningScore, DefaultWinningScore)
	}
	if g.Scores[host.ID] != 0 {
		t.Fatal("host score not initialized")
	}
	if g.ID == "" || g.ID != g.Name {
		t.Fatalf("game id %q should equal its name %q", g.ID, g.Name)
	}

	if _, _, err := New("alice", 3, 121); err != ErrInvalidPlayerCount {
		t.Fatalf("expected ErrInvalidPlayerCount, got %v", err)
	}
}

func TestAddPlayer(t *testing.T) {
	g, _, _ := New("alice", 2, 121)
	if _, err := g.AddPlayer("bob", false); err != nil {
		t.Fatalf("add player: %v", err)
	}
	if _, err := g.AddPlayer("carol", false); err != ErrGameFull {
		t.Fatalf("expected ErrGameFull, got %v", err)
	}
}

func TestAddPlayerAfterStart(t *testing.T) {
	g, _, _ := New("alice", 4, 121)
	g.AddPlayer("bob", false)
	g.Phase = PhaseDiscardingToCrib
	if _, err := g.AddPlayer("carol", false); err != ErrGameStarted {
		t.Fatalf("expected ErrGameStarted, got %v", err)
	}
}

func TestStart(t *testing.T) {
	g, _, _ := New("alice", 2, 121)
	if _, err := g.Start(); err != ErrNotEnoughPlayers {
		t.Fatalf("expected ErrNotEnoughPlayers, got %v", err)
	}
	g.AddPlayer("bob", false)
	if _, err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if g.Phase != PhaseDiscardingToCrib {
		t.Fatalf("phase = %s, want %s", g.Phase, PhaseDiscardingToCrib)
	}
	for _, p := range g.Players {
		if len(p.Hand) != 6 {
			t.Fatalf("%s has %d cards, want 6", p.Name, len(p.Hand))
		}
	}
	if len(g.Deck) != 40 {
		t.Fatalf("deck has %d cards, want 40", len(g.Deck))
	}
	if _, err := g.Start(); err != ErrGameStarted {
		t.Fatalf("expected ErrGameStarted on double start, got %v", err)
	}
}

func TestDiscardFlow(t *testing.T) {
	g := newStartedGame(t)
	alice, bob := g.Players[0], g.Players[1]

	// Wrong count rejected, game untouched.
	if _, err := g.Discard(alice.ID, []string{alice.Hand[0].ID}); err == nil {
		t.Fatal("expected wrong discard count error")
	}
	if len(alice.Hand) != 6 || len(g.Crib) != 0 {
		t.Fatal("rejected discard mutated the game")
	}

	// Duplicate card ids rejected.
	if _, err := g.Discard(alice.ID, []string{alice.Hand[0].ID, alice.Hand[0].ID}); err != ErrCardNotInHand {
		t.Fatalf("expected ErrCardNotInHand for duplicate ids, got %v", err)
	}

	if _, err := g.Discard(alice.ID, []string{alice.Hand[0].ID, alice.Hand[1].ID}); err != nil {
		t.Fatalf("alice discard: %v", err)
	}
	if len(alice.Hand) != 4 || len(g.Crib) != 2 {
		t.Fatalf("after alice: hand=%d crib=%d", len(alice.Hand), len(g.Crib))
	}
	if g.Phase != PhaseDiscardingToCrib {
		t.Fatal("phase advanced before all players discarded")
	}

	if _, err := g.Discard(bob.ID, []string{bob.Hand[0].ID, bob.Hand[1].ID}); err != nil {
		t.Fatalf("bob discard: %v", err)
	}

	if g.Phase != PhaseGameOver && g.Phase != PhasePegging {
		t.Fatalf("phase = %s, want PEGGING (or GAME_OVER on heels win)", g.Phase)
	}
	if g.Starter == nil {
		t.Fatal("no starter cut")
	}

	// Every one of the 52 cards is accounted for.
	total := len(g.Deck) + len(g.Crib) + 1
	for _, p := range g.Players {
		total += len(p.Hand)
	}
	if total != 52 {
		t.Fatalf("card conservation broken: %d cards accounted for", total)
	}

	// Counting hands snapshot the post-discard hands.
	for _, p := range g.Players {
		if len(p.CountingHand) != 4 {
			t.Fatalf("%s countingHand has %d cards, want 4", p.Name, len(p.CountingHand))
		}
	}

	if g.Phase == PhasePegging && g.CurrentPlayerIndex != (g.DealerIndex+1)%2 {
		t.Fatal("pegging should open left of the dealer")
	}
}

func TestDiscardWrongPhase(t *testing.T) {
	g, host, _ := New("alice", 2, 121)
	if _, err := g.Discard(host.ID, []string{"x", "y"}); err != ErrWrongPhase {
		t.Fatalf("expected ErrWrongPhase, got %v", err)
	}
}

func TestHeels(t *testing.T) {
	g, _, _ := New("alice", 2, 121)
	g.AddPlayer("bob", false)
	g.Phase = PhaseDiscardingToCrib
	g.Players[0].Hand = []deck.Card{card(deck.Two, deck.Hearts), card(deck.Four, deck.Spades), card(deck.Six, deck.Clubs), card(deck.Eight, deck.Diamonds)}
	g.Players[1].Hand = []deck.Card{card(deck.Three, deck.Hearts), card(deck.Seven, deck.Spades), card(deck.Nine, deck.Clubs), card(deck.King, deck.Diamonds)}
	g.Crib = []deck.Card{
		card(deck.Ace, deck.Hearts), card(deck.Ace, deck.Spades),
		card(deck.Two, deck.Clubs), card(deck.Two, deck.Diamonds),
	}
	// Only Jacks remain, so the cut must be a Jack.
	g.Deck = []deck.Card{card(deck.Jack, deck.Hearts), card(deck.Jack, deck.Spades)}

	events := g.beginPegging()
	if g.Starter.Rank != deck.Jack {
		t.Fatalf("starter = %s, want a Jack", g.Starter)
	}
	if g.Scores[g.Dealer().ID] != 2 {
		t.Fatalf("dealer score = %d, want 2 for heels", g.Scores[g.Dealer().ID])
	}
	if len(events) < 2 {
		t.Fatalf("expected starter and heels announcements, got %v", events)
	}
}

func TestPlayCard(t *testing.T) {
	g := riggedPegging(t,
		[]deck.Card{card(deck.Ten, deck.Hearts), card(deck.Four, deck.Hearts)},
		[]deck.Card{card(deck.Five, deck.Spades), card(deck.Six, deck.Spades)},
	)
	bob := g.Players[1]

	// Not alice's turn.
	if _, err := g.PlayCard(g.Players[0].ID, g.Players[0].Hand[0].ID); err != ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}

	if _, err := g.PlayCard(bob.ID, "5-spades"); err != nil {
		t.Fatalf("play: %v", err)
	}
	if g.Pegging.CurrentCount != 5 {
		t.Fatalf("count = %d, want 5", g.Pegging.CurrentCount)
	}
	if len(bob.Hand) != 1 {
		t.Fatalf("bob hand = %d cards, want 1", len(bob.Hand))
	}
	if _, ok := g.Pegging.PlayedCardIDs["5-spades"]; !ok {
		t.Fatal("played card not recorded in set")
	}
	if g.CurrentPlayer().ID != g.Players[0].ID {
		t.Fatal("turn did not advance")
	}

	// Alice makes 15: 5 + 10.
	if _, err := g.PlayCard(g.Players[0].ID, "10-hearts"); err != nil {
		t.Fatalf("play: %v", err)
	}
	if g.Scores[g.Players[0].ID] != 2 {
		t.Fatalf("score = %d, want 2 for fifteen", g.Scores[g.Players[0].ID])
	}
}

func TestPlayCardExceeds31(t *testing.T) {
	g := riggedPegging(t,
		[]deck.Card{card(deck.Ten, deck.Hearts)},
		[]deck.Card{card(deck.King, deck.Spades)},
	)
	g.Pegging.CurrentCount = 25
	if _, err := g.PlayCard(g.Players[1].ID, "K-spades"); err != ErrExceedsThirtyOne {
		t.Fatalf("expected ErrExceedsThirtyOne, got %v", err)
	}
	if g.Pegging.CurrentCount != 25 || len(g.Players[1].Hand) != 1 {
		t.Fatal("rejected play mutated the game")
	}
}

func TestThirtyOneResets(t *testing.T) {
	g := riggedPegging(t,
		[]deck.Card{card(deck.Ten, deck.Hearts), card(deck.Ace, deck.Hearts)},
		[]deck.Card{card(deck.Ace, deck.Spades), card(deck.Two, deck.Spades)},
	)
	bob := g.Players[1]
	g.Pegging.CurrentCount = 30
	g.Pegging.Pile = []deck.Card{card(deck.King, deck.Clubs), card(deck.Queen, deck.Clubs), card(deck.Ten, deck.Diamonds)}
	g.Pegging.LastPlayerID = g.Players[0].ID

	if _, err := g.PlayCard(bob.ID, "A-spades"); err != nil {
		t.Fatalf("play: %v", err)
	}
	if g.Scores[bob.ID] != 2 {
		t.Fatalf("score = %d, want 2 for thirty-one", g.Scores[bob.ID])
	}
	if g.Pegging.CurrentCount != 0 || len(g.Pegging.Pile) != 0 {
		t.Fatal("pile did not reset after 31")
	}
	if g.Phase != PhasePegging {
		t.Fatal("31 should not end the pegging phase while cards remain")
	}
}

func TestForcedGo(t *testing.T) {
	g := riggedPegging(t,
		[]deck.Card{card(deck.Two, deck.Hearts), card(deck.Five, deck.Hearts)},
		[]deck.Card{card(deck.King, deck.Spades)},
	)
	alice := g.Players[0]
	g.CurrentPlayerIndex = 0
	g.Pegging.CurrentCount = 28
	g.Pegging.Pile = []deck.Card{card(deck.Ten, deck.Clubs), card(deck.Nine, deck.Diamonds), card(deck.Nine, deck.Hearts)}
	g.Pegging.LastPlayerID = alice.ID

	// Alice plays to 30. Bob's King and Alice's five are both unplayable, so
	// both go automatically and Alice takes the go point.
	if _, err := g.PlayCard(alice.ID, "2-hearts"); err != nil {
		t.Fatalf("play: %v", err)
	}
	if g.Scores[alice.ID] != 1 {
		t.Fatalf("alice score = %d, want 1 for the go", g.Scores[alice.ID])
	}
	if g.Pegging.CurrentCount != 0 || len(g.Pegging.Pile) != 0 {
		t.Fatal("pile did not reset after the go")
	}
	if g.Pegging.ConsecutivePasses != 0 {
		t.Fatal("passes did not reset after the go")
	}
}

func TestPassRequiresNoPlayableCard(t *testing.T) {
	g := riggedPegging(t,
		[]deck.Card{card(deck.Ten, deck.Hearts)},
		[]deck.Card{card(deck.Ace, deck.Spades)},
	)
	if _, err := g.Pass(g.Players[1].ID); err != ErrMustPlayCard {
		t.Fatalf("expected ErrMustPlayCard, got %v", err)
	}
}

func TestPassAdvancesTurn(t *testing.T) {
	g := riggedPegging(t,
		[]deck.Card{card(deck.Ace, deck.Hearts)},
		[]deck.Card{card(deck.King, deck.Spades)},
	)
	g.Pegging.CurrentCount = 28
	g.Pegging.LastPlayerID = g.Players[0].ID

	if _, err := g.Pass(g.Players[1].ID); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if g.Pegging.ConsecutivePasses != 1 {
		t.Fatalf("passes = %d, want 1", g.Pegging.ConsecutivePasses)
	}
	if g.CurrentPlayer().ID != g.Players[0].ID {
		t.Fatal("turn did not advance on pass")
	}
}

func TestLastCard(t *testing.T) {
	g := riggedPegging(t,
		nil,
		[]deck.Card{card(deck.Seven, deck.Spades)},
	)
	bob := g.Players[1]
	g.Pegging.CurrentCount = 10
	g.Pegging.Pile = []deck.Card{card(deck.Ten, deck.Clubs)}

	if _, err := g.PlayCard(bob.ID, "7-spades"); err != nil {
		t.Fatalf("play: %v", err)
	}
	if g.Scores[bob.ID] != 1 {
		t.Fatalf("score = %d, want 1 for last card", g.Scores[bob.ID])
	}
	if g.Phase != PhaseCountingHands {
		t.Fatalf("phase = %s, want %s", g.Phase, PhaseCountingHands)
	}
	if g.CurrentPlayerIndex != (g.DealerIndex+1)%2 {
		t.Fatal("counting should start left of the dealer")
	}
}

func TestCountingFlow(t *testing.T) {
	g := riggedPegging(t, nil, nil)
	alice, bob := g.Players[0], g.Players[1]
	g.Phase = PhaseCountingHands
	g.CurrentPlayerIndex = 1 // left of dealer (alice deals)

	// Nobs plus two fifteens (J+5, 3+5+7): 5 points.
	bob.CountingHand = []deck.Card{
		card(deck.Jack, deck.Clubs), card(deck.Three, deck.Spades),
		card(deck.Five, deck.Diamonds), card(deck.Seven, deck.Hearts),
	}
	alice.CountingHand = []deck.Card{
		card(deck.Ace, deck.Hearts), card(deck.Three, deck.Hearts),
		card(deck.Seven, deck.Clubs), card(deck.King, deck.Diamonds),
	}
	g.Crib = []deck.Card{
		card(deck.Two, deck.Hearts), card(deck.Four, deck.Spades),
		card(deck.Six, deck.Clubs), card(deck.Eight, deck.Diamonds),
	}

	// Dealer may not count first.
	if _, err := g.ContinueCounting(alice.ID); err != ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}

	if _, err := g.ContinueCounting(bob.ID); err != nil {
		t.Fatalf("bob count: %v", err)
	}
	if g.Scores[bob.ID] != 5 {
		t.Fatalf("bob score = %d, want 5", g.Scores[bob.ID])
	}
	if g.Phase != PhaseCountingHands || g.CurrentPlayer().ID != alice.ID {
		t.Fatal("counting should move to the dealer's hand")
	}

	if _, err := g.ContinueCounting(alice.ID); err != nil {
		t.Fatalf("alice count: %v", err)
	}
	if g.Phase != PhaseCountingCrib {
		t.Fatalf("phase = %s, want %s", g.Phase, PhaseCountingCrib)
	}

	// Only the dealer counts the crib.
	if _, err := g.ContinueCounting(bob.ID); err != ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn for non-dealer crib, got %v", err)
	}

	if _, err := g.ContinueCounting(alice.ID); err != nil {
		t.Fatalf("crib count: %v", err)
	}

	// New round: dealer rotated to bob, fresh deal, back to discarding.
	if g.Phase != PhaseDiscardingToCrib {
		t.Fatalf("phase = %s, want %s", g.Phase, PhaseDiscardingToCrib)
	}
	if g.DealerIndex != 1 {
		t.Fatalf("dealer = %d, want 1", g.DealerIndex)
	}
	if len(g.Crib) != 0 || g.Starter != nil {
		t.Fatal("crib/starter not reset for the new round")
	}
	for _, p := range g.Players {
		if len(p.Hand) != 6 {
			t.Fatalf("%s has %d cards after redeal, want 6", p.Name, len(p.Hand))
		}
	}
}

func TestWinDuringHandCounting(t *testing.T) {
	g := riggedPegging(t, nil, nil)
	bob := g.Players[1]
	g.Phase = PhaseCountingHands
	g.CurrentPlayerIndex = 1
	g.Scores[bob.ID] = 120
	bob.CountingHand = []deck.Card{
		card(deck.Jack, deck.Clubs), card(deck.Three, deck.Spades),
		card(deck.Five, deck.Diamonds), card(deck.Seven, deck.Hearts),
	}

	if _, err := g.ContinueCounting(bob.ID); err != nil {
		t.Fatalf("count: %v", err)
	}
	if g.Phase != PhaseGameOver {
		t.Fatalf("phase = %s, want %s", g.Phase, PhaseGameOver)
	}
	w := g.Winner()
	if w == nil || w.ID != bob.ID {
		t.Fatal("bob should be the winner")
	}
}

func TestWinDuringPegging(t *testing.T) {
	g := riggedPegging(t,
		[]deck.Card{card(deck.Ten, deck.Hearts)},
		[]deck.Card{card(deck.Five, deck.Spades)},
	)
	bob := g.Players[1]
	g.Scores[bob.ID] = 120
	g.Pegging.CurrentCount = 10
	g.Pegging.Pile = []deck.Card{card(deck.King, deck.Clubs)}

	// 10 + 5 = 15: two points, crossing the line mid-pegging.
	if _, err := g.PlayCard(bob.ID, "5-spades"); err != nil {
		t.Fatalf("play: %v", err)
	}
	if g.Phase != PhaseGameOver {
		t.Fatalf("phase = %s, want %s", g.Phase, PhaseGameOver)
	}
}

func TestViewRedaction(t *testing.T) {
	g := riggedPegging(t,
		[]deck.Card{card(deck.Ten, deck.Hearts)},
		[]deck.Card{card(deck.Five, deck.Spades)},
	)
	alice, bob := g.Players[0], g.Players[1]

	view := g.View(alice.ID)
	if view.MyPlayerID != alice.ID {
		t.Fatal("wrong viewer id")
	}
	for _, pv := range view.Players {
		switch pv.ID {
		case alice.ID:
			if len(pv.Hand) != 1 {
				t.Fatal("viewer should see their own hand")
			}
		case bob.ID:
			if pv.Hand != nil {
				t.Fatal("viewer must not see another hand")
			}
			if pv.HandCount != 1 {
				t.Fatalf("hand count = %d, want 1", pv.HandCount)
			}
		}
		if pv.CountingHand != nil {
			t.Fatal("counting hands are hidden outside counting phases")
		}
	}
	if view.Crib != nil {
		t.Fatal("crib is hidden outside COUNTING_CRIB")
	}

	g.Phase = PhaseCountingCrib
	g.Crib = []deck.Card{card(deck.Two, deck.Hearts)}
	view = g.View(bob.ID)
	if len(view.Crib) != 1 {
		t.Fatal("crib should be visible during COUNTING_CRIB")
	}
	for _, pv := range view.Players {
		if pv.CountingHand == nil {
			t.Fatal("counting hands are public during the show")
		}
	}
}

func TestGameRoundTrip(t *testing.T) {
	g := riggedPegging(t,
		[]deck.Card{card(deck.Ten, deck.Hearts)},
		[]deck.Card{card(deck.Five, deck.Spades)},
	)
	g.Pegging.Pile = []deck.Card{card(deck.Four, deck.Clubs)}
	g.Pegging.CurrentCount = 4
	g.Pegging.PlayedCardIDs["4-clubs"] = struct{}{}
	g.Pegging.LastPlayerID = g.Players[0].ID
	g.Scores[g.Players[0].ID] = 7

	data, err := g.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if loaded.ID != g.ID || loaded.Phase != g.Phase {
		t.Fatal("identity fields did not round trip")
	}
	if len(loaded.Players) != 2 || loaded.Players[0].Name != "alice" {
		t.Fatal("players did not round trip")
	}
	if loaded.Scores[g.Players[0].ID] != 7 {
		t.Fatal("scores did not round trip")
	}
	if _, ok := loaded.Pegging.PlayedCardIDs["4-clubs"]; !ok {
		t.Fatal("played card set membership did not round trip")
	}
	if loaded.Pegging.CurrentCount != 4 || len(loaded.Pegging.Pile) != 1 {
		t.Fatal("pegging state did not round trip")
	}
	if loaded.Starter == nil || loaded.Starter.Rank != deck.Nine {
		t.Fatal("starter did not round trip")
	}
}
