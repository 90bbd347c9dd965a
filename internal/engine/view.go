package engine

import (
	"sort"

	"cribbage/internal/deck"
)

// PlayerView is a seat as one viewer sees it: the viewer's own hand is
// visible, everyone else's only as a count. Counting hands become public
// during the show.
type PlayerView struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	IsBot        bool        `json:"isBot"`
	IsConnected  bool        `json:"isConnected"`
	HandCount    int         `json:"handCount"`
	Hand         []deck.Card `json:"hand,omitempty"`
	CountingHand []deck.Card `json:"countingHand,omitempty"`
	TeamID       int         `json:"teamId,omitempty"`
}

// PeggingView mirrors PeggingState with the played set as a sorted list.
type PeggingView struct {
	Pile              []deck.Card `json:"pile"`
	CurrentCount      int         `json:"currentCount"`
	PlayedCardIDs     []string    `json:"playedCardIds"`
	ConsecutivePasses int         `json:"consecutivePasses"`
	LastPlayerID      string      `json:"lastPlayerId"`
}

// GameView is the redacted projection sent to one player. The crib is shown
// only while it is being counted.
type GameView struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Players            []PlayerView   `json:"players"`
	CribCount          int            `json:"cribCount"`
	Crib               []deck.Card    `json:"crib,omitempty"`
	Starter            *deck.Card     `json:"starter"`
	CurrentPlayerIndex int            `json:"currentPlayerIndex"`
	DealerIndex        int            `json:"dealerIndex"`
	Phase              Phase          `json:"phase"`
	Pegging            PeggingView    `json:"peggingState"`
	Scores             map[string]int `json:"scores"`
	WinningScore       int            `json:"winningScore"`
	PlayerCount        int            `json:"playerCount"`
	MyPlayerID         string         `json:"myPlayerId"`
}

// View projects the game for one viewer. Pure: the game is never modified.
func (g *Game) View(viewerID string) GameView {
	counting := g.Phase == PhaseCountingHands || g.Phase == PhaseCountingCrib

	players := make([]PlayerView, len(g.Players))
	for i, p := range g.Players {
		pv := PlayerView{
			ID:          p.ID,
			Name:        p.Name,
			IsBot:       p.IsBot,
			IsConnected: p.IsConnected,
			HandCount:   len(p.Hand),
			TeamID:      p.TeamID,
		}
		if p.ID == viewerID {
			pv.Hand = p.Hand
		}
		if counting {
			pv.CountingHand = p.CountingHand
		}
		players[i] = pv
	}

	playedIDs := make([]string, 0, len(g.Pegging.PlayedCardIDs))
	for id := range g.Pegging.PlayedCardIDs {
		playedIDs = append(playedIDs, id)
	}
	sort.Strings(playedIDs)

	scores := make(map[string]int, len(g.Scores))
	for id, s := range g.Scores {
		scores[id] = s
	}

	view := GameView{
		ID:                 g.ID,
		Name:               g.Name,
		Players:            players,
		CribCount:          len(g.Crib),
		Starter:            g.Starter,
		CurrentPlayerIndex: g.CurrentPlayerIndex,
		DealerIndex:        g.DealerIndex,
		Phase:              g.Phase,
		Pegging: PeggingView{
			Pile:              g.Pegging.Pile,
			CurrentCount:      g.Pegging.CurrentCount,
			PlayedCardIDs:     playedIDs,
			ConsecutivePasses: g.Pegging.ConsecutivePasses,
			LastPlayerID:      g.Pegging.LastPlayerID,
		},
		Scores:       scores,
		WinningScore: g.WinningScore,
		PlayerCount:  g.PlayerCount,
		MyPlayerID:   viewerID,
	}
	if g.Phase == PhaseCountingCrib {
		view.Crib = g.Crib
	}
	return view
}
