// Package scoring implements cribbage scoring: show scoring for hands and
// cribs (fifteens, pairs, runs, flush, nobs) and live scoring during the
// pegging phase.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"cribbage/internal/deck"
)

// Breakdown itemizes the points awarded for a hand or crib.
type Breakdown struct {
	Fifteens int      `json:"fifteens"`
	Pairs    int      `json:"pairs"`
	Runs     int      `json:"runs"`
	Flush    int      `json:"flush"`
	Nobs     int      `json:"nobs"`
	Total    int      `json:"total"`
	Details  []string `json:"details"`
}

// combinations returns every size-k subset of cards, preserving order.
func combinations(cards []deck.Card, size int) [][]deck.Card {
	if size == 0 {
		return [][]deck.Card{{}}
	}
	if len(cards) == 0 {
		return nil
	}

	first, rest := cards[0], cards[1:]
	var out [][]deck.Card
	for _, c := range combinations(rest, size-1) {
		combo := append([]deck.Card{first}, c...)
		out = append(out, combo)
	}
	return append(out, combinations(rest, size)...)
}

func rankList(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = string(c.Rank)
	}
	return strings.Join(parts, ", ")
}

// scoreFifteens awards 2 points for every card subset summing to 15.
func scoreFifteens(cards []deck.Card) (int, []string) {
	points := 0
	var details []string
	for size := 2; size <= len(cards); size++ {
		for _, combo := range combinations(cards, size) {
			sum := 0
			for _, c := range combo {
				sum += c.Value()
			}
			if sum == 15 {
				points += 2
				details = append(details, fmt.Sprintf("Fifteen for 2 (%s)", rankList(combo)))
			}
		}
	}
	return points, details
}

// scorePairs awards 2 points per pair of equal rank. Trips and quads fall out
// of counting every pair: 3 of a kind holds 3 pairs, 4 of a kind holds 6.
func scorePairs(cards []deck.Card) (int, []string) {
	points := 0
	var details []string
	for _, combo := range combinations(cards, 2) {
		if combo[0].Rank == combo[1].Rank {
			points += 2
			details = append(details, fmt.Sprintf("Pair of %ss for 2", combo[0].Rank))
		}
	}
	return points, details
}

// scoreRuns finds the longest run length (3+) and scores every distinct run
// of that length. Shorter runs inside a longer one never score.
func scoreRuns(cards []deck.Card) (int, []string) {
	var details []string
	for length := len(cards); length >= 3; length-- {
		found := 0
		for _, combo := range combinations(cards, length) {
			sorted := make([]deck.Card, len(combo))
			copy(sorted, combo)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order() < sorted[j].Order() })

			isRun := true
			for i := 1; i < len(sorted); i++ {
				if sorted[i].Order() != sorted[i-1].Order()+1 {
					isRun = false
					break
				}
			}
			if isRun {
				found++
				details = append(details, fmt.Sprintf("Run of %d (%s) for %d", length, rankList(sorted), length))
			}
		}
		if found > 0 {
			return found * length, details
		}
	}
	return 0, nil
}

// scoreFlush scores 4 held cards of one suit, 5 when the starter matches. A
// crib flush must include the starter, so a 4-card crib flush scores nothing.
func scoreFlush(hand []deck.Card, starter deck.Card, isCrib bool) (int, []string) {
	counts := make(map[deck.Suit]int)
	for _, c := range hand {
		counts[c.Suit]++
	}
	for suit, n := range counts {
		if n != 4 {
			continue
		}
		if starter.Suit == suit {
			return 5, []string{"Flush of 5 for 5"}
		}
		if !isCrib {
			return 4, []string{"Flush of 4 for 4"}
		}
	}
	return 0, nil
}

// scoreNobs awards 1 point for holding the Jack of the starter's suit.
func scoreNobs(hand []deck.Card, starter deck.Card) (int, []string) {
	for _, c := range hand {
		if c.Rank == deck.Jack && c.Suit == starter.Suit {
			return 1, []string{fmt.Sprintf("Nobs (Jack of %s) for 1", starter.Suit)}
		}
	}
	return 0, nil
}

func score(hand []deck.Card, starter deck.Card, isCrib bool) Breakdown {
	all := make([]deck.Card, 0, len(hand)+1)
	all = append(all, hand...)
	all = append(all, starter)

	fifteens, fifteenDetails := scoreFifteens(all)
	pairs, pairDetails := scorePairs(all)
	runs, runDetails := scoreRuns(all)
	flush, flushDetails := scoreFlush(hand, starter, isCrib)
	nobs, nobsDetails := scoreNobs(hand, starter)

	b := Breakdown{
		Fifteens: fifteens,
		Pairs:    pairs,
		Runs:     runs,
		Flush:    flush,
		Nobs:     nobs,
		Total:    fifteens + pairs + runs + flush + nobs,
	}
	b.Details = append(b.Details, fifteenDetails...)
	b.Details = append(b.Details, pairDetails...)
	b.Details = append(b.Details, runDetails...)
	b.Details = append(b.Details, flushDetails...)
	b.Details = append(b.Details, nobsDetails...)
	return b
}

// Hand scores a held hand against the starter.
func Hand(hand []deck.Card, starter deck.Card) Breakdown {
	return score(hand, starter, false)
}

// Crib scores the crib against the starter. Identical to Hand except for the
// stricter flush rule.
func Crib(crib []deck.Card, starter deck.Card) Breakdown {
	return score(crib, starter, true)
}

// Pegging scores a play given the pile since the last reset and the updated
// running count. Pairs count equal ranks contiguous from the end of the pile;
// runs use the longest play-order suffix whose ranks sort consecutive.
func Pegging(pile []deck.Card, currentCount int) int {
	if len(pile) == 0 {
		return 0
	}

	points := 0
	if currentCount == 15 {
		points += 2
	}
	if currentCount == 31 {
		points += 2
	}

	switch tailPairs(pile) {
	case 2:
		points += 2
	case 3:
		points += 6
	case 4:
		points += 12
	}

	// Longest suffix first; once a run is found, shorter suffixes are inside
	// it and must not score again.
	for length := len(pile); length >= 3; length-- {
		tail := pile[len(pile)-length:]
		orders := make([]int, length)
		for i, c := range tail {
			orders[i] = c.Order()
		}
		sort.Ints(orders)

		isRun := true
		for i := 1; i < len(orders); i++ {
			if orders[i] != orders[i-1]+1 {
				isRun = false
				break
			}
		}
		if isRun {
			points += length
			break
		}
	}

	return points
}

// tailPairs counts cards of equal rank contiguous from the end of the pile.
func tailPairs(pile []deck.Card) int {
	if len(pile) == 0 {
		return 0
	}
	last := pile[len(pile)-1]
	n := 1
	for i := len(pile) - 2; i >= 0; i-- {
		if pile[i].Rank != last.Rank {
			break
		}
		n++
	}
	return n
}

// DescribePegging renders a short description of the points a play earned,
// e.g. "fifteen for 2, pair for 2", for game announcements.
func DescribePegging(points, currentCount int, pile []deck.Card) string {
	if points == 0 {
		return ""
	}

	var parts []string
	fifteenPoints, thirtyOnePoints := 0, 0
	if currentCount == 15 {
		parts = append(parts, "fifteen for 2")
		fifteenPoints = 2
	}
	if currentCount == 31 {
		parts = append(parts, "thirty-one for 2")
		thirtyOnePoints = 2
	}

	pairPoints := 0
	switch tailPairs(pile) {
	case 2:
		parts = append(parts, "pair for 2")
		pairPoints = 2
	case 3:
		parts = append(parts, "three of a kind for 6")
		pairPoints = 6
	case 4:
		parts = append(parts, "four of a kind for 12")
		pairPoints = 12
	}

	if runPoints := points - pairPoints - fifteenPoints - thirtyOnePoints; runPoints >= 3 {
		parts = append(parts, fmt.Sprintf("run of %d for %d", runPoints, runPoints))
	}

	return strings.Join(parts, ", ")
}

// ExpectedHandValue averages the show score of hand over the given candidate
// starters. Used by the bot's discard heuristic.
func ExpectedHandValue(hand []deck.Card, starters []deck.Card) float64 {
	if len(starters) == 0 {
		return 0
	}
	total := 0
	for _, starter := range starters {
		total += Hand(hand, starter).Total
	}
	return float64(total) / float64(len(starters))
}
