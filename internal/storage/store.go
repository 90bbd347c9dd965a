// Package storage persists game records and play metrics in redis. Games are
// keyed JSON blobs with a TTL so abandoned tables expire on their own;
// metrics live in sorted sets trimmed to a 24-hour window.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"cribbage/internal/engine"
)

const (
	// DefaultGameTTL keeps an idle game alive for two hours.
	DefaultGameTTL = 2 * time.Hour

	metricsTTL     = 24 * time.Hour
	metricsWindow  = 24 * time.Hour
	recentGamesMax = 20

	gameKeyPrefix     = "game:"
	metricsGamePrefix = "metrics:game:"
	gamesStartedKey   = "metrics:games_started"
	humanPlayersKey   = "metrics:human_players"
)

// Store wraps the redis client with the game and metrics schema.
type Store struct {
	rdb     *redis.Client
	gameTTL time.Duration
}

// New connects to redis and verifies the connection.
func New(addr string, gameTTL time.Duration) (*Store, error) {
	if gameTTL <= 0 {
		gameTTL = DefaultGameTTL
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &Store{rdb: rdb, gameTTL: gameTTL}, nil
}

// Close releases the redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// SaveGame writes the game record, refreshing its TTL.
func (s *Store) SaveGame(ctx context.Context, g *engine.Game) error {
	data, err := g.Marshal()
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", g.ID, err)
	}
	return s.rdb.Set(ctx, gameKeyPrefix+g.ID, data, s.gameTTL).Err()
}

// LoadGame reads a game record. Returns engine.ErrGameNotFound for unknown or
// expired ids.
func (s *Store) LoadGame(ctx context.Context, id string) (*engine.Game, error) {
	data, err := s.rdb.Get(ctx, gameKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, engine.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return engine.Unmarshal(data)
}

// DeleteGame removes a game record.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, gameKeyPrefix+id).Err()
}

// GameSummary is one entry in the recent-games metrics list.
type GameSummary struct {
	Name      string   `json:"name"`
	Players   []string `json:"players"`
	StartTime string   `json:"startTime"`
	EndTime   *string  `json:"endTime,omitempty"`
	Winner    *string  `json:"winner,omitempty"`
}

// Metrics is the activity report served by the metrics endpoint.
type Metrics struct {
	GamesStarted24h int64         `json:"gamesStarted24h"`
	HumanPlayers24h int64         `json:"humanPlayers24h"`
	RecentGames     []GameSummary `json:"recentGames"`
}

// TrackHumanPlayer records a human player name in the 24-hour window.
func (s *Store) TrackHumanPlayer(ctx context.Context, name string) error {
	now := time.Now().UnixMilli()
	if err := s.rdb.ZAdd(ctx, humanPlayersKey, redis.Z{Score: float64(now), Member: name}).Err(); err != nil {
		return err
	}
	return s.trimWindow(ctx, humanPlayersKey, now)
}

// TrackGameStarted records a game start and writes its summary record.
func (s *Store) TrackGameStarted(ctx context.Context, g *engine.Game) error {
	now := time.Now()
	if err := s.rdb.ZAdd(ctx, gamesStartedKey, redis.Z{Score: float64(now.UnixMilli()), Member: g.ID}).Err(); err != nil {
		return err
	}
	if err := s.trimWindow(ctx, gamesStartedKey, now.UnixMilli()); err != nil {
		return err
	}

	names := make([]string, len(g.Players))
	for i, p := range g.Players {
		names[i] = p.Name
	}
	summary := GameSummary{
		Name:      g.Name,
		Players:   names,
		StartTime: now.UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, metricsGamePrefix+g.ID, data, metricsTTL).Err()
}

// TrackGameEnded fills in the end time and winner on a game's summary. A
// summary that already expired is left alone.
func (s *Store) TrackGameEnded(ctx context.Context, gameID, winnerName string) error {
	key := metricsGamePrefix + gameID
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	var summary GameSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return err
	}
	end := time.Now().UTC().Format(time.RFC3339)
	summary.EndTime = &end
	summary.Winner = &winnerName

	updated, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, updated, metricsTTL).Err()
}

// Metrics reports 24-hour activity counts and recent game summaries.
func (s *Store) Metrics(ctx context.Context) (Metrics, error) {
	var m Metrics
	cutoff := strconv.FormatInt(time.Now().Add(-metricsWindow).UnixMilli(), 10)

	started, err := s.rdb.ZCount(ctx, gamesStartedKey, cutoff, "+inf").Result()
	if err != nil {
		return m, fmt.Errorf("count games started: %w", err)
	}
	players, err := s.rdb.ZCount(ctx, humanPlayersKey, cutoff, "+inf").Result()
	if err != nil {
		return m, fmt.Errorf("count players: %w", err)
	}
	m.GamesStarted24h = started
	m.HumanPlayers24h = players

	recentIDs, err := s.rdb.ZRevRange(ctx, gamesStartedKey, 0, recentGamesMax-1).Result()
	if err != nil {
		return m, fmt.Errorf("list recent games: %w", err)
	}
	m.RecentGames = make([]GameSummary, 0, len(recentIDs))
	for _, id := range recentIDs {
		data, err := s.rdb.Get(ctx, metricsGamePrefix+id).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return m, err
		}
		var summary GameSummary
		if err := json.Unmarshal(data, &summary); err != nil {
			continue
		}
		m.RecentGames = append(m.RecentGames, summary)
	}
	return m, nil
}

// trimWindow drops sorted-set entries older than the metrics window.
func (s *Store) trimWindow(ctx context.Context, key string, now int64) error {
	cutoff := now - metricsWindow.Milliseconds()
	return s.rdb.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)).Err()
}
