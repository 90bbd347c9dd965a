// Package session orchestrates games: it applies one validated player action
// at a time to a stored game, persists the result, and fans out redacted
// per-viewer state. All mutation of a given game happens inside that game's
// critical section, so concurrent actions serialize instead of racing.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"cribbage/internal/bot"
	"cribbage/internal/engine"
	"cribbage/internal/storage"
)

// DefaultBotDelay paces bot turns so play stays legible to humans.
const DefaultBotDelay = 1200 * time.Millisecond

// announcerID marks chat lines produced by the game itself.
const announcerID = "game"

// Conn is one websocket connection as the orchestrator sees it. GameID and
// PlayerID are the seat binding, set by create/join/rejoin and read only from
// the connection's own read loop.
type Conn struct {
	Send     chan []byte
	GameID   string
	PlayerID string
}

// NewConn returns an unbound connection with a buffered send channel.
func NewConn() *Conn {
	return &Conn{Send: make(chan []byte, 64)}
}

// Manager owns the per-game locks, the connection registry, and bot
// scheduling. Game state itself lives in the store; the manager holds only
// transient coordination state.
type Manager struct {
	store    *storage.Store
	log      zerolog.Logger
	botDelay time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	conns map[string]map[string]*Conn // gameID -> playerID -> conn
	bots  map[string]map[string]bot.Strategy
}

// NewManager creates a manager backed by the given store.
func NewManager(store *storage.Store, log zerolog.Logger, botDelay time.Duration) *Manager {
	if botDelay <= 0 {
		botDelay = DefaultBotDelay
	}
	return &Manager{
		store:    store,
		log:      log,
		botDelay: botDelay,
		locks:    make(map[string]*sync.Mutex),
		conns:    make(map[string]map[string]*Conn),
		bots:     make(map[string]map[string]bot.Strategy),
	}
}

// gameLock returns the mutex serializing one game, creating it on first use.
func (m *Manager) gameLock(gameID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[gameID] = l
	}
	return l
}

// CreateGame seats the sender as host of a new game. With AddBot set a
// heuristic bot takes the next seat, and a table filled that way starts
// immediately.
func (m *Manager) CreateGame(ctx context.Context, c *Conn, req CreateGamePayload) error {
	g, host, err := engine.New(req.PlayerName, req.PlayerCount, req.WinningScore)
	if err != nil {
		return err
	}
	if req.AddBot {
		botPlayer, err := g.AddPlayer(bot.NameForSeat(1), true)
		if err != nil {
			return err
		}
		m.registerBot(g.ID, botPlayer.ID)
	}

	lock := m.gameLock(g.ID)
	lock.Lock()
	defer lock.Unlock()

	m.bind(c, g.ID, host.ID)
	if err := m.store.SaveGame(ctx, g); err != nil {
		return err
	}
	if err := m.store.TrackHumanPlayer(ctx, host.Name); err != nil {
		m.log.Warn().Err(err).Msg("track player")
	}

	m.send(c, TypeGameCreated, SeatPayload{GameID: g.ID, PlayerID: host.ID})
	m.broadcastState(g)

	if g.Full() {
		return m.startLocked(ctx, g)
	}
	return nil
}

// JoinGame seats the sender in an existing waiting game.
func (m *Manager) JoinGame(ctx context.Context, c *Conn, req JoinGamePayload) error {
	lock := m.gameLock(req.GameID)
	lock.Lock()
	defer lock.Unlock()

	g, err := m.store.LoadGame(ctx, req.GameID)
	if err != nil {
		return err
	}
	p, err := g.AddPlayer(req.PlayerName, false)
	if err != nil {
		return err
	}

	m.bind(c, g.ID, p.ID)
	if err := m.store.SaveGame(ctx, g); err != nil {
		return err
	}
	if err := m.store.TrackHumanPlayer(ctx, p.Name); err != nil {
		m.log.Warn().Err(err).Msg("track player")
	}

	m.send(c, TypeGameJoined, SeatPayload{GameID: g.ID, PlayerID: p.ID})
	m.announce(g, fmt.Sprintf("%s joined the game", p.Name))
	m.broadcastState(g)
	return nil
}

// RejoinGame re-binds a new connection to a seat the player already holds.
// Game state is untouched beyond the connected flag.
func (m *Manager) RejoinGame(ctx context.Context, c *Conn, req RejoinGamePayload) error {
	lock := m.gameLock(req.GameID)
	lock.Lock()
	defer lock.Unlock()

	g, err := m.store.LoadGame(ctx, req.GameID)
	if err != nil {
		return err
	}
	p, err := g.Player(req.PlayerID)
	if err != nil {
		return err
	}
	p.IsConnected = true

	m.bind(c, g.ID, p.ID)
	if err := m.store.SaveGame(ctx, g); err != nil {
		return err
	}

	m.send(c, TypeGameJoined, SeatPayload{GameID: g.ID, PlayerID: p.ID})
	m.broadcast(g.ID, TypePlayerReconnected, PresencePayload{PlayerID: p.ID, PlayerName: p.Name})
	m.broadcastState(g)
	return nil
}

// AddBot seats a heuristic bot. Filling the table starts the game.
func (m *Manager) AddBot(ctx context.Context, c *Conn) error {
	if c.GameID == "" {
		return engine.ErrGameNotFound
	}
	lock := m.gameLock(c.GameID)
	lock.Lock()
	defer lock.Unlock()

	g, err := m.store.LoadGame(ctx, c.GameID)
	if err != nil {
		return err
	}
	botPlayer, err := g.AddPlayer(bot.NameForSeat(len(g.Players)), true)
	if err != nil {
		return err
	}
	m.registerBot(g.ID, botPlayer.ID)

	if err := m.store.SaveGame(ctx, g); err != nil {
		return err
	}
	m.announce(g, fmt.Sprintf("%s joined the game", botPlayer.Name))
	m.broadcastState(g)

	if g.Full() {
		return m.startLocked(ctx, g)
	}
	return nil
}

// StartGame deals the first round. Any seated player may start.
func (m *Manager) StartGame(ctx context.Context, c *Conn) error {
	if c.GameID == "" {
		return engine.ErrGameNotFound
	}
	lock := m.gameLock(c.GameID)
	lock.Lock()
	defer lock.Unlock()

	g, err := m.store.LoadGame(ctx, c.GameID)
	if err != nil {
		return err
	}
	if _, err := g.Player(c.PlayerID); err != nil {
		return err
	}
	return m.startLocked(ctx, g)
}

// startLocked starts the game and persists it. Caller holds the game lock.
func (m *Manager) startLocked(ctx context.Context, g *engine.Game) error {
	events, err := g.Start()
	if err != nil {
		return err
	}
	if err := m.store.SaveGame(ctx, g); err != nil {
		return err
	}
	if err := m.store.TrackGameStarted(ctx, g); err != nil {
		m.log.Warn().Err(err).Str("game", g.ID).Msg("track game start")
	}
	m.announceAll(g, events)
	m.broadcastState(g)
	m.scheduleBots(g.ID)
	return nil
}

// Discard sends the named cards to the crib.
func (m *Manager) Discard(ctx context.Context, c *Conn, req DiscardPayload) error {
	return m.act(ctx, c, func(g *engine.Game) ([]string, error) {
		return g.Discard(c.PlayerID, req.CardIDs)
	})
}

// PlayCard lays one card on the pegging pile.
func (m *Manager) PlayCard(ctx context.Context, c *Conn, req PlayCardPayload) error {
	return m.act(ctx, c, func(g *engine.Game) ([]string, error) {
		return g.PlayCard(c.PlayerID, req.CardID)
	})
}

// Pass records a go for the sender.
func (m *Manager) Pass(ctx context.Context, c *Conn) error {
	return m.act(ctx, c, func(g *engine.Game) ([]string, error) {
		return g.Pass(c.PlayerID)
	})
}

// Continue advances the show by one hand, or counts the crib.
func (m *Manager) Continue(ctx context.Context, c *Conn) error {
	return m.act(ctx, c, func(g *engine.Game) ([]string, error) {
		return g.ContinueCounting(c.PlayerID)
	})
}

// act runs one engine action inside the game's critical section:
// load, mutate, save, broadcast, then schedule the bots.
func (m *Manager) act(ctx context.Context, c *Conn, fn func(g *engine.Game) ([]string, error)) error {
	if c.GameID == "" {
		return engine.ErrGameNotFound
	}
	lock := m.gameLock(c.GameID)
	lock.Lock()
	defer lock.Unlock()

	g, err := m.store.LoadGame(ctx, c.GameID)
	if err != nil {
		return err
	}
	events, err := fn(g)
	if err != nil {
		return err
	}
	if err := m.store.SaveGame(ctx, g); err != nil {
		return err
	}

	m.announceAll(g, events)
	m.broadcastState(g)
	m.noteGameOver(ctx, g)
	m.scheduleBots(g.ID)
	return nil
}

// SendChat relays a chat line to everyone in the sender's game. Chat never
// touches the game record.
func (m *Manager) SendChat(ctx context.Context, c *Conn, req SendChatPayload) error {
	g, err := m.boundGame(ctx, c)
	if err != nil {
		return err
	}
	p, err := g.Player(c.PlayerID)
	if err != nil {
		return err
	}
	m.chat(g.ID, p.ID, p.Name, req.Text)
	return nil
}

// Disconnect drops the connection's seat binding and marks the player
// disconnected. When the last connected human leaves, the game and its
// coordination state are deleted.
func (m *Manager) Disconnect(ctx context.Context, c *Conn) {
	if c.GameID == "" {
		return
	}
	gameID, playerID := c.GameID, c.PlayerID
	c.GameID, c.PlayerID = "", ""

	lock := m.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	if players, ok := m.conns[gameID]; ok {
		delete(players, playerID)
	}
	m.mu.Unlock()

	g, err := m.store.LoadGame(ctx, gameID)
	if err != nil {
		m.release(gameID)
		return
	}
	p, err := g.Player(playerID)
	if err != nil {
		return
	}
	p.IsConnected = false

	if g.ConnectedHumans() == 0 {
		if err := m.store.DeleteGame(ctx, gameID); err != nil {
			m.log.Warn().Err(err).Str("game", gameID).Msg("delete abandoned game")
		}
		m.release(gameID)
		m.log.Info().Str("game", gameID).Msg("game abandoned")
		return
	}

	if err := m.store.SaveGame(ctx, g); err != nil {
		m.log.Warn().Err(err).Str("game", gameID).Msg("save on disconnect")
		return
	}
	m.broadcast(gameID, TypePlayerDisconnected, PresencePayload{PlayerID: p.ID, PlayerName: p.Name})
	m.broadcastState(g)
}

// boundGame loads the game the connection is bound to.
func (m *Manager) boundGame(ctx context.Context, c *Conn) (*engine.Game, error) {
	if c.GameID == "" {
		return nil, engine.ErrGameNotFound
	}
	return m.store.LoadGame(ctx, c.GameID)
}

// bind registers the connection under its seat.
func (m *Manager) bind(c *Conn, gameID, playerID string) {
	c.GameID, c.PlayerID = gameID, playerID
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conns[gameID] == nil {
		m.conns[gameID] = make(map[string]*Conn)
	}
	m.conns[gameID][playerID] = c
}

// release drops all coordination state for a game.
func (m *Manager) release(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, gameID)
	delete(m.bots, gameID)
	delete(m.locks, gameID)
}

func (m *Manager) registerBot(gameID, playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bots[gameID] == nil {
		m.bots[gameID] = make(map[string]bot.Strategy)
	}
	m.bots[gameID][playerID] = bot.Heuristic{}
}

// strategyFor returns the bot's strategy, registering the default for bots
// seen again after a restart.
func (m *Manager) strategyFor(gameID, playerID string) bot.Strategy {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.bots[gameID][playerID]; ok {
		return s
	}
	if m.bots[gameID] == nil {
		m.bots[gameID] = make(map[string]bot.Strategy)
	}
	s := bot.Heuristic{}
	m.bots[gameID][playerID] = s
	return s
}

// scheduleBots queues one bot evaluation after the pacing delay.
func (m *Manager) scheduleBots(gameID string) {
	time.AfterFunc(m.botDelay, func() {
		m.runBots(context.Background(), gameID)
	})
}

// runBots applies at most one bot action under the game lock, then
// reschedules if more bot actions are pending. One action per tick keeps the
// pacing human-legible.
func (m *Manager) runBots(ctx context.Context, gameID string) {
	lock := m.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, err := m.store.LoadGame(ctx, gameID)
	if err != nil {
		if !errors.Is(err, engine.ErrGameNotFound) {
			m.log.Warn().Err(err).Str("game", gameID).Msg("load game for bot turn")
		}
		return
	}

	botPlayer, apply := m.pendingBotAction(g)
	if botPlayer == nil {
		return
	}
	events, err := apply()
	if err != nil {
		m.log.Warn().Err(err).Str("game", gameID).Str("bot", botPlayer.Name).Msg("bot action rejected")
		return
	}
	if err := m.store.SaveGame(ctx, g); err != nil {
		m.log.Warn().Err(err).Str("game", gameID).Msg("save after bot turn")
		return
	}

	m.announceAll(g, events)
	m.broadcastState(g)
	m.noteGameOver(ctx, g)

	if p, _ := m.pendingBotAction(g); p != nil {
		m.scheduleBots(gameID)
	}
}

// pendingBotAction finds one bot with an action due: an outstanding discard,
// or the pegging turn. Bots never drive the counting phases.
func (m *Manager) pendingBotAction(g *engine.Game) (*engine.Player, func() ([]string, error)) {
	switch g.Phase {
	case engine.PhaseDiscardingToCrib:
		keep := engine.CardsPerPlayer[g.PlayerCount] - engine.DiscardsPerPlayer[g.PlayerCount]
		for _, p := range g.Players {
			if !p.IsBot || len(p.Hand) <= keep {
				continue
			}
			p := p
			strategy := m.strategyFor(g.ID, p.ID)
			return p, func() ([]string, error) {
				return g.Discard(p.ID, strategy.SelectDiscards(g, p))
			}
		}
	case engine.PhasePegging:
		p := g.CurrentPlayer()
		if !p.IsBot {
			return nil, nil
		}
		strategy := m.strategyFor(g.ID, p.ID)
		return p, func() ([]string, error) {
			cardID, pass := strategy.SelectPlay(g, p)
			if pass {
				return g.Pass(p.ID)
			}
			return g.PlayCard(p.ID, cardID)
		}
	}
	return nil, nil
}

// noteGameOver records the finished game in the metrics store.
func (m *Manager) noteGameOver(ctx context.Context, g *engine.Game) {
	winner := g.Winner()
	if winner == nil {
		return
	}
	if err := m.store.TrackGameEnded(ctx, g.ID, winner.Name); err != nil {
		m.log.Warn().Err(err).Str("game", g.ID).Msg("track game end")
	}
}

// send delivers one message to one connection, dropping it if the buffer is
// full.
func (m *Manager) send(c *Conn, msgType string, payload any) {
	data, err := Encode(msgType, payload)
	if err != nil {
		m.log.Error().Err(err).Str("type", msgType).Msg("encode message")
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// broadcast sends the same message to every connection in a game.
func (m *Manager) broadcast(gameID, msgType string, payload any) {
	for _, c := range m.gameConns(gameID) {
		m.send(c, msgType, payload)
	}
}

// broadcastState sends each connected player their own redacted view.
func (m *Manager) broadcastState(g *engine.Game) {
	for playerID, c := range m.gameConns(g.ID) {
		m.send(c, TypeGameState, g.View(playerID))
	}
}

// announce broadcasts one line from the game announcer.
func (m *Manager) announce(g *engine.Game, text string) {
	m.chat(g.ID, announcerID, "Game", text)
}

func (m *Manager) announceAll(g *engine.Game, events []string) {
	for _, e := range events {
		m.announce(g, e)
	}
}

// chat broadcasts one chat line with a fresh message id.
func (m *Manager) chat(gameID, playerID, playerName, text string) {
	id, err := gonanoid.New()
	if err != nil {
		id = fmt.Sprintf("msg-%d", time.Now().UnixNano())
	}
	m.broadcast(gameID, TypeChatMessage, ChatMessage{
		ID:         id,
		PlayerID:   playerID,
		PlayerName: playerName,
		Text:       text,
		Timestamp:  time.Now().UnixMilli(),
	})
}

// gameConns snapshots the connections for a game.
func (m *Manager) gameConns(gameID string) map[string]*Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*Conn, len(m.conns[gameID]))
	for id, c := range m.conns[gameID] {
		out[id] = c
	}
	return out
}
