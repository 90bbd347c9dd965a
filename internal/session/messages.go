package session

import "encoding/json"

// Message is the wire envelope in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound message types.
const (
	TypeCreateGame = "create_game"
	TypeJoinGame   = "join_game"
	TypeRejoinGame = "rejoin_game"
	TypeStartGame  = "start_game"
	TypeAddBot     = "add_bot"
	TypeDiscard    = "discard"
	TypePlayCard   = "play_card"
	TypePass       = "pass"
	TypeContinue   = "continue"
	TypeSendChat   = "send_chat"
)

// Outbound message types.
const (
	TypeGameCreated        = "game_created"
	TypeGameJoined         = "game_joined"
	TypeGameState          = "game_state"
	TypeChatMessage        = "chat_message"
	TypePlayerDisconnected = "player_disconnected"
	TypePlayerReconnected  = "player_reconnected"
	TypeError              = "error"
)

// CreateGamePayload requests a new game with the sender as host. AddBot seats
// a heuristic bot alongside the host.
type CreateGamePayload struct {
	PlayerName   string `json:"playerName"`
	PlayerCount  int    `json:"playerCount"`
	WinningScore int    `json:"winningScore"`
	AddBot       bool   `json:"addBot"`
}

// JoinGamePayload seats the sender in an existing game.
type JoinGamePayload struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

// RejoinGamePayload re-binds a connection to a seat the sender already holds.
type RejoinGamePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

// DiscardPayload names the cards to send to the crib.
type DiscardPayload struct {
	CardIDs []string `json:"cardIds"`
}

// PlayCardPayload names the card to lay on the pile.
type PlayCardPayload struct {
	CardID string `json:"cardId"`
}

// SendChatPayload carries a chat line from the sender.
type SendChatPayload struct {
	Text string `json:"text"`
}

// SeatPayload tells a connection which seat it now holds.
type SeatPayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

// ChatMessage is one chat line, either from a player or from the game
// announcer.
type ChatMessage struct {
	ID         string `json:"id"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
}

// PresencePayload announces a player disconnecting or reconnecting.
type PresencePayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// ErrorPayload reports a rejected action to its sender.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode wraps a payload in the envelope and marshals it.
func Encode(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return json.Marshal(Message{Type: msgType, Payload: raw})
}
