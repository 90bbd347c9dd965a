package server

import (
	"context"
	"encoding/json"
	"net/http"

	"nhooyr.io/websocket"

	"cribbage/internal/session"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer wsConn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	c := session.NewConn()

	// Writer goroutine: drain the orchestrator's send channel to the socket.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case data := <-c.Send:
				if err := wsConn.Write(ctx, websocket.MessageText, data); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		_, data, err := wsConn.Read(ctx)
		if err != nil {
			break
		}
		var msg session.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(c, "invalid message")
			continue
		}
		s.handleMessage(ctx, c, msg)
	}

	cancel()
	// The request context is gone once the read loop exits.
	s.manager.Disconnect(context.Background(), c)
	<-writerDone
}

// handleMessage dispatches one envelope. Action errors go back to the sender
// only; state fan-out happens inside the orchestrator.
func (s *Server) handleMessage(ctx context.Context, c *session.Conn, msg session.Message) {
	var err error
	switch msg.Type {
	case session.TypeCreateGame:
		var req session.CreateGamePayload
		if err = json.Unmarshal(msg.Payload, &req); err == nil {
			err = s.manager.CreateGame(ctx, c, req)
		}
	case session.TypeJoinGame:
		var req session.JoinGamePayload
		if err = json.Unmarshal(msg.Payload, &req); err == nil {
			err = s.manager.JoinGame(ctx, c, req)
		}
	case session.TypeRejoinGame:
		var req session.RejoinGamePayload
		if err = json.Unmarshal(msg.Payload, &req); err == nil {
			err = s.manager.RejoinGame(ctx, c, req)
		}
	case session.TypeStartGame:
		err = s.manager.StartGame(ctx, c)
	case session.TypeAddBot:
		err = s.manager.AddBot(ctx, c)
	case session.TypeDiscard:
		var req session.DiscardPayload
		if err = json.Unmarshal(msg.Payload, &req); err == nil {
			err = s.manager.Discard(ctx, c, req)
		}
	case session.TypePlayCard:
		var req session.PlayCardPayload
		if err = json.Unmarshal(msg.Payload, &req); err == nil {
			err = s.manager.PlayCard(ctx, c, req)
		}
	case session.TypePass:
		err = s.manager.Pass(ctx, c)
	case session.TypeContinue:
		err = s.manager.Continue(ctx, c)
	case session.TypeSendChat:
		var req session.SendChatPayload
		if err = json.Unmarshal(msg.Payload, &req); err == nil {
			err = s.manager.SendChat(ctx, c, req)
		}
	default:
		s.sendError(c, "unknown message type: "+msg.Type)
		return
	}
	if err != nil {
		s.sendError(c, err.Error())
	}
}

func (s *Server) sendError(c *session.Conn, message string) {
	data, err := session.Encode(session.TypeError, session.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}
