package websocket

import (
	"encoding/json"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler serves "/ws": one chat session per connection.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, ChatClient, generateSessionID(), c.RealIP())
	session := newChatSession(s.svc, client)
	client.OnMessage(session.handle)

	s.hub.Register(client)
	defer s.hub.Unregister(client)

	client.Run()

	hello, _ := json.Marshal(Message{
		Type:      TypeSession,
		SessionID: client.SessionID(),
		Timestamp: time.Now().UTC(),
	})
	client.SendMessage(hello)

	<-client.Context().Done()
	return nil
}

// OperatorHandler serves "/ws/operator": a read-only feed of safety alerts.
func (s *Server) OperatorHandler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, OperatorClient, generateSessionID(), c.RealIP())
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	client.Run()

	<-client.Context().Done()
	return nil
}
