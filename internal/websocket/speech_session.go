package websocket

import (
	"encoding/json"
	"log"
	"time"

	"prepxl-be/internal/dto"
	"prepxl-be/internal/speech"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// SpeechSession bridges one websocket connection to the session's speech
// relay. The browser runs the recognition engine and streams transcript
// chunks and capture errors here; the relay delivers them to the
// orchestrator.
type SpeechSession struct {
	Conn      *websocket.Conn
	Relay     *speech.Relay
	UserID    uuid.UUID
	SessionID uuid.UUID

	done chan struct{}
}

// readPump pumps recognition messages from the connection into the relay.
func (s *SpeechSession) readPump() {
	defer func() {
		close(s.done)
		s.Conn.Close()
	}()
	s.Conn.SetReadLimit(maxMessageSize)
	s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("speech ws error for session %s: %v", s.SessionID, err)
			}
			break
		}

		var msg dto.SpeechMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("speech ws: dropping malformed message for session %s: %v", s.SessionID, err)
			continue
		}

		switch msg.Type {
		case "transcript":
			s.Relay.Push(speech.Event{Text: msg.Text, IsFinal: msg.IsFinal})
		case "error":
			s.Relay.Fail(speech.ErrorKind(msg.Kind))
		}
	}
}

// writePump keeps the connection alive with pings until the reader exits.
func (s *SpeechSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeSpeech runs the session until the connection closes.
func ServeSpeech(c *websocket.Conn, relay *speech.Relay, userID, sessionID uuid.UUID) {
	s := &SpeechSession{
		Conn:      c,
		Relay:     relay,
		UserID:    userID,
		SessionID: sessionID,
		done:      make(chan struct{}),
	}

	go s.writePump()
	s.readPump() // run in the handler goroutine
}
