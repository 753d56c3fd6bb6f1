package webd

import (
	"encoding/json"
	"log/slog"

	"github.com/olahol/melody"
	"github.com/rotblauer/gneiss/events"
)

type websocketAction string

const (
	websocketActionProgress websocketAction = "progress"
	websocketActionEnriched websocketAction = "enriched"
)

type broadcast struct {
	Action   websocketAction  `json:"action"`
	Progress *events.Progress `json:"progress,omitempty"`
	Ride     *events.Enriched `json:"ride,omitempty"`
}

// initMelody sets up the websocket handler and broadcasts enrichment events
// to every connected client.
func (s *WebDaemon) initMelody() {
	if s.melodyInstance != nil {
		return
	}
	s.melodyInstance = melody.New()

	s.melodyInstance.HandleConnect(func(m *melody.Session) {
		s.logger.Debug("Websocket connected", "remote", m.Request.RemoteAddr)
	})

	// Clients have nothing to tell us. Log and drop.
	s.melodyInstance.HandleMessage(func(m *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", m.Request.RemoteAddr, "message", string(msg))
	})

	s.melodyInstance.HandleDisconnect(func(m *melody.Session) {
		s.logger.Debug("Websocket disconnected", "remote", m.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(m *melody.Session, e error) {
		s.logger.Warn("Websocket error", "remote", m.Request.RemoteAddr, "error", e)
	})

	progress := make(chan events.Progress, 64)
	enriched := make(chan events.Enriched, 8)
	progressSub := events.EnrichProgressFeed.Subscribe(progress)
	enrichedSub := events.EnrichedFeed.Subscribe(enriched)
	quit := make(chan struct{})
	s.unsubscribe = func() {
		progressSub.Unsubscribe()
		enrichedSub.Unsubscribe()
		close(quit)
	}

	go func() {
		for {
			var bc broadcast
			select {
			case p := <-progress:
				bc = broadcast{Action: websocketActionProgress, Progress: &p}
			case e := <-enriched:
				bc = broadcast{Action: websocketActionEnriched, Ride: &e}
			case err := <-progressSub.Err():
				if err != nil {
					slog.Error("Progress feed subscription failed", "error", err)
				}
				return
			case <-quit:
				return
			}
			s.broadcast(bc)
		}
	}()
}

func (s *WebDaemon) broadcast(bc broadcast) {
	if s.melodyInstance.Len() == 0 {
		return
	}
	b, err := json.Marshal(bc)
	if err != nil {
		s.logger.Error("Failed to marshal broadcast", "action", bc.Action, "error", err)
		return
	}
	if err := s.melodyInstance.Broadcast(b); err != nil {
		s.logger.Warn("Failed to broadcast", "action", bc.Action, "error", err)
	}
}
