package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service is the broadcast gateway: it owns the WebSocket connections,
// delivers inbound events to the session core, and fans the core's
// notifications back out.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	dispatcher        *Dispatcher
}

// NewService creates a gateway service around an existing connection
// manager. The manager is built first so the session core can be handed its
// Broadcaster before the sink exists.
func NewService(cm *ConnectionManager, sink EventSink) *Service {
	dispatcher := NewDispatcher(sink, cm)
	cm.SetHandler(dispatcher)

	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
		dispatcher:        dispatcher,
	}
}

// Start runs the broadcast loop until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting session gateway service")
	s.connectionManager.Start(ctx)
	log.Info().Msg("session gateway service stopped")
}

// RegisterRoutes registers the WebSocket HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("session gateway routes registered")
}
