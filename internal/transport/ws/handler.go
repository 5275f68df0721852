package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"fakeartist/internal/app"
	"fakeartist/internal/domain"
)

// Engine is the part of the session engine a connection drives
type Engine interface {
	Attach(ctx context.Context, cc domain.ClientContext, client app.ClientConnection) (*domain.PlayerView, error)
	Detach(cc domain.ClientContext, client app.ClientConnection)
	PlayerView(ctx context.Context, cc domain.ClientContext) (*domain.PlayerView, error)
	StartRound(ctx context.Context, sessionID string, params app.StartParams) (*domain.Session, error)
	PauseTimer(ctx context.Context, sessionID string) (*domain.Session, error)
	ResumeTimer(ctx context.Context, sessionID string) (*domain.Session, error)
	PauseOrResumeTimer(ctx context.Context, sessionID string) (*domain.Session, error)
	EndRound(ctx context.Context, sessionID string) (*domain.Session, error)
	LeaveSession(ctx context.Context, cc domain.ClientContext) error
	ReportSelection(ctx context.Context, cc domain.ClientContext, kind domain.ReportKind) error
}

// Handler handles WebSocket connections
type Handler struct {
	engine   Engine
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(engine Engine, logger *slog.Logger) *Handler {
	return &Handler{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Participants join from shared invite links on any host
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests. The participant must
// already have joined over HTTP; the socket only carries their session.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cc := domain.ClientContext{
		SessionID:     r.URL.Query().Get("sessionId"),
		ParticipantID: r.URL.Query().Get("participantId"),
	}
	if cc.SessionID == "" || cc.ParticipantID == "" {
		http.Error(w, "sessionId and participantId are required", http.StatusBadRequest)
		return
	}

	// Reject unknown participants before upgrading
	if _, err := h.engine.PlayerView(r.Context(), cc); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Participant not found", http.StatusNotFound)
			return
		}
		h.logger.Error("websocket lookup failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, h.engine, cc, h.logger)

	view, err := h.engine.Attach(context.Background(), cc, client)
	if err != nil {
		// The participant left between the lookup and the upgrade
		conn.WriteJSON(NewServerMessage(MsgError, errorPayload(err)))
		conn.Close()
		return
	}

	h.logger.Info("websocket connected",
		"sessionID", cc.SessionID,
		"participantID", cc.ParticipantID,
	)

	client.greet(NewServerMessage(MsgConnected, &ConnectedPayload{
		ParticipantID: cc.ParticipantID,
		SessionID:     cc.SessionID,
		View:          view,
	}))

	client.Run()
}
