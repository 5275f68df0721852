package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/skip2/go-qrcode"

	"fakeartist/internal/app"
	"fakeartist/internal/domain"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
	maxBodyBytes  = 1 << 16
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateSessionRequest is the body of POST /api/sessions
type CreateSessionRequest struct {
	DurationMinutes int `json:"durationMinutes"`
}

// CreateSessionResponse is the response for session creation
type CreateSessionResponse struct {
	Session    *domain.SessionView `json:"session"`
	AccessCode string              `json:"accessCode"`
	InviteLink string              `json:"inviteLink"`
}

// JoinRequest is the body of POST /api/codes/{code}/participants
type JoinRequest struct {
	DisplayName string `json:"displayName"`
}

// JoinResponse is the response for joining a session
type JoinResponse struct {
	Participant *domain.Participant `json:"participant"`
	SessionID   string              `json:"sessionId"`
}

// StartRoundRequest is the body of POST /api/sessions/{sessionID}/round
type StartRoundRequest struct {
	Variant          domain.Variant `json:"variant"`
	QuestionMasterID string         `json:"questionMasterId"`
	Word             string         `json:"word"`
	Category         string         `json:"category"`
	Locale           string         `json:"locale"`
}

// ReportRequest is the body of a selection report
type ReportRequest struct {
	Kind domain.ReportKind `json:"kind"`
}

// TimerResponse reports the countdown state
type TimerResponse struct {
	RemainingMs int64      `json:"remainingMs"`
	Paused      bool       `json:"paused"`
	EndTime     *time.Time `json:"endTime"`
}

// TimeResponse is the reference time served to probing clients
type TimeResponse struct {
	Now int64 `json:"now"` // unix milliseconds
}

// CodeExistsResponse is the response for checking an access code
type CodeExistsResponse struct {
	Exists bool `json:"exists"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status       string     `json:"status"`
	ClockSynced  bool       `json:"clockSynced"`
	LastSyncedAt *time.Time `json:"lastSyncedAt"`
}

// handleCreateSession handles POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if !s.decode(w, r, &req) {
			return
		}
	}

	session, err := s.engine.CreateSession(r.Context(), app.CreateOptions{DurationMinutes: req.DurationMinutes})
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	view, err := s.engine.GetSession(r.Context(), session.ID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendCreated(w, &CreateSessionResponse{
		Session:    view,
		AccessCode: session.AccessCode,
		InviteLink: s.inviteLink(r, session.AccessCode),
	})
}

// handleGetByCode handles GET /api/codes/{code}
func (s *Server) handleGetByCode(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.GetSessionByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, view)
}

// handleCodeExists handles GET /api/codes/{code}/exists
func (s *Server) handleCodeExists(w http.ResponseWriter, r *http.Request) {
	_, err := s.engine.GetSessionByCode(r.Context(), r.PathValue("code"))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, &CodeExistsResponse{Exists: err == nil})
}

// handleInviteQR handles GET /api/codes/{code}/qr and returns a PNG
func (s *Server) handleInviteQR(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.GetSessionByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxQRSize {
			s.sendError(w, http.StatusBadRequest, "INVALID_SIZE", "size must be between 1 and 1024")
			return
		}
		size = n
	}

	png, err := qrcode.Encode(s.inviteLink(r, view.AccessCode), qrcode.Medium, size)
	if err != nil {
		s.logger.Error("qr encode failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// handleJoin handles POST /api/codes/{code}/participants
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.engine.JoinSession(r.Context(), r.PathValue("code"), req.DisplayName)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendCreated(w, &JoinResponse{Participant: p, SessionID: p.SessionID})
}

// handleGetSession handles GET /api/sessions/{sessionID}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.GetSession(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, view)
}

// handleDeleteSession handles DELETE /api/sessions/{sessionID}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteSession(r.Context(), r.PathValue("sessionID"), "closed"); err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, nil)
}

// handleListParticipants handles GET /api/sessions/{sessionID}/participants
func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	roster, err := s.engine.ListParticipants(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, roster)
}

// handlePlayerView handles GET /api/sessions/{sessionID}/participants/{participantID}
func (s *Server) handlePlayerView(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.PlayerView(r.Context(), clientContext(r))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, view)
}

// handleLeave handles DELETE /api/sessions/{sessionID}/participants/{participantID}
func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.LeaveSession(r.Context(), clientContext(r)); err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, nil)
}

// handleReport handles POST /api/sessions/{sessionID}/participants/{participantID}/reports
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.engine.ReportSelection(r.Context(), clientContext(r), req.Kind); err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendCreated(w, nil)
}

// handleStartRound handles POST /api/sessions/{sessionID}/round
func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	var req StartRoundRequest
	if !s.decode(w, r, &req) {
		return
	}

	sessionID := r.PathValue("sessionID")
	_, err := s.engine.StartRound(r.Context(), sessionID, app.StartParams{
		Variant:          req.Variant,
		QuestionMasterID: req.QuestionMasterID,
		Word:             req.Word,
		Category:         req.Category,
		Locale:           req.Locale,
	})
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSessionView(w, r, sessionID)
}

// handleEndRound handles POST /api/sessions/{sessionID}/round/end
func (s *Server) handleEndRound(w http.ResponseWriter, r *http.Request) {
	s.sessionTransition(w, r, s.engine.EndRound)
}

// handlePause handles POST /api/sessions/{sessionID}/timer/pause
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.sessionTransition(w, r, s.engine.PauseTimer)
}

// handleResume handles POST /api/sessions/{sessionID}/timer/resume
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.sessionTransition(w, r, s.engine.ResumeTimer)
}

// handleToggle handles POST /api/sessions/{sessionID}/timer/toggle
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.sessionTransition(w, r, s.engine.PauseOrResumeTimer)
}

// handleRemaining handles GET /api/sessions/{sessionID}/timer
func (s *Server) handleRemaining(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	remaining, err := s.engine.GetRemainingTime(r.Context(), sessionID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	view, err := s.engine.GetSession(r.Context(), sessionID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, &TimerResponse{
		RemainingMs: remaining.Milliseconds(),
		Paused:      view.Paused,
		EndTime:     view.EndTime,
	})
}

// handleTime handles GET /api/time. The body is not wrapped in Response.
func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	now, err := s.clock.Now()
	if err != nil {
		s.sendError(w, http.StatusServiceUnavailable, "CLOCK_NOT_READY", "Reference clock not synchronized yet")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(&TimeResponse{Now: now.UnixMilli()})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := &HealthResponse{Status: "ok"}
	if at, ok := s.clock.SyncedAt(); ok {
		resp.ClockSynced = true
		resp.LastSyncedAt = &at
	}
	s.sendSuccess(w, resp)
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, stats)
}

func (s *Server) sessionTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sessionID string) (*domain.Session, error)) {
	sessionID := r.PathValue("sessionID")
	if _, err := op(r.Context(), sessionID); err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSessionView(w, r, sessionID)
}

func (s *Server) sendSessionView(w http.ResponseWriter, r *http.Request, sessionID string) {
	view, err := s.engine.GetSession(r.Context(), sessionID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, view)
}

// inviteLink builds the join URL for an access code
func (s *Server) inviteLink(r *http.Request, code string) string {
	base := s.config.Server.PublicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/join/" + code
}

func clientContext(r *http.Request) domain.ClientContext {
	return domain.ClientContext{
		SessionID:     r.PathValue("sessionID"),
		ParticipantID: r.PathValue("participantID"),
	}
}

// decode reads a JSON body into v, answering 400 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return false
	}
	return true
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendCreated is sendSuccess with a 201 status
func (s *Server) sendCreated(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// sendDomainError maps an engine error onto a status and error code
func (s *Server) sendDomainError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		s.sendError(w, status, code, "Internal server error")
		return
	}
	s.sendError(w, status, code, err.Error())
}
