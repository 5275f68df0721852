package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fakeartist/internal/domain"
)

// MaxDisplayNameLength caps display names, counted in runes
const MaxDisplayNameLength = 32

// JoinSession adds a participant to the session with the given access code.
// Joining is allowed in every phase; a late joiner has no role until the
// next round starts.
func (e *Engine) JoinSession(ctx context.Context, accessCode, displayName string) (*domain.Participant, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, domain.ErrEmptyDisplayName
	}
	if r := []rune(name); len(r) > MaxDisplayNameLength {
		name = string(r[:MaxDisplayNameLength])
	}

	session, err := e.store.FindSessionByCode(ctx, accessCode)
	if err != nil {
		return nil, err
	}
	rt, err := e.Runtime(session.ID)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	session, err = e.store.GetSession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	participants, err := e.store.ListParticipants(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	if e.cfg.MaxParticipants > 0 && len(participants) >= e.cfg.MaxParticipants {
		return nil, domain.ErrSessionFull
	}

	p := domain.NewParticipant(e.newID(), session.ID, name, e.clock.Now())
	if err := e.store.CreateParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("storing participant: %w", err)
	}
	participants = append(participants, p)

	now := e.snapshotTime()
	rt.queueEvent(domain.NewParticipantEvent(domain.EventParticipantJoined, session.ID, p.ID, session.View(participants, now), now))

	rt.logger.Info("participant joined", "participantID", p.ID, "displayName", name)
	return p.Clone(), nil
}

// StartParams describes the round to start
type StartParams struct {
	Variant          domain.Variant
	QuestionMasterID string // required for the question-master variant
	Word             string // question-master variant only
	Category         string // question-master variant only
	Locale           string
}

// StartRound starts or restarts a round. The selection, the role assignment
// and the deadline are applied to the session and all its participants as
// one transition; on any error nothing is written.
func (e *Engine) StartRound(ctx context.Context, sessionID string, params StartParams) (*domain.Session, error) {
	if !params.Variant.Valid() {
		return nil, domain.ErrInvalidVariant
	}
	if params.Variant == domain.VariantQuestionMaster && params.QuestionMasterID == "" {
		return nil, domain.ErrQuestionMasterRequired
	}

	rt, err := e.Runtime(sessionID)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	participants, err := e.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	if len(participants) < e.cfg.MinParticipants {
		return nil, domain.ErrInsufficientPlayers
	}

	locale := e.selector.Resolve(params.Locale)

	var sel *domain.Selection
	switch params.Variant {
	case domain.VariantQuestionMaster:
		sel, err = e.selector.Chosen(params.Word, params.Category)
	case domain.VariantRandom:
		sel, err = e.selector.RandomSet(locale)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	assignment, err := e.assigner.Assign(ids, params.QuestionMasterID)
	if err != nil {
		return nil, err
	}

	now, err := e.refNow()
	if err != nil {
		return nil, err
	}

	if err := session.StartRound(now, sel, locale); err != nil {
		return nil, err
	}
	previous := make([]*domain.Participant, len(participants))
	for i, p := range participants {
		previous[i] = p.Clone()
	}
	assignment.Apply(participants, sel.Category)

	if err := e.store.UpdateParticipants(ctx, participants); err != nil {
		return nil, fmt.Errorf("storing assignment: %w", err)
	}
	if err := e.store.UpdateSession(ctx, session); err != nil {
		// Put the roles back so the round is all or nothing
		if rbErr := e.store.UpdateParticipants(ctx, previous); rbErr != nil {
			rt.logger.Error("failed to restore participants", "error", rbErr)
		}
		return nil, fmt.Errorf("storing session: %w", err)
	}

	e.recordRound(ctx, session, len(participants))

	rt.queueEvent(domain.NewEvent(domain.EventSessionChanged, sessionID, session.View(participants, now), now))
	for _, p := range participants {
		rt.queueEvent(domain.NewParticipantEvent(domain.EventParticipantChanged, sessionID, p.ID, session.PlayerView(participants, p, now), now))
	}

	rt.logger.Info("round started",
		"round", session.RoundNumber,
		"variant", sel.Variant,
		"locale", locale,
		"participants", len(participants),
	)
	return session, nil
}

// recordRound stores the round's usage records. Failures are logged only;
// they never undo a started round.
func (e *Engine) recordRound(ctx context.Context, session *domain.Session, participantCount int) {
	at := e.clock.Now()

	if session.Selection.Variant == domain.VariantQuestionMaster {
		word := domain.SubmittedWord{
			Word:      session.Selection.Word,
			Category:  session.Selection.Category,
			Locale:    session.Locale,
			CreatedAt: at,
		}
		if err := e.store.AddSubmittedWord(ctx, word); err != nil {
			e.logger.Warn("failed to record submitted word", "sessionID", session.ID, "error", err)
		}
	}

	usage := domain.LanguageUsage{
		SessionID:        session.ID,
		Locale:           session.Locale,
		ParticipantCount: participantCount,
		CreatedAt:        at,
	}
	if err := e.store.AddLanguageUsage(ctx, usage); err != nil {
		e.logger.Warn("failed to record language usage", "sessionID", session.ID, "error", err)
	}
}

// PauseTimer freezes the countdown
func (e *Engine) PauseTimer(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.timerTransition(ctx, sessionID, "timer paused", (*domain.Session).Pause)
}

// ResumeTimer restarts a paused countdown, moving the deadline forward by
// the time spent paused
func (e *Engine) ResumeTimer(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.timerTransition(ctx, sessionID, "timer resumed", (*domain.Session).Resume)
}

// PauseOrResumeTimer toggles the countdown
func (e *Engine) PauseOrResumeTimer(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.timerTransition(ctx, sessionID, "timer toggled", (*domain.Session).ToggleTimer)
}

func (e *Engine) timerTransition(ctx context.Context, sessionID, msg string, apply func(*domain.Session, time.Time) error) (*domain.Session, error) {
	return e.transition(ctx, sessionID, msg, func(s *domain.Session) (time.Time, error) {
		if !s.IsInProgress() {
			return time.Time{}, domain.ErrRoundNotInProgress
		}
		now, err := e.refNow()
		if err != nil {
			return time.Time{}, err
		}
		return now, apply(s, now)
	})
}

// EndRound returns the session to the lobby. Roles stay on the participants
// until the next round starts.
func (e *Engine) EndRound(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.transition(ctx, sessionID, "round ended", func(s *domain.Session) (time.Time, error) {
		return e.snapshotTime(), s.EndRound()
	})
}

// transition applies fn to a copy of the session under the session lock and
// stores the copy only if fn succeeds
func (e *Engine) transition(ctx context.Context, sessionID, msg string, fn func(*domain.Session) (time.Time, error)) (*domain.Session, error) {
	rt, err := e.Runtime(sessionID)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now, err := fn(session)
	if err != nil {
		return nil, err
	}

	if err := e.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	participants, err := e.store.ListParticipants(ctx, sessionID)
	if err != nil {
		rt.logger.Warn("failed to list participants for event", "error", err)
	}
	rt.queueEvent(domain.NewEvent(domain.EventSessionChanged, sessionID, session.View(participants, now), now))

	rt.logger.Info(msg, "paused", session.Paused, "phase", session.Phase)
	return session, nil
}

// LeaveSession removes a participant. It is always permitted and also
// serves to remove another participant from the table.
func (e *Engine) LeaveSession(ctx context.Context, cc domain.ClientContext) error {
	rt, err := e.Runtime(cc.SessionID)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	session, err := e.store.GetSession(ctx, cc.SessionID)
	if err != nil {
		return err
	}
	p, err := e.store.GetParticipant(ctx, cc.ParticipantID)
	if err != nil {
		return err
	}
	if p.SessionID != cc.SessionID {
		return domain.ErrParticipantNotFound
	}

	if err := e.store.DeleteParticipant(ctx, p.ID); err != nil {
		return fmt.Errorf("deleting participant: %w", err)
	}

	participants, err := e.store.ListParticipants(ctx, cc.SessionID)
	if err != nil {
		rt.logger.Warn("failed to list participants for event", "error", err)
	}

	now := e.snapshotTime()
	payload := &domain.ParticipantLeftPayload{ParticipantID: p.ID, Session: session.View(participants, now)}
	rt.queueEvent(domain.NewParticipantEvent(domain.EventParticipantLeft, cc.SessionID, p.ID, payload, now))
	rt.dropClient(p.ID)

	rt.logger.Info("participant left", "participantID", p.ID, "remaining", len(participants))
	return nil
}

// GetRemainingTime returns the time left on the session's countdown. The
// reference clock is only consulted while the countdown is running.
func (e *Engine) GetRemainingTime(ctx context.Context, sessionID string) (time.Duration, error) {
	rt, err := e.Runtime(sessionID)
	if err != nil {
		return 0, err
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	if !session.IsInProgress() || session.Paused {
		return session.Remaining(time.Time{}), nil
	}

	now, err := e.refNow()
	if err != nil {
		return 0, err
	}
	return session.Remaining(now), nil
}

// GetSession returns the public view of a session
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*domain.SessionView, error) {
	rt, err := e.Runtime(sessionID)
	if err != nil {
		return nil, err
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	return e.view(ctx, sessionID)
}

// GetSessionByCode returns the public view of the session with access code
func (e *Engine) GetSessionByCode(ctx context.Context, accessCode string) (*domain.SessionView, error) {
	session, err := e.store.FindSessionByCode(ctx, accessCode)
	if err != nil {
		return nil, err
	}
	return e.GetSession(ctx, session.ID)
}

// ListParticipants returns the roster in join order without hidden roles
func (e *Engine) ListParticipants(ctx context.Context, sessionID string) ([]domain.ParticipantInfo, error) {
	view, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return view.Participants, nil
}

// PlayerView returns what the calling participant may see, including the
// word unless they are the fake artist
func (e *Engine) PlayerView(ctx context.Context, cc domain.ClientContext) (*domain.PlayerView, error) {
	rt, err := e.Runtime(cc.SessionID)
	if err != nil {
		return nil, err
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	session, err := e.store.GetSession(ctx, cc.SessionID)
	if err != nil {
		return nil, err
	}
	participants, err := e.store.ListParticipants(ctx, cc.SessionID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}

	for _, p := range participants {
		if p.ID == cc.ParticipantID {
			return session.PlayerView(participants, p, e.snapshotTime()), nil
		}
	}
	return nil, domain.ErrParticipantNotFound
}

// Attach registers a live connection for a participant and returns the
// participant's current view
func (e *Engine) Attach(ctx context.Context, cc domain.ClientContext, client ClientConnection) (*domain.PlayerView, error) {
	view, err := e.PlayerView(ctx, cc)
	if err != nil {
		return nil, err
	}

	rt, err := e.Runtime(cc.SessionID)
	if err != nil {
		return nil, err
	}
	rt.RegisterClient(cc.ParticipantID, client)
	return view, nil
}

// Detach forgets a live connection. The participant stays in the session.
func (e *Engine) Detach(cc domain.ClientContext, client ClientConnection) {
	if rt, err := e.Runtime(cc.SessionID); err == nil {
		rt.UnregisterClient(cc.ParticipantID, client)
	}
}

// ReportSelection records feedback on the current round's word or category
func (e *Engine) ReportSelection(ctx context.Context, cc domain.ClientContext, kind domain.ReportKind) error {
	if !kind.Valid() {
		return domain.ErrInvalidReport
	}

	rt, err := e.Runtime(cc.SessionID)
	if err != nil {
		return err
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	session, err := e.store.GetSession(ctx, cc.SessionID)
	if err != nil {
		return err
	}
	if !session.IsInProgress() || session.Selection == nil {
		return domain.ErrRoundNotInProgress
	}
	p, err := e.store.GetParticipant(ctx, cc.ParticipantID)
	if err != nil {
		return err
	}
	if p.SessionID != cc.SessionID {
		return domain.ErrParticipantNotFound
	}

	report := domain.SelectionReport{
		SessionID: cc.SessionID,
		Kind:      kind,
		Word:      session.Selection.Word,
		Category:  session.Selection.Category,
		Locale:    session.Locale,
		CreatedAt: e.clock.Now(),
	}
	if err := e.store.AddReport(ctx, report); err != nil {
		return fmt.Errorf("storing report: %w", err)
	}

	rt.logger.Info("selection reported", "kind", kind, "word", report.Word, "category", report.Category)
	return nil
}

// Stats summarizes live sessions and recorded rounds
type Stats struct {
	Sessions       int            `json:"sessions"`
	Participants   int            `json:"participants"`
	Connected      int            `json:"connected"`
	Rounds         int            `json:"rounds"`
	RoundsByLocale map[string]int `json:"roundsByLocale"`
	SubmittedWords int            `json:"submittedWords"`
	Reports        int            `json:"reports"`
}

// Stats collects engine statistics
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{RoundsByLocale: make(map[string]int)}

	sessions, err := e.store.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	stats.Sessions = len(sessions)
	for _, session := range sessions {
		participants, err := e.store.ListParticipants(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("listing participants: %w", err)
		}
		stats.Participants += len(participants)

		if rt, err := e.Runtime(session.ID); err == nil {
			stats.Connected += rt.ClientCount()
		}
	}

	usage, err := e.store.LanguageUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading language usage: %w", err)
	}
	stats.Rounds = len(usage)
	for _, u := range usage {
		stats.RoundsByLocale[u.Locale]++
	}

	words, err := e.store.SubmittedWords(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading submitted words: %w", err)
	}
	stats.SubmittedWords = len(words)

	reports, err := e.store.Reports(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading reports: %w", err)
	}
	stats.Reports = len(reports)

	return stats, nil
}

func (e *Engine) view(ctx context.Context, sessionID string) (*domain.SessionView, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	participants, err := e.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	return session.View(participants, e.snapshotTime()), nil
}

// IsClientError reports whether err is caused by the caller rather than the
// server
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrPrecondition)
}
