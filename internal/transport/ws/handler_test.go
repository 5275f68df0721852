package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakeartist/internal/app"
	"fakeartist/internal/clocksync"
	"fakeartist/internal/domain"
	"fakeartist/internal/roles"
	"fakeartist/internal/store"
	"fakeartist/internal/words"
)

type harness struct {
	engine *app.Engine
	server *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	catalog, err := words.LoadEmbedded(words.BaseLocale)
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))
	synchronizer := clocksync.New(clocksync.StaticProber{}, clocksync.WithClock(clock))
	require.NoError(t, synchronizer.Refresh(context.Background()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := app.NewEngine(app.DefaultConfig(), app.Deps{
		Store:    store.NewMemory(),
		Time:     synchronizer,
		Assigner: roles.NewSeededAssigner(1, roles.DefaultFakeArtistFirstBiasPercent),
		Selector: words.NewSeededSelector(catalog, 1),
		Clock:    clock,
		Logger:   logger,
	})
	t.Cleanup(engine.Close)

	server := httptest.NewServer(NewHandler(engine, logger))
	t.Cleanup(server.Close)

	return &harness{engine: engine, server: server}
}

func (h *harness) dial(t *testing.T, cc domain.ClientContext) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(h.server.URL, "http") +
		"?sessionId=" + cc.SessionID + "&participantId=" + cc.ParticipantID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// envelope is the common shape of everything the server sends
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// next reads messages until one of the wanted type arrives
func next(t *testing.T, conn *websocket.Conn, want string) envelope {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg envelope
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType MessageType, payload interface{}) {
	t.Helper()

	msg := map[string]interface{}{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func (h *harness) table(t *testing.T, names ...string) (*domain.Session, []*domain.Participant) {
	t.Helper()
	ctx := context.Background()

	s, err := h.engine.CreateSession(ctx, app.CreateOptions{})
	require.NoError(t, err)

	ps := make([]*domain.Participant, 0, len(names))
	for _, name := range names {
		p, err := h.engine.JoinSession(ctx, s.AccessCode, name)
		require.NoError(t, err)
		ps = append(ps, p)
	}
	return s, ps
}

func TestHandler_RejectsUnknownParticipant(t *testing.T) {
	h := newHarness(t)
	s, _ := h.table(t, "Ann")

	resp, err := http.Get(h.server.URL + "?sessionId=" + s.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "?sessionId=" + s.ID + "&participantId=ghost"
	_, resp, err = websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_ConnectedCarriesPlayerView(t *testing.T) {
	h := newHarness(t)
	s, ps := h.table(t, "Ann", "Bob")

	conn := h.dial(t, domain.ClientContext{SessionID: s.ID, ParticipantID: ps[0].ID})

	msg := next(t, conn, string(MsgConnected))
	var payload ConnectedPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, ps[0].ID, payload.ParticipantID)
	assert.Equal(t, s.ID, payload.SessionID)
	require.NotNil(t, payload.View)
	assert.Len(t, payload.View.Session.Participants, 2)
	assert.Equal(t, domain.RoleNone, payload.View.Role)
}

func TestHandler_CommandsDriveTheEngine(t *testing.T) {
	h := newHarness(t)
	s, ps := h.table(t, "Ann", "Bob", "Cy")

	qm := h.dial(t, domain.ClientContext{SessionID: s.ID, ParticipantID: ps[0].ID})
	next(t, qm, string(MsgConnected))

	send(t, qm, MsgStartRound, &StartRoundPayload{
		Variant:          domain.VariantQuestionMaster,
		QuestionMasterID: ps[0].ID,
		Word:             "Lion",
		Category:         "Animals",
	})

	msg := next(t, qm, string(domain.EventParticipantChanged))
	var view domain.PlayerView
	require.NoError(t, json.Unmarshal(msg.Payload, &view))
	assert.Equal(t, domain.RoleQuestionMaster, view.Role)
	assert.Equal(t, "Lion", view.Word)

	send(t, qm, MsgToggleTimer, nil)
	require.Eventually(t, func() bool {
		v, err := h.engine.GetSession(context.Background(), s.ID)
		return err == nil && v.Paused
	}, 2*time.Second, 10*time.Millisecond)

	send(t, qm, MsgPauseTimer, nil)
	msg = next(t, qm, string(MsgError))
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &errPayload))
	assert.Equal(t, "ALREADY_PAUSED", errPayload.Code)

	send(t, qm, MsgReport, &ReportPayload{Kind: domain.ReportBadCategory})
	send(t, qm, MsgEndRound, nil)
	require.Eventually(t, func() bool {
		v, err := h.engine.GetSession(context.Background(), s.ID)
		return err == nil && v.Phase == domain.PhaseWaitingForPlayers
	}, 2*time.Second, 10*time.Millisecond)

	stats, err := h.engine.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Reports)
}

func TestHandler_ProtocolErrors(t *testing.T) {
	h := newHarness(t)
	s, ps := h.table(t, "Ann")

	conn := h.dial(t, domain.ClientContext{SessionID: s.ID, ParticipantID: ps[0].ID})
	next(t, conn, string(MsgConnected))

	tests := []struct {
		name string
		raw  string
		code string
	}{
		{"not json", "{oops", ErrCodeInvalidMessage},
		{"unknown type", `{"type":"dance"}`, ErrCodeInvalidMessage},
		{"missing payload", `{"type":"start_round"}`, ErrCodeInvalidMessage},
		{"engine validation", `{"type":"start_round","payload":{"variant":"QUESTION_MASTER"}}`, "QUESTION_MASTER_REQUIRED"},
		{"engine precondition", `{"type":"resume_timer"}`, "ROUND_NOT_IN_PROGRESS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.raw)))
			msg := next(t, conn, string(MsgError))
			var payload ErrorPayload
			require.NoError(t, json.Unmarshal(msg.Payload, &payload))
			assert.Equal(t, tt.code, payload.Code)
		})
	}

	send(t, conn, MsgPing, nil)
	next(t, conn, string(MsgPong))
}

func TestHandler_LeaveClosesSocketAndDropKeepsParticipant(t *testing.T) {
	h := newHarness(t)
	s, ps := h.table(t, "Ann", "Bob")
	ctx := context.Background()

	bob := h.dial(t, domain.ClientContext{SessionID: s.ID, ParticipantID: ps[1].ID})
	next(t, bob, string(MsgConnected))

	// Dropping the socket detaches only
	bob.Close()
	require.Eventually(t, func() bool {
		stats, err := h.engine.Stats(ctx)
		return err == nil && stats.Connected == 0
	}, 2*time.Second, 10*time.Millisecond)
	roster, err := h.engine.ListParticipants(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	ann := h.dial(t, domain.ClientContext{SessionID: s.ID, ParticipantID: ps[0].ID})
	next(t, ann, string(MsgConnected))
	send(t, ann, MsgLeave, nil)

	ann.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := ann.ReadMessage(); err != nil {
			break
		}
	}

	roster, err = h.engine.ListParticipants(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, ps[1].ID, roster[0].ID)
}
