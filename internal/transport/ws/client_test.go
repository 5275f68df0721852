package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakeartist/internal/domain"
)

func drain(t *testing.T, c *Client) []string {
	t.Helper()

	var types []string
	for {
		select {
		case data := <-c.send:
			var msg envelope
			require.NoError(t, json.Unmarshal(data, &msg))
			types = append(types, msg.Type)
		default:
			return types
		}
	}
}

func TestClient_ConnectedPrecedesEarlierEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(nil, nil, domain.ClientContext{SessionID: "s", ParticipantID: "p"}, logger)

	// An event delivered between registration and the connected message
	require.NoError(t, c.Send(&domain.Event{Type: domain.EventParticipantJoined, SessionID: "s"}))
	assert.Empty(t, drain(t, c))

	require.NoError(t, c.greet(NewServerMessage(MsgConnected, &ConnectedPayload{ParticipantID: "p", SessionID: "s"})))
	require.NoError(t, c.Send(&domain.Event{Type: domain.EventSessionChanged, SessionID: "s"}))

	assert.Equal(t, []string{
		string(MsgConnected),
		string(domain.EventParticipantJoined),
		string(domain.EventSessionChanged),
	}, drain(t, c))
}

func TestClient_SendAfterCloseIsDropped(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(nil, nil, domain.ClientContext{SessionID: "s", ParticipantID: "p"}, logger)

	require.NoError(t, c.greet(NewServerMessage(MsgConnected, nil)))
	require.NoError(t, c.Close())
	require.NoError(t, c.Send(NewServerMessage(MsgPong, nil)))

	assert.Equal(t, []string{string(MsgConnected)}, drain(t, c))
}
