package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakeartist/internal/domain"
)

var t0 = time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

func seed(t *testing.T, m *Memory, id, code string) *domain.Session {
	t.Helper()
	s, err := domain.NewSession(id, code, 10, t0)
	require.NoError(t, err)
	require.NoError(t, m.CreateSession(context.Background(), s))
	return s
}

func TestMemory_Sessions(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s := seed(t, m, "s1", "12345")

	got, err := m.FindSessionByCode(ctx, " 12345 ")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	// Returned copies are detached from the store
	got.RoundNumber = 9
	again, err := m.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.RoundNumber)

	err = m.CreateSession(ctx, &domain.Session{ID: "s2", AccessCode: "12345"})
	assert.ErrorIs(t, err, domain.ErrAccessCodeInUse)
	assert.ErrorIs(t, err, domain.ErrCollision)

	s.RoundNumber = 3
	require.NoError(t, m.UpdateSession(ctx, s))
	again, err = m.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, again.RoundNumber)

	require.NoError(t, m.DeleteSession(ctx, "s1"))
	_, err = m.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = m.FindSessionByCode(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrAccessCodeNotFound)
	assert.ErrorIs(t, m.UpdateSession(ctx, s), domain.ErrSessionNotFound)
	assert.ErrorIs(t, m.DeleteSession(ctx, "s1"), domain.ErrSessionNotFound)

	// The code is free again
	seed(t, m, "s3", "12345")
}

func TestMemory_ListSessionsByCreation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	late, err := domain.NewSession("late", "22222", 10, t0.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, m.CreateSession(ctx, late))
	seed(t, m, "early", "11111")

	all, err := m.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "early", all[0].ID)
	assert.Equal(t, "late", all[1].ID)
}

func TestMemory_ParticipantsKeepJoinOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seed(t, m, "s1", "12345")

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, m.CreateParticipant(ctx, domain.NewParticipant(id, "s1", id, t0)))
	}
	err := m.CreateParticipant(ctx, domain.NewParticipant("x", "missing", "x", t0))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	list, err := m.ListParticipants(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, participantIDs(list))

	require.NoError(t, m.DeleteParticipant(ctx, "a"))
	list, err = m.ListParticipants(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, participantIDs(list))
	assert.ErrorIs(t, m.DeleteParticipant(ctx, "a"), domain.ErrParticipantNotFound)

	n, err := m.DeleteParticipants(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = m.GetParticipant(ctx, "c")
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)
}

func TestMemory_UpdateParticipantsIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seed(t, m, "s1", "12345")
	require.NoError(t, m.CreateParticipant(ctx, domain.NewParticipant("a", "s1", "A", t0)))
	require.NoError(t, m.CreateParticipant(ctx, domain.NewParticipant("b", "s1", "B", t0)))

	a, err := m.GetParticipant(ctx, "a")
	require.NoError(t, err)
	a.IsFakeArtist = true
	ghost := domain.NewParticipant("ghost", "s1", "G", t0)

	err = m.UpdateParticipants(ctx, []*domain.Participant{a, ghost})
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)
	stored, err := m.GetParticipant(ctx, "a")
	require.NoError(t, err)
	assert.False(t, stored.IsFakeArtist)

	require.NoError(t, m.UpdateParticipants(ctx, []*domain.Participant{a}))
	fakes, err := m.FindParticipants(ctx, "s1", func(p *domain.Participant) bool { return p.IsFakeArtist })
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, participantIDs(fakes))
}

func TestMemory_Records(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.AddSubmittedWord(ctx, domain.SubmittedWord{Word: "Lion", Category: "Animals", Locale: "en"}))
	require.NoError(t, m.AddLanguageUsage(ctx, domain.LanguageUsage{SessionID: "s1", Locale: "he", ParticipantCount: 4}))
	require.NoError(t, m.AddReport(ctx, domain.SelectionReport{SessionID: "s1", Kind: domain.ReportBadWord, Word: "Lion"}))

	words, err := m.SubmittedWords(ctx)
	require.NoError(t, err)
	require.Len(t, words, 1)
	words[0].Word = "changed"
	words, _ = m.SubmittedWords(ctx)
	assert.Equal(t, "Lion", words[0].Word)

	usage, err := m.LanguageUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, usage[0].ParticipantCount)

	reports, err := m.Reports(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportBadWord, reports[0].Kind)
}

func participantIDs(ps []*domain.Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
