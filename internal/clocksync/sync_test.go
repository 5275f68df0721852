package clocksync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// sequenceProber returns queued results and signals every call
type sequenceProber struct {
	results []error
	offset  time.Duration
	calls   chan struct{}
}

func (p *sequenceProber) Probe(context.Context) (time.Duration, error) {
	var err error
	if len(p.results) > 0 {
		err = p.results[0]
		p.results = p.results[1:]
	}
	if p.calls != nil {
		p.calls <- struct{}{}
	}
	return p.offset, err
}

func TestSynchronizer_NotReadyBeforeFirstProbe(t *testing.T) {
	s := New(StaticProber{}, WithClock(clockwork.NewFakeClockAt(start)))

	_, err := s.Now()
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = s.ToLocal(start)
	assert.ErrorIs(t, err, ErrNotReady)
	_, ok := s.SyncedAt()
	assert.False(t, ok)
}

func TestSynchronizer_AppliesOffset(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	s := New(StaticProber{Offset: 3 * time.Second}, WithClock(clock))
	require.NoError(t, s.Refresh(context.Background()))

	now, err := s.Now()
	require.NoError(t, err)
	assert.Equal(t, start.Add(3*time.Second), now)

	local, err := s.ToLocal(now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute), local)

	clock.Advance(10 * time.Second)
	now, err = s.Now()
	require.NoError(t, err)
	assert.Equal(t, start.Add(13*time.Second), now)
}

func TestSynchronizer_FailedRefreshKeepsOffset(t *testing.T) {
	p := &sequenceProber{offset: time.Second}
	s := New(p, WithClock(clockwork.NewFakeClockAt(start)))
	require.NoError(t, s.Refresh(context.Background()))

	p.results = []error{errors.New("reference down")}
	p.offset = time.Hour
	assert.Error(t, s.Refresh(context.Background()))

	offset, err := s.Offset()
	require.NoError(t, err)
	assert.Equal(t, time.Second, offset)
}

func TestSynchronizer_RunRefreshesOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	p := &sequenceProber{
		offset:  2 * time.Second,
		results: []error{errors.New("not yet")},
		calls:   make(chan struct{}, 4),
	}
	s := New(p, WithClock(clock), WithInterval(30*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitCall(t, p.calls)
	_, err := s.Now()
	assert.ErrorIs(t, err, ErrNotReady)

	clock.Advance(30 * time.Second)
	waitCall(t, p.calls)
	require.Eventually(t, func() bool {
		_, err := s.Offset()
		return err == nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestHTTPProber_EstimatesOffsetFromMidpoint(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clock.Advance(40 * time.Millisecond)
		ref := clock.Now().Add(5 * time.Second)
		clock.Advance(40 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(TimeResponse{Now: ref.UnixMilli()})
	}))
	defer srv.Close()

	offset, err := NewHTTPProber(srv.URL, clock).Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, offset)
}

func TestHTTPProber_Errors(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()
	_, err := NewHTTPProber(bad.URL, clock).Probe(context.Background())
	assert.ErrorContains(t, err, "500")

	zero := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"now":0}`))
	}))
	defer zero.Close()
	_, err = NewHTTPProber(zero.URL, clock).Probe(context.Background())
	assert.ErrorContains(t, err, "invalid time")
}

func waitCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("probe was not called")
	}
}
