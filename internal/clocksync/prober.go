package clocksync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

// TimeResponse is the body served by a reference clock endpoint
type TimeResponse struct {
	Now int64 `json:"now"` // unix milliseconds
}

// StaticProber reports a fixed offset. A server that is its own reference
// uses a zero StaticProber.
type StaticProber struct {
	Offset time.Duration
}

// Probe returns the fixed offset
func (p StaticProber) Probe(context.Context) (time.Duration, error) {
	return p.Offset, nil
}

// HTTPProber estimates the offset with one round trip to a reference
// endpoint, assuming the reply was stamped halfway through the trip.
type HTTPProber struct {
	URL    string
	Client *http.Client
	Clock  clockwork.Clock
}

// NewHTTPProber creates a prober for url with a short request timeout
func NewHTTPProber(url string, clock clockwork.Clock) *HTTPProber {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HTTPProber{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
		Clock:  clock,
	}
}

// Probe performs the round trip
func (p *HTTPProber) Probe(ctx context.Context) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("building probe request: %w", err)
	}

	sent := p.Clock.Now()
	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probing reference clock: %w", err)
	}
	defer resp.Body.Close()
	received := p.Clock.Now()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("reference clock returned %s", resp.Status)
	}

	var body TimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding reference time: %w", err)
	}
	if body.Now <= 0 {
		return 0, fmt.Errorf("reference clock returned invalid time %d", body.Now)
	}

	rtt := received.Sub(sent)
	ref := time.UnixMilli(body.Now)
	return ref.Sub(sent.Add(rtt / 2)), nil
}
