// Package runreg fetches upcoming events from the RunReg race-listing API and
// normalizes them into the common race shape.
package runreg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nat12323/race-weather-tracker/internal/race"
)

// IDPrefix namespaces RunReg event ids so they can never collide with
// database-assigned ids in the aggregated list.
const IDPrefix = "runreg-"

var (
	errRunRegRateLimited = errors.New("runreg rate limited")
	errRunRegUnavailable = errors.New("runreg unavailable")
	errRunRegStatus      = errors.New("unexpected runreg status")
)

// Client queries the RunReg search endpoint. Transient upstream failures (429
// and 5xx) are retried with exponential backoff behind a circuit breaker; any
// other non-OK status is treated as permanent and fails immediately.
type Client struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewClient creates a RunReg client. baseURL is the service root, e.g.
// "https://www.runreg.com".
func NewClient(client *http.Client, baseURL string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "runreg",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		name:           "runreg",
		baseURL:        baseURL,
		client:         client,
		circuit:        cb,
		maxRetries:     3,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     5 * time.Second,
	}
}

func (c *Client) Name() string {
	return c.name
}

// event mirrors a single entry of the RunReg search response.
type event struct {
	EventID    int64         `json:"EventId"`
	EventName  string        `json:"EventName"`
	EventTypes race.TypeList `json:"EventTypes"`
	EventDate  string        `json:"EventDate"`
	Latitude   float64       `json:"Latitude"`
	Longitude  float64       `json:"Longitude"`
	EventCity  string        `json:"EventCity"`
	EventState string        `json:"EventState"`
	EventURL   string        `json:"EventUrl"`
	CoverPhoto string        `json:"CoverPhoto"`
	EventLogo  string        `json:"EventLogo"`
}

// FetchUpcoming queries RunReg for events on or after from and returns them in
// the normalized race shape, tagged with their provenance. Events whose date
// cannot be parsed are still returned with a nil date.
func (c *Client) FetchUpcoming(ctx context.Context, from time.Time) ([]race.Race, error) {
	resp, err := c.search(ctx, from)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		MatchingEvents []event `json:"MatchingEvents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode runreg response: %w", err)
	}

	races := make([]race.Race, 0, len(payload.MatchingEvents))
	for _, ev := range payload.MatchingEvents {
		races = append(races, normalize(ev))
	}
	return races, nil
}

// search issues the search request, retrying transient failures with
// exponential backoff. The circuit breaker sees every attempt, so a flapping
// upstream eventually fails fast instead of burning retries.
func (c *Client) search(ctx context.Context, from time.Time) (*http.Response, error) {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := c.searchRequest(ctx, from)
		if err != nil {
			return nil, err
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				resp.Body.Close()
				return nil, errRunRegRateLimited
			case resp.StatusCode >= 500:
				resp.Body.Close()
				return nil, errRunRegUnavailable
			case resp.StatusCode != http.StatusOK:
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errRunRegStatus, resp.StatusCode)
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("runreg circuit open: %w", err)
		}
		// Non-OK statuses outside 429/5xx won't improve on retry.
		if errors.Is(err, errRunRegStatus) {
			return nil, err
		}

		lastErr = err
		if attempt >= c.maxRetries {
			return nil, lastErr
		}

		delay := c.initialBackoff << attempt
		if c.maxBackoff > 0 && delay > c.maxBackoff {
			delay = c.maxBackoff
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

func (c *Client) searchRequest(ctx context.Context, from time.Time) (*http.Request, error) {
	values := url.Values{}
	values.Set("startDate", from.Format("2006-01-02"))

	u := fmt.Sprintf("%s/api/search?%s", c.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func normalize(ev event) race.Race {
	image := ev.CoverPhoto
	if image == "" {
		image = ev.EventLogo
	}

	return race.Race{
		ID:         IDPrefix + strconv.FormatInt(ev.EventID, 10),
		Name:       ev.EventName,
		Types:      ev.EventTypes,
		RaceDate:   parseEventDate(ev.EventDate),
		Latitude:   ev.Latitude,
		Longitude:  ev.Longitude,
		City:       ev.EventCity,
		State:      ev.EventState,
		WebsiteURL: ev.EventURL,
		Image:      image,
		Source:     race.SourceRunReg,
	}
}

var epochDigits = regexp.MustCompile(`\d+`)

// parseEventDate converts the RunReg date encoding, a millisecond epoch wrapped
// in a marker string like "/Date(1760760000000-0400)/", into a UTC time. When no
// numeric timestamp is extractable the result is nil.
func parseEventDate(s string) *time.Time {
	digits := epochDigits.FindString(s)
	if digits == "" {
		return nil
	}
	ms, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
