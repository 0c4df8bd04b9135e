package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/upinformatica/prenotabot/internal/config"
	domerrors "github.com/upinformatica/prenotabot/internal/errors"
	"github.com/upinformatica/prenotabot/internal/logger"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// MetricsRecorder defines the interface for recording calendar request metrics
type MetricsRecorder interface {
	RecordCalendarRequest(operation, status string, duration float64)
}

// Client is a Google Calendar v3 REST client authenticated with a
// service account.
type Client struct {
	httpClient *http.Client
	baseURL    string
	calendarID string
	tokens     oauth2.TokenSource
	log        *logger.Logger
	metrics    MetricsRecorder
	maxRetries int
}

// NewClient creates a calendar client for the given calendar ID using
// the service-account credentials file at credentialsPath.
func NewClient(calendarID, credentialsPath string, log *logger.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: config.CalendarRequest}

	tokens, err := newTokenSource(credentialsPath, httpClient)
	if err != nil {
		return nil, fmt.Errorf("init calendar auth: %w", err)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		calendarID: calendarID,
		tokens:     tokens,
		log:        log.WithModule("calendar"),
		maxRetries: config.CalendarMaxRetries,
	}, nil
}

// SetMetrics sets the metrics recorder for calendar request monitoring
func (c *Client) SetMetrics(recorder MetricsRecorder) {
	c.metrics = recorder
}

// eventResource mirrors the Calendar v3 event JSON.
type eventResource struct {
	ID          string        `json:"id,omitempty"`
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
	HTMLLink    string        `json:"htmlLink,omitempty"`
	Reminders   *reminders    `json:"reminders,omitempty"`
	Status      string        `json:"status,omitempty"`
}

type eventDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type reminders struct {
	UseDefault bool               `json:"useDefault"`
	Overrides  []reminderOverride `json:"overrides,omitempty"`
}

type reminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

type eventList struct {
	Items []eventResource `json:"items"`
}

// ListEvents returns all events in [from, to) ordered by start time.
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	query := url.Values{
		"timeMin":      {from.UTC().Format(time.RFC3339)},
		"timeMax":      {to.UTC().Format(time.RFC3339)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
		"maxResults":   {"50"},
	}
	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s",
		c.baseURL, url.PathEscape(c.calendarID), query.Encode())

	var list eventList
	if err := c.do(ctx, "list", http.MethodGet, endpoint, nil, &list); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(list.Items))
	for _, item := range list.Items {
		event, err := item.toEvent()
		if err != nil {
			c.log.WithError(err).Warnf("skipping unparseable event %s", item.ID)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// InsertEvent creates an event and returns its ID. Reminder overrides
// match what the business expects: a popup 15 minutes before and an
// email an hour before.
func (c *Client) InsertEvent(ctx context.Context, event Event) (string, error) {
	body := eventResource{
		Summary:     event.Summary,
		Description: event.Description,
		Start: eventDateTime{
			DateTime: event.Start.UTC().Format(time.RFC3339),
			TimeZone: "Europe/Rome",
		},
		End: eventDateTime{
			DateTime: event.End.UTC().Format(time.RFC3339),
			TimeZone: "Europe/Rome",
		},
		Reminders: &reminders{
			UseDefault: false,
			Overrides: []reminderOverride{
				{Method: "popup", Minutes: 15},
				{Method: "email", Minutes: 60},
			},
		},
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(c.calendarID))

	var created eventResource
	if err := c.do(ctx, "insert", http.MethodPost, endpoint, body, &created); err != nil {
		return "", err
	}

	c.log.Info("appointment created", "event_id", created.ID, "link", created.HTMLLink)
	return created.ID, nil
}

// do performs an authenticated request with retry and decodes the
// JSON response into out.
func (c *Client) do(ctx context.Context, operation, method, endpoint string, body, out any) error {
	start := time.Now()

	err := RetryWithBackoff(ctx, c.maxRetries, config.CalendarRetryInitial, func() error {
		return c.doOnce(ctx, method, endpoint, body, out)
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordCalendarRequest(operation, status, time.Since(start).Seconds())
	}

	if err != nil {
		c.log.WithError(err).Errorf("calendar %s failed", operation)
		return domerrors.NewCalendarError(operation, statusCodeOf(err), err)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return markPermanent(fmt.Errorf("marshal request body: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return markPermanent(fmt.Errorf("build request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("get access token: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read calendar response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := &httpStatusError{status: resp.StatusCode, body: string(data)}
		// Client errors will not succeed on retry; 429 is the exception.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return markPermanent(err)
		}
		return err
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return markPermanent(fmt.Errorf("parse calendar response: %w", err))
		}
	}
	return nil
}

// httpStatusError carries a non-2xx calendar API response.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("calendar API returned %d: %s", e.status, e.body)
}

func statusCodeOf(err error) int {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.status
	}
	return 0
}

func (r eventResource) toEvent() (Event, error) {
	start, err := r.Start.parse()
	if err != nil {
		return Event{}, fmt.Errorf("parse event start: %w", err)
	}
	end, err := r.End.parse()
	if err != nil {
		return Event{}, fmt.Errorf("parse event end: %w", err)
	}
	return Event{
		ID:          r.ID,
		Summary:     r.Summary,
		Description: r.Description,
		Start:       start,
		End:         end,
		HTMLLink:    r.HTMLLink,
	}, nil
}

func (dt eventDateTime) parse() (time.Time, error) {
	if dt.DateTime != "" {
		return time.Parse(time.RFC3339, dt.DateTime)
	}
	// All-day events carry a date only
	return time.Parse("2006-01-02", dt.Date)
}
