// Package googleapi is a minimal REST client for the two Google APIs
// the gateway's OAuth-gated features need: Calendar (meeting-sync) and
// Drive (transcript lookup, drive intent). Only the endpoints and
// fields these features touch are modeled.
package googleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// calendarEventsURL is a var, not a const, so tests can point it at an
// httptest.Server standing in for googleapis.com.
var calendarEventsURL = "https://www.googleapis.com/calendar/v3/calendars/primary/events"

var httpClient = &http.Client{Timeout: 20 * time.Second}

// WithCalendarURLForTest points ListEvents at an alternate endpoint
// (an httptest.Server) and returns a func that restores the original.
// Exported so tests in other packages (internal/meetingsync) can
// redirect calls made through this package without a stub interface.
func WithCalendarURLForTest(url string) func() {
	original := calendarEventsURL
	calendarEventsURL = url
	return func() { calendarEventsURL = original }
}

// Event is the subset of a Calendar API event resource the gateway
// inspects.
type Event struct {
	ID             string    `json:"id"`
	Summary        string    `json:"summary"`
	Start          EventTime `json:"start"`
	End            EventTime `json:"end"`
	ConferenceData *struct {
		ConferenceID string `json:"conferenceId"`
	} `json:"conferenceData,omitempty"`
}

// EventTime is Calendar API's dateTime-or-date union; only dateTime
// events are meaningful for meeting-sync.
type EventTime struct {
	DateTime string `json:"dateTime"`
}

// HasConference reports whether the event carries video-conference
// data, the gate meeting-sync applies before considering an event.
func (e Event) HasConference() bool {
	return e.ConferenceData != nil
}

// End parses the event's end time, returning the zero time if absent
// or malformed.
func (e Event) EndTime() time.Time {
	t, err := time.Parse(time.RFC3339, e.End.DateTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

type eventsListResponse struct {
	Items []Event `json:"items"`
}

// ListEvents fetches calendar events for the authenticated user whose
// window overlaps [timeMin, timeMax].
func ListEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]Event, error) {
	v := url.Values{}
	v.Set("timeMin", timeMin.Format(time.RFC3339))
	v.Set("timeMax", timeMax.Format(time.RFC3339))
	v.Set("singleEvents", "true")
	v.Set("orderBy", "startTime")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, calendarEventsURL+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("googleapi: build calendar request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var out eventsListResponse
	if err := do(req, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetEvent fetches a single event by id.
func GetEvent(ctx context.Context, accessToken, eventID string) (Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, calendarEventsURL+"/"+url.PathEscape(eventID), nil)
	if err != nil {
		return Event{}, fmt.Errorf("googleapi: build get-event request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var out Event
	if err := do(req, &out); err != nil {
		return Event{}, err
	}
	return out, nil
}

type eventPatch struct {
	Summary string     `json:"summary,omitempty"`
	Start   *EventTime `json:"start,omitempty"`
	End     *EventTime `json:"end,omitempty"`
}

// CreateEvent creates a new calendar event.
func CreateEvent(ctx context.Context, accessToken, summary string, start, end time.Time) (Event, error) {
	body, err := json.Marshal(eventPatch{
		Summary: summary,
		Start:   &EventTime{DateTime: start.Format(time.RFC3339)},
		End:     &EventTime{DateTime: end.Format(time.RFC3339)},
	})
	if err != nil {
		return Event{}, fmt.Errorf("googleapi: marshal create-event body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, calendarEventsURL, bytes.NewReader(body))
	if err != nil {
		return Event{}, fmt.Errorf("googleapi: build create-event request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	var out Event
	if err := do(req, &out); err != nil {
		return Event{}, err
	}
	return out, nil
}

// UpdateEvent patches an existing event's summary and/or time window.
func UpdateEvent(ctx context.Context, accessToken, eventID, summary string, start, end time.Time) (Event, error) {
	patch := eventPatch{Summary: summary}
	if !start.IsZero() {
		patch.Start = &EventTime{DateTime: start.Format(time.RFC3339)}
	}
	if !end.IsZero() {
		patch.End = &EventTime{DateTime: end.Format(time.RFC3339)}
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return Event{}, fmt.Errorf("googleapi: marshal update-event body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, calendarEventsURL+"/"+url.PathEscape(eventID), bytes.NewReader(body))
	if err != nil {
		return Event{}, fmt.Errorf("googleapi: build update-event request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	var out Event
	if err := do(req, &out); err != nil {
		return Event{}, err
	}
	return out, nil
}

// DeleteEvent removes an event by id.
func DeleteEvent(ctx context.Context, accessToken, eventID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, calendarEventsURL+"/"+url.PathEscape(eventID), nil)
	if err != nil {
		return fmt.Errorf("googleapi: build delete-event request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return do(req, &struct{}{})
}

func do(req *http.Request, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("googleapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("googleapi: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("googleapi: request returned status %d: %s", resp.StatusCode, raw)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("googleapi: decode response: %w", err)
	}
	return nil
}
