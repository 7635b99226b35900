// Package upstream handles fetching slot inventory from the temple booking API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"darshan-notifier/pkg/booking"
)

// Summary enumerates which dates currently carry any inventory for one kind.
// Field names match the upstream schema verbatim.
type Summary struct {
	AvailableDatesList []string `json:"availableDatesList"`
	StartAndEndDates   []string `json:"startAndEndDates"`
	BlockedDates       []string `json:"blockedDates"`
	BookedDates        []string `json:"bookedDates"`
	MinCount           string   `json:"minCount"`
	MaxCount           string   `json:"maxCount"`
}

// Detail is the normalized per-date slot listing shared by both kinds.
type Detail struct {
	Slots      []booking.Slot
	MinPersons int
	MaxPersons int
	Price      *float64
}

// darshanDetail and aartiDetail mirror the two upstream response shapes
// before normalization into Detail.
type darshanDetail struct {
	DarshanSlots []struct {
		DarshanDate          string `json:"darshanDate"`
		SlotID               int    `json:"slotId"`
		SlotName             string `json:"slotName"`
		NoOfTicketsAvailable int    `json:"noOfTicketsAvailable"`
		SlotBeginTime        string `json:"slotBeginTime"`
		SlotEndTime          string `json:"slotEndTime"`
		ReportingTime        string `json:"reportingTime"`
	} `json:"darshanSlots"`
	MinPersons   int      `json:"minPersons"`
	MaxPersons   int      `json:"maxPersons"`
	DarshanPrice *float64 `json:"darshanPrice"`
	Flag         string   `json:"flag"`
}

type aartiDetail struct {
	AartiSlots []struct {
		AartiDate            string `json:"aartiDate"`
		SlotID               int    `json:"slotId"`
		SlotName             string `json:"slotName"`
		NoOfTicketsAvailable int    `json:"noOfTicketsAvailable"`
		SlotBeginTime        string `json:"slotBeginTime"`
		SlotEndTime          string `json:"slotEndTime"`
		ReportingStartTime   string `json:"reportingStartTime"`
		ReportingEndTime     string `json:"reportingEndTime"`
	} `json:"aartiSlots"`
	MinPersons int      `json:"minPersons"`
	MaxPersons int      `json:"maxPersons"`
	AartiPrice *float64 `json:"aartiPrice"`
	Flag       string   `json:"flag"`
}

// authHeader is the header the booking API expects the bearer token on.
const authHeader = "tof-auth-token"

// Client issues authenticated requests against the booking API.
// Calls carry no retry or caching; failures surface to the caller.
// The bearer token is passed per call since it is resolved per request.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	templeID   string
}

// New creates a new upstream client.
func New(httpClient *http.Client, baseURL, templeID string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		templeID:   templeID,
	}
}

// FetchSummary fetches the date-level inventory summary for a kind.
func (c *Client) FetchSummary(ctx context.Context, token string, kind booking.Kind) (*Summary, error) {
	var url string
	switch kind {
	case booking.Darshan:
		url = fmt.Sprintf("%s/eDarshan/darshansummary/%s", c.baseURL, c.templeID)
	case booking.Aarti:
		url = fmt.Sprintf("%s/eAarti/aartiSummary", c.baseURL)
	default:
		return nil, &booking.Error{Kind: booking.ErrInternal, Message: fmt.Sprintf("unknown kind %q", kind)}
	}

	var summary Summary
	if err := c.getJSON(ctx, token, url, &summary); err != nil {
		return nil, fmt.Errorf("fetch %s summary: %w", kind, err)
	}
	return &summary, nil
}

// FetchDetail fetches the slot listing for one date. The date is passed in
// the upstream's own key format (YYYY-M-D), not normalized.
func (c *Client) FetchDetail(ctx context.Context, token string, kind booking.Kind, date string) (*Detail, error) {
	switch kind {
	case booking.Darshan:
		url := fmt.Sprintf("%s/eDarshan/darshanAvailability/%s/%s", c.baseURL, date, c.templeID)
		var raw darshanDetail
		if err := c.getJSON(ctx, token, url, &raw); err != nil {
			return nil, fmt.Errorf("fetch darshan detail for %s: %w", date, err)
		}
		detail := &Detail{MinPersons: raw.MinPersons, MaxPersons: raw.MaxPersons, Price: raw.DarshanPrice}
		for _, s := range raw.DarshanSlots {
			detail.Slots = append(detail.Slots, booking.Slot{
				Kind:             booking.Darshan,
				ID:               s.SlotID,
				Name:             s.SlotName,
				Date:             s.DarshanDate,
				BeginTime:        s.SlotBeginTime,
				EndTime:          s.SlotEndTime,
				ReportingTime:    s.ReportingTime,
				TicketsAvailable: s.NoOfTicketsAvailable,
			})
		}
		return detail, nil

	case booking.Aarti:
		url := fmt.Sprintf("%s/eAarti/aartiAvailability/%s", c.baseURL, date)
		var raw aartiDetail
		if err := c.getJSON(ctx, token, url, &raw); err != nil {
			return nil, fmt.Errorf("fetch aarti detail for %s: %w", date, err)
		}
		detail := &Detail{MinPersons: raw.MinPersons, MaxPersons: raw.MaxPersons, Price: raw.AartiPrice}
		for _, s := range raw.AartiSlots {
			detail.Slots = append(detail.Slots, booking.Slot{
				Kind:               booking.Aarti,
				ID:                 s.SlotID,
				Name:               s.SlotName,
				Date:               s.AartiDate,
				BeginTime:          s.SlotBeginTime,
				EndTime:            s.SlotEndTime,
				ReportingStartTime: s.ReportingStartTime,
				ReportingEndTime:   s.ReportingEndTime,
				TicketsAvailable:   s.NoOfTicketsAvailable,
			})
		}
		return detail, nil

	default:
		return nil, &booking.Error{Kind: booking.ErrInternal, Message: fmt.Sprintf("unknown kind %q", kind)}
	}
}

func (c *Client) getJSON(ctx context.Context, token, url string, out any) error {
	if token == "" {
		return booking.NewUnauthorized("no auth token provided")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(authHeader, token)
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Warn("HTTP request failed",
			"url", url,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return booking.NewUpstream(0, "request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	c.logger.Debug("HTTP request completed",
		"url", url,
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds())

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("HTTP 401 Unauthorized - token expired or invalid", "url", url)
		return booking.NewUnauthorized("authentication token expired or invalid")
	}

	if resp.StatusCode != http.StatusOK {
		return booking.NewUpstream(resp.StatusCode, fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return booking.NewUpstream(resp.StatusCode, "decode response", err)
	}

	return nil
}
