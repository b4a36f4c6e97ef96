package mining

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"pi-account-checker/core/utils"
)

// ProbeResult is the interpreted outcome of one upstream status call, plus
// the raw body for archiving.
type ProbeResult struct {
	// Fields parsed from the response, nil/empty when absent.
	Balance           *float64
	MiningActive      *bool
	ExpiresAt         string
	ValidUntil        string
	LastMinedAt       string
	HourlyRatio       *float64
	TeamCount         *int
	MiningCount       *int
	CompletedSessions *int
	Username          string

	// ErrorText is the upstream error message, when the call was answered
	// with one. An already-running rejection lands here and still counts
	// as evidence of an active session.
	ErrorText string

	// Response is the decoded body.
	Response map[string]any

	// Raw is the body exactly as received, for the archive.
	Raw []byte
}

// Prober calls the upstream service for one account's mining status.
type Prober struct {
	baseURL string
	client  *http.Client
}

// NewProber creates an upstream status client. Timeouts are strict: a hung
// probe must never stall the scheduler.
func NewProber(baseURL string, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Prober{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Probe fetches the current mining status for one account. Upstream error
// payloads are returned as a ProbeResult with ErrorText set, not as a Go
// error: they carry signal the resolver needs.
func (p *Prober) Probe(ctx context.Context, accessToken string) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/proof_of_presences", bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, fmt.Errorf("failed to build probe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read probe response: %w", err)
	}

	result := &ProbeResult{Raw: raw}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("probe rejected with status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode probe response: %w", err)
	}
	result.Response = body

	interpret(result, body)

	if result.ErrorText == "" && resp.StatusCode >= 400 {
		result.ErrorText = fmt.Sprintf("upstream status %d", resp.StatusCode)
	}
	return result, nil
}

// interpret pulls the known fields out of the response body. The upstream
// shape has drifted over time, so every extraction tolerates absence.
func interpret(result *ProbeResult, body map[string]any) {
	if msg, ok := body["error"].(string); ok {
		result.ErrorText = msg
	} else if msg, ok := body["error_message"].(string); ok {
		result.ErrorText = msg
	}

	if v, ok := body["balance"]; ok && utils.IsNumeric(v) {
		f := utils.ToFloat(v)
		result.Balance = &f
	}
	if v, ok := body["mining_active"].(bool); ok {
		result.MiningActive = &v
	}
	if v, ok := body["expires_at"].(string); ok {
		result.ExpiresAt = v
	}
	if v, ok := body["valid_until"].(string); ok {
		result.ValidUntil = v
	}
	if v, ok := body["last_mined_at"].(string); ok {
		result.LastMinedAt = v
	}
	if v, ok := body["username"].(string); ok {
		result.Username = v
	}

	if v, ok := body["hourly_ratio"]; ok && utils.IsNumeric(v) {
		f := utils.ToFloat(v)
		result.HourlyRatio = &f
	}
	if v, ok := body["earning_team"].(map[string]any); ok {
		if n, ok := v["team_count"]; ok && utils.IsNumeric(n) {
			c := utils.ToInt(n)
			result.TeamCount = &c
		}
	}
	if v, ok := body["mining_count"]; ok && utils.IsNumeric(v) {
		c := utils.ToInt(v)
		result.MiningCount = &c
	}
	if v, ok := body["completed_sessions_count"]; ok && utils.IsNumeric(v) {
		c := utils.ToInt(v)
		result.CompletedSessions = &c
	}
}
