package extract

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/mapstalk/mapstalk/internal/config"
	"github.com/mapstalk/mapstalk/internal/retry"
	"github.com/mapstalk/mapstalk/internal/types"
)

const extractPrompt = `Extract the following business details from the text below. Return a JSON object with these keys: Business Name, Business Type, Address, Phone Number, Email, Website. If a field is missing, use an empty string.

Text:
%s
`

// AIExtractor sends detail-view text to an external generation endpoint and
// parses a structured record out of the (possibly prose-wrapped) reply.
type AIExtractor struct {
	cfg    config.AIConfig
	client *http.Client
	policy retry.Policy
	logger *slog.Logger
}

// NewAIExtractor creates an extractor backed by the configured endpoint.
// Generation is slow, so the client gets its own timeout rather than the
// default.
func NewAIExtractor(cfg config.AIConfig, logger *slog.Logger) *AIExtractor {
	return &AIExtractor{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		policy: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BackoffBase,
			MaxDelay:    cfg.BackoffMax,
			Jitter:      0.25,
		},
		logger: logger.With("component", "ai_extractor"),
	}
}

// Extract asks the endpoint for the six business fields embedded in text.
// It returns (record, true) on success and (zero, false) on any terminal
// failure: exhausted retries, non-retryable HTTP errors, or an unparseable
// reply. Failure never surfaces as an error; the caller falls back to
// heuristic extraction.
func (e *AIExtractor) Extract(ctx context.Context, text string) (types.BusinessRecord, bool) {
	prompt := fmt.Sprintf(extractPrompt, text)

	var reply string
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		// Fixed pacing delay keeps request rate under the endpoint's limits.
		if e.cfg.PacingDelay > 0 {
			timer := time.NewTimer(e.cfg.PacingDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		var callErr error
		reply, callErr = e.generate(ctx, prompt)
		return callErr
	})
	if err != nil {
		e.logger.Warn("generation failed, falling back to heuristics", "error", err)
		return types.BusinessRecord{}, false
	}

	rec, ok := parseRecordReply(reply)
	if !ok {
		e.logger.Warn("generation reply not valid JSON", "reply_len", len(reply))
		return types.BusinessRecord{}, false
	}
	return rec, true
}

// generate performs one POST to the generation endpoint.
func (e *AIExtractor) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	body, _ := json.Marshal(payload)

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		strings.TrimRight(e.cfg.Endpoint, "/"), e.cfg.Model, url.QueryEscape(e.cfg.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &types.APIError{Err: err, Retryable: false}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &types.APIError{Err: err, Retryable: isTimeout(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &types.APIError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("rate limited"),
			Retryable:  true,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &types.APIError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))),
			Retryable:  false,
		}
	}

	reader, err := decompressReader(resp)
	if err != nil {
		return "", &types.APIError{Err: err, Retryable: false}
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(reader).Decode(&result); err != nil {
		return "", &types.APIError{Err: fmt.Errorf("decode response: %w", err), Retryable: false}
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &types.APIError{Err: fmt.Errorf("no candidates in response"), Retryable: false}
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// parseRecordReply pulls the first balanced JSON object out of the reply
// (the service wraps JSON in markdown or prose) and maps its named keys
// onto a record. Trailing extraneous content is ignored.
func parseRecordReply(reply string) (types.BusinessRecord, bool) {
	raw := extractJSON(reply)
	if raw == "" {
		return types.BusinessRecord{}, false
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return types.BusinessRecord{}, false
	}

	rec := types.BusinessRecord{
		Name:         fields["Business Name"],
		BusinessType: fields["Business Type"],
		Address:      fields["Address"],
		Phone:        fields["Phone Number"],
		Email:        fields["Email"],
		Website:      fields["Website"],
	}
	if rec.IsEmpty() {
		return types.BusinessRecord{}, false
	}
	return rec, true
}

// extractJSON finds the first balanced JSON object substring in s.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// decompressReader wraps the response body with the matching decompressor.
func decompressReader(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		return flate.NewReader(resp.Body), nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// isTimeout reports whether a transport error was a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parseRetryAfter parses the Retry-After header value (integer seconds or
// HTTP-date), capped at 2 minutes.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return time.Second
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 0
}
