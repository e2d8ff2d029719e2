package smoke

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Paths exercised by the checks.
const (
	PathLive    = "/health/live"
	PathReady   = "/health/ready"
	PathChat    = "/api/v1/chat/message"
	PathUnknown = "/nonexistent-endpoint"
)

// MaxMessageLength is the server's documented message limit.
const MaxMessageLength = 2000

// Check is one named request sequence against a deployment.
type Check struct {
	Name string
	Run  func(ctx context.Context, c *Client) error
	// Isolated checks must not share the deployment's rate limit budget
	// with other checks, so the runner gives them the server to themselves.
	Isolated bool
}

// DefaultChecks returns the full suite.
func DefaultChecks() []Check {
	return []Check{
		{Name: "liveness", Run: CheckLiveness},
		{Name: "readiness", Run: CheckReadiness},
		{Name: "chat_basic", Run: CheckChatBasic},
		{Name: "chat_validation", Run: CheckChatValidation},
		{Name: "chat_max_length", Run: CheckChatMaxLength},
		{Name: "session_persistence", Run: CheckSessionPersistence},
		{Name: "rate_limit_not_triggered", Run: CheckRateLimitNotTriggered, Isolated: true},
		{Name: "not_found", Run: CheckNotFound},
		{Name: "method_not_allowed", Run: CheckMethodNotAllowed},
	}
}

// Select returns the checks whose names are listed, in suite order.
// Unknown names are an error.
func Select(checks []Check, names []string) ([]Check, error) {
	if len(names) == 0 {
		return checks, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = true
	}
	var out []Check
	for _, c := range checks {
		if want[c.Name] {
			out = append(out, c)
			delete(want, c.Name)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for n := range want {
			unknown = append(unknown, n)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown checks: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// CheckLiveness expects 200 {"status":"healthy"}.
func CheckLiveness(ctx context.Context, c *Client) error {
	resp, err := c.Get(ctx, PathLive)
	if err != nil {
		return err
	}
	if err := resp.ExpectStatus(http.StatusOK); err != nil {
		return err
	}
	if got := resp.JSON("status").String(); got != "healthy" {
		return resp.Failf("expected status %q, got %q", "healthy", got)
	}
	return nil
}

// CheckReadiness expects 200 with status "ready" and a connected Redis.
func CheckReadiness(ctx context.Context, c *Client) error {
	resp, err := c.Get(ctx, PathReady)
	if err != nil {
		return err
	}
	if err := resp.ExpectStatus(http.StatusOK); err != nil {
		return err
	}
	if got := resp.JSON("status").String(); got != "ready" {
		return resp.Failf("expected status %q, got %q", "ready", got)
	}
	if !resp.JSON("checks").IsObject() {
		return resp.Failf("missing checks object")
	}
	if got := resp.JSON("checks.redis").String(); got != "connected" {
		return resp.Failf("expected checks.redis %q, got %q", "connected", got)
	}
	return nil
}

// sendChat posts one message and returns the response.
func sendChat(ctx context.Context, c *Client, message, sessionID string) (*Response, error) {
	body, err := ChatPayload(message, sessionID)
	if err != nil {
		return nil, fmt.Errorf("build chat payload: %w", err)
	}
	return c.PostJSON(ctx, PathChat, body)
}

// expectChatReply checks a 200 reply and returns its session id.
func expectChatReply(resp *Response) (string, error) {
	if err := resp.ExpectStatus(http.StatusOK); err != nil {
		return "", err
	}
	reply := resp.JSON("response")
	if reply.Type != gjson.String || reply.String() == "" {
		return "", resp.Failf("expected non-empty string response")
	}
	sessionID := resp.JSON("session_id")
	if !sessionID.Exists() || sessionID.String() == "" {
		return "", resp.Failf("missing session_id")
	}
	return sessionID.String(), nil
}

// CheckChatBasic sends a first message without a session.
func CheckChatBasic(ctx context.Context, c *Client) error {
	resp, err := sendChat(ctx, c, "I want to fly from NYC to LAX next week", "")
	if err != nil {
		return err
	}
	_, err = expectChatReply(resp)
	return err
}

// CheckChatValidation expects an empty message to be rejected with 422.
func CheckChatValidation(ctx context.Context, c *Client) error {
	resp, err := sendChat(ctx, c, "", "")
	if err != nil {
		return err
	}
	return resp.ExpectStatus(http.StatusUnprocessableEntity)
}

// CheckChatMaxLength sends one character over the limit. Both truncation
// (200) and rejection (422) are accepted.
func CheckChatMaxLength(ctx context.Context, c *Client) error {
	resp, err := sendChat(ctx, c, strings.Repeat("a", MaxMessageLength+1), "")
	if err != nil {
		return err
	}
	return resp.ExpectStatus(http.StatusOK, http.StatusUnprocessableEntity)
}

// CheckSessionPersistence sends two messages; the second reuses the first
// reply's session and must get the same id back.
func CheckSessionPersistence(ctx context.Context, c *Client) error {
	resp, err := sendChat(ctx, c, "Hello", "")
	if err != nil {
		return err
	}
	first, err := expectChatReply(resp)
	if err != nil {
		return err
	}

	resp, err = sendChat(ctx, c, "I want to fly to Paris", first)
	if err != nil {
		return err
	}
	second, err := expectChatReply(resp)
	if err != nil {
		return err
	}
	if second != first {
		return resp.Failf("expected session_id %q, got %q", first, second)
	}
	return nil
}

// CheckRateLimitNotTriggered sends a few normal messages in a row; none may
// be throttled.
func CheckRateLimitNotTriggered(ctx context.Context, c *Client) error {
	for i := 0; i < 3; i++ {
		resp, err := sendChat(ctx, c, fmt.Sprintf("Test message %d", i), "")
		if err != nil {
			return err
		}
		if err := resp.ExpectStatus(http.StatusOK); err != nil {
			return fmt.Errorf("request %d: %w", i+1, err)
		}
	}
	return nil
}

// CheckNotFound expects 404 for an unknown path.
func CheckNotFound(ctx context.Context, c *Client) error {
	resp, err := c.Get(ctx, PathUnknown)
	if err != nil {
		return err
	}
	return resp.ExpectStatus(http.StatusNotFound)
}

// CheckMethodNotAllowed expects 405 for PUT on the chat endpoint.
func CheckMethodNotAllowed(ctx context.Context, c *Client) error {
	resp, err := c.Do(ctx, http.MethodPut, PathChat, `{"message":"test"}`)
	if err != nil {
		return err
	}
	return resp.ExpectStatus(http.StatusMethodNotAllowed)
}
