package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// maxSkew bounds how stale a Slack request timestamp may be before it's
// rejected as a possible replay.
const maxSkew = 5 * time.Minute

// verifySlackSignature checks a request's X-Slack-Signature header
// against the signing scheme Slack documents: HMAC-SHA256 of
// "v0:<timestamp>:<body>" under the app's signing secret, hex-encoded
// and prefixed with "v0=".
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	if signingSecret == "" {
		return fmt.Errorf("webhook: signing secret not configured")
	}
	if timestamp == "" || signature == "" {
		return fmt.Errorf("webhook: missing signature headers")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("webhook: malformed timestamp: %w", err)
	}
	if math.Abs(time.Since(time.Unix(ts, 0)).Seconds()) > maxSkew.Seconds() {
		return fmt.Errorf("webhook: request timestamp outside allowed skew")
	}

	base := "v0:" + timestamp + ":" + string(body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte(base))
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("webhook: signature mismatch")
	}
	return nil
}

// constantTimeEqual compares two API keys without leaking timing
// information about where they first differ.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return hmac.Equal([]byte(a), []byte(b)) && strings.TrimSpace(a) != ""
}
