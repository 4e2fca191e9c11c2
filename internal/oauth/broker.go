// Package oauth implements the authorization-code flow used to connect a
// Slack user's calendar and drive access.
package oauth

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/monday-agents/gateway/internal/store"
)

// Sentinel errors returned by Broker's exported methods.
var (
	ErrInvalidState  = errors.New("oauth: invalid state")
	ErrMissingTokens = errors.New("oauth: exchange did not return both tokens")
	ErrNotConnected  = errors.New("oauth: subject has not connected")
)

const scopes = "https://www.googleapis.com/auth/calendar https://www.googleapis.com/auth/drive"

// Client is a pre-authenticated HTTP client for calendar/drive calls, with
// automatic token refresh baked in via httpClient's transport... in this
// codebase callers instead just receive the current AccessToken and issue
// their own requests, since the calendar/drive micro-agent tool loop needs
// to see specific endpoints, not raw HTTP plumbing.
type Client struct {
	AccessToken string
	SubjectID   string
}

// Broker manages the authorization-code flow and token lifecycle.
type Broker struct {
	clientID     string
	clientSecret string
	redirectURL  string
	signingKey   string

	tokens     store.TokenStore
	httpClient *http.Client

	authURL     string
	tokenURL    string
	revokeURL   string
	nowFunc     func() time.Time
}

// New creates a Broker.
func New(clientID, clientSecret, redirectURL, signingKey string, tokens store.TokenStore) *Broker {
	return &Broker{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		signingKey:   signingKey,
		tokens:       tokens,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		authURL:      "https://accounts.google.com/o/oauth2/v2/auth",
		tokenURL:     "https://oauth2.googleapis.com/token",
		revokeURL:    "https://oauth2.googleapis.com/revoke",
		nowFunc:      time.Now,
	}
}

// AuthURL builds the authorization URL for subjectID, embedding a
// tamper-evident state parameter.
func (b *Broker) AuthURL(subjectID string) string {
	state := b.signState(subjectID)
	v := url.Values{}
	v.Set("client_id", b.clientID)
	v.Set("redirect_uri", b.redirectURL)
	v.Set("response_type", "code")
	v.Set("access_type", "offline")
	v.Set("prompt", "consent")
	v.Set("scope", scopes)
	v.Set("state", state)
	return b.authURL + "?" + v.Encode()
}

func (b *Broker) signState(subjectID string) string {
	mac := hmac.New(sha256.New, []byte(b.signingKey))
	mac.Write([]byte(subjectID))
	sig := hex.EncodeToString(mac.Sum(nil))
	return subjectID + ":" + sig
}

// HandleCallback validates state, exchanges code for tokens, and upserts
// the resulting record.
func (b *Broker) HandleCallback(ctx context.Context, code, state string) (subjectID string, err error) {
	parts := strings.SplitN(state, ":", 2)
	if len(parts) != 2 {
		return "", ErrInvalidState
	}
	subjectID, providedSig := parts[0], parts[1]

	mac := hmac.New(sha256.New, []byte(b.signingKey))
	mac.Write([]byte(subjectID))
	expectedSig := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(providedSig), []byte(expectedSig)) {
		slog.Warn("oauth callback state mismatch", "subject_id", subjectID)
		return "", ErrInvalidState
	}

	access, refresh, expiresIn, err := b.exchangeCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("oauth: exchange code: %w", err)
	}
	if access == "" || refresh == "" {
		return "", ErrMissingTokens
	}

	rec := store.TokenRecord{
		SubjectID:    subjectID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiryMS:     b.nowFunc().Add(time.Duration(expiresIn) * time.Second).UnixMilli(),
		Scope:        scopes,
	}
	if err := b.tokens.Upsert(ctx, rec); err != nil {
		return "", fmt.Errorf("oauth: persist token: %w", err)
	}
	return subjectID, nil
}

// GetClient returns a pre-authenticated Client for subjectID, refreshing
// the access token synchronously if it has expired.
func (b *Broker) GetClient(ctx context.Context, subjectID string) (*Client, error) {
	rec, ok, err := b.tokens.Get(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("oauth: load token: %w", err)
	}
	if !ok {
		return nil, ErrNotConnected
	}

	if rec.ExpiryMS < b.nowFunc().UnixMilli() {
		newAccess, expiresIn, err := b.refresh(ctx, rec.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("oauth: refresh token: %w", err)
		}
		rec.AccessToken = newAccess
		rec.ExpiryMS = b.nowFunc().Add(time.Duration(expiresIn) * time.Second).UnixMilli()
		if err := b.tokens.Upsert(ctx, rec); err != nil {
			return nil, fmt.Errorf("oauth: persist refreshed token: %w", err)
		}
	}

	return &Client{AccessToken: rec.AccessToken, SubjectID: subjectID}, nil
}

// IsConnected reports whether a token record exists for subjectID.
func (b *Broker) IsConnected(ctx context.Context, subjectID string) bool {
	_, ok, err := b.tokens.Get(ctx, subjectID)
	return err == nil && ok
}

// Disconnect best-effort revokes the access token then deletes the record
// unconditionally, even if revocation fails (tokens may already be
// expired).
func (b *Broker) Disconnect(ctx context.Context, subjectID string) error {
	rec, ok, err := b.tokens.Get(ctx, subjectID)
	if err == nil && ok {
		if revokeErr := b.revoke(ctx, rec.AccessToken); revokeErr != nil {
			slog.Warn("oauth revoke failed, deleting record anyway", "subject_id", subjectID, "error", revokeErr)
		}
	}
	return b.tokens.Delete(ctx, subjectID)
}

func (b *Broker) exchangeCode(ctx context.Context, code string) (access, refresh string, expiresIn int, err error) {
	form := url.Values{}
	form.Set("client_id", b.clientID)
	form.Set("client_secret", b.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", b.redirectURL)
	form.Set("grant_type", "authorization_code")

	var out tokenExchangeResponse
	if err := b.postForm(ctx, b.tokenURL, form, &out); err != nil {
		return "", "", 0, err
	}
	return out.AccessToken, out.RefreshToken, out.ExpiresIn, nil
}

func (b *Broker) refresh(ctx context.Context, refreshToken string) (access string, expiresIn int, err error) {
	form := url.Values{}
	form.Set("client_id", b.clientID)
	form.Set("client_secret", b.clientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")

	var out tokenExchangeResponse
	if err := b.postForm(ctx, b.tokenURL, form, &out); err != nil {
		return "", 0, err
	}
	return out.AccessToken, out.ExpiresIn, nil
}

func (b *Broker) revoke(ctx context.Context, token string) error {
	form := url.Values{}
	form.Set("token", token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("oauth: revoke returned status %d", resp.StatusCode)
	}
	return nil
}

type tokenExchangeResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (b *Broker) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte(form.Encode())))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("oauth: token endpoint returned status %d: %s", resp.StatusCode, raw)
	}
	return json.Unmarshal(raw, out)
}
