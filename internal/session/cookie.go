// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
)

// CookieCodec signs, writes, reads, and clears the session cookie.
type CookieCodec struct {
	secret []byte
	secure bool
}

// NewCookieCodec creates a codec signing with secret. Secure cookies are
// only sent over HTTPS, so secure is enabled in production.
func NewCookieCodec(secret string, secure bool) (*CookieCodec, error) {
	if secret == "" {
		return nil, oops.Code("SESSION_INVALID_SECRET").Errorf("session secret is required")
	}
	return &CookieCodec{secret: []byte(secret), secure: secure}, nil
}

// Encode returns "<token>.<signature>".
func (c *CookieCodec) Encode(token string) string {
	return token + "." + c.sign(token)
}

// Decode verifies value and returns the token it carries.
func (c *CookieCodec) Decode(value string) (string, bool) {
	token, sig, ok := cutLast(value, ".")
	if !ok || token == "" || sig == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(token))) {
		return "", false
	}
	return token, true
}

func (c *CookieCodec) sign(token string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Read returns the verified token from the request cookie. Missing,
// unsigned, and tampered cookies all read as no session.
func (c *CookieCodec) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return c.Decode(strings.TrimSpace(cookie.Value))
}

// Write sets the signed session cookie.
func (c *CookieCodec) Write(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    c.Encode(token),
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie on the client.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
