package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang/glog"
)

const RefreshPath = "/auth/refresh"

const sessionCookieName = "access_token"

// Refresher renews an expired session via the refresh endpoint. It never
// returns an error: a logical call either gets a renewed session or keeps
// its original failure.
type Refresher struct {
	client *Client

	tokenExpiry *SessionToken
}

func NewRefresher(client *Client) *Refresher {
	return &Refresher{
		client: client,
	}
}

// Refresh posts to the refresh endpoint with credentials included. In
// server-render mode the inbound Cookie header is forwarded by the client
// and any Set-Cookie response headers are handed to the configured sink;
// in browser-like mode the jar does both automatically.
func (self *Refresher) Refresh(ctx context.Context) bool {
	response, err := self.client.ExecuteRaw(ctx, &Request{
		Path:   RefreshPath,
		Method: http.MethodPost,
	})
	if err != nil {
		glog.Warningf("[auth]refresh failed: %v\n", err)
		return false
	}

	setCookies := response.Header.Values("Set-Cookie")
	if sink := self.client.setCookieSink; sink != nil && 0 < len(setCookies) {
		sink(setCookies)
	}
	self.recordTokenExpiry(setCookies)

	glog.Infof("[auth]session refreshed\n")
	return true
}

// SessionToken returns the claims of the most recently issued access
// token, when the refresh response exposed one. Nil until the first
// successful refresh that set the session cookie.
func (self *Refresher) SessionToken() *SessionToken {
	return self.tokenExpiry
}

func (self *Refresher) recordTokenExpiry(setCookies []string) {
	for _, setCookie := range setCookies {
		name, value, found := strings.Cut(strings.SplitN(setCookie, ";", 2)[0], "=")
		if !found || name != sessionCookieName {
			continue
		}
		sessionToken, err := ParseSessionTokenUnverified(value)
		if err != nil {
			continue
		}
		self.tokenExpiry = sessionToken
	}
}
