package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestSigninUpdatesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/auth/signin")
		assert.Equal(t, r.Method, http.MethodPost)

		signin := &SigninArgs{}
		json.NewDecoder(r.Body).Decode(signin)
		json.NewEncoder(w).Encode(&User{Id: "u1", Username: signin.Username})
	}))
	defer server.Close()

	session := NewSession()
	authApi := NewAuthApi(newTestFetcher(server), session)

	user, err := authApi.SigninSync(context.Background(), &SigninArgs{
		Username: "ada",
		Password: "hunter2",
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, user.Username, "ada")
	assert.Equal(t, session.IsAuthenticated(), true)
	assert.Equal(t, session.CurrentUser().Id, "u1")
}

func TestSignoutClearsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	session := NewSession()
	session.UpdateUser(&User{Id: "u1"})
	authApi := NewAuthApi(newTestFetcher(server), session)

	err := authApi.SignoutSync(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, session.IsAuthenticated(), false)
}

func TestBootstrapRefreshesExpiredSession(t *testing.T) {
	var mutex sync.Mutex
	refreshed := false
	meCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		defer mutex.Unlock()

		switch r.URL.Path {
		case "/auth/me":
			meCalls += 1
			if !refreshed {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(&User{Id: "u1", Username: "ada"})
		case RefreshPath:
			refreshed = true
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	session := NewSession()
	authApi := NewAuthApi(newTestFetcher(server), session)

	authApi.Bootstrap(context.Background())

	assert.Equal(t, session.IsAuthenticated(), true)
	assert.Equal(t, session.CurrentUser().Username, "ada")
	assert.Equal(t, meCalls, 2)
}

func TestBootstrapUnreachableBackend(t *testing.T) {
	server := httptest.NewServer(nil)
	server.Close()

	session := NewSession()
	authApi := NewAuthApi(NewFetcher(NewClient(server.URL)), session)

	// never fails the caller, session stays empty
	authApi.Bootstrap(context.Background())
	assert.Equal(t, session.IsAuthenticated(), false)
}

func TestBootstrapSkipsWhenAuthenticated(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	session := NewSession()
	session.UpdateUser(&User{Id: "u1"})
	authApi := NewAuthApi(newTestFetcher(server), session)

	authApi.Bootstrap(context.Background())
	assert.Equal(t, called, false)
}

func TestWatchUser(t *testing.T) {
	session := NewSession()

	transitions := []*User{}
	unsubscribe := session.WatchUser(func(user *User) {
		transitions = append(transitions, user)
	})
	defer unsubscribe()

	session.UpdateUser(&User{Id: "u1"})
	session.UpdateUser(nil)

	assert.Equal(t, len(transitions), 2)
	assert.Equal(t, transitions[0].Id, "u1")
	assert.Equal(t, transitions[1], nil)
}
