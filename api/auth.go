package api

import (
	"context"
	"net/http"

	"github.com/golang/glog"
)

// AuthApi drives the session lifecycle against the auth endpoints.
// Signin/signout mutate the shared Session so every consumer observes the
// same authentication state.
type AuthApi struct {
	fetcher *Fetcher
	session *Session
}

func NewAuthApi(fetcher *Fetcher, session *Session) *AuthApi {
	return &AuthApi{
		fetcher: fetcher,
		session: session,
	}
}

func (self *AuthApi) Session() *Session {
	return self.session
}

type SigninArgs struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (self *AuthApi) SigninSync(ctx context.Context, signin *SigninArgs) (*User, error) {
	user, err := FetchSync[*User](ctx, self.fetcher, &Request{
		Path:   "/auth/signin",
		Method: http.MethodPost,
		Body:   signin,
	})
	if err != nil {
		return nil, err
	}
	self.session.UpdateUser(user)
	return user, nil
}

func (self *AuthApi) Signin(ctx context.Context, signin *SigninArgs, callback Callback[*User]) {
	go func() {
		user, err := self.SigninSync(ctx, signin)
		callback.Result(user, err)
	}()
}

// MeSync loads the current user through the authenticated fetch layer, so
// an expired session refreshes transparently.
func (self *AuthApi) MeSync(ctx context.Context) (*User, error) {
	user, err := FetchSync[*User](ctx, self.fetcher, &Request{
		Path:   "/auth/me",
		Method: http.MethodGet,
	})
	if err != nil {
		return nil, err
	}
	self.session.UpdateUser(user)
	return user, nil
}

func (self *AuthApi) Me(ctx context.Context, callback Callback[*User]) {
	go func() {
		user, err := self.MeSync(ctx)
		callback.Result(user, err)
	}()
}

func (self *AuthApi) SignoutSync(ctx context.Context) error {
	_, err := FetchSync[struct{}](ctx, self.fetcher, &Request{
		Path:   "/auth/signout",
		Method: http.MethodPost,
	})
	// signed out locally regardless of what the backend said
	self.session.UpdateUser(nil)
	return err
}

type SignupArgs struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

func (self *AuthApi) SignupSync(ctx context.Context, signup *SignupArgs) (*User, error) {
	return FetchSync[*User](ctx, self.fetcher, &Request{
		Path:   "/auth/signup",
		Method: http.MethodPost,
		Body:   signup,
	})
}

func (self *AuthApi) VerifyEmailSync(ctx context.Context, code string) error {
	_, err := FetchSync[struct{}](ctx, self.fetcher, &Request{
		Path:   "/auth/verify-email",
		Method: http.MethodPost,
		Body:   map[string]any{"code": code},
	})
	return err
}

func (self *AuthApi) SendEmailVerificationSync(ctx context.Context, username string) error {
	_, err := FetchSync[struct{}](ctx, self.fetcher, &Request{
		Path:   "/auth/send-email-verification",
		Method: http.MethodPost,
		Body:   map[string]any{"username": username},
	})
	return err
}

func (self *AuthApi) RequestPasswordSync(ctx context.Context, email string) error {
	_, err := FetchSync[struct{}](ctx, self.fetcher, &Request{
		Path:   "/auth/request-password",
		Method: http.MethodPost,
		Body:   map[string]any{"email": email},
	})
	return err
}

func (self *AuthApi) ResetPasswordSync(ctx context.Context, code string, password string) error {
	_, err := FetchSync[struct{}](ctx, self.fetcher, &Request{
		Path:   "/auth/reset-password",
		Method: http.MethodPost,
		Body:   map[string]any{"code": code, "password": password},
	})
	return err
}

func (self *AuthApi) UpdateLastSeenSync(ctx context.Context) error {
	_, err := FetchSync[struct{}](ctx, self.fetcher, &Request{
		Path:   "/auth/update-last-seen",
		Method: http.MethodPost,
	})
	return err
}

// Bootstrap restores the session at process start, the way a server
// render does: load the current user; on session expiry refresh once and
// load again. Never fails the caller — an unauthenticated or unreachable
// backend just leaves the session empty.
func (self *AuthApi) Bootstrap(ctx context.Context) {
	if self.session.IsAuthenticated() {
		return
	}

	// direct execute, so the refresh step stays explicit here
	loadUser := func() (bool, error) {
		body, err := self.fetcher.client.Execute(ctx, &Request{
			Path:   "/auth/me",
			Method: http.MethodGet,
		})
		if err != nil {
			return false, err
		}
		user := &User{}
		if err := unmarshalBody(body, user); err != nil {
			return false, err
		}
		self.session.UpdateUser(user)
		return true, nil
	}

	loaded, err := loadUser()
	if loaded {
		glog.Infof("[auth]user loaded\n")
		return
	}
	if !IsUnauthorized(err) {
		glog.Warningf("[auth]bootstrap failed: %v\n", err)
		return
	}

	if !self.fetcher.refresher.Refresh(ctx) {
		return
	}
	if loaded, err = loadUser(); !loaded {
		glog.Warningf("[auth]bootstrap failed after refresh: %v\n", err)
		return
	}
	glog.Infof("[auth]user loaded after refresh\n")
}
