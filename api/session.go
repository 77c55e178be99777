package api

import (
	"time"

	"github.com/stridehq/stride-go/state"
)

type UserProfile struct {
	Status string `json:"status,omitempty"`
	Bio    string `json:"bio,omitempty"`
}

type UserAvatar struct {
	PublicDomain string `json:"public_domain,omitempty"`
	PublicPath   string `json:"public_path,omitempty"`
}

type User struct {
	Id             string       `json:"_id,omitempty"`
	Email          string       `json:"email,omitempty"`
	Username       string       `json:"username,omitempty"`
	Name           string       `json:"name,omitempty"`
	Profile        *UserProfile `json:"profile,omitempty"`
	Avatar         *UserAvatar  `json:"avatar,omitempty"`
	PrivateAccount bool         `json:"private_account,omitempty"`
	LastSeenAt     *time.Time   `json:"last_seen_at,omitempty"`
}

// Session is the process-wide authentication state: the current user, or
// nil when signed out. One instance per running client.
type Session struct {
	currentUser *state.Cell[*User]
}

func NewSession() *Session {
	return &Session{
		currentUser: state.NewCell[*User](nil),
	}
}

func (self *Session) CurrentUser() *User {
	return self.currentUser.Get()
}

func (self *Session) UpdateUser(user *User) {
	self.currentUser.Set(user)
}

func (self *Session) IsAuthenticated() bool {
	return self.currentUser.Get() != nil
}

// WatchUser subscribes to sign-in/sign-out transitions.
// Returns the remove function.
func (self *Session) WatchUser(listener func(user *User)) func() {
	return self.currentUser.Subscribe(listener)
}
