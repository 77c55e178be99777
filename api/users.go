package api

import (
	"context"
	"fmt"
	"net/http"
)

type UserList struct {
	Data       []*User     `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type UsersApi struct {
	fetcher *Fetcher
}

func NewUsersApi(fetcher *Fetcher) *UsersApi {
	return &UsersApi{
		fetcher: fetcher,
	}
}

func (self *UsersApi) RetrieveSync(ctx context.Context, username string) (*User, error) {
	return FetchSync[*User](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/users/%s", username),
		Method: http.MethodGet,
	})
}

// SearchSync backs mention autocomplete.
func (self *UsersApi) SearchSync(ctx context.Context, search string) (*UserList, error) {
	return FetchSync[*UserList](ctx, self.fetcher, &Request{
		Path:   "/users",
		Method: http.MethodGet,
		Query:  map[string]any{"search": search},
	})
}

func (self *UsersApi) SupportSync(ctx context.Context, userId string) error {
	_, err := FetchSync[struct{}](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/users/%s/supports", userId),
		Method: http.MethodPost,
	})
	return err
}

func (self *UsersApi) UnsupportSync(ctx context.Context, userId string) error {
	_, err := FetchSync[struct{}](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/users/%s/supports", userId),
		Method: http.MethodDelete,
	})
	return err
}
