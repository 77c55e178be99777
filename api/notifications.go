package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Notification struct {
	Id           string            `json:"_id,omitempty"`
	Type         string            `json:"type"`
	Actor        *User             `json:"actor,omitempty"`
	GoalId       string            `json:"goal_id,omitempty"`
	Message      string            `json:"message,omitempty"`
	IsRead       bool              `json:"is_read,omitempty"`
	ThumbnailUrl string            `json:"thumbnail_url,omitempty"`
	Entities     map[string]string `json:"entities,omitempty"`
	CreatedAt    *time.Time        `json:"created_at,omitempty"`
}

type NotificationList struct {
	Data       []*Notification `json:"data"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

type NotificationsApi struct {
	fetcher *Fetcher
}

func NewNotificationsApi(fetcher *Fetcher) *NotificationsApi {
	return &NotificationsApi{
		fetcher: fetcher,
	}
}

func (self *NotificationsApi) ListSync(ctx context.Context, query map[string]any) (*NotificationList, error) {
	return FetchSync[*NotificationList](ctx, self.fetcher, &Request{
		Path:   "/notifications",
		Method: http.MethodGet,
		Query:  query,
	})
}

func (self *NotificationsApi) WatchList(ctx context.Context, query map[string]any) *FetchState[*NotificationList] {
	return WatchFetch[*NotificationList](ctx, self.fetcher, &Request{
		Path:   "/notifications",
		Method: http.MethodGet,
		Query:  query,
	})
}

func (self *NotificationsApi) RetrieveSync(ctx context.Context, notificationId string) (*Notification, error) {
	return FetchSync[*Notification](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/notifications/%s", notificationId),
		Method: http.MethodGet,
	})
}

func (self *NotificationsApi) MarkReadSync(ctx context.Context, notificationId string) (*Notification, error) {
	return FetchSync[*Notification](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/notifications/%s/read", notificationId),
		Method: http.MethodPost,
	})
}

func (self *NotificationsApi) MarkAllReadSync(ctx context.Context) error {
	_, err := FetchSync[struct{}](ctx, self.fetcher, &Request{
		Path:   "/notifications/read-all",
		Method: http.MethodPost,
	})
	return err
}
