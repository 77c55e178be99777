package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

type GoalVisibility string

const (
	GoalVisibilityPublic     GoalVisibility = "public"
	GoalVisibilityPrivate    GoalVisibility = "private"
	GoalVisibilitySupporters GoalVisibility = "supporters"
)

type GoalStatus string

const (
	GoalStatusAchieved   GoalStatus = "achieved"
	GoalStatusInProgress GoalStatus = "in-progress"
	GoalStatusFailed     GoalStatus = "failed"
)

type GoalProgress struct {
	Id           string     `json:"_id,omitempty"`
	GoalId       string     `json:"goal_id,omitempty"`
	Caption      string     `json:"caption,omitempty"`
	MediaUrl     string     `json:"media_url,omitempty"`
	ThumbnailUrl string     `json:"thumbnail_url,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	CreatedBy    *User      `json:"created_by,omitempty"`
}

type GoalComment struct {
	Id        string     `json:"_id,omitempty"`
	GoalId    string     `json:"goal_id,omitempty"`
	ParentId  string     `json:"parent_id,omitempty"`
	Comment   string     `json:"comment,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	CreatedBy *User      `json:"created_by,omitempty"`
}

type Cheer struct {
	Id        string     `json:"_id,omitempty"`
	GoalId    string     `json:"goal_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	CreatedBy *User      `json:"created_by,omitempty"`
}

// Goal follows the SMART shape the backend stores: specific, measurable,
// achievable, relevant, time-bound.
type Goal struct {
	Id           string          `json:"_id,omitempty"`
	Specific     string          `json:"specific,omitempty"`
	Measurable   string          `json:"measurable,omitempty"`
	Achievable   string          `json:"achievable,omitempty"`
	Relevant     string          `json:"relevant,omitempty"`
	Time         *time.Time      `json:"time,omitempty"`
	Visibility   GoalVisibility  `json:"visibility,omitempty"`
	ThumbnailUrl string          `json:"thumbnail_url,omitempty"`
	Status       GoalStatus      `json:"status,omitempty"`
	Progress     []*GoalProgress `json:"progress,omitempty"`

	Cheers      []*Cheer `json:"cheers,omitempty"`
	TotalCheers int      `json:"total_cheers,omitempty"`
	MyCheeredId string   `json:"my_cheered_id,omitempty"`

	Comments      []*GoalComment `json:"comments,omitempty"`
	TotalComments int            `json:"total_comments,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	CreatedBy *User      `json:"created_by,omitempty"`
}

type GoalList struct {
	Data       []*Goal     `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type GoalsApi struct {
	fetcher *Fetcher
}

func NewGoalsApi(fetcher *Fetcher) *GoalsApi {
	return &GoalsApi{
		fetcher: fetcher,
	}
}

func (self *GoalsApi) CreateSync(ctx context.Context, goal *Goal) (*Goal, error) {
	return FetchSync[*Goal](ctx, self.fetcher, &Request{
		Path:   "/goals",
		Method: http.MethodPost,
		Body:   goal,
	})
}

func (self *GoalsApi) CreateProgressSync(ctx context.Context, goalId string, progress *GoalProgress) (*Goal, error) {
	return FetchSync[*Goal](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/goals/%s/progress", goalId),
		Method: http.MethodPost,
		Body:   progress,
	})
}

func (self *GoalsApi) ListSync(ctx context.Context, query map[string]any) (*GoalList, error) {
	return FetchSync[*GoalList](ctx, self.fetcher, &Request{
		Path:   "/goals",
		Method: http.MethodGet,
		Query:  query,
	})
}

func (self *GoalsApi) List(ctx context.Context, query map[string]any, callback Callback[*GoalList]) {
	Fetch(ctx, self.fetcher, &Request{
		Path:   "/goals",
		Method: http.MethodGet,
		Query:  query,
	}, callback)
}

// WatchList is the reactive variant used by list views.
func (self *GoalsApi) WatchList(ctx context.Context, query map[string]any) *FetchState[*GoalList] {
	return WatchFetch[*GoalList](ctx, self.fetcher, &Request{
		Path:   "/goals",
		Method: http.MethodGet,
		Query:  query,
	})
}

func (self *GoalsApi) ListProgressSync(ctx context.Context, query map[string]any) (*GoalList, error) {
	return FetchSync[*GoalList](ctx, self.fetcher, &Request{
		Path:   "/goals/progress",
		Method: http.MethodGet,
		Query:  query,
	})
}

func (self *GoalsApi) RetrieveSync(ctx context.Context, goalId string) (*Goal, error) {
	return FetchSync[*Goal](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/goals/%s", goalId),
		Method: http.MethodGet,
	})
}

func (self *GoalsApi) WatchRetrieve(ctx context.Context, goalId string) *FetchState[*Goal] {
	return WatchFetch[*Goal](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/goals/%s", goalId),
		Method: http.MethodGet,
	})
}

func (self *GoalsApi) UpdateSync(ctx context.Context, goalId string, goal *Goal) (*Goal, error) {
	return FetchSync[*Goal](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/goals/%s", goalId),
		Method: http.MethodPut,
		Body:   goal,
	})
}

func (self *GoalsApi) DeleteSync(ctx context.Context, goalId string) error {
	_, err := FetchSync[struct{}](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/goals/%s", goalId),
		Method: http.MethodDelete,
	})
	return err
}

func (self *GoalsApi) CheerSync(ctx context.Context, goalId string) (*Cheer, error) {
	return FetchSync[*Cheer](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/goals/%s/cheers", goalId),
		Method: http.MethodPost,
	})
}

func (self *GoalsApi) UncheerSync(ctx context.Context, goalId string, cheerId string) error {
	_, err := FetchSync[struct{}](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/goals/%s/cheers/%s", goalId, cheerId),
		Method: http.MethodDelete,
	})
	return err
}

func (self *GoalsApi) CommentSync(ctx context.Context, goalId string, comment *GoalComment) (*GoalComment, error) {
	return FetchSync[*GoalComment](ctx, self.fetcher, &Request{
		Path:   fmt.Sprintf("/goals/%s/comments", goalId),
		Method: http.MethodPost,
		Body:   comment,
	})
}
