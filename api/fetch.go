package api

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"

	"github.com/stridehq/stride-go/state"
)

type Callback[R any] interface {
	Result(result R, err error)
}

// for internal use
type simpleCallback[R any] struct {
	callback func(result R, err error)
}

func NewCallback[R any](callback func(result R, err error)) Callback[R] {
	return &simpleCallback[R]{
		callback: callback,
	}
}

func NewNoopCallback[R any]() Callback[R] {
	return &simpleCallback[R]{
		callback: func(result R, err error) {},
	}
}

func (self *simpleCallback[R]) Result(result R, err error) {
	self.callback(result, err)
}

// Fetcher is the authenticated fetch layer: it executes requests through
// the client and, when a call fails with session expiry, refreshes the
// session once and replays the original request. Callers observe either a
// successful response or the original failure — the refresh mechanism
// adds no error shape of its own.
type Fetcher struct {
	client    *Client
	refresher *Refresher
}

func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{
		client:    client,
		refresher: NewRefresher(client),
	}
}

func (self *Fetcher) Client() *Client {
	return self.client
}

func (self *Fetcher) Refresher() *Refresher {
	return self.refresher
}

// FetchSync is the imperative variant.
func FetchSync[R any](ctx context.Context, fetcher *Fetcher, request *Request) (R, error) {
	return fetch[R](ctx, fetcher, request, false)
}

// Fetch is the asynchronous variant: the exchange runs on its own
// goroutine and the callback receives the result.
func Fetch[R any](ctx context.Context, fetcher *Fetcher, request *Request, callback Callback[R]) {
	go func() {
		result, err := fetch[R](ctx, fetcher, request, false)
		callback.Result(result, err)
	}()
}

// FetchState is the reactive variant's observable request state.
// Pending starts true and flips false exactly once, after Data or Err is
// populated.
type FetchState[R any] struct {
	Data    *state.Cell[R]
	Err     *state.Cell[error]
	Pending *state.Cell[bool]
}

func WatchFetch[R any](ctx context.Context, fetcher *Fetcher, request *Request) *FetchState[R] {
	var empty R
	fetchState := &FetchState[R]{
		Data:    state.NewCell(empty),
		Err:     state.NewCell[error](nil),
		Pending: state.NewCell(true),
	}
	go func() {
		result, err := fetch[R](ctx, fetcher, request, false)
		if err == nil {
			fetchState.Data.Set(result)
		} else {
			fetchState.Err.Set(err)
		}
		fetchState.Pending.Set(false)
	}()
	return fetchState
}

func fetch[R any](ctx context.Context, fetcher *Fetcher, request *Request, retried bool) (R, error) {
	var empty R

	body, err := fetcher.client.Execute(ctx, request)
	if err == nil {
		var result R
		if err := unmarshalBody(body, &result); err != nil {
			return empty, err
		}
		return result, nil
	}

	// the refresh endpoint never retries itself
	if request.Path == RefreshPath {
		return empty, err
	}
	if !IsUnauthorized(err) || retried {
		return empty, err
	}

	glog.Infof("[fetch]session expired, refreshing\n")
	if !fetcher.refresher.Refresh(ctx) {
		// the caller sees the original failure, not the refresh failure
		return empty, err
	}

	// replay with the original request so the query object is
	// re-serialized, never double-applied
	return fetch[R](ctx, fetcher, request, true)
}

func unmarshalBody(body []byte, result any) error {
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, result)
}
