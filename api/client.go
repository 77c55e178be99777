package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const defaultHttpTimeout = 60 * time.Second
const defaultHttpConnectTimeout = 5 * time.Second
const defaultHttpTlsTimeout = 5 * time.Second

type ClientSettings struct {
	HttpTimeout        time.Duration
	HttpConnectTimeout time.Duration
	HttpTlsTimeout     time.Duration
}

func DefaultClientSettings() *ClientSettings {
	return &ClientSettings{
		HttpTimeout:        defaultHttpTimeout,
		HttpConnectTimeout: defaultHttpConnectTimeout,
		HttpTlsTimeout:     defaultHttpTlsTimeout,
	}
}

// Request describes one call against the backend. Query is kept as the
// original nested object so a retry can re-serialize it; the encoded
// string is never stored back into the request.
type Request struct {
	Path   string
	Method string
	Body   any
	Query  map[string]any
	Header http.Header
}

// Response is the raw result of an exchange, exposed for the few callers
// (the refresher) that need response headers.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client executes requests against the backend with a merged base url and
// cookie credentials always included. Two credential modes:
//   - browser-like (default): an in-process cookie jar carries the session
//     cookies across calls, the way a browser tab would.
//   - server render: SetRequestCookieSource forwards the inbound request's
//     Cookie header, and SetCookieSink receives Set-Cookie headers from
//     the refresh endpoint for the outgoing render response.
type Client struct {
	ctx    context.Context
	cancel context.CancelFunc

	apiUrl     string
	httpClient *http.Client
	settings   *ClientSettings

	requestCookieSource func() string
	setCookieSink       func(setCookies []string)
}

func NewClient(apiUrl string) *Client {
	return NewClientWithContext(context.Background(), apiUrl)
}

func NewClientWithContext(ctx context.Context, apiUrl string) *Client {
	return NewClientWithSettings(ctx, apiUrl, DefaultClientSettings())
}

func NewClientWithSettings(ctx context.Context, apiUrl string, settings *ClientSettings) *Client {
	cancelCtx, cancel := context.WithCancel(ctx)

	dialer := &net.Dialer{
		Timeout: settings.HttpConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: settings.HttpTlsTimeout,
	}
	// cookiejar.New only errors on bad options
	jar, _ := cookiejar.New(nil)

	return &Client{
		ctx:    cancelCtx,
		cancel: cancel,
		apiUrl: strings.TrimRight(apiUrl, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   settings.HttpTimeout,
			Jar:       jar,
		},
		settings: settings,
	}
}

// SetRequestCookieSource switches the client into server-render mode:
// `source` returns the Cookie header of the inbound request being
// rendered, which is forwarded on every outbound call instead of the jar.
func (self *Client) SetRequestCookieSource(source func() string) {
	self.requestCookieSource = source
	self.httpClient.Jar = nil
}

// SetCookieSink receives Set-Cookie header values from the refresh
// endpoint so a renewed session cookie reaches the browser.
func (self *Client) SetCookieSink(sink func(setCookies []string)) {
	self.setCookieSink = sink
}

func (self *Client) ApiUrl() string {
	return self.apiUrl
}

func (self *Client) Cancel() {
	self.cancel()
}

// Execute runs the request and returns the response body, or an
// *HttpError for a non-2xx status. Transport failures are returned
// unchanged for upstream classification.
func (self *Client) Execute(ctx context.Context, request *Request) ([]byte, error) {
	response, err := self.ExecuteRaw(ctx, request)
	if err != nil {
		return nil, err
	}
	return response.Body, nil
}

func (self *Client) ExecuteRaw(ctx context.Context, request *Request) (*Response, error) {
	requestUrl := self.apiUrl + request.Path
	if encodedQuery := EncodeQuery(request.Query); encodedQuery != "" {
		requestUrl = AppendQuery(requestUrl, encodedQuery)
	}

	var bodyReader io.Reader
	if request.Body != nil {
		bodyBytes, err := json.Marshal(request.Body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	method := request.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, requestUrl, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", ulid.Make().String())
	for name, values := range request.Header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	if self.requestCookieSource != nil {
		if cookie := self.requestCookieSource(); cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
	}

	r, err := self.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	if r.StatusCode < 200 || 300 <= r.StatusCode {
		return nil, newHttpError(r.StatusCode, responseBodyBytes)
	}

	return &Response{
		StatusCode: r.StatusCode,
		Header:     r.Header,
		Body:       responseBodyBytes,
	}, nil
}
