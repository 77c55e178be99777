package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"github.com/stridehq/stride-go/api"
)

const defaultTokenPath = "/ably/token"

type ManagerSettings struct {
	// TokenPath is the backend endpoint that exchanges provider auth
	// params for a signed token request.
	TokenPath string
}

func DefaultManagerSettings() *ManagerSettings {
	return &ManagerSettings{
		TokenPath: defaultTokenPath,
	}
}

type pendingConnection struct {
	done     chan struct{}
	realtime Realtime
	err      error
}

// Manager owns the process-wide realtime connection and chat client.
// Creation is lazy and single-flight: concurrent callers while a
// connection is being established all await the same in-flight creation.
// The connection is never torn down on a normal runtime path; Close
// exists for dev-time reload of the hosting module.
type Manager struct {
	client   *api.Client
	driver   Driver
	settings *ManagerSettings

	// instance id distinguishes connections across dev reloads in logs
	instanceId string

	mutex    sync.Mutex
	realtime Realtime
	chat     ChatClient
	pending  *pendingConnection
}

func NewManager(client *api.Client, driver Driver) *Manager {
	return NewManagerWithSettings(client, driver, DefaultManagerSettings())
}

func NewManagerWithSettings(client *api.Client, driver Driver, settings *ManagerSettings) *Manager {
	return &Manager{
		client:     client,
		driver:     driver,
		settings:   settings,
		instanceId: ulid.Make().String(),
	}
}

// Realtime returns the shared connection, creating and connecting it on
// first use. Auth is wired before Connect so the first connection attempt
// can already exchange tokens.
func (self *Manager) Realtime(ctx context.Context) (Realtime, error) {
	self.mutex.Lock()
	if self.realtime != nil {
		realtime := self.realtime
		self.mutex.Unlock()
		return realtime, nil
	}
	if self.pending != nil {
		pending := self.pending
		self.mutex.Unlock()
		select {
		case <-pending.done:
			return pending.realtime, pending.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	pending := &pendingConnection{
		done: make(chan struct{}),
	}
	self.pending = pending
	self.mutex.Unlock()

	realtime, err := self.driver.NewRealtime(self.authCallback)
	if err == nil {
		realtime.Connect()
		glog.Infof("[realtime]connection %s created\n", self.instanceId)
	} else {
		glog.Warningf("[realtime]connection create failed: %v\n", err)
		realtime = nil
	}

	self.mutex.Lock()
	self.realtime = realtime
	self.pending = nil
	self.mutex.Unlock()

	pending.realtime = realtime
	pending.err = err
	close(pending.done)

	return realtime, err
}

// Chat returns the shared chat client, creating the connection first when
// needed. Construction has no async step once the connection exists, so a
// plain lock is enough to keep it single-instance.
func (self *Manager) Chat(ctx context.Context) (ChatClient, error) {
	realtime, err := self.Realtime(ctx)
	if err != nil {
		return nil, err
	}

	self.mutex.Lock()
	defer self.mutex.Unlock()
	if self.chat == nil {
		chat, err := self.driver.NewChat(realtime)
		if err != nil {
			return nil, err
		}
		self.chat = chat
	}
	return self.chat, nil
}

// authCallback exchanges the provider's auth params for a signed token by
// calling the backend token endpoint. Runs outside the authenticated
// fetch layer: a 401 here means the connection attempt fails rather than
// triggering a session refresh.
func (self *Manager) authCallback(ctx context.Context, params TokenParams) (TokenRequest, error) {
	body, err := self.client.Execute(ctx, &api.Request{
		Path:   self.settings.TokenPath,
		Method: http.MethodPost,
		Body:   params,
	})
	if err != nil {
		glog.Warningf("[realtime]token auth failed: %v\n", err)
		return nil, err
	}
	tokenRequest := TokenRequest{}
	if err := json.Unmarshal(body, &tokenRequest); err != nil {
		return nil, err
	}
	return tokenRequest, nil
}

// Close tears down the shared connection and clears the instances. Not a
// normal runtime path; used when the hosting module is hot-reloaded.
func (self *Manager) Close() {
	self.mutex.Lock()
	realtime := self.realtime
	self.realtime = nil
	self.chat = nil
	self.mutex.Unlock()

	if realtime != nil {
		realtime.Close()
		glog.Infof("[realtime]connection %s closed\n", self.instanceId)
	}
}
