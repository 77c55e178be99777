package realtime

import (
	"context"
	"sync"

	"github.com/stridehq/stride-go/api"
	"github.com/stridehq/stride-go/state"
)

// Registry is the process-wide table of named pub/sub channels. Each name
// gets exactly one entry and at most one live subscription regardless of
// how many call sites request it. Entries and their message logs are
// never evicted — they live as long as the registry, which is a client
// session's lifetime.
type Registry struct {
	manager *Manager
	session *api.Session
	unread  *state.Counter

	mutex   sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	name string

	// held across init and subscribe, so concurrent callers serialize
	// and observe the flags set by the first one through
	mutex       sync.Mutex
	channel     Channel
	messages    *state.Cell[[]*Message]
	initialized bool
	subscribed  bool
}

func NewRegistry(manager *Manager, session *api.Session, unread *state.Counter) *Registry {
	return &Registry{
		manager: manager,
		session: session,
		unread:  unread,
		entries: map[string]*registryEntry{},
	}
}

// Get returns the handle for a channel name, creating the entry on first
// reference.
func (self *Registry) Get(channelName string) *ChannelHandle {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	entry, ok := self.entries[channelName]
	if !ok {
		entry = &registryEntry{
			name:     channelName,
			messages: state.NewCell([]*Message{}),
		}
		self.entries[channelName] = entry
	}
	return &ChannelHandle{
		registry: self,
		entry:    entry,
	}
}

type ChannelHandle struct {
	registry *Registry
	entry    *registryEntry
}

func (self *ChannelHandle) Messages() []*Message {
	return self.entry.messages.Get()
}

func (self *ChannelHandle) WatchMessages(listener func(messages []*Message)) func() {
	return self.entry.messages.Subscribe(listener)
}

// Subscribe attaches the channel's single message handler. Idempotent per
// channel name, and a no-op when the caller is not authenticated.
func (self *ChannelHandle) Subscribe(ctx context.Context) error {
	if !self.registry.session.IsAuthenticated() {
		return nil
	}

	entry := self.entry
	entry.mutex.Lock()
	defer entry.mutex.Unlock()

	if err := self.initUnderLock(ctx); err != nil {
		return err
	}
	if entry.subscribed {
		return nil
	}

	registry := self.registry
	entry.channel.Subscribe(func(message *Message) {
		entry.messages.Update(func(messages []*Message) []*Message {
			return append(messages[0:len(messages):len(messages)], message)
		})
		if registry.unread != nil {
			registry.unread.Increment()
		}
	})
	entry.subscribed = true
	return nil
}

// Publish runs the same lazy connect/attach sequence before sending.
func (self *ChannelHandle) Publish(ctx context.Context, event string, data any) error {
	entry := self.entry
	entry.mutex.Lock()
	defer entry.mutex.Unlock()

	if err := self.initUnderLock(ctx); err != nil {
		return err
	}
	if err := awaitAttached(ctx, entry.channel); err != nil {
		return err
	}
	return entry.channel.Publish(ctx, event, data)
}

func (self *ChannelHandle) initUnderLock(ctx context.Context) error {
	entry := self.entry
	if entry.initialized {
		return nil
	}

	realtime, err := self.registry.manager.Realtime(ctx)
	if err != nil {
		return err
	}
	if err := awaitConnected(ctx, realtime); err != nil {
		return err
	}

	channel := realtime.Channel(entry.name)
	if err := awaitAttached(ctx, channel); err != nil {
		return err
	}

	entry.channel = channel
	entry.initialized = true
	return nil
}
