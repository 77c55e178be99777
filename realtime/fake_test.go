package realtime

import (
	"context"
	"flag"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stridehq/stride-go/api"
)

func init() {
	initGlog()
}

func initGlog() {
	flag.Set("logtostderr", "true")
	flag.Set("stderrthreshold", "INFO")
	flag.Set("v", "0")
}

// in-memory provider fake with controllable state transitions

type fakeDriver struct {
	mutex sync.Mutex

	newRealtimeCalls int
	newChatCalls     int

	// when set, NewRealtime blocks until the channel is closed
	createRelease chan struct{}
	createStarted chan struct{}

	// configuration applied to constructed realtimes
	attachManual bool

	realtimes []*fakeRealtime
}

func (self *fakeDriver) NewRealtime(auth AuthCallback) (Realtime, error) {
	self.mutex.Lock()
	self.newRealtimeCalls += 1
	started := self.createStarted
	release := self.createRelease
	self.mutex.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	realtime := &fakeRealtime{
		auth:         auth,
		attachManual: self.attachManual,
		connection: &fakeConnection{
			state: ConnectionStateDisconnected,
			once:  map[ConnectionState][]func(){},
		},
		channels: map[string]*fakeChannel{},
	}
	self.mutex.Lock()
	self.realtimes = append(self.realtimes, realtime)
	self.mutex.Unlock()
	return realtime, nil
}

func (self *fakeDriver) NewChat(realtime Realtime) (ChatClient, error) {
	self.mutex.Lock()
	self.newChatCalls += 1
	self.mutex.Unlock()
	return &fakeChatClient{
		realtime: realtime.(*fakeRealtime),
		rooms:    map[string]*fakeRoom{},
	}, nil
}

func (self *fakeDriver) realtime(t *testing.T) *fakeRealtime {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	if len(self.realtimes) == 0 {
		t.Fatal("no realtime constructed")
	}
	return self.realtimes[0]
}

type fakeRealtime struct {
	mutex sync.Mutex

	auth         AuthCallback
	attachManual bool
	connection   *fakeConnection
	channels     map[string]*fakeChannel

	authCalls    int
	connectCalls int
	closed       bool
}

func (self *fakeRealtime) Connection() Connection {
	return self.connection
}

func (self *fakeRealtime) Channel(name string) Channel {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	channel, ok := self.channels[name]
	if !ok {
		channel = newFakeChannel(name, self.attachManual)
		self.channels[name] = channel
	}
	return channel
}

// Connect exchanges a token through the auth callback, then transitions
// to connected, or to failed when the exchange fails. Idempotent.
func (self *fakeRealtime) Connect() {
	self.mutex.Lock()
	state := self.connection.State()
	if state == ConnectionStateConnected || state == ConnectionStateConnecting {
		self.mutex.Unlock()
		return
	}
	self.connectCalls += 1
	self.connection.setState(ConnectionStateConnecting)
	self.mutex.Unlock()

	self.mutex.Lock()
	self.authCalls += 1
	auth := self.auth
	self.mutex.Unlock()

	_, err := auth(context.Background(), TokenParams{"ttl": 3600})
	if err != nil {
		self.connection.transition(ConnectionStateFailed)
		return
	}
	self.connection.transition(ConnectionStateConnected)
}

func (self *fakeRealtime) Close() {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.closed = true
	self.connection.setState(ConnectionStateDisconnected)
}

type fakeConnection struct {
	mutex sync.Mutex
	state ConnectionState
	once  map[ConnectionState][]func()
}

func (self *fakeConnection) State() ConnectionState {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return self.state
}

func (self *fakeConnection) Once(state ConnectionState, handler func()) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.once[state] = append(self.once[state], handler)
}

func (self *fakeConnection) setState(state ConnectionState) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.state = state
}

func (self *fakeConnection) transition(state ConnectionState) {
	self.mutex.Lock()
	self.state = state
	handlers := self.once[state]
	delete(self.once, state)
	self.mutex.Unlock()
	for _, handler := range handlers {
		handler()
	}
}

type fakeChannel struct {
	mutex sync.Mutex

	name         string
	state        ChannelState
	attachManual bool
	once         map[ChannelState][]func()
	subscribers  []func(message *Message)
	presence     *fakePresence

	attachCalls int
	published   []*Message
}

func newFakeChannel(name string, attachManual bool) *fakeChannel {
	return &fakeChannel{
		name:         name,
		state:        ChannelStateInitialized,
		attachManual: attachManual,
		once:         map[ChannelState][]func(){},
		presence:     newFakePresence(),
	}
}

func (self *fakeChannel) Name() string {
	return self.name
}

func (self *fakeChannel) State() ChannelState {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return self.state
}

func (self *fakeChannel) Attach() {
	self.mutex.Lock()
	self.attachCalls += 1
	self.state = ChannelStateAttaching
	manual := self.attachManual
	self.mutex.Unlock()
	if !manual {
		self.transition(ChannelStateAttached)
	}
}

func (self *fakeChannel) Once(state ChannelState, handler func()) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.once[state] = append(self.once[state], handler)
}

func (self *fakeChannel) transition(state ChannelState) {
	self.mutex.Lock()
	self.state = state
	handlers := self.once[state]
	delete(self.once, state)
	self.mutex.Unlock()
	for _, handler := range handlers {
		handler()
	}
}

func (self *fakeChannel) Subscribe(handler func(message *Message)) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.subscribers = append(self.subscribers, handler)
}

func (self *fakeChannel) Publish(ctx context.Context, event string, data any) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.published = append(self.published, &Message{Event: event, Data: data})
	return nil
}

// deliver simulates an incoming message from the provider
func (self *fakeChannel) deliver(message *Message) {
	self.mutex.Lock()
	subscribers := append([]func(*Message){}, self.subscribers...)
	self.mutex.Unlock()
	for _, subscriber := range subscribers {
		subscriber(message)
	}
}

func (self *fakeChannel) Presence() Presence {
	return self.presence
}

type fakePresence struct {
	mutex sync.Mutex

	snapshot []PresenceMember
	// runs after handlers are installed, before the snapshot returns;
	// lets tests race live events against the snapshot read
	beforeSnapshot func()

	entered     []PresenceData
	leaveCalls  int
	leaveErr    error
	subscribers []func(event PresenceEvent)
}

func newFakePresence() *fakePresence {
	return &fakePresence{}
}

func (self *fakePresence) Enter(ctx context.Context, data PresenceData) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.entered = append(self.entered, data)
	return nil
}

func (self *fakePresence) Leave(ctx context.Context) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.leaveCalls += 1
	return self.leaveErr
}

func (self *fakePresence) Get(ctx context.Context) ([]PresenceMember, error) {
	self.mutex.Lock()
	beforeSnapshot := self.beforeSnapshot
	self.mutex.Unlock()
	if beforeSnapshot != nil {
		beforeSnapshot()
	}
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return append([]PresenceMember{}, self.snapshot...), nil
}

func (self *fakePresence) Subscribe(handler func(event PresenceEvent)) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.subscribers = append(self.subscribers, handler)
}

func (self *fakePresence) emit(event PresenceEvent) {
	self.mutex.Lock()
	subscribers := append([]func(PresenceEvent){}, self.subscribers...)
	self.mutex.Unlock()
	for _, subscriber := range subscribers {
		subscriber(event)
	}
}

// chat layer fakes

type fakeChatClient struct {
	mutex    sync.Mutex
	realtime *fakeRealtime
	rooms    map[string]*fakeRoom
}

func (self *fakeChatClient) Room(name string) Room {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	room, ok := self.rooms[name]
	if !ok {
		room = &fakeRoom{
			channel:  newFakeChannel("chat:"+name, self.realtime.attachManual),
			messages: &fakeRoomMessages{},
			typing:   &fakeTyping{},
		}
		self.rooms[name] = room
	}
	return room
}

type fakeRoom struct {
	channel  *fakeChannel
	messages *fakeRoomMessages
	typing   *fakeTyping
}

func (self *fakeRoom) Channel() Channel {
	return self.channel
}

func (self *fakeRoom) Presence() Presence {
	return self.channel.presence
}

func (self *fakeRoom) Messages() RoomMessages {
	return self.messages
}

func (self *fakeRoom) Typing() Typing {
	return self.typing
}

type fakeRoomMessages struct {
	mutex       sync.Mutex
	sent        []string
	subscribers []func(event MessageEvent)
}

func (self *fakeRoomMessages) Subscribe(handler func(event MessageEvent)) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.subscribers = append(self.subscribers, handler)
}

func (self *fakeRoomMessages) Send(ctx context.Context, text string) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.sent = append(self.sent, text)
	return nil
}

func (self *fakeRoomMessages) emit(event MessageEvent) {
	self.mutex.Lock()
	subscribers := append([]func(MessageEvent){}, self.subscribers...)
	self.mutex.Unlock()
	for _, subscriber := range subscribers {
		subscriber(event)
	}
}

type fakeTyping struct {
	mutex          sync.Mutex
	keystrokeCalls int
	stopCalls      int
	subscribers    []func(event TypingEvent)
}

func (self *fakeTyping) Subscribe(handler func(event TypingEvent)) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.subscribers = append(self.subscribers, handler)
}

func (self *fakeTyping) Keystroke(ctx context.Context) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.keystrokeCalls += 1
	return nil
}

func (self *fakeTyping) Stop(ctx context.Context) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.stopCalls += 1
	return nil
}

func (self *fakeTyping) emit(event TypingEvent) {
	self.mutex.Lock()
	subscribers := append([]func(TypingEvent){}, self.subscribers...)
	self.mutex.Unlock()
	for _, subscriber := range subscribers {
		subscriber(event)
	}
}

// newTestManager wires a manager to a fake driver and a token endpoint.
func newTestManager(t *testing.T, driver *fakeDriver, tokenStatus int) (*Manager, func()) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != defaultTokenPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(tokenStatus)
		if tokenStatus == http.StatusOK {
			w.Write([]byte(`{"keyName":"test-key","ttl":3600}`))
		}
	}))
	manager := NewManager(api.NewClient(server.URL), driver)
	return manager, server.Close
}
