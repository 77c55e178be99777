package realtime

import (
	"context"
	"errors"
	"time"
)

// The hosted realtime provider's client SDK, reduced to the contract this
// package orchestrates: a connection state machine, named channels with an
// attach protocol, channel-scoped presence, and a chat layer of rooms with
// message and typing streams. Adapters over the real SDK implement these
// interfaces; tests use an in-memory fake.

type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateFailed       ConnectionState = "failed"
)

type ChannelState string

const (
	ChannelStateInitialized ChannelState = "initialized"
	ChannelStateAttaching   ChannelState = "attaching"
	ChannelStateAttached    ChannelState = "attached"
	ChannelStateFailed      ChannelState = "failed"
)

var ErrConnectionFailed = errors.New("realtime connection failed")
var ErrAttachFailed = errors.New("channel attach failed")
var ErrChannelNameRequired = errors.New("channel name is required")
var ErrNotInitialized = errors.New("session not initialized")

// TokenParams are the provider-defined auth parameters handed to the auth
// callback; TokenRequest is the signed token the backend issues in
// exchange. Both are opaque to this package.
type TokenParams map[string]any

type TokenRequest map[string]any

type AuthCallback func(ctx context.Context, params TokenParams) (TokenRequest, error)

type Realtime interface {
	Connection() Connection
	Channel(name string) Channel
	// Connect is idempotent: a connected or connecting client ignores it.
	Connect()
	Close()
}

type Connection interface {
	State() ConnectionState
	// Once registers a one-shot handler for the next transition into
	// `state`. The handler is dropped after it fires.
	Once(state ConnectionState, handler func())
}

type Message struct {
	Id        string    `json:"id,omitempty"`
	Event     string    `json:"event,omitempty"`
	ClientId  string    `json:"client_id,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

type Channel interface {
	Name() string
	State() ChannelState
	// Attach starts the attach protocol; completion is observed via Once.
	Attach()
	Once(state ChannelState, handler func())
	Subscribe(handler func(message *Message))
	Publish(ctx context.Context, event string, data any) error
	Presence() Presence
}

type PresenceAction string

const (
	PresenceActionEnter  PresenceAction = "enter"
	PresenceActionLeave  PresenceAction = "leave"
	PresenceActionUpdate PresenceAction = "update"
)

type PresenceData struct {
	Username string `json:"username"`
	Status   string `json:"status"`
}

type PresenceMember struct {
	ClientId string       `json:"client_id"`
	Data     PresenceData `json:"data"`
}

type PresenceEvent struct {
	Action PresenceAction
	Member PresenceMember
}

type Presence interface {
	Enter(ctx context.Context, data PresenceData) error
	Leave(ctx context.Context) error
	// Get reads the current full member set from the provider. May race
	// with live events; callers reconcile.
	Get(ctx context.Context) ([]PresenceMember, error)
	Subscribe(handler func(event PresenceEvent))
}

// chat layer

type ChatClient interface {
	Room(name string) Room
}

type Room interface {
	// Channel exposes the room's underlying channel for attach gating.
	Channel() Channel
	Presence() Presence
	Messages() RoomMessages
	Typing() Typing
}

type MessageEventType string

const (
	MessageEventCreated MessageEventType = "message.created"
	MessageEventUpdated MessageEventType = "message.updated"
	MessageEventDeleted MessageEventType = "message.deleted"
)

type ChatMessage struct {
	Serial    string    `json:"serial"`
	ClientId  string    `json:"client_id,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

type MessageEvent struct {
	Type    MessageEventType
	Message ChatMessage
}

type RoomMessages interface {
	Subscribe(handler func(event MessageEvent))
	Send(ctx context.Context, text string) error
}

// TypingEvent carries the complete currently-typing set, not a delta.
type TypingEvent struct {
	CurrentlyTyping []string
}

type Typing interface {
	Subscribe(handler func(event TypingEvent))
	Keystroke(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Driver constructs provider clients. The production driver wraps the
// hosted SDK; NewRealtime must not connect (auth wiring is installed
// first, then the manager calls Connect).
type Driver interface {
	NewRealtime(auth AuthCallback) (Realtime, error)
	NewChat(realtime Realtime) (ChatClient, error)
}
