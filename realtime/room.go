package realtime

import (
	"context"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/stridehq/stride-go/state"
)

// RoomSession is the chat-room variant of the presence lifecycle: on top
// of membership it maintains an ordered message log keyed by message
// serial and the currently-typing participant set.
type RoomSession struct {
	manager  *Manager
	roomName string

	mutex       sync.Mutex
	initialized bool
	room        Room

	members  *memberSet
	messages *state.Cell[[]ChatMessage]
	typing   *state.Cell[map[string]bool]
}

func NewRoomSession(manager *Manager, roomName string) *RoomSession {
	return &RoomSession{
		manager:  manager,
		roomName: roomName,
		members:  newMemberSet(),
		messages: state.NewCell([]ChatMessage{}),
		typing:   state.NewCell(map[string]bool{}),
	}
}

// Init is idempotent: connect, attach, subscribe the presence/message/
// typing streams, then load the current member snapshot.
func (self *RoomSession) Init(ctx context.Context) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.initialized {
		return nil
	}
	if self.roomName == "" {
		return ErrChannelNameRequired
	}

	realtime, err := self.manager.Realtime(ctx)
	if err != nil {
		return err
	}
	chat, err := self.manager.Chat(ctx)
	if err != nil {
		return err
	}
	if err := awaitConnected(ctx, realtime); err != nil {
		return err
	}

	room := chat.Room(self.roomName)
	if err := awaitAttached(ctx, room.Channel()); err != nil {
		return err
	}
	self.room = room

	room.Presence().Subscribe(self.members.apply)
	room.Messages().Subscribe(self.applyMessageEvent)
	room.Typing().Subscribe(self.applyTypingEvent)

	snapshot, err := room.Presence().Get(ctx)
	if err != nil {
		return err
	}
	self.members.applySnapshot(snapshot)

	self.initialized = true
	return nil
}

func (self *RoomSession) applyMessageEvent(event MessageEvent) {
	self.messages.Update(func(messages []ChatMessage) []ChatMessage {
		switch event.Type {
		case MessageEventCreated:
			for _, message := range messages {
				if message.Serial == event.Message.Serial {
					return messages
				}
			}
			return append(messages[0:len(messages):len(messages)], event.Message)
		case MessageEventUpdated:
			next := make([]ChatMessage, len(messages))
			copy(next, messages)
			for i, message := range next {
				if message.Serial == event.Message.Serial {
					next[i] = event.Message
				}
			}
			return next
		case MessageEventDeleted:
			next := []ChatMessage{}
			for _, message := range messages {
				if message.Serial != event.Message.Serial {
					next = append(next, message)
				}
			}
			return next
		}
		return messages
	})
}

// the typing set is replaced wholesale on every event, not merged
func (self *RoomSession) applyTypingEvent(event TypingEvent) {
	typing := map[string]bool{}
	for _, clientId := range event.CurrentlyTyping {
		typing[clientId] = true
	}
	self.typing.Set(typing)
}

// EnterPresence joins the room's presence set with the caller's identity.
func (self *RoomSession) EnterPresence(ctx context.Context, identity PresenceData) error {
	self.mutex.Lock()
	room := self.room
	self.mutex.Unlock()

	if room == nil {
		return ErrNotInitialized
	}
	if err := awaitAttached(ctx, room.Channel()); err != nil {
		return err
	}
	return room.Presence().Enter(ctx, identity)
}

// SendMessage sends trimmed non-empty text, then stops the caller's
// typing indicator best-effort.
func (self *RoomSession) SendMessage(ctx context.Context, text string) error {
	self.mutex.Lock()
	room := self.room
	self.mutex.Unlock()

	if room == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	if err := room.Messages().Send(ctx, text); err != nil {
		return err
	}
	if err := room.Typing().Stop(ctx); err != nil {
		glog.Warningf("[room]%s typing stop failed: %v\n", self.roomName, err)
	}
	return nil
}

// Keystroke signals the typing indicator.
func (self *RoomSession) Keystroke(ctx context.Context) error {
	self.mutex.Lock()
	room := self.room
	self.mutex.Unlock()

	if room == nil {
		return nil
	}
	return room.Typing().Keystroke(ctx)
}

func (self *RoomSession) Members() []PresenceMember {
	return self.members.list()
}

func (self *RoomSession) Messages() []ChatMessage {
	return self.messages.Get()
}

func (self *RoomSession) WatchMessages(listener func(messages []ChatMessage)) func() {
	return self.messages.Subscribe(listener)
}

func (self *RoomSession) TypingParticipants() map[string]bool {
	return self.typing.Get()
}

func (self *RoomSession) WatchTyping(listener func(typing map[string]bool)) func() {
	return self.typing.Subscribe(listener)
}

// Close leaves presence best-effort; teardown never raises.
func (self *RoomSession) Close() {
	self.mutex.Lock()
	room := self.room
	self.mutex.Unlock()

	if room != nil {
		if err := room.Presence().Leave(context.Background()); err != nil {
			glog.Warningf("[room]%s leave presence failed: %v\n", self.roomName, err)
		}
	}
}
