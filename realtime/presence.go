package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/exp/maps"

	"github.com/stridehq/stride-go/state"
)

const presenceChannelPrefix = "presence:"

// memberSet is the convergent presence membership view shared by the
// presence and chat-room sessions. Live enter/leave/update deltas may
// interleave arbitrarily with the initial snapshot read; leaves observed
// before the snapshot lands are remembered as tombstones so the snapshot
// cannot resurrect a member that already left.
type memberSet struct {
	mutex sync.Mutex

	members         *state.Cell[map[string]PresenceMember]
	tombstones      map[string]bool
	snapshotApplied bool
}

func newMemberSet() *memberSet {
	return &memberSet{
		members:    state.NewCell(map[string]PresenceMember{}),
		tombstones: map[string]bool{},
	}
}

func (self *memberSet) apply(event PresenceEvent) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	member := event.Member
	switch event.Action {
	case PresenceActionEnter:
		delete(self.tombstones, member.ClientId)
		self.members.Update(func(members map[string]PresenceMember) map[string]PresenceMember {
			if _, ok := members[member.ClientId]; ok {
				// duplicate enter is a no-op insert
				return members
			}
			next := maps.Clone(members)
			next[member.ClientId] = member
			return next
		})
	case PresenceActionLeave:
		if !self.snapshotApplied {
			self.tombstones[member.ClientId] = true
		}
		self.members.Update(func(members map[string]PresenceMember) map[string]PresenceMember {
			if _, ok := members[member.ClientId]; !ok {
				return members
			}
			next := maps.Clone(members)
			delete(next, member.ClientId)
			return next
		})
	case PresenceActionUpdate:
		self.members.Update(func(members map[string]PresenceMember) map[string]PresenceMember {
			if _, ok := members[member.ClientId]; !ok {
				return members
			}
			next := maps.Clone(members)
			next[member.ClientId] = member
			return next
		})
	}
}

func (self *memberSet) applySnapshot(snapshot []PresenceMember) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.members.Update(func(members map[string]PresenceMember) map[string]PresenceMember {
		next := maps.Clone(members)
		for _, member := range snapshot {
			if self.tombstones[member.ClientId] {
				continue
			}
			if _, ok := next[member.ClientId]; ok {
				continue
			}
			next[member.ClientId] = member
		}
		return next
	})
	self.snapshotApplied = true
	self.tombstones = map[string]bool{}
}

func (self *memberSet) list() []PresenceMember {
	members := maps.Values(self.members.Get())
	sort.Slice(members, func(i int, j int) bool {
		return members[i].ClientId < members[j].ClientId
	})
	return members
}

func (self *memberSet) watch(listener func(members map[string]PresenceMember)) func() {
	return self.members.Subscribe(listener)
}

// PresenceSession is the per-channel presence lifecycle for one UI scope:
// ensure connected, ensure attached, enter presence, track membership,
// leave on scope exit.
type PresenceSession struct {
	manager     *Manager
	channelName string

	mutex       sync.Mutex
	initialized bool
	channel     Channel
	connected   *state.Cell[bool]
	members     *memberSet
}

func NewPresenceSession(manager *Manager, channelName string) *PresenceSession {
	return &PresenceSession{
		manager:     manager,
		channelName: channelName,
		connected:   state.NewCell(false),
		members:     newMemberSet(),
	}
}

// Init is idempotent. Connection or attach failure before presence is
// entered is fatal and surfaces to the caller.
func (self *PresenceSession) Init(ctx context.Context, identity PresenceData) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.initialized {
		return nil
	}
	if self.channelName == "" {
		return ErrChannelNameRequired
	}

	realtime, err := self.manager.Realtime(ctx)
	if err != nil {
		return err
	}
	if err := awaitConnected(ctx, realtime); err != nil {
		return err
	}

	channel := realtime.Channel(presenceChannelPrefix + self.channelName)
	if err := awaitAttached(ctx, channel); err != nil {
		return err
	}
	self.channel = channel

	if err := channel.Presence().Enter(ctx, identity); err != nil {
		return err
	}

	// live handlers first, then the snapshot; memberSet reconciles the race
	channel.Presence().Subscribe(self.members.apply)

	snapshot, err := channel.Presence().Get(ctx)
	if err != nil {
		return err
	}
	self.members.applySnapshot(snapshot)

	self.connected.Set(true)
	self.initialized = true
	return nil
}

func (self *PresenceSession) IsConnected() bool {
	return self.connected.Get()
}

func (self *PresenceSession) Members() []PresenceMember {
	return self.members.list()
}

func (self *PresenceSession) WatchMembers(listener func(members map[string]PresenceMember)) func() {
	return self.members.watch(listener)
}

// Leave leaves presence best-effort. Teardown runs during scope unwind
// where an error cannot be usefully handled, so failures are logged and
// swallowed.
func (self *PresenceSession) Leave(ctx context.Context) {
	self.mutex.Lock()
	channel := self.channel
	self.mutex.Unlock()

	if channel != nil {
		if err := channel.Presence().Leave(ctx); err != nil {
			glog.Warningf("[presence]%s leave failed: %v\n", self.channelName, err)
		}
	}
	self.connected.Set(false)
}

// Close is the scope-exit teardown.
func (self *PresenceSession) Close() {
	self.Leave(context.Background())
}
