package realtime

import (
	"context"
)

// One-shot event-to-wait bridging. Neither wait owns a timeout: a
// provider that never reaches a terminal state leaves the caller
// suspended until its context is cancelled.

// awaitConnected suspends until the connection reaches `connected`,
// triggering Connect when it is not already underway. Returns
// ErrConnectionFailed when the connection reaches `failed` first.
func awaitConnected(ctx context.Context, realtime Realtime) error {
	connection := realtime.Connection()
	if connection.State() == ConnectionStateConnected {
		return nil
	}

	done := make(chan error, 2)
	connection.Once(ConnectionStateConnected, func() {
		done <- nil
	})
	connection.Once(ConnectionStateFailed, func() {
		done <- ErrConnectionFailed
	})
	realtime.Connect()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// awaitAttached suspends until the channel reaches `attached`, covering
// the three cases: already attached, attach in progress (wait only), and
// not yet attaching (trigger attach after registering the waiters).
func awaitAttached(ctx context.Context, channel Channel) error {
	channelState := channel.State()
	if channelState == ChannelStateAttached {
		return nil
	}

	done := make(chan error, 2)
	channel.Once(ChannelStateAttached, func() {
		done <- nil
	})
	channel.Once(ChannelStateFailed, func() {
		done <- ErrAttachFailed
	})
	if channelState != ChannelStateAttaching {
		channel.Attach()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
