//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package demux

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/markkurossi/guesspoint/field"
	"github.com/markkurossi/guesspoint/relay"
	"github.com/markkurossi/guesspoint/wire"
)

var testField = field.New(1<<31 - 1)

// scriptReceiver serves a fixed sequence of frames and then times
// out.
type scriptReceiver struct {
	frames []string
}

func (s *scriptReceiver) Receive(deadline time.Time) (string, error) {
	if len(s.frames) == 0 {
		return "", relay.ErrTimeout
	}
	frame := s.frames[0]
	s.frames = s.frames[1:]
	return frame, nil
}

func encode(t *testing.T, msg *wire.Message) string {
	t.Helper()
	line, err := wire.Encode(msg)
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	return line
}

func deadline() time.Time {
	return time.Now().Add(time.Second)
}

// Frames of the same type and predicate come out in arrival order.
func TestAwaitOrdering(t *testing.T) {
	first := &wire.Message{
		Type:    wire.TypeDiffShare,
		From:    "alice",
		Guesser: "carol",
		X:       1,
		Y:       2,
	}
	second := &wire.Message{
		Type:    wire.TypeDiffShare,
		From:    "bob",
		Guesser: "carol",
		X:       3,
		Y:       4,
	}
	d := New(&scriptReceiver{
		frames: []string{
			encode(t, first),
			encode(t, second),
		},
	}, testField)

	sameGuesser := func(m *wire.Message) bool {
		return m.Guesser == "carol"
	}
	msg, err := d.Await(wire.TypeDiffShare, sameGuesser, deadline())
	if err != nil {
		t.Fatalf("await: %s", err)
	}
	if diff := cmp.Diff(first, msg); len(diff) > 0 {
		t.Fatalf("first mismatch (-want +got):\n%s", diff)
	}
	msg, err = d.Await(wire.TypeDiffShare, sameGuesser, deadline())
	if err != nil {
		t.Fatalf("await: %s", err)
	}
	if diff := cmp.Diff(second, msg); len(diff) > 0 {
		t.Fatalf("second mismatch (-want +got):\n%s", diff)
	}
}

// A share frame arriving between two barrier frames stays queued
// while the barrier completes, and the next share await consumes it.
func TestAwaitRetainsNonMatching(t *testing.T) {
	d := New(&scriptReceiver{
		frames: []string{
			encode(t, &wire.Message{
				Type: wire.TypeBarrier,
				From: "alice",
				Name: "game_start",
			}),
			encode(t, &wire.Message{
				Type: wire.TypeShare,
				From: "alice",
				X:    7,
				Y:    8,
			}),
			encode(t, &wire.Message{
				Type: wire.TypeBarrier,
				From: "bob",
				Name: "game_start",
			}),
		},
	}, testField)

	isStart := func(m *wire.Message) bool {
		return m.Name == "game_start"
	}
	for _, from := range []string{"alice", "bob"} {
		msg, err := d.Await(wire.TypeBarrier, isStart, deadline())
		if err != nil {
			t.Fatalf("await barrier: %s", err)
		}
		if msg.From != from {
			t.Fatalf("barrier order: expected %s, got %s", from,
				msg.From)
		}
	}
	if d.Pending() != 1 {
		t.Fatalf("expected 1 queued message, got %d", d.Pending())
	}
	// The queued share is served without touching the wire, even
	// with an expired deadline.
	msg, err := d.Await(wire.TypeShare, nil, time.Now())
	if err != nil {
		t.Fatalf("await share: %s", err)
	}
	if msg.From != "alice" || msg.X != 7 {
		t.Fatalf("unexpected share %v", msg)
	}
	if d.Pending() != 0 {
		t.Fatalf("queue not drained: %d", d.Pending())
	}
}

// Malformed frames are dropped without corrupting the stream.
func TestAwaitDropsMalformed(t *testing.T) {
	valid := &wire.Message{
		Type: wire.TypeShare,
		From: "bob",
		X:    1,
		Y:    2,
	}
	d := New(&scriptReceiver{
		frames: []string{
			`{"from":"alice"}`,
			`{"type":"share","from":"alice","share_x":2147483647,"share_y":0}`,
			encode(t, valid),
		},
	}, testField)

	msg, err := d.Await(wire.TypeShare, nil, deadline())
	if err != nil {
		t.Fatalf("await: %s", err)
	}
	if diff := cmp.Diff(valid, msg); len(diff) > 0 {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}
	if d.Pending() != 0 {
		t.Fatalf("malformed frames queued: %d", d.Pending())
	}
}

func TestAwaitTimeout(t *testing.T) {
	d := New(&scriptReceiver{}, testField)

	_, err := d.Await(wire.TypeShare, nil, deadline())
	if !errors.Is(err, relay.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestAwaitPredicate(t *testing.T) {
	d := New(&scriptReceiver{
		frames: []string{
			encode(t, &wire.Message{
				Type:    wire.TypeGuessShare,
				From:    "alice",
				Guesser: "alice",
				X:       1,
				Y:       1,
			}),
			encode(t, &wire.Message{
				Type:    wire.TypeGuessShare,
				From:    "bob",
				Guesser: "bob",
				X:       2,
				Y:       2,
			}),
		},
	}, testField)

	msg, err := d.Await(wire.TypeGuessShare,
		func(m *wire.Message) bool {
			return m.Guesser == "bob"
		}, deadline())
	if err != nil {
		t.Fatalf("await: %s", err)
	}
	if msg.From != "bob" {
		t.Fatalf("predicate matched wrong message: %v", msg)
	}
	if d.Pending() != 1 {
		t.Fatalf("expected alice's message queued, got %d",
			d.Pending())
	}
}
