//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package demux routes the relay's interleaved inbound stream into a
// typed inbox. Protocol phases consume messages by type and
// predicate; frames nobody has asked for yet stay queued in arrival
// order until the end of the game.
package demux

import (
	"log"
	"time"

	"github.com/markkurossi/guesspoint/field"
	"github.com/markkurossi/guesspoint/wire"
)

// Receiver is the frame source, implemented by relay.Client. A
// receive past the deadline fails with relay.ErrTimeout.
type Receiver interface {
	Receive(deadline time.Time) (string, error)
}

// Pred filters candidate messages in Await.
type Pred func(*wire.Message) bool

// Demux classifies inbound frames and hands them out by message
// type. It is owned by the single protocol goroutine.
type Demux struct {
	recv  Receiver
	field field.Field
	queue []*wire.Message
}

// New creates a demultiplexer reading frames from recv and validating
// payloads against f.
func New(recv Receiver, f field.Field) *Demux {
	return &Demux{
		recv:  recv,
		field: f,
	}
}

// Await returns the first message of type t matching pred, first from
// the resident queue in arrival order, then from the wire. Frames of
// other types arriving meanwhile are appended to the queue; malformed
// frames are dropped with a log and do not count toward anything.
// Await fails with the receiver's timeout error when the deadline
// elapses.
func (d *Demux) Await(t wire.Type, pred Pred, deadline time.Time) (
	*wire.Message, error) {

	for i, msg := range d.queue {
		if msg.Type == t && (pred == nil || pred(msg)) {
			d.queue = append(d.queue[:i], d.queue[i+1:]...)
			return msg, nil
		}
	}
	for {
		frame, err := d.recv.Receive(deadline)
		if err != nil {
			return nil, err
		}
		msg, err := wire.Decode(frame, d.field)
		if err != nil {
			log.Printf("demux: dropping frame: %s\n", err)
			continue
		}
		if msg.Type == t && (pred == nil || pred(msg)) {
			return msg, nil
		}
		d.queue = append(d.queue, msg)
	}
}

// Pending returns the number of queued unconsumed messages.
func (d *Demux) Pending() int {
	return len(d.queue)
}
