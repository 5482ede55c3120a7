//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package player

import (
	"fmt"
	"time"

	"github.com/markkurossi/guesspoint/share"
	"github.com/markkurossi/guesspoint/wire"
)

// generatePoint runs the joint generation of the secret point Q.
// Every party samples a contribution from the guessable grid, splits
// both coordinates into additive shares, keeps its own slice, and
// distributes the rest. When all contributions are in, this node's
// total share of Qx and Qy is the sum of the per-contributor shares
// it holds. Q itself is never materialized anywhere.
func (p *Player) generatePoint() error {
	n := len(p.allPlayers)

	x, err := p.gridSmp.Uniform()
	if err != nil {
		return err
	}
	y, err := p.gridSmp.Uniform()
	if err != nil {
		return err
	}
	sharesX, err := share.Split(p.fieldSmp, x, n)
	if err != nil {
		return err
	}
	sharesY, err := share.Split(p.fieldSmp, y, n)
	if err != nil {
		return err
	}
	for i, peer := range p.allPlayers {
		if peer == p.nick {
			p.sharesX[p.nick] = sharesX[i]
			p.sharesY[p.nick] = sharesY[i]
			continue
		}
		err = p.sendTo([]string{peer}, &wire.Message{
			Type: wire.TypeShare,
			From: p.nick,
			X:    sharesX[i],
			Y:    sharesY[i],
		})
		if err != nil {
			return err
		}
	}

	deadline := time.Now().Add(p.conf.Deadline)
	for len(p.sharesX) < n {
		msg, err := p.demux.Await(wire.TypeShare, nil, deadline)
		if err != nil {
			return err
		}
		if !p.isPlayer(msg.From) {
			return fmt.Errorf("%w: share from unknown party %s",
				ErrProtocol, msg.From)
		}
		if _, ok := p.sharesX[msg.From]; ok {
			return fmt.Errorf("%w: duplicate share from %s",
				ErrProtocol, msg.From)
		}
		p.sharesX[msg.From] = msg.X
		p.sharesY[msg.From] = msg.Y
		p.Debugf("share from %s\n", msg.From)
	}

	for _, peer := range p.allPlayers {
		p.totalX = p.field.Add(p.totalX, p.sharesX[peer])
		p.totalY = p.field.Add(p.totalY, p.sharesY[peer])
	}
	return nil
}

// barrier blocks until every peer has announced name. All frames a
// peer sent before its announcement have been forwarded to us when
// its announcement arrives; this relies on the relay's per-sender
// FIFO forwarding.
func (p *Player) barrier(name string) error {
	err := p.sendTo(p.peers, &wire.Message{
		Type: wire.TypeBarrier,
		From: p.nick,
		Name: name,
	})
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	deadline := time.Now().Add(p.conf.Deadline)
	for len(seen) < len(p.peers) {
		msg, err := p.demux.Await(wire.TypeBarrier,
			func(m *wire.Message) bool {
				return m.Name == name
			}, deadline)
		if err != nil {
			return fmt.Errorf("barrier %s: %w", name, err)
		}
		if !p.isPlayer(msg.From) || msg.From == p.nick {
			continue
		}
		seen[msg.From] = true
	}
	p.Debugf("barrier %s complete\n", name)
	return nil
}

// checkGuess runs the three-phase equality check for guesser's turn.
// The guesser passes its own guess in gx, gy; other parties receive
// their slice of it as a guess_share. Every party then broadcasts the
// difference of its total share and its guess share, and the sums of
// the differences are zero in both coordinates exactly when the guess
// equals Q.
func (p *Player) checkGuess(guesser string, gx, gy uint64) (bool, error) {
	n := len(p.allPlayers)
	deadline := time.Now().Add(p.conf.Deadline)

	var myGX, myGY uint64
	if guesser == p.nick {
		sharesGX, err := share.Split(p.fieldSmp, gx, n)
		if err != nil {
			return false, err
		}
		sharesGY, err := share.Split(p.fieldSmp, gy, n)
		if err != nil {
			return false, err
		}
		myGX = sharesGX[p.index]
		myGY = sharesGY[p.index]

		for i, peer := range p.allPlayers {
			if peer == p.nick {
				continue
			}
			err = p.sendTo([]string{peer}, &wire.Message{
				Type:    wire.TypeGuessShare,
				From:    p.nick,
				Guesser: guesser,
				X:       sharesGX[i],
				Y:       sharesGY[i],
			})
			if err != nil {
				return false, err
			}
		}
	} else {
		msg, err := p.demux.Await(wire.TypeGuessShare,
			func(m *wire.Message) bool {
				return m.Guesser == guesser
			}, deadline)
		if err != nil {
			return false, err
		}
		myGX = msg.X
		myGY = msg.Y
	}
	p.settle()

	dx := p.field.Sub(p.totalX, myGX)
	dy := p.field.Sub(p.totalY, myGY)

	err := p.sendTo(p.peers, &wire.Message{
		Type:    wire.TypeDiffShare,
		From:    p.nick,
		Guesser: guesser,
		X:       dx,
		Y:       dy,
	})
	if err != nil {
		return false, err
	}

	allDX := map[string]uint64{p.nick: dx}
	allDY := map[string]uint64{p.nick: dy}

	for len(allDX) < n {
		msg, err := p.demux.Await(wire.TypeDiffShare,
			func(m *wire.Message) bool {
				return m.Guesser == guesser
			}, deadline)
		if err != nil {
			return false, err
		}
		if !p.isPlayer(msg.From) {
			return false, fmt.Errorf(
				"%w: diff share from unknown party %s",
				ErrProtocol, msg.From)
		}
		if _, ok := allDX[msg.From]; ok {
			return false, fmt.Errorf(
				"%w: duplicate diff share from %s",
				ErrProtocol, msg.From)
		}
		allDX[msg.From] = msg.X
		allDY[msg.From] = msg.Y
	}

	var totalDX, totalDY uint64
	for _, peer := range p.allPlayers {
		totalDX = p.field.Add(totalDX, allDX[peer])
		totalDY = p.field.Add(totalDY, allDY[peer])
	}
	return totalDX == 0 && totalDY == 0, nil
}

// sendTo encodes msg and forwards it to the recipients.
func (p *Player) sendTo(recipients []string, msg *wire.Message) error {
	line, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	return p.client.Send(recipients, line)
}

func (p *Player) isPlayer(nick string) bool {
	for _, peer := range p.allPlayers {
		if peer == nick {
			return true
		}
	}
	return false
}

func (p *Player) settle() {
	if p.conf.Settle > 0 {
		time.Sleep(p.conf.Settle)
	}
}
