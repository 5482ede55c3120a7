//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package player

import (
	"errors"
)

var (
	// ErrProtocol means a peer violated the protocol: a sender
	// contributed twice to a phase or a frame arrived from a party
	// outside the game.
	ErrProtocol = errors.New("protocol violation")

	// ErrUserInput means a guess could not be read or parsed. The
	// local guesser is re-prompted; it is never fatal on its own.
	ErrUserInput = errors.New("invalid input")
)
