//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package guesspoint

import (
	"fmt"

	"github.com/markkurossi/guesspoint/relay"
)

// Result describes a finished game as observed by one node.
type Result struct {
	Winner string
	Rounds int
	Stats  relay.IOStats
}

func (r *Result) String() string {
	return fmt.Sprintf("%s won in %d rounds (%s sent, %s received)",
		r.Winner, r.Rounds,
		FileSize(r.Stats.Sent), FileSize(r.Stats.Recvd))
}

// FileSize formats byte counts for humans.
type FileSize uint64

func (s FileSize) String() string {
	if s > 1024*1024*1024*1024 {
		return fmt.Sprintf("%dTB", s/(1024*1024*1024*1024))
	} else if s > 1024*1024*1024 {
		return fmt.Sprintf("%dGB", s/(1024*1024*1024))
	} else if s > 1024*1024 {
		return fmt.Sprintf("%dMB", s/(1024*1024))
	} else if s > 1024 {
		return fmt.Sprintf("%dkB", s/1024)
	} else {
		return fmt.Sprintf("%dB", s)
	}
}
