//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package player implements one node of the Guess the Point game:
// the multi-party protocol engine (joint point generation, barrier
// synchronization, the three-phase equality check) and the round
// coordinator that drives a game from admission to winner.
//
// The protocol is secure against honest-but-curious adversaries: no
// coalition smaller than the full player set learns Q, and an
// equality check reveals only the field-element differences, which
// are independent of Q while at least one party stays honest. The
// revealed differences do leak whether and by how much a guess
// missed in the field; hiding that would take a secure zero test.
package player

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/markkurossi/guesspoint"
	"github.com/markkurossi/guesspoint/demux"
	"github.com/markkurossi/guesspoint/field"
	"github.com/markkurossi/guesspoint/relay"
	"github.com/markkurossi/guesspoint/wire"
	"github.com/markkurossi/tabulate"
	"github.com/markkurossi/text/superscript"
)

// GuessFunc supplies the local guess when it is this node's turn.
// Coordinates must be in [1, fieldSize]; a returned error wrapping
// ErrUserInput re-prompts, any other error aborts the game.
type GuessFunc func(fieldSize uint64) (x, y uint64, err error)

// Player is one game node. All protocol steps run in the goroutine
// that calls Run; the relay connection and the inbox have no other
// users.
type Player struct {
	conf   *guesspoint.Config
	nick   string
	client *relay.Client
	demux  *demux.Demux
	field  field.Field

	// fieldSmp draws share randomness from the full field; gridSmp
	// draws generation contributions from the guessable grid so
	// that Q lands in the range grid guesses can reach.
	fieldSmp *field.Sampler
	gridSmp  *field.Sampler

	peers      []string
	allPlayers []string
	index      int

	sharesX map[string]uint64
	sharesY map[string]uint64
	totalX  uint64
	totalY  uint64

	round  int
	winner string

	// Input supplies local guesses. Defaults to stdin prompting.
	Input GuessFunc

	stdin *bufio.Reader
}

// New creates a player node. A non-nil rnd replaces the system
// CSPRNG as the randomness source for contributions and shares; use
// field.KeyedPRNG for reproducible games.
func New(conf *guesspoint.Config, nick string, rnd io.Reader) (
	*Player, error) {

	if err := conf.Check(); err != nil {
		return nil, err
	}
	if len(nick) == 0 || strings.ContainsAny(nick, " ,\n") {
		return nil, fmt.Errorf("invalid nickname %q", nick)
	}
	f := field.New(conf.Prime)
	p := &Player{
		conf:     conf,
		nick:     nick,
		client:   relay.NewClient(conf.Addr(), nick),
		field:    f,
		fieldSmp: field.NewSampler(f, rnd),
		gridSmp:  field.NewSampler(field.New(conf.FieldSize), rnd),
		sharesX:  make(map[string]uint64),
		sharesY:  make(map[string]uint64),
	}
	p.demux = demux.New(p.client, f)
	p.Input = p.promptGuess
	return p, nil
}

// Nick returns the player's nickname.
func (p *Player) Nick() string {
	return p.nick
}

// Players returns the sorted roster, fixed after admission.
func (p *Player) Players() []string {
	return p.allPlayers
}

// Round returns the current round number.
func (p *Player) Round() int {
	return p.round
}

// Winner returns the winner's nickname, or the empty string while
// the game is running.
func (p *Player) Winner() string {
	return p.winner
}

// Close closes the relay connection.
func (p *Player) Close() error {
	return p.client.Close()
}

// Debugf prints protocol tracing when verbose mode is on.
func (p *Player) Debugf(format string, a ...interface{}) {
	if p.conf.Verbose {
		fmt.Printf("Player%s: %s", superscript.Itoa(p.index),
			fmt.Sprintf(format, a...))
	}
}

// Run plays one game with numPlayers parties and returns the result
// this node observed. Any protocol, transport, or timeout error
// aborts the game; the relay connection is closed in all cases.
func (p *Player) Run(numPlayers int) (*guesspoint.Result, error) {
	defer p.Close()

	if numPlayers < 2 {
		return nil, fmt.Errorf("need at least 2 players, got %d",
			numPlayers)
	}
	if err := p.join(numPlayers); err != nil {
		return nil, err
	}
	p.settle()

	if err := p.barrier("game_start"); err != nil {
		return nil, err
	}
	fmt.Printf("[%s] game on: %dx%d grid, %d players\n",
		p.nick, p.conf.FieldSize, p.conf.FieldSize,
		len(p.allPlayers))

	if err := p.generatePoint(); err != nil {
		return nil, fmt.Errorf("point generation failed: %w", err)
	}
	fmt.Printf("[%s] secret point generated\n", p.nick)
	if err := p.barrier("point_generated"); err != nil {
		return nil, err
	}

	winner, rounds, err := p.playRounds()
	if err != nil {
		return nil, err
	}
	fmt.Printf("[%s] winner: %s\n", p.nick, winner)

	return &guesspoint.Result{
		Winner: winner,
		Rounds: rounds,
		Stats:  p.client.Stats,
	}, nil
}

// join connects to the relay and polls the roster until numPlayers
// parties are present. The sorted roster fixes the canonical player
// order and this node's index.
func (p *Player) join(numPlayers int) error {
	if err := p.client.Connect(); err != nil {
		return err
	}
	fmt.Printf("[%s] waiting for %d more players\n", p.nick,
		numPlayers-1)
	for {
		peers, err := p.client.Peers()
		if err != nil {
			return err
		}
		count := len(peers) + 1
		fmt.Printf("[%s] connected: %d/%d\n", p.nick, count,
			numPlayers)
		if count >= numPlayers {
			p.peers = peers
			break
		}
		time.Sleep(p.conf.PollInterval)
	}
	p.allPlayers = append([]string{p.nick}, p.peers...)
	sort.Strings(p.allPlayers)
	sort.Strings(p.peers)
	p.index = sort.SearchStrings(p.allPlayers, p.nick)

	tab := tabulate.New(tabulate.Github)
	tab.Header("Player")
	tab.Header("Index").SetAlign(tabulate.MR)
	for i, nick := range p.allPlayers {
		row := tab.Row()
		row.Column(nick)
		row.Column(strconv.Itoa(i))
	}
	tab.Print(os.Stdout)

	return nil
}

// playRounds runs the round loop: players take turns in canonical
// order, each turn checks one guess, and the round barrier keeps the
// parties in lockstep. The loop ends when a guess matches Q.
func (p *Player) playRounds() (string, int, error) {
	var round int
	for {
		for _, turn := range p.allPlayers {
			round++
			p.round = round
			fmt.Printf("[%s] round %d: %s's turn\n", p.nick, round,
				turn)

			var guessed bool
			if turn == p.nick {
				gx, gy, err := p.readGuess()
				if err != nil {
					return "", round, err
				}
				err = p.sendTo(p.peers, &wire.Message{
					Type:    wire.TypeStartCheck,
					Guesser: p.nick,
				})
				if err != nil {
					return "", round, err
				}
				p.settle()
				guessed, err = p.checkGuess(p.nick, gx, gy)
				if err != nil {
					return "", round, fmt.Errorf(
						"round %d check failed: %w", round, err)
				}
			} else {
				deadline := time.Now().Add(p.conf.Deadline)
				_, err := p.demux.Await(wire.TypeStartCheck,
					func(m *wire.Message) bool {
						return m.Guesser == turn
					}, deadline)
				if err != nil {
					return "", round, fmt.Errorf(
						"round %d check failed: %w", round, err)
				}
				guessed, err = p.checkGuess(turn, 0, 0)
				if err != nil {
					return "", round, fmt.Errorf(
						"round %d check failed: %w", round, err)
				}
			}
			err := p.barrier(fmt.Sprintf("round_%d", round))
			if err != nil {
				return "", round, err
			}
			if guessed {
				p.winner = turn
				return turn, round, nil
			}
			fmt.Printf("[%s] %s missed\n", p.nick, turn)
		}
	}
}

// readGuess asks Input for a guess until it is inside the grid.
func (p *Player) readGuess() (uint64, uint64, error) {
	n := p.conf.FieldSize
	for {
		gx, gy, err := p.Input(n)
		if err != nil {
			if errors.Is(err, ErrUserInput) {
				fmt.Printf("%s\n", err)
				continue
			}
			return 0, 0, err
		}
		if gx < 1 || gx > n || gy < 1 || gy > n {
			fmt.Printf("guess outside 1-%d\n", n)
			continue
		}
		return gx, gy, nil
	}
}

func (p *Player) promptGuess(fieldSize uint64) (uint64, uint64, error) {
	if p.stdin == nil {
		p.stdin = bufio.NewReader(os.Stdin)
	}
	gx, err := p.promptCoord("x", fieldSize)
	if err != nil {
		return 0, 0, err
	}
	gy, err := p.promptCoord("y", fieldSize)
	if err != nil {
		return 0, 0, err
	}
	return gx, gy, nil
}

func (p *Player) promptCoord(name string, fieldSize uint64) (
	uint64, error) {

	fmt.Printf("%s (1-%d): ", name, fieldSize)
	line, err := p.stdin.ReadString('\n')
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUserInput, err)
	}
	return v, nil
}
