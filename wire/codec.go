//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/markkurossi/guesspoint/field"
)

var (
	// ErrMalformed means a frame failed to parse as a protocol
	// message. The receiver drops such frames with a log.
	ErrMalformed = errors.New("malformed message")

	// ErrOutOfRange means a payload value is not a canonical field
	// element.
	ErrOutOfRange = errors.New("value out of field range")
)

// rawMessage is the on-the-wire shape. The payload key names differ
// per message type; numbers are kept as json.Number so that 61-bit
// elements survive decoding exactly.
type rawMessage struct {
	Type    string       `json:"type"`
	From    string       `json:"from,omitempty"`
	Guesser string       `json:"guesser,omitempty"`
	Name    string       `json:"name,omitempty"`
	ShareX  *json.Number `json:"share_x,omitempty"`
	ShareY  *json.Number `json:"share_y,omitempty"`
	GuessX  *json.Number `json:"share_gx,omitempty"`
	GuessY  *json.Number `json:"share_gy,omitempty"`
	DiffX   *json.Number `json:"d_x,omitempty"`
	DiffY   *json.Number `json:"d_y,omitempty"`
}

func number(v uint64) *json.Number {
	n := json.Number(strconv.FormatUint(v, 10))
	return &n
}

// Encode renders msg as a single line without the line terminator.
// The relay client appends the end-of-payload sentinel when sending.
func Encode(msg *Message) (string, error) {
	raw := rawMessage{
		Type: msg.Type.String(),
	}
	switch msg.Type {
	case TypeShare:
		raw.From = msg.From
		raw.ShareX = number(msg.X)
		raw.ShareY = number(msg.Y)

	case TypeGuessShare:
		raw.From = msg.From
		raw.Guesser = msg.Guesser
		raw.GuessX = number(msg.X)
		raw.GuessY = number(msg.Y)

	case TypeDiffShare:
		raw.From = msg.From
		raw.Guesser = msg.Guesser
		raw.DiffX = number(msg.X)
		raw.DiffY = number(msg.Y)

	case TypeStartCheck:
		raw.Guesser = msg.Guesser

	case TypeBarrier:
		raw.From = msg.From
		raw.Name = msg.Name

	default:
		return "", fmt.Errorf("encode: unknown message type %v",
			msg.Type)
	}
	data, err := json.Marshal(&raw)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses one frame. Payload values are validated against f;
// frames with a missing or unrecognized type, missing required keys,
// or non-decimal payloads fail with ErrMalformed, and payloads
// outside [0, p-1] fail with ErrOutOfRange. Unknown keys are
// ignored.
func Decode(line string, f field.Field) (*Message, error) {
	line = strings.TrimSpace(line)

	var raw rawMessage
	err := json.Unmarshal([]byte(line), &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw.Type) == 0 {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	t, ok := ParseType(raw.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed,
			raw.Type)
	}
	msg := &Message{
		Type:    t,
		From:    raw.From,
		Guesser: raw.Guesser,
		Name:    raw.Name,
	}
	switch t {
	case TypeShare:
		if err := sender(raw.From); err != nil {
			return nil, err
		}
		if msg.X, err = element(raw.ShareX, f); err != nil {
			return nil, err
		}
		if msg.Y, err = element(raw.ShareY, f); err != nil {
			return nil, err
		}

	case TypeGuessShare:
		if err := sender(raw.From); err != nil {
			return nil, err
		}
		if len(raw.Guesser) == 0 {
			return nil, fmt.Errorf("%w: missing guesser",
				ErrMalformed)
		}
		if msg.X, err = element(raw.GuessX, f); err != nil {
			return nil, err
		}
		if msg.Y, err = element(raw.GuessY, f); err != nil {
			return nil, err
		}

	case TypeDiffShare:
		if err := sender(raw.From); err != nil {
			return nil, err
		}
		if len(raw.Guesser) == 0 {
			return nil, fmt.Errorf("%w: missing guesser",
				ErrMalformed)
		}
		if msg.X, err = element(raw.DiffX, f); err != nil {
			return nil, err
		}
		if msg.Y, err = element(raw.DiffY, f); err != nil {
			return nil, err
		}

	case TypeStartCheck:
		if len(raw.Guesser) == 0 {
			return nil, fmt.Errorf("%w: missing guesser",
				ErrMalformed)
		}

	case TypeBarrier:
		if err := sender(raw.From); err != nil {
			return nil, err
		}
		if len(raw.Name) == 0 {
			return nil, fmt.Errorf("%w: missing barrier name",
				ErrMalformed)
		}
	}
	return msg, nil
}

func sender(from string) error {
	if len(from) == 0 {
		return fmt.Errorf("%w: missing sender", ErrMalformed)
	}
	return nil
}

func element(n *json.Number, f field.Field) (uint64, error) {
	if n == nil {
		return 0, fmt.Errorf("%w: missing field element", ErrMalformed)
	}
	v, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad field element %q", ErrMalformed,
			n.String())
	}
	if !f.Contains(v) {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
	return v, nil
}
