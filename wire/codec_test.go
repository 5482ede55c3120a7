//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package wire

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/markkurossi/guesspoint/field"
)

// A 61-bit modulus exercises values JSON float64 decoding would
// corrupt.
const testPrime = 1<<61 - 1

var testField = field.New(testPrime)

func TestCodecRoundTrip(t *testing.T) {
	messages := []*Message{
		{
			Type: TypeShare,
			From: "alice",
			X:    testPrime - 1,
			Y:    0,
		},
		{
			Type:    TypeGuessShare,
			From:    "bob",
			Guesser: "bob",
			X:       3,
			Y:       5,
		},
		{
			Type:    TypeDiffShare,
			From:    "carol",
			Guesser: "bob",
			X:       testPrime - 2,
			Y:       1,
		},
		{
			Type:    TypeStartCheck,
			Guesser: "alice",
		},
		{
			Type: TypeBarrier,
			From: "alice",
			Name: "game_start",
		},
	}
	for _, msg := range messages {
		line, err := Encode(msg)
		if err != nil {
			t.Fatalf("encode %v: %s", msg, err)
		}
		if strings.ContainsRune(line, '\n') {
			t.Fatalf("encode %v: not a single line", msg)
		}
		decoded, err := Decode(line, testField)
		if err != nil {
			t.Fatalf("decode %v: %s", msg, err)
		}
		if diff := cmp.Diff(msg, decoded); len(diff) > 0 {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	lines := []string{
		"not json at all",
		`{"from":"alice"}`,
		`{"type":"warp","from":"alice"}`,
		`{"type":"share","share_x":1,"share_y":2}`,
		`{"type":"share","from":"alice","share_y":2}`,
		`{"type":"share","from":"alice","share_x":"one","share_y":2}`,
		`{"type":"share","from":"alice","share_x":-1,"share_y":2}`,
		`{"type":"guess_share","from":"bob","share_gx":1,"share_gy":2}`,
		`{"type":"diff_share","from":"bob","guesser":"bob","d_x":1}`,
		`{"type":"start_check"}`,
		`{"type":"barrier","from":"alice"}`,
		`{"type":"barrier","name":"game_start"}`,
	}
	for _, line := range lines {
		_, err := Decode(line, testField)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("decode %q: expected ErrMalformed, got %v",
				line, err)
		}
	}
}

func TestDecodeOutOfRange(t *testing.T) {
	f := field.New(17)
	lines := []string{
		`{"type":"share","from":"alice","share_x":17,"share_y":2}`,
		`{"type":"share","from":"alice","share_x":1,"share_y":100}`,
		`{"type":"diff_share","from":"a","guesser":"a","d_x":0,"d_y":17}`,
	}
	for _, line := range lines {
		_, err := Decode(line, f)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("decode %q: expected ErrOutOfRange, got %v",
				line, err)
		}
	}
}

func TestDecodeUnknownKeys(t *testing.T) {
	line := `{"type":"barrier","from":"alice","name":"x","hop":3}`
	msg, err := Decode(line, testField)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if msg.Type != TypeBarrier || msg.Name != "x" {
		t.Fatalf("unexpected message %v", msg)
	}
}

func TestDecodeWhitespace(t *testing.T) {
	line := "  " + `{"type":"start_check","guesser":"bob"}` + " \n"
	msg, err := Decode(line, testField)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if msg.Guesser != "bob" {
		t.Fatalf("unexpected guesser %q", msg.Guesser)
	}
}

func TestTypeNames(t *testing.T) {
	for name, typ := range typeValues {
		if typ.String() != name {
			t.Errorf("type %v: name mismatch %q", typ, name)
		}
		parsed, ok := ParseType(name)
		if !ok || parsed != typ {
			t.Errorf("ParseType(%q) failed", name)
		}
	}
	if _, ok := ParseType("warp"); ok {
		t.Errorf("ParseType accepted unknown name")
	}
}
