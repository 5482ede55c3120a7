//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"

	"github.com/markkurossi/guesspoint"
	"github.com/markkurossi/guesspoint/field"
	"github.com/markkurossi/guesspoint/player"
	"github.com/markkurossi/guesspoint/relay/relaytest"
	"github.com/markkurossi/tabulate"
)

func main() {
	conf := guesspoint.NewConfig()

	host := flag.String("host", conf.Host, "relay host")
	port := flag.Int("port", conf.Port, "relay port")
	players := flag.Int("players", 2, "number of players")
	fieldSize := flag.Uint64("field", conf.FieldSize,
		"field side length")
	prime := flag.Uint64("prime", conf.Prime, "field modulus")
	local := flag.Bool("local", false,
		"host an in-process relay for a single-machine game")
	seed := flag.String("seed", "",
		"hex PRNG seed (insecure, for debugging)")
	fVerbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Printf("Usage: guesspoint [options] nickname\n")
		os.Exit(1)
	}
	nick := flag.Arg(0)

	conf.Host = *host
	conf.Port = *port
	conf.FieldSize = *fieldSize
	conf.Prime = *prime
	conf.Verbose = *fVerbose

	if *local {
		srv, err := relaytest.New(conf.Addr())
		if err != nil {
			log.Fatalf("relay: %s", err)
		}
		defer srv.Close()

		h, ps, err := net.SplitHostPort(srv.Addr())
		if err != nil {
			log.Fatal(err)
		}
		conf.Host = h
		conf.Port, err = strconv.Atoi(ps)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Relay listening at %s\n", srv.Addr())
	}

	var rnd io.Reader
	if len(*seed) > 0 {
		key, err := hex.DecodeString(*seed)
		if err != nil {
			log.Fatalf("invalid seed: %s", err)
		}
		prng, err := field.NewKeyedPRNG(key)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("WARNING: seeded randomness, the point is not secret\n")
		rnd = prng
	}

	p, err := player.New(conf, nick, rnd)
	if err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		fmt.Printf("\ninterrupted\n")
		p.Close()
		os.Exit(1)
	}()

	result, err := p.Run(*players)
	if err != nil {
		log.Fatal(err)
	}

	tab := tabulate.New(tabulate.Github)
	tab.Header("Winner")
	tab.Header("Rounds").SetAlign(tabulate.MR)
	tab.Header("Sent").SetAlign(tabulate.MR)
	tab.Header("Rcvd").SetAlign(tabulate.MR)
	row := tab.Row()
	row.Column(result.Winner)
	row.Column(strconv.Itoa(result.Rounds))
	row.Column(guesspoint.FileSize(result.Stats.Sent).String())
	row.Column(guesspoint.FileSize(result.Stats.Recvd).String())
	tab.Print(os.Stdout)
}
