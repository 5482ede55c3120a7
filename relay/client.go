//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package relay implements the client side of the relay protocol:
// the nickname handshake, payload forwarding, roster queries, and
// framing of the inbound byte stream.
//
// The relay forwards payloads verbatim and may concatenate
// back-to-back sends into one TCP segment, so every payload carries
// the two-character end sentinel and inbound framing splits on the
// sentinel in preference to newlines. The client keeps a byte buffer
// across reads; a frame split over two kernel reads is reassembled
// without loss.
package relay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"
)

// Sentinel terminates every forwarded payload.
const Sentinel = "||"

// Prompt is the tail of the relay greeting.
const Prompt = "Pick nickname: "

// rosterHeader marks the header line of a print response.
const rosterHeader = "available connections"

const (
	handshakeTimeout = 30 * time.Second
	drainWindow      = 1500 * time.Millisecond
)

var (
	// ErrHandshake means the relay did not offer the nickname
	// prompt.
	ErrHandshake = errors.New("relay handshake failed")

	// ErrTimeout means no frame arrived before the deadline.
	ErrTimeout = errors.New("receive timeout")

	// ErrClosed means the relay closed the connection.
	ErrClosed = errors.New("relay closed connection")
)

// Client owns the TCP connection to the relay. It is not safe for
// concurrent use; the protocol runs in a single goroutine.
type Client struct {
	nick    string
	addr    string
	conn    net.Conn
	buf     []byte
	salvage []string

	// DrainWindow bounds how long Peers and the handshake wait for
	// the relay's response to settle.
	DrainWindow time.Duration

	Stats IOStats
}

// NewClient creates a client for the relay at addr, registering as
// nick.
func NewClient(addr, nick string) *Client {
	return &Client{
		nick:        nick,
		addr:        addr,
		DrainWindow: drainWindow,
	}
}

// Nick returns the client's registered nickname.
func (c *Client) Nick() string {
	return c.nick
}

// Connect dials the relay, waits for the nickname prompt, registers
// the nickname, and drains the welcome banner. Frames that arrive
// already during the drain are salvaged for Receive.
func (c *Client) Connect() error {
	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return err
	}
	c.conn = conn

	err = c.readUntil(Prompt, handshakeTimeout)
	if err != nil {
		conn.Close()
		c.conn = nil
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	err = c.writeLine(c.nick)
	if err != nil {
		conn.Close()
		c.conn = nil
		return err
	}
	// The relay acks the registration with a free-form welcome
	// line.
	err = c.fill(c.DrainWindow)
	if err != nil {
		return err
	}
	c.scanBuffer(nil)
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Send forwards payload to the named recipients. The payload must be
// a single line; the end sentinel is appended so receivers can split
// concatenated payloads.
func (c *Client) Send(recipients []string, payload string) error {
	if len(recipients) == 0 {
		return nil
	}
	payload = strings.TrimSpace(payload)
	return c.writeLine(fmt.Sprintf("send %s %s%s",
		strings.Join(recipients, ","), payload, Sentinel))
}

// Peers queries the relay roster and returns the other connected
// nicknames. Frames that arrive interleaved with the response are
// salvaged for the next Receive call instead of being dropped.
func (c *Client) Peers() ([]string, error) {
	err := c.writeLine("print")
	if err != nil {
		return nil, err
	}
	err = c.fill(c.DrainWindow)
	if err != nil {
		return nil, err
	}
	peers := []string{}
	c.scanBuffer(&peers)
	return peers, nil
}

// Receive returns the next inbound frame, blocking until deadline.
// Relay chatter between frames is dropped with a log. A deadline in
// the past still drains salvaged and buffered frames.
func (c *Client) Receive(deadline time.Time) (string, error) {
	var chunk [4096]byte
	for {
		if len(c.salvage) > 0 {
			frame := c.salvage[0]
			c.salvage = c.salvage[1:]
			return frame, nil
		}
		frame, ok := c.nextFrame()
		if ok {
			return frame, nil
		}
		if !time.Now().Before(deadline) {
			return "", ErrTimeout
		}
		c.conn.SetReadDeadline(deadline)
		n, err := c.conn.Read(chunk[:])
		if n > 0 {
			c.buf = append(c.buf, chunk[:n]...)
			c.Stats.Recvd += uint64(n)
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return "", ErrClosed
			}
			return "", err
		}
	}
}

// nextFrame extracts the next complete frame from the buffer. Chatter
// lines that precede any frame data are consumed so they cannot glue
// onto a later frame.
func (c *Client) nextFrame() (string, bool) {
	for {
		sIdx := bytes.Index(c.buf, []byte(Sentinel))
		if sIdx < 0 {
			nIdx := bytes.IndexByte(c.buf, '\n')
			if nIdx < 0 || bytes.IndexByte(c.buf[:nIdx], '{') >= 0 {
				return "", false
			}
			line := strings.TrimSpace(string(c.buf[:nIdx]))
			c.buf = c.buf[nIdx+1:]
			if len(line) > 0 {
				log.Printf("relay: %s\n", line)
			}
			continue
		}
		seg := c.buf[:sIdx]
		c.buf = c.buf[sIdx+len(Sentinel):]

		jIdx := bytes.IndexByte(seg, '{')
		if jIdx >= 0 {
			chatter := strings.TrimSpace(string(seg[:jIdx]))
			if len(chatter) > 0 {
				log.Printf("relay: %s\n", chatter)
			}
			return strings.TrimSpace(string(seg[jIdx:])), true
		}
		chatter := strings.TrimSpace(string(seg))
		if len(chatter) > 0 {
			log.Printf("relay: %s\n", chatter)
		}
	}
}

// scanBuffer consumes the complete units in the buffer: sentinel
// frames go to the salvage queue, newline lines are collected as
// roster candidates when peers is non-nil and logged as chatter
// otherwise. A trailing fragment stays buffered.
func (c *Client) scanBuffer(peers *[]string) {
	for {
		sIdx := bytes.Index(c.buf, []byte(Sentinel))
		nIdx := bytes.IndexByte(c.buf, '\n')

		if sIdx >= 0 && (nIdx < 0 || sIdx < nIdx) {
			seg := c.buf[:sIdx]
			c.buf = c.buf[sIdx+len(Sentinel):]
			jIdx := bytes.IndexByte(seg, '{')
			if jIdx >= 0 {
				c.salvage = append(c.salvage,
					strings.TrimSpace(string(seg[jIdx:])))
				seg = seg[:jIdx]
			}
			for _, line := range strings.Split(string(seg), "\n") {
				c.scanLine(line, peers)
			}
			continue
		}
		if nIdx >= 0 {
			line := string(c.buf[:nIdx])
			c.buf = c.buf[nIdx+1:]
			if idx := strings.IndexByte(line, '{'); idx >= 0 {
				// Frame that lost its sentinel; salvage it as-is.
				c.scanLine(line[:idx], peers)
				c.salvage = append(c.salvage,
					strings.TrimSpace(line[idx:]))
				continue
			}
			c.scanLine(line, peers)
			continue
		}
		return
	}
}

func (c *Client) scanLine(line string, peers *[]string) {
	line = strings.TrimSpace(line)
	if len(line) == 0 || strings.Contains(line, rosterHeader) {
		return
	}
	if peers != nil {
		*peers = append(*peers, line)
	} else {
		log.Printf("relay: %s\n", line)
	}
}

// readUntil reads until marker has been seen and discards everything
// up to and including it.
func (c *Client) readUntil(marker string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var chunk [4096]byte
	for {
		idx := bytes.Index(c.buf, []byte(marker))
		if idx >= 0 {
			c.buf = c.buf[idx+len(marker):]
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrTimeout
		}
		c.conn.SetReadDeadline(deadline)
		n, err := c.conn.Read(chunk[:])
		if n > 0 {
			c.buf = append(c.buf, chunk[:n]...)
			c.Stats.Recvd += uint64(n)
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return ErrClosed
			}
			return err
		}
	}
}

// fill buffers everything the relay sends within the window.
func (c *Client) fill(window time.Duration) error {
	deadline := time.Now().Add(window)
	var chunk [4096]byte
	for {
		c.conn.SetReadDeadline(deadline)
		n, err := c.conn.Read(chunk[:])
		if n > 0 {
			c.buf = append(c.buf, chunk[:n]...)
			c.Stats.Recvd += uint64(n)
		}
		if err != nil {
			if isTimeout(err) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return ErrClosed
			}
			return err
		}
	}
}

func (c *Client) writeLine(line string) error {
	data := []byte(line + "\n")
	_, err := c.conn.Write(data)
	if err != nil {
		return err
	}
	c.Stats.Sent += uint64(len(data))
	return nil
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
