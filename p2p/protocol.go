//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

// Package p2p implements the length-prefixed binary framing the
// garbler and evaluator use to exchange circuit descriptions, garbled
// tables, oblivious-transfer messages, and results over a plain TCP
// connection.
package p2p

import (
	"bufio"
	"encoding/binary"
	"io"
	"math/big"
)

// Message tags identifying the kind of record that follows on the
// wire, in the order the protocol's lockstep request/reply exchange
// uses them.
const (
	// OpCircuit: Garbler -> Evaluator, one circuit's gate spec,
	// garbled tables, and output p-bits.
	OpCircuit = iota
	// OpAck: Evaluator -> Garbler, acknowledges OpCircuit.
	OpAck
	// OpAliceInputs: Garbler -> Evaluator, one input combination's
	// Alice wire values.
	OpAliceInputs
	// OpOTRequest: Evaluator -> Garbler, wire id needing a real
	// Smart DH oblivious transfer.
	OpOTRequest
	// OpDisabledPairRequest: Evaluator -> Garbler, wire id needing
	// the insecure debug-mode raw key pair instead of OT.
	OpDisabledPairRequest
	// OpResult: Evaluator -> Garbler, the evaluated output bits for
	// one input combination.
	OpResult
	// OpDone: Garbler -> Evaluator, no more circuits follow.
	OpDone
)

// Conn wraps a network connection with buffered, length-prefixed
// reads and writes and byte-count instrumentation.
type Conn struct {
	closer io.Closer
	io     *bufio.ReadWriter
	Stats  IOStats
}

// IOStats tracks the bytes sent and received over a Conn.
type IOStats struct {
	Sent  uint64
	Recvd uint64
}

// Sub returns the element-wise difference stats-o, useful for
// reporting per-phase traffic from two snapshots of the same Conn.
func (stats IOStats) Sub(o IOStats) IOStats {
	return IOStats{
		Sent:  stats.Sent - o.Sent,
		Recvd: stats.Recvd - o.Recvd,
	}
}

// Sum returns the total bytes transferred in either direction.
func (stats IOStats) Sum() uint64 {
	return stats.Sent + stats.Recvd
}

// NewConn wraps conn for framed I/O. If conn implements io.Closer,
// Close on the returned Conn closes it too.
func NewConn(conn io.ReadWriter) *Conn {
	closer, _ := conn.(io.Closer)

	return &Conn{
		closer: closer,
		io: bufio.NewReadWriter(bufio.NewReader(conn),
			bufio.NewWriter(conn)),
	}
}

// Flush writes any buffered output to the underlying connection.
func (c *Conn) Flush() error {
	return c.io.Flush()
}

// Close flushes and closes the underlying connection.
func (c *Conn) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// SendByte writes a single byte.
func (c *Conn) SendByte(val byte) error {
	if err := c.io.WriteByte(val); err != nil {
		return err
	}
	c.Stats.Sent++
	return nil
}

// ReceiveByte reads a single byte.
func (c *Conn) ReceiveByte() (byte, error) {
	b, err := c.io.ReadByte()
	if err != nil {
		return 0, err
	}
	c.Stats.Recvd++
	return b, nil
}

// SendUint16 writes val as a big-endian uint16.
func (c *Conn) SendUint16(val int) error {
	if err := binary.Write(c.io, binary.BigEndian, uint16(val)); err != nil {
		return err
	}
	c.Stats.Sent += 2
	return nil
}

// ReceiveUint16 reads a big-endian uint16.
func (c *Conn) ReceiveUint16() (int, error) {
	var buf [2]byte
	if _, err := io.ReadFull(c.io, buf[:]); err != nil {
		return 0, err
	}
	c.Stats.Recvd += 2
	return int(binary.BigEndian.Uint16(buf[:])), nil
}

// SendUint32 writes val as a big-endian uint32.
func (c *Conn) SendUint32(val int) error {
	err := binary.Write(c.io, binary.BigEndian, uint32(val))
	if err != nil {
		return err
	}
	c.Stats.Sent += 4
	return nil
}

// ReceiveUint32 reads a big-endian uint32.
func (c *Conn) ReceiveUint32() (int, error) {
	var buf [4]byte

	_, err := io.ReadFull(c.io, buf[:])
	if err != nil {
		return 0, err
	}
	c.Stats.Recvd += 4

	return int(binary.BigEndian.Uint32(buf[:])), nil
}

// SendData writes a length-prefixed byte slice.
func (c *Conn) SendData(val []byte) error {
	err := c.SendUint32(len(val))
	if err != nil {
		return err
	}
	_, err = c.io.Write(val)
	if err != nil {
		return err
	}
	c.Stats.Sent += uint64(len(val))
	return nil
}

// ReceiveData reads a length-prefixed byte slice.
func (c *Conn) ReceiveData() ([]byte, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}

	result := make([]byte, n)
	_, err = io.ReadFull(c.io, result)
	if err != nil {
		return nil, err
	}
	c.Stats.Recvd += uint64(n)

	return result, nil
}

// SendString writes a length-prefixed UTF-8 string.
func (c *Conn) SendString(val string) error {
	return c.SendData([]byte(val))
}

// ReceiveString reads a length-prefixed UTF-8 string.
func (c *Conn) ReceiveString() (string, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SendBigInt writes a length-prefixed big-endian integer, the wire
// shape used for prime-group elements exchanged during oblivious
// transfer.
func (c *Conn) SendBigInt(val *big.Int) error {
	return c.SendData(val.Bytes())
}

// ReceiveBigInt reads a length-prefixed big-endian integer.
func (c *Conn) ReceiveBigInt() (*big.Int, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(data), nil
}
