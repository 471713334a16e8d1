// Package stream defines the I/O contract between the sans-I/O coroutines of this module
// and the transport that drives them.
//
// A coroutine never touches a socket. When it needs bytes written or read it suspends,
// returning an *Io describing the operation. The transport performs exactly that
// operation, records the outcome on the same *Io and hands it back through Resume.
//
//	var arg *stream.Io
//	for {
//	    io, res, err := coroutine.Resume(arg)
//	    if err != nil {
//	        return err
//	    }
//	    if io == nil {
//	        return res // terminal
//	    }
//	    arg = stream.Handle(conn, io)
//	}
package stream

import (
	"errors"
	"fmt"
)

// DefaultReadSize is the buffer size coroutines request for a single read.
const DefaultReadSize = 4096

// ErrUnexpectedIo is returned by a coroutine that is resumed with an outcome for an
// operation it did not request.
var ErrUnexpectedIo = errors.New("unexpected I/O outcome")

// Kind is the operation a coroutine asks the transport to perform.
type Kind int

const (
	// Write asks the transport to write Buf.
	Write Kind = iota + 1
	// Read asks the transport to read into Buf.
	Read
)

func (k Kind) String() string {
	switch k {
	case Write:
		return "write"
	case Read:
		return "read"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Io is both the request a coroutine emits and the outcome the transport feeds back.
type Io struct {
	Kind Kind

	// Buf holds the bytes to write, or the buffer to read into.
	Buf []byte

	// N is set by the transport: bytes written from, or read into, Buf.
	N int

	// Err is set by the transport on failure. For reads io.EOF marks the end of the
	// stream and is not a transport failure.
	Err error
}

// NewWrite returns a request to write b.
func NewWrite(b []byte) *Io {
	return &Io{Kind: Write, Buf: b}
}

// NewRead returns a request to read up to size bytes.
func NewRead(size int) *Io {
	if size <= 0 {
		size = DefaultReadSize
	}
	return &Io{Kind: Read, Buf: make([]byte, size)}
}

// Bytes returns the bytes transferred, Buf[:N].
func (i *Io) Bytes() []byte {
	n := i.N
	if n < 0 {
		n = 0
	}
	if n > len(i.Buf) {
		n = len(i.Buf)
	}
	return i.Buf[:n]
}

// Expect checks that the outcome answers a request of kind k.
func (i *Io) Expect(k Kind) error {
	if i.Kind != k {
		return fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedIo, k, i.Kind)
	}
	return nil
}
