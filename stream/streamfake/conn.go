package streamfake

import (
	"bytes"
	"io"
	"strconv"
	"sync"
)

var _ io.ReadWriter = (*Conn)(nil)

// Conn is a scripted in-memory transport for driving coroutines in tests.
// Reads hand out at most MaxRead bytes of the scripted input, writes accept at most
// MaxWrite bytes. Zero means unlimited.
type Conn struct {
	MaxRead  int
	MaxWrite int
	WriteErr error
	ReadErr  error

	lock sync.Mutex
	out  bytes.Buffer
	in   []byte
}

// NewConn returns a Conn that answers reads with response.
func NewConn(response string) *Conn {
	return &Conn{in: []byte(response)}
}

func (c *Conn) Write(p []byte) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.WriteErr != nil {
		return 0, c.WriteErr
	}
	if c.MaxWrite > 0 && len(p) > c.MaxWrite {
		p = p[:c.MaxWrite]
	}
	return c.out.Write(p)
}

func (c *Conn) Read(p []byte) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.ReadErr != nil {
		return 0, c.ReadErr
	}
	if len(c.in) == 0 {
		return 0, io.EOF
	}
	n := len(p)
	if c.MaxRead > 0 && n > c.MaxRead {
		n = c.MaxRead
	}
	n = copy(p[:n], c.in)
	c.in = c.in[n:]
	return n, nil
}

// Written returns everything written so far.
func (c *Conn) Written() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.out.String()
}

// JSONResponse frames body as an HTTP/1.1 response with the given status line.
func JSONResponse(status, body string) string {
	return "HTTP/1.1 " + status + "\r\nContent-Type: application/json\r\nCache-Control: no-store\r\nContent-Length: " +
		strconv.Itoa(len(body)) + "\r\n\r\n" + body
}
