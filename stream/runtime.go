package stream

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog/log"
)

// Coroutine is any resumable unit speaking the Io contract. T is the terminal result.
type Coroutine[T any] interface {
	Resume(arg *Io) (*Io, T, error)
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// Handle performs the operation requested by in on rw, blocking until it completes,
// and returns in with N and Err filled.
func Handle(rw io.ReadWriter, in *Io) *Io {
	switch in.Kind {
	case Write:
		in.N, in.Err = rw.Write(in.Buf)
	case Read:
		in.N, in.Err = rw.Read(in.Buf)
	default:
		in.Err = ErrUnexpectedIo
	}
	return in
}

// Run drives c to completion over rw. When rw supports deadlines (net.Conn, tls.Conn),
// the context deadline is applied to every operation. Cancellation is checked between
// operations; an abandoned coroutine holds nothing that needs releasing.
func Run[T any](ctx context.Context, rw io.ReadWriter, c Coroutine[T]) (T, error) {
	var zero T

	if d, ok := rw.(deadliner); ok {
		if deadline, ok := ctx.Deadline(); ok {
			if err := d.SetDeadline(deadline); err != nil {
				return zero, err
			}
		}
	}

	var arg *Io
	for {
		next, res, err := c.Resume(arg)
		if err != nil {
			return zero, err
		}
		if next == nil {
			return res, nil
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		arg = Handle(rw, next)
		log.Trace().Stringer("kind", arg.Kind).Int("n", arg.N).AnErr("err", arg.Err).Msg("stream io handled")
	}
}
