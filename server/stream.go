package server

import (
	"fmt"
	"io"
)

// ingestSession is the slice of session behavior the tee pump needs; both
// summary and transcript sessions satisfy it.
type ingestSession interface {
	Feed(chunk []byte)
	Terminal() bool
	Discard()
	Err() error
}

// flushWriter is satisfied by *bufio.Writer; flushing after every chunk is
// what makes the relay feel live to the client.
type flushWriter interface {
	io.Writer
	Flush() error
}

// teeStream relays the upstream SSE byte stream to the client verbatim while
// feeding the same bytes through the session, one chunk at a time, draining
// each chunk fully before the next read. It returns nil once the session
// completes; a producer-signalled error event surfaces as the session error;
// everything else is a transport fault.
func teeStream(upstream io.Reader, w flushWriter, sess ingestSession) error {
	buf := make([]byte, 4096)
	for {
		n, err := upstream.Read(buf)
		if n > 0 {
			sess.Feed(buf[:n])

			if _, werr := w.Write(buf[:n]); werr != nil {
				sess.Discard()
				return fmt.Errorf("write to client: %w", werr)
			}
			if werr := w.Flush(); werr != nil {
				sess.Discard()
				return fmt.Errorf("flush to client: %w", werr)
			}
		}

		if sess.Terminal() {
			// nil for a completed session, the carried message otherwise
			return sess.Err()
		}

		switch err {
		case nil:
		case io.EOF:
			sess.Discard()
			return fmt.Errorf("upstream stream ended before completion")
		default:
			sess.Discard()
			return fmt.Errorf("read upstream stream: %w", err)
		}
	}
}
