// Package packet implements the wire framing used between client and
// server. Every frame is a big-endian uint32 payload length followed by
// the payload bytes. The reader accumulates whatever the transport has
// to offer and hands out complete frames, keeping partial ones buffered
// until the rest arrives.
package packet

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"os"
)

const headerSize = 4

// Reader reassembles length-prefixed frames from a byte stream.
type Reader struct {
	src    io.Reader
	buf    []byte
	closed bool
	tmp    [4096]byte
}

func NewReader(src io.Reader) *Reader {
	return &Reader{src: src}
}

// Poll drains the source into the internal buffer. A read deadline
// timeout or end of input means nothing more is pending right now and
// ends the poll cleanly; any other transport error is returned. End of
// input additionally marks the reader closed, frames buffered before it
// stay readable through Next.
func (r *Reader) Poll() error {
	for {
		n, err := r.src.Read(r.tmp[:])
		r.buf = append(r.buf, r.tmp[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.closed = true
				return nil
			}
			if isTimeout(err) {
				return nil
			}
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// Closed reports whether the source has reached end of input.
func (r *Reader) Closed() bool { return r.closed }

// Next pops one complete frame from the buffer. It returns false when
// the buffer holds no complete frame yet.
func (r *Reader) Next() ([]byte, bool) {
	if len(r.buf) < headerSize {
		return nil, false
	}
	size := int(binary.BigEndian.Uint32(r.buf))
	if len(r.buf) < headerSize+size {
		return nil, false
	}
	frame := make([]byte, size)
	copy(frame, r.buf[headerSize:headerSize+size])
	r.buf = r.buf[:copy(r.buf, r.buf[headerSize+size:])]
	return frame, true
}

// Buffered reports how many bytes sit in the buffer, including any
// partial frame.
func (r *Reader) Buffered() int { return len(r.buf) }

// Writer emits length-prefixed frames to a byte stream.
type Writer struct {
	dst io.Writer
}

func NewWriter(dst io.Writer) *Writer {
	return &Writer{dst: dst}
}

// WritePacket frames the payload and writes it out. Transport errors
// are returned to the caller. A short write without an error breaks the
// io.Writer contract and panics.
func (w *Writer) WritePacket(payload []byte) error {
	var head [headerSize]byte
	binary.BigEndian.PutUint32(head[:], uint32(len(payload)))
	n, err := w.dst.Write(head[:])
	if err != nil {
		return err
	}
	if n != headerSize {
		panic("packet: short header write")
	}
	n, err = w.dst.Write(payload)
	if err != nil {
		return err
	}
	if n != len(payload) {
		panic("packet: short payload write")
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
