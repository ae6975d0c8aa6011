package packet

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestPacketRoundTrip(t *testing.T) {
	var pipe bytes.Buffer
	w := NewWriter(&pipe)
	if err := w.WritePacket([]byte("some data")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.WritePacket([]byte("some other data")); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewReader(&pipe)
	if err := r.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}

	first, ok := r.Next()
	if !ok {
		t.Fatal("first frame missing")
	}
	if string(first) != "some data" {
		t.Errorf("first frame = %q, want %q", first, "some data")
	}
	second, ok := r.Next()
	if !ok {
		t.Fatal("second frame missing")
	}
	if string(second) != "some other data" {
		t.Errorf("second frame = %q, want %q", second, "some other data")
	}
	if _, ok := r.Next(); ok {
		t.Error("unexpected third frame")
	}
	if r.Buffered() != 0 {
		t.Errorf("buffered = %d, want 0", r.Buffered())
	}
}

func TestPartialDelivery(t *testing.T) {
	var staging bytes.Buffer
	w := NewWriter(&staging)
	if err := w.WritePacket([]byte("some data")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.WritePacket([]byte("some other data")); err != nil {
		t.Fatalf("write: %v", err)
	}
	wire := staging.Bytes()

	// Deliver the first frame plus two bytes of the next one.
	var pipe bytes.Buffer
	cut := 4 + len("some data") + 2
	pipe.Write(wire[:cut])

	r := NewReader(&pipe)
	if err := r.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}
	frame, ok := r.Next()
	if !ok {
		t.Fatal("first frame missing")
	}
	if string(frame) != "some data" {
		t.Errorf("first frame = %q, want %q", frame, "some data")
	}
	if _, ok := r.Next(); ok {
		t.Error("partial frame must not be handed out")
	}
	if r.Buffered() != 2 {
		t.Errorf("buffered = %d, want 2", r.Buffered())
	}

	// The rest arrives.
	pipe.Write(wire[cut:])
	if err := r.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}
	frame, ok = r.Next()
	if !ok {
		t.Fatal("second frame missing")
	}
	if string(frame) != "some other data" {
		t.Errorf("second frame = %q, want %q", frame, "some other data")
	}
	if r.Buffered() != 0 {
		t.Errorf("buffered = %d, want 0", r.Buffered())
	}
}

func TestClosedAfterPeerHangsUp(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go func() {
		_ = NewWriter(client).WritePacket([]byte("last words"))
		client.Close()
	}()

	r := NewReader(server)
	server.SetReadDeadline(time.Now().Add(time.Second))
	if err := r.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}
	frame, ok := r.Next()
	if !ok {
		t.Fatal("frame written before close must survive")
	}
	if string(frame) != "last words" {
		t.Errorf("frame = %q, want %q", frame, "last words")
	}
	if !r.Closed() {
		t.Error("reader should report the stream closed")
	}
}

func TestPollToleratesDeadline(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	r := NewReader(server)

	// Nothing pending: an expired deadline ends the poll without error.
	server.SetReadDeadline(time.Now().Add(5 * time.Millisecond))
	if err := r.Poll(); err != nil {
		t.Fatalf("poll on idle pipe: %v", err)
	}
	if _, ok := r.Next(); ok {
		t.Fatal("no frame should be available")
	}

	go func() {
		_ = NewWriter(client).WritePacket([]byte("hello"))
	}()

	server.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := r.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}
	frame, ok := r.Next()
	if !ok {
		t.Fatal("frame missing after poll")
	}
	if string(frame) != "hello" {
		t.Errorf("frame = %q, want %q", frame, "hello")
	}
}
