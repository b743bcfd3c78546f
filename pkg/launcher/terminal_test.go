package launcher

import (
	"os"
	"testing"
	"time"
)

func TestInteractiveFalseForPipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	if Interactive(r) {
		t.Error("pipe reported as a terminal")
	}
}

func TestAwaitAckReturnsOnNewline(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	done := make(chan struct{})
	go func() {
		awaitAck(r)
		close(done)
	}()

	w.Write([]byte("\n"))
	w.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("awaitAck did not return after newline")
	}
}

func TestAwaitAckReturnsOnEOF(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	w.Close()

	done := make(chan struct{})
	go func() {
		awaitAck(r)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("awaitAck did not return on closed input")
	}
}
