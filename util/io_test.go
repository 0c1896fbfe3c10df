package util

import (
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
)

func TestNewLineScanner(t *testing.T) {
	sc, release := NewLineScanner(strings.NewReader("one\ntwo\n\nthree"))
	defer release()

	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	want := []string{"one", "two", "", "three"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewLineScanner_LongLine(t *testing.T) {
	line := strings.Repeat("x", DefaultBufSize*3)
	sc, release := NewLineScanner(strings.NewReader(line + "\n"))
	defer release()

	if !sc.Scan() {
		t.Fatalf("scan failed: %v", sc.Err())
	}
	if len(sc.Text()) != len(line) {
		t.Errorf("len = %d, want %d", len(sc.Text()), len(line))
	}
}

func TestIsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"eof", io.EOF, true},
		{"wrapped eof", fmt.Errorf("read: %w", io.EOF), true},
		{"net closed", net.ErrClosed, true},
		{"op closed", &net.OpError{Op: "read", Err: net.ErrClosed}, true},
		{"other", fmt.Errorf("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClosed(tt.err); got != tt.want {
				t.Errorf("IsClosed(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBuffers_RoundTrip(t *testing.T) {
	buf := Buffers.Get()
	if buf == nil {
		t.Fatal("Get returned nil")
	}
	if len(*buf) != DefaultBufSize {
		t.Errorf("buffer size = %d, want %d", len(*buf), DefaultBufSize)
	}
	Buffers.Put(buf)
}
