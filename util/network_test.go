package util

import (
	"testing"
)

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"10.0.0.1:30303", "10.0.0.1:30303", false},
		{"10.0.0.1", "10.0.0.1:30303", false},
		{"::1", "[::1]:30303", false},
		{"[::1]:9000", "[::1]:9000", false},
		{"node.example.com", "node.example.com:30303", false},
		{":0", ":0", false},
		{"host:abc", "", true},
		{"host:70000", "", true},
		{"a:b:c", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeAddr(tt.in, 30303)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeAddr(%q) err=%v wantErr=%v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeAddr(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAddr(t *testing.T) {
	if got := FormatAddr("1.2.3.4", 22); got != "1.2.3.4:22" {
		t.Errorf("got %q, want %q", got, "1.2.3.4:22")
	}
}

func TestFindFreePort(t *testing.T) {
	port, err := FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	if port < 1 || port > 65535 {
		t.Errorf("port %d out of range", port)
	}
}
