package network

import (
	"encoding/json"
	"fmt"

	"nodekit/txpool"
)

// Message types of the line-delimited JSON peer protocol.  Each side
// sends one hello as its first line; tx lines follow in any number.
const (
	msgHello = "hello"
	msgTx    = "tx"
)

type message struct {
	Type string              `json:"type"`
	Node string              `json:"node,omitempty"`
	Kind string              `json:"kind,omitempty"`
	Tx   *txpool.Transaction `json:"tx,omitempty"`
}

// encode returns m as a single newline-terminated line.
func encode(m message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Type, err)
	}
	return append(b, '\n'), nil
}

func decode(line []byte) (message, error) {
	var m message
	if err := json.Unmarshal(line, &m); err != nil {
		return message{}, fmt.Errorf("decode: %w", err)
	}
	if m.Type == "" {
		return message{}, fmt.Errorf("decode: missing type")
	}
	return m, nil
}
