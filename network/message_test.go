package network

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodekit/txpool"
)

func TestEncode_OneLine(t *testing.T) {
	tx := &txpool.Transaction{ID: uuid.New(), Sender: "a", GasPrice: 1, Data: []byte("x\ny")}
	line, err := encode(message{Type: msgTx, Tx: tx})
	require.NoError(t, err)

	assert.Equal(t, 1, bytes.Count(line, []byte("\n")), "embedded newlines must be escaped")
	m, err := decode(bytes.TrimSuffix(line, []byte("\n")))
	require.NoError(t, err)
	assert.Equal(t, tx, m.Tx)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not json", "hello"},
		{"no type", `{"node":"x"}`},
		{"wrong shape", `{"type":"tx","tx":"nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode([]byte(tt.line))
			assert.Error(t, err)
		})
	}
}
