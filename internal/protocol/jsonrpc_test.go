package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvander/mcp-session/internal/protocol"
)

func TestEnvelopeClassification(t *testing.T) {
	cases := []struct {
		name           string
		line           string
		isResponse     bool
		isNotification bool
	}{
		{"response", `{"jsonrpc":"2.0","id":1,"result":{}}`, true, false},
		{"error response", `{"jsonrpc":"2.0","id":2,"error":{"code":-32601,"message":"nope"}}`, true, false},
		{"notification", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, false, true},
		{"request", `{"jsonrpc":"2.0","id":3,"method":"tools/list"}`, false, false},
		{"null id", `{"jsonrpc":"2.0","id":null,"method":"ping"}`, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var env protocol.Envelope
			require.NoError(t, json.Unmarshal([]byte(tc.line), &env))
			require.Equal(t, tc.isResponse, env.IsResponse())
			require.Equal(t, tc.isNotification, env.IsNotification())
		})
	}
}

func TestNotificationCarriesNoID(t *testing.T) {
	b, err := json.Marshal(protocol.NewNotification(protocol.MethodInitialized, nil))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	_, hasID := m["id"]
	require.False(t, hasID)
	require.Equal(t, "2.0", m["jsonrpc"])
}

func TestErrorResponseWithNullID(t *testing.T) {
	b, err := json.Marshal(protocol.NewErrorResponse(nil, protocol.CodeParseError, "parse error", nil))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	id, hasID := m["id"]
	require.True(t, hasID, "error responses always carry an id field")
	require.Nil(t, id)
	require.NotNil(t, m["error"])
	require.Nil(t, m["result"])
}
