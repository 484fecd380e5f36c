package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jane.doe@example.com", "ja***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"not-an-email", "***@***"},
		{"a@b@c", "***@***"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactEmail(tt.in))
		})
	}
}

func TestLoggerRedactsAddressFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetRedactPII(true)
	defer SetOutput(os.Stderr)

	Info("interpreting email", "sender", "customer@shop.example", "subject", "Your order")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cu***@shop.example", entry["sender"])
	assert.Equal(t, "Your order", entry["subject"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestLoggerRedactsEmbeddedAddresses(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetRedactPII(true)
	defer SetOutput(os.Stderr)

	Warn("extraction degraded", "detail", "contact support@retailer.example for help")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "contact su***@retailer.example for help", entry["detail"])
}

func TestLoggerLevelGate(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(WARN)
	defer func() {
		SetLevel(INFO)
		SetOutput(os.Stderr)
	}()

	Debug("noisy")
	Info("still noisy")
	assert.Empty(t, buf.String())

	Error("boom", "code", 500)
	assert.Contains(t, buf.String(), `"ERROR"`)
	assert.Contains(t, buf.String(), `"code":500`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" WARN "))
	assert.Equal(t, INFO, ParseLevel("unknown"))
}
