package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamTipSubject(t *testing.T) {
	assert.Equal(t, "streamhub.streams.tips.ksabc", StreamTipSubject("ksabc"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "streamhub", cfg.Name)
	assert.Equal(t, -1, cfg.MaxReconnects)
	assert.Equal(t, 2*time.Second, cfg.ReconnectWait)
}

func TestTipAdvancedEventJSON(t *testing.T) {
	event := TipAdvancedEvent{
		StreamID:  "ksabc",
		PrevTip:   "G",
		Tip:       "A",
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ksabc", decoded["streamId"])
	assert.Equal(t, "G", decoded["prevTip"])
	assert.Equal(t, "A", decoded["tip"])
}

func TestPublisher_NilClientSafe(t *testing.T) {
	p := NewPublisher(nil, nil)
	p.TipAdvanced(t.Context(), "ksabc", "G", "A")
	p.DappDeployed(t.Context(), "id", "notes", "mainnet")
}
