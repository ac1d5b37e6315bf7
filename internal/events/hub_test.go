package events

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/debugbridge/internal/log"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR")
	os.Exit(m.Run())
}

func TestHub_PublishDelivers(t *testing.T) {
	h := NewHub(4)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish("Debugger.resumed", nil)
	h.Publish("Console.messageAdded", map[string]string{"text": "hi"})

	ev := <-ch
	assert.Equal(t, int64(1), ev.ID)
	assert.Equal(t, "Debugger", ev.Domain())
	assert.JSONEq(t, `{}`, string(ev.Data))

	ev = <-ch
	assert.Equal(t, "Console", ev.Domain())
	assert.JSONEq(t, `{"text":"hi"}`, string(ev.Data))
}

func TestHub_SnapshotSinceWrapsRing(t *testing.T) {
	h := NewHub(3)
	for i := 0; i < 5; i++ {
		h.Publish("bridge.command", map[string]int{"n": i})
	}

	all := h.SnapshotSince(0)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)
	assert.Equal(t, int64(5), all[2].ID)

	tail := h.SnapshotSince(4)
	require.Len(t, tail, 1)
	var body map[string]int
	require.NoError(t, json.Unmarshal(tail[0].Data, &body))
	assert.Equal(t, 4, body["n"])
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	h := NewHub(1)
	_, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+3; i++ {
		h.Publish("Debugger.paused", nil)
	}
	assert.Equal(t, int64(3), h.Dropped())
}

func TestHub_CancelClosesOnce(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	h.Publish("Debugger.resumed", nil)
}

func TestHub_UnencodableDataIsSkipped(t *testing.T) {
	h := NewHub(2)
	h.Publish("bad", make(chan int))
	assert.Empty(t, h.SnapshotSince(0))
}
