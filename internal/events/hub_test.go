package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	h := NewHub(10)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish("job.completed", map[string]string{"job_id": "j1"})

	select {
	case ev := <-ch:
		assert.Equal(t, "job.completed", ev.Type)
		assert.EqualValues(t, 1, ev.ID)
		var data map[string]string
		require.NoError(t, json.Unmarshal(ev.Data, &data))
		assert.Equal(t, "j1", data["job_id"])
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSinceReplaysAndWraps(t *testing.T) {
	h := NewHub(3)
	for i := 0; i < 5; i++ {
		h.Publish("tick", nil)
	}

	all := h.Since(0)
	require.Len(t, all, 3)
	assert.EqualValues(t, []int64{3, 4, 5}, []int64{all[0].ID, all[1].ID, all[2].ID})
	assert.JSONEq(t, `{}`, string(all[0].Data))

	later := h.Since(4)
	require.Len(t, later, 1)
	assert.EqualValues(t, 5, later[0].ID)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(1)
	_, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			h.Publish("tick", i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe()
	h.Close()

	_, ok := <-ch
	assert.False(t, ok)
	cancel() // no double close

	late, _ := h.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
	h.Publish("ignored", nil)
	assert.Empty(t, h.Since(0))
}
