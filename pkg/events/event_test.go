package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	ID    uuid.UUID `json:"id"`
	Score int       `json:"score"`
	At    time.Time `json:"at"`
}

func (e sampleEvent) EventType() string      { return "sample.scored" }
func (e sampleEvent) AggregateID() uuid.UUID { return e.ID }
func (e sampleEvent) OccurredAt() time.Time  { return e.At }

func TestWrap(t *testing.T) {
	evt := sampleEvent{ID: uuid.New(), Score: 42, At: time.Now().UTC()}

	env, err := Wrap(evt)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, env.ID)
	assert.Equal(t, "sample.scored", env.Type)
	assert.Equal(t, evt.ID, env.AggregateID)
	assert.True(t, evt.At.Equal(env.OccurredAt))

	var decoded sampleEvent
	require.NoError(t, env.Decode(&decoded))
	assert.Equal(t, 42, decoded.Score)
}

func TestEnvelope_DecodeInvalid(t *testing.T) {
	env := Envelope{Type: "broken", Payload: []byte("{")}
	var v sampleEvent
	assert.Error(t, env.Decode(&v))
}

func TestEventCollector(t *testing.T) {
	var c EventCollector
	c.Record(sampleEvent{ID: uuid.New()})
	c.Record(sampleEvent{ID: uuid.New()})

	assert.Len(t, c.Events(), 2)
	assert.Len(t, c.ClearEvents(), 2)
	assert.Empty(t, c.Events())
}
