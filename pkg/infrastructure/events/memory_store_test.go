package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	types   map[string]bool
	handled []Event
	err     error
}

func (h *recordingHandler) CanHandle(eventType string) bool {
	return h.types == nil || h.types[eventType]
}

func (h *recordingHandler) Handle(event Event) error {
	h.handled = append(h.handled, event)
	return h.err
}

func TestInMemoryEventStore_AppendAndRead(t *testing.T) {
	store := NewInMemoryEventStore()

	require.NoError(t, store.AppendEvent("run-1", NewEvent(ObservationsLoadedEvent, "run-1", ObservationsLoaded{Observations: 62})))
	require.NoError(t, store.AppendEvent("run-1", NewEvent(ModelFittedEvent, "run-1", ModelFitted{Sigma2: 4})))
	require.NoError(t, store.AppendEvent("run-2", NewEvent(ObservationsLoadedEvent, "run-2", ObservationsLoaded{Observations: 30})))

	events, err := store.ReadEvents("run-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Version())
	assert.Equal(t, 2, events[1].Version())
	assert.Equal(t, ModelFittedEvent, events[1].Type())
	assert.Equal(t, 4.0, events[1].Data().(ModelFitted).Sigma2)

	events, err = store.ReadEvents("run-1", 2)
	require.NoError(t, err)
	require.Len(t, events, 1)

	events, err = store.ReadEvents("run-1", 5)
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = store.ReadEvents("missing", 1)
	require.NoError(t, err)
	assert.Empty(t, events)

	all, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-2", all[2].StreamID())
	assert.Equal(t, 1, all[2].Version())
}

func TestInMemoryEventStore_EmptyStream(t *testing.T) {
	store := NewInMemoryEventStore()
	err := store.AppendEvent("", NewEvent(ModelFittedEvent, "", nil))
	assert.Error(t, err)
}

func TestInMemoryEventStore_Subscribe(t *testing.T) {
	store := NewInMemoryEventStore()

	fitOnly := &recordingHandler{types: map[string]bool{ModelFittedEvent: true}}
	everything := &recordingHandler{}
	require.NoError(t, store.Subscribe([]string{ModelFittedEvent}, fitOnly))
	require.NoError(t, store.Subscribe(AllPlanningEvents, everything))

	for _, eventType := range AllPlanningEvents {
		require.NoError(t, store.AppendEvent("run-1", NewEvent(eventType, "run-1", nil)))
	}

	require.Len(t, fitOnly.handled, 1)
	assert.Equal(t, ModelFittedEvent, fitOnly.handled[0].Type())
	assert.Len(t, everything.handled, len(AllPlanningEvents))
}

func TestInMemoryEventStore_HandlerErrorStillStoresEvent(t *testing.T) {
	store := NewInMemoryEventStore()
	failing := &recordingHandler{err: errors.New("sink unavailable")}
	require.NoError(t, store.Subscribe([]string{PolicyComputedEvent}, failing))

	err := store.AppendEvent("run-1", NewEvent(PolicyComputedEvent, "run-1", PolicyComputed{TotalCost: "556.65"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink unavailable")

	events, readErr := store.ReadEvents("run-1", 1)
	require.NoError(t, readErr)
	assert.Len(t, events, 1)
}

func TestInMemoryEventStore_NilHandler(t *testing.T) {
	assert.Error(t, NewInMemoryEventStore().Subscribe(AllPlanningEvents, nil))
}

func TestLogHandler(t *testing.T) {
	h := NewLogHandler(5)
	assert.True(t, h.CanHandle(ForecastGeneratedEvent))
	assert.NoError(t, h.Handle(NewEvent(ForecastGeneratedEvent, "run-1", ForecastGenerated{Horizon: 10})))
}
