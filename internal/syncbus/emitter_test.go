package syncbus

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/careconnect/backend/internal/domain/entities"
)

func TestEmitter_OnEmitOff(t *testing.T) {
	emitter := NewEmitter(zerolog.Nop())
	var got []string

	id := emitter.On(entities.ChangeTypeAppointments, func(e *entities.ChangeEvent) {
		got = append(got, "named:"+e.EntityID)
	})
	emitter.On(Wildcard, func(e *entities.ChangeEvent) {
		got = append(got, "wildcard:"+e.EntityID)
	})

	n := emitter.Emit(entities.ChangeTypeAppointments, &entities.ChangeEvent{EntityID: "a1"})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"named:a1", "wildcard:a1"}, got)

	assert.True(t, emitter.Off(entities.ChangeTypeAppointments, id))
	assert.False(t, emitter.Off(entities.ChangeTypeAppointments, id))

	got = nil
	n = emitter.Emit(entities.ChangeTypeAppointments, &entities.ChangeEvent{EntityID: "a2"})
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"wildcard:a2"}, got)
}

func TestEmitter_NamedHandlersRunBeforeWildcard(t *testing.T) {
	emitter := NewEmitter(zerolog.Nop())
	var got []string
	emitter.On(Wildcard, func(*entities.ChangeEvent) { got = append(got, "wildcard") })
	emitter.On("x", func(*entities.ChangeEvent) { got = append(got, "named-1") })
	emitter.On("x", func(*entities.ChangeEvent) { got = append(got, "named-2") })

	emitter.Emit("x", &entities.ChangeEvent{})

	assert.Equal(t, []string{"named-1", "named-2", "wildcard"}, got)
}

func TestEmitter_OtherEventsDoNotFire(t *testing.T) {
	emitter := NewEmitter(zerolog.Nop())
	called := false
	emitter.On(entities.ChangeTypeProfiles, func(*entities.ChangeEvent) { called = true })

	assert.Zero(t, emitter.Emit(entities.ChangeTypePreferences, &entities.ChangeEvent{}))
	assert.False(t, called)
}

func TestEmitter_HandlerPanicIsContained(t *testing.T) {
	emitter := NewEmitter(zerolog.Nop())
	reached := false
	emitter.On("x", func(*entities.ChangeEvent) { panic("boom") })
	emitter.On("x", func(*entities.ChangeEvent) { reached = true })

	assert.NotPanics(t, func() { emitter.Emit("x", &entities.ChangeEvent{}) })
	assert.True(t, reached)
}

func TestEmitter_HandlerMayUnsubscribeItself(t *testing.T) {
	emitter := NewEmitter(zerolog.Nop())
	calls := 0
	var id ListenerID
	id = emitter.On("x", func(*entities.ChangeEvent) {
		calls++
		emitter.Off("x", id)
	})

	emitter.Emit("x", &entities.ChangeEvent{})
	emitter.Emit("x", &entities.ChangeEvent{})
	assert.Equal(t, 1, calls)
}
