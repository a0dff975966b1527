package state

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		from  State
		event string
		want  State
		err   bool
	}{
		{StateIdle, EventBegin, StateFilling, false},
		{StateFilling, EventCapture, StateFilling, false},
		{StateFilling, EventComplete, StateIdle, false},
		{StateIdle, EventCapture, StateIdle, true},
		{StateIdle, EventComplete, StateIdle, true},
		{StateFilling, EventBegin, StateFilling, true},
	}
	for _, tc := range cases {
		got, err := Transition(ctx, tc.from, tc.event)
		if tc.err {
			assert.Error(t, err, "%s from %s", tc.event, tc.from)
		} else {
			assert.NoError(t, err, "%s from %s", tc.event, tc.from)
		}
		assert.Equal(t, tc.want, got, "%s from %s", tc.event, tc.from)
	}
}

func TestSessionCapturesFieldsInOrder(t *testing.T) {
	ctx := context.Background()
	s, err := Begin(ctx, "idea", []string{"тема", "для кого", "цель"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, s.FlowID)

	field, ok := s.Field()
	require.True(t, ok)
	assert.Equal(t, "тема", field)

	for i, answer := range []string{"боты", "новички"} {
		_, done, err := s.Capture(ctx, answer)
		require.NoError(t, err)
		assert.False(t, done)
		assert.Equal(t, i+1, s.Index)
	}
	field, done, err := s.Capture(ctx, "аудитория")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "цель", field)
	assert.Equal(t, StateIdle, s.State)

	want := []Value{{"тема", "боты"}, {"для кого", "новички"}, {"цель", "аудитория"}}
	if diff := cmp.Diff(want, s.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	_, _, err = s.Capture(ctx, "extra")
	assert.Error(t, err, "capture after completion")
	assert.Len(t, s.Values, 3)
}

func TestBeginRejectsEmptyFields(t *testing.T) {
	_, err := Begin(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestMemoryStoreIsolatesChatsAndCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a, err := Begin(ctx, "ad", []string{"продукт"})
	require.NoError(t, err)
	store.Put(1, a)

	_, ok := store.Get(2)
	assert.False(t, ok)

	got, ok := store.Get(1)
	require.True(t, ok)
	_, _, err = got.Capture(ctx, "бот")
	require.NoError(t, err)

	stored, _ := store.Get(1)
	assert.Empty(t, stored.Values, "mutation must not leak without Put")

	store.Put(1, got)
	stored, _ = store.Get(1)
	assert.Len(t, stored.Values, 1)

	store.Delete(1)
	assert.Zero(t, store.Len())
}
