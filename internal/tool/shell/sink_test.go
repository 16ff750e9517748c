package shell

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan CommandOutput, n int) []CommandOutput {
	t.Helper()
	var got []CommandOutput
	timeout := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "channel closed early")
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("received %d of %d events", len(got), n)
		}
	}
	return got
}

func TestChannelSink(t *testing.T) {
	t.Run("delivers in emit order", func(t *testing.T) {
		s := NewChannelSink(0)
		defer s.Close()

		for _, line := range []string{"a", "b", "c"} {
			s.Emit(CommandOutput{Output: line})
		}

		got := receive(t, s.Events(), 3)
		assert.Equal(t, "a", got[0].Output)
		assert.Equal(t, "b", got[1].Output)
		assert.Equal(t, "c", got[2].Output)
	})

	t.Run("emit does not block without a reader", func(t *testing.T) {
		s := NewChannelSink(1)
		defer s.Close()

		done := make(chan struct{})
		go func() {
			for range 1000 {
				s.Emit(CommandOutput{Output: "x"})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Emit blocked")
		}
		assert.Len(t, receive(t, s.Events(), 1000), 1000)
	})

	t.Run("concurrent producers keep per-producer order", func(t *testing.T) {
		s := NewChannelSink(4)
		defer s.Close()

		var wg sync.WaitGroup
		for _, id := range []string{"p1", "p2"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 200 {
					s.Emit(CommandOutput{RunID: id, PID: i})
				}
			}()
		}
		wg.Wait()

		next := map[string]int{}
		for _, ev := range receive(t, s.Events(), 400) {
			assert.Equal(t, next[ev.RunID], ev.PID)
			next[ev.RunID]++
		}
	})

	t.Run("drain delivers queued events then closes", func(t *testing.T) {
		s := NewChannelSink(0)
		defer s.Close()

		s.Emit(CommandOutput{Output: "first"})
		s.Emit(CommandOutput{Output: "final", IsFinal: true})
		s.Drain()
		s.Drain()
		s.Emit(CommandOutput{Output: "dropped"})

		got := receive(t, s.Events(), 2)
		assert.Equal(t, "first", got[0].Output)
		assert.Equal(t, "final", got[1].Output)

		select {
		case _, ok := <-s.Events():
			assert.False(t, ok)
		case <-time.After(5 * time.Second):
			t.Fatal("channel not closed after drain")
		}
	})

	t.Run("close ends the channel", func(t *testing.T) {
		s := NewChannelSink(0)
		s.Close()
		s.Close()
		s.Emit(CommandOutput{Output: "dropped"})

		select {
		case _, ok := <-s.Events():
			assert.False(t, ok)
		case <-time.After(5 * time.Second):
			t.Fatal("channel not closed")
		}
	})
}

func TestFuncSink(t *testing.T) {
	var got []string
	var sink EventSink = FuncSink(func(ev CommandOutput) { got = append(got, ev.Output) })

	sink.Emit(CommandOutput{Output: "one"})
	sink.Emit(CommandOutput{Output: "two"})

	assert.Equal(t, []string{"one", "two"}, got)
}
