package pubsub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignal_EmitInConnectOrder(t *testing.T) {
	sig := NewSignal[int]()

	var got []int
	sig.Connect(func(v int) { got = append(got, v*10) })
	sig.Connect(func(v int) { got = append(got, v*100) })

	sig.Emit(3)

	require.Equal(t, []int{30, 300}, got)
}

func TestSignal_DisconnectRemovesOnlyThatHandle(t *testing.T) {
	sig := NewSignal[string]()

	var a, b int
	ca := sig.Connect(func(string) { a++ })
	sig.Connect(func(string) { b++ })

	sig.Disconnect(ca)
	sig.Emit("x")

	require.Equal(t, 0, a)
	require.Equal(t, 1, b)
	require.Equal(t, 1, sig.ConnCount())
}

func TestSignal_DisconnectIsIdempotent(t *testing.T) {
	sig := NewSignal[int]()

	c := sig.Connect(func(int) {})
	sig.Disconnect(c)
	sig.Disconnect(c) // Already gone - must be a no-op
	sig.Disconnect(Conn(9999))
	sig.Disconnect(Conn(0)) // Zero value is never live

	require.Equal(t, 0, sig.ConnCount())
}

func TestSignal_ConnectDuringEmitDeferredToNextEmit(t *testing.T) {
	sig := NewSignal[int]()

	calls := 0
	sig.Connect(func(int) {
		calls++
		if calls == 1 {
			sig.Connect(func(int) { calls += 100 })
		}
	})

	sig.Emit(1)
	require.Equal(t, 1, calls, "listener added mid-emit must not fire this emit")

	sig.Emit(2)
	require.Equal(t, 102, calls)
}

func TestSignal_BalanceAfterConnectDisconnectCycles(t *testing.T) {
	sig := NewSignal[int]()
	base := sig.ConnCount()

	for i := 0; i < 50; i++ {
		c1 := sig.Connect(func(int) {})
		c2 := sig.Connect(func(int) {})
		sig.Disconnect(c1)
		sig.Disconnect(c2)
	}

	require.Equal(t, base, sig.ConnCount())
}
