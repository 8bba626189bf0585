package viewmodel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservable_GetSetUpdate(t *testing.T) {
	o := NewObservable(1)
	assert.Equal(t, 1, o.Get())

	o.Set(2)
	assert.Equal(t, 2, o.Get())

	got := o.Update(func(v int) int { return v * 10 })
	assert.Equal(t, 20, got)
	assert.Equal(t, 20, o.Get())
}

func TestObservable_Watch(t *testing.T) {
	o := NewObservable("initial")

	ch, stop := o.Watch()
	assert.Equal(t, "initial", <-ch)

	o.Set("a")
	o.Set("b")
	o.Set("c")

	// Only the latest value is retained for a slow watcher.
	assert.Equal(t, "c", <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected value %q", v)
	default:
	}

	stop()
	stop()

	_, open := <-ch
	assert.False(t, open, "channel should be closed after stop")

	// Updates after stop must not panic.
	o.Set("d")
}

func TestStatus_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Status Status      `json:"status"`
		Order  OrderStatus `json:"order"`
		Auth   AuthStatus  `json:"auth"`
	}{StatusSuccess, OrderProcessingPayment, AuthError})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","order":"processing_payment","auth":"error"}`, string(data))
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "connection error", failureMessage(errConnection, "failed"))
	assert.Equal(t, "failed", failureMessage(errServer, "failed"))
	assert.Equal(t, "dial tcp 127.0.0.1:3000: connection refused", transportCause(errConnection))
	assert.Equal(t, errServer.Error(), transportCause(errServer))
}
