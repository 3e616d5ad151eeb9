package systemd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierStates(t *testing.T) {
	var got []string
	n := NewNotifierFunc(func(unset bool, state string) (bool, error) {
		assert.False(t, unset)
		got = append(got, state)
		return true, nil
	})

	ok, err := n.Ready()
	require.NoError(t, err)
	assert.True(t, ok)
	_, _ = n.Status("cycle %s: %s", "abc", "no_changes")
	_, _ = n.Stopping()

	assert.Equal(t, []string{"READY=1", "STATUS=cycle abc: no_changes", "STOPPING=1"}, got)
}

func TestNilNotifierIsNoop(t *testing.T) {
	var n *Notifier
	ok, err := n.Ready()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestNotifierOutsideSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	ok, err := NewNotifier().Ready()
	assert.NoError(t, err)
	assert.False(t, ok)
}
