// Package systemd reports service state to the systemd supervisor through
// the sd_notify protocol. Outside systemd (no NOTIFY_SOCKET) every call is a
// no-op.
package systemd

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyFunc matches daemon.SdNotify.
type NotifyFunc func(unsetEnvironment bool, state string) (bool, error)

// Notifier sends state updates for the current unit.
type Notifier struct {
	notify NotifyFunc
}

func NewNotifier() *Notifier { return &Notifier{notify: daemon.SdNotify} }

// NewNotifierFunc builds a Notifier on a custom send function. Tests only.
func NewNotifierFunc(fn NotifyFunc) *Notifier { return &Notifier{notify: fn} }

// Ready tells systemd startup finished (Type=notify units).
func (n *Notifier) Ready() (bool, error) { return n.send(daemon.SdNotifyReady) }

// Stopping tells systemd a graceful shutdown began.
func (n *Notifier) Stopping() (bool, error) { return n.send(daemon.SdNotifyStopping) }

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(format string, args ...any) (bool, error) {
	return n.send("STATUS=" + fmt.Sprintf(format, args...))
}

func (n *Notifier) send(state string) (bool, error) {
	if n == nil || n.notify == nil {
		return false, nil
	}
	return n.notify(false, state)
}
