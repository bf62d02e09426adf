//go:build linux

package platform

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = notifyDest + ".Notify"
)

// Notify sends a notice over the session bus using the freedesktop
// notification interface.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.Call(notifyMethod, 0,
		AppName, uint32(0), opts.IconPath, title, body, []string{}, notifyHints(opts), expireMillis(opts))
	return call.Err
}

func notifyHints(opts Options) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{}
	if opts.Urgent {
		hints["urgency"] = dbus.MakeVariant(byte(2))
	}
	if opts.IconPath != "" {
		hints["image-path"] = dbus.MakeVariant(opts.IconPath)
	}
	return hints
}

func expireMillis(opts Options) int32 {
	return int32(opts.timeout().Milliseconds())
}
