// Package platform delivers desktop notices through the host's
// notification service.
package platform

import "time"

// AppName is reported to the notification service.
const AppName = "Notedis"

// DefaultTimeout applies when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Options configures how a notice is displayed.
type Options struct {
	// IconPath, when non-empty, points to an image shown with the notice.
	IconPath string
	Timeout  time.Duration
	// Urgent notices stay on screen on servers that honour urgency.
	Urgent bool
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}
