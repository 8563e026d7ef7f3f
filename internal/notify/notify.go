// Package notify surfaces playback events as desktop notifications
// over the org.freedesktop.Notifications D-Bus interface. Without a
// session bus the package degrades to a no-op notifier, so the daemon
// runs fine on a desktop-less host.
package notify

// Urgency is the freedesktop urgency hint.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification is one message shown to the user. Track changes chain
// ReplacesID so successive tracks update a single notification instead
// of stacking.
type Notification struct {
	Title      string
	Body       string  // optional, "Artist — Album" for track changes
	Icon       string  // icon name or image path, usually album art
	Timeout    int32   // ms; -1 for the server default, 0 to never expire
	ReplacesID uint32  // 0 starts a new notification
	Urgency    Urgency
}

// Notifier sends desktop notifications. Notify returns the
// server-assigned ID so callers can replace a prior notification; the
// no-op implementation returns 0 and no error.
type Notifier interface {
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}
