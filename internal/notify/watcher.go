package notify

import (
	"github.com/lnicolet/cadence/internal/playback"
	"github.com/lnicolet/cadence/internal/track"
)

const trackNotifyTimeout = 4000 // ms

// Watch subscribes to playback events and raises a desktop notification
// on every track change and playback failure. Returns a stop function.
func Watch(svc playback.Service, notifier Notifier) func() {
	sub := svc.Subscribe()
	stop := make(chan struct{})

	go func() {
		var lastID uint32
		for {
			select {
			case <-stop:
				return
			case <-sub.Done:
				return
			case e := <-sub.TrackChanged:
				if e.Current == nil {
					continue
				}
				n := trackNotification(*e.Current)
				n.ReplacesID = lastID
				if id, err := notifier.Notify(n); err == nil && id != 0 {
					lastID = id
				}
			case e := <-sub.Notices:
				if e.Err == nil {
					continue
				}
				_, _ = notifier.Notify(noticeNotification(e))
			}
		}
	}()

	return func() { close(stop) }
}

func trackNotification(t track.Track) Notification {
	body := t.Artist
	if t.Album != "" {
		body += " — " + t.Album
	}
	return Notification{
		Title:   t.Title,
		Body:    body,
		Icon:    artIcon(t),
		Timeout: trackNotifyTimeout,
		Urgency: UrgencyLow,
	}
}

func noticeNotification(e playback.Notice) Notification {
	body := e.Err.Error()
	if e.Track != nil {
		body = e.Track.Artist + " - " + e.Track.Title + ": " + body
	}
	return Notification{
		Title:   "Playback problem",
		Body:    body,
		Timeout: trackNotifyTimeout,
		Urgency: UrgencyNormal,
	}
}
