package components

import (
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/timer"
)

// PlayerView is a player together with its countdown at render time
type PlayerView struct {
	Player    model.Player
	Remaining time.Duration
	Progress  float64
	Display   string
	Overdue   bool
	Expiring  bool
}

// NewPlayerView computes the countdown for p at now
func NewPlayerView(p model.Player, now time.Time) PlayerView {
	remaining := p.Remaining(now)
	if remaining < 0 {
		remaining = 0
	}
	return PlayerView{
		Player:    p,
		Remaining: remaining,
		Progress:  p.Progress(now),
		Display:   timer.FormatRemaining(remaining),
		Overdue:   p.IsOverdue(now),
		Expiring:  p.IsExpiringSoon(now),
	}
}

// cardState picks the visual treatment of a card
func (v PlayerView) cardState() string {
	switch {
	case v.Player.Status == model.StatusExpired || v.Overdue:
		return "expired"
	case v.Expiring:
		return "expiring"
	default:
		return "active"
	}
}

func (v PlayerView) elementID() string {
	return "player-" + string(v.Player.ID)
}

func (v PlayerView) deadlineMillis() string {
	return strconv.FormatInt(v.Player.Deadline().UnixMilli(), 10)
}

func (v PlayerView) totalMillis() string {
	return strconv.FormatInt(v.Player.Allotted().Milliseconds(), 10)
}

func (v PlayerView) progressValue() string {
	return strconv.FormatFloat(v.Progress, 'f', 1, 64)
}

func (v PlayerView) deleteURL() templ.SafeURL {
	return templ.SafeURL("/players/" + url.PathEscape(string(v.Player.ID)) + "/delete")
}

// splitByStatus separates running players from the ones whose time is up
func splitByStatus(views []PlayerView) (active, expired []PlayerView) {
	for _, v := range views {
		if v.Player.Status == model.StatusActive {
			active = append(active, v)
		} else {
			expired = append(expired, v)
		}
	}
	return active, expired
}
