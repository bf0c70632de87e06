package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/mcoot/bouncetimer/internal/api/response"
	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/timer"
)

// PlayerList is a list of players printed as a table
type PlayerList []model.Player

var (
	activeColor   = color.New(color.FgGreen)
	expiringColor = color.New(color.FgYellow, color.Bold)
	expiredColor  = color.New(color.FgRed)
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
	now    func() time.Time
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW, now: time.Now}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": err.Error()},
		})
		_, _ = fmt.Fprintln(o.errW, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	switch v := data.(type) {
	case PlayerList:
		data = response.PlayersFromModel(v)
	case model.Player:
		data = response.PlayerFromModel(v)
	}
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case PlayerList:
		o.printPlayers(v)
	case model.Player:
		o.printPlayers(PlayerList{v})
	case response.AuthResponse:
		_, _ = fmt.Fprintf(o.w, "Logged in as %s (%s)\n", v.Username, v.Role)
	case response.Stats:
		_, _ = fmt.Fprintf(o.w, "Active:   %d\nExpired:  %d\nTotal:    %d\nAverage:  %d min\n",
			v.Active, v.Expired, v.Total, v.AverageDuration)
	case response.Health:
		_, _ = fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		if v.Storage != "" {
			_, _ = fmt.Fprintf(o.w, "Storage: %s\n", v.Storage)
		}
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printPlayers(players PlayerList) {
	if len(players) == 0 {
		_, _ = fmt.Fprintln(o.w, "No players registered")
		return
	}

	now := o.now()
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tMINUTES\tREMAINING\tSTATUS")
	for _, p := range players {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			p.ID, p.Name, p.Duration, remainingFor(p, now), statusLabel(p, now))
	}
	_ = tw.Flush()
}

func remainingFor(p model.Player, now time.Time) string {
	if !p.IsActive() {
		return timer.FormatRemaining(0)
	}
	return timer.FormatRemaining(p.Remaining(now))
}

func statusLabel(p model.Player, now time.Time) string {
	switch {
	case !p.IsActive() || p.IsOverdue(now):
		return expiredColor.Sprint(string(model.StatusExpired))
	case p.IsExpiringSoon(now):
		return expiringColor.Sprint("expiring")
	default:
		return activeColor.Sprint(string(model.StatusActive))
	}
}

// SSEEvent is one parsed server-sent event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func (o *Output) printEvent(evt SSEEvent) {
	if o.format == "json" {
		data, _ := json.Marshal(evt)
		_, _ = fmt.Fprintln(o.w, string(data))
		return
	}

	timestamp := evt.Time.Format("2006-01-02 15:04:05")
	displayData := strings.ReplaceAll(evt.Data, "\n", " ")
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	_, _ = fmt.Fprintf(o.w, "[%s] %s: %s\n", timestamp, evt.Event, displayData)
}
