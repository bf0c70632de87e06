package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bouncetimer/internal/api/response"
	"github.com/mcoot/bouncetimer/internal/model"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestOutput(format string) (*Output, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	o := NewOutput(format, &stdout, &stderr)
	o.now = func() time.Time { return testNow }
	return o, &stdout, &stderr
}

func withoutColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func player(id, name string, startedAgo time.Duration, minutes int, status model.PlayerStatus) model.Player {
	start := testNow.Add(-startedAgo).UnixMilli()
	return model.Player{
		ID:        model.PlayerID(id),
		Name:      name,
		StartTime: start,
		Duration:  minutes,
		Status:    status,
		CreatedAt: start,
	}
}

func TestPrintPlayersTable(t *testing.T) {
	withoutColor(t)
	o, stdout, _ := newTestOutput("text")

	o.Print(PlayerList{
		player("p1", "Ana", 2*time.Minute, 10, model.StatusActive),
		player("p2", "Bo", 8*time.Minute, 10, model.StatusActive),
		player("p3", "Cy", 30*time.Minute, 10, model.StatusActive),
		player("p4", "Di", time.Minute, 10, model.StatusExpired),
	})

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"ID", "NAME", "MINUTES", "REMAINING", "STATUS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"p1", "Ana", "10", "08:00", "active"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"p2", "Bo", "10", "02:00", "expiring"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"p3", "Cy", "10", "00:00", "expired"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"p4", "Di", "10", "00:00", "expired"}, strings.Fields(lines[4]))
}

func TestPrintEmptyPlayers(t *testing.T) {
	o, stdout, _ := newTestOutput("text")

	o.Print(PlayerList{})

	assert.Equal(t, "No players registered\n", stdout.String())
}

func TestPrintPlayersJSON(t *testing.T) {
	o, stdout, _ := newTestOutput("json")

	o.Print(PlayerList{player("p1", "Ana", 0, 10, model.StatusActive)})

	assert.JSONEq(t, `[{
		"id": "p1",
		"name": "Ana",
		"startTime": 1704110400000,
		"duration": 10,
		"status": "active",
		"createdAt": 1704110400000
	}]`, stdout.String())
}

func TestPrintStatsText(t *testing.T) {
	o, stdout, _ := newTestOutput("text")

	o.Print(response.Stats{Active: 2, Expired: 1, Total: 3, AverageDuration: 20})

	assert.Equal(t, "Active:   2\nExpired:  1\nTotal:    3\nAverage:  20 min\n", stdout.String())
}

func TestPrintMessageAndError(t *testing.T) {
	o, stdout, stderr := newTestOutput("json")

	o.PrintMessage("Player deleted")
	o.PrintError(errors.New("boom"))

	assert.JSONEq(t, `{"message":"Player deleted"}`, stdout.String())
	assert.JSONEq(t, `{"error":{"message":"boom"}}`, stderr.String())
}

func TestPrintEventText(t *testing.T) {
	o, stdout, _ := newTestOutput("text")

	o.printEvent(SSEEvent{
		Time:  testNow,
		Event: "stats-updated",
		Data:  "line one\n" + strings.Repeat("x", 120),
	})

	got := stdout.String()
	assert.True(t, strings.HasPrefix(got, "[2024-01-01 12:00:00] stats-updated: line one xxx"))
	assert.True(t, strings.HasSuffix(got, "...\n"))
}
