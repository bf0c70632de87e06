package pages

import (
	"strconv"

	"github.com/mcoot/bouncetimer/internal/web/templates/components"
	"github.com/mcoot/bouncetimer/internal/web/templates/layout"
)

// LoginData holds data for the login page
type LoginData struct {
	layout.PageData
	Username string
	Error    string
}

// DashboardData holds data for the dashboard page
type DashboardData struct {
	layout.PageData
	Players         []components.PlayerView
	Active          int
	Expired         int
	Total           int
	AverageDuration int
	CanManage       bool
}

// durationChoices are the slot lengths offered by the add form, in minutes
var durationChoices = []int{5, 10, 15, 20, 30, 45, 60}

func minutesValue(d int) string {
	return strconv.Itoa(d)
}

func minutesLabel(d int) string {
	return strconv.Itoa(d) + " min"
}
