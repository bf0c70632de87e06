package layout

import (
	"github.com/mcoot/bouncetimer/internal/services/auth"
)

// FlashMessage is a one-shot notice shown on the next page
type FlashMessage struct {
	Type    string // success, error, info
	Message string
}

// PageData is shared by every full page
type PageData struct {
	Title   string
	Session *auth.Session
	Flash   *FlashMessage
}

const siteName = "Bounce Timer"

func pageTitle(title string) string {
	if title == "" {
		return siteName
	}
	return title + " | " + siteName
}

func flashClass(f *FlashMessage) string {
	return "flash flash-" + f.Type
}
