package layout

import "github.com/mcoot/gameportal/internal/model"

// FlashMessage is a one-shot notice shown at the top of the next page
type FlashMessage struct {
	Type    string // success, error, info
	Message string
}

// PageData is shared by every full page
type PageData struct {
	Title    string
	Identity model.Identity
	Flash    *FlashMessage
}
