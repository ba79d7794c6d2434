package model

import "time"

// Cow represents a registered animal. Records are immutable history once
// created; only an explicit transfer changes the owner, and the tag never
// changes client-side.
type Cow struct {
	ID        int64     `json:"id"`
	Tag       string    `json:"cow_tag"`
	Breed     string    `json:"breed"`
	Color     string    `json:"color"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`

	Owner Owner `json:"owner"`

	NoseImages []string `json:"nose_print_images,omitempty"`
}

// Known breeds offered at registration. The backend treats breed as free
// text, so this list is advisory.
var Breeds = []string{
	"Nilotic",
	"Mongalla",
	"Ankole-Watusi",
	"Nuer",
	"Dinka",
	"Abigar",
}

// Registration image requirements.
const (
	RequiredNoseImages   = 3
	RequiredFacialImages = 1
)
