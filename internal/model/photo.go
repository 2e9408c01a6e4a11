package model

import (
	"fmt"
	"strconv"
	"time"
)

// PhotoCategory classifies a photo.
type PhotoCategory string

const (
	CategorySelfie    PhotoCategory = "SELFIE"
	CategoryPortrait  PhotoCategory = "PORTRAIT"
	CategoryAction    PhotoCategory = "ACTION"
	CategoryLandscape PhotoCategory = "LANDSCAPE"
	CategoryGraphic   PhotoCategory = "GRAPHIC"
)

// IsValid checks if the category is one of the known values.
func (c PhotoCategory) IsValid() bool {
	switch c {
	case CategorySelfie, CategoryPortrait, CategoryAction, CategoryLandscape, CategoryGraphic:
		return true
	}
	return false
}

// Photo represents a posted photo. Photos are immutable after creation.
//
// ID is the storage-assigned row id; ExternalID is the ULID assigned by the
// mutation gateway at creation time. UserID references the posting user's
// GithubLogin; it is a foreign reference, not an ownership relation.
type Photo struct {
	ID          int64         `json:"-"`
	ExternalID  string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Category    PhotoCategory `json:"category"`
	UserID      string        `json:"user_id"`
	Created     time.Time     `json:"created"`
}

// CanonicalID returns the stable public identifier: the external id when one
// was assigned, otherwise the storage-assigned row id.
func (p *Photo) CanonicalID() string {
	if p.ExternalID != "" {
		return p.ExternalID
	}
	return strconv.FormatInt(p.ID, 10)
}

// URL derives the image location from the internal id. It is never stored;
// resolving the same photo twice always yields the same URL.
func (p *Photo) URL() string {
	return fmt.Sprintf("/img/photos/%d.jpg", p.ID)
}
