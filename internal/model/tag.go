package model

// Tag records that a user appears in a photo. Tags are a read-only join
// table for the sync core: rows are seeded out of band and only ever queried.
type Tag struct {
	PhotoID int64  `json:"photo_id"`
	UserID  string `json:"user_id"`
}
