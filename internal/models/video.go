package models

import "time"

// Video represents a media asset registered in the catalog. Videos are
// reference data for the scanner: it reads them to attribute accesses but
// never mutates them.
type Video struct {
	ID         int64     `json:"id" db:"id"`
	AccountID  string    `json:"accountId" db:"account_id"`
	Title      string    `json:"title" db:"title"`
	VideoTag   string    `json:"videoTag" db:"video_tag"`
	BeHLSTag   string    `json:"behlsTag" db:"behls_tag"`
	OriginName string    `json:"originName" db:"origin_name"`
	Size       *int64    `json:"size,omitempty" db:"size"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// AnimationGif represents an animation GIF generated from a video,
// addressed by its content hash.
type AnimationGif struct {
	ID        int64     `json:"id" db:"id"`
	VideoID   int64     `json:"videoId" db:"video_id"`
	Hash      string    `json:"hash" db:"hash"`
	Size      *int64    `json:"size,omitempty" db:"size"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
