package models

import (
	"time"

	"github.com/accesslog-scanner/internal/types"
)

// AccessLog is one materialized access record. Rows are owned per hour
// bucket by the scanner: reprocessing a bucket deletes and recreates all of
// its rows, so the natural key is (accessed_at hour) rather than any single
// column.
type AccessLog struct {
	ID               int64         `json:"id" db:"id"`
	AccountID        string        `json:"accountId" db:"account_id"`
	VideoID          int64         `json:"videoId" db:"video_id"`
	Type             types.LogType `json:"type" db:"type"`
	Title            string        `json:"title" db:"title"`
	VideoTag         string        `json:"videoTag" db:"video_tag"`
	BeHLSTag         string        `json:"behlsTag" db:"behls_tag"`
	OriginName       string        `json:"originName" db:"origin_name"`
	Size             int64         `json:"size" db:"size"`
	AnimationGifHash *string       `json:"animationGifHash,omitempty" db:"animation_gif_hash"`
	AnimationGifSize *int64        `json:"animationGifSize,omitempty" db:"animation_gif_size"`
	AccessedAt       time.Time     `json:"accessedAt" db:"accessed_at"`
	AccessedOn       time.Time     `json:"accessedOn" db:"accessed_on"`
	Host             *string       `json:"host,omitempty" db:"host"`
	IP               *string       `json:"ip,omitempty" db:"ip"`
	Protocol         *string       `json:"protocol,omitempty" db:"protocol"`
	Method           *string       `json:"method,omitempty" db:"method"`
	Port             *string       `json:"port,omitempty" db:"port"`
	HTTPStatusCode   *string       `json:"httpStatusCode,omitempty" db:"http_status_code"`
	Device           types.Device  `json:"device" db:"device"`
	UserAgent        *string       `json:"userAgent,omitempty" db:"user_agent"`
	Referer          *string       `json:"referer,omitempty" db:"referer"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
}

// TrafficLog is one materialized network transfer record, written only for
// animation GIF accesses. Like AccessLog, rows are replaced per hour bucket.
type TrafficLog struct {
	ID             int64         `json:"id" db:"id"`
	Type           types.LogType `json:"type" db:"type"`
	AnimationGifID int64         `json:"animationGifId" db:"animation_gif_id"`
	Traffic        int64         `json:"traffic" db:"traffic"`
	IP             *string       `json:"ip,omitempty" db:"ip"`
	UserAgent      *string       `json:"userAgent,omitempty" db:"user_agent"`
	Device         types.Device  `json:"device" db:"device"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
}
