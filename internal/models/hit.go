package models

import (
	"time"

	"github.com/accesslog-scanner/internal/types"
)

// RawHit is one parsed access log line. It only lives for the duration of
// that line's processing and is never persisted.
type RawHit struct {
	AccessedAt time.Time
	Path       string
	Host       string
	IP         string
	Protocol   string
	Method     string
	Port       string
	StatusCode string
	UserAgent  *string // nil when the log field was the "-" placeholder
	Referer    *string // nil when the log field was the "-" placeholder
}

// ClassifiedHit is a RawHit that matched one of the in-scope path prefixes,
// together with the asset tag extracted from the path.
type ClassifiedHit struct {
	RawHit
	Type     types.LogType
	AssetTag string
}

// ResolvedAsset is the reference lookup result for a classified hit. Video
// is always set; AnimationGif is set only for anigif hits.
type ResolvedAsset struct {
	Video        *Video
	AnimationGif *AnimationGif
}
