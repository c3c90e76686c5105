// Package types provides common type definitions for the access log scanner system.
package types

import (
	"fmt"
	"time"
)

// LogType identifies which kind of media asset a log line refers to.
type LogType int16

const (
	// LogTypeVideo represents an access to a video page (/watch or /embed)
	LogTypeVideo LogType = 1
	// LogTypeAnimationGif represents an access to an animation GIF (/anigif)
	LogTypeAnimationGif LogType = 2
)

// Device represents the coarse device category derived from a user agent.
type Device string

const (
	// DevicePC represents desktop browsers
	DevicePC Device = "pc"
	// DeviceMobile represents phones
	DeviceMobile Device = "mobile"
	// DeviceTablet represents tablets
	DeviceTablet Device = "tablet"
	// DeviceBot represents crawlers and other automated clients
	DeviceBot Device = "bot"
	// DeviceUnknown is used when no user agent is available
	DeviceUnknown Device = "unknown"
)

const (
	hourBucketLayout = "2006010215"
	// settingValueLayout is the watermark value format. The trailing
	// minute/second digits are always zero, hour granularity only.
	settingValueLayout = "20060102150405"
)

// HourBucket identifies one calendar hour, the unit of idempotent replay.
// The zero value is not a valid bucket; construct via NewHourBucket or
// ParseHourBucket.
type HourBucket struct {
	t time.Time
}

// NewHourBucket creates a bucket for the hour containing t. Truncation is
// done on wall-clock fields so zones with fractional-hour offsets still
// align to their local hour boundary.
func NewHourBucket(t time.Time) HourBucket {
	return HourBucket{t: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())}
}

// ParseHourBucket parses a bucket from its YYYYMMDDHH string form. The
// YYYYMMDDHH0000 setting-value form is accepted as well.
func ParseHourBucket(s string) (HourBucket, error) {
	var layout string
	switch len(s) {
	case len(hourBucketLayout):
		layout = hourBucketLayout
	case len(settingValueLayout):
		layout = settingValueLayout
	default:
		return HourBucket{}, fmt.Errorf("invalid hour bucket %q", s)
	}

	t, err := time.ParseInLocation(layout, s, time.Local)
	if err != nil {
		return HourBucket{}, fmt.Errorf("invalid hour bucket %q: %w", s, err)
	}
	return NewHourBucket(t), nil
}

// String formats the bucket as YYYYMMDDHH. Lexicographic order of the
// result matches chronological order of the buckets.
func (b HourBucket) String() string {
	return b.t.Format(hourBucketLayout)
}

// SettingValue formats the bucket as YYYYMMDDHH0000 for watermark storage.
func (b HourBucket) SettingValue() string {
	return b.t.Format(settingValueLayout)
}

// DateString formats the bucket's calendar day as YYYYMMDD.
func (b HourBucket) DateString() string {
	return b.t.Format("20060102")
}

// HourString formats the bucket's hour of day as zero-padded HH.
func (b HourBucket) HourString() string {
	return b.t.Format("15")
}

// Time returns the instant at the start of the bucket.
func (b HourBucket) Time() time.Time {
	return b.t
}

// Next returns the bucket one hour later.
func (b HourBucket) Next() HourBucket {
	return HourBucket{t: b.t.Add(time.Hour)}
}

// Before reports whether b is chronologically earlier than other.
func (b HourBucket) Before(other HourBucket) bool {
	return b.t.Before(other.t)
}

// Equal reports whether both buckets identify the same hour.
func (b HourBucket) Equal(other HourBucket) bool {
	return b.t.Equal(other.t)
}

// IsZero reports whether the bucket is the uninitialized zero value.
func (b HourBucket) IsZero() bool {
	return b.t.IsZero()
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
