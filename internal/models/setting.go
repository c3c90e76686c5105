package models

import "time"

// Setting is a key-value configuration row. The scanner reserves one key as
// its processing watermark; all other keys belong to the admin surface.
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// SettingKeyLastAccessLogCreated is the watermark key: the last hour bucket
// whose access log file was fully processed, stored as YYYYMMDDHH0000.
// The underscore prefix keeps it out of the ordinary settings namespace.
const SettingKeyLastAccessLogCreated = "_sys_last_access_log_created_dt"
