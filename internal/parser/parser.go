// Package parser converts raw access log records into typed hits.
//
// Log files are plain text with comma-separated, double-quoted fields:
//
//	[0] timestamp  [1] path  [2] host  [3] ip  [4] protocol
//	[5] method     [6] port  [7] status  [8] user-agent  [9] referer
//
// The user-agent and referer fields carry the literal placeholder "-" when
// the client did not send them.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/accesslog-scanner/internal/models"
)

// minFields is the number of positional fields a record must carry.
const minFields = 10

// timestampLayout is the format of field [0].
const timestampLayout = "2006-01-02 15:04:05"

// placeholder marks an absent user-agent or referer.
const placeholder = "-"

// NewReader wraps r in a CSV reader configured for access log files.
// Records are validated per line by ParseRecord, so the reader itself does
// not enforce a field count.
func NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// ParseRecord converts one CSV record into a RawHit. It returns an error
// for records with too few fields or an unparsable timestamp; callers are
// expected to skip such records and continue with the rest of the file.
func ParseRecord(fields []string) (*models.RawHit, error) {
	if len(fields) < minFields {
		return nil, fmt.Errorf("expected at least %d fields, got %d", minFields, len(fields))
	}

	accessedAt, err := time.ParseInLocation(timestampLayout, fields[0], time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", fields[0], err)
	}

	return &models.RawHit{
		AccessedAt: accessedAt,
		Path:       fields[1],
		Host:       fields[2],
		IP:         fields[3],
		Protocol:   fields[4],
		Method:     fields[5],
		Port:       fields[6],
		StatusCode: fields[7],
		UserAgent:  optional(fields[8]),
		Referer:    optional(fields[9]),
	}, nil
}

// optional maps the "-" placeholder to nil.
func optional(field string) *string {
	if field == placeholder {
		return nil
	}
	return &field
}
