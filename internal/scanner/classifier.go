// Package scanner implements the checkpointed hourly access log replay
// engine: classify parsed hits against the media catalog, materialize
// access and traffic rows, and advance the processing watermark.
package scanner

import (
	"strings"

	"github.com/accesslog-scanner/internal/models"
	"github.com/accesslog-scanner/internal/types"
)

// Path prefixes that are in scope for access accounting. Everything else in
// the logs (static assets, admin pages, health checks) is dropped.
const (
	prefixWatch  = "/watch"
	prefixEmbed  = "/embed"
	prefixAnigif = "/anigif"
)

// Classify decides whether a hit is in scope and, if so, extracts the asset
// tag from the final path segment. The second return value is false for
// out-of-scope hits.
func Classify(hit *models.RawHit) (*models.ClassifiedHit, bool) {
	if hit.Path == "" {
		return nil, false
	}

	logType := types.LogTypeVideo
	switch {
	case strings.HasPrefix(hit.Path, prefixAnigif):
		logType = types.LogTypeAnimationGif
	case strings.HasPrefix(hit.Path, prefixWatch), strings.HasPrefix(hit.Path, prefixEmbed):
		// video page or embed code
	default:
		return nil, false
	}

	tag := hit.Path[strings.LastIndex(hit.Path, "/")+1:]

	return &models.ClassifiedHit{
		RawHit:   *hit,
		Type:     logType,
		AssetTag: tag,
	}, true
}
