package scanner

import (
	"time"

	"github.com/accesslog-scanner/internal/models"
	"github.com/accesslog-scanner/internal/types"
)

// Builder turns a classified hit plus its resolved asset into the rows to
// persist. The ingestion clock is injected so tests can pin created_at.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a builder using the given ingestion clock; nil means
// time.Now.
func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Build produces the AccessLog row for a hit and, for animation GIF hits,
// the TrafficLog row as well (nil otherwise).
//
// Note the created_at asymmetry: AccessLog.CreatedAt is the ingestion time,
// TrafficLog.CreatedAt is the hit's own time. Traffic is billed on when the
// transfer happened, not when the log was replayed.
func (b *Builder) Build(hit *models.ClassifiedHit, asset *models.ResolvedAsset, device types.Device) (*models.AccessLog, *models.TrafficLog) {
	video := asset.Video

	access := &models.AccessLog{
		AccountID:      video.AccountID,
		VideoID:        video.ID,
		Type:           hit.Type,
		Title:          video.Title,
		VideoTag:       video.VideoTag,
		BeHLSTag:       video.BeHLSTag,
		OriginName:     video.OriginName,
		Size:           sizeOrZero(video.Size),
		AccessedAt:     hit.AccessedAt,
		AccessedOn:     dateOf(hit.AccessedAt),
		Host:           emptyToNil(hit.Host),
		IP:             emptyToNil(hit.IP),
		Protocol:       emptyToNil(hit.Protocol),
		Method:         emptyToNil(hit.Method),
		Port:           emptyToNil(hit.Port),
		HTTPStatusCode: emptyToNil(hit.StatusCode),
		Device:         device,
		UserAgent:      hit.UserAgent,
		Referer:        hit.Referer,
		CreatedAt:      b.now(),
	}

	var traffic *models.TrafficLog
	if hit.Type == types.LogTypeAnimationGif && asset.AnimationGif != nil {
		gif := asset.AnimationGif
		access.AnimationGifHash = &gif.Hash
		access.AnimationGifSize = gif.Size

		traffic = &models.TrafficLog{
			Type:           hit.Type,
			AnimationGifID: gif.ID,
			Traffic:        sizeOrZero(gif.Size),
			IP:             emptyToNil(hit.IP),
			UserAgent:      blankToNil(hit.UserAgent),
			Device:         device,
			CreatedAt:      hit.AccessedAt,
		}
	}

	return access, traffic
}

// sizeOrZero defaults an absent size to 0.
func sizeOrZero(size *int64) int64 {
	if size == nil {
		return 0
	}
	return *size
}

// dateOf truncates a timestamp to its calendar date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// emptyToNil maps an empty source field to NULL.
func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// blankToNil maps a nil-or-empty optional field to NULL.
func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
