package scanner

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/accesslog-scanner/internal/logging"
	"github.com/accesslog-scanner/internal/models"
	"github.com/accesslog-scanner/internal/parser"
	"github.com/accesslog-scanner/internal/types"
)

// logFilePrefix is the rotated access log file name prefix; the full name
// is video-access.log.<YYYYMMDD>.<HH>.
const logFilePrefix = "video-access.log"

// CatalogResolver resolves asset tags against reference data. A miss is
// (nil, ..., nil): logs routinely reference deleted assets and the hit is
// simply dropped.
type CatalogResolver interface {
	FindVideoByTag(ctx context.Context, tag string) (*models.Video, error)
	FindAnimationGifByHash(ctx context.Context, hash string) (*models.AnimationGif, *models.Video, error)
}

// BucketReplacer atomically replaces all materialized rows for one hour
// bucket.
type BucketReplacer interface {
	ReplaceBucket(ctx context.Context, bucket types.HourBucket, accessLogs []*models.AccessLog, trafficLogs []*models.TrafficLog) error
}

// Processor materializes one hour bucket: it streams the bucket's log file
// through parse, classify, resolve and build, then replaces the bucket's
// rows in one transaction.
type Processor struct {
	logRoot string
	catalog CatalogResolver
	repo    BucketReplacer
	builder *Builder
}

// NewProcessor creates an hour processor.
func NewProcessor(logRoot string, catalog CatalogResolver, repo BucketReplacer, builder *Builder) *Processor {
	if builder == nil {
		builder = NewBuilder(nil)
	}
	return &Processor{
		logRoot: logRoot,
		catalog: catalog,
		repo:    repo,
		builder: builder,
	}
}

// LogFilePath returns the expected log file path for a bucket.
func (p *Processor) LogFilePath(bucket types.HourBucket) string {
	return filepath.Join(p.logRoot, fmt.Sprintf("%s.%s.%s", logFilePrefix, bucket.DateString(), bucket.HourString()))
}

// ProcessHour processes one hour bucket. The boolean reports whether the
// bucket was fully processed and committed; a missing log file returns
// (false, nil) so the caller can leave the bucket pending without treating
// the run as failed. Any error also means "not processed": nothing was
// committed and the next run will replay the bucket from scratch.
func (p *Processor) ProcessHour(ctx context.Context, bucket types.HourBucket) (bool, error) {
	logger := logging.FromContext(ctx).WithField("bucket", bucket.String())

	path := p.LogFilePath(bucket)

	file, err := os.Open(path)
	if err != nil {
		logger.Warnf("log file '%s' was not found", path)
		return false, nil
	}
	defer func() {
		_ = file.Close() // nolint:errcheck // read-only file
	}()

	accessLogs, trafficLogs, err := p.collectRows(ctx, logger, file)
	if err != nil {
		return false, fmt.Errorf("failed to read log file %s: %w", path, err)
	}

	if err := p.repo.ReplaceBucket(ctx, bucket, accessLogs, trafficLogs); err != nil {
		return false, err
	}

	logger.WithFields(map[string]interface{}{
		"accessLogs":  len(accessLogs),
		"trafficLogs": len(trafficLogs),
	}).Info("bucket committed")

	return true, nil
}

// collectRows streams every line of the log file and returns the rows to
// persist. Malformed lines and unresolvable assets are skipped; only an
// I/O-level failure aborts the stream, in which case nothing is committed
// for the bucket.
func (p *Processor) collectRows(ctx context.Context, logger *logging.Logger, file io.Reader) ([]*models.AccessLog, []*models.TrafficLog, error) {
	var (
		accessLogs  []*models.AccessLog
		trafficLogs []*models.TrafficLog
	)

	reader := parser.NewReader(file)

	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.WithError(err).Debug("skipping malformed record")
				continue
			}
			return nil, nil, err
		}

		hit, err := parser.ParseRecord(record)
		if err != nil {
			logger.WithError(err).Debug("skipping malformed record")
			continue
		}

		classified, ok := Classify(hit)
		if !ok {
			continue
		}

		asset, err := p.resolve(ctx, classified)
		if err != nil {
			return nil, nil, err
		}
		if asset == nil {
			logger.Debugf("no asset for tag '%s', skipping", classified.AssetTag)
			continue
		}

		device := DetectDevice(classified.UserAgent)

		access, traffic := p.builder.Build(classified, asset, device)
		accessLogs = append(accessLogs, access)
		if traffic != nil {
			trafficLogs = append(trafficLogs, traffic)
		}
	}

	return accessLogs, trafficLogs, nil
}

// resolve looks up the asset for a classified hit. A lookup miss returns
// (nil, nil); a lookup failure is a storage fault and aborts the bucket.
func (p *Processor) resolve(ctx context.Context, hit *models.ClassifiedHit) (*models.ResolvedAsset, error) {
	if hit.Type == types.LogTypeAnimationGif {
		gif, video, err := p.catalog.FindAnimationGifByHash(ctx, hit.AssetTag)
		if err != nil {
			return nil, err
		}
		if gif == nil {
			return nil, nil
		}
		return &models.ResolvedAsset{Video: video, AnimationGif: gif}, nil
	}

	video, err := p.catalog.FindVideoByTag(ctx, hit.AssetTag)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, nil
	}
	return &models.ResolvedAsset{Video: video}, nil
}
