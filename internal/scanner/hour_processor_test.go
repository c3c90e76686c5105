package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/accesslog-scanner/internal/models"
	"github.com/accesslog-scanner/internal/types"
)

// fakeCatalog resolves tags from in-memory maps; unknown tags are misses.
type fakeCatalog struct {
	videos map[string]*models.Video
	gifs   map[string]*models.AnimationGif
	err    error
}

func (f *fakeCatalog) FindVideoByTag(_ context.Context, tag string) (*models.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.videos[tag], nil
}

func (f *fakeCatalog) FindAnimationGifByHash(_ context.Context, hash string) (*models.AnimationGif, *models.Video, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	gif := f.gifs[hash]
	if gif == nil {
		return nil, nil, nil
	}
	for _, v := range f.videos {
		if v.ID == gif.VideoID {
			return gif, v, nil
		}
	}
	return nil, nil, nil
}

// fakeReplacer records every ReplaceBucket call.
type fakeReplacer struct {
	calls []replaceCall
	err   error
}

type replaceCall struct {
	bucket      types.HourBucket
	accessLogs  []*models.AccessLog
	trafficLogs []*models.TrafficLog
}

func (f *fakeReplacer) ReplaceBucket(_ context.Context, bucket types.HourBucket, accessLogs []*models.AccessLog, trafficLogs []*models.TrafficLog) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, replaceCall{bucket: bucket, accessLogs: accessLogs, trafficLogs: trafficLogs})
	return nil
}

func writeLogFile(t *testing.T, dir string, bucket types.HourBucket, content string) {
	t.Helper()
	name := "video-access.log." + bucket.DateString() + "." + bucket.HourString()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
}

func testCatalog() *fakeCatalog {
	videoSize := int64(1048576)
	gifSize := int64(204800)
	return &fakeCatalog{
		videos: map[string]*models.Video{
			"abc123": {
				ID:        42,
				AccountID: "7b1c6a1e-0000-4000-8000-000000000001",
				Title:     "Launch teaser",
				BeHLSTag:  "abc123",
				Size:      &videoSize,
			},
		},
		gifs: map[string]*models.AnimationGif{
			"9f86d081": {ID: 7, VideoID: 42, Hash: "9f86d081", Size: &gifSize},
		},
	}
}

func mustBucket(t *testing.T, s string) types.HourBucket {
	t.Helper()
	bucket, err := types.ParseHourBucket(s)
	if err != nil {
		t.Fatalf("ParseHourBucket(%q): %v", s, err)
	}
	return bucket
}

func TestProcessHour(t *testing.T) {
	dir := t.TempDir()
	bucket := mustBucket(t, "2024010110")

	writeLogFile(t, dir, bucket, ""+
		`"2024-01-01 10:15:00","/watch/abc123","host1","1.2.3.4","HTTP/1.1","GET","443","200","Mozilla/5.0","-"`+"\n"+
		`"2024-01-01 10:20:00","/anigif/9f86d081","host1","5.6.7.8","HTTP/1.1","GET","443","200","Mozilla/5.0 (iPhone)","-"`+"\n"+
		`"2024-01-01 10:25:00","/assets/app.css","host1","1.2.3.4","HTTP/1.1","GET","443","200","Mozilla/5.0","-"`+"\n"+
		`"2024-01-01 10:30:00","/watch/deleted999","host1","1.2.3.4","HTTP/1.1","GET","443","200","Mozilla/5.0","-"`+"\n"+
		"not,a,valid,line\n")

	repo := &fakeReplacer{}
	p := NewProcessor(dir, testCatalog(), repo, NewBuilder(nil))

	processed, err := p.ProcessHour(context.Background(), bucket)
	if err != nil {
		t.Fatalf("ProcessHour() error = %v", err)
	}
	if !processed {
		t.Fatal("ProcessHour() = false, want true")
	}

	if len(repo.calls) != 1 {
		t.Fatalf("ReplaceBucket called %d times, want 1", len(repo.calls))
	}
	call := repo.calls[0]

	if !call.bucket.Equal(bucket) {
		t.Errorf("bucket = %v, want %v", call.bucket, bucket)
	}
	// The static asset, the deleted video and the malformed line are skipped.
	if len(call.accessLogs) != 2 {
		t.Fatalf("got %d access rows, want 2", len(call.accessLogs))
	}
	if len(call.trafficLogs) != 1 {
		t.Fatalf("got %d traffic rows, want 1", len(call.trafficLogs))
	}

	if call.accessLogs[0].Type != types.LogTypeVideo {
		t.Errorf("first row Type = %v, want video", call.accessLogs[0].Type)
	}
	if call.accessLogs[1].Type != types.LogTypeAnimationGif {
		t.Errorf("second row Type = %v, want animation gif", call.accessLogs[1].Type)
	}
	if call.trafficLogs[0].AnimationGifID != 7 {
		t.Errorf("traffic AnimationGifID = %v, want 7", call.trafficLogs[0].AnimationGifID)
	}
	if call.trafficLogs[0].Device != types.DeviceMobile {
		t.Errorf("traffic Device = %v, want mobile", call.trafficLogs[0].Device)
	}
}

func TestProcessHour_MissingFile(t *testing.T) {
	repo := &fakeReplacer{}
	p := NewProcessor(t.TempDir(), testCatalog(), repo, nil)

	processed, err := p.ProcessHour(context.Background(), mustBucket(t, "2024010110"))
	if err != nil {
		t.Fatalf("ProcessHour() error = %v, want nil for missing file", err)
	}
	if processed {
		t.Error("ProcessHour() = true, want false for missing file")
	}
	if len(repo.calls) != 0 {
		t.Error("ReplaceBucket must not be called for a missing file")
	}
}

func TestProcessHour_EmptyFileStillCommits(t *testing.T) {
	dir := t.TempDir()
	bucket := mustBucket(t, "2024010110")
	writeLogFile(t, dir, bucket, "")

	repo := &fakeReplacer{}
	p := NewProcessor(dir, testCatalog(), repo, nil)

	processed, err := p.ProcessHour(context.Background(), bucket)
	if err != nil {
		t.Fatalf("ProcessHour() error = %v", err)
	}
	if !processed {
		t.Fatal("an existing file with no qualifying rows must still commit")
	}

	// The commit clears any stale rows from an earlier replay of the bucket.
	if len(repo.calls) != 1 {
		t.Fatalf("ReplaceBucket called %d times, want 1", len(repo.calls))
	}
	if len(repo.calls[0].accessLogs) != 0 || len(repo.calls[0].trafficLogs) != 0 {
		t.Error("expected empty row sets")
	}
}

func TestProcessHour_CatalogErrorAborts(t *testing.T) {
	dir := t.TempDir()
	bucket := mustBucket(t, "2024010110")
	writeLogFile(t, dir, bucket,
		`"2024-01-01 10:15:00","/watch/abc123","host1","1.2.3.4","HTTP/1.1","GET","443","200","Mozilla/5.0","-"`+"\n")

	catalog := testCatalog()
	catalog.err = errors.New("connection reset")
	repo := &fakeReplacer{}
	p := NewProcessor(dir, catalog, repo, nil)

	processed, err := p.ProcessHour(context.Background(), bucket)
	if err == nil {
		t.Fatal("ProcessHour() expected error on catalog failure")
	}
	if processed {
		t.Error("ProcessHour() = true, want false on catalog failure")
	}
	if len(repo.calls) != 0 {
		t.Error("nothing must be committed when the stream aborts")
	}
}

func TestProcessHour_ReplaceErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	bucket := mustBucket(t, "2024010110")
	writeLogFile(t, dir, bucket,
		`"2024-01-01 10:15:00","/watch/abc123","host1","1.2.3.4","HTTP/1.1","GET","443","200","Mozilla/5.0","-"`+"\n")

	repo := &fakeReplacer{err: errors.New("deadlock detected")}
	p := NewProcessor(dir, testCatalog(), repo, nil)

	processed, err := p.ProcessHour(context.Background(), bucket)
	if err == nil {
		t.Fatal("ProcessHour() expected error when the replace fails")
	}
	if processed {
		t.Error("ProcessHour() = true, want false when the replace fails")
	}
}

func TestLogFilePath(t *testing.T) {
	p := NewProcessor("/var/log/video-access", testCatalog(), &fakeReplacer{}, nil)

	got := p.LogFilePath(mustBucket(t, "2024030905"))
	want := filepath.Join("/var/log/video-access", "video-access.log.20240309.05")
	if got != want {
		t.Errorf("LogFilePath() = %v, want %v", got, want)
	}
}

func TestProcessHour_RowTimesStayInBucket(t *testing.T) {
	dir := t.TempDir()
	bucket := mustBucket(t, "2024010110")
	writeLogFile(t, dir, bucket,
		`"2024-01-01 10:59:59","/watch/abc123","host1","1.2.3.4","HTTP/1.1","GET","443","200","Mozilla/5.0","-"`+"\n")

	repo := &fakeReplacer{}
	p := NewProcessor(dir, testCatalog(), repo, nil)

	if _, err := p.ProcessHour(context.Background(), bucket); err != nil {
		t.Fatalf("ProcessHour() error = %v", err)
	}

	row := repo.calls[0].accessLogs[0]
	start := bucket.Time()
	end := bucket.Next().Time()
	if row.AccessedAt.Before(start) || !row.AccessedAt.Before(end) {
		t.Errorf("AccessedAt %v outside bucket [%v, %v)", row.AccessedAt, start, end)
	}
}
