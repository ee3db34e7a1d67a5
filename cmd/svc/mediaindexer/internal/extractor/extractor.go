// Package extractor pulls the audio track out of uploaded media with ffmpeg and stores it
// where the submitter picks it up.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/dal"
	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/progress"
	"github.com/sprucehealth/mediaindexer/libs/awsutil"
	"github.com/sprucehealth/mediaindexer/libs/errors"
	"github.com/sprucehealth/mediaindexer/libs/golog"
	"github.com/sprucehealth/mediaindexer/libs/ptr"
	"github.com/sprucehealth/mediaindexer/libs/storage"
	"github.com/sprucehealth/mediaindexer/libs/worker"
)

// Commander runs an external program.
type Commander interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecCommander runs programs with os/exec.
type ExecCommander struct{}

func (ExecCommander) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Config configures an Extractor.
type Config struct {
	// FFMpegPath is the path of the ffmpeg binary.
	FFMpegPath string
	// TempDir is where media is downloaded and converted. Empty means the system default.
	TempDir string
}

// Extractor converts uploaded media to mp3 audio.
type Extractor struct {
	media storage.Store
	audio storage.Store
	dal   dal.DAL
	cmd   Commander
	cfg   Config
}

// New returns an Extractor reading from media and writing to audio.
func New(media, audio storage.Store, dl dal.DAL, cmd Commander, cfg Config) *Extractor {
	if cfg.FFMpegPath == "" {
		cfg.FFMpegPath = "ffmpeg"
	}
	return &Extractor{media: media, audio: audio, dal: dl, cmd: cmd, cfg: cfg}
}

// HandleMediaUploaded extracts audio from every object in an S3 notification. Failures are
// logged and dropped since a broken upload doesn't get better by trying again.
func (e *Extractor) HandleMediaUploaded(ctx context.Context, body string) worker.Outcome {
	ev, err := awsutil.ParseS3Event([]byte(body))
	if err != nil {
		golog.FromContext(ctx).Errorf("Dropping undecodable media upload notification: %s", err)
		return worker.Ack
	}
	for _, rec := range ev.Records {
		mediaID := MediaID(rec)
		sourceID := fmt.Sprintf("s3://%s/%s", rec.Bucket(), rec.Key())
		log := golog.FromContext(ctx).Context("media_id", mediaID, "source", sourceID)
		if mediaID == "" {
			log.Warningf("Skipping object without a media id")
			continue
		}
		audioID, err := e.Extract(golog.WithLogger(ctx, log), mediaID, sourceID)
		if err != nil {
			log.Errorf("Failed to extract audio: %s", err)
			continue
		}
		log.Infof("Extracted audio to %s", audioID)
	}
	return worker.Ack
}

// Extract converts the media stored at sourceID and stores the audio as audio/<mediaID>.mp3.
// It returns the ID of the stored audio.
func (e *Extractor) Extract(ctx context.Context, mediaID, sourceID string) (string, error) {
	dir, err := os.MkdirTemp(e.cfg.TempDir, "mediaindexer-")
	if err != nil {
		return "", errors.Trace(err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			golog.FromContext(ctx).Warningf("Unable to remove %s: %s", dir, err)
		}
	}()

	inPath := filepath.Join(dir, "source"+path.Ext(sourceID))
	if err := e.download(ctx, sourceID, inPath); err != nil {
		return "", err
	}

	outPath := filepath.Join(dir, mediaID+".mp3")
	stdout, stderr, err := e.cmd.Run(ctx, e.cfg.FFMpegPath, "-i", inPath, "-f", "mp3", "-ab", "192000", "-vn", outPath)
	if err != nil {
		return "", errors.Annotatef(errors.Wrap(err, "ffmpeg failed"), "stderr=%q stdout=%q",
			strings.TrimSpace(string(stderr)), strings.TrimSpace(string(stdout)))
	}

	f, err := os.Open(outPath)
	if err != nil {
		return "", errors.Trace(err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return "", errors.Trace(err)
	}
	audioID, err := e.audio.Put(ctx, path.Join("audio", mediaID+".mp3"), f, fi.Size(), "audio/mpeg")
	if err != nil {
		return "", errors.Wrap(err, "failed to store audio")
	}

	if err := e.dal.UpsertIndexingStatus(ctx, mediaID, &dal.IndexingStatusUpdate{
		SourceMediaKey: ptr.String(sourceID),
		AudioKey:       ptr.String(audioID),
	}); err != nil {
		return "", errors.Wrap(err, "failed to record audio")
	}
	return audioID, nil
}

func (e *Extractor) download(ctx context.Context, id, dst string) error {
	rc, err := e.media.GetReader(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", id)
	}
	defer rc.Close()
	f, err := os.Create(dst)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to download %s", id)
	}
	return errors.Trace(f.Close())
}

// MediaID derives the media ID of an uploaded object from its ETag, or from the file name
// when the notification has none.
func MediaID(rec *awsutil.S3EventRecord) string {
	if id := progress.SanitizeMediaID(rec.ETag()); id != "" {
		return id
	}
	base := path.Base(rec.Key())
	if base == "." || base == "/" {
		return ""
	}
	return progress.SanitizeMediaID(strings.TrimSuffix(base, path.Ext(base)))
}
