// Package evidence persists cropped vehicle images for confirmed violations.
// One confirmation produces at most one image file and one ledger record; if
// the image cannot be written, no record is produced at all. A confirmed
// violation with no retrievable evidence must never appear complete in an
// export.
package evidence

import (
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"

	"github.com/banshee-data/laneguard/internal/fsutil"
	"github.com/banshee-data/laneguard/internal/geom"
	"github.com/banshee-data/laneguard/internal/ledger"
	"github.com/banshee-data/laneguard/internal/security"
	"github.com/banshee-data/laneguard/internal/timeutil"
	"github.com/banshee-data/laneguard/internal/violation"
)

// Recorder writes evidence crops and builds violation records.
type Recorder struct {
	dir     string
	quality int
	clock   timeutil.Clock
	fs      fsutil.FileSystem
}

// NewRecorder creates a recorder writing JPEG evidence into dir on the real
// filesystem. A nil clock falls back to the real clock.
func NewRecorder(dir string, jpegQuality int, clock timeutil.Clock) (*Recorder, error) {
	return NewRecorderFS(dir, jpegQuality, clock, fsutil.OSFileSystem{})
}

// NewRecorderFS creates a recorder writing through the given filesystem. The
// evidence directory is created if missing.
func NewRecorderFS(dir string, jpegQuality int, clock timeutil.Clock, fs fsutil.FileSystem) (*Recorder, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence directory: %w", err)
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = jpeg.DefaultQuality
	}
	return &Recorder{dir: dir, quality: jpegQuality, clock: clock, fs: fs}, nil
}

// Filename returns the deterministic evidence filename for a confirmation.
// The (identity, frame index) pair makes the name unique within a run even
// when several identities confirm on the same frame.
func (r *Recorder) Filename(conf *violation.Confirmation) string {
	return fmt.Sprintf("%s_%s_f%d.jpg",
		security.SanitizeComponent(conf.Class),
		security.SanitizeComponent(conf.Identity),
		conf.FrameIndex,
	)
}

// Capture crops the vehicle's box out of the current frame, persists it, and
// returns the violation record. On any persistence failure the partial file
// is removed and no record is returned.
func (r *Recorder) Capture(conf *violation.Confirmation, frame image.Image, box geom.Box) (*ledger.ViolationRecord, error) {
	crop, err := cropFrame(frame, box)
	if err != nil {
		return nil, fmt.Errorf("crop evidence for %s: %w", conf.Identity, err)
	}

	path := filepath.Join(r.dir, r.Filename(conf))
	if err := security.ValidatePathWithinDirectory(path, r.dir); err != nil {
		return nil, fmt.Errorf("evidence path rejected: %w", err)
	}

	f, err := r.fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create evidence file: %w", err)
	}

	if err := jpeg.Encode(f, crop, &jpeg.Options{Quality: r.quality}); err != nil {
		f.Close()
		r.fs.Remove(path)
		return nil, fmt.Errorf("encode evidence jpeg: %w", err)
	}
	if err := f.Close(); err != nil {
		r.fs.Remove(path)
		return nil, fmt.Errorf("close evidence file: %w", err)
	}

	return &ledger.ViolationRecord{
		Identity:     conf.Identity,
		Class:        conf.Class,
		FrameIndex:   conf.FrameIndex,
		RecordedAt:   r.clock.Now().UTC(),
		EvidencePath: path,
	}, nil
}

// cropFrame extracts the box region from the frame, clamped to frame bounds.
func cropFrame(frame image.Image, box geom.Box) (image.Image, error) {
	bounds := frame.Bounds()
	rect := image.Rect(box.X1, box.Y1, box.X2, box.Y2).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("box %+v does not intersect frame %v", box, bounds)
	}

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if si, ok := frame.(subImager); ok {
		return si.SubImage(rect), nil
	}

	// Fallback for images without SubImage: copy pixels.
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			out.Set(x-rect.Min.X, y-rect.Min.Y, frame.At(x, y))
		}
	}
	return out, nil
}
