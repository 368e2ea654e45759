// Package replay feeds the pipeline from a recorded detection log instead of
// a live video pipeline. Each line of the log is one frame: index, lane
// geometry, tracked detections, and optionally a path to the decoded frame
// image. Runs without a detector, tracker or video decoder attached.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg" // frame image decoding
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/laneguard/internal/geom"
	"github.com/banshee-data/laneguard/internal/pipeline"
)

// maxLineBytes bounds a single frame record; lane masks with many vertices
// can make lines long.
const maxLineBytes = 4 * 1024 * 1024

// frameRecord is the JSONL wire form of one frame.
type frameRecord struct {
	Index      int64                `json:"index"`
	ImagePath  string               `json:"image,omitempty"`
	Width      int                  `json:"width,omitempty"`
	Height     int                  `json:"height,omitempty"`
	Lanes      []geom.LaneRegion    `json:"lanes"`
	Detections []pipeline.Detection `json:"detections"`
}

// Reader replays a JSONL detection log as a pipeline.Source. Frames must
// appear in strictly increasing index order; gaps are allowed and preserved.
type Reader struct {
	f         *os.File
	scanner   *bufio.Scanner
	baseDir   string
	line      int
	lastIndex int64
	started   bool
}

// Open opens a detection log. Image paths inside the log resolve relative to
// the log's directory.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open detection log: %w", err)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	return &Reader{
		f:       f,
		scanner: scanner,
		baseDir: filepath.Dir(path),
	}, nil
}

// Next returns the next frame, or io.EOF at the end of the log.
func (r *Reader) Next(ctx context.Context) (*pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Skip blank lines between records.
	for {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read detection log line %d: %w", r.line+1, err)
			}
			return nil, io.EOF
		}
		r.line++
		if len(r.scanner.Bytes()) > 0 {
			break
		}
	}

	var rec frameRecord
	if err := json.Unmarshal(r.scanner.Bytes(), &rec); err != nil {
		return nil, fmt.Errorf("parse detection log line %d: %w", r.line, err)
	}

	if r.started && rec.Index <= r.lastIndex {
		return nil, fmt.Errorf("detection log line %d: frame index %d not after %d (frames must be in order)", r.line, rec.Index, r.lastIndex)
	}
	r.started = true
	r.lastIndex = rec.Index

	img, err := r.frameImage(rec)
	if err != nil {
		return nil, err
	}

	return &pipeline.Frame{
		Index:      rec.Index,
		Image:      img,
		Detections: rec.Detections,
		Lanes:      rec.Lanes,
	}, nil
}

// frameImage loads the referenced frame image, or synthesises a blank frame
// of the declared size when the log carries no imagery (evidence crops then
// show geometry only, which still exercises the full pipeline).
func (r *Reader) frameImage(rec frameRecord) (image.Image, error) {
	if rec.ImagePath == "" {
		w, h := rec.Width, rec.Height
		if w <= 0 || h <= 0 {
			w, h = 1280, 720
		}
		return image.NewRGBA(image.Rect(0, 0, w, h)), nil
	}

	path := rec.ImagePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame image for index %d: %w", rec.Index, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame image for index %d: %w", rec.Index, err)
	}
	return img, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
