package evidence

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/laneguard/internal/fsutil"
	"github.com/banshee-data/laneguard/internal/geom"
	"github.com/banshee-data/laneguard/internal/timeutil"
	"github.com/banshee-data/laneguard/internal/violation"
)

func testFrame(w, h int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			frame.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	return frame
}

func testConfirmation() *violation.Confirmation {
	return &violation.Confirmation{Identity: "V42", Class: "car", FrameIndex: 120}
}

func TestRecorder_CaptureWritesCropAndRecord(t *testing.T) {
	dir := t.TempDir()
	clock := timeutil.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	r, err := NewRecorder(dir, 90, clock)
	require.NoError(t, err)

	rec, err := r.Capture(testConfirmation(), testFrame(640, 480), geom.Box{X1: 100, Y1: 50, X2: 200, Y2: 150})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "V42", rec.Identity)
	assert.Equal(t, "car", rec.Class)
	assert.Equal(t, int64(120), rec.FrameIndex)
	assert.Equal(t, clock.Now(), rec.RecordedAt)
	assert.Equal(t, filepath.Join(dir, "car_V42_f120.jpg"), rec.EvidencePath)

	f, err := os.Open(rec.EvidencePath)
	require.NoError(t, err)
	defer f.Close()

	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestRecorder_FilenameIsDeterministicAndUnique(t *testing.T) {
	r, err := NewRecorder(t.TempDir(), 90, nil)
	require.NoError(t, err)

	a := &violation.Confirmation{Identity: "V1", Class: "car", FrameIndex: 15}
	b := &violation.Confirmation{Identity: "V2", Class: "car", FrameIndex: 15}

	assert.Equal(t, r.Filename(a), r.Filename(a))
	assert.NotEqual(t, r.Filename(a), r.Filename(b))
}

func TestRecorder_SanitisesIdentity(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRecorder(dir, 90, nil)
	require.NoError(t, err)

	conf := &violation.Confirmation{Identity: "../escape", Class: "car", FrameIndex: 1}
	rec, err := r.Capture(conf, testFrame(64, 64), geom.Box{X1: 0, Y1: 0, X2: 32, Y2: 32})
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(rec.EvidencePath))
}

func TestRecorder_ClampsBoxToFrame(t *testing.T) {
	r, err := NewRecorder(t.TempDir(), 90, nil)
	require.NoError(t, err)

	rec, err := r.Capture(testConfirmation(), testFrame(100, 100), geom.Box{X1: 80, Y1: 80, X2: 200, Y2: 200})
	require.NoError(t, err)

	f, err := os.Open(rec.EvidencePath)
	require.NoError(t, err)
	defer f.Close()

	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestRecorder_BoxOutsideFrameFails(t *testing.T) {
	r, err := NewRecorder(t.TempDir(), 90, nil)
	require.NoError(t, err)

	rec, err := r.Capture(testConfirmation(), testFrame(100, 100), geom.Box{X1: 200, Y1: 200, X2: 300, Y2: 300})
	assert.Error(t, err)
	assert.Nil(t, rec)
}

func TestRecorder_PersistenceFailureYieldsNoRecord(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	fs.CreateErr = errors.New("disk full")

	r, err := NewRecorderFS("evidence", 90, nil, fs)
	require.NoError(t, err)

	rec, err := r.Capture(testConfirmation(), testFrame(100, 100), geom.Box{X1: 0, Y1: 0, X2: 50, Y2: 50})
	require.Error(t, err)
	assert.Nil(t, rec)
}

func TestRecorder_WriteFailureRemovesPartialFile(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	fs.WriteErr = errors.New("disk full")

	r, err := NewRecorderFS("evidence", 90, nil, fs)
	require.NoError(t, err)

	rec, err := r.Capture(testConfirmation(), testFrame(100, 100), geom.Box{X1: 0, Y1: 0, X2: 50, Y2: 50})
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.False(t, fs.Exists(filepath.Join("evidence", "car_V42_f120.jpg")))
}
