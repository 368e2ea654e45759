package replay

import (
	"context"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "detections.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const sampleLog = `{"index":0,"width":320,"height":240,"lanes":[{"vertices":[{"x":0,"y":0},{"x":300,"y":0},{"x":300,"y":200},{"x":0,"y":200}]}],"detections":[{"identity":"V1","class":"car","box":{"x1":10,"y1":10,"x2":60,"y2":90}}]}

{"index":2,"width":320,"height":240,"lanes":[],"detections":[]}
`

func TestReader_ReplaysFramesInOrder(t *testing.T) {
	r, err := Open(writeLog(t, t.TempDir(), sampleLog))
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()

	f1, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f1.Index)
	require.Len(t, f1.Detections, 1)
	assert.Equal(t, "V1", f1.Detections[0].Identity)
	assert.Equal(t, "car", f1.Detections[0].Class)
	require.Len(t, f1.Lanes, 1)
	assert.Len(t, f1.Lanes[0].Vertices, 4)
	assert.Equal(t, 320, f1.Image.Bounds().Dx())

	// Blank lines are skipped; frame index gaps survive.
	f2, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f2.Index)

	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_RejectsOutOfOrderFrames(t *testing.T) {
	log := `{"index":5,"detections":[]}
{"index":3,"detections":[]}
`
	r, err := Open(writeLog(t, t.TempDir(), log))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next(context.Background())
	require.NoError(t, err)
	_, err = r.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not after")
}

func TestReader_RejectsMalformedLine(t *testing.T) {
	r, err := Open(writeLog(t, t.TempDir(), "not json\n"))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next(context.Background())
	assert.Error(t, err)
}

func TestReader_LoadsFrameImageRelativeToLog(t *testing.T) {
	dir := t.TempDir()

	imgPath := filepath.Join(dir, "frame0.jpg")
	f, err := os.Create(imgPath)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, 64, 48)), nil))
	require.NoError(t, f.Close())

	r, err := Open(writeLog(t, dir, `{"index":0,"image":"frame0.jpg","detections":[]}`+"\n"))
	require.NoError(t, err)
	defer r.Close()

	frame, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 64, frame.Image.Bounds().Dx())
	assert.Equal(t, 48, frame.Image.Bounds().Dy())
}

func TestReader_MissingImageFails(t *testing.T) {
	r, err := Open(writeLog(t, t.TempDir(), `{"index":0,"image":"nope.jpg","detections":[]}`+"\n"))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next(context.Background())
	assert.Error(t, err)
}

func TestOpen_MissingLog(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}
