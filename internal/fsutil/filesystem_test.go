package fsutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_RoundTrip(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("evidence/car_V1_f15.jpg")
	require.NoError(t, err)
	_, err = w.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := m.ReadFile("evidence/car_V1_f15.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)
	assert.True(t, m.Exists("evidence/car_V1_f15.jpg"))
}

func TestMemoryFileSystem_Remove(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("a.jpg")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, m.Remove("a.jpg"))
	assert.False(t, m.Exists("a.jpg"))
	assert.Error(t, m.Remove("a.jpg"))
}

func TestMemoryFileSystem_MkdirAll(t *testing.T) {
	m := NewMemoryFileSystem()

	require.NoError(t, m.MkdirAll("evidence/run-1", 0o755))
	assert.True(t, m.Exists("evidence"))
	assert.True(t, m.Exists("evidence/run-1"))
}

func TestMemoryFileSystem_ForcedFailures(t *testing.T) {
	m := NewMemoryFileSystem()
	m.CreateErr = errors.New("disk full")

	_, err := m.Create("a.jpg")
	assert.Error(t, err)

	m.CreateErr = nil
	m.WriteErr = errors.New("disk full")
	w, err := m.Create("a.jpg")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	assert.Error(t, err)
}
