package upload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDetectImage(t *testing.T) {
	ct, err := DetectImage(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	ct, err = DetectImage([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`))
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", ct)

	_, err = DetectImage([]byte("#!/bin/sh\necho hi"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestObjectName(t *testing.T) {
	name := ObjectName("image/png", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(name, "2026/03/"), name)
	assert.True(t, strings.HasSuffix(name, ".png"), name)
	assert.NotEqual(t, name, ObjectName("image/png", time.Now()))
}

func TestLocalSave(t *testing.T) {
	dir := t.TempDir()
	l := &Local{Dir: dir, URLPrefix: "/uploads/"}

	url, err := l.Save(context.Background(), "2026/03/a.png", strings.NewReader("data"), 4, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/2026/03/a.png", url)

	got, err := os.ReadFile(filepath.Join(dir, "2026", "03", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	_, err = l.Save(context.Background(), "2026/03/a.png", strings.NewReader("again"), 5, "image/png")
	assert.Error(t, err)
}
