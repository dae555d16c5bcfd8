package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSONWhenNotDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(false, buf)
	defer Init(false, nil)

	Component("cache").WithField("keys", 3).Info("swept")
	out := buf.String()
	assert.Contains(t, out, `"component":"cache"`)
	assert.Contains(t, out, `"msg":"swept"`)
}

func TestInitDebugLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(true, buf)
	defer Init(false, nil)

	Log().Debug("debug line")
	assert.Contains(t, buf.String(), "debug line")
}

func TestRotatingWriterUsesFirstUsableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	w, path := RotatingWriter("panel.log", dir)
	require.NotNil(t, w)
	assert.Equal(t, filepath.Join(dir, "panel.log"), path)
}
