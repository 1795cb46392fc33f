package logging

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/burnline/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestSetup_Levels(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, Setup(config.LogConfig{}, false).GetLevel())
	assert.Equal(t, logrus.DebugLevel, Setup(config.LogConfig{}, true).GetLevel())
	assert.Equal(t, os.Stderr, Setup(config.LogConfig{}, false).Out)
}

func TestSetup_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burnline.log")
	l := Setup(config.LogConfig{File: path, MaxSizeMB: 1}, true)
	_, ok := l.Out.(*lumberjack.Logger)
	require.True(t, ok)

	l.WithField("records", 3).Debug("report computed")
	Close(l)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "report computed")
	assert.Contains(t, string(data), "records=3")
}

func TestOrDiscard(t *testing.T) {
	d := OrDiscard(nil)
	require.NotNil(t, d)
	d.Error("dropped")
	assert.Equal(t, io.Discard, d.(*logrus.Logger).Out)

	l := logrus.New()
	assert.Same(t, l, OrDiscard(l))
}
