package logr

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		log       func(logger Logger)
		want      string
	}{
		{
			"info",
			0,
			func(logger Logger) {
				logger.Info("something", "foo", "bar")
			},
			"level=INFO msg=something foo=bar\n",
		},
		{
			"error",
			0,
			func(logger Logger) {
				logger.Error(errors.New("woops"), "spilt me beer", "foo", "bar")
			},
			"level=ERROR msg=\"spilt me beer\" err=woops foo=bar\n",
		},
		{
			"debug",
			1,
			func(logger Logger) {
				logger.V(1).Info("something", "foo", "bar")
			},
			"level=DEBUG msg=something foo=bar\n",
		},
		{
			"trace",
			2,
			func(logger Logger) {
				logger.V(2).Info("something", "foo", "bar")
			},
			"level=DEBUG msg=something foo=bar\n",
		},
		{
			"hide trace",
			1,
			func(logger Logger) {
				logger.V(2).Info("should not see this")
			},
			"",
		},
		{
			"hide debug",
			0,
			func(logger Logger) {
				logger.V(1).Info("should not see this", "foo", "bar")
			},
			"",
		},
		{
			"with values",
			0,
			func(logger Logger) {
				logger.WithValues("run", "123").Info("something")
			},
			"level=INFO msg=something run=123\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bytes.Buffer
			logger, err := New(&Config{Verbosity: tt.verbosity, Output: &got})
			require.NoError(t, err)
			tt.log(logger)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	var got bytes.Buffer
	logger, err := New(&Config{Format: "json", Output: &got})
	require.NoError(t, err)

	logger.Info("published layer", "name", "roads")

	assert.Contains(t, got.String(), `"msg":"published layer"`)
	assert.Contains(t, got.String(), `"name":"roads"`)
}

func TestLogger_UnknownFormat(t *testing.T) {
	_, err := New(&Config{Format: "xml"})
	assert.EqualError(t, err, "unrecognised logging format: xml")
}
