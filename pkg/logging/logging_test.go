package logging

import (
	"bytes"
	"testing"

	"cloud.google.com/go/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSeverityHook(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(severityHook{})

	logger.Warn().Msg("low funds")
	require.Contains(t, buf.String(), `"severity":"Warning"`)

	buf.Reset()
	logger.Info().Msg("claim sent")
	require.Contains(t, buf.String(), `"severity":"Info"`)
}

func TestToSeverity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		level zerolog.Level
		want  logging.Severity
	}{
		{zerolog.TraceLevel, logging.Debug},
		{zerolog.DebugLevel, logging.Debug},
		{zerolog.InfoLevel, logging.Info},
		{zerolog.WarnLevel, logging.Warning},
		{zerolog.ErrorLevel, logging.Error},
		{zerolog.FatalLevel, logging.Alert},
		{zerolog.PanicLevel, logging.Emergency},
		{zerolog.NoLevel, logging.Info},
	}
	for _, c := range cases {
		require.Equal(t, c.want, toSeverity(c.level), c.level.String())
	}
}
