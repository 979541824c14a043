package logger

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptionsDefaults(t *testing.T) {
	o := NewOptions()

	assert.Equal(t, "INFO", o.Level)
	assert.Equal(t, "json", o.Format)
	assert.Equal(t, []string{"stdout"}, o.OutputPaths)
	require.NoError(t, o.Validate())
}

func TestAddFlagsOverridesDefaults(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--log.level=DEBUG",
		"--log.format=console",
		"--log.output-paths=stderr",
	}))

	assert.Equal(t, "DEBUG", o.Level)
	assert.Equal(t, "console", o.Format)
	assert.Equal(t, []string{"stderr"}, o.OutputPaths)
}
