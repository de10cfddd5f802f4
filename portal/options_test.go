package portal

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/harvest/am"
)

func TestParseExtraArgs(t *testing.T) {
	flags, err := parseExtraArgs(`--proxy-server="http://proxy:3128" --lang=pt-BR --mute-audio --window-name='my window'`)
	require.NoError(t, err)
	assert.Equal(t, []flag{
		{Name: "proxy-server", Value: "http://proxy:3128"},
		{Name: "lang", Value: "pt-BR"},
		{Name: "mute-audio", Value: true},
		{Name: "window-name", Value: "my window"},
	}, flags)

	flags, err = parseExtraArgs("")
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestParseExtraArgsErrors(t *testing.T) {
	for _, in := range []string{`--a="unterminated`, `plain`, `-x`, `--`} {
		_, err := parseExtraArgs(in)
		assert.Error(t, err, in)
	}
}

func TestAllocatorOptions(t *testing.T) {
	base := Options{Width: 1920, Height: 1080}
	opts, err := allocatorOptions(base)
	require.NoError(t, err)

	withExtras := base
	withExtras.UserAgent = "agent"
	withExtras.ExecPath = "/usr/bin/chromium"
	withExtras.ExtraArgs = "--lang=pt-BR --mute-audio"
	more, err := allocatorOptions(withExtras)
	require.NoError(t, err)
	assert.Len(t, more, len(opts)+4)

	withExtras.ExtraArgs = "oops"
	_, err = allocatorOptions(withExtras)
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	v := viper.New()
	am.SetDefaults(v)
	cfg, err := am.LoadWithViper(v)
	require.NoError(t, err)
	cfg.Portal = am.PortalConfig{URL: "https://portal.example", Login: "op", Password: "pw"}

	o := OptionsFromConfig(cfg)
	assert.Equal(t, "https://portal.example", o.URL)
	assert.Equal(t, "op", o.Login)
	assert.True(t, o.Headless)
	assert.Equal(t, 1920, o.Width)
	assert.Equal(t, 15*time.Second, o.StepTimeout)
	assert.Equal(t, 3*time.Second, o.Settle)
	assert.Equal(t, "contracts", o.ContractsDir)
	assert.Equal(t, DefaultSelectors().SearchInput, o.Selectors.SearchInput)
}
