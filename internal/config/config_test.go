package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/serpclick/internal/humanize"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadValid(t *testing.T) {
	path := writeConfig(t, `{
		"keywords": ["osaka salesforce", "salesforce support"],
		"target_url": "https://shinonome.example/",
		"max_results_to_check": 5,
		"delay_between_searches": [1, 2],
		"delay_between_clicks": [0.5, 1],
		"headless": true,
		"skip_captcha": true
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"osaka salesforce", "salesforce support"}, cfg.Keywords)
	assert.Equal(t, "https://shinonome.example/", cfg.TargetURL)
	assert.Equal(t, 5, cfg.MaxResultsToCheck)
	assert.Equal(t, humanize.Range{Min: 1, Max: 2}, cfg.SearchDelay)
	assert.Equal(t, humanize.Range{Min: 0.5, Max: 1}, cfg.ClickDelay)
	assert.True(t, cfg.Headless)
	assert.True(t, cfg.SkipCaptcha)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"keywords": ["a"],
		"target_url": "https://example.com/"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.MaxResultsToCheck)
	assert.Equal(t, humanize.Range{Min: 5, Max: 12}, cfg.SearchDelay)
	assert.Equal(t, humanize.Range{Min: 3, Max: 8}, cfg.ClickDelay)
	assert.False(t, cfg.Headless)
	assert.True(t, cfg.UsePersistentContext)
	assert.True(t, cfg.WaitForCaptchaManual)
	assert.False(t, cfg.SkipCaptcha)
	assert.Equal(t, "https://www.google.com", cfg.SearchURL)
	assert.Equal(t, 30*time.Second, cfg.NavTimeout)
	assert.Equal(t, 60*time.Second, cfg.ManualCaptchaWait)
	assert.Equal(t, 5*time.Second, cfg.CaptchaPollInterval)
	assert.Equal(t, 120*time.Second, cfg.CaptchaSolveTimeout)
	assert.NotEmpty(t, cfg.UserDataDir)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.PostgresURL)
}

func TestLoadMissingKeywords(t *testing.T) {
	path := writeConfig(t, `{"target_url": "https://example.com/"}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keywords")
}

func TestLoadInvalidTargetURL(t *testing.T) {
	path := writeConfig(t, `{"keywords": ["a"], "target_url": "not a url"}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_url")
}

func TestLoadInvalidDelayRange(t *testing.T) {
	path := writeConfig(t, `{
		"keywords": ["a"],
		"target_url": "https://example.com/",
		"delay_between_searches": [12, 5]
	}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delay_between_searches")

	path = writeConfig(t, `{
		"keywords": ["a"],
		"target_url": "https://example.com/",
		"delay_between_clicks": [3]
	}`)
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delay_between_clicks")
}

func TestLoadInvalidMaxResults(t *testing.T) {
	path := writeConfig(t, `{
		"keywords": ["a"],
		"target_url": "https://example.com/",
		"max_results_to_check": 0
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadCaptchaServiceRequiresKey(t *testing.T) {
	path := writeConfig(t, `{
		"keywords": ["a"],
		"target_url": "https://example.com/",
		"captcha_service": "2captcha"
	}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "captcha_api_key")
}

func TestLoadUnknownCaptchaService(t *testing.T) {
	path := writeConfig(t, `{
		"keywords": ["a"],
		"target_url": "https://example.com/",
		"captcha_service": "somethingelse",
		"captcha_api_key": "k"
	}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "captcha_service")
}

func TestLoadMissingFileFailsValidation(t *testing.T) {
	// The file itself is optional; the required keys are not.
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keywords")
}
