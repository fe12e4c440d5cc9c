package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/user/serpclick/internal/humanize"
)

// ServiceTwoCaptcha is the only external solving service currently wired in.
const ServiceTwoCaptcha = "2captcha"

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Config stores all settings for one run. It is built once at startup and
// never mutated afterwards.
type Config struct {
	Keywords             []string
	TargetURL            string
	MaxResultsToCheck    int
	SearchDelay          humanize.Range
	ClickDelay           humanize.Range
	Headless             bool
	UsePersistentContext bool
	WaitForCaptchaManual bool
	SkipCaptcha          bool
	CaptchaService       string
	CaptchaAPIKey        string

	SearchURL           string
	UserDataDir         string
	UserAgent           string
	AcceptLanguage      string
	NavTimeout          time.Duration
	ManualCaptchaWait   time.Duration
	CaptchaPollInterval time.Duration
	CaptchaSolveTimeout time.Duration

	MetricsAddr     string
	PostgresURL     string
	RedisAddr       string
	KeywordCooldown time.Duration
}

// fileConfig mirrors the keys recognized in config.json.
type fileConfig struct {
	Keywords                   []string  `mapstructure:"keywords"`
	TargetURL                  string    `mapstructure:"target_url"`
	MaxResultsToCheck          int       `mapstructure:"max_results_to_check"`
	DelayBetweenSearches       []float64 `mapstructure:"delay_between_searches"`
	DelayBetweenClicks         []float64 `mapstructure:"delay_between_clicks"`
	Headless                   bool      `mapstructure:"headless"`
	UsePersistentContext       bool      `mapstructure:"use_persistent_context"`
	WaitForCaptchaManual       bool      `mapstructure:"wait_for_captcha_manual"`
	SkipCaptcha                bool      `mapstructure:"skip_captcha"`
	CaptchaService             string    `mapstructure:"captcha_service"`
	CaptchaAPIKey              string    `mapstructure:"captcha_api_key"`
	SearchURL                  string    `mapstructure:"search_url"`
	UserDataDir                string    `mapstructure:"user_data_dir"`
	UserAgent                  string    `mapstructure:"user_agent"`
	AcceptLanguage             string    `mapstructure:"accept_language"`
	NavTimeoutSeconds          int       `mapstructure:"nav_timeout_seconds"`
	ManualCaptchaWaitSeconds   int       `mapstructure:"manual_captcha_wait_seconds"`
	CaptchaPollSeconds         int       `mapstructure:"captcha_poll_seconds"`
	CaptchaSolveTimeoutSeconds int       `mapstructure:"captcha_solve_timeout_seconds"`
	MetricsAddr                string    `mapstructure:"metrics_addr"`
	PostgresURL                string    `mapstructure:"postgres_url"`
	RedisAddr                  string    `mapstructure:"redis_addr"`
	KeywordCooldownHours       int       `mapstructure:"keyword_cooldown_hours"`
}

// Load reads configuration from the given JSON file, with environment
// variable overrides. A missing file is tolerated; validation decides
// whether the resulting settings are usable.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.AutomaticEnv()

	v.SetDefault("max_results_to_check", 10)
	v.SetDefault("delay_between_searches", []float64{5, 12})
	v.SetDefault("delay_between_clicks", []float64{3, 8})
	v.SetDefault("headless", false)
	v.SetDefault("use_persistent_context", true)
	v.SetDefault("wait_for_captcha_manual", true)
	v.SetDefault("skip_captcha", false)
	v.SetDefault("search_url", "https://www.google.com")
	v.SetDefault("user_agent", defaultUserAgent)
	v.SetDefault("accept_language", "ja-JP,ja;q=0.9,en-US;q=0.8,en;q=0.7")
	v.SetDefault("nav_timeout_seconds", 30)
	v.SetDefault("manual_captcha_wait_seconds", 60)
	v.SetDefault("captcha_poll_seconds", 5)
	v.SetDefault("captcha_solve_timeout_seconds", 120)
	v.SetDefault("keyword_cooldown_hours", 0)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	var raw fileConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return raw.build()
}

func (f *fileConfig) build() (*Config, error) {
	if len(f.Keywords) == 0 {
		return nil, errors.New("config: keywords must not be empty")
	}
	u, err := url.Parse(f.TargetURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("config: invalid target_url %q", f.TargetURL)
	}
	if f.MaxResultsToCheck < 1 {
		return nil, errors.New("config: max_results_to_check must be at least 1")
	}
	searchDelay, err := toRange("delay_between_searches", f.DelayBetweenSearches)
	if err != nil {
		return nil, err
	}
	clickDelay, err := toRange("delay_between_clicks", f.DelayBetweenClicks)
	if err != nil {
		return nil, err
	}
	switch f.CaptchaService {
	case "", ServiceTwoCaptcha:
	default:
		return nil, fmt.Errorf("config: unknown captcha_service %q", f.CaptchaService)
	}
	if f.CaptchaService != "" && f.CaptchaAPIKey == "" {
		return nil, errors.New("config: captcha_api_key is required when captcha_service is set")
	}

	dataDir := f.UserDataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".serpclick-profile")
	}

	return &Config{
		Keywords:             f.Keywords,
		TargetURL:            f.TargetURL,
		MaxResultsToCheck:    f.MaxResultsToCheck,
		SearchDelay:          searchDelay,
		ClickDelay:           clickDelay,
		Headless:             f.Headless,
		UsePersistentContext: f.UsePersistentContext,
		WaitForCaptchaManual: f.WaitForCaptchaManual,
		SkipCaptcha:          f.SkipCaptcha,
		CaptchaService:       f.CaptchaService,
		CaptchaAPIKey:        f.CaptchaAPIKey,
		SearchURL:            f.SearchURL,
		UserDataDir:          dataDir,
		UserAgent:            f.UserAgent,
		AcceptLanguage:       f.AcceptLanguage,
		NavTimeout:           time.Duration(f.NavTimeoutSeconds) * time.Second,
		ManualCaptchaWait:    time.Duration(f.ManualCaptchaWaitSeconds) * time.Second,
		CaptchaPollInterval:  time.Duration(f.CaptchaPollSeconds) * time.Second,
		CaptchaSolveTimeout:  time.Duration(f.CaptchaSolveTimeoutSeconds) * time.Second,
		MetricsAddr:          f.MetricsAddr,
		PostgresURL:          f.PostgresURL,
		RedisAddr:            f.RedisAddr,
		KeywordCooldown:      time.Duration(f.KeywordCooldownHours) * time.Hour,
	}, nil
}

func toRange(key string, v []float64) (humanize.Range, error) {
	if len(v) != 2 {
		return humanize.Range{}, fmt.Errorf("config: %s must be a [min, max] pair", key)
	}
	r := humanize.Range{Min: v[0], Max: v[1]}
	if err := r.Validate(); err != nil {
		return humanize.Range{}, fmt.Errorf("config: %s: %w", key, err)
	}
	return r, nil
}
