/*
Package config turns flags, environment variables, an optional config file and
a .env file into the immutable RunConfig of one invocation.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/shanehull/regscraper/internal/dates"
)

// EnvPrefix prefixes every environment variable, e.g. REGSCRAPER_SMTP_PASS.
const EnvPrefix = "REGSCRAPER"

// ConfigurationError reports invalid or contradictory options.
type ConfigurationError = dates.ConfigurationError

// Configuration keys. Flags are bound to the same names.
const (
	KeyVerbose       = "verbose"
	KeyReload        = "reload"
	KeyNoSave        = "no_save"
	KeyStartDate     = "start_date"
	KeyEndDate       = "end_date"
	KeyYesterday     = "yesterday"
	KeyOldestUnsaved = "oldest_unsaved"
	KeyAll           = "all"
	KeyMerge         = "merge"
	KeyHeadless      = "headless"
	KeyCacheDir      = "cache_dir"
	KeyStore         = "store"
	KeySQLitePath    = "sqlite_path"
	KeyScreenshotDir = "screenshot_dir"
	KeyPublicDir     = "public_dir"
	KeyNotify        = "notify"
	KeyDigest        = "digest"

	KeyDetailEndpoint    = "detail.endpoint"
	KeyDetailConnect     = "detail.connect_timeout"
	KeyDetailRead        = "detail.read_timeout"
	KeyDetailMaxAttempts = "detail.max_attempts"
	KeyDetailRetryDelay  = "detail.retry_delay"

	KeyPortalURL         = "portal.url"
	KeyPortalStepTimeout = "portal.step_timeout"
	KeyPortalSettle      = "portal.settle"

	KeySMTPServer = "smtp.server"
	KeySMTPPort   = "smtp.port"
	KeySMTPUser   = "smtp.user"
	KeySMTPPass   = "smtp.pass"
	KeySMTPFrom   = "smtp.from"
	KeySMTPTo     = "smtp.to"

	KeyGeminiAPIKey = "gemini.api_key"
	KeyGeminiModel  = "gemini.model"
)

// StoreBackend names a cache implementation.
type StoreBackend string

const (
	StoreFile   StoreBackend = "file"
	StoreSQLite StoreBackend = "sqlite"
)

type DetailConfig struct {
	Endpoint       string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxAttempts    int
	RetryDelay     time.Duration
}

type PortalConfig struct {
	URL         string
	StepTimeout time.Duration
	Settle      time.Duration
}

type SMTPConfig struct {
	Server string
	Port   int
	User   string
	Pass   string
	From   string
	To     string
}

// Complete reports whether enough is set to send mail.
func (s SMTPConfig) Complete() bool {
	return s.Server != "" && s.User != "" && s.Pass != "" && s.To != ""
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

// RunConfig is the validated configuration of one run. It is passed by value.
type RunConfig struct {
	Verbose  bool
	Reload   bool
	NoSave   bool
	Merge    bool
	Headless bool

	Dates dates.Request

	CacheDir      string
	Store         StoreBackend
	SQLitePath    string
	ScreenshotDir string
	PublicDir     string

	Detail DetailConfig
	Portal PortalConfig

	Notify bool
	SMTP   SMTPConfig
	Digest bool
	Gemini GeminiConfig
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyHeadless, false)
	v.SetDefault(KeyCacheDir, "db")
	v.SetDefault(KeyStore, string(StoreFile))
	v.SetDefault(KeySQLitePath, "db/registerbekanntmachungen.db")
	v.SetDefault(KeyScreenshotDir, "tmp")
	v.SetDefault(KeyPublicDir, "public")

	v.SetDefault(KeyDetailEndpoint, "https://www.handelsregister.de/rp_web/xhtml/bekanntmachungen.xhtml")
	v.SetDefault(KeyDetailConnect, 30*time.Second)
	v.SetDefault(KeyDetailRead, 60*time.Second)
	v.SetDefault(KeyDetailMaxAttempts, 3)
	v.SetDefault(KeyDetailRetryDelay, time.Second)

	v.SetDefault(KeyPortalURL, "https://www.handelsregister.de/rp_web/welcome.xhtml")
	v.SetDefault(KeyPortalStepTimeout, 60*time.Second)
	v.SetDefault(KeyPortalSettle, 5*time.Second)

	v.SetDefault(KeySMTPServer, "smtp.gmail.com")
	v.SetDefault(KeySMTPPort, 587)
	v.SetDefault(KeyGeminiModel, "gemini-2.5-flash")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are given. A missing file is not an error; existing variables win.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load .env: %w", err)
}

// ReadFile merges a YAML, TOML or JSON config file into v.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// Load builds and validates a RunConfig from v.
func Load(v *viper.Viper) (RunConfig, error) {
	cfg := RunConfig{
		Verbose:  v.GetBool(KeyVerbose),
		Reload:   v.GetBool(KeyReload),
		NoSave:   v.GetBool(KeyNoSave),
		Merge:    v.GetBool(KeyMerge),
		Headless: v.GetBool(KeyHeadless),

		CacheDir:      v.GetString(KeyCacheDir),
		Store:         StoreBackend(strings.ToLower(v.GetString(KeyStore))),
		SQLitePath:    v.GetString(KeySQLitePath),
		ScreenshotDir: v.GetString(KeyScreenshotDir),
		PublicDir:     v.GetString(KeyPublicDir),

		Detail: DetailConfig{
			Endpoint:       v.GetString(KeyDetailEndpoint),
			ConnectTimeout: v.GetDuration(KeyDetailConnect),
			ReadTimeout:    v.GetDuration(KeyDetailRead),
			MaxAttempts:    v.GetInt(KeyDetailMaxAttempts),
			RetryDelay:     v.GetDuration(KeyDetailRetryDelay),
		},
		Portal: PortalConfig{
			URL:         v.GetString(KeyPortalURL),
			StepTimeout: v.GetDuration(KeyPortalStepTimeout),
			Settle:      v.GetDuration(KeyPortalSettle),
		},

		Notify: v.GetBool(KeyNotify),
		SMTP: SMTPConfig{
			Server: v.GetString(KeySMTPServer),
			Port:   v.GetInt(KeySMTPPort),
			User:   v.GetString(KeySMTPUser),
			Pass:   v.GetString(KeySMTPPass),
			From:   v.GetString(KeySMTPFrom),
			To:     v.GetString(KeySMTPTo),
		},
		Digest: v.GetBool(KeyDigest),
		Gemini: GeminiConfig{
			APIKey: v.GetString(KeyGeminiAPIKey),
			Model:  v.GetString(KeyGeminiModel),
		},
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}

	req, err := dateRequest(v)
	if err != nil {
		return RunConfig{}, err
	}
	cfg.Dates = req

	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}

	return cfg, nil
}

func dateRequest(v *viper.Viper) (dates.Request, error) {
	start, end := strings.TrimSpace(v.GetString(KeyStartDate)), strings.TrimSpace(v.GetString(KeyEndDate))

	var selected []string
	if start != "" || end != "" {
		selected = append(selected, "--start-date/--end-date")
	}
	if v.GetBool(KeyYesterday) {
		selected = append(selected, "--yesterday")
	}
	if v.GetBool(KeyOldestUnsaved) {
		selected = append(selected, "--oldest-unsaved")
	}
	if v.GetBool(KeyAll) {
		selected = append(selected, "--all")
	}
	if len(selected) > 1 {
		return dates.Request{}, &ConfigurationError{Msg: strings.Join(selected, ", ") + " cannot be combined"}
	}

	switch {
	case v.GetBool(KeyYesterday):
		return dates.Request{Mode: dates.ModeYesterday}, nil
	case v.GetBool(KeyOldestUnsaved):
		return dates.Request{Mode: dates.ModeOldestUnsaved}, nil
	case v.GetBool(KeyAll):
		return dates.Request{Mode: dates.ModeAll}, nil
	case start != "" || end != "":
		req := dates.Request{Mode: dates.ModeRange}
		var err error
		if start != "" {
			if req.Start, err = dates.ParseDate(start); err != nil {
				return dates.Request{}, err
			}
		}
		if end != "" {
			if req.End, err = dates.ParseDate(end); err != nil {
				return dates.Request{}, err
			}
		}
		return req, nil
	default:
		return dates.Request{Mode: dates.ModeToday}, nil
	}
}

// Validate checks option combinations that cannot be expressed by the types.
func (c RunConfig) Validate() error {
	switch c.Store {
	case StoreFile:
		if c.CacheDir == "" {
			return &ConfigurationError{Msg: "cache directory must not be empty"}
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return &ConfigurationError{Msg: "sqlite path must not be empty"}
		}
	default:
		return &ConfigurationError{Msg: fmt.Sprintf("unknown store %q, expected %q or %q", c.Store, StoreFile, StoreSQLite)}
	}

	if c.Dates.Mode == dates.ModeOldestUnsaved && c.Reload {
		return &ConfigurationError{Msg: "--oldest-unsaved cannot be combined with --reload"}
	}
	if c.Detail.MaxAttempts < 1 {
		return &ConfigurationError{Msg: "detail.max_attempts must be at least 1"}
	}
	if c.Notify && !c.SMTP.Complete() {
		return &ConfigurationError{Msg: "--notify needs smtp.server, smtp.user, smtp.pass and smtp.to"}
	}
	if c.Digest && c.Gemini.APIKey == "" {
		return &ConfigurationError{Msg: "--digest needs gemini.api_key (" + EnvPrefix + "_GEMINI_API_KEY)"}
	}

	return nil
}
