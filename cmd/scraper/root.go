package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shanehull/regscraper/internal/ai"
	"github.com/shanehull/regscraper/internal/cache"
	"github.com/shanehull/regscraper/internal/config"
	"github.com/shanehull/regscraper/internal/detail"
	"github.com/shanehull/regscraper/internal/logger"
	"github.com/shanehull/regscraper/internal/notify"
	"github.com/shanehull/regscraper/internal/portal"
	"github.com/shanehull/regscraper/internal/retry"
	"github.com/shanehull/regscraper/internal/run"
	"github.com/shanehull/regscraper/internal/version"
)

type flagBinding struct {
	key  string
	flag string
}

func newRootCommand() *cobra.Command {
	v := config.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "regscraper",
		Short: "Download the German commercial register announcements",
		Long: `regscraper searches the Registerbekanntmachungen of handelsregister.de,
fetches the full text of every announcement and stores one JSON record per day.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			return config.ReadFile(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return scrape(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.String("cache-dir", "db", "directory of the daily JSON records")

	f := cmd.Flags()
	f.BoolP("reload", "r", false, "download dates again even if they are cached")
	f.Bool("no-save", false, "print the records to stdout instead of saving them")
	f.String("start-date", "", "first date to download (DD.MM.YYYY or YYYY-MM-DD)")
	f.String("end-date", "", "last date to download (DD.MM.YYYY or YYYY-MM-DD)")
	f.BoolP("yesterday", "y", false, "download yesterday's announcements")
	f.BoolP("oldest-unsaved", "o", false, "download the oldest date of the retention window that is not cached")
	f.Bool("all", false, "download every date of the retention window")
	f.BoolP("merge", "m", false, "reuse the details of cached announcements when downloading again")
	f.Bool("headless", false, "run the browser without a window")
	f.String("store", string(config.StoreFile), "record store: file or sqlite")
	f.String("sqlite-path", "db/registerbekanntmachungen.db", "database file of the sqlite store")
	f.String("screenshot-dir", "tmp", "directory for screenshots taken on navigation timeouts")
	f.Bool("notify", false, "send the run summary by e-mail")
	f.Bool("digest", false, "add a Gemini digest of the downloaded announcements")

	bindFlags(v, pf, []flagBinding{
		{config.KeyVerbose, "verbose"},
		{config.KeyCacheDir, "cache-dir"},
	})
	bindFlags(v, f, []flagBinding{
		{config.KeyReload, "reload"},
		{config.KeyNoSave, "no-save"},
		{config.KeyStartDate, "start-date"},
		{config.KeyEndDate, "end-date"},
		{config.KeyYesterday, "yesterday"},
		{config.KeyOldestUnsaved, "oldest-unsaved"},
		{config.KeyAll, "all"},
		{config.KeyMerge, "merge"},
		{config.KeyHeadless, "headless"},
		{config.KeyStore, "store"},
		{config.KeySQLitePath, "sqlite-path"},
		{config.KeyScreenshotDir, "screenshot-dir"},
		{config.KeyNotify, "notify"},
		{config.KeyDigest, "digest"},
	})

	cmd.AddCommand(newIndexCommand(v), newVersionCommand())

	return cmd
}

// bindFlags panics on an unknown flag name, which is a programming error.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, bindings []flagBinding) {
	for _, b := range bindings {
		if err := v.BindPFlag(b.key, fs.Lookup(b.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", b.flag, err))
		}
	}
}

func scrape(ctx context.Context, cfg config.RunConfig, stdout, stderr io.Writer) error {
	log := logger.New(stderr, cfg.Verbose)
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	summaryOut := stdout
	if cfg.NoSave {
		store = cache.NewEchoStore(store, stdout)
		summaryOut = stderr
	}

	fetcher := detail.New(detail.Config{
		Endpoint:       cfg.Detail.Endpoint,
		ConnectTimeout: cfg.Detail.ConnectTimeout,
		ReadTimeout:    cfg.Detail.ReadTimeout,
		Policy: retry.Policy{
			MaxAttempts: cfg.Detail.MaxAttempts,
			Retryable:   retry.IsTimeout,
			Delay:       cfg.Detail.RetryDelay,
		},
	}, log)

	browser := portal.New(portal.Config{
		URL:         cfg.Portal.URL,
		Headless:    cfg.Headless,
		StepTimeout: cfg.Portal.StepTimeout,
		Settle:      cfg.Portal.Settle,
	}, log)
	defer browser.Close()

	report, runErr := run.New(cfg, browser, store, fetcher, log, time.Now).Run(ctx)

	data := notify.SummaryData{Report: report, Err: runErr}
	if cfg.Digest && runErr == nil && len(report.Announcements) > 0 {
		digest, err := buildDigest(ctx, cfg.Gemini, report)
		if err != nil {
			log.Warn("Failed to create AI digest", "error", err)
		} else {
			data.Digest = digest
		}
	}

	notify.PrintSummary(summaryOut, data)

	if cfg.Notify && !report.Stats.NothingToDo {
		sendSummary(cfg.SMTP, data, log)
	}

	return runErr
}

func openStore(ctx context.Context, cfg config.RunConfig) (cache.Store, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite:
		store, err := cache.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return cache.NewFileStore(cfg.CacheDir), func() {}, nil
	}
}

func buildDigest(ctx context.Context, cfg config.GeminiConfig, report *run.Report) (*ai.Digest, error) {
	client, err := ai.NewClient(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, err
	}
	return client.Digest(ctx, report.Announcements)
}

func sendSummary(cfg config.SMTPConfig, data notify.SummaryData, log logger.Interface) {
	msg, err := notify.NewHTMLEmailRenderer().Render(data)
	if err != nil {
		log.Warn("Failed to render summary e-mail", "error", err)
		return
	}

	sender := notify.NewEmailSender(notify.EmailConfig{
		SMTPServer: cfg.Server,
		SMTPPort:   cfg.Port,
		SMTPUser:   cfg.User,
		SMTPPass:   cfg.Pass,
		FromEmail:  cfg.From,
		ToEmail:    cfg.To,
		Enabled:    cfg.Complete(),
	}, log)
	if err := sender.Send(msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to send e-mail: %v\n", err)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "regscraper version %s\n", version.Version)
		},
	}
}
