// Command orgagenda materializes org-mode agenda and contacts files from
// CalDAV/CardDAV subscriptions.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"orgagenda/internal/agenda"
	"orgagenda/internal/config"
	"orgagenda/internal/contacts"
	"orgagenda/internal/ics"
	appLog "orgagenda/internal/log"
	"orgagenda/internal/model"
)

type flagConfig struct {
	configPath string
	force      bool
	contacts   bool
	watch      bool
	verbose    bool
}

func main() {
	flags := parseFlags()
	if flags.verbose {
		appLog.SetLevel(appLog.LevelInfo)
	}

	cfg, err := config.Load(config.ExpandUser(flags.configPath))
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// Timezone resolution is fatal: every rendered interval depends on it.
	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("cannot resolve timezone", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	run := func() {
		if err := generate(ctx, cfg, loc, flags); err != nil {
			appLog.Error("generation failed", err)
			if !flags.watch {
				os.Exit(1)
			}
		}
	}

	if !flags.watch {
		run()
		return
	}

	run()
	c := cron.New()
	if _, err := c.AddFunc(cfg.RefreshCron, run); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", cfg.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}

// generate runs one full fetch/expand/render pass and writes the output
// files.
func generate(ctx context.Context, cfg *config.Config, loc *time.Location, flags flagConfig) error {
	fetcher := ics.NewFetcher(config.ExpandUser(cfg.CacheDir), flags.force)

	calSources, bookSources, err := resolveSources(ctx, cfg)
	if err != nil {
		return err
	}

	calendars, _ := fetcher.FetchAll(ctx, calSources)

	window := model.NewWindow(time.Now().In(loc), cfg.Back, cfg.Ahead)
	blocks := agenda.Events(calendars, window, loc)

	agendaPath := config.ExpandUser(cfg.AgendaFile)
	appLog.Info("writing agenda", "path", agendaPath, "blocks", len(blocks))
	if err := os.WriteFile(agendaPath, []byte(agenda.Document(blocks)), 0o644); err != nil {
		return err
	}

	if !flags.contacts {
		return nil
	}

	books, _ := fetcher.FetchAll(ctx, bookSources)
	contactBlocks := contacts.Blocks(books)
	contactsPath := config.ExpandUser(cfg.ContactsFile)
	appLog.Info("writing contacts", "path", contactsPath, "blocks", len(contactBlocks))
	return os.WriteFile(contactsPath, []byte(agenda.Document(contactBlocks)), 0o644)
}

// resolveSources expands every configured source into concrete fetch
// targets, resolving the passwordstore secret once per source.
func resolveSources(ctx context.Context, cfg *config.Config) (cals, books []ics.Source, err error) {
	for _, src := range cfg.Sources {
		password := ""
		if src.Passwordstore != "" {
			password, err = ics.Passwordstore(ctx, src.Passwordstore)
			if err != nil {
				return nil, nil, err
			}
		}
		for _, url := range src.CalendarURLs() {
			cals = append(cals, ics.Source{ID: src.ID, URL: url, User: src.User, Password: password})
		}
		for _, url := range src.AddressbookURLs() {
			books = append(books, ics.Source{ID: src.ID, URL: url, User: src.User, Password: password})
		}
	}
	return cals, books, nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "~/.config/orgagenda/config.yaml", "Path to config file")
	flag.BoolVar(&cfg.force, "force", false, "Force download, bypassing the cache validators")
	flag.BoolVar(&cfg.contacts, "contacts", false, "Also write the org-contacts file from addressbooks")
	flag.BoolVar(&cfg.watch, "watch", false, "Keep running and regenerate on the configured cron schedule")
	flag.BoolVar(&cfg.verbose, "v", false, "Verbose logging")

	flag.Parse()

	return cfg
}
