package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"remindd/internal/config"
	"remindd/internal/notify"
	"remindd/internal/store"
	logx "remindd/pkg/logx"
)

const usage = `remindd - recurring reminder daemon

Usage:
  remindd trigger [-config path] [-dry-run] [-at RFC3339] [-level L]
  remindd serve   [-config path] [-level L]
  remindd add     [-config path] -name N -every daily|weekly|monthly [options]
  remindd list    [-config path]

trigger runs one due-reminder scan and exits 0 when the scan completed,
even if individual reminders failed (failures are reported in the summary).
serve runs scans periodically until interrupted.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "trigger":
		err = cmdTrigger(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	case "add":
		err = cmdAdd(os.Args[2:])
	case "list":
		err = cmdList(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

// app holds everything a subcommand needs after bootstrap.
type app struct {
	cfgm *config.Manager
	cfg  *config.Config
	logs *logx.Service
	log  logx.Logger
	st   store.Store
	loc  *time.Location
}

func bootstrap(cfgPath, levelOverride string) (*app, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	logCfg := mapLogging(cfg.Logging)
	if levelOverride != "" {
		logCfg.Level = levelOverride
	}
	logs, log := logx.New(logCfg)
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	loc := loadLocation(cfg.Trigger.Timezone, log)

	stCfg, err := mapStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(stCfg, log.With(logx.String("comp", "store")))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &app{cfgm: cfgm, cfg: cfg, logs: logs, log: log, st: st, loc: loc}, nil
}

func (a *app) close() {
	if a.st != nil {
		_ = a.st.Close()
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
}

func (a *app) notifier() (notify.Notifier, error) {
	nCfg, err := mapNotifier(a.cfg.Notifier)
	if err != nil {
		return nil, err
	}
	n, err := notify.New(nCfg, a.log.With(logx.String("comp", "notify")))
	if err != nil {
		return nil, fmt.Errorf("init notifier: %w", err)
	}
	return n, nil
}

// ---- config mapping ----

func mapLogging(c config.LoggingConfig) logx.Config {
	out := logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
	}
	if !out.Console && !out.File.Enabled {
		out.Console = true
	}
	return out
}

func mapStore(c config.StoreConfig) (store.Config, error) {
	busy, err := config.ParseDurationField("store.busy_timeout", c.BusyTimeout)
	if err != nil {
		return store.Config{}, err
	}
	return store.Config{Driver: c.Driver, Path: c.Path, BusyTimeout: busy}, nil
}

func mapNotifier(c config.NotifierConfig) (notify.Config, error) {
	sendTimeout, err := config.ParseDurationOrDefault("notifier.telegram.send_timeout", c.Telegram.SendTimeout, 10*time.Second)
	if err != nil {
		return notify.Config{}, err
	}
	return notify.Config{
		Driver: c.Driver,
		Telegram: notify.TelegramConfig{
			Token:       c.Telegram.Token,
			SendTimeout: sendTimeout,
			RatePerSec:  c.Telegram.RatePerSec,
		},
	}, nil
}

func loadLocation(tz string, log logx.Logger) *time.Location {
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("invalid timezone, falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

var errUsage = errors.New("invalid arguments")
