// Package daemon runs the trigger processor on a periodic schedule.
//
// It is the "external invoker" side of the engine: cadence, overlap
// protection, systemd integration and config hot reload live here, while
// scan correctness stays in the trigger package.
package daemon

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"remindd/internal/config"
	"remindd/internal/trigger"
	logx "remindd/pkg/logx"
)

// Scanner is the scan entry point (implemented by *trigger.Processor).
type Scanner interface {
	Run(ctx context.Context, now time.Time, dryRun bool) (trigger.Summary, error)
}

type Config struct {
	// Schedule is a 5-field cron spec or "@every <duration>".
	Schedule    string
	ScanTimeout time.Duration
	Location    *time.Location
}

type Daemon struct {
	cfg     Config
	scanner Scanner
	cfgm    *config.Manager
	log     logx.Logger

	// OnReload is invoked with each validated config update (daemon mode
	// hot reload). Optional.
	OnReload func(cfg *config.Config)

	scanning atomic.Bool
}

func New(cfg Config, scanner Scanner, cfgm *config.Manager, log logx.Logger) *Daemon {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Daemon{cfg: cfg, scanner: scanner, cfgm: cfgm, log: log}
}

// Run blocks until ctx is cancelled. Unprocessed reminders at shutdown
// simply remain due and are picked up by the next run.
func (d *Daemon) Run(ctx context.Context) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithLocation(d.cfg.Location))
	if _, err := c.AddFunc(d.cfg.Schedule, func() { d.tick(ctx) }); err != nil {
		return fmt.Errorf("invalid trigger schedule %q: %w", d.cfg.Schedule, err)
	}

	if d.cfgm != nil {
		ch := d.cfgm.Subscribe(1)
		defer d.cfgm.Unsubscribe(ch)
		go d.reloadLoop(ctx, ch)
		go func() {
			if err := d.cfgm.Watch(ctx); err != nil {
				d.log.Warn("config watch stopped", logx.Err(err))
			}
		}()
	}

	c.Start()
	defer func() { <-c.Stop().Done() }()

	d.notifySystemd(ctx)
	d.log.Info("daemon started",
		logx.String("schedule", d.cfg.Schedule),
		logx.String("tz", d.cfg.Location.String()))

	// First scan right away so a restart doesn't wait a full interval.
	d.tick(ctx)

	<-ctx.Done()
	_, _ = sd.SdNotify(false, sd.SdNotifyStopping)
	d.log.Info("daemon stopped")
	return nil
}

// tick runs one scan unless the previous one is still going. Overlapping
// scans could double-deliver a reminder before either commits its new
// trigger time, so late ticks are skipped, not queued.
func (d *Daemon) tick(ctx context.Context) {
	if !d.scanning.CompareAndSwap(false, true) {
		d.log.Warn("previous scan still running; tick skipped")
		return
	}
	defer d.scanning.Store(false)

	sctx, cancel := context.WithTimeout(ctx, d.cfg.ScanTimeout)
	defer cancel()

	if _, err := d.scanner.Run(sctx, time.Now().In(d.cfg.Location), false); err != nil {
		d.log.Error("scan failed", logx.Err(err))
	}
}

func (d *Daemon) reloadLoop(ctx context.Context, ch chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok {
				return
			}
			if cfg != nil && d.OnReload != nil {
				d.OnReload(cfg)
			}
		}
	}
}

// notifySystemd reports readiness and keeps the watchdog fed when the
// process runs under a systemd unit with WatchdogSec set. Outside systemd
// both calls are no-ops.
func (d *Daemon) notifySystemd(ctx context.Context) {
	if _, err := sd.SdNotify(false, sd.SdNotifyReady); err != nil {
		d.log.Debug("sd_notify unavailable", logx.Err(err))
	}

	interval, err := sd.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = sd.SdNotify(false, sd.SdNotifyWatchdog)
			}
		}
	}()
}
