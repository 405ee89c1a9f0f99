package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"remindd/internal/config"
	"remindd/internal/daemon"
	"remindd/internal/schedule"
	"remindd/internal/store"
	"remindd/internal/trigger"
	logx "remindd/pkg/logx"
)

func cmdTrigger(args []string) error {
	fs := flag.NewFlagSet("trigger", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.json", "path to config file (json or yaml)")
	dryRun := fs.Bool("dry-run", false, "deliver notifications but do not advance trigger state")
	at := fs.String("at", "", "scan instant override (RFC3339); default now")
	level := fs.String("level", "", "log level override")
	_ = fs.Parse(args)

	a, err := bootstrap(*cfgPath, *level)
	if err != nil {
		return err
	}
	defer a.close()

	now := time.Now()
	if *at != "" {
		now, err = time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("-at: %w", err)
		}
	}

	n, err := a.notifier()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	proc := trigger.New(a.st, n, a.st, a.loc, a.log.With(logx.String("comp", "trigger")))
	sum, err := proc.Run(ctx, now, *dryRun)
	if err != nil {
		return err
	}

	// Item failures are part of a completed scan, not a process failure.
	fmt.Printf("due=%d sent=%d failed=%d persist_failed=%d\n",
		sum.Due, sum.Sent, sum.Failed, sum.PersistFailed)
	return nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.json", "path to config file (json or yaml)")
	level := fs.String("level", "", "log level override")
	_ = fs.Parse(args)

	a, err := bootstrap(*cfgPath, *level)
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.notifier()
	if err != nil {
		return err
	}

	scanTimeout, err := config.ParseDurationOrDefault("trigger.scan_timeout", a.cfg.Trigger.ScanTimeout, time.Minute)
	if err != nil {
		return err
	}

	proc := trigger.New(a.st, n, a.st, a.loc, a.log.With(logx.String("comp", "trigger")))
	d := daemon.New(daemon.Config{
		Schedule:    a.cfg.Trigger.Schedule,
		ScanTimeout: scanTimeout,
		Location:    a.loc,
	}, proc, a.cfgm, a.log.With(logx.String("comp", "daemon")))

	// Hot reload covers logging only; store/notifier/schedule changes
	// need a restart.
	d.OnReload = func(cfg *config.Config) {
		a.logs.Apply(mapLogging(cfg.Logging))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return d.Run(ctx)
}

func cmdAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.json", "path to config file (json or yaml)")
	name := fs.String("name", "", "reminder name (required)")
	note := fs.String("note", "", "free-text note")
	recipient := fs.String("recipient", "", "notifier address (e.g. telegram chat id)")
	every := fs.String("every", "", "daily, weekly or monthly (required)")
	at := fs.String("at", "", "trigger time HH:MM (default 09:00)")
	days := fs.String("days", "", "weekly: weekday names; monthly: days of month (comma separated)")
	followup := fs.Bool("task", false, "create a follow-up task on each trigger")
	_ = fs.Parse(args)

	if *name == "" || *every == "" {
		fs.Usage()
		return errUsage
	}

	a, err := bootstrap(*cfgPath, "")
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := buildSchedule(*every, *at, *days)
	if err != nil {
		return err
	}

	now := time.Now().In(a.loc)
	next, err := schedule.Next(sched, now)
	if err != nil {
		return err
	}

	r := &store.Reminder{
		Name:               *name,
		Note:               *note,
		Recipient:          *recipient,
		Active:             true,
		Schedule:           sched,
		CreateFollowupTask: *followup,
		NextTriggerAt:      &next,
	}
	if err := a.st.CreateReminder(context.Background(), r); err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}

	fmt.Printf("created #%d %q (%s), first trigger %s\n",
		r.ID, r.Name, schedule.Describe(sched), next.Format(time.RFC3339))
	return nil
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.json", "path to config file (json or yaml)")
	_ = fs.Parse(args)

	a, err := bootstrap(*cfgPath, "ERROR")
	if err != nil {
		return err
	}
	defer a.close()

	reminders, err := a.st.ListReminders(context.Background())
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}
	if len(reminders) == 0 {
		fmt.Println("no reminders")
		return nil
	}

	for _, r := range reminders {
		state := "active"
		if !r.Active {
			state = "paused"
		}
		next := "-"
		if r.NextTriggerAt != nil {
			next = r.NextTriggerAt.In(a.loc).Format("2006-01-02 15:04")
		}
		fmt.Printf("#%-4d %-8s next=%-17s %s  [%s]\n",
			r.ID, state, next, r.Name, schedule.Describe(r.Schedule))
	}
	return nil
}

// buildSchedule turns the add-command flags into a schedule value.
func buildSchedule(every, at, days string) (schedule.Schedule, error) {
	kind, err := schedule.ParseKind(every)
	if err != nil {
		return nil, err
	}

	var tod *schedule.TimeOfDay
	if at != "" {
		t, err := schedule.ParseTimeOfDay(at)
		if err != nil {
			return nil, err
		}
		tod = &t
	}

	switch kind {
	case schedule.KindDaily:
		if days != "" {
			return nil, fmt.Errorf("-days is not valid for daily schedules")
		}
		return schedule.Daily{Time: tod}, nil

	case schedule.KindWeekly:
		wd, err := parseWeekdays(days)
		if err != nil {
			return nil, err
		}
		return schedule.Weekly{Time: tod, Days: wd}, nil

	case schedule.KindMonthly:
		md, err := parseMonthdays(days)
		if err != nil {
			return nil, err
		}
		return schedule.Monthly{Time: tod, Days: md}, nil
	}
	return nil, fmt.Errorf("unknown schedule %q", every)
}

var weekdayAliases = map[string]schedule.Weekday{
	"mon": schedule.Monday, "monday": schedule.Monday,
	"tue": schedule.Tuesday, "tuesday": schedule.Tuesday,
	"wed": schedule.Wednesday, "wednesday": schedule.Wednesday,
	"thu": schedule.Thursday, "thursday": schedule.Thursday,
	"fri": schedule.Friday, "friday": schedule.Friday,
	"sat": schedule.Saturday, "saturday": schedule.Saturday,
	"sun": schedule.Sunday, "sunday": schedule.Sunday,
}

func parseWeekdays(s string) ([]schedule.Weekday, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []schedule.Weekday
	for _, part := range strings.Split(s, ",") {
		d, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseMonthdays(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		var d int
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &d); err != nil || d < 1 || d > 31 {
			return nil, fmt.Errorf("invalid day of month %q", part)
		}
		out = append(out, d)
	}
	return out, nil
}
