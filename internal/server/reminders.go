package server

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/task"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom,
// month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// runReminderScan re-evaluates the due-date filters on the configured cron
// schedule and reports the counts. It only filters; delivering the results
// anywhere is somebody else's problem.
func runReminderScan(ctx context.Context, db *gorm.DB, cfg config.RemindersConfig, out io.Writer) {
	for {
		d := nextCronDuration(cfg.Schedule)
		if d == 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
		}

		feed, err := task.RemindersFeed(db, 0, cfg.Days, time.Now())
		if err != nil {
			if out != nil {
				fmt.Fprintf(out, "reminder scan failed: %v\n", err)
			}
			continue
		}
		if out != nil {
			fmt.Fprintf(out, "reminder scan: %d overdue, %d upcoming (window %dd)\n",
				len(feed.Overdue), len(feed.Upcoming), cfg.Days)
		}
	}
}
