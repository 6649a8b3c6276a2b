package cron

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/tracing"
)

const (
	JobHeartbeat = "heartbeat"
	JobGmailPoll = "gmail_poll"
)

type CronManager struct {
	cfg    *config.Config
	log    logger.Logger
	cron   *cronv3.Cron
	jobIDs map[string]cronv3.EntryID
	poller interfaces.PollerService
}

func NewCronManager(cfg *config.Config, log logger.Logger, poller interfaces.PollerService) *CronManager {
	return &CronManager{
		cfg:    cfg,
		log:    log,
		jobIDs: make(map[string]cronv3.EntryID),
		poller: poller,
	}
}

// Start registers the jobs and starts the scheduler. It is a no-op when the
// in-process scheduler is disabled in favour of an external trigger.
func (cm *CronManager) Start() error {
	if !cm.cfg.CronConfig.Enabled {
		cm.log.Info("In-process cron disabled, expecting an external trigger on /api/jobs/poll-gmail")
		return nil
	}

	c := cronv3.New(
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	)
	if err := cm.registerJobs(c); err != nil {
		return err
	}

	cm.log.Info("Starting cron manager")
	c.Start()
	cm.cron = c
	return nil
}

// Stop waits for running jobs to finish.
func (cm *CronManager) Stop() {
	if cm.cron == nil {
		return
	}
	cm.log.Info("Stopping cron manager")
	<-cm.cron.Stop().Done()
	cm.cron = nil
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) error {
	if schedule := cm.cfg.CronConfig.CronScheduleHeartbeat; schedule != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(schedule, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			return errors.Wrap(err, "could not add heartbeat cron job")
		}
		cm.jobIDs[JobHeartbeat] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", schedule)
	}

	schedule := PollSchedule(cm.cfg)
	id, err := c.AddFunc(schedule, func() {
		defer tracing.RecoverAndLogToJaeger(cm.log)
		cm.pollGmail()
	})
	if err != nil {
		return errors.Wrap(err, "could not add gmail poll cron job")
	}
	cm.jobIDs[JobGmailPoll] = id
	cm.log.Infof("Registered gmail poll job with schedule: %s", schedule)
	return nil
}

// PollSchedule is CRON_SCHEDULE_GMAIL_POLL when set, otherwise every
// GMAIL_POLL_INTERVAL_MINUTES.
func PollSchedule(cfg *config.Config) string {
	if cfg.CronConfig.CronScheduleGmailPoll != "" {
		return cfg.CronConfig.CronScheduleGmailPoll
	}
	return fmt.Sprintf("@every %dm", cfg.PollerConfig.IntervalMinutes)
}

func (cm *CronManager) pollGmail() {
	span, ctx := tracing.StartTracerSpan(context.Background(), "CronManager.pollGmail")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	summary, err := cm.poller.PollAll(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Scheduled gmail poll failed: %v", err)
		return
	}
	if summary.Skipped {
		cm.log.Info("Scheduled gmail poll skipped, another run holds the lock")
	}
}
