package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Gmail poll; empty means every GMAIL_POLL_INTERVAL_MINUTES
	CronScheduleGmailPoll string `env:"CRON_SCHEDULE_GMAIL_POLL"`

	// Disable the in-process scheduler when an external cron hits /api/jobs/poll-gmail
	Enabled bool `env:"CRON_ENABLED" envDefault:"true"`
}
