package cron

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartCron schedules every registered job and starts the scheduler. Runs of
// a job that is still busy are skipped.
func StartCron(log *logrus.Logger) (*cron.Cron, error) {
	logger := cron.PrintfLogger(log)
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	for name, j := range Jobs() {
		name, run := name, j.Run
		if _, err := c.AddFunc(j.Schedule, func() {
			log.WithField("job", name).Debug("cron job start")
			run()
		}); err != nil {
			return nil, fmt.Errorf("register job %s: %w", name, err)
		}
	}
	c.Start()
	return c, nil
}
