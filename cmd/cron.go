package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"shophub/cron"
)

var jobName string

var cronStartCmd = &cobra.Command{
	Use:   "cron:start",
	Short: "Start the cron scheduler or run a single job by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, log, err := bootstrap()
		if err != nil {
			return err
		}
		cron.RegisterJobs(svc)

		if jobName != "" {
			name := strings.ToLower(jobName)
			j, ok := cron.Jobs()[name]
			if !ok {
				return fmt.Errorf("unknown job %q (known: %s)", jobName, strings.Join(cron.Names(), ", "))
			}
			log.WithField("job", name).Info("Running cron job")
			j.Run(args...)
			return nil
		}

		c, err := cron.StartCron(log)
		if err != nil {
			return err
		}
		defer c.Stop()
		log.WithField("jobs", cron.Names()).Info("Cron scheduler started. Press Ctrl+C to exit.")
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		return nil
	},
}

func init() {
	cronStartCmd.Flags().StringVarP(&jobName, "job", "j", "", "Run a single cron job by name and exit")
	Register(cronStartCmd)
}
