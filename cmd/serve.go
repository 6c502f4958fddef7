package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"shophub/api"
	"shophub/cron"
	"shophub/html"
	"shophub/service"
)

var serveNoCron bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storefront, admin dashboard and GraphQL API",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, log, err := bootstrap()
		if err != nil {
			return err
		}
		e := NewServer(svc)

		if !serveNoCron {
			cron.RegisterJobs(svc)
			c, err := cron.StartCron(log)
			if err != nil {
				return err
			}
			defer c.Stop()
		}

		fonts := []string{"banner", "big", "block", "slant", "standard", "small", "doom", "larry3d", "puffy"}
		figure.NewFigure(svc.Config.AppName, fonts[rand.Intn(len(fonts))], true).Print()
		fmt.Println()

		addr := ":" + svc.Config.Port
		go func() {
			log.WithField("addr", addr).WithField("api", svc.Config.APIURL).Info("Server running")
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Fatal("server stopped")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(ctx)
	},
}

// NewServer builds the Echo instance with middleware and every registered
// route module applied.
func NewServer(svc *service.Container) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Debug = svc.Config.Debug
	e.Use(middleware.RequestID())
	e.Use(html.RequestLogger(svc.Log))
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())
	e.Use(middleware.Decompress())
	api.ApplyRoutes(e, svc)
	return e
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoCron, "no-cron", false, "Do not run background jobs in this process")
	Register(serveCmd)
}
