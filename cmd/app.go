package cmd

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"shophub/config"
	"shophub/core/cache"
	"shophub/service"
)

// bootstrap loads configuration and wires the service container: the
// outbox database, Redis for the query cache when reachable, and the logger.
func bootstrap() (*service.Container, *logrus.Logger, error) {
	cfg := config.LoadAppConfig()
	log := config.NewLogger()

	db, err := config.NewDB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "open database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "database handle")
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, nil, errors.Wrap(err, "database connection failed")
	}
	log.Info("Database connection successful.")

	opts := service.Options{DB: db}
	if config.InitRedis() {
		opts.Store = cache.NewRedisStore(config.RedisClient, "shophub:", log.WithField("component", "cache"))
		log.Info("Redis connection successful, query cache shared.")
	} else {
		log.Info("Redis not configured or not reachable, using in-process query cache.")
	}

	svc, err := service.New(cfg, log, opts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "wire services")
	}
	return svc, log, nil
}
