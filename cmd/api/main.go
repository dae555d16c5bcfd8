package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hostdeck/panel/backend/internal/api/handlers"
	"github.com/hostdeck/panel/backend/internal/api/routes"
	"github.com/hostdeck/panel/backend/internal/cache"
	"github.com/hostdeck/panel/backend/internal/config"
	"github.com/hostdeck/panel/backend/internal/database"
	"github.com/hostdeck/panel/backend/internal/hostexec"
	"github.com/hostdeck/panel/backend/internal/logger"
	"github.com/hostdeck/panel/backend/internal/monitor"
	"github.com/hostdeck/panel/backend/internal/scheduler"
	"github.com/hostdeck/panel/backend/internal/security"
	"github.com/hostdeck/panel/backend/internal/server"
	"github.com/hostdeck/panel/backend/internal/services"
	"github.com/hostdeck/panel/backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log().WithError(err).Fatal("load config")
	}

	// Log to both stdout and a rotated file
	rotator, logPath := logger.RotatingWriter("hostdeck.log", cfg.LogDir, "data/logs")
	logger.Init(cfg.Debug, io.MultiWriter(os.Stdout, rotator))
	log := logger.Log()
	log.WithField("log_file", logPath).Infof("starting %s", version.Full())
	if cfg.JWTSecretGenerated {
		log.Warn("HOSTDECK_JWT_SECRET is not set; using a random secret, sessions will not survive a restart")
	}

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}

	runner := hostexec.NewExecRunner(cfg.Security.CommandTimeout)
	store := cache.New()
	notifications := services.NewNotificationService(db)
	deployments := services.NewDeploymentService(db, services.NewAuditService(db), services.WithNotifier(notifications))

	var firewall security.Firewall = security.NoopFirewall{}
	if cfg.Security.FirewallEnforce {
		firewall = security.NewIPTablesFirewall(runner)
	}
	manager := security.NewManager(
		security.WithRunner(runner),
		security.WithFirewall(firewall),
		security.WithThreshold(cfg.Security.BanThreshold),
		security.WithBanDuration(cfg.Security.BanDuration),
		security.WithHooks(routes.SecurityHooks(notifications)),
	)

	deps := routes.Deps{
		Cache:         store,
		Security:      manager,
		System:        monitor.NewSystemCollector(store, runner),
		Resources:     monitor.NewResourceMonitor(store),
		Notifications: notifications,
		Deployments:   deployments,
	}

	var docker handlers.ContainerLister
	if ds, err := monitor.NewDockerService(); err != nil {
		log.WithError(err).Warn("docker unavailable, container listing disabled")
	} else {
		docker = ds
	}
	deps.Docker = docker

	srv, err := server.New(db, cfg, deps)
	if err != nil {
		log.WithError(err).Fatal("build server")
	}

	sched, err := scheduler.New(store, manager, cfg.Security.CacheSweepInterval, cfg.Security.BanSweepInterval)
	if err != nil {
		log.WithError(err).Fatal("build scheduler")
	}
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Error("server error")
	}
	deployments.Wait()
	manager.Wait()
	notifications.Wait()
	log.Info("shutdown complete")
}
