package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/hostdeck/panel/backend/internal/api/handlers"
	"github.com/hostdeck/panel/backend/internal/api/middleware"
	"github.com/hostdeck/panel/backend/internal/cache"
	"github.com/hostdeck/panel/backend/internal/cerberus"
	"github.com/hostdeck/panel/backend/internal/config"
	"github.com/hostdeck/panel/backend/internal/hostexec"
	"github.com/hostdeck/panel/backend/internal/metrics"
	"github.com/hostdeck/panel/backend/internal/models"
	"github.com/hostdeck/panel/backend/internal/monitor"
	"github.com/hostdeck/panel/backend/internal/security"
	"github.com/hostdeck/panel/backend/internal/services"
)

// Deps carries the long-lived components built at startup. Nil fields are
// replaced with defaults by Register.
type Deps struct {
	Cache         *cache.Cache
	Security      *security.Manager
	System        *monitor.SystemCollector
	Resources     *monitor.ResourceMonitor
	Notifications *services.NotificationService
	Deployments   *services.DeploymentService
	// Docker is nil when the daemon is unreachable.
	Docker   handlers.ContainerLister
	Registry *prometheus.Registry
}

func (d *Deps) fill(db *gorm.DB, cfg config.Config, audit *services.AuditService) {
	if d.Cache == nil {
		d.Cache = cache.New()
	}
	if d.Notifications == nil {
		d.Notifications = services.NewNotificationService(db)
	}
	if d.Security == nil {
		d.Security = security.NewManager(
			security.WithThreshold(cfg.Security.BanThreshold),
			security.WithBanDuration(cfg.Security.BanDuration),
			security.WithHooks(SecurityHooks(d.Notifications)),
		)
	}
	if d.System == nil {
		d.System = monitor.NewSystemCollector(d.Cache, hostexec.NewExecRunner(cfg.Security.CommandTimeout))
	}
	if d.Resources == nil {
		d.Resources = monitor.NewResourceMonitor(d.Cache)
	}
	if d.Deployments == nil {
		d.Deployments = services.NewDeploymentService(db, audit, services.WithNotifier(d.Notifications))
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
		metrics.Register(d.Registry)
	}
}

// SecurityHooks counts ban changes and raises a notification for every ban.
func SecurityHooks(notifications *services.NotificationService) security.Hooks {
	return security.Hooks{
		OnBan: func(rec security.BanRecord, automatic bool) {
			metrics.IncBan(automatic)
			if notifications == nil {
				return
			}
			title := "IP banned"
			if automatic {
				title = "IP banned automatically"
			}
			notifications.Notify(models.EventSecurity, models.NotificationTypeWarning, title,
				fmt.Sprintf("%s was banned: %s", rec.IP, rec.Reason))
		},
		OnUnban: func(string) {
			metrics.IncUnban()
		},
	}
}

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config, deps Deps) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	// Ban and whitelist decisions key on ClientIP, so forwarding headers are
	// only honoured from configured proxies.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	audit := services.NewAuditService(db)
	deps.fill(db, cfg, audit)

	router.GET("/api/v1/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")

	whitelistService := services.NewWhitelistService(db)
	cerb := cerberus.New(cfg.Security, deps.Security, whitelistService)
	api.Use(cerb.Middleware())

	authService := services.NewAuthService(db, cfg)
	authHandler := handlers.NewAuthHandler(authService, deps.Security, cfg.Environment == "production")
	authHandler.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(
		middleware.ResourceTracking(deps.Resources),
		middleware.AuthMiddleware(authService),
	)

	admin := protected.Group("")
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	authHandler.RegisterRoutes(protected)
	handlers.NewUserHandler(authService).RegisterRoutes(admin)

	handlers.NewMonitorHandler(deps.System, deps.Docker, audit).RegisterRoutes(protected, admin)
	handlers.NewPerformanceHandler(deps.Resources, deps.Cache, audit).RegisterRoutes(protected, admin)
	handlers.NewSecurityHandler(deps.Security, audit).RegisterRoutes(admin)

	handlers.NewWebsiteHandler(services.NewWebsiteService(db, deps.Cache), audit).RegisterRoutes(protected, admin)
	handlers.NewDatabaseHandler(services.NewDatabaseService(db, deps.Cache), audit).RegisterRoutes(protected, admin)
	handlers.NewFirewallHandler(services.NewFirewallService(db), audit).RegisterRoutes(protected, admin)
	handlers.NewWhitelistHandler(whitelistService, audit).RegisterRoutes(protected, admin)
	handlers.NewLogsHandler(audit).RegisterRoutes(protected)
	handlers.NewFileHandler(services.NewFileService(db, cfg.FilesRoot), audit).RegisterRoutes(protected, admin)
	handlers.NewDeploymentHandler(deps.Deployments, audit).RegisterRoutes(protected, admin)

	handlers.NewNotificationHandler(deps.Notifications).RegisterRoutes(protected)
	handlers.NewNotificationProviderHandler(deps.Notifications, audit).RegisterRoutes(admin)

	return nil
}
