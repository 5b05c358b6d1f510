package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deptdocs/revisor/internal/api"
	"github.com/deptdocs/revisor/internal/config"
	"github.com/deptdocs/revisor/internal/db"
	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/metrics"
	"github.com/deptdocs/revisor/internal/models"
	"github.com/deptdocs/revisor/internal/schedule"
	"github.com/deptdocs/revisor/internal/service"
	"github.com/deptdocs/revisor/internal/ws"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	gin.SetMode(gin.ReleaseMode)

	log.WithFields(logrus.Fields{
		"version":  config.Version,
		"backend":  cfg.StoreBackend,
		"dispatch": cfg.DispatchMode,
	}).Info("starting revisor")

	hub := ws.NewHub(log)

	st, err := openStores(ctx, cfg, log, hub)
	if err != nil {
		return err
	}
	defer st.Close()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	if st.pool != nil {
		prometheus.MustRegister(metrics.NewPoolCollector(st.pool))

		bridge := db.NewNotifyBridge(log, st.pool, hub)
		if err := bridge.Start(ctx); err != nil {
			return fmt.Errorf("starting notify bridge: %w", err)
		}
	}

	policy := service.DepartmentPolicy{}
	users := service.NewUserService(st.users, log)
	directory := service.NewCachedDirectory(st.users, cfg.DirectoryCacheSize, cfg.DirectoryCacheTTL)
	auditSvc := service.NewAuditService(st.audit, policy, log)
	notifySvc := service.NewNotificationService(st.notifications, log)

	if key := cfg.BootstrapAdminKey.Value(); key != "" {
		if err := bootstrapAdmin(ctx, users, key, log); err != nil {
			return err
		}
	}

	var dispatcher domain.Dispatcher = service.NewEventDispatcher(auditSvc, notifySvc, directory, cfg.PublicPathPrefix, log)

	// The worker outlives ctx so requests still in flight during shutdown
	// can enqueue; stopWorker runs after srv.Shutdown.
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()

	if cfg.DispatchMode == config.DispatchAsync {
		worker := service.NewDispatchWorker(dispatcher, log, cfg.DispatchQueueSize)
		dispatcher = worker

		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(workerCtx)
		}()
	}

	scheduler := schedule.NewCronScheduler(log)
	jobs := []schedule.Job{
		&service.AuditRetentionJob{Audit: auditSvc, Days: cfg.AuditRetentionDays},
		&service.NotificationRetentionJob{Notifications: notifySvc, Days: cfg.NotificationRetentionDays},
	}

	for _, job := range jobs {
		if err := scheduler.AddJob(job, cfg.RetentionSchedule); err != nil {
			return err
		}
	}

	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:           log,
		Pool:          st.pool,
		Hub:           hub,
		Content:       service.NewContentService(st.content, policy, log),
		Lifecycle:     service.NewLifecycleManager(st.content, st.versions, dispatcher, policy, log),
		Comparison:    service.NewComparisonService(st.content, st.versions, directory, policy, log),
		Audit:         auditSvc,
		Notifications: notifySvc,
		UserLookup:    users,
		KeyValidator:  users,
		CORSOrigins:   cfg.CORSOrigins,
		Version:       config.Version,
		Backend:       cfg.StoreBackend,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.WithField("addr", srv.Addr).Info("listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	hub.Shutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown failed")
	}

	stopWorker()

	// Hub drains once ctx is cancelled, the dispatch worker after stopWorker.
	wg.Wait()

	return nil
}

// bootstrapAdmin seeds an admin for the memory backend so the API is usable
// without a database.
func bootstrapAdmin(ctx context.Context, users *service.UserService, key string, log *logrus.Logger) error {
	admin, err := users.CreateUserWithKey(ctx, models.CreateUserRequest{
		Username:     "admin",
		DisplayName:  "Administrator",
		DepartmentID: "admin",
		Role:         models.RoleAdmin,
	}, key)
	if err != nil {
		return fmt.Errorf("bootstrapping admin: %w", err)
	}

	log.WithField("user_id", admin.ID).Info("bootstrap admin created")

	return nil
}
