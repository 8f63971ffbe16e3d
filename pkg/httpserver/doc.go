// Package httpserver runs an http.Handler with configured timeouts and
// graceful shutdown.
//
// Run blocks until its context is cancelled or Shutdown is called. Shutdown
// drains in-flight requests and then runs the hooks registered with
// WithShutdownHook, which is where background work such as pending emails is
// flushed and pools are closed. HealthCheckHandler serves liveness and
// readiness checks.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg,
//	    httpserver.WithLogger(log),
//	    httpserver.WithShutdownHook("mail", func(context.Context) error { svc.Wait(); return nil }),
//	)
//	err := srv.Run(ctx, router)
package httpserver
