package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	dashboardpkg "github.com/goliatone/go-dashboard-builder/pkg/dashboard"
)

type serveCmd struct {
	Addr     string `help:"Listen address (overrides http.addr)."`
	Router   string `help:"HTTP stack: chi (net/http) or fiber (go-router)."`
	BasePath string `name:"base-path" help:"Mount path prefix."`
	Inbox    string `type:"path" help:"Directory watched for files to import."`
}

func (cmd *serveCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	cfg := s.Config
	addr := firstNonEmpty(cmd.Addr, cfg.HTTP.Addr, ":8080")
	stack := strings.ToLower(firstNonEmpty(cmd.Router, cfg.HTTP.Router, "chi"))
	base := firstNonEmpty(cmd.BasePath, cfg.HTTP.BasePath)

	if dir := firstNonEmpty(cmd.Inbox, cfg.Inbox.Dir); dir != "" {
		watcher, err := s.Inbox(dir)
		if err != nil {
			return err
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				s.Logger.Error("inbox stopped", "error", err)
			}
		}()
	}

	if stack != "chi" && stack != "fiber" {
		return fmt.Errorf("dashctl: unknown router %q (chi or fiber)", stack)
	}
	s.Logger.Info("dashboard server starting", "addr", addr, "router", stack, "base_path", base)
	if stack == "fiber" {
		return serveFiber(ctx, s.App, addr, base)
	}
	return serveChi(ctx, s.App, addr, base)
}

func serveChi(ctx context.Context, app *dashboardpkg.App, addr, base string) error {
	var handler http.Handler = app.HTTPHandler()
	if base != "" && base != "/" {
		r := chi.NewRouter()
		r.Mount(base, handler)
		handler = r
	}
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func serveFiber(ctx context.Context, app *dashboardpkg.App, addr, base string) error {
	server := router.NewFiberAdapter()
	if err := dashboardpkg.RegisterRoutes[*fiber.App](app, server.Router(), firstNonEmpty(base, "/dashboard")); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
