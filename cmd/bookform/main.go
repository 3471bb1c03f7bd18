package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	bookform "github.com/goliatone/go-bookform"
	"github.com/goliatone/go-bookform/internal/config"
	"github.com/goliatone/go-bookform/internal/logger"
	"github.com/goliatone/go-bookform/pkg/model"
	"github.com/goliatone/go-bookform/pkg/render"
	"github.com/goliatone/go-bookform/pkg/renderers/tui"
	"github.com/goliatone/go-bookform/pkg/renderers/web"
)

type cliFlags struct {
	config    string
	mode      string
	endpoint  string
	locale    string
	out       string
	addr      string
	title     string
	author    string
	text      string
	verifyPDF bool
}

func main() {
	var f cliFlags
	flag.StringVar(&f.config, "config", "", "path to YAML config file")
	flag.StringVar(&f.mode, "mode", config.ModeTUI, "front-end: tui, web or once")
	flag.StringVar(&f.endpoint, "endpoint", "", "book generation endpoint")
	flag.StringVar(&f.locale, "locale", "", "display language (en, ru)")
	flag.StringVar(&f.out, "out", "", "directory generated books are saved into")
	flag.StringVar(&f.addr, "addr", "", "listen address in web mode")
	flag.StringVar(&f.title, "title", "", "book title (once mode)")
	flag.StringVar(&f.author, "author", "", "book author (once mode)")
	flag.StringVar(&f.text, "text", "", "book text (once mode)")
	flag.BoolVar(&f.verifyPDF, "verify-pdf", false, "reject responses that are not valid PDF documents")
	flag.Parse()

	cfg, err := config.Load(f.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := bookform.New(ctx,
		bookform.WithEndpoint(cfg.Endpoint),
		bookform.WithTimeout(cfg.Timeout),
		bookform.WithUserAgent(cfg.UserAgent),
		bookform.WithLocale(cfg.Locale),
		bookform.WithOutputDir(cfg.Output.Dir),
		bookform.WithFilename(cfg.Output.Filename),
		bookform.WithS3(cfg.Output.S3),
		bookform.WithVerifyPDF(cfg.Output.VerifyPDF),
		bookform.WithSchemaValidation(cfg.Schema),
		bookform.WithLogger(log),
	)
	if err != nil {
		log.Fatal("failed to initialize", zap.Error(err))
	}

	var code int
	switch cfg.Mode {
	case config.ModeOnce:
		code = runOnce(ctx, components, model.FormState{Title: f.title, Author: f.author, Text: f.text})
	case config.ModeWeb:
		code = runWeb(ctx, cfg, components, log)
	default:
		code = runTUI(ctx, components, log)
	}
	stop()
	if code != 0 {
		_ = log.Sync()
		os.Exit(code)
	}
}

// applyFlags overlays flags the user actually set on the loaded config.
func applyFlags(cfg *config.Config, f cliFlags) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "mode":
			cfg.Mode = f.mode
		case "endpoint":
			cfg.Endpoint = f.endpoint
		case "locale":
			cfg.Locale = f.locale
		case "out":
			cfg.Output.Dir = f.out
		case "addr":
			cfg.Web.Addr = f.addr
		case "verify-pdf":
			cfg.Output.VerifyPDF = f.verifyPDF
		}
	})
}

func runOnce(ctx context.Context, components *bookform.Components, state model.FormState) int {
	components.Controller.Load(state)
	outcome, err := components.Controller.Submit(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if outcome.Failed() {
		fmt.Fprintln(os.Stderr, components.Messages.T(render.KeyErrorHeading))
		if body := render.FormatPayload(outcome.Payload); body != "" {
			fmt.Fprintln(os.Stderr, body)
		}
		return 1
	}
	fmt.Println(outcome.Message)
	return 0
}

func runTUI(ctx context.Context, components *bookform.Components, log *zap.Logger) int {
	session, err := tui.New(components.Controller,
		tui.WithSchema(components.Schema),
		tui.WithTheme(tui.Theme{ErrorPrefix: "! "}),
		tui.WithLogger(log),
	)
	if err != nil {
		log.Error("tui", zap.Error(err))
		return 1
	}
	if err := session.Run(ctx); err != nil {
		if errors.Is(err, tui.ErrAborted) || errors.Is(err, context.Canceled) {
			return 130
		}
		log.Error("tui", zap.Error(err))
		return 1
	}
	return 0
}

func runWeb(ctx context.Context, cfg *config.Config, components *bookform.Components, log *zap.Logger) int {
	if cfg.Log.Mode == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	handler, err := web.New(
		web.WithGenerator(components.Generator),
		web.WithSchema(components.Schema),
		web.WithCatalog(components.Catalog),
		web.WithLocale(cfg.Locale),
		web.WithFilename(cfg.Output.Filename),
		web.WithThemeSelector(nil, cfg.Web.Theme, cfg.Web.ThemeVariant),
		web.WithLogger(log),
	)
	if err != nil {
		log.Error("web", zap.Error(err))
		return 1
	}

	srv := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           web.NewRouter(handler, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("server error", zap.Error(err))
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
		return 1
	}
	log.Info("server exited")
	return 0
}
