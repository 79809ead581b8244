package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-search/internal/matcher"
	"github.com/kozaktomas/face-search/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the identification web server",
	Long: `Start the Face Search web server.

The gallery is loaded (or built from the reference images and persisted) before
the server accepts requests. Clients POST a photo as the multipart field "image"
to /search and receive the best matching identity and its cosine distance.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default from WEB_PORT, 5000)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from WEB_HOST, 0.0.0.0)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	logger := newLogger()
	ext := newExtractor(cfg)

	m, err := matcher.New(cfg.Match.Threshold, logger.WithName("matcher"))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, backend, err := openStore(ctx, cfg, logger, ext, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	g, report, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load gallery: %w", err)
	}
	if g.IsEmpty() {
		logger.Info("WARNING: gallery is empty, API will return 'Unknown' for all requests",
			"source", report.Source, "store", report.Store)
	} else {
		logger.Info("gallery ready", "identities", g.Len(), "dim", g.Dim(), "threshold", m.Threshold())
	}

	server := web.NewServer(cfg, web.Deps{
		Store:     store,
		Extractor: ext,
		Matcher:   m,
		Logger:    logger,
	})

	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(err, "error during shutdown")
		}
	}()

	fmt.Printf("Starting Face Search on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
