package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-airtable-forms/internal/config"
	"github.com/jrsteele09/go-airtable-forms/internal/logging"
	"github.com/jrsteele09/go-airtable-forms/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "airtable-forms",
		Short:        "Airtable Forms backend",
		Long:         `Connects Airtable accounts over OAuth, stores the forms users build and forwards public submissions to Airtable.`,
		SilenceUsage: true,
		RunE:         serve,
	}
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			RunE:  serve,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the postgres tables and indexes, then exit",
			RunE:  migrate,
		},
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, func() error, error) {
	c := config.New()
	_, closeLog := logging.Setup(c)
	if err := c.Validate(); err != nil {
		return nil, closeLog, err
	}
	return c, closeLog, nil
}

func serve(cmd *cobra.Command, _ []string) error {
	c, closeLog, err := loadConfig()
	defer func() { _ = closeLog() }()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}
	displayAppname(c.GetAppName())
	return run(cmd.Context(), c)
}

func migrate(cmd *cobra.Command, _ []string) error {
	c, closeLog, err := loadConfig()
	defer func() { _ = closeLog() }()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}
	if c.GetDatabaseURL() == "" {
		return errors.New("DATABASE_URL is required to migrate")
	}

	a, err := newApp(cmd.Context(), c)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	log.Info().Msg("database schema is up to date")
	return nil
}

func run(ctx context.Context, c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	a, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	handler, err := server.New(c, a.services)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	returnError = shutdown(httpServer)
	log.Info().Msg("server stopped")
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
