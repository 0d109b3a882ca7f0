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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/savendebyc-boop/sgo-telma/auth"
	"github.com/savendebyc-boop/sgo-telma/gateway"
	"github.com/savendebyc-boop/sgo-telma/identity"
	"github.com/savendebyc-boop/sgo-telma/internal/config"
	"github.com/savendebyc-boop/sgo-telma/school"
	"github.com/savendebyc-boop/sgo-telma/server"
	"github.com/savendebyc-boop/sgo-telma/server/authflowrepo"
	"github.com/savendebyc-boop/sgo-telma/server/loginsession"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler, err := buildServer(ctx, c)
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
	return shutdown(httpServer)
}

// buildServer wires the stores, the upstream clients and the services. The
// store sweepers stop when ctx is cancelled.
func buildServer(ctx context.Context, c config.Config) (*server.Server, error) {
	sessions := loginsession.NewInMemoryLoginSessionRepo(
		loginsession.WithMaxAge(c.GetMaxSessionAge()),
		loginsession.WithIdleTimeout(c.GetSessionIdleTimeout()),
	)
	authFlows := authflowrepo.NewInMemoryRepo(authflowrepo.WithMaxAge(c.GetAuthStateTimeout()))
	go sessions.Run(ctx, c.GetSessionSweepInterval())
	go authFlows.Run(ctx, c.GetSessionSweepInterval())

	upstreamClient := &http.Client{Timeout: c.GetUpstreamTimeout()}
	schoolClient := school.NewClient(
		school.NewRegions(c.GetSchoolDefaultURL(), c.GetSchoolRegions()),
		school.WithHTTPClient(upstreamClient),
	)
	identityClient, err := identity.NewClient(identity.SettingsFromConfig(c), identity.WithHTTPClient(upstreamClient))
	if err != nil {
		return nil, fmt.Errorf("identity.NewClient: %w", err)
	}

	repos := auth.Repos{Sessions: sessions, AuthFlows: authFlows}
	authService, err := auth.NewAuthorizationService(repos, schoolClient, identityClient,
		auth.WithStateMaxAge(c.GetAuthStateTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("auth.NewAuthorizationService: %w", err)
	}

	return server.New(c, repos, authService, gateway.NewService(schoolClient))
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	log.Logger = log.With().Str("app", c.GetAppName()).Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
