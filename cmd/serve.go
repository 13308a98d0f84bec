package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/genreshelf/genreshelf/internal/models"
	"github.com/genreshelf/genreshelf/internal/repositories"
	"github.com/genreshelf/genreshelf/internal/server"
	"github.com/genreshelf/genreshelf/internal/services"
	"github.com/genreshelf/genreshelf/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Serve runs the JSON API. Each request carries its own bearer token,
// so the handler builds a fresh Spotify client per request instead of
// sharing the CLI's authenticated service.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warnf("no config at %s, using defaults: %v", configPath, err)
		config = shared.DefaultConfig()
	}
	r.config = config

	if port := int(cmd.Int("port")); port > 0 {
		config.Server.Port = port
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	sessions := repositories.NewSessionRepository(db)

	credentials := config.Credentials.Spotify.Map()
	factory := func(accessToken string) (services.Library, services.Catalog, error) {
		srv, err := services.NewSpotifyService(credentials)
		if err != nil {
			return nil, nil, err
		}
		token := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
		if err := srv.AuthenticateToken(context.Background(), token); err != nil {
			return nil, nil, err
		}
		return srv, srv, nil
	}

	router := server.NewBasicRouter()
	router.Use(
		server.RecoveryMiddleware(r.logger),
		server.LoggingMiddleware(r.logger),
		server.CORSMiddleware(config.API.CORSOrigin),
	)

	handler := server.NewAPIHandler(r.logger, factory, config.API.TopGenres)
	handler.Register(router)

	if oauthSrv, err := services.NewSpotifyService(credentials); err == nil {
		registerAuthRoutes(router, oauthSrv, sessions, r.logger)
	} else {
		r.logger.Warnf("auth routes disabled: %v", err)
	}

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	r.logger.Infof("serving genre shelf API on http://%s", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}

// registerAuthRoutes exposes a browser OAuth flow on the API server.
// State is persisted per login attempt so concurrent flows don't race.
func registerAuthRoutes(router *server.BasicRouter, oauthSrv services.OAuthService, sessions *repositories.SessionRepository, logger *log.Logger) {
	router.Handle(http.MethodGet, "/auth/login", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		state, err := shared.GenerateState()
		if err != nil {
			http.Error(w, "failed to generate state", http.StatusInternalServerError)
			return
		}

		if err := sessions.Create(&models.Session{State: state}); err != nil {
			logger.Errorf("failed to persist login session: %v", err)
			http.Error(w, "failed to start login", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, req, oauthSrv.GetAuthURL(state), http.StatusFound)
	}))

	router.Handle(http.MethodGet, "/auth/callback", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		state := req.URL.Query().Get("state")
		code := req.URL.Query().Get("code")
		if state == "" || code == "" {
			http.Error(w, "missing state or code", http.StatusBadRequest)
			return
		}

		if _, err := sessions.GetByState(state); err != nil {
			http.Error(w, "unknown login session", http.StatusBadRequest)
			return
		}

		token, err := oauthSrv.Exchange(req.Context(), code)
		if err != nil {
			logger.Errorf("token exchange failed: %v", err)
			http.Error(w, "token exchange failed", http.StatusBadGateway)
			return
		}

		if err := sessions.UpdateToken(state, token); err != nil {
			logger.Errorf("failed to store session token: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token": %q, "expires_at": %q}`, token.AccessToken, token.Expiry.Format(time.RFC3339))
	}))
}
