package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/term"

	"unhidden/config"
	"unhidden/handler"
	"unhidden/logger"
	"unhidden/service"
	"unhidden/store"
)

type rootOptions struct {
	EnvFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "unhidden",
		Short:        "Unhidden blog server",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newCreateAdminCommand(opts))
	return cmd
}

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the blog HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.EnvFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Address = addr
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address, overrides ADDRESS_LISTEN")
	return cmd
}

func serve(cfg *config.Config) error {
	log, err := logger.New(cfg.IsDev(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	log.Info("running database schema migrations")
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	h := &handler.Handler{
		Posts:              service.NewPostService(store.NewPostStore(db)),
		Auth:               service.NewAuthService(store.NewUserStore(db), store.NewSessionStore(db), cfg.SessionTTL),
		Log:                log,
		SessionSecret:      cfg.SessionSecret,
		EnableRegistration: cfg.EnableRegistration,
		SecureCookie:       !cfg.IsDev(),
	}
	e, err := handler.NewServer(h, cfg.BodyLimit)
	if err != nil {
		return err
	}

	if cfg.Address != "" {
		log.Info("listening", zap.String("addr", cfg.Address), zap.String("env", cfg.Env))
		err = e.Start(cfg.Address)
	} else {
		// Cache certificates to avoid issues with rate limits (https://letsencrypt.org/docs/rate-limits)
		e.AutoTLSManager.Cache = autocert.DirCache(cfg.CertCacheDir)
		if cfg.WhitelistHost != "" {
			e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(cfg.WhitelistHost)
		}
		e.Pre(middleware.HTTPSRedirect())
		log.Info("listening with automatic TLS", zap.String("addr", ":443"))
		err = e.StartAutoTLS(":443")
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server stopped", zap.Error(err))
	}
	return nil
}

func newCreateAdminCommand(rootOpts *rootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "create-admin <username>",
		Short: "Create an admin account without opening registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.EnvFile)
			if err != nil {
				return err
			}
			if password == "" {
				password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			db, err := store.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			auth := service.NewAuthService(store.NewUserStore(db), store.NewSessionStore(db), cfg.SessionTTL)
			user, err := auth.Register(context.Background(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password, prompted for when empty")
	return cmd
}

// readPassword prompts without echo on a terminal and reads a plain line otherwise.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
