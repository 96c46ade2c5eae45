// tradectl is a small interactive client for the trading backend, built on
// the tradekit SDK: login, signup, profile lookup, logout and password reset.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/quantfold/tradekit/apiclient"
	"github.com/quantfold/tradekit/internal/config"
	"github.com/quantfold/tradekit/internal/metrics"
	"github.com/quantfold/tradekit/internal/utils"
	"github.com/quantfold/tradekit/securestore"
	"github.com/quantfold/tradekit/securestore/sqliterepo"
	"github.com/quantfold/tradekit/session"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	repo, err := sqliterepo.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	defer repo.Close()

	store, err := securestore.Open(repo, cfg.StorePassphrase)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(prometheus.NewRegistry())
	client := apiclient.New(cfg.BaseURL, store,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithObserver(collector),
		apiclient.WithLogger(log),
	)

	manager, err := session.New(
		session.Deps{API: client, Store: store},
		session.WithLogger(log),
		session.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	ctx := context.Background()

	switch args[0] {
	case "login":
		return cmdLogin(ctx, manager, args[1:])
	case "signup":
		return cmdSignup(ctx, manager, args[1:])
	case "whoami":
		return cmdWhoami(ctx, manager)
	case "logout":
		manager.Logout(ctx)
		fmt.Println("Logged out.")
		return nil
	case "reset-request":
		return cmdResetRequest(ctx, manager, args[1:])
	case "reset-confirm":
		return cmdResetConfirm(ctx, manager, args[1:])
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	figure.NewFigure("tradectl", "cybermedium", true).Print()
	fmt.Println("Commands: login, signup, whoami, logout, reset-request, reset-confirm")
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger(), nil
}

func cmdLogin(ctx context.Context, manager *session.Manager, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("login: -email is required")
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	if !manager.Login(ctx, *email, password) {
		return fmt.Errorf("%s", manager.ErrorMessage())
	}
	fmt.Println("Logged in.")
	printProfile(manager.Snapshot())
	return nil
}

func cmdSignup(ctx context.Context, manager *session.Manager, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	fullName := fs.String("name", "", "Full name (optional)")
	currency := fs.String("currency", "", "Preferred currency (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("signup: -email is required")
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	ok := manager.Signup(ctx, apiclient.SignupRequest{
		Email:    *email,
		Password: password,
		FullName: *fullName,
		Currency: *currency,
	})
	if !ok {
		return fmt.Errorf("%s", manager.ErrorMessage())
	}
	fmt.Println("Account created.")
	return nil
}

func cmdWhoami(ctx context.Context, manager *session.Manager) error {
	if !manager.IsAuthenticated() {
		return fmt.Errorf("not logged in")
	}
	manager.LoadProfile(ctx)
	printProfile(manager.Snapshot())
	return nil
}

func cmdResetRequest(ctx context.Context, manager *session.Manager, args []string) error {
	fs := flag.NewFlagSet("reset-request", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := manager.RequestPasswordReset(ctx, *email); err != nil {
		return err
	}
	fmt.Println("Reset email sent if the account exists.")
	return nil
}

func cmdResetConfirm(ctx context.Context, manager *session.Manager, args []string) error {
	fs := flag.NewFlagSet("reset-confirm", flag.ContinueOnError)
	token := fs.String("token", "", "Reset token from the email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := promptPassword("New password: ")
	if err != nil {
		return err
	}
	if err := manager.ConfirmPasswordReset(ctx, *token, password); err != nil {
		return err
	}
	fmt.Println("Password updated.")
	return nil
}

func printProfile(snap session.Snapshot) {
	fmt.Printf("User:  %s (%s)\n", snap.Email, snap.UserID)
	if snap.Profile == nil {
		if !snap.ProfileLoaded {
			fmt.Println("Profile not loaded yet.")
		}
		return
	}
	if snap.Profile.FullName != "" {
		fmt.Printf("Name:  %s\n", snap.Profile.FullName)
	}
	fmt.Printf("Balance: %.2f\n", snap.Profile.Balance)
	if snap.Profile.IsPremium {
		fmt.Printf("Premium until %s\n", utils.Value(snap.Profile.PremiumExpiresAt).Format("2006-01-02"))
	}
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimSpace(string(raw))
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}
