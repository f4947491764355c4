package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"avocare/api/client"
	"avocare/config"
	"avocare/db"
	"avocare/services"

	"go.uber.org/zap"
)

// app - все, что нужно одной команде CLI
type app struct {
	log      *zap.SugaredLogger
	out      io.Writer
	sessions *services.SessionStore
	forum    *services.Forum
	auth     *services.AuthService
	chat     *services.Chatbot
	closers  []func() error
}

func (a *app) Close() {
	a.forum.Close()
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warnw("close failed", "error", err)
		}
	}
}

// consoleNotifier печатает алерты и приглашения войти в терминал
type consoleNotifier struct {
	out io.Writer
}

func (n consoleNotifier) Alert(title, message string) {
	fmt.Fprintf(n.out, "[%s] %s\n", title, message)
}

func (n consoleNotifier) PromptLogin(action string) {
	fmt.Fprintf(n.out, "Login required: you need to log in to %s. Run `avocare login`.\n", action)
}

func openStore(ctx context.Context, log *zap.SugaredLogger) (services.KVStore, func() error, error) {
	cfg := config.AppConfig.Store
	switch cfg.Backend {
	case "memory":
		return services.NewMemoryStore(), nil, nil
	case "file", "":
		if cfg.Passphrase == "" {
			log.Warnw("store passphrase is empty, session file is encrypted with an empty passphrase")
		}
		return services.NewSecureFileStore(cfg.Path, cfg.Passphrase), nil, nil
	case "redis":
		s, err := services.InitRedisStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "sqlite":
		s, err := db.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func newApp(ctx context.Context, log *zap.SugaredLogger, out io.Writer) (*app, error) {
	store, closeStore, err := openStore(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	sessions := services.NewSessionStore(store, log.Named("session"))
	api := client.New(client.Options{
		BaseURL:   config.AppConfig.API.BaseURL,
		Timeout:   config.AppConfig.API.Timeout,
		RateLimit: config.AppConfig.API.RateLimit,
		Tokens:    sessions,
		Logger:    log.Named("http"),
	})
	notifier := consoleNotifier{out: out}

	a := &app{
		log:      log,
		out:      out,
		sessions: sessions,
		forum:    services.NewForum(api, sessions, notifier, log.Named("forum")),
		auth:     services.NewAuthService(api, sessions, log.Named("auth")),
		chat:     services.NewChatbot(api, config.AppConfig.API.ChatTimeout, config.AppConfig.API.ChatRatePerMin, log.Named("chat")),
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	if err := sessions.Hydrate(ctx); err != nil {
		log.Warnw("failed to read stored session", "error", err)
	}
	return a, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: avocare [-config path] <command> [args]

Commands:
  login <email> <password>          log in and store the session
  logout                            clear the stored session
  register <name> <email> <password>
  resend-verification <email>
  whoami                            show the current session
  posts [-tab all|my|archived] [-category c] [-q text]
  show <post-id>                    show a post with its comments
  create -title t -content c [-category c] [-image path ...]
  edit <post-id> [-title t] [-content c] [-category c] [-keep url ...] [-image path ...] [-clear-images]
  delete|archive|unarchive <post-id>
  like <post-id>
  comment <post-id> <text> [-reply-to comment-id]
  edit-comment <post-id> <comment-id> <text>
  delete-comment <post-id> <comment-id>
  like-comment <post-id> <comment-id>
  chat <message>
  suggestions
`)
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		return 2
	}

	if err := config.LoadConfig(configPath); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		return 1
	}
	log, err := config.NewLogger(config.AppConfig.Logs.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create logger:", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, log, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer a.Close()

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		var usageErr usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintln(os.Stderr, usageErr.Error())
			usage()
			return 2
		}
		fmt.Fprintln(os.Stderr, services.UserMessage(err))
		log.Debugw("command failed", "command", flag.Arg(0), "error", err)
		return 1
	}
	return 0
}
