package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/matchmate/internal/backend"
	"github.com/spigell/matchmate/internal/logger"
	"github.com/spigell/matchmate/internal/notify"
	"github.com/spigell/matchmate/internal/session"
)

// runtime is what every command works with.
type runtime struct {
	ctx     context.Context
	config  *Config
	logger  *zap.Logger
	api     *backend.Client
	session *session.Service
	notify  *notify.Notifier
	// out is the running command's writer.
	out io.Writer

	closers []func() error
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	api := backend.New(ctx, log, "")
	api.APIURL = config.APIURL
	if config.UserAgent != "" {
		api.UserAgent = config.UserAgent
	}
	if config.Timeout > 0 {
		api.HTTPClient.Timeout = config.Timeout
	}

	store, closer, err := newSessionStore(config.Session)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		ctx:     ctx,
		config:  config,
		logger:  log,
		api:     api,
		session: session.NewService(store, log),
		notify:  notify.New(cmd.OutOrStdout(), log),
		out:     cmd.OutOrStdout(),
	}
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}

	// The gateway always carries the token of the current session.
	rt.session.Subscribe(func(s session.Session) {
		api.SetToken(s.Token)
	})

	if err := rt.session.Init(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	log.Debug("runtime ready",
		zap.String("version", version),
		zap.String("api_url", config.APIURL),
		zap.String("session_backend", config.Session.Backend),
		zap.Bool("logged_in", rt.session.Current().LoggedIn()),
	)

	return rt, nil
}

func newSessionStore(cfg *SessionConfig) (session.Store, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		path := cfg.File
		if path == "" {
			var err error
			if path, err = session.DefaultPath(app); err != nil {
				return nil, nil, fmt.Errorf("locate session file: %w", err)
			}
		}
		return &session.FileStore{Path: path}, nil, nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.Addr == "" {
			return nil, nil, fmt.Errorf("session.redis.addr is required for the redis session backend")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return session.NewRedisStore(client, cfg.Redis.Prefix), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session backend: %s", cfg.Backend)
	}
}

// fail shows err to the user and returns an error that is not reported again.
func (rt *runtime) fail(err error, fallback string) error {
	rt.notify.Error(err, fallback)
	return fmt.Errorf("%w: %w", errNotified, err)
}

// requireSession returns the signed-in user or tells the user to log in.
func (rt *runtime) requireSession() (session.Session, error) {
	current, err := rt.session.Require()
	if err != nil {
		return session.Session{}, rt.fail(err, err.Error())
	}
	return current, nil
}

func (rt *runtime) Close() {
	for _, closer := range rt.closers {
		if err := closer(); err != nil {
			rt.logger.Debug("closing runtime", zap.Error(err))
		}
	}
	_ = rt.logger.Sync()
}

// withRuntime adapts a command body to cobra, owning the runtime lifecycle.
func withRuntime(run func(rt *runtime, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		return run(rt, cmd, args)
	}
}
