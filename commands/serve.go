package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/nstehr/striker/playbook"
	"github.com/nstehr/striker/printer"
	"github.com/nstehr/striker/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const banner = `
███████╗████████╗██████╗ ██╗██╗  ██╗███████╗██████╗
██╔════╝╚══██╔══╝██╔══██╗██║██║ ██╔╝██╔════╝██╔══██╗
███████╗   ██║   ██████╔╝██║█████╔╝ █████╗  ██████╔╝
╚════██║   ██║   ██╔══██╗██║██╔═██╗ ██╔══╝  ██╔══██╗
███████║   ██║   ██║  ██║██║██║  ██╗███████╗██║  ██║
╚══════╝   ╚═╝   ╚═╝  ╚═╝╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝

Play-Driven Robot Soccer`

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine on a unix domain socket",
	Long: `Listen for simulator bridge connections and drive one team per
connection.

Each connection gets its own play scheduler built from the shared
playbook. With --watch the playbook file is reloaded on every save and
running sessions switch to the new plays on their next tick.

Examples:
  # Built-in playbook on the default socket
  striker serve

  # Custom playbook with hot reload and goalie robot 0
  striker serve --playbook plays.yaml --watch --goalie 0

  # Publish play changes to Redis
  striker serve --redis --redis-addr localhost:6379`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("socket", "", "unix socket path")
	f.StringP("playbook", "p", "", "playbook file (default is the built-in playbook)")
	f.BoolP("watch", "w", false, "reload the playbook when the file changes")
	f.Int("goalie", -1, "goalie robot id, -1 for none")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (text or json)")
	f.Bool("redis", false, "publish play changes to redis")
	f.String("redis-addr", "", "redis address")

	bind := map[string]string{
		"socket":        "socket",
		"playbook":      "playbook",
		"watch":         "watch",
		"goalie":        "goalie",
		"log.level":     "log-level",
		"log.format":    "log-format",
		"redis.enabled": "redis",
		"redis.addr":    "redis-addr",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return printer.Error(
			"Invalid configuration",
			err.Error(),
			[]string{"Check striker.yaml, STRIKER_* environment variables and flags"},
		)
	}

	fmt.Println(banner)
	slog.SetDefault(cfg.Logger(os.Stdout))
	slog.Info("starting striker", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := playbook.NewStore(cfg.Playbook)
	if _, err := store.Reload(); err != nil {
		return printer.Error(
			"Failed to load playbook",
			err.Error(),
			[]string{"Run 'striker playbook check' to see every problem in the file"},
		)
	}
	if cfg.Watch {
		go func() {
			if err := store.Watch(ctx, playbook.DefaultDebounce); err != nil {
				slog.Error("playbook watcher stopped", "error", err)
			}
		}()
	}

	srv := newServer(cfg, store)
	if cfg.Redis.Enabled {
		pub := telemetry.NewPublisher(&redis.Options{Addr: cfg.Redis.Addr}, cfg.Redis.Prefix, cfg.Redis.Buffer)
		defer pub.Close()
		if err := pub.Ping(ctx); err != nil {
			slog.Warn("redis unreachable, play changes will be dropped until it is", "addr", cfg.Redis.Addr, "error", err)
		}
		go pub.Run(ctx)
		srv.publisher = pub
	}

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(cfg.Socket); err != nil {
		return fmt.Errorf("failed to clean up socket %s: %w", cfg.Socket, err)
	}
	listener, err := net.Listen("unix", cfg.Socket)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", cfg.Socket, err)
	}
	defer os.Remove(cfg.Socket)

	slog.Info("listening on domain socket", "path", cfg.Socket)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	srv.Serve(ctx, listener)

	slog.Info("shutting down")
	return nil
}
