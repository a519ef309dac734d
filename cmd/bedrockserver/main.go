package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/bedrockcore/server/internal/adminconsole"
	"github.com/bedrockcore/server/internal/command"
	"github.com/bedrockcore/server/internal/config"
	"github.com/bedrockcore/server/internal/db"
	"github.com/bedrockcore/server/internal/dispatcher"
	"github.com/bedrockcore/server/internal/mobai"
	"github.com/bedrockcore/server/internal/plugin"
	"github.com/bedrockcore/server/internal/ratelimit"
	"github.com/bedrockcore/server/internal/replication"
	"github.com/bedrockcore/server/internal/session"
	"github.com/bedrockcore/server/internal/tick"
	"github.com/bedrockcore/server/internal/transport"
	"github.com/bedrockcore/server/internal/worldstore"
)

// ConfigPath is the default location of the server's YAML config
// document, overridable with the BEDROCKSERVER_CONFIG environment
// variable (mirrors the teacher's LA2GO_*_CONFIG override).
const ConfigPath = "config/server.yaml"

// defaultSpawn is where a freshly generated world with no saved player
// state places a session; config.WorldConfig carries no spawn fields
// of its own (world name/seed/generator/auto-save only), so this is
// hardcoded rather than configurable.
const (
	defaultSpawnX = 0.0
	defaultSpawnY = 64.0
	defaultSpawnZ = 0.0
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cancel); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc) error {
	cfgPath := ConfigPath
	if p := os.Getenv("BEDROCKSERVER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.Server.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	slog.Info("bedrockserver starting", "log_level", cfg.Server.LogLevel, "world", cfg.World.Name)

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// worldstore.FlatGenerator is the only concrete Generator this
	// codebase implements (spec.md §1 puts real terrain generation out
	// of scope); cfg.World.Generator is not consulted, so every world
	// uses FlatGenerator whatever that setting says.
	world := worldstore.NewWorld(worldstore.NewMemoryChunkStore(), worldstore.FlatGenerator{})
	world.DoDaylightCycle = cfg.World.DoDaylightCycle
	world.DoWeatherCycle = cfg.World.DoWeatherCycle

	sessions := session.NewManager()
	dispatch := dispatcher.New()

	var limiter ratelimit.Limiter
	if cfg.Redis.Address != "" {
		limiter = ratelimit.NewRedisLimiter(newRedisClient(cfg.Redis), ratelimit.DefaultIntervals)
	} else {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.DefaultIntervals)
	}

	commands := command.NewRegistry()
	command.RegisterDefaults(commands)

	bridge := plugin.NewBridge()
	sched := plugin.NewScheduler()

	s := &server{
		cfgWorld: worldConfig{
			viewDistanceCap:  int32(cfg.Server.ViewDistanceCap),
			doDaylightCycle:  cfg.World.DoDaylightCycle,
			doWeatherCycle:   cfg.World.DoWeatherCycle,
			regenTickCadence: 80,
			spawnX:           defaultSpawnX,
			spawnY:           defaultSpawnY,
			spawnZ:           defaultSpawnZ,
		},
		db:           database,
		world:        world,
		sessions:     sessions,
		dispatch:     dispatch,
		limiter:      limiter,
		commands:     commands,
		bridge:       bridge,
		sched:        sched,
		conns:        make(map[string]*transport.Connection),
		trackers:     make(map[uint64]*replication.Tracker),
		chunkCenters: make(map[uint64][2]int32),
		mobAI:        make(map[uint64]*mobai.State),
		inbound:      make(chan transport.Event, 1024),
		saveCounter:  tick.SaveCounter{Interval: int64(cfg.World.AutoSaveIntervalSec) * 20},
		encode:       defaultEncode,
		decode:       defaultDecode,
		shutdown:     cancel,
	}
	registerHandlers(s, dispatch)

	s.console = adminconsole.New(func(line string) string {
		return s.runConsoleCommand(ctx, line)
	})

	loop := tick.NewLoop(s.buildPhases())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting tick loop", "period", tick.Period)
		if err := loop.Run(gctx); err != nil {
			return fmt.Errorf("tick loop: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		addr := net.JoinHostPort(cfg.Server.BindAddress, strconv.Itoa(cfg.Server.Port))
		slog.Info("starting connection listener", "addr", addr)
		if err := s.runListener(gctx, addr); err != nil {
			return fmt.Errorf("connection listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		consoleAddr := net.JoinHostPort(cfg.Server.BindAddress, strconv.Itoa(cfg.Server.Port+1))
		slog.Info("starting admin console", "addr", consoleAddr)
		if err := s.runAdminConsole(gctx, consoleAddr); err != nil {
			return fmt.Errorf("admin console: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// runConsoleCommand dispatches one admin-console-submitted line as an
// operator command, wired the same "stop" shutdown as an in-game
// operator issuing /stop (handleCommandRequest in handlers.go), since
// command.go's own handleStop has no side effect of its own.
func (s *server) runConsoleCommand(ctx context.Context, line string) string {
	svc := &command.Services{
		Sessions:  s.sessions,
		World:     s.world,
		Ops:       s.db.Ops(),
		Bans:      s.db.Bans(),
		Whitelist: s.db.Whitelist(),
	}
	issuer := command.Issuer{DisplayName: "console", XUID: "console", IsOperator: true}
	result, err := s.commands.Dispatch(ctx, svc, issuer, line)
	if err != nil {
		return err.Error()
	}
	if result.Success && strings.HasPrefix(strings.TrimSpace(line), "stop") {
		s.shutdown()
	}
	return strings.Join(result.Messages, "\n")
}

// runListener accepts raw TCP connections and hands each to
// transport.Accept, queuing its lifecycle/data events onto s.inbound
// for DrainTransport to pick up on the tick thread. The RakNet framing
// itself is assumed already terminated below this (transport package
// doc comment); this only stands in for whatever upstream proxy or
// shim does that termination.
func (s *server) runListener(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var guidCounter uint64
	var guidMu sync.Mutex

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("accepting connection: %w", err)
			}
		}
		guidMu.Lock()
		guidCounter++
		guid := guidCounter
		guidMu.Unlock()

		c, err := transport.Accept(ctx, conn, guid)
		if err != nil {
			slog.Warn("accepting transport connection", "remote", conn.RemoteAddr(), "err", err)
			conn.Close()
			continue
		}

		s.connMu.Lock()
		s.conns[conn.RemoteAddr().String()] = c
		s.connMu.Unlock()

		go s.pumpConnectionEvents(ctx, c)
	}
}

// pumpConnectionEvents forwards one connection's lifecycle/data events
// into the shared inbound channel DrainTransport drains every tick,
// keeping the accept goroutine itself off the tick thread.
func (s *server) pumpConnectionEvents(ctx context.Context, c *transport.Connection) {
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				return
			}
			select {
			case s.inbound <- ev:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// runAdminConsole mounts the websocket admin console on its own HTTP
// server and shuts it down when ctx is cancelled.
func (s *server) runAdminConsole(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/console", s.console)
	httpServer := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// newRedisClient builds the shared go-redis client RedisLimiter uses
// when cfg.Redis.Address is set, so rate limiting is enforced across
// every process sharing that Redis instance instead of per-process.
func newRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// parseLogLevel converts a config log-level string to slog.Level,
// defaulting to info for anything unrecognized.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
