package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ecss/internal/api"
	"ecss/internal/eventbus"
	"ecss/internal/jobs"
	"ecss/internal/launch"
	"ecss/internal/observability/pprof"
	"ecss/internal/scheduler"
	"ecss/internal/store"

	logx "ecss/pkg/logx"
)

// App is the daemon's composition root: it loads config, wires the job
// store, trigger registry, task launcher, and cron engine together, fronts
// them with the REST surface, and owns the supervised lifecycle of all of
// it.
type App struct {
	cfgm *ConfigManager
	sup  *Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	store store.Store
	eng   *scheduler.Engine
	rest  *api.Server
	pprof *pprof.Service
}

// NewApp loads configuration (environment layer plus any YAML overlay),
// opens the job store, and wires the scheduler engine and REST server. It
// does not start anything; call Start for that.
func NewApp(ctx context.Context) (*App, error) {
	cfgm := NewConfigManager()
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: true,
		File: logx.FileConfig{
			Enabled: strings.TrimSpace(cfg.Logging.Folder) != "",
			Path:    logFilePath(cfg.Logging.Folder),
		},
	})
	log = log.With(logx.String("comp", "app"))

	bus := eventbus.New()

	st, err := store.Open(ctx, &cfg.Storage, log.With(logx.String("comp", "store")))
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}

	// A concrete SQS-backed queue-depth prober is out of scope (the
	// QueueDepthProber interface is the deliverable); triggers using it
	// simply error at evaluation time until a real prober is wired in.
	registry := jobs.NewRegistry(nil)

	// Likewise, a concrete ECS orchestrator client is out of scope; the
	// fake is the only Orchestrator this daemon ships.
	launcher := launch.New(launch.NewFakeOrchestrator(), cfg.ECSCluster,
		cfg.Launch.RatePerSec, cfg.Launch.ChunkSize, log.With(logx.String("comp", "launch")))

	eng := scheduler.New(scheduler.Options{
		Store:     st,
		Launcher:  launcher,
		Triggers:  registry,
		Log:       log.With(logx.String("comp", "scheduler")),
		StartedBy: cfg.StartedBy,
		Bus:       bus,
	})

	rest := api.New(api.Config{
		Addr: cfg.HTTP.Addr,
	}, eng, st, log.With(logx.String("comp", "api")))

	pprofSvc := pprof.New(pprof.Config{
		Enabled: cfg.Pprof.Enabled,
		Addr:    cfg.Pprof.Addr,
	}, log.With(logx.String("comp", "pprof")))

	return &App{
		cfgm:  cfgm,
		log:   log,
		logs:  logSvc,
		bus:   bus,
		store: st,
		eng:   eng,
		rest:  rest,
		pprof: pprofSvc,
	}, nil
}

func logFilePath(folder string) string {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return ""
	}
	return strings.TrimRight(folder, "/") + "/ecssd.log"
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start loads the engine's jobs from the store, begins firing, starts the
// REST listener and the optional pprof listener, and launches the
// supervised background loops (event log, config hot-reload/watch).
func (a *App) Start(ctx context.Context) error {
	a.sup = NewSupervisor(ctx, WithLogger(a.log), WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *Config) error {
		if len(cfg.Storage.SelectedBackends()) > 1 {
			return fmt.Errorf("storage: multiple backends selected; choose exactly one")
		}
		if strings.TrimSpace(cfg.ECSCluster) == "" {
			return fmt.Errorf("ecs_cluster must not be empty")
		}
		return nil
	})

	if err := a.eng.Start(a.sup.Context()); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.rest.Start()
	if a.pprof != nil && a.pprof.Enabled() {
		a.pprof.Start(a.sup.Context())
	}

	if a.bus != nil {
		events, unsub := a.bus.Subscribe(128)
		a.sup.Go0("eventbus.log", func(c context.Context) {
			defer unsub()
			for {
				select {
				case <-c.Done():
					return
				case e, ok := <-events:
					if !ok {
						return
					}
					a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time), logx.Any("data", e.Data))
				}
			}
		})
	}

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				sections, attrs := SummarizeConfigChange(lastApplied, newCfg)
				if len(sections) > 0 {
					fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
					a.log.Info("config reloaded", fields...)
				} else {
					a.log.Debug("config reload received, but no effective changes detected")
				}
				lastApplied = newCfg

				for _, s := range sections {
					if s == "storage" {
						a.log.Warn("storage config changed; restart required for changes to take effect")
					}
				}

				a.logs.Apply(logx.Config{
					Level:   newCfg.Logging.Level,
					Console: true,
					File: logx.FileConfig{
						Enabled: strings.TrimSpace(newCfg.Logging.Folder) != "",
						Path:    logFilePath(newCfg.Logging.Folder),
					},
				})

				if a.pprof != nil {
					a.pprof.Reconfigure(c, pprof.Config{
						Enabled: newCfg.Pprof.Enabled,
						Addr:    newCfg.Pprof.Addr,
					})
				}
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

// Stop shuts every component down in dependency order, bounding each step
// so a stuck component can't stall the whole process.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	a.sup.Cancel()

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", max))

		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			if dl, ok := ctx.Deadline(); ok {
				rem := time.Until(dl)
				if rem <= 0 {
					max = 0
				} else if rem < max {
					max = rem
				}
			}
			if max > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, max)
				defer cancel()
			}
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.String("err", err.Error()))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name), logx.String("err", stepCtx.Err().Error()))
		}
	}

	step("api", 2*time.Second, func(c context.Context) error { return a.rest.Stop(c) })
	step("scheduler", 3*time.Second, func(c context.Context) error { return a.eng.Stop(c) })
	step("pprof", 1*time.Second, func(c context.Context) error {
		if a.pprof != nil {
			a.pprof.Stop(c)
		}
		return nil
	})
	step("store", 1*time.Second, func(c context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}
