package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hwbot/internal/config"
	"hwbot/internal/homework"
	"hwbot/internal/poller"
	"hwbot/internal/runtime/supervisor"
	"hwbot/internal/schedule"
	"hwbot/internal/storage"
	kit "hwbot/internal/transport"
	telegram "hwbot/internal/transport/telegram/adapter"
	logx "hwbot/pkg/logx"
	"hwbot/pkg/systemd"
)

type App struct {
	cfgm *config.ConfigManager
	sec  config.Secrets
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	store   storage.Store
	adapter *telegram.Adapter
	client  *homework.Client
	poller  *poller.Poller
	sd      *systemd.Notifier
}

type Option func(*options)

type options struct {
	notifier   *systemd.Notifier
	pollerOpts []poller.Option
}

// WithNotifier replaces the sd_notify client.
func WithNotifier(n *systemd.Notifier) Option { return func(o *options) { o.notifier = n } }

// WithPollerOptions passes extra options to the poller (clock, hooks).
func WithPollerOptions(opts ...poller.Option) Option {
	return func(o *options) { o.pollerOpts = append(o.pollerOpts, opts...) }
}

// New builds every component from the config file at cfgPath (empty means
// defaults) and the environment secrets. Nothing touches the network yet.
func New(cfgPath string, sec config.Secrets, opts ...Option) (*App, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.notifier == nil {
		o.notifier = systemd.NewNotifier()
	}

	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	tgTimeout, err := config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:   sec.TelegramToken,
		APIURL:  cfg.Telegram.APIURL,
		Timeout: tgTimeout,
	}, logx.Nop())
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg), ad)
	ad.SetLogger(log.With(logx.String("comp", "telegram")))
	a := &App{
		cfgm:    cfgm,
		sec:     sec,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		adapter: ad,
		sd:      o.notifier,
	}
	fail := func(err error) (*App, error) {
		a.close()
		return nil, err
	}

	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return fail(err)
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return fail(err)
		}
		a.store = st
		a.log.Info("delivery audit enabled", logx.String("driver", sc.Driver))
	}

	apiTimeout, err := config.ParseDurationOrDefault("practicum.timeout", cfg.Practicum.Timeout, 30*time.Second)
	if err != nil {
		return fail(err)
	}
	client, err := homework.NewClient(homework.Config{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    sec.PracticumToken,
		Timeout:  apiTimeout,
	}, log.With(logx.String("comp", "practicum")))
	if err != nil {
		return fail(err)
	}
	a.client = client

	spec, err := schedule.Parse(cfg.Poll.Period)
	if err != nil {
		return fail(fmt.Errorf("poll.period: %w", err))
	}
	popts := []poller.Option{poller.WithCycleHook(a.onCycle)}
	if a.store != nil {
		popts = append(popts, poller.WithAuditor(a.store))
	}
	popts = append(popts, o.pollerOpts...)
	a.poller = poller.New(poller.Config{
		Target:   kit.ChatTarget{ChatID: sec.ChatID, ThreadID: cfg.Telegram.ThreadID},
		Schedule: spec,
	}, client, ad, log.With(logx.String("comp", "poller")), popts...)

	return a, nil
}

func (a *App) Poller() *poller.Poller { return a.poller }

// Done is closed when the app context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))

	a.sup.Go("poller", a.poller.Run)

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
				a.applyConfig(lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	if ok, err := a.sd.Ready(); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified", logx.String("state", "ready"))
	}
	a.log.Info("app started",
		logx.Int64("chat_id", a.sec.ChatID),
		logx.String("period", a.poller.Schedule().String()),
	)
	return nil
}

// applyConfig applies the hot-reloadable parts of a new config: logging and
// the poll period. Other sections are only reported.
func (a *App) applyConfig(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}

	a.logs.Apply(mapLogConfig(newCfg))

	if oldCfg == nil || oldCfg.Poll != newCfg.Poll {
		spec, err := schedule.Parse(newCfg.Poll.Period)
		if err != nil {
			a.log.Warn("invalid poll.period; keeping previous", logx.Err(err))
		} else {
			a.poller.SetSchedule(spec)
		}
	}

	if restart := config.RestartRequired(sections); len(restart) > 0 {
		a.log.Warn("config changed; restart required for changes to take effect",
			logx.String("sections", strings.Join(restart, ",")))
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) onCycle(res poller.Result) {
	fields := []logx.Field{
		logx.String("cycle", res.CycleID),
		logx.String("outcome", res.Outcome.String()),
		logx.Bool("delivered", res.Delivered),
	}
	if res.Err != nil {
		fields = append(fields, logx.String("kind", res.Kind.String()))
	}
	a.log.Debug("poll cycle finished", fields...)

	if _, err := a.sd.Status("last poll %s: %s", time.Now().Format(time.RFC3339), res.Outcome); err != nil {
		a.log.Debug("sd_notify status failed", logx.Err(err))
	}
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		a.close()
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = a.sd.Stopping()

	err := a.sup.Stop(ctx)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		c := a.sup.Counters()
		a.log.Warn("shutdown deadline reached; some goroutines are still running",
			logx.Int64("active", c.Active),
			logx.Uint64("started", c.Started),
		)
	case err == nil:
		// The poll loop has returned, so its state is safe to read.
		a.log.Info("stopped", logx.Int64("watermark", a.poller.State().Watermark))
	default:
		a.log.Error("stopped with error", logx.Err(err))
	}
	a.close()
	return err
}

func (a *App) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close failed", logx.Err(err))
		}
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
}
