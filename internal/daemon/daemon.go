// Package daemon runs the watch-and-publish loop: it watches the vault for
// changes, debounces edit bursts, publishes on a cron schedule as a safety
// net, journals every run, and optionally broadcasts run outcomes over NATS
// and serves Prometheus metrics.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/A1i98/obsidian-digital-garden/internal/config"
	"github.com/A1i98/obsidian-digital-garden/internal/eventstore"
	"github.com/A1i98/obsidian-digital-garden/internal/garden"
	"github.com/A1i98/obsidian-digital-garden/internal/logfields"
	"github.com/A1i98/obsidian-digital-garden/internal/metrics"
	"github.com/A1i98/obsidian-digital-garden/internal/publisher"
)

const shutdownTimeout = 10 * time.Second

// journalRetention bounds how much publish history the journal keeps.
const journalRetention = 90 * 24 * time.Hour

// Daemon owns the long-running publish loop and its supporting services.
type Daemon struct {
	cfg       *config.Config
	recorder  metrics.Recorder
	journal   *eventstore.Journal
	broadcast *Broadcaster
	watcher   *VaultWatcher
	scheduler gocron.Scheduler
	publisher *publisher.Publisher
	server    *http.Server

	// triggers has capacity one: a queued run absorbs further trigger
	// requests because it will see the vault state current when it starts.
	triggers chan string
	pending  atomic.Int64
	cancel   context.CancelFunc
	done     chan struct{}
}

// New assembles a daemon from the configuration. The metrics endpoint,
// event journal, and NATS broadcaster are created here; filesystem watching
// and the scheduler begin on Start.
func New(cfg *config.Config) (*Daemon, error) {
	d := &Daemon{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		triggers: make(chan string, 1),
		done:     make(chan struct{}),
	}

	dcfg := cfg.Daemon
	if dcfg.Metrics.Enabled {
		registry := prom.NewRegistry()
		registry.MustRegister(
			promcollect.NewGoCollector(),
			promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
		)
		d.recorder = metrics.NewPrometheusRecorder(registry)

		mux := http.NewServeMux()
		mux.Handle(dcfg.Metrics.Path, metrics.HTTPHandler(registry))
		d.server = &http.Server{
			Addr:              dcfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	journal, err := eventstore.Open(dcfg.EventStore.Path)
	if err != nil {
		return nil, err
	}
	d.journal = journal

	if dcfg.NATS != nil {
		broadcaster, err := NewBroadcaster(dcfg.NATS)
		if err != nil {
			_ = journal.Close()
			return nil, err
		}
		d.broadcast = broadcaster
	}

	watcher, err := NewVaultWatcher(cfg.Vault.Path, cfg.Vault.IgnorePrefixes)
	if err != nil {
		d.broadcast.Close()
		_ = journal.Close()
		return nil, err
	}
	d.watcher = watcher

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		_ = watcher.Close()
		d.broadcast.Close()
		_ = journal.Close()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	d.scheduler = scheduler

	d.publisher = publisher.NewPublisher(&cfg.Garden, cfg.Vault.Path, d.recorder)
	return d, nil
}

// Start launches the watch, debounce, schedule, and publish goroutines.
// It returns once everything is running; cancel ctx and call Stop to shut
// the daemon down.
func (d *Daemon) Start(ctx context.Context) error {
	quiet, maxDelay, err := d.cfg.Daemon.WatchDebounce.Durations()
	if err != nil {
		return fmt.Errorf("invalid watch debounce configuration: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.runLoop(runCtx)

	if err := d.watcher.Start(runCtx); err != nil {
		cancel()
		return err
	}

	debounceCh := make(chan string, 64)
	go d.forwardEvents(debounceCh)

	debouncer := NewDebouncer(quiet, maxDelay, func(count int) {
		slog.Debug("Vault settled", logfields.Count(count))
		d.trigger(eventstore.TriggerWatch)
	})
	go debouncer.Run(runCtx, debounceCh)

	if _, err := d.scheduler.NewJob(
		gocron.CronJob(d.cfg.Daemon.SyncSchedule, false),
		gocron.NewTask(func() { d.trigger(eventstore.TriggerSchedule) }),
		gocron.WithName("scheduled-sync"),
	); err != nil {
		cancel()
		return fmt.Errorf("invalid sync schedule %q: %w", d.cfg.Daemon.SyncSchedule, err)
	}
	d.scheduler.Start()

	if d.server != nil {
		go func() {
			slog.Info("Serving metrics",
				slog.String("addr", d.server.Addr),
				logfields.Path(d.cfg.Daemon.Metrics.Path))
			if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
	}

	d.reportJournal(ctx)

	slog.Info("Daemon started",
		logfields.Vault(d.cfg.Vault.Path),
		slog.String("sync_schedule", d.cfg.Daemon.SyncSchedule),
		slog.String("quiet_window", quiet.String()),
		slog.String("max_delay", maxDelay.String()))
	return nil
}

// reportJournal logs where the garden left off and prunes history past the
// retention window.
func (d *Daemon) reportJournal(ctx context.Context) {
	last, err := d.journal.LastPushed(ctx)
	switch {
	case err != nil:
		slog.Warn("Could not read last published run", logfields.Error(err))
	case last != nil:
		slog.Info("Garden last published",
			logfields.SessionID(last.SessionID),
			slog.String("commit", last.CommitSHA),
			slog.Time("at", last.StartedAt))
	default:
		slog.Info("Garden has no published runs in this journal")
	}

	if n, err := d.journal.Prune(ctx, time.Now().Add(-journalRetention)); err != nil {
		slog.Warn("Journal prune failed", logfields.Error(err))
	} else if n > 0 {
		slog.Info("Pruned old journal runs", logfields.Count(int(n)))
	}
}

// Trigger requests an immediate publish run, as if the vault had settled.
func (d *Daemon) Trigger() {
	d.trigger(eventstore.TriggerManual)
}

// Journal exposes the run journal for status inspection.
func (d *Daemon) Journal() *eventstore.Journal {
	return d.journal
}

// Run starts the daemon and blocks until ctx is canceled, then performs a
// graceful shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if stopErr := d.Stop(stopCtx); stopErr != nil {
			slog.Warn("Daemon cleanup failed", logfields.Error(stopErr))
		}
		return err
	}

	<-ctx.Done()

	stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	return d.Stop(stopCtx)
}

// Stop shuts the daemon down: new triggers stop, the in-flight run (if any)
// is canceled, and all resources are released. ctx bounds the wait.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	var errs []error
	if err := d.scheduler.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
	}
	if err := d.watcher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("watcher close: %w", err))
	}
	if d.server != nil {
		if err := d.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if d.cancel != nil {
		select {
		case <-d.done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("publish loop did not stop: %w", ctx.Err()))
		}
	}

	d.broadcast.Close()
	if err := d.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("journal close: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	slog.Info("Daemon stopped")
	return nil
}

// forwardEvents tees watcher events into the debouncer and tracks the
// pending-event gauge. It exits when the watcher's event channel closes.
func (d *Daemon) forwardEvents(out chan<- string) {
	defer close(out)
	for rel := range d.watcher.Events() {
		n := d.pending.Add(1)
		d.recorder.SetPendingEvents(int(n))
		slog.Debug("Vault change detected", logfields.Path(rel))
		select {
		case out <- rel:
		default:
		}
	}
}

func (d *Daemon) runLoop(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-d.triggers:
			d.publishRun(ctx, trigger)
			d.pending.Store(0)
			d.recorder.SetPendingEvents(0)
		}
	}
}

func (d *Daemon) trigger(reason string) {
	select {
	case d.triggers <- reason:
	default:
		slog.Debug("Publish already pending", slog.String("trigger", reason))
	}
}

// publishRun builds the vault, publishes the result, and records the
// outcome. Failures are journaled and broadcast, never fatal to the loop.
func (d *Daemon) publishRun(ctx context.Context, trigger string) {
	started := time.Now()
	run := eventstore.Run{Trigger: trigger, StartedAt: started}

	slog.Info("Publish run starting", slog.String("trigger", trigger))

	build, err := garden.NewBuilder(d.cfg, d.recorder).Run(ctx)
	var result *publisher.Result
	if err == nil {
		result, err = d.publisher.Publish(ctx, build)
	}

	if err != nil {
		run.SessionID = uuid.NewString()
		run.Error = err.Error()
		slog.Error("Publish run failed", slog.String("trigger", trigger), logfields.Error(err))
	} else {
		run.SessionID = result.SessionID
		run.Success = true
		run.Pushed = result.Pushed
		run.CommitSHA = result.CommitSHA
		run.Created = len(result.Changes.Create)
		run.Updated = len(result.Changes.Update)
		run.Deleted = len(result.Changes.Delete)
	}
	run.Duration = time.Since(started)

	// The journal write uses a background context so a run interrupted by
	// shutdown is still recorded.
	if _, jerr := d.journal.Record(context.Background(), run); jerr != nil {
		slog.Error("Failed to journal publish run", logfields.Error(jerr))
	}

	if berr := d.broadcast.Broadcast(eventFromRun(run)); berr != nil {
		slog.Warn("Failed to broadcast publish event", logfields.Error(berr))
	}
}

func eventFromRun(run eventstore.Run) PublishEvent {
	return PublishEvent{
		SessionID: run.SessionID,
		Trigger:   run.Trigger,
		Success:   run.Success,
		Pushed:    run.Pushed,
		CommitSHA: run.CommitSHA,
		Created:   run.Created,
		Updated:   run.Updated,
		Deleted:   run.Deleted,
		Error:     run.Error,
	}
}
