package runtime

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
	"github.com/verdant-ops/facility-backend-go/internal/core/automation"
	"github.com/verdant-ops/facility-backend-go/internal/core/devices"
	"github.com/verdant-ops/facility-backend-go/internal/core/predictive"
	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
	"github.com/verdant-ops/facility-backend-go/internal/metrics"
)

// Options sets the per-task cadences inside the tick loop.
type Options struct {
	// SensorRefreshEvery is the minimum gap between sensor-refresh tasks.
	SensorRefreshEvery time.Duration
	// RuleEvaluationEvery is the minimum gap between rule evaluations.
	RuleEvaluationEvery time.Duration
}

// Loop drives the whole engine from one cron entry. Every task inside a tick
// runs to completion, in a fixed order, before the next one starts: sensor
// refresh → rule evaluation → predictive update → device health sweep →
// retention eviction. Nothing else mutates the stores between tasks, so each
// task sees the previous task's writes within the same tick.
type Loop struct {
	cron       *cron.Cron
	sensors    *sensors.Registry
	readings   *sensors.ReadingStore
	engine     *automation.Engine
	predictive *predictive.Engine
	devices    *devices.Registry
	alertStore *alerts.Store
	autoLog    *automation.Log
	metrics    *metrics.Metrics
	logger     *logrus.Logger
	opts       Options

	lastRefresh time.Time
	lastRules   time.Time
}

// New creates the tick loop.
func New(
	opts Options,
	sensorRegistry *sensors.Registry,
	readings *sensors.ReadingStore,
	engine *automation.Engine,
	predictiveEngine *predictive.Engine,
	deviceRegistry *devices.Registry,
	alertStore *alerts.Store,
	autoLog *automation.Log,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *Loop {
	return &Loop{
		cron:       cron.New(cron.WithSeconds()),
		sensors:    sensorRegistry,
		readings:   readings,
		engine:     engine,
		predictive: predictiveEngine,
		devices:    deviceRegistry,
		alertStore: alertStore,
		autoLog:    autoLog,
		metrics:    m,
		logger:     logger,
		opts:       opts,
	}
}

// Start schedules the one-second tick. All engine work happens inside it.
func (l *Loop) Start() error {
	if _, err := l.cron.AddFunc("* * * * * *", func() { l.Tick(time.Now()) }); err != nil {
		return fmt.Errorf("failed to schedule tick: %w", err)
	}
	l.cron.Start()
	l.logger.Info("Tick loop started")
	return nil
}

// Tick runs one scheduler tick against the shared clock. Exported so tests
// can drive simulated time directly.
func (l *Loop) Tick(now time.Time) {
	start := time.Now()

	if l.lastRefresh.IsZero() || now.Sub(l.lastRefresh) >= l.opts.SensorRefreshEvery {
		l.lastRefresh = now
		generated := l.sensors.Refresh(now)
		if len(generated) > 0 {
			l.predictive.Ingest(generated)
			if l.metrics != nil {
				l.metrics.ReadingsGenerated.Add(float64(len(generated)))
			}
		}
	}

	if l.lastRules.IsZero() || now.Sub(l.lastRules) >= l.opts.RuleEvaluationEvery {
		l.lastRules = now
		fired := l.engine.EvaluateTick(now)
		if l.metrics != nil {
			for _, f := range fired {
				l.metrics.RuleFirings.Inc()
				for _, res := range f.Results {
					if !res.Success {
						l.metrics.ActionFailures.Inc()
					}
				}
			}
		}
	}

	predictions := l.predictive.Update(now)
	if l.metrics != nil && len(predictions) > 0 {
		l.metrics.Predictions.Add(float64(len(predictions)))
	}

	l.devices.Sweep(now)

	l.readings.EvictOlderThan(now)
	l.autoLog.EvictOlderThan(now)
	l.alertStore.Cleanup(now)

	if l.metrics != nil {
		l.metrics.ActiveSensors.Set(float64(l.sensors.ActiveCount()))
		l.metrics.OnlineDevices.Set(float64(l.devices.OnlineCount()))
		l.metrics.ActiveAlerts.Set(float64(len(l.alertStore.Active())))
		l.metrics.TrainingQueueDepth.Set(float64(l.predictive.QueueDepth()))
		l.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}

// Stop halts the tick schedule, waiting for an in-flight tick to finish.
func (l *Loop) Stop() {
	ctx := l.cron.Stop()
	<-ctx.Done()
	l.logger.Info("Tick loop stopped")
}

// Shutdown stops the loop and bulk-clears every in-memory collection.
func (l *Loop) Shutdown() {
	l.Stop()
	l.engine.Clear()
	l.sensors.Clear()
	l.readings.Clear()
	l.devices.Clear()
	l.predictive.Clear()
	l.alertStore.Clear()
	l.autoLog.Clear()
	l.logger.Info("Engine state cleared")
}
