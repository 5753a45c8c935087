package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verdant-ops/facility-backend-go/internal/adapters/mqtt"
	"github.com/verdant-ops/facility-backend-go/internal/api"
	"github.com/verdant-ops/facility-backend-go/internal/api/handlers"
	"github.com/verdant-ops/facility-backend-go/internal/config"
	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
	"github.com/verdant-ops/facility-backend-go/internal/core/analytics"
	"github.com/verdant-ops/facility-backend-go/internal/core/automation"
	"github.com/verdant-ops/facility-backend-go/internal/core/devices"
	"github.com/verdant-ops/facility-backend-go/internal/core/predictive"
	"github.com/verdant-ops/facility-backend-go/internal/core/runtime"
	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
	"github.com/verdant-ops/facility-backend-go/internal/metrics"
	"github.com/verdant-ops/facility-backend-go/internal/websocket"
	"github.com/verdant-ops/facility-backend-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("Starting facility backend")

	// Stores.
	readings := sensors.NewReadingStore(time.Duration(cfg.Sensors.RetentionHours) * time.Hour)
	alertStore := alerts.NewStore(time.Duration(cfg.Alerts.ResolvedTTLHours)*time.Hour, log)
	autoLog := automation.NewLog(time.Duration(cfg.Automation.LogRetention) * time.Hour)

	// Intent sink: MQTT when a broker is configured, in-process otherwise.
	var publisher automation.IntentPublisher
	var mqttPublisher *mqtt.Publisher
	if cfg.MQTT.Enabled {
		mqttPublisher, err = mqtt.NewPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.TopicPrefix, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect MQTT intent publisher")
		}
		publisher = mqttPublisher
	} else {
		publisher = mqtt.NewLogPublisher(log)
	}

	// Engines and registries.
	dispatcher := automation.NewDispatcher(alertStore, autoLog, publisher, log)
	engine := automation.NewEngine(readings, dispatcher, autoLog, log)
	sensorRegistry := sensors.NewRegistry(readings, alertStore, cfg.Sensors.MaxSensorsPerZone, time.Now().UnixNano(), log)
	deviceRegistry := devices.NewRegistry(
		cfg.Devices.MaxDevices,
		time.Duration(cfg.Devices.OfflineAfterMinutes)*time.Minute,
		cfg.Devices.LowBatteryThreshold,
		log,
	)
	predictiveEngine := predictive.NewEngine(predictive.Config{
		UpdateInterval:      time.Duration(cfg.Predictive.UpdateInterval) * time.Second,
		MinTrainingSamples:  cfg.Predictive.MinTrainingSamples,
		QueueCapacity:       cfg.Predictive.QueueCapacity,
		IngestPerTick:       cfg.Predictive.IngestPerTick,
		ConfidenceThreshold: cfg.Predictive.ConfidenceThreshold,
	}, alertStore, log)
	reports := analytics.NewGenerator(readings, autoLog, alertStore, engine, cfg.Alerts.MaxAlertsPerHour)

	m := metrics.New()

	// Notification fan-out.
	hub := websocket.NewHub(cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize, log)
	go hub.Run()

	alertStore.OnRaise(func(a alerts.Alert) {
		m.AlertsRaised.WithLabelValues(a.Severity.String()).Inc()
		hub.Broadcast(websocket.TypeSensorAlert, map[string]any{"alert": a})
	})
	engine.OnFired(func(f automation.FiredRule) {
		hub.Broadcast(websocket.TypeRuleTriggered, map[string]any{
			"rule_id":   f.Rule.ID,
			"rule_name": f.Rule.Name,
			"at":        f.At,
		})
	})
	deviceRegistry.OnStatusChange(func(d devices.Device, previous devices.Status) {
		hub.Broadcast(websocket.TypeDeviceStatusChanged, map[string]any{
			"device":   d,
			"previous": previous,
		})
	})
	predictiveEngine.OnPrediction(func(p predictive.Prediction) {
		hub.Broadcast(websocket.TypePredictionGenerated, map[string]any{"prediction": p})
	})

	// Scheduler.
	loop := runtime.New(
		runtime.Options{
			SensorRefreshEvery:  time.Duration(cfg.Sensors.RefreshInterval) * time.Second,
			RuleEvaluationEvery: time.Duration(cfg.Automation.ResponseDelay) * time.Second,
		},
		sensorRegistry, readings, engine, predictiveEngine, deviceRegistry,
		alertStore, autoLog, m, log,
	)
	if err := loop.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start tick loop")
	}

	// HTTP surface.
	h := handlers.NewHandlers(cfg, sensorRegistry, readings, engine, alertStore,
		deviceRegistry, predictiveEngine, reports, hub, log)
	router := api.NewRouter(cfg, h, m, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	loop.Shutdown()
	if mqttPublisher != nil {
		mqttPublisher.Close()
	}
	log.Info("Shutdown complete")
}
