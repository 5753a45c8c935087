package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Sensors    SensorsConfig    `mapstructure:"sensors"`
	Automation AutomationConfig `mapstructure:"automation"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Predictive PredictiveConfig `mapstructure:"predictive"`
	Devices    DevicesConfig    `mapstructure:"devices"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SensorsConfig struct {
	// RefreshInterval is the cadence of the sensor-update task inside the tick
	// loop, in seconds.
	RefreshInterval   int `mapstructure:"refresh_interval"`
	RetentionHours    int `mapstructure:"retention_hours"`
	MaxSensorsPerZone int `mapstructure:"max_sensors_per_zone"`
}

type AutomationConfig struct {
	// ResponseDelay is the cadence of rule evaluation, in seconds.
	ResponseDelay int `mapstructure:"response_delay"`
	LogRetention  int `mapstructure:"log_retention_hours"`
}

type AlertsConfig struct {
	// MaxAlertsPerHour is advisory; the store never drops alerts to satisfy it.
	// Reports surface utilization against this value.
	MaxAlertsPerHour int `mapstructure:"max_alerts_per_hour"`
	ResolvedTTLHours int `mapstructure:"resolved_ttl_hours"`
}

type PredictiveConfig struct {
	UpdateInterval      int     `mapstructure:"update_interval"`
	MinTrainingSamples  int     `mapstructure:"min_training_samples"`
	QueueCapacity       int     `mapstructure:"queue_capacity"`
	IngestPerTick       int     `mapstructure:"ingest_per_tick"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

type DevicesConfig struct {
	MaxDevices          int     `mapstructure:"max_devices"`
	OfflineAfterMinutes int     `mapstructure:"offline_after_minutes"`
	LowBatteryThreshold float64 `mapstructure:"low_battery_threshold"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type WebSocketConfig struct {
	WriteBufferSize int `mapstructure:"write_buffer_size"`
	ReadBufferSize  int `mapstructure:"read_buffer_size"`
}

// Load reads configuration from configs/config.yaml with FACILITY_* environment
// overrides, applying defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FACILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3004)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("sensors.refresh_interval", 5)
	v.SetDefault("sensors.retention_hours", 24)
	v.SetDefault("sensors.max_sensors_per_zone", 32)

	v.SetDefault("automation.response_delay", 1)
	v.SetDefault("automation.log_retention_hours", 24)

	v.SetDefault("alerts.max_alerts_per_hour", 120)
	v.SetDefault("alerts.resolved_ttl_hours", 24)

	v.SetDefault("predictive.update_interval", 300)
	v.SetDefault("predictive.min_training_samples", 100)
	v.SetDefault("predictive.queue_capacity", 10000)
	v.SetDefault("predictive.ingest_per_tick", 100)
	v.SetDefault("predictive.confidence_threshold", 0.8)

	v.SetDefault("devices.max_devices", 64)
	v.SetDefault("devices.offline_after_minutes", 15)
	v.SetDefault("devices.low_battery_threshold", 20.0)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "facility-backend")
	v.SetDefault("mqtt.topic_prefix", "facility")

	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.read_buffer_size", 1024)
}
