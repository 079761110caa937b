package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	MQTT      MQTTConfig
	Telemetry TelemetryConfig
	Escalator EscalatorConfig
}

type ServerConfig struct {
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MQTTConfig struct {
	Broker        string
	ClientID      string
	Username      string
	Password      string
	PositionTopic string
	QoS           int
}

type TelemetryConfig struct {
	BatchWorkers    int // concurrent trolley groups in a batch update
	LowBatteryLevel int // battery percentage at or below which an alert opens
}

type EscalatorConfig struct {
	SweepInterval    time.Duration
	UnreturnedDays   int // overdue age before an assignment is written off
	BlockAtOverdue   int // concurrent overdue/unreturned assignments before blocking
	CriticalAtHours  int // hours overdue before the store alert escalates to critical
	SweepLockTTLSecs int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	viper.SetDefault("TELEMETRY_BATCH_WORKERS", 8)
	viper.SetDefault("TELEMETRY_LOW_BATTERY_LEVEL", 20)
	viper.SetDefault("ESCALATOR_SWEEP_INTERVAL", "1h")
	viper.SetDefault("ESCALATOR_UNRETURNED_DAYS", 7)
	viper.SetDefault("ESCALATOR_BLOCK_AT_OVERDUE", 3)
	viper.SetDefault("ESCALATOR_CRITICAL_AT_HOURS", 48)
	viper.SetDefault("ESCALATOR_SWEEP_LOCK_TTL_SECS", 900)
	viper.SetDefault("MQTT_POSITION_TOPIC", "trolleys/+/position")
	viper.SetDefault("MQTT_QOS", 1)

	config := &Config{
		Server: ServerConfig{
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		MQTT: MQTTConfig{
			Broker:        viper.GetString("MQTT_BROKER"),
			ClientID:      viper.GetString("MQTT_CLIENT_ID"),
			Username:      viper.GetString("MQTT_USERNAME"),
			Password:      viper.GetString("MQTT_PASSWORD"),
			PositionTopic: viper.GetString("MQTT_POSITION_TOPIC"),
			QoS:           viper.GetInt("MQTT_QOS"),
		},
		Telemetry: TelemetryConfig{
			BatchWorkers:    viper.GetInt("TELEMETRY_BATCH_WORKERS"),
			LowBatteryLevel: viper.GetInt("TELEMETRY_LOW_BATTERY_LEVEL"),
		},
		Escalator: EscalatorConfig{
			SweepInterval:    viper.GetDuration("ESCALATOR_SWEEP_INTERVAL"),
			UnreturnedDays:   viper.GetInt("ESCALATOR_UNRETURNED_DAYS"),
			BlockAtOverdue:   viper.GetInt("ESCALATOR_BLOCK_AT_OVERDUE"),
			CriticalAtHours:  viper.GetInt("ESCALATOR_CRITICAL_AT_HOURS"),
			SweepLockTTLSecs: viper.GetInt("ESCALATOR_SWEEP_LOCK_TTL_SECS"),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
