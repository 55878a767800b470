// Package config loads the ecodevices command configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/zberg/go-ecodevices/pkg/ecodevices"
)

// Config is the complete command configuration.
type Config struct {
	Device DeviceConfig `yaml:"device"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	HTTP   HTTPConfig   `yaml:"http"`
}

// DeviceConfig locates the Eco-Devices unit.
type DeviceConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
	Profile  string        `yaml:"profile"` // "single" or "split"
}

// MQTTConfig contains broker settings for the publish command.
type MQTTConfig struct {
	Broker          string `yaml:"broker"` // e.g. tcp://192.168.1.10:1883
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	ClientID        string `yaml:"client_id"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`
	TopicPrefix     string `yaml:"topic_prefix"`
}

// HTTPConfig contains settings for the serve command.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Port:    80,
			Timeout: 10 * time.Second,
			Profile: "single",
		},
		MQTT: MQTTConfig{
			DiscoveryPrefix: "homeassistant",
			TopicPrefix:     "ecodevices",
		},
		HTTP: HTTPConfig{
			Listen: ":8080",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the device section.
func (c *Config) Validate() error {
	if c.Device.Host == "" {
		return errors.New("device host is required")
	}
	if c.Device.Port < 1 || c.Device.Port > 65535 {
		return fmt.Errorf("device port %d out of range", c.Device.Port)
	}
	if c.Device.Timeout <= 0 {
		return errors.New("device timeout must be positive")
	}
	if _, err := ecodevices.ParseProfile(c.Device.Profile); err != nil {
		return err
	}
	return nil
}

// ClientOptions converts the device section to client options.
func (d DeviceConfig) ClientOptions(logger *slog.Logger) ([]ecodevices.ClientOption, error) {
	profile, err := ecodevices.ParseProfile(d.Profile)
	if err != nil {
		return nil, err
	}
	return []ecodevices.ClientOption{
		ecodevices.WithPort(d.Port),
		ecodevices.WithCredentials(d.Username, d.Password),
		ecodevices.WithRequestTimeout(d.Timeout),
		ecodevices.WithProfile(profile),
		ecodevices.WithLogger(logger),
	}, nil
}

// ClientOptions builds paho options. A random client ID is used when
// none is configured.
func (m MQTTConfig) ClientOptions(logger *slog.Logger) (*mqtt.ClientOptions, error) {
	if m.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	clientID := m.ClientID
	if clientID == "" {
		clientID = "ecodevices-" + uuid.NewString()
	}

	return mqtt.NewClientOptions().
		AddBroker(m.Broker).
		SetClientID(clientID).
		SetUsername(m.Username).
		SetPassword(m.Password).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(client mqtt.Client, err error) {
			logger.Warn("MQTT connection lost", "error", err)
		}), nil
}
