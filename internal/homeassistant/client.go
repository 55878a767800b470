// Package homeassistant publishes Eco-Devices readings as Home Assistant
// MQTT sensors.
package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/zberg/go-ecodevices/pkg/ecodevices"
)

// Publisher is the part of mqtt.Client used here.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Reader is the part of *ecodevices.Client used by Collect.
type Reader interface {
	FetchIdentity(ctx context.Context) (ecodevices.DeviceIdentity, error)
	Teleinfo(ctx context.Context, ch ecodevices.Channel) (ecodevices.TeleinfoReading, error)
	Counter(ctx context.Context, ch ecodevices.Channel) (ecodevices.CounterReading, error)
}

var channels = []ecodevices.Channel{ecodevices.Channel1, ecodevices.Channel2}

// Snapshot is one read of every input of a device.
type Snapshot struct {
	Identity ecodevices.DeviceIdentity
	Teleinfo map[ecodevices.Channel]ecodevices.TeleinfoReading
	Counters map[ecodevices.Channel]ecodevices.CounterReading
}

// Collect reads identity, both teleinfo channels and both counters.
// The first failing request aborts the snapshot.
func Collect(ctx context.Context, r Reader) (*Snapshot, error) {
	id, err := r.FetchIdentity(ctx)
	if err != nil {
		return nil, err
	}
	s := &Snapshot{
		Identity: id,
		Teleinfo: map[ecodevices.Channel]ecodevices.TeleinfoReading{},
		Counters: map[ecodevices.Channel]ecodevices.CounterReading{},
	}
	for _, ch := range channels {
		t, err := r.Teleinfo(ctx, ch)
		if err != nil {
			return nil, fmt.Errorf("teleinfo %d: %w", ch, err)
		}
		s.Teleinfo[ch] = t

		c, err := r.Counter(ctx, ch)
		if err != nil {
			return nil, fmt.Errorf("counter %d: %w", ch, err)
		}
		s.Counters[ch] = c
	}
	return s, nil
}

// Client registers sensors and publishes their state.
type Client struct {
	mqtt            Publisher
	discoveryPrefix string
	topicPrefix     string
	logger          *slog.Logger
}

func NewClient(mqtt Publisher, discoveryPrefix, topicPrefix string, logger *slog.Logger) *Client {
	return &Client{
		mqtt:            mqtt,
		discoveryPrefix: discoveryPrefix,
		topicPrefix:     topicPrefix,
		logger:          logger,
	}
}

// sensor is one value to publish.
type sensor struct {
	key   string // e.g. t1_current
	name  string
	class sensorClass
	value string
}

// Publish registers one sensor per present field of s and publishes its
// value. Absent fields are skipped.
func (h *Client) Publish(s *Snapshot) error {
	deviceID := "ecodevices"
	if s.Identity.MAC != nil {
		deviceID = "ecodevices_" + sanitize(*s.Identity.MAC)
	}
	device := deviceInfo{
		Identifiers:  []string{deviceID},
		Name:         "Eco-Devices",
		Manufacturer: "GCE Electronics",
		Model:        "Eco-Devices",
	}
	if s.Identity.Version != nil {
		device.SWVersion = *s.Identity.Version
	}

	for _, sn := range sensors(s) {
		uniqueId := deviceID + "_" + sn.key
		stateTopic := fmt.Sprintf("%v/%v/%v", h.topicPrefix, deviceID, sn.key)

		payload, err := json.Marshal(sensorConfiguration{
			UniqueId:          uniqueId,
			Name:              sn.name,
			DeviceClass:       sn.class.deviceClass,
			StateClass:        sn.class.stateClass,
			StateTopic:        stateTopic,
			UnitOfMeasurement: sn.class.unit,
			Device:            device,
		})
		if err != nil {
			return fmt.Errorf("encode sensor %s: %w", uniqueId, err)
		}

		configTopic := fmt.Sprintf("%v/sensor/%v/config", h.discoveryPrefix, uniqueId)
		if t := h.mqtt.Publish(configTopic, 0, true, payload); t.Wait() && t.Error() != nil {
			return fmt.Errorf("register sensor %s: %w", uniqueId, t.Error())
		}

		if t := h.mqtt.Publish(stateTopic, 0, true, sn.value); t.Wait() && t.Error() != nil {
			return fmt.Errorf("publish %s: %w", stateTopic, t.Error())
		}

		if h.logger != nil {
			h.logger.Debug("published sensor", "topic", stateTopic, "value", sn.value)
		}
	}

	return nil
}

func sensors(s *Snapshot) []sensor {
	var out []sensor
	for _, ch := range channels {
		t, ok := s.Teleinfo[ch]
		if !ok {
			continue
		}
		for _, f := range ecodevices.TeleinfoFields {
			v := f.Value(&t)
			if v == nil {
				continue
			}
			class, ok := teleinfoClasses[f.Name]
			if !ok {
				class = plain
			}
			out = append(out, sensor{
				key:   fmt.Sprintf("t%d_%s", ch, f.Name),
				name:  fmt.Sprintf("Teleinfo %d %s", ch, strings.ReplaceAll(f.Name, "_", " ")),
				class: class,
				value: *v,
			})
		}
	}
	for _, ch := range channels {
		c, ok := s.Counters[ch]
		if !ok {
			continue
		}
		for _, f := range []struct {
			name  string
			value *string
		}{{"daily", c.Daily}, {"total", c.Total}, {"fuel", c.Fuel}} {
			if f.value == nil {
				continue
			}
			out = append(out, sensor{
				key:   fmt.Sprintf("c%d_%s", ch, f.name),
				name:  fmt.Sprintf("Counter %d %s", ch, f.name),
				class: plain,
				value: *f.value,
			})
		}
	}
	return out
}

func sanitize(s string) string {
	return strings.ToLower(strings.NewReplacer(":", "", "-", "", " ", "_").Replace(s))
}
