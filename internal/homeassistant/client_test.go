package homeassistant

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zberg/go-ecodevices/pkg/ecodevices"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type message struct {
	topic    string
	retained bool
	payload  interface{}
}

type fakePublisher struct {
	messages []message
	failOn   string
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if topic == p.failOn {
		return &fakeToken{err: errors.New("broker unavailable")}
	}
	p.messages = append(p.messages, message{topic: topic, retained: retained, payload: payload})
	return &fakeToken{}
}

func strp(s string) *string { return &s }

func testSnapshot() *Snapshot {
	return &Snapshot{
		Identity: ecodevices.DeviceIdentity{Version: strp("1.2.3"), MAC: strp("AA:BB:CC:DD:EE:FF")},
		Teleinfo: map[ecodevices.Channel]ecodevices.TeleinfoReading{
			ecodevices.Channel1: {ApparentPower: strp("1200"), TariffPeriod: strp("HC..")},
			ecodevices.Channel2: {},
		},
		Counters: map[ecodevices.Channel]ecodevices.CounterReading{
			ecodevices.Channel1: {Total: strp("45678")},
		},
	}
}

func TestPublish(t *testing.T) {
	pub := &fakePublisher{}
	client := NewClient(pub, "homeassistant", "ecodevices", nil)

	require.NoError(t, client.Publish(testSnapshot()))
	require.Len(t, pub.messages, 6, "three sensors, config and state each")

	cfg := pub.messages[0]
	assert.Equal(t, "homeassistant/sensor/ecodevices_aabbccddeeff_t1_current/config", cfg.topic)
	assert.True(t, cfg.retained)

	var sc sensorConfiguration
	require.NoError(t, json.Unmarshal(cfg.payload.([]byte), &sc))
	assert.Equal(t, "apparent_power", sc.DeviceClass)
	assert.Equal(t, "VA", sc.UnitOfMeasurement)
	assert.Equal(t, "ecodevices/ecodevices_aabbccddeeff/t1_current", sc.StateTopic)
	assert.Equal(t, "1.2.3", sc.Device.SWVersion)

	state := pub.messages[1]
	assert.Equal(t, sc.StateTopic, state.topic)
	assert.Equal(t, "1200", state.payload)

	assert.Equal(t, "ecodevices/ecodevices_aabbccddeeff/t1_type_heures", pub.messages[3].topic)
	assert.Equal(t, "ecodevices/ecodevices_aabbccddeeff/c1_total", pub.messages[5].topic)
}

func TestPublish_Error(t *testing.T) {
	pub := &fakePublisher{failOn: "ecodevices/ecodevices_aabbccddeeff/t1_current"}
	client := NewClient(pub, "homeassistant", "ecodevices", nil)

	err := client.Publish(testSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

type fakeReader struct {
	err error
}

func (r fakeReader) FetchIdentity(ctx context.Context) (ecodevices.DeviceIdentity, error) {
	return ecodevices.DeviceIdentity{MAC: strp("AA:BB")}, nil
}

func (r fakeReader) Teleinfo(ctx context.Context, ch ecodevices.Channel) (ecodevices.TeleinfoReading, error) {
	if r.err != nil {
		return ecodevices.TeleinfoReading{}, r.err
	}
	return ecodevices.TeleinfoReading{ApparentPower: strp("100")}, nil
}

func (r fakeReader) Counter(ctx context.Context, ch ecodevices.Channel) (ecodevices.CounterReading, error) {
	return ecodevices.CounterReading{Total: strp("5")}, nil
}

func TestCollect(t *testing.T) {
	s, err := Collect(context.Background(), fakeReader{})
	require.NoError(t, err)
	assert.Len(t, s.Teleinfo, 2)
	assert.Len(t, s.Counters, 2)

	_, err = Collect(context.Background(), fakeReader{err: &ecodevices.AuthenticationError{URL: "x"}})
	assert.ErrorIs(t, err, ecodevices.ErrAuthentication)
}
