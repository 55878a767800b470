package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zberg/go-ecodevices/pkg/ecodevices"
)

func strp(s string) *string { return &s }

type fakeDevice struct {
	err   error
	calls int
}

func (d *fakeDevice) FetchIdentity(ctx context.Context) (ecodevices.DeviceIdentity, error) {
	d.calls++
	return ecodevices.DeviceIdentity{Version: strp("1.2.3")}, d.err
}

func (d *fakeDevice) Ping(ctx context.Context) bool {
	d.calls++
	return d.err == nil
}

func (d *fakeDevice) GlobalGet(ctx context.Context) (ecodevices.RawStatus, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return ecodevices.RawStatus{"version": "1.2.3"}, nil
}

func (d *fakeDevice) Teleinfo(ctx context.Context, ch ecodevices.Channel) (ecodevices.TeleinfoReading, error) {
	d.calls++
	return ecodevices.TeleinfoReading{ApparentPower: strp("1200")}, d.err
}

func (d *fakeDevice) Counter(ctx context.Context, ch ecodevices.Channel) (ecodevices.CounterReading, error) {
	d.calls++
	return ecodevices.CounterReading{Fuel: strp("gaz")}, d.err
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &m), string(body))
	return rec.Code, m
}

func TestServer_Readings(t *testing.T) {
	d := &fakeDevice{}
	h := New(d, slog.New(slog.NewTextHandler(io.Discard, nil)))

	code, m := get(t, h, "/status")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.2.3", m["version"])

	code, m = get(t, h, "/teleinfo/1")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1200", m["current"])
	assert.Contains(t, m, "couleur_demain")
	assert.Nil(t, m["couleur_demain"])

	code, m = get(t, h, "/counter/2")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "gaz", m["fuel"])

	code, m = get(t, h, "/identity")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.2.3", m["version"])

	code, m = get(t, h, "/ping")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, m["alive"])

	assert.Equal(t, 5, d.calls, "every request reaches the device")
}

func TestServer_InvalidChannel(t *testing.T) {
	d := &fakeDevice{}
	h := New(d, slog.New(slog.NewTextHandler(io.Discard, nil)))

	code, m := get(t, h, "/teleinfo/3")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_channel", m["kind"])
	assert.Equal(t, 0, d.calls)
}

func TestServer_ErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		code int
		kind string
	}{
		{&ecodevices.ConnectionError{URL: "u", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "connection"},
		{&ecodevices.ConnectionError{URL: "u", Err: io.ErrUnexpectedEOF}, http.StatusBadGateway, "connection"},
		{&ecodevices.AuthenticationError{URL: "u"}, http.StatusBadGateway, "authentication"},
		{&ecodevices.ProtocolError{URL: "u", Reason: "no response element"}, http.StatusBadGateway, "protocol"},
	}

	for _, tt := range tests {
		h := New(&fakeDevice{err: tt.err}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		code, m := get(t, h, "/status")
		assert.Equal(t, tt.code, code, tt.kind)
		assert.Equal(t, tt.kind, m["kind"])
	}

	h := New(&fakeDevice{err: &ecodevices.AuthenticationError{}}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	code, m := get(t, h, "/ping")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, m["alive"])
}

func TestServer_NilLogger(t *testing.T) {
	h := New(&fakeDevice{err: &ecodevices.ProtocolError{Reason: "no response element"}}, nil)

	var code int
	var m map[string]interface{}
	require.NotPanics(t, func() { code, m = get(t, h, "/status") })
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "protocol", m["kind"])
}
