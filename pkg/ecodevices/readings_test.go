package ecodevices

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestProjectTeleinfo_LegacySubset(t *testing.T) {
	status := RawStatus{
		"T1_PAPP":   "1200",
		"T1_PTEC":   "HC..",
		"T1_ISOUSC": "30",
		"T1_IMAX":   "45",
		"T2_PAPP":   "999",
	}

	r := ProjectTeleinfo(status, Channel1)

	assert.Equal(t, TeleinfoReading{
		ApparentPower:     strp("1200"),
		TariffPeriod:      strp("HC.."),
		SubscribedCurrent: strp("30"),
		MaxCurrent:        strp("45"),
	}, r)

	assert.Equal(t, LegacyTeleinfo{
		ApparentPower:     strp("1200"),
		TariffPeriod:      strp("HC.."),
		SubscribedCurrent: strp("30"),
		MaxCurrent:        strp("45"),
	}, r.Legacy())
}

func TestProjectTeleinfo_ExtendedFields(t *testing.T) {
	status := RawStatus{}
	for _, f := range TeleinfoFields {
		status[TeleinfoTag(Channel2, f.Suffix)] = f.Suffix
	}

	r := ProjectTeleinfo(status, Channel2)
	for _, f := range TeleinfoFields {
		v := f.Value(&r)
		require.NotNil(t, v, f.Name)
		assert.Equal(t, f.Suffix, *v)
	}

	assert.Equal(t, "BBRHPJR", *r.IndexRedPeak)
	assert.Equal(t, "IINST3", *r.InstantCurrentPhase3)

	empty := ProjectTeleinfo(status, Channel1)
	assert.Equal(t, TeleinfoReading{}, empty, "channel 1 tags are absent")
}

func TestProjectTeleinfo_JSONNulls(t *testing.T) {
	r := ProjectTeleinfo(RawStatus{"T1_PAPP": "1200"}, Channel1)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m, len(TeleinfoFields))
	assert.Equal(t, "1200", m["current"])
	assert.Nil(t, m["couleur_demain"])
}

func TestTeleinfoFields_UniqueNames(t *testing.T) {
	suffixes := map[string]bool{}
	names := map[string]bool{}
	for _, f := range TeleinfoFields {
		assert.False(t, suffixes[f.Suffix], f.Suffix)
		assert.False(t, names[f.Name], f.Name)
		suffixes[f.Suffix] = true
		names[f.Name] = true
	}
	assert.Len(t, TeleinfoFields, 28)
}

func TestProjectIdentity(t *testing.T) {
	id := ProjectIdentity(RawStatus{"version": "1.2.3", "config_mac": "AA:BB:CC:DD:EE:FF"})
	assert.Equal(t, DeviceIdentity{Version: strp("1.2.3"), MAC: strp("AA:BB:CC:DD:EE:FF")}, id)

	assert.Equal(t, DeviceIdentity{}, ProjectIdentity(RawStatus{}))
}

func TestProjectCounter(t *testing.T) {
	status := RawStatus{
		"c0day":   "12",
		"count0":  "45678",
		"c0_fuel": "gaz",
		"c1day":   "3",
		"count1":  "900",
	}

	assert.Equal(t, CounterReading{
		Daily: strp("12"),
		Total: strp("45678"),
		Fuel:  strp("gaz"),
	}, ProjectCounter(status, Channel1))

	assert.Equal(t, CounterReading{
		Daily: strp("3"),
		Total: strp("900"),
	}, ProjectCounter(status, Channel2))
}
