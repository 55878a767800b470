package ecodevices

import "fmt"

// DeviceIdentity identifies an Eco-Devices unit.
type DeviceIdentity struct {
	Version *string `json:"version"`
	MAC     *string `json:"mac_address"`
}

// TeleinfoReading is one teleinformation channel. A nil field means the
// firmware did not expose the tag.
type TeleinfoReading struct {
	ApparentPower        *string `json:"current"`
	TariffPeriod         *string `json:"type_heures"`
	SubscribedCurrent    *string `json:"souscription"`
	MaxCurrent           *string `json:"intensite_max"`
	MaxCurrentPhase1     *string `json:"intensite_max_ph1"`
	MaxCurrentPhase2     *string `json:"intensite_max_ph2"`
	MaxCurrentPhase3     *string `json:"intensite_max_ph3"`
	InstantCurrent       *string `json:"intensite_now"`
	InstantCurrentPhase1 *string `json:"intensite_now_ph1"`
	InstantCurrentPhase2 *string `json:"intensite_now_ph2"`
	InstantCurrentPhase3 *string `json:"intensite_now_ph3"`
	MeterNumber          *string `json:"numero_compteur"`
	TariffOption         *string `json:"option_tarifaire"`
	IndexBase            *string `json:"index_base"`
	IndexOffPeak         *string `json:"index_heures_creuses"`
	IndexPeak            *string `json:"index_heures_pleines"`
	IndexNormal          *string `json:"index_heures_normales"`
	IndexMobilePeak      *string `json:"index_heures_pointes"`
	PeakNotice           *string `json:"preavis_heures_pointes"`
	TimeGroup            *string `json:"groupe_horaire"`
	Status               *string `json:"etat"`
	IndexBlueOffPeak     *string `json:"index_heures_creuses_jour_bleu"`
	IndexBluePeak        *string `json:"index_heures_pleines_jour_bleu"`
	IndexWhiteOffPeak    *string `json:"index_heures_creuses_jour_blanc"`
	IndexWhitePeak       *string `json:"index_heures_pleines_jour_blanc"`
	IndexRedOffPeak      *string `json:"index_heures_creuses_jour_rouge"`
	IndexRedPeak         *string `json:"index_heures_pleines_jour_rouge"`
	TomorrowColor        *string `json:"couleur_demain"`
}

// LegacyTeleinfo is the four-field reading of early firmwares.
type LegacyTeleinfo struct {
	ApparentPower     *string `json:"current"`
	TariffPeriod      *string `json:"type_heures"`
	SubscribedCurrent *string `json:"souscription"`
	MaxCurrent        *string `json:"intensite_max"`
}

// Legacy returns the subset of r known to early firmwares.
func (r TeleinfoReading) Legacy() LegacyTeleinfo {
	return LegacyTeleinfo{
		ApparentPower:     r.ApparentPower,
		TariffPeriod:      r.TariffPeriod,
		SubscribedCurrent: r.SubscribedCurrent,
		MaxCurrent:        r.MaxCurrent,
	}
}

// CounterReading is one pulse counter input (gas, water, fuel...).
type CounterReading struct {
	Daily *string `json:"daily"`
	Total *string `json:"total"`
	Fuel  *string `json:"fuel"`
}

// TeleinfoField describes how one tag maps onto a TeleinfoReading.
type TeleinfoField struct {
	Suffix string // tag without the "T1_" prefix
	Name   string // json name
	field  func(*TeleinfoReading) **string
}

// Value returns the field's value in r.
func (f TeleinfoField) Value(r *TeleinfoReading) *string {
	return *f.field(r)
}

// TeleinfoFields lists every teleinfo tag in display order.
var TeleinfoFields = []TeleinfoField{
	{"PAPP", "current", func(r *TeleinfoReading) **string { return &r.ApparentPower }},
	{"PTEC", "type_heures", func(r *TeleinfoReading) **string { return &r.TariffPeriod }},
	{"ISOUSC", "souscription", func(r *TeleinfoReading) **string { return &r.SubscribedCurrent }},
	{"IMAX", "intensite_max", func(r *TeleinfoReading) **string { return &r.MaxCurrent }},
	{"IMAX1", "intensite_max_ph1", func(r *TeleinfoReading) **string { return &r.MaxCurrentPhase1 }},
	{"IMAX2", "intensite_max_ph2", func(r *TeleinfoReading) **string { return &r.MaxCurrentPhase2 }},
	{"IMAX3", "intensite_max_ph3", func(r *TeleinfoReading) **string { return &r.MaxCurrentPhase3 }},
	{"IINST", "intensite_now", func(r *TeleinfoReading) **string { return &r.InstantCurrent }},
	{"IINST1", "intensite_now_ph1", func(r *TeleinfoReading) **string { return &r.InstantCurrentPhase1 }},
	{"IINST2", "intensite_now_ph2", func(r *TeleinfoReading) **string { return &r.InstantCurrentPhase2 }},
	{"IINST3", "intensite_now_ph3", func(r *TeleinfoReading) **string { return &r.InstantCurrentPhase3 }},
	{"ADCO", "numero_compteur", func(r *TeleinfoReading) **string { return &r.MeterNumber }},
	{"OPTARIF", "option_tarifaire", func(r *TeleinfoReading) **string { return &r.TariffOption }},
	{"BASE", "index_base", func(r *TeleinfoReading) **string { return &r.IndexBase }},
	{"HCHC", "index_heures_creuses", func(r *TeleinfoReading) **string { return &r.IndexOffPeak }},
	{"HCHP", "index_heures_pleines", func(r *TeleinfoReading) **string { return &r.IndexPeak }},
	{"EJPHN", "index_heures_normales", func(r *TeleinfoReading) **string { return &r.IndexNormal }},
	{"EJPHPM", "index_heures_pointes", func(r *TeleinfoReading) **string { return &r.IndexMobilePeak }},
	{"PEJP", "preavis_heures_pointes", func(r *TeleinfoReading) **string { return &r.PeakNotice }},
	{"HHPHC", "groupe_horaire", func(r *TeleinfoReading) **string { return &r.TimeGroup }},
	{"MOTDETAT", "etat", func(r *TeleinfoReading) **string { return &r.Status }},
	{"BBRHCJB", "index_heures_creuses_jour_bleu", func(r *TeleinfoReading) **string { return &r.IndexBlueOffPeak }},
	{"BBRHPJB", "index_heures_pleines_jour_bleu", func(r *TeleinfoReading) **string { return &r.IndexBluePeak }},
	{"BBRHCJW", "index_heures_creuses_jour_blanc", func(r *TeleinfoReading) **string { return &r.IndexWhiteOffPeak }},
	{"BBRHPJW", "index_heures_pleines_jour_blanc", func(r *TeleinfoReading) **string { return &r.IndexWhitePeak }},
	{"BBRHCJR", "index_heures_creuses_jour_rouge", func(r *TeleinfoReading) **string { return &r.IndexRedOffPeak }},
	{"BBRHPJR", "index_heures_pleines_jour_rouge", func(r *TeleinfoReading) **string { return &r.IndexRedPeak }},
	{"DEMAIN", "couleur_demain", func(r *TeleinfoReading) **string { return &r.TomorrowColor }},
}

// TeleinfoTag returns the XML tag of suffix on channel ch, e.g. "T1_PAPP".
func TeleinfoTag(ch Channel, suffix string) string {
	return fmt.Sprintf("T%d_%s", int(ch), suffix)
}

// ProjectIdentity extracts the firmware version and MAC address.
func ProjectIdentity(s RawStatus) DeviceIdentity {
	return DeviceIdentity{
		Version: s.ptr("version"),
		MAC:     s.ptr("config_mac"),
	}
}

// ProjectTeleinfo extracts the teleinformation fields of channel ch.
func ProjectTeleinfo(s RawStatus, ch Channel) TeleinfoReading {
	var r TeleinfoReading
	for _, f := range TeleinfoFields {
		*f.field(&r) = s.ptr(TeleinfoTag(ch, f.Suffix))
	}
	return r
}

// ProjectCounter extracts the pulse counter fields of channel ch.
// Counter inputs are numbered from zero on the device.
func ProjectCounter(s RawStatus, ch Channel) CounterReading {
	n := int(ch) - 1
	return CounterReading{
		Daily: s.ptr(fmt.Sprintf("c%dday", n)),
		Total: s.ptr(fmt.Sprintf("count%d", n)),
		Fuel:  s.ptr(fmt.Sprintf("c%d_fuel", n)),
	}
}
