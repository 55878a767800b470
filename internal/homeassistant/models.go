package homeassistant

type deviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

type sensorConfiguration struct {
	UniqueId          string     `json:"unique_id"`
	Name              string     `json:"name"`
	DeviceClass       string     `json:"device_class,omitempty"`
	StateClass        string     `json:"state_class,omitempty"`
	StateTopic        string     `json:"state_topic"`
	UnitOfMeasurement string     `json:"unit_of_measurement,omitempty"`
	Device            deviceInfo `json:"device"`
}

// sensorClass gives the Home Assistant metadata of a reading.
type sensorClass struct {
	deviceClass string
	stateClass  string
	unit        string
}

var (
	apparentPower = sensorClass{"apparent_power", "measurement", "VA"}
	current       = sensorClass{"current", "measurement", "A"}
	energyIndex   = sensorClass{"energy", "total_increasing", "Wh"}
	plain         = sensorClass{}
)

// teleinfoClasses maps teleinfo json names to their metadata. Names not
// listed are published as plain text sensors.
var teleinfoClasses = map[string]sensorClass{
	"current":                         apparentPower,
	"souscription":                    current,
	"intensite_max":                   current,
	"intensite_max_ph1":               current,
	"intensite_max_ph2":               current,
	"intensite_max_ph3":               current,
	"intensite_now":                   current,
	"intensite_now_ph1":               current,
	"intensite_now_ph2":               current,
	"intensite_now_ph3":               current,
	"index_base":                      energyIndex,
	"index_heures_creuses":            energyIndex,
	"index_heures_pleines":            energyIndex,
	"index_heures_normales":           energyIndex,
	"index_heures_pointes":            energyIndex,
	"index_heures_creuses_jour_bleu":  energyIndex,
	"index_heures_pleines_jour_bleu":  energyIndex,
	"index_heures_creuses_jour_blanc": energyIndex,
	"index_heures_pleines_jour_blanc": energyIndex,
	"index_heures_creuses_jour_rouge": energyIndex,
	"index_heures_pleines_jour_rouge": energyIndex,
}
