package sensors

// Kind identifies what a sensor measures.
type Kind string

const (
	KindTemperature    Kind = "temperature"
	KindHumidity       Kind = "humidity"
	KindCO2            Kind = "co2"
	KindLightIntensity Kind = "light_intensity"
	KindPH             Kind = "ph"
	KindEC             Kind = "ec"
	KindVPD            Kind = "vpd"
	KindDLI            Kind = "dli"
	KindMotion         Kind = "motion"
	KindDoorStatus     Kind = "door_status"
)

type baseline struct {
	value float64
	unit  string
}

// baselines holds the per-kind starting value and unit used for synthetic
// readings. Unknown kinds fall back to a unitless zero baseline.
var baselines = map[Kind]baseline{
	KindTemperature:    {22.0, "°C"},
	KindHumidity:       {55.0, "%"},
	KindCO2:            {1000.0, "ppm"},
	KindLightIntensity: {400.0, "PPFD"},
	KindPH:             {6.0, "pH"},
	KindEC:             {1.2, "mS/cm"},
	KindVPD:            {1.1, "kPa"},
	KindDLI:            {18.0, "mol/m²/d"},
	KindMotion:         {0.0, ""},
	KindDoorStatus:     {0.0, ""},
}

// Baseline returns the synthetic-reading baseline value and unit for a kind.
func Baseline(k Kind) (float64, string) {
	b, ok := baselines[k]
	if !ok {
		return 0, ""
	}
	return b.value, b.unit
}
