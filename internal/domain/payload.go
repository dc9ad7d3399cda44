package domain

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ContractVersion is the version of the JSON output contract.
const ContractVersion = "1"

// Envelope types.
const (
	TypeStation  = "station"
	TypeStations = "stations"
	TypeError    = "error"
)

// PollutantPayload is the serialized form of a Pollutant.
type PollutantPayload struct {
	Name          string  `json:"name" validate:"required"`
	AQI           int     `json:"aqi"`
	Concentration float64 `json:"concentration"`
}

// StationPayload is the serialized form of a StationReading.
type StationPayload struct {
	StationID     string                      `json:"station_id" validate:"required"`
	Date          string                      `json:"date" validate:"required,datetime=2006-01-02"`
	Hour          int                         `json:"hour" validate:"gte=0"`
	AQI           int                         `json:"aqi"`
	MainPollutant string                      `json:"main_pollutant" validate:"required"`
	Pollutants    map[string]PollutantPayload `json:"pollutants" validate:"min=1,dive,keys,required,endkeys"`
}

// StationEnvelope wraps a station payload in the versioned contract.
type StationEnvelope struct {
	Version string `json:"version" validate:"required"`
	Type    string `json:"type" validate:"eq=station"`
	StationPayload
}

// StationsEnvelope lists open monitoring stations.
type StationsEnvelope struct {
	Version  string    `json:"version" validate:"required"`
	Type     string    `json:"type" validate:"eq=stations"`
	Stations []Station `json:"stations" validate:"dive"`
}

// ErrorEnvelope reports a failure in the versioned contract.
type ErrorEnvelope struct {
	Version string    `json:"version" validate:"required"`
	Type    string    `json:"type" validate:"eq=error"`
	Error   ErrorBody `json:"error"`
}

// ErrorBody carries a machine-readable code and a human-readable message.
type ErrorBody struct {
	Code    string `json:"code" validate:"required"`
	Message string `json:"message" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateStationPayload, StationPayload{})
	return v
}

// validateStationPayload checks that the main pollutant is one of the listed
// pollutants and carries the overall AQI.
func validateStationPayload(sl validator.StructLevel) {
	p, ok := sl.Current().Interface().(StationPayload)
	if !ok {
		return
	}
	main, ok := p.Pollutants[p.MainPollutant]
	if !ok {
		sl.ReportError(p.MainPollutant, "MainPollutant", "main_pollutant", "inpollutants", "")
		return
	}
	if main.AQI != p.AQI {
		sl.ReportError(p.AQI, "AQI", "aqi", "eqmain", "")
	}
}

// Validate checks v against the output contract.
func Validate(v any) error {
	return validate.Struct(v)
}

// Payload serializes the reading.
func (r StationReading) Payload() StationPayload {
	pollutants := make(map[string]PollutantPayload, len(r.pollutants))
	for code, p := range r.pollutants {
		pollutants[code] = PollutantPayload{
			Name:          p.DisplayName,
			AQI:           p.SubIndex,
			Concentration: p.Concentration,
		}
	}
	return StationPayload{
		StationID:     r.StationID,
		Date:          r.Date.Format(time.DateOnly),
		Hour:          r.Hour,
		AQI:           r.OverallAQI(),
		MainPollutant: r.Dominant().Code,
		Pollutants:    pollutants,
	}
}

// NewStationEnvelope wraps a reading in the versioned contract.
func NewStationEnvelope(r StationReading) StationEnvelope {
	return StationEnvelope{Version: ContractVersion, Type: TypeStation, StationPayload: r.Payload()}
}

// NewStationsEnvelope wraps a station list in the versioned contract.
func NewStationsEnvelope(stations []Station) StationsEnvelope {
	if stations == nil {
		stations = []Station{}
	}
	return StationsEnvelope{Version: ContractVersion, Type: TypeStations, Stations: stations}
}

// NewErrorEnvelope builds an error document.
func NewErrorEnvelope(code, message string) ErrorEnvelope {
	return ErrorEnvelope{
		Version: ContractVersion,
		Type:    TypeError,
		Error:   ErrorBody{Code: code, Message: message},
	}
}
