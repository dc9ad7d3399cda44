package domain

// Pollutant is one pollutant's contribution to a station reading. Values are
// built by ParsePollutants and never modified afterwards.
type Pollutant struct {
	Code          string
	DisplayName   string
	FullName      string
	Unit          string
	SubIndex      int
	Concentration float64
}

// NewPollutant derives a pollutant from its reference entry and the sub-index
// reported upstream. The concentration scales linearly: a sub-index of 100
// equals the reference concentration.
func NewPollutant(ref ReferenceEntry, subIndex int) Pollutant {
	return Pollutant{
		Code:          ref.Code,
		DisplayName:   ref.DisplayName,
		FullName:      ref.FullName,
		Unit:          ref.Unit,
		SubIndex:      subIndex,
		Concentration: (float64(subIndex) / 100.0) * ref.Reference,
	}
}
