package analytics

// GeoResolver maps a client IP to a country and city. No real resolver is
// wired in yet; the interface keeps the fields in the data model so one can
// be added without touching the click recorder.
type GeoResolver interface {
	Resolve(ip string) (country, city string)
}

// unknownGeo is the default resolver; it never resolves anything.
type unknownGeo struct{}

// NewUnknownGeoResolver returns a resolver that reports "Unknown" for every IP
func NewUnknownGeoResolver() GeoResolver {
	return unknownGeo{}
}

func (unknownGeo) Resolve(ip string) (string, string) {
	return Unknown, Unknown
}
