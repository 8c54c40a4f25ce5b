package nav

// TransportMode represents the mode of transportation
type TransportMode string

const (
	ModeWalking TransportMode = "walking"
	ModeBiking  TransportMode = "biking"
	ModeAuto    TransportMode = "auto"
)

// DefaultMode is the default transport mode if none is specified
const DefaultMode = ModeAuto

// RouterKind names a road routing provider
type RouterKind string

const (
	RouterValhalla RouterKind = "valhalla"
	RouterOSRM     RouterKind = "osrm"
)

// DefaultRouter is the routing provider used when none is configured
const DefaultRouter = RouterValhalla

// DefaultTimeoutMS bounds every provider request
const DefaultTimeoutMS = 10000

// Valhalla encodes shapes with six decimal digits
const valhallaPrecision = 6

// IsValid checks if the transport mode is valid
func (m TransportMode) IsValid() bool {
	switch m {
	case ModeWalking, ModeBiking, ModeAuto:
		return true
	default:
		return false
	}
}

// IsValid checks if the router kind is known
func (k RouterKind) IsValid() bool {
	switch k {
	case RouterValhalla, RouterOSRM:
		return true
	default:
		return false
	}
}

func (m TransportMode) valhallaCosting() string {
	switch m {
	case ModeWalking:
		return "pedestrian"
	case ModeBiking:
		return "bicycle"
	default:
		return "auto"
	}
}

func (m TransportMode) osrmProfile() string {
	switch m {
	case ModeWalking:
		return "foot"
	case ModeBiking:
		return "bike"
	default:
		return "driving"
	}
}
