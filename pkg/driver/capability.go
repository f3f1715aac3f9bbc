package driver

// Capability tags the feature classes a device belongs to. A device may
// carry several tags (a doorbell is usually also a camera); event wiring
// is the union of all present tags.
type Capability string

const (
	CapCamera       Capability = "camera"
	CapIndoorCamera Capability = "indoor-camera"
	CapDoorbell     Capability = "doorbell"
	CapEntrySensor  Capability = "entry-sensor"
	CapMotionSensor Capability = "motion-sensor"
)

// CapabilitySet is the set of capability tags a device carries.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from tags.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the tag.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// List returns the tags in stable order.
func (s CapabilitySet) List() []Capability {
	ordered := []Capability{CapCamera, CapIndoorCamera, CapDoorbell, CapEntrySensor, CapMotionSensor}
	out := make([]Capability, 0, len(s))
	for _, c := range ordered {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Strings returns the tags as strings, for snapshots.
func (s CapabilitySet) Strings() []string {
	list := s.List()
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = string(c)
	}
	return out
}
