package protocol

import (
	"fmt"

	"sechub/pkg/errors"
)

// Supported schema version range. MaxSchemaVersion is the highest version
// any emitted event or snapshot shape references; bump it when a new shape
// variant is introduced, never mutate an existing variant.
const (
	MinSchemaVersion = 0
	MaxSchemaVersion = 7
)

// NegotiateSchema validates a client-requested schema version. The
// version must be an integer in [MinSchemaVersion, MaxSchemaVersion];
// anything else is a client-input error and never touches the driver.
func NegotiateSchema(requested int) (int, error) {
	if requested < MinSchemaVersion || requested > MaxSchemaVersion {
		return 0, errors.Codef(errors.CodeSchemaInvalid,
			"schema version %d out of range [%d, %d]",
			requested, MinSchemaVersion, MaxSchemaVersion)
	}
	return requested, nil
}

// VersionWindow is the inclusive protocol-version range in which a given
// event shape is valid. The same domain occurrence may be rendered into
// two envelopes with disjoint windows (dual emission), never one envelope
// two ways.
type VersionWindow struct {
	Min int
	Max int
}

// Window builds an inclusive version window.
func Window(min, max int) VersionWindow {
	return VersionWindow{Min: min, Max: max}
}

// Since builds a window open-ended at the current maximum version.
func Since(min int) VersionWindow {
	return VersionWindow{Min: min, Max: MaxSchemaVersion}
}

// AllVersions covers every supported schema version.
func AllVersions() VersionWindow {
	return VersionWindow{Min: MinSchemaVersion, Max: MaxSchemaVersion}
}

// Contains reports whether version lies in the window.
func (w VersionWindow) Contains(version int) bool {
	return version >= w.Min && version <= w.Max
}

// String implements fmt.Stringer for logging.
func (w VersionWindow) String() string {
	return fmt.Sprintf("[%d,%d]", w.Min, w.Max)
}
