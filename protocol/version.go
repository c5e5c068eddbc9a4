package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ProtocolVersion is the protocol number negotiated in the handshake. Every
// codec takes one so that a wire type can change representation between
// revisions without touching call signatures.
type ProtocolVersion int32

const (
	V1_16   ProtocolVersion = 735
	V1_16_1 ProtocolVersion = 736
	V1_16_2 ProtocolVersion = 751
	V1_16_3 ProtocolVersion = 753
	V1_16_5 ProtocolVersion = 754

	CurrentVersion = V1_16_5
)

var versionNames = map[ProtocolVersion]string{
	V1_16:   "1.16",
	V1_16_1: "1.16.1",
	V1_16_2: "1.16.2",
	V1_16_3: "1.16.3",
	V1_16_5: "1.16.5",
}

func (v ProtocolVersion) String() string {
	if name, ok := versionNames[v]; ok {
		return fmt.Sprintf("%s (%d)", name, int32(v))
	}
	return fmt.Sprintf("protocol %d", int32(v))
}

// Name returns the game release name, or the bare number for unnamed versions.
func (v ProtocolVersion) Name() string {
	if name, ok := versionNames[v]; ok {
		return name
	}
	return strconv.Itoa(int(v))
}

// ParseVersion accepts either a protocol number ("754") or a release name
// ("1.16.5").
func ParseVersion(s string) (ProtocolVersion, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return ProtocolVersion(n), nil
	}
	for v, name := range versionNames {
		if name == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("protocol: unknown version %q", s)
}
