package cache

import (
	"strconv"
	"strings"
)

// Key identifies a transcript accession: a stable ID with an optional version.
type Key struct {
	StableID   string
	Version    int
	HasVersion bool
}

// ParseKey splits an accession such as "ENST00000380152.7" on its last '.'.
// A suffix that is not a non-negative integer is kept as part of the stable ID.
func ParseKey(ac string) Key {
	idx := strings.LastIndexByte(ac, '.')
	if idx <= 0 || idx == len(ac)-1 {
		return Key{StableID: ac}
	}
	v, err := strconv.Atoi(ac[idx+1:])
	if err != nil || v < 0 {
		return Key{StableID: ac}
	}
	return Key{StableID: ac[:idx], Version: v, HasVersion: true}
}

// WithVersion returns the key pinned to a specific version.
func (k Key) WithVersion(v int) Key {
	return Key{StableID: k.StableID, Version: v, HasVersion: true}
}

// QueryVersion returns the version to request, or -1 to match any version.
func (k Key) QueryVersion() int {
	if !k.HasVersion {
		return -1
	}
	return k.Version
}

// String returns "id" or "id.version".
func (k Key) String() string {
	if !k.HasVersion {
		return k.StableID
	}
	return k.StableID + "." + strconv.Itoa(k.Version)
}
