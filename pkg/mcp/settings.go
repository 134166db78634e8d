// Package mcp implements the system product settings accessor of the
// console's master control process (MCP).
//
// The settings are exchanged as a fixed 0x46-byte big-endian record. Only
// the platform and game region bytes have a known meaning; every other
// byte is carried through unchanged so records produced by real hardware
// survive a decode/encode round trip.
//
// # Record Layout (0x46 bytes)
//
//	┌────────┬──────┬─────────────────┐
//	│ Offset │ Size │ Field           │
//	├────────┼──────┼─────────────────┤
//	│  0x00  │    3 │ unknown         │
//	│  0x03  │    1 │ platform region │
//	│  0x04  │    7 │ unknown         │
//	│  0x0B  │    1 │ game region     │
//	│  0x0C  │ 0x3A │ unknown         │
//	└────────┴──────┴─────────────────┘
package mcp

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// SysProdSettingsSize is the encoded size of SysProdSettings.
	SysProdSettingsSize = 0x46

	offPlatformRegion = 0x03
	offGameRegion     = 0x0B
)

// ErrInvalidRecord is returned when decoding a record of the wrong size.
var ErrInvalidRecord = errors.New("invalid sys prod settings record")

// Region is a console sales region.
type Region uint8

const (
	RegionJapan  Region = 0x01
	RegionUSA    Region = 0x02
	RegionEurope Region = 0x04
	RegionChina  Region = 0x10
	RegionKorea  Region = 0x20
	RegionTaiwan Region = 0x40
)

var regionNames = map[Region]string{
	RegionJapan:  "JPN",
	RegionUSA:    "USA",
	RegionEurope: "EUR",
	RegionChina:  "CHN",
	RegionKorea:  "KOR",
	RegionTaiwan: "TWN",
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Region(0x%02x)", uint8(r))
}

// Regions returns every known region in ascending code order.
func Regions() []Region {
	return []Region{RegionJapan, RegionUSA, RegionEurope, RegionChina, RegionKorea, RegionTaiwan}
}

// Valid reports whether r is one of the known regions.
func (r Region) Valid() bool {
	_, ok := regionNames[r]
	return ok
}

// ParseRegion parses a region code such as "USA" or "eur".
func ParseRegion(s string) (Region, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for r, name := range regionNames {
		if name == upper {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown region %q", s)
}

// SysProdSettings is the system product settings record.
type SysProdSettings struct {
	PlatformRegion Region
	GameRegion     Region

	// raw holds the record as last decoded, including unknown bytes.
	raw [SysProdSettingsSize]byte
}

// NewSysProdSettings returns a record with both regions set to region and
// every unknown byte zeroed.
func NewSysProdSettings(region Region) *SysProdSettings {
	return &SysProdSettings{PlatformRegion: region, GameRegion: region}
}

// MarshalBinary encodes the record.
func (s *SysProdSettings) MarshalBinary() ([]byte, error) {
	out := make([]byte, SysProdSettingsSize)
	s.encode(out)
	return out, nil
}

func (s *SysProdSettings) encode(out []byte) {
	copy(out, s.raw[:])
	out[offPlatformRegion] = byte(s.PlatformRegion)
	out[offGameRegion] = byte(s.GameRegion)
}

// UnmarshalBinary decodes a record. data must be exactly
// SysProdSettingsSize bytes.
func (s *SysProdSettings) UnmarshalBinary(data []byte) error {
	if len(data) != SysProdSettingsSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidRecord, len(data), SysProdSettingsSize)
	}
	copy(s.raw[:], data)
	s.PlatformRegion = Region(data[offPlatformRegion])
	s.GameRegion = Region(data[offGameRegion])
	return nil
}
