package gpt

import (
	"github.com/google/uuid"

	"github.com/deploymenttheory/go-vboot/internal/types"
)

// Well-known partition type GUIDs, in RFC 4122 text form. The engine
// only compares against them; human-readable naming beyond the constant
// names is out of scope.
var (
	GuidChromeOSFirmware = uuid.MustParse("CAB6E88E-ABF3-4102-A07A-D4BB9BE3C1D3")
	GuidChromeOSKernel   = uuid.MustParse("FE3A2A5D-4F32-41A7-B725-ACCC3285A309")
	GuidChromeOSRootFS   = uuid.MustParse("3CB8E202-3B7E-47DD-8A3C-7FF2A13CFCEC")
	GuidChromeOSReserved = uuid.MustParse("2E0A753D-9E48-43B0-8337-B15192CB1B5E")
	GuidLinuxData        = uuid.MustParse("0FC63DAF-8483-4772-8E79-3D69D8477DE4")
	GuidLinuxSwap        = uuid.MustParse("0657FD6D-A4AB-43C4-84E5-0933C84B4F4F")
	GuidLinuxBoot        = uuid.MustParse("BC13C2FF-59E6-4262-A352-B275FD6F7172")
	GuidLinuxHome        = uuid.MustParse("933AC7E1-2EB4-4F13-B844-41B0FA0E9BC4")
	GuidLinuxLVM         = uuid.MustParse("E6D6D379-F507-44C2-A23C-238F2A3DF928")
	GuidEFISystem        = uuid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B")
	GuidBIOSBoot         = uuid.MustParse("21686148-6449-6E6F-744E-656564454649")
	GuidBasicData        = uuid.MustParse("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7")
)

// GuidToUUID converts an on-disk mixed-endian GUID to RFC 4122 ordering.
// The first three groups are stored little-endian on disk.
func GuidToUUID(g types.Guid) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]
	copy(u[8:], g[8:])
	return u
}

// UUIDToGuid converts an RFC 4122 UUID to on-disk GUID byte order.
func UUIDToGuid(u uuid.UUID) types.Guid {
	var g types.Guid
	g[0], g[1], g[2], g[3] = u[3], u[2], u[1], u[0]
	g[4], g[5] = u[5], u[4]
	g[6], g[7] = u[7], u[6]
	copy(g[8:], u[8:])
	return g
}

// NewRandomGuid returns a freshly generated unique partition GUID in
// on-disk byte order.
func NewRandomGuid() types.Guid {
	return UUIDToGuid(uuid.New())
}

// IsUnused reports whether the addressed entry slot is free.
func IsUnused(d *Drive, secondary bool, index uint32) (bool, error) {
	e, err := d.GetEntry(secondary, index)
	if err != nil {
		return false, err
	}
	return e.IsUnused(), nil
}

// IsKernel reports whether the addressed entry is a ChromeOS kernel
// partition. Unknown type GUIDs classify as false, never as an error.
func IsKernel(d *Drive, secondary bool, index uint32) (bool, error) {
	return hasType(d, secondary, index, GuidChromeOSKernel)
}

// IsRoot reports whether the addressed entry is a ChromeOS root
// filesystem partition.
func IsRoot(d *Drive, secondary bool, index uint32) (bool, error) {
	return hasType(d, secondary, index, GuidChromeOSRootFS)
}

func hasType(d *Drive, secondary bool, index uint32, t uuid.UUID) (bool, error) {
	e, err := d.GetEntry(secondary, index)
	if err != nil {
		return false, err
	}
	return GuidToUUID(e.Type) == t, nil
}
