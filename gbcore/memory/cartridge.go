package memory

import "github.com/kobold-systems/lr35902/gbcore/util"

const titleLength = 11

const (
	entryPointAddress       = 0x100
	logoAddress             = 0x104
	titleAddress            = 0x134
	manufacturerCodeAddress = 0x13F
	cgbFlagAddress          = 0x143
	newLicenseCodeAddress   = 0x144
	sgbFlagAddress          = 0x146
	cartridgeTypeAddress    = 0x147
	romSizeAddress          = 0x148
	ramSizeAddress          = 0x149
	destinationCodeAddress  = 0x14A
	oldLicenseCodeAddress   = 0x14B
	versionNumberAddress    = 0x14C
	headerChecksumAddress   = 0x14D
	globalChecksumAddress   = 0x14E
)

// MBCType identifies which memory bank controller a cartridge header
// declares, per the 0x0147 cartridge-kind byte.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

// ramBankCounts maps the 0x0149 RAM-size header byte to a bank count.
var ramBankCounts = [...]uint8{0, 1, 1, 4, 16, 8}

func mbcTypeForCartByte(b uint8) MBCType {
	switch {
	case b == 0x00:
		return NoMBCType
	case b >= 0x01 && b <= 0x03:
		return MBC1Type
	case b == 0x05 || b == 0x06:
		return MBC2Type
	case b >= 0x0F && b <= 0x13:
		return MBC3Type
	case b >= 0x19 && b <= 0x1E:
		return MBC5Type
	default:
		return MBCUnknownType
	}
}

// hasBatteryForCartByte reports whether the cartridge kind includes a
// battery backing its external RAM (and, for MBC3, its RTC), per the
// standard cartridge-type table.
func hasBatteryForCartByte(b uint8) bool {
	switch b {
	case 0x03, 0x06, 0x09, 0x0D, 0x0F, 0x10, 0x13, 0x1B, 0x1E:
		return true
	default:
		return false
	}
}

func hasRTCForCartByte(b uint8) bool {
	return b == 0x0F || b == 0x10
}

func hasRumbleForCartByte(b uint8) bool {
	return b == 0x1C || b == 0x1D || b == 0x1E
}

type Cartridge struct {
	data           []byte
	title          string
	headerChecksum uint16
	globalChecksum uint16
	version        uint8
	cartType       uint8
	romSize        uint8
	ramSize        uint8

	mbcType      MBCType
	hasBattery   bool
	hasRTC       bool
	hasRumble    bool
	ramBankCount uint8
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x10000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData initializes a new Cartridge from a slice of bytes,
// decoding the header at 0x0100-0x014F per the documented layout.
func NewCartridgeWithData(bytes []byte) *Cartridge {
	titleBytes := bytes[titleAddress : titleAddress+titleLength]
	cartType := bytes[cartridgeTypeAddress]
	ramSize := bytes[ramSizeAddress]

	ramBanks := uint8(0)
	if int(ramSize) < len(ramBankCounts) {
		ramBanks = ramBankCounts[ramSize]
	}

	cart := &Cartridge{
		data:           make([]byte, len(bytes)),
		title:          cleanGameboyTitle(titleBytes),
		headerChecksum: util.CombineBytes(bytes[headerChecksumAddress+1], bytes[headerChecksumAddress]),
		globalChecksum: util.CombineBytes(bytes[globalChecksumAddress+1], bytes[globalChecksumAddress]),
		version:        bytes[versionNumberAddress],
		cartType:       cartType,
		romSize:        bytes[romSizeAddress],
		ramSize:        ramSize,

		mbcType:      mbcTypeForCartByte(cartType),
		hasBattery:   hasBatteryForCartByte(cartType),
		hasRTC:       hasRTCForCartByte(cartType),
		hasRumble:    hasRumbleForCartByte(cartType),
		ramBankCount: ramBanks,
	}

	copy(cart.data, bytes)

	return cart
}

// Title returns the cleaned-up game title from the cartridge header.
func (c Cartridge) Title() string {
	return c.title
}

// HasBattery reports whether this cartridge's external RAM (and RTC, for
// MBC3) survives a power cycle.
func (c Cartridge) HasBattery() bool {
	return c.hasBattery
}

// ReadByte reads a byte at the specified address. Does not check bounds, so the caller must make sure the
// address is valid for the cartridge.
func (c Cartridge) ReadByte(addr uint16) uint8 {
	return c.data[addr]
}

// WriteByte attempts a write to the specified address. Writing to a cartridge has sense if the cartridge
// has extra RAM or for some special operations, like switching ROM banks.
func (c Cartridge) WriteByte(addr uint16, value uint8) uint8 {
	return c.data[addr]
}
