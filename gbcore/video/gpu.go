package video

import (
	"github.com/kobold-systems/lr35902/gbcore/addr"
	"github.com/kobold-systems/lr35902/gbcore/bit"
	"github.com/kobold-systems/lr35902/gbcore/memory"
)

type GpuMode int

const (
	oamRead GpuMode = iota
	vramRead
	hblank
	vblank
)

const (
	hblankCycles       = 204
	oamScanlineCycles  = 80
	vramScanlineCycles = 172
	scanlineCycles     = oamScanlineCycles + vramScanlineCycles + hblankCycles
)

type GPU struct {
	memory      *memory.MMU
	screen      *Screen
	framebuffer *FrameBuffer
	oam         *OAM

	line       uint8
	vblankLine int
	mode       GpuMode
	cycles     int

	// windowLine tracks the window's own internal scanline counter, which
	// only advances on lines where the window is actually drawn.
	windowLine int
}

func NewGpu(screen *Screen, memory *memory.MMU) *GPU {
	fb := NewFrameBuffer()
	return &GPU{
		framebuffer: fb,
		screen:      screen,
		memory:      memory,
		oam:         NewOAM(memory),
		mode:        oamRead,
		line:        0,
		cycles:      0,
		windowLine:  -1,
	}
}

// FrameBuffer returns the GPU's current framebuffer.
func (g *GPU) FrameBuffer() *FrameBuffer {
	return g.framebuffer
}

// Line returns the current scanline (LY).
func (g *GPU) Line() uint8 {
	return g.line
}

// Tick simulates gpu behaviour for a certain amount of clock cycles.
func (g *GPU) Tick(cycles int) {
	if g.readLCDCVariable(lcdDisplayEnable) == 0 {
		// With the display off the PPU is held at the start of OAM scan and
		// LY is forced to 0, per real hardware behaviour.
		if g.mode != oamRead || g.line != 0 {
			g.mode = oamRead
			g.line = 0
			g.cycles = 0
			g.windowLine = -1
			g.memory.Write(addr.LY, 0)
			g.updateStatMode()
		}
		return
	}

	g.cycles += cycles

	switch g.mode {
	case oamRead:
		if g.cycles >= oamScanlineCycles {
			g.cycles %= oamScanlineCycles
			g.mode = vramRead
			g.updateStatMode()
		}
	case vramRead:
		if g.cycles >= vramScanlineCycles {
			g.cycles %= vramScanlineCycles
			g.mode = hblank
			g.updateStatMode()

			// Pixel transfer for the scanline completes at the end of mode 3.
			g.drawScanline(int(g.line))
		}
	case hblank:
		if g.cycles >= hblankCycles {
			g.line++
			g.memory.Write(addr.LY, g.line)
			g.compareLYToLYC()

			g.cycles %= hblankCycles
			g.mode = oamRead

			if g.line == 144 {
				g.mode = vblank
				g.vblankLine = 0

				g.memory.RequestInterrupt(addr.VBlankInterrupt)
			}

			g.updateStatMode()
		}
	case vblank:
		if g.cycles >= scanlineCycles {
			g.line++
			g.cycles %= scanlineCycles

			if g.line == 154 {
				if g.screen != nil {
					g.screen.Draw(g.framebuffer.ToSlice())
				}
				g.line = 0
				g.windowLine = -1
				g.mode = oamRead
				g.updateStatMode()
			}

			g.memory.Write(addr.LY, g.line)
			g.compareLYToLYC()
		}
	}
}

// STAT (0xFF41) bit layout.
// Bit 6 - LYC=LY interrupt enable
// Bit 5 - Mode 2 (OAM) interrupt enable
// Bit 4 - Mode 1 (VBlank) interrupt enable
// Bit 3 - Mode 0 (HBlank) interrupt enable
// Bit 2 - LYC=LY coincidence flag
// Bit 1-0 - current mode
const (
	statLYCInterruptEnable uint8 = 1 << 6
	statMode2InterruptEnable    = 1 << 5
	statMode1InterruptEnable    = 1 << 4
	statMode0InterruptEnable    = 1 << 3
	statCoincidenceFlag         = 1 << 2
)

// updateStatMode writes the current GPU mode into STAT bits 1-0 and raises
// the LCD STAT interrupt if the newly entered mode has its interrupt source
// enabled.
func (g *GPU) updateStatMode() {
	stat := g.memory.Read(addr.STAT)
	stat = stat&^0x03 | uint8(g.mode)&0x03
	g.memory.Write(addr.STAT, stat)

	var source uint8
	switch g.mode {
	case hblank:
		source = statMode0InterruptEnable
	case vblank:
		source = statMode1InterruptEnable
	case oamRead:
		source = statMode2InterruptEnable
	}

	if source != 0 && stat&source != 0 {
		g.memory.RequestInterrupt(addr.LCDSTATInterrupt)
	}
}

// compareLYToLYC updates the STAT coincidence flag against LYC and raises
// the LCD STAT interrupt when the comparison holds and its interrupt source
// is enabled.
func (g *GPU) compareLYToLYC() {
	stat := g.memory.Read(addr.STAT)
	lyc := g.memory.Read(addr.LYC)

	if g.line == lyc {
		stat |= statCoincidenceFlag
		if stat&statLYCInterruptEnable != 0 {
			g.memory.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	} else {
		stat &^= statCoincidenceFlag
	}

	g.memory.Write(addr.STAT, stat)
}

// drawScanline renders one row of background, window and sprite pixels into
// the framebuffer. It is called once per scanline, when mode 3 (pixel
// transfer) completes.
func (g *GPU) drawScanline(line int) {
	if line < 0 || line >= FramebufferHeight {
		return
	}

	lcdc := g.memory.Read(addr.LCDC)
	if g.readLCDCVariable(lcdDisplayEnable) == 0 {
		return
	}

	// bgPriority[x] is true where the background/window drew a non-zero
	// color index, used to resolve the OBJ-to-BG priority bit.
	var bgPriority [FramebufferWidth]bool

	if g.readLCDCVariable(bgDisplay) != 0 {
		g.drawBackgroundLine(lcdc, line, &bgPriority)
	}

	if g.readLCDCVariable(windowDisplayEnable) != 0 {
		g.drawWindowLine(lcdc, line, &bgPriority)
	}

	if g.readLCDCVariable(spriteDisplayEnable) != 0 {
		g.drawSpriteLine(line, &bgPriority)
	}
}

func (g *GPU) drawBackgroundLine(lcdc uint8, line int, bgPriority *[FramebufferWidth]bool) {
	scx := g.memory.Read(addr.SCX)
	scy := g.memory.Read(addr.SCY)
	palette := g.memory.Read(addr.BGP)

	mapY := uint8(line) + scy

	for x := 0; x < FramebufferWidth; x++ {
		mapX := uint8(x) + scx
		colorIndex := g.tileMapColorIndex(lcdc, false, mapX, mapY)
		bgPriority[x] = colorIndex != 0
		g.framebuffer.SetPixel(uint(x), uint(line), applyPalette(palette, colorIndex))
	}
}

func (g *GPU) drawWindowLine(lcdc uint8, line int, bgPriority *[FramebufferWidth]bool) {
	wy := int(g.memory.Read(addr.WY))
	wx := int(g.memory.Read(addr.WX)) - 7

	if line < wy || wx >= FramebufferWidth {
		return
	}

	g.windowLine++
	palette := g.memory.Read(addr.BGP)
	windowY := uint8(g.windowLine)

	for x := max(0, wx); x < FramebufferWidth; x++ {
		windowX := uint8(x - wx)
		colorIndex := g.tileMapColorIndex(lcdc, true, windowX, windowY)
		bgPriority[x] = colorIndex != 0
		g.framebuffer.SetPixel(uint(x), uint(line), applyPalette(palette, colorIndex))
	}
}

func (g *GPU) drawSpriteLine(line int, bgPriority *[FramebufferWidth]bool) {
	obp0 := g.memory.Read(addr.OBP0)
	obp1 := g.memory.Read(addr.OBP1)

	sprites := g.oam.GetSpritesForScanline(line)
	for i := range sprites {
		s := &sprites[i]
		if !s.HasPriorityForAnyPixel() {
			continue
		}

		rowInSprite := line - int(s.Y)

		tileIndex := int(s.TileIndex)
		if s.Height == 16 {
			tileIndex &= 0xFE
		}
		if s.FlipY {
			rowInSprite = s.Height - 1 - rowInSprite
		}

		tileNum := tileIndex
		rowInTile := rowInSprite
		if rowInTile >= 8 {
			tileNum++
			rowInTile -= 8
		}

		tile := FetchTile(g.memory, uint16(0x8000+tileNum*16))

		palette := obp0
		if s.PaletteOBP1 {
			palette = obp1
		}

		for px := 0; px < 8; px++ {
			screenX := int(s.X) + px
			if screenX < 0 || screenX >= FramebufferWidth {
				continue
			}
			if !s.HasPriorityForPixel(px) {
				continue
			}

			var colorIndex int
			if s.FlipX {
				colorIndex = tile.Rows[rowInTile].GetPixelFlipped(px)
			} else {
				colorIndex = tile.Rows[rowInTile].GetPixel(px)
			}

			if colorIndex == 0 {
				continue // color 0 is always transparent for sprites
			}
			if s.BehindBG && bgPriority[screenX] {
				continue
			}

			g.framebuffer.SetPixel(uint(screenX), uint(line), applyPalette(palette, colorIndex))
		}
	}
}

// tileMapColorIndex resolves a single pixel's raw 2-bit color index from
// either the background or window tile map, handling the LCDC tile
// map/data-select bits and the signed tile numbering used when the
// 0x8800-0x97FF addressing mode is selected.
func (g *GPU) tileMapColorIndex(lcdc uint8, window bool, mapX, mapY uint8) int {
	tileMapBase := uint16(0x9800)
	selectBit := bgTileMapDisplaySelect
	if window {
		selectBit = windowTileMapSelect
	}
	if bit.IsSet(uint8(selectBit), lcdc) {
		tileMapBase = 0x9C00
	}

	tileCol := uint16(mapX) / 8
	tileRow := uint16(mapY) / 8
	tileNumber := g.memory.Read(tileMapBase + tileRow*32 + tileCol)

	var tileDataAddr uint16
	if bit.IsSet(uint8(bgWindowTileDataSelect), lcdc) {
		tileDataAddr = 0x8000 + uint16(tileNumber)*16
	} else {
		tileDataAddr = uint16(int32(0x9000) + int32(int8(tileNumber))*16)
	}

	tile := FetchTile(g.memory, tileDataAddr)
	return tile.GetPixel(int(mapX%8), int(mapY%8))
}

// applyPalette maps a raw 2-bit color index through a BGP/OBP0/OBP1
// palette register into one of the four Game Boy shades.
func applyPalette(palette uint8, colorIndex int) GBColor {
	shade := (palette >> (uint(colorIndex) * 2)) & 0x03

	switch shade {
	case 0:
		return WhiteColor
	case 1:
		return LightGreyColor
	case 2:
		return DarkGreyColor
	default:
		return BlackColor
	}
}

// LCDC (LCD Control) Register bit values
// Bit 7 - LCD Display Enable (0=Off, 1=On)
// Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 5 - Window Display Enable (0=Off, 1=On)
// Bit 4 - BG & Window Tile Data Select (0=8800-97FF, 1=8000-8FFF)
// Bit 3 - BG Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 2 - OBJ (Sprite) Size (0=8x8, 1=8x16)
// Bit 1 - OBJ (Sprite) Display Enable (0=Off, 1=On)
// Bit 0 - BG Display (0=Off, 1=On)

type lcdcFlag uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect             = 6
	windowDisplayEnable             = 5
	bgWindowTileDataSelect          = 4
	bgTileMapDisplaySelect          = 3
	spriteSize                      = 2
	spriteDisplayEnable             = 1
	bgDisplay                       = 0
)

func (g *GPU) readLCDCVariable(flag lcdcFlag) byte {
	if bit.IsSet(uint8(flag), g.memory.Read(addr.LCDC)) {
		return 1
	}

	return 0
}

func (g *GPU) setLCDCVariable(flag lcdcFlag, shouldSet bool) {
	lcdcRegister := g.memory.Read(addr.LCDC)

	if shouldSet {
		lcdcRegister = bit.Set(uint8(flag), lcdcRegister)
	} else {
		lcdcRegister = bit.Clear(uint8(flag), lcdcRegister)
	}

	g.memory.Write(addr.LCDC, lcdcRegister)
}
