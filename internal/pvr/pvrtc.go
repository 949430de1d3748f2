package pvr

import "encoding/binary"

const (
	blockHeight   = 4
	blockWidth2   = 8
	blockWidth4   = 4
	punchThrough  = 2
	pvrtcBlockLen = 8
)

// pvrtcBlock is one 64-bit PVRTC word pair: modulation bits, then the two
// packed base colours with the mode bit in bit 0.
type pvrtcBlock struct {
	mod    uint32
	colour uint32
}

// pvrtcDecoder holds the 2x2 block neighbourhood currently being sampled.
type pvrtcDecoder struct {
	twoBit  bool
	colours [2][2][2][4]int32 // [blockY][blockX][A/B][rgba]
	modVals [8][16]int32
	modes   [8][16]int32
}

// DecompressPVRTC decodes PVRTC 2bpp or 4bpp data to RGBA8888. Textures
// smaller than the format's minimum are decoded at the minimum size and
// cropped; sizes are rounded up to powers of two the same way. Missing
// trailing blocks decode as zero.
func DecompressPVRTC(data []byte, twoBit bool, width, height int) []byte {
	xBlock, minW, minH := blockWidth4, pvrtc4MinWidth, pvrtc4MinHeight
	if twoBit {
		xBlock, minW, minH = blockWidth2, pvrtc2MinWidth, pvrtc2MinHeight
	}
	xDim := nextPowerOfTwo(max(width, minW))
	yDim := nextPowerOfTwo(max(height, minH))

	blkXDim := max(2, xDim/xBlock)
	blkYDim := max(2, yDim/blockHeight)
	blocks := make([]pvrtcBlock, blkXDim*blkYDim)
	for i := range blocks {
		off := i * pvrtcBlockLen
		if off+pvrtcBlockLen > len(data) {
			break
		}
		blocks[i] = pvrtcBlock{
			mod:    binary.LittleEndian.Uint32(data[off:]),
			colour: binary.LittleEndian.Uint32(data[off+4:]),
		}
	}

	full := make([]byte, xDim*yDim*4)
	d := &pvrtcDecoder{twoBit: twoBit}
	var prev [2][2]int
	prev[0][0] = -1

	for y := 0; y < yDim; y++ {
		for x := 0; x < xDim; x++ {
			blkX := ((x - xBlock/2) & (xDim - 1)) / xBlock
			blkY := ((y - blockHeight/2) & (yDim - 1)) / blockHeight
			blkXp1 := (blkX + 1) & (blkXDim - 1)
			blkYp1 := (blkY + 1) & (blkYDim - 1)

			idx := [2][2]int{
				{twiddleUV(blkYDim, blkXDim, blkY, blkX), twiddleUV(blkYDim, blkXDim, blkY, blkXp1)},
				{twiddleUV(blkYDim, blkXDim, blkYp1, blkX), twiddleUV(blkYDim, blkXDim, blkYp1, blkXp1)},
			}
			if idx != prev {
				for i := 0; i < 2; i++ {
					for j := 0; j < 2; j++ {
						b := blocks[idx[i][j]]
						d.colours[i][j] = unpack5554(b.colour)
						d.unpackModulations(b, j*xBlock, i*blockHeight)
					}
				}
				prev = idx
			}

			a := d.interpolate(0, x, y)
			bc := d.interpolate(1, x, y)
			mod, pt := d.modulation(x, y)

			pos := (y*xDim + x) * 4
			for k := 0; k < 4; k++ {
				full[pos+k] = uint8((a[k]*8 + mod*(bc[k]-a[k])) >> 3)
			}
			if pt {
				full[pos+3] = 0
			}
		}
	}

	return crop(full, xDim, width, height)
}

// unpack5554 extracts colours A and B at 5554 precision.
func unpack5554(colour uint32) [2][4]int32 {
	var out [2][4]int32
	raw := [2]uint32{colour & 0xFFFE, colour >> 16}

	for i, r := range raw {
		c := &out[i]
		if r&(1<<15) != 0 {
			c[0] = int32((r >> 10) & 0x1F)
			c[1] = int32((r >> 5) & 0x1F)
			c[2] = int32(r & 0x1F)
			if i == 0 {
				c[2] |= c[2] >> 4
			}
			c[3] = 0xF
			continue
		}

		c[0] = int32((r >> 7) & 0x1E)
		c[1] = int32((r >> 3) & 0x1E)
		c[0] |= c[0] >> 4
		c[1] |= c[1] >> 4
		c[2] = int32((r & 0xF) << 1)
		if i == 0 {
			c[2] |= c[2] >> 3
		} else {
			c[2] |= c[2] >> 4
		}
		c[3] = int32((r >> 11) & 0xE)
	}
	return out
}

// unpackModulations stores the explicit modulation values of one block at
// (startX, startY) in the neighbourhood grid.
func (d *pvrtcDecoder) unpackModulations(b pvrtcBlock, startX, startY int) {
	mode := int32(b.colour & 1)
	bits := b.mod

	switch {
	case d.twoBit && mode != 0:
		// Bit 0 selects H+V or single-axis interpolation; bits 20 and 21
		// pick the axis and restore the stolen bit.
		if bits&1 != 0 {
			if bits&(1<<20) != 0 {
				mode = 3
			} else {
				mode = 2
			}
			if bits&(1<<21) != 0 {
				bits |= 1 << 20
			} else {
				bits &^= 1 << 20
			}
		}
		if bits&2 != 0 {
			bits |= 1
		} else {
			bits &^= 1
		}
		for y := 0; y < blockHeight; y++ {
			for x := 0; x < blockWidth2; x++ {
				d.modes[y+startY][x+startX] = mode
				if (x^y)&1 == 0 {
					d.modVals[y+startY][x+startX] = int32(bits & 3)
					bits >>= 2
				}
			}
		}

	case d.twoBit:
		for y := 0; y < blockHeight; y++ {
			for x := 0; x < blockWidth2; x++ {
				d.modes[y+startY][x+startX] = mode
				if bits&1 != 0 {
					d.modVals[y+startY][x+startX] = 3
				} else {
					d.modVals[y+startY][x+startX] = 0
				}
				bits >>= 1
			}
		}

	default:
		for y := 0; y < blockHeight; y++ {
			for x := 0; x < blockWidth4; x++ {
				d.modes[y+startY][x+startX] = mode
				d.modVals[y+startY][x+startX] = int32(bits & 3)
				bits >>= 2
			}
		}
	}
}

// local maps a pixel to its position in the 2x2 block neighbourhood grid.
func (d *pvrtcDecoder) local(x, y int) (int, int) {
	ly := (y & 3) | ((^y & 2) << 1)
	if d.twoBit {
		return (x & 7) | ((^x & 4) << 1), ly
	}
	return (x & 3) | ((^x & 2) << 1), ly
}

// interpolate bilinearly blends colour A (which=0) or B (which=1) of the
// four neighbouring blocks and expands the result to 8 bits per channel.
func (d *pvrtcDecoder) interpolate(which, x, y int) [4]int32 {
	u, v := d.local(x, y)
	v -= blockHeight / 2
	uscale := int32(blockWidth4)
	if d.twoBit {
		u -= blockWidth2 / 2
		uscale = blockWidth2
	} else {
		u -= blockWidth4 / 2
	}

	p := d.colours[0][0][which]
	q := d.colours[0][1][which]
	r := d.colours[1][0][which]
	s := d.colours[1][1][which]

	var out [4]int32
	for k := 0; k < 4; k++ {
		top := p[k]*uscale + int32(u)*(q[k]-p[k])
		bottom := r[k]*uscale + int32(u)*(s[k]-r[k])
		out[k] = top*4 + int32(v)*(bottom-top)
	}

	if d.twoBit {
		for k := 0; k < 3; k++ {
			out[k] >>= 2
		}
		out[3] >>= 1
	} else {
		for k := 0; k < 3; k++ {
			out[k] >>= 1
		}
	}

	for k := 0; k < 3; k++ {
		out[k] += out[k] >> 5
	}
	out[3] += out[3] >> 4
	return out
}

var (
	modRep0 = [4]int32{0, 3, 5, 8}
	modRep1 = [4]int32{0, 4, 4, 8}
)

// modulation returns the blend weight in eighths and whether the pixel is
// punched through.
func (d *pvrtcDecoder) modulation(x, y int) (int32, bool) {
	lx, ly := d.local(x, y)
	mode := d.modes[ly][lx]
	val := d.modVals[ly][lx]

	switch {
	case mode == 0:
		return modRep0[val], false
	case d.twoBit:
		if (lx^ly)&1 == 0 {
			return modRep0[val], false
		}
		up := modRep0[d.modVals[ly-1][lx]]
		down := modRep0[d.modVals[ly+1][lx]]
		left := modRep0[d.modVals[ly][lx-1]]
		right := modRep0[d.modVals[ly][lx+1]]
		switch mode {
		case 1:
			return (up + down + left + right + 2) / 4, false
		case 2:
			return (left + right + 1) / 2, false
		default:
			return (up + down + 1) / 2, false
		}
	default:
		return modRep1[val], val == punchThrough
	}
}

// crop copies the top-left width x height pixels out of an RGBA image that
// is stride pixels wide.
func crop(src []byte, stride, width, height int) []byte {
	if stride == width && len(src) == width*height*4 {
		return src
	}
	out := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		copy(out[y*width*4:(y+1)*width*4], src[y*stride*4:])
	}
	return out
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
