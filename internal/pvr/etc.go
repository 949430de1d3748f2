package pvr

import "encoding/binary"

var etcModifiers = [8][2]int32{
	{2, 8}, {5, 17}, {9, 29}, {13, 42},
	{18, 60}, {24, 80}, {33, 106}, {47, 183},
}

// DecompressETC decodes ETC1 RGB data to RGBA8888 with opaque alpha.
// Blocks are 4x4 pixels, 8 bytes each, stored big-endian in row order.
// Missing trailing blocks decode as black.
func DecompressETC(data []byte, width, height int) []byte {
	out := make([]byte, width*height*4)
	for i := 3; i < len(out); i += 4 {
		out[i] = 0xFF
	}

	bw, bh := (width+3)/4, (height+3)/4
	var px [16][3]uint8
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			off := (by*bw + bx) * 8
			if off+8 > len(data) {
				return out
			}
			decodeETCBlock(binary.BigEndian.Uint32(data[off:]), binary.BigEndian.Uint32(data[off+4:]), &px)

			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					ox, oy := bx*4+x, by*4+y
					if ox >= width || oy >= height {
						continue
					}
					pos := (oy*width + ox) * 4
					c := px[x*4+y]
					out[pos], out[pos+1], out[pos+2] = c[0], c[1], c[2]
				}
			}
		}
	}
	return out
}

// decodeETCBlock fills px, indexed x*4+y, from one block.
func decodeETCBlock(hi, lo uint32, px *[16][3]uint8) {
	var base [2][3]int32
	if hi&2 != 0 {
		// differential: 5-bit base plus a signed 3-bit delta
		for c := 0; c < 3; c++ {
			shift := 27 - 8*c
			b := int32((hi >> shift) & 0x1F)
			delta := int32(int8(((hi>>(shift-3))&7)<<5)) >> 5
			base[0][c] = expand5(b)
			base[1][c] = expand5((b + delta) & 0x1F)
		}
	} else {
		for c := 0; c < 3; c++ {
			shift := 28 - 8*c
			base[0][c] = expand4(int32((hi >> shift) & 0xF))
			base[1][c] = expand4(int32((hi >> (shift - 4)) & 0xF))
		}
	}

	tables := [2]int{int((hi >> 5) & 7), int((hi >> 2) & 7)}
	flip := hi&1 != 0

	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			sub := 0
			if (flip && y >= 2) || (!flip && x >= 2) {
				sub = 1
			}
			i := x*4 + y
			msb := (lo >> (16 + i)) & 1
			lsb := (lo >> i) & 1
			mod := etcModifiers[tables[sub]][lsb]
			if msb != 0 {
				mod = -mod
			}
			for c := 0; c < 3; c++ {
				px[i][c] = clampByte(base[sub][c] + mod)
			}
		}
	}
}

func expand4(v int32) int32 { return v<<4 | v }
func expand5(v int32) int32 { return v<<3 | v>>2 }

func clampByte(v int32) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
