package pvr

// twiddleUV returns the Morton order offset of (x, y) in a ySize by xSize
// grid of pixels or blocks. Both sizes must be powers of two. Y bits land
// on even bit positions and X bits on odd ones; whatever the longer side
// has beyond the shorter is appended above the interleaved bits.
func twiddleUV(ySize, xSize, y, x int) int {
	minDim, rest := xSize, y
	if ySize < xSize {
		minDim, rest = ySize, x
	}

	twiddled := 0
	src, dst, shift := 1, 1, 0
	for src < minDim {
		if y&src != 0 {
			twiddled |= dst
		}
		if x&src != 0 {
			twiddled |= dst << 1
		}
		src <<= 1
		dst <<= 2
		shift++
	}

	return twiddled | (rest>>shift)<<(2*shift)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
