package pngio

// expand converts width stored pixels in src into output pixels in dst,
// applying bit expansion, palette lookup, tRNS to alpha, gamma and byte
// swapping as configured.
func (d *Reader) expand(dst, src []byte, width int) {
	in := &d.info
	alpha := d.trnsToAlpha && in.HasTRNS
	out := dst[:width*d.outChannels*d.outDepth/8]

	switch {
	case in.ColorType == ColorPalette:
		d.expandPalette(out, src, width, alpha)
	case in.ColorType == ColorGray && in.BitDepth < 8:
		d.expandPackedGray(out, src, width, alpha)
	case alpha && in.ColorType == ColorGray:
		d.addGrayAlpha(out, src, width)
	case alpha && in.ColorType == ColorRGB:
		d.addRGBAlpha(out, src, width)
	default:
		copy(out, src)
	}

	d.gamma.TransformRow(out, d.outChannels, d.outDepth, alpha || in.ColorType == ColorGrayAlpha || in.ColorType == ColorRGBA)

	if d.swap && d.outDepth == 16 {
		for i := 0; i+1 < len(out); i += 2 {
			out[i], out[i+1] = out[i+1], out[i]
		}
	}
}

// sample returns the i-th packed sample of depth bits.
func sample(src []byte, i, depth int) uint8 {
	bit := i * depth
	shift := 8 - depth - bit%8
	return (src[bit/8] >> shift) & (1<<depth - 1)
}

func (d *Reader) expandPalette(out, src []byte, width int, alpha bool) {
	in := &d.info
	n := 3
	if alpha {
		n = 4
	}
	warned := false
	for x := 0; x < width; x++ {
		idx := int(sample(src, x, in.BitDepth))
		px := out[x*n : x*n+n]
		if idx >= len(in.Palette) {
			if !warned {
				d.warn("palette index %d out of range", idx)
				warned = true
			}
			clear(px)
			continue
		}
		copy(px, in.Palette[idx][:])
		if alpha {
			px[3] = 0xff
			if idx < len(in.TRNS) {
				px[3] = in.TRNS[idx]
			}
		}
	}
}

func (d *Reader) expandPackedGray(out, src []byte, width int, alpha bool) {
	depth := d.info.BitDepth
	scale := uint8(0xff / (1<<depth - 1))
	var transparent uint16 = 0xffff
	if alpha {
		transparent = d.info.trnsGray()
	}
	n := 1
	if alpha {
		n = 2
	}
	for x := 0; x < width; x++ {
		s := sample(src, x, depth)
		out[x*n] = s * scale
		if alpha {
			out[x*n+1] = 0xff
			if uint16(s) == transparent {
				out[x*n+1] = 0
			}
		}
	}
}

func (d *Reader) addGrayAlpha(out, src []byte, width int) {
	t := d.info.trnsGray()
	if d.info.BitDepth == 16 {
		for x := 0; x < width; x++ {
			s := src[2*x : 2*x+2]
			a := byte(0xff)
			if uint16(s[0])<<8|uint16(s[1]) == t {
				a = 0
			}
			copy(out[4*x:], s)
			out[4*x+2], out[4*x+3] = a, a
		}
		return
	}
	for x := 0; x < width; x++ {
		out[2*x] = src[x]
		out[2*x+1] = 0xff
		if uint16(src[x]) == t {
			out[2*x+1] = 0
		}
	}
}

func (d *Reader) addRGBAlpha(out, src []byte, width int) {
	tr, tg, tb := d.info.trnsRGB()
	if d.info.BitDepth == 16 {
		for x := 0; x < width; x++ {
			s := src[6*x : 6*x+6]
			a := byte(0xff)
			if uint16(s[0])<<8|uint16(s[1]) == tr &&
				uint16(s[2])<<8|uint16(s[3]) == tg &&
				uint16(s[4])<<8|uint16(s[5]) == tb {
				a = 0
			}
			copy(out[8*x:], s)
			out[8*x+6], out[8*x+7] = a, a
		}
		return
	}
	for x := 0; x < width; x++ {
		s := src[3*x : 3*x+3]
		copy(out[4*x:], s)
		out[4*x+3] = 0xff
		if uint16(s[0]) == tr && uint16(s[1]) == tg && uint16(s[2]) == tb {
			out[4*x+3] = 0
		}
	}
}
