package pngio

import (
	"bytes"
	"testing"
)

func TestFilterInverse(t *testing.T) {
	prev := []byte{0, 10, 20, 30, 40, 50, 60, 70, 80}
	cur := []byte{0, 12, 19, 33, 200, 7, 61, 90, 3}
	for _, bpp := range []int{1, 2, 4} {
		var cr [nFilter][]byte
		for i := range cr {
			cr[i] = make([]byte, len(cur))
		}
		copy(cr[0], cur)
		ft := chooseFilter(&cr, prev, bpp)

		got := append([]byte(nil), cr[ft][1:]...)
		if err := unfilter(byte(ft), got, prev[1:], bpp); err != nil {
			t.Fatalf("unfilter: %v", err)
		}
		if !bytes.Equal(got, cur[1:]) {
			t.Errorf("bpp %d filter %d: unfiltered % x, want % x", bpp, ft, got, cur[1:])
		}
	}
}

func TestEachFilterInverts(t *testing.T) {
	prev := []byte{3, 200, 17, 90, 255, 0, 128}
	cur := []byte{250, 1, 77, 90, 12, 13, 128}
	const bpp = 2
	for ft := byte(ftNone); ft <= ftPaeth; ft++ {
		enc := make([]byte, len(cur))
		for i := range cur {
			var a, b, c byte
			if i >= bpp {
				a, c = cur[i-bpp], prev[i-bpp]
			}
			b = prev[i]
			switch ft {
			case ftNone:
				enc[i] = cur[i]
			case ftSub:
				enc[i] = cur[i] - a
			case ftUp:
				enc[i] = cur[i] - b
			case ftAverage:
				enc[i] = cur[i] - byte((int(a)+int(b))/2)
			case ftPaeth:
				enc[i] = cur[i] - paeth(a, b, c)
			}
		}
		if err := unfilter(ft, enc, prev, bpp); err != nil {
			t.Fatalf("filter %d: %v", ft, err)
		}
		if !bytes.Equal(enc, cur) {
			t.Errorf("filter %d: got % x, want % x", ft, enc, cur)
		}
	}
	if err := unfilter(5, cur, prev, bpp); err == nil {
		t.Error("filter 5 accepted")
	}
}

func TestPassSize(t *testing.T) {
	total := 0
	for _, p := range interlacing {
		w, h := p.passSize(13, 7)
		total += w * h
	}
	if total != 13*7 {
		t.Errorf("passes cover %d pixels, want %d", total, 13*7)
	}
	if w, h := interlacing[1].passSize(4, 1); w != 0 || h != 1 {
		t.Errorf("pass 2 of 4x1 = %dx%d, want 0x1", w, h)
	}
}
