// Package icctest builds small ICC profiles for tests.
package icctest

import (
	"encoding/binary"
	"math"
)

// Tag is one entry of a profile's tag table.
type Tag struct {
	Sig  string
	Data []byte
}

// Profile assembles a version 2 profile of the given data color space
// ("RGB ", "GRAY", "CMYK") from tags.
func Profile(colorSpace string, tags ...Tag) []byte {
	const header = 128
	table := 4 + 12*len(tags)
	off := header + table
	var body []byte
	entries := make([]byte, table)
	binary.BigEndian.PutUint32(entries, uint32(len(tags)))
	for i, t := range tags {
		e := entries[4+12*i:]
		copy(e[0:4], t.Sig)
		binary.BigEndian.PutUint32(e[4:], uint32(off+len(body)))
		binary.BigEndian.PutUint32(e[8:], uint32(len(t.Data)))
		body = append(body, t.Data...)
		for len(body)%4 != 0 {
			body = append(body, 0)
		}
	}

	p := make([]byte, header, off+len(body))
	binary.BigEndian.PutUint32(p[0:], uint32(off+len(body)))
	p[8], p[9] = 2, 0x10
	class := "mntr"
	if colorSpace == "CMYK" {
		class = "prtr"
	}
	copy(p[12:16], class)
	copy(p[16:20], colorSpace)
	copy(p[20:24], "XYZ ")
	copy(p[36:40], "acsp")
	p = append(p, entries...)
	return append(p, body...)
}

func s15(v float64) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(int32(math.Round(v*65536))))
	return b[:]
}

// XYZ returns an XYZType tag.
func XYZ(sig string, x, y, z float64) Tag {
	b := append([]byte("XYZ \x00\x00\x00\x00"), s15(x)...)
	b = append(b, s15(y)...)
	return Tag{Sig: sig, Data: append(b, s15(z)...)}
}

// Gamma returns a single-entry curveType tag.
func Gamma(sig string, g float64) Tag {
	b := []byte("curv\x00\x00\x00\x00\x00\x00\x00\x01\x00\x00")
	binary.BigEndian.PutUint16(b[12:], uint16(math.Round(g*256)))
	return Tag{Sig: sig, Data: b}
}

// Identity returns an empty curveType tag, meaning a linear curve.
func Identity(sig string) Tag {
	return Tag{Sig: sig, Data: []byte("curv\x00\x00\x00\x00\x00\x00\x00\x00")}
}

// Parametric returns a parametricCurveType tag of function type fn.
func Parametric(sig string, fn uint16, params ...float64) Tag {
	b := []byte("para\x00\x00\x00\x00\x00\x00\x00\x00")
	binary.BigEndian.PutUint16(b[8:], fn)
	for _, p := range params {
		b = append(b, s15(p)...)
	}
	return Tag{Sig: sig, Data: b}
}

// Desc returns a textDescriptionType tag holding name.
func Desc(name string) Tag {
	b := []byte("desc\x00\x00\x00\x00\x00\x00\x00\x00")
	binary.BigEndian.PutUint32(b[8:], uint32(len(name)+1))
	b = append(b, name...)
	b = append(b, 0)
	// Empty Unicode and ScriptCode parts.
	return Tag{Sig: "desc", Data: append(b, make([]byte, 4+4+2+1+67)...)}
}

// D50 colorants of the sRGB primaries and the D50 white, as stored in
// common sRGB profiles.
var (
	WhiteD50 = [3]float64{0.9642, 1.0, 0.8249}
	RedD50   = [3]float64{0.4361, 0.2225, 0.0139}
	GreenD50 = [3]float64{0.3851, 0.7169, 0.0971}
	BlueD50  = [3]float64{0.1431, 0.0606, 0.7141}
)

// RGB returns a matrix/TRC RGB profile with the sRGB colorants and a pure
// gamma curve on all channels.
func RGB(name string, gamma float64) []byte {
	return Profile("RGB ",
		Desc(name),
		XYZ("wtpt", WhiteD50[0], WhiteD50[1], WhiteD50[2]),
		XYZ("rXYZ", RedD50[0], RedD50[1], RedD50[2]),
		XYZ("gXYZ", GreenD50[0], GreenD50[1], GreenD50[2]),
		XYZ("bXYZ", BlueD50[0], BlueD50[1], BlueD50[2]),
		Gamma("rTRC", gamma),
		Gamma("gTRC", gamma),
		Gamma("bTRC", gamma),
	)
}

// Gray returns a gray profile with a pure gamma curve.
func Gray(name string, gamma float64) []byte {
	return Profile("GRAY",
		Desc(name),
		XYZ("wtpt", WhiteD50[0], WhiteD50[1], WhiteD50[2]),
		Gamma("kTRC", gamma),
	)
}

// CMYK returns a header-and-description CMYK output profile.
func CMYK(name string) []byte {
	return Profile("CMYK", Desc(name))
}
