package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for lengths. All canvas
// geometry in this package is expressed in millimeters; font systems speak
// points, so the pt<->mm constants live here and every crossing converts
// explicitly.

// Unit represents the original unit of a length value as written in a scene file.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// To converts this length to target unit. Supported targets: UnitMM, UnitPT.
func (l Length) To(target Unit) float64 {
	mm := l.Value
	switch l.Unit {
	case UnitCM:
		mm = l.Value * 10
	case UnitIN:
		mm = l.Value * 25.4
	case UnitPT:
		mm = l.Value * PtToMm
	case UnitMM, UnitNone:
		mm = l.Value
	}
	if target == UnitPT {
		return mm * MmToPt
	}
	return mm
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// ParseRawLength parses a scene-file length string preserving its unit.
func ParseRawLength(value string) Length {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "" {
		return Length{}
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}
	}
	return Length{Value: f, Unit: unit}
}

// ParseLength 将 "12pt"/"10mm"/"2.5cm"/"1in" 等字符串解析为毫米值；
// 无单位时按毫米处理，解析失败返回 0。
func ParseLength(value string) float64 {
	l := ParseRawLength(value)
	if l.Unit == UnitNone {
		return l.Value
	}
	return l.ToMM()
}

// ParseDimension 解析长度或百分比（相对 reference）。
func ParseDimension(value string, reference float64) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if strings.HasSuffix(value, "%") {
		num := strings.TrimSuffix(value, "%")
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			return reference * f / 100
		}
		return 0
	}
	return ParseLength(value)
}

// PxToMM 按 DPI 将像素转换为毫米；dpi<=0 时按 96 处理（CSS 像素约定）。
func PxToMM(px int, dpi int) float64 {
	if dpi <= 0 {
		dpi = 96
	}
	return float64(px) * 25.4 / float64(dpi)
}
