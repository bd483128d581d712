package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestParseLength 覆盖常见单位到 mm 的解析。
func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"10mm", 10},
		{"1in", 25.4},
		{"2.54cm", 25.4},
		{"12pt", 12 * PtToMm},
		{"7", 7},
		{"", 0},
		{"abc", 0},
	}
	for _, c := range cases {
		if got := ParseLength(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("ParseLength(%q) 期望 %g，实际 %g", c.in, c.want, got)
		}
	}
}

// TestParseDimension 验证百分比相对参考值解析。
func TestParseDimension(t *testing.T) {
	if got := ParseDimension("50%", 200); math.Abs(got-100) > 1e-9 {
		t.Fatalf("50%% of 200 期望 100，实际 %g", got)
	}
	if got := ParseDimension("10mm", 200); math.Abs(got-10) > 1e-9 {
		t.Fatalf("10mm 期望 10，实际 %g", got)
	}
}

// TestPxToMM 验证像素→毫米换算与缺省 DPI。
func TestPxToMM(t *testing.T) {
	if got := PxToMM(96, 96); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("96px@96dpi 期望 25.4mm，实际 %g", got)
	}
	if got := PxToMM(96, 0); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("DPI<=0 应按 96 处理，实际 %g", got)
	}
	if got := PxToMM(300, 300); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("300px@300dpi 期望 25.4mm，实际 %g", got)
	}
}
