package layout

import (
	"math"
	"testing"
)

// stubMeasurer 是测试用的确定性度量后端：每个字符宽 0.5×字号，
// 字体行高 1.2×字号，避免测试依赖真实字体文件。
type stubMeasurer struct{}

func (stubMeasurer) Measure(text string, _ FontResource, sizeMM float64) (TextMetrics, error) {
	w := 0.5 * sizeMM * float64(len([]rune(text)))
	return TextMetrics{
		Width:   w,
		Height:  1.2 * sizeMM,
		Ascent:  0.96 * sizeMM,
		Descent: 0.24 * sizeMM,
	}, nil
}

// TestLayoutLinesWordBoundary 验证贪心折行只在空白边界断行。
func TestLayoutLinesWordBoundary(t *testing.T) {
	// 字号 10 → 每字符 5mm；限宽 30mm → 每行最多 6 个字符。
	lines, err := LayoutLines("aaa bbb ccc", 30, FontResource{}, 10, 1.4, stubMeasurer{})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	want := []string{"aaa", "bbb", "ccc"}
	if len(lines) != len(want) {
		t.Fatalf("期望 %d 行，实际 %d 行", len(want), len(lines))
	}
	for i, w := range want {
		if lines[i].Content != w {
			t.Fatalf("第 %d 行期望 %q，实际 %q", i, w, lines[i].Content)
		}
	}
}

// TestLayoutLinesOverlongWord 验证超宽单词独占一行且不被截断。
func TestLayoutLinesOverlongWord(t *testing.T) {
	lines, err := LayoutLines("xx aaaaaaaaaa yy", 30, FontResource{}, 10, 1.4, stubMeasurer{})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	want := []string{"xx", "aaaaaaaaaa", "yy"}
	if len(lines) != len(want) {
		t.Fatalf("期望 %d 行，实际 %d 行", len(want), len(lines))
	}
	for i, w := range want {
		if lines[i].Content != w {
			t.Fatalf("第 %d 行期望 %q，实际 %q", i, w, lines[i].Content)
		}
	}
	if lines[1].Width <= 30 {
		t.Fatalf("超宽单词的行宽应超过限宽，实际 %g", lines[1].Width)
	}
}

// TestLayoutLinesExplicitBreaks 验证显式换行与空行保留。
func TestLayoutLinesExplicitBreaks(t *testing.T) {
	lines, err := LayoutLines("a\n\nb", 100, FontResource{}, 10, 1.4, stubMeasurer{})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	want := []string{"a", "", "b"}
	if len(lines) != len(want) {
		t.Fatalf("期望 %d 行，实际 %d 行", len(want), len(lines))
	}
	for i, w := range want {
		if lines[i].Content != w {
			t.Fatalf("第 %d 行期望 %q，实际 %q", i, w, lines[i].Content)
		}
	}
}

// TestLinesHeightAccounting 验证总高度 = Σ(GapBefore+Height)，
// 且行距为行高与字体行高之差、首行为 0。
func TestLinesHeightAccounting(t *testing.T) {
	lines, err := LayoutLines("a\nb\nc", 100, FontResource{}, 10, 1.4, stubMeasurer{})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if lines[0].GapBefore != 0 {
		t.Fatalf("首行 GapBefore 应为 0，实际 %g", lines[0].GapBefore)
	}
	// advance = 10*1.4 = 14，字体行高 = 12 → gap = 2
	for i := 1; i < len(lines); i++ {
		if math.Abs(lines[i].GapBefore-2) > 1e-9 {
			t.Fatalf("第 %d 行 GapBefore 期望 2，实际 %g", i, lines[i].GapBefore)
		}
	}
	if got := LinesHeight(lines); math.Abs(got-40) > 1e-9 {
		t.Fatalf("总高度期望 40，实际 %g", got)
	}
	if got := LinesMaxWidth(lines); math.Abs(got-5) > 1e-9 {
		t.Fatalf("最宽行期望 5，实际 %g", got)
	}
}

// TestLayoutLinesIdempotent 验证同输入两次排版产生完全相同的断行。
func TestLayoutLinesIdempotent(t *testing.T) {
	content := "the quick brown fox jumps over the lazy dog\n\nand keeps going"
	first, err := LayoutLines(content, 40, FontResource{}, 8, 1.4, stubMeasurer{})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	second, err := LayoutLines(content, 40, FontResource{}, 8, 1.4, stubMeasurer{})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("两次排版行数不同: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("第 %d 行不一致: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// TestLayoutLinesEmptyContent 验证空内容产生一条空行而不是零行。
func TestLayoutLinesEmptyContent(t *testing.T) {
	lines, err := LayoutLines("", 100, FontResource{}, 10, 1.4, stubMeasurer{})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if len(lines) != 1 || lines[0].Content != "" {
		t.Fatalf("空内容应产生一条空行，实际 %+v", lines)
	}
	if lines[0].Height <= 0 {
		t.Fatalf("空行也应有高度，实际 %g", lines[0].Height)
	}
}
