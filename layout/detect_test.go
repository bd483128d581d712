package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// assertPartition 断言网格单元格构成内容区域的无重叠、无缝隙分割。
func assertPartition(t *testing.T, g *Grid) {
	t.Helper()
	area := g.ContentArea()
	total := 0.0
	for _, c := range g.Cells {
		require.GreaterOrEqual(t, c.Bounds.X, area.X-1e-6, "单元格 %s 左越界", c.ID)
		require.GreaterOrEqual(t, c.Bounds.Y, area.Y-1e-6, "单元格 %s 上越界", c.ID)
		require.LessOrEqual(t, c.Bounds.Right(), area.Right()+1e-6, "单元格 %s 右越界", c.ID)
		require.LessOrEqual(t, c.Bounds.Bottom(), area.Bottom()+1e-6, "单元格 %s 下越界", c.ID)
		total += c.Bounds.W * c.Bounds.H
	}
	require.InDelta(t, area.W*area.H, total, 1e-6, "单元格面积之和应等于内容区域面积")

	for i := 0; i < len(g.Cells); i++ {
		for j := i + 1; j < len(g.Cells); j++ {
			a, b := g.Cells[i].Bounds, g.Cells[j].Bounds
			ow := math.Min(a.Right(), b.Right()) - math.Max(a.X, b.X)
			oh := math.Min(a.Bottom(), b.Bottom()) - math.Max(a.Y, b.Y)
			if ow > 1e-6 && oh > 1e-6 {
				t.Fatalf("单元格 %d 与 %d 重叠：%+v / %+v", i, j, a, b)
			}
		}
	}
}

func line(text string, size float64, align HAlign) BlockLine {
	return BlockLine{Text: text, Style: TextStyle{Size: size, Align: align}}
}

// TestDetectPartitionInvariant 对多种画布与文本块组合验证分割不变量。
func TestDetectPartitionInvariant(t *testing.T) {
	configs := []CanvasConfig{
		{Width: 100, Height: 100, VAlign: AlignMiddle},
		{Width: 210, Height: 297, Padding: Uniform(10), VAlign: AlignMiddle},
		{Width: 80, Height: 60, Padding: Uniform(5), VAlign: AlignTop},
		{Width: 120, Height: 90, Padding: Uniform(8), VAlign: AlignBottom},
	}
	blocks := []TextBlock{
		{}, // 空文本块
		{Lines: []BlockLine{line("Hello world", 8, AlignCenter)}},
		{Lines: []BlockLine{
			line("Title", 10, AlignCenter),
			line("", 10, AlignLeft),
			line("body text here", 6, AlignRight),
		}},
		{Lines: []BlockLine{
			line("left", 6, AlignLeft),
			line("a somewhat longer wrapped line of words", 6, AlignLeft),
		}},
	}
	for ci, cfg := range configs {
		for bi, block := range blocks {
			g, err := Detect(block, cfg, stubMeasurer{})
			require.NoError(t, err, "config %d block %d", ci, bi)
			assertPartition(t, g)
		}
	}
}

// TestDetectEmptyBlock 验证空文本块产生单个覆盖全域的内容单元格。
func TestDetectEmptyBlock(t *testing.T) {
	g, err := Detect(TextBlock{}, CanvasConfig{Width: 100, Height: 80, VAlign: AlignMiddle}, stubMeasurer{})
	require.NoError(t, err)
	require.Len(t, g.Cells, 1)
	c := g.Cells[0]
	require.Equal(t, CellContent, c.Kind)
	require.Equal(t, g.ContentArea(), c.Bounds)
	require.Equal(t, ContentEmpty, c.Content.Kind)
}

// TestDetectTextCellsPerWrappedLine 验证每个排版行对应一个文本单元格，
// 文本包围盒位于单元格内且宽度为该行实测宽度。
func TestDetectTextCellsPerWrappedLine(t *testing.T) {
	cfg := CanvasConfig{Width: 100, Height: 100, VAlign: AlignMiddle, MinCell: 10}
	// 字号 8 → 字符宽 4mm，限宽 100mm；该行 30 字符 = 120mm，折成两行。
	block := TextBlock{Lines: []BlockLine{
		line("aaaaaaaaaa bbbbbbbbbb cccccccc", 8, AlignLeft),
	}}
	g, err := Detect(block, cfg, stubMeasurer{})
	require.NoError(t, err)

	texts := g.TextCells()
	require.Len(t, texts, 2)
	for _, tc := range texts {
		require.Equal(t, block.Lines[0].Text, tc.SourceLine)
		require.Equal(t, 0, tc.LineIndex)
		require.InDelta(t, tc.Line.Width, tc.TextBounds.W, 1e-9)
		require.GreaterOrEqual(t, tc.TextBounds.X, tc.Bounds.X-1e-9)
		require.GreaterOrEqual(t, tc.TextBounds.Y, tc.Bounds.Y-1e-9)
	}
	assertPartition(t, g)
}

// TestDetectBlankLineBecomesOpenBand 验证空行行带成为整行内容单元格。
func TestDetectBlankLineBecomesOpenBand(t *testing.T) {
	cfg := CanvasConfig{Width: 100, Height: 100, VAlign: AlignMiddle, MinCell: 10}
	block := TextBlock{Lines: []BlockLine{
		line("above", 8, AlignLeft),
		line("", 8, AlignLeft),
		line("below", 8, AlignLeft),
	}}
	g, err := Detect(block, cfg, stubMeasurer{})
	require.NoError(t, err)

	texts := g.TextCells()
	require.Len(t, texts, 2)
	// 两行文本之间必须存在一个整行宽度的内容单元格
	found := false
	for _, c := range g.ContentCells() {
		if c.Bounds.Y > texts[0].Bounds.Y && c.Bounds.Bottom() <= texts[1].Bounds.Y+1e-9 &&
			math.Abs(c.Bounds.W-g.ContentArea().W) < 1e-9 {
			found = true
		}
	}
	require.True(t, found, "空行应产生整行内容单元格")
	assertPartition(t, g)
}

// TestDetectThinGapsAbsorbed 验证小于最小单元尺寸的空余不产生独立单元格。
func TestDetectThinGapsAbsorbed(t *testing.T) {
	cfg := CanvasConfig{Width: 100, Height: 100, VAlign: AlignMiddle, MinCell: 30}
	block := TextBlock{Lines: []BlockLine{line("wide line of text here!!", 8, AlignCenter)}}
	g, err := Detect(block, cfg, stubMeasurer{})
	require.NoError(t, err)
	for _, c := range g.Cells {
		if c.Kind == CellContent {
			require.GreaterOrEqual(t, c.Bounds.W+1e-9, float64(30), "内容单元格宽度不得小于最小单元尺寸")
			require.GreaterOrEqual(t, c.Bounds.H+1e-9, float64(30), "内容单元格高度不得小于最小单元尺寸")
		}
	}
	assertPartition(t, g)
}

// TestDetectRejectsImpossibleLayouts 验证非法输入返回构造错误。
func TestDetectRejectsImpossibleLayouts(t *testing.T) {
	_, err := Detect(TextBlock{}, CanvasConfig{Width: 0, Height: 100}, stubMeasurer{})
	require.Error(t, err)

	_, err = Detect(TextBlock{}, CanvasConfig{Width: 100, Height: 100, Padding: Uniform(60)}, stubMeasurer{})
	require.Error(t, err)

	_, err = Detect(TextBlock{}, CanvasConfig{Width: 100, Height: 100, MinCell: 150}, stubMeasurer{})
	require.Error(t, err)
}

// TestDetectOverflowClipped 验证超出画布的文本被裁剪而不是撑破分割。
func TestDetectOverflowClipped(t *testing.T) {
	cfg := CanvasConfig{Width: 60, Height: 30, VAlign: AlignTop, MinCell: 5}
	var lines []BlockLine
	for i := 0; i < 20; i++ {
		lines = append(lines, line("overflow", 8, AlignLeft))
	}
	g, err := Detect(TextBlock{Lines: lines}, cfg, stubMeasurer{})
	require.NoError(t, err)
	assertPartition(t, g)
}
