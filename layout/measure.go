package layout

import (
	"math"
	"strings"
)

// TextMetrics 是单行文本的度量结果（mm）。
type TextMetrics struct {
	Width   float64
	Height  float64 // 字体行高（ascent+descent+lineGap）
	Ascent  float64
	Descent float64
}

// Measurer 是字体度量后端：给定字体与字号，测量单行文本。
// 实现必须是纯函数（同输入同输出），字体解析失败时回退到默认
// 字体而不是让测量失败。canvas 渲染器是本接口的生产实现。
type Measurer interface {
	Measure(text string, font FontResource, sizeMM float64) (TextMetrics, error)
}

// FontRegistrar 是度量后端的可选扩展：预先登记场景字体表，让只带
// 名称的 FontResource 也能解析到真实字体数据。构建阶段会在首次
// 检测前调用它，保证度量与渲染使用同一张表。
type FontRegistrar interface {
	RegisterFonts(fonts map[string]FontResource)
}

// LayoutLines 将多行文本在 maxWidth（mm）内做贪心折行，返回排版后的行序列。
//
// 规则：
//   - 显式 \n 总是换行，空行保留为空内容行；
//   - 在不超宽的前提下尽量多放单词，超宽时回退到最近的空白边界；
//   - 单个词本身超宽时独占一行，绝不在词中间截断；
//   - maxWidth <= 0 视为不限宽。
//
// 行高语义与排版器一致：Height 为字体行高，GapBefore 为行距与字体
// 行高之差（首行为 0），总高度 = Σ(GapBefore+Height)。
func LayoutLines(content string, maxWidth float64, font FontResource, sizeMM, lineHeight float64, m Measurer) ([]TextLine, error) {
	limit := maxWidth
	if limit <= 0 {
		limit = math.MaxFloat64
	}
	if lineHeight <= 0 {
		lineHeight = DefaultLineHeight
	}
	if sizeMM <= 0 {
		sizeMM = DefaultFontSizeMM
	}

	measure := func(s string) (float64, float64, error) {
		tm, err := m.Measure(s, font, sizeMM)
		if err != nil {
			return 0, 0, err
		}
		h := tm.Height
		if h <= 0 {
			h = sizeMM
		}
		return tm.Width, h, nil
	}

	var lines []TextLine
	emit := func(s string) error {
		w, h, err := measure(s)
		if err != nil {
			return err
		}
		lines = append(lines, TextLine{Content: s, Width: w, Height: h})
		return nil
	}

	for _, para := range strings.Split(strings.ReplaceAll(content, "\r", ""), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			if err := emit(""); err != nil {
				return nil, err
			}
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			candidate := current + " " + word
			w, _, err := measure(candidate)
			if err != nil {
				return nil, err
			}
			if w > limit {
				if err := emit(current); err != nil {
					return nil, err
				}
				current = word
				continue
			}
			current = candidate
		}
		if err := emit(current); err != nil {
			return nil, err
		}
	}

	if len(lines) == 0 {
		lines = []TextLine{{Content: "", Width: 0, Height: sizeMM}}
	}

	advance := sizeMM * lineHeight
	for i := range lines {
		if i == 0 {
			lines[i].GapBefore = 0
			continue
		}
		lines[i].GapBefore = math.Max(advance-lines[i].Height, 0)
	}
	return lines, nil
}

// LinesHeight 返回排版行序列的总高度（mm）。
func LinesHeight(lines []TextLine) float64 {
	total := 0.0
	for _, ln := range lines {
		total += ln.GapBefore + ln.Height
	}
	return total
}

// LinesMaxWidth 返回排版行序列中最宽一行的宽度（mm）。
func LinesMaxWidth(lines []TextLine) float64 {
	max := 0.0
	for _, ln := range lines {
		if ln.Width > max {
			max = ln.Width
		}
	}
	return max
}
