package layout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// 网格检测：把画布按文本块的排版结果切分为互不重叠、无缝隙的
// 矩形单元格。每个排版行得到一个文本单元格；行左右的空余、文本
// 块上下的空余以及空行行带成为内容单元格。小于最小单元尺寸的
// 空余并入相邻区域，保证分割不产生缝隙。

// CanvasConfig 是画布级配置（mm）。
type CanvasConfig struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding Padding `json:"padding"`
	// MinCell 为最小单元尺寸；<=0 时取文本块字号，检测粒度随字号缩放。
	MinCell float64 `json:"minCell"`
	// VAlign 控制文本块在内容区域内的纵向位置，决定上下空余的分布。
	VAlign VAlign `json:"valign"`
}

// ContentArea 返回去掉内边距后的内容区域。
func (c CanvasConfig) ContentArea() Rect {
	return Rect{X: 0, Y: 0, W: c.Width, H: c.Height}.Inset(c.Padding)
}

type bandKind int

const (
	bandOpen bandKind = iota
	bandText
)

// band 是一条水平行带；文本行带额外记录排版行及其在带内的纵向偏移
// （合并吸收上方空余时偏移增长，文本位置保持不动）。
type band struct {
	kind       bandKind
	h          float64
	textOffset float64
	line       TextLine
	style      TextStyle
	lineIndex  int
	source     string
}

// Detect 根据文本块与画布配置生成网格。
// 布局不可能的输入（画布或内容区域非正、最小单元尺寸超过内容区域）
// 返回构造错误，不产生部分网格。
func Detect(block TextBlock, cfg CanvasConfig, m Measurer) (*Grid, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("画布尺寸非法：%g x %g", cfg.Width, cfg.Height)
	}
	area := cfg.ContentArea()
	if area.W <= 0 || area.H <= 0 {
		return nil, fmt.Errorf("内边距超过画布：内容区域 %g x %g", area.W, area.H)
	}

	minCell := cfg.MinCell
	if minCell <= 0 {
		minCell = block.Style.Normalized().Size
	}
	if minCell > area.W || minCell > area.H {
		return nil, fmt.Errorf("最小单元尺寸 %gmm 超过内容区域 %g x %g", minCell, area.W, area.H)
	}

	bands, err := layoutBands(block, area, m)
	if err != nil {
		return nil, err
	}
	bands = placeBands(bands, area, cfg.VAlign, minCell)

	g := &Grid{
		Config:  cfg,
		minCell: minCell,
	}
	y := area.Y
	for row, b := range bands {
		g.Cells = append(g.Cells, bandCells(b, row, y, area, minCell)...)
		y += b.h
	}
	g.Rows = len(bands)
	for i, c := range g.Cells {
		c.DisplayIndex = i
	}
	return g, nil
}

// layoutBands 将源文本行排版成行带序列：每个折行后的排版行一条
// 文本行带，空白源行一条空行带。
func layoutBands(block TextBlock, area Rect, m Measurer) ([]*band, error) {
	var bands []*band
	for i, src := range block.Lines {
		style := src.Style.Normalized()
		advance := style.LineAdvanceMM()
		if strings.TrimSpace(src.Text) == "" {
			bands = append(bands, &band{kind: bandOpen, h: advance})
			continue
		}
		lines, err := LayoutLines(src.Text, area.W, FontResource{Name: style.Font}, style.Size, style.LineHeight, m)
		if err != nil {
			return nil, fmt.Errorf("排版第 %d 行失败: %w", i+1, err)
		}
		for _, ln := range lines {
			h := advance
			if ln.Height > h {
				h = ln.Height
			}
			bands = append(bands, &band{
				kind:      bandText,
				h:         h,
				line:      ln,
				style:     style,
				lineIndex: i,
				source:    src.Text,
			})
		}
	}
	return bands, nil
}

// placeBands 纵向放置行带：按 VAlign 计算上下空余，裁剪溢出，
// 并把小于 minCell 的空余行带并入相邻行带。
func placeBands(bands []*band, area Rect, valign VAlign, minCell float64) []*band {
	if len(bands) == 0 {
		// 空文本块：整个内容区域是一个开放行带。
		return []*band{{kind: bandOpen, h: area.H}}
	}

	// 裁剪：超出内容区域的行带整体丢弃，跨界行带截短。
	total := 0.0
	clipped := bands[:0]
	for _, b := range bands {
		if total >= area.H {
			break
		}
		if total+b.h > area.H {
			b.h = area.H - total
		}
		total += b.h
		clipped = append(clipped, b)
	}
	bands = clipped

	var topGap float64
	switch valign {
	case AlignMiddle:
		topGap = (area.H - total) / 2
	case AlignBottom:
		topGap = area.H - total
	}
	if topGap < 0 {
		topGap = 0
	}
	bottomGap := area.H - total - topGap
	if bottomGap < 0 {
		bottomGap = 0
	}

	full := make([]*band, 0, len(bands)+2)
	if topGap > 0 {
		full = append(full, &band{kind: bandOpen, h: topGap})
	}
	full = append(full, bands...)
	if bottomGap > 0 {
		full = append(full, &band{kind: bandOpen, h: bottomGap})
	}
	return mergeThinBands(full, minCell)
}

// mergeThinBands 把高度不足 minCell 的开放行带并入邻居，优先并入
// 上方行带；并入下方时文本偏移随之增长。循环直到稳定。
func mergeThinBands(bands []*band, minCell float64) []*band {
	for {
		merged := false
		for i, b := range bands {
			if b.kind != bandOpen || b.h >= minCell || len(bands) == 1 {
				continue
			}
			if i > 0 {
				bands[i-1].h += b.h
			} else {
				bands[i+1].h += b.h
				bands[i+1].textOffset += b.h
			}
			bands = append(bands[:i], bands[i+1:]...)
			merged = true
			break
		}
		if !merged {
			return bands
		}
	}
}

// bandCells 把一条行带切分为单元格：开放行带整带一个内容单元格；
// 文本行带按对齐方式切出左右空余，宽度不足 minCell 的空余并入文本
// 单元格本身。
func bandCells(b *band, row int, y float64, area Rect, minCell float64) []*Cell {
	if b.kind == bandOpen {
		return []*Cell{{
			ID:      uuid.NewString(),
			Row:     row,
			Col:     0,
			Kind:    CellContent,
			Bounds:  Rect{X: area.X, Y: y, W: area.W, H: b.h},
			Content: EmptyContent(),
		}}
	}

	lineW := b.line.Width
	if lineW > area.W {
		lineW = area.W
	}
	var lineX float64
	switch b.style.Align {
	case AlignCenter:
		lineX = area.X + (area.W-lineW)/2
	case AlignRight:
		lineX = area.Right() - lineW
	default:
		lineX = area.X
	}
	leftW := lineX - area.X
	rightW := area.Right() - (lineX + lineW)

	cellLeft := area.X
	cellRight := area.Right()
	var cells []*Cell
	col := 0
	if leftW >= minCell {
		cells = append(cells, &Cell{
			ID:      uuid.NewString(),
			Row:     row,
			Col:     col,
			Kind:    CellContent,
			Bounds:  Rect{X: area.X, Y: y, W: leftW, H: b.h},
			Content: EmptyContent(),
		})
		cellLeft = lineX
		col++
	}
	textCell := &Cell{
		ID:         uuid.NewString(),
		Row:        row,
		Col:        col,
		Kind:       CellText,
		SourceLine: b.source,
		LineIndex:  b.lineIndex,
		Style:      b.style,
		Line:       b.line,
		TextBounds: Rect{X: lineX, Y: y + b.textOffset, W: b.line.Width, H: b.line.Height},
	}
	col++
	if rightW >= minCell {
		cellRight = lineX + lineW
	}
	textCell.Bounds = Rect{X: cellLeft, Y: y, W: cellRight - cellLeft, H: b.h}
	cells = append(cells, textCell)
	if rightW >= minCell {
		cells = append(cells, &Cell{
			ID:      uuid.NewString(),
			Row:     row,
			Col:     col,
			Kind:    CellContent,
			Bounds:  Rect{X: cellRight, Y: y, W: rightW, H: b.h},
			Content: EmptyContent(),
		})
	}
	return cells
}
