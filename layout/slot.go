package layout

import (
	"fmt"
	"math"
	"sort"
)

// 槽位几何：对一个单元格与外部提供的字段配置，计算内容实际渲染
// 位置的紧致包围盒。包围盒复用渲染器使用的同一套排版调用，绝不做
// 独立近似；媒体 fit 模式下允许包围盒超出单元格自身矩形。

// SlotConfig 是外部创作流程提供的字段配置。
type SlotConfig struct {
	FieldName  string `json:"fieldName"`
	FieldLabel string `json:"fieldLabel"`
	Required   bool   `json:"required"`
	// FullWidth 令文本槽位横向不收缩（整行字段，如两端对齐标题）；
	// 高度仍然按实际内容计算。
	FullWidth bool `json:"fullWidth,omitempty"`

	// 文本字段约束
	MaxChars    int     `json:"maxChars,omitempty"`
	MinFontSize float64 `json:"minFontSize,omitempty"` // mm
	MaxFontSize float64 `json:"maxFontSize,omitempty"` // mm

	// 媒体字段约束
	FitMode          FillMode `json:"fitMode,omitempty"`
	MaxResourceBytes int64    `json:"maxResourceBytes,omitempty"`
}

// TextConstraints 是文本槽位对表单生成方暴露的约束。
type TextConstraints struct {
	MaxChars    int     `json:"maxChars,omitempty"`
	MinFontSize float64 `json:"minFontSize,omitempty"`
	MaxFontSize float64 `json:"maxFontSize,omitempty"`
	FullWidth   bool    `json:"fullWidth,omitempty"`
}

// MediaConstraints 是媒体槽位对表单生成方暴露的约束。
type MediaConstraints struct {
	FitMode          FillMode `json:"fitMode"`
	MaxResourceBytes int64    `json:"maxResourceBytes,omitempty"`
}

// ContentSlot 是一个单元格可编辑区域的对外描述。BoundingBox 与渲染
// 结果逐点一致，每次查询重新计算，绝不缓存跨内容变更的旧值。
type ContentSlot struct {
	FieldName   string            `json:"fieldName"`
	FieldLabel  string            `json:"fieldLabel"`
	Required    bool              `json:"required"`
	CellID      string            `json:"cellId"`
	BoundingBox Rect              `json:"boundingBox"`
	Text        *TextConstraints  `json:"text,omitempty"`
	Media       *MediaConstraints `json:"media,omitempty"`
}

// CreateSlot 对 (单元格, 配置) 计算槽位。空内容返回锚定在内容区域
// 左上角的零面积槽位，不报错；Pending 媒体以单元格矩形作保守占位。
func CreateSlot(cell *Cell, cfg SlotConfig, m Measurer) (ContentSlot, error) {
	if cell == nil {
		return ContentSlot{}, fmt.Errorf("槽位缺少单元格")
	}
	slot := ContentSlot{
		FieldName:  cfg.FieldName,
		FieldLabel: cfg.FieldLabel,
		Required:   cfg.Required,
		CellID:     cell.ID,
	}

	if cell.Kind == CellText {
		// 文本单元格只读，但其紧致行框对覆盖层仍有意义。
		slot.BoundingBox = cell.TextBounds
		if cfg.FullWidth {
			area := cell.Bounds
			slot.BoundingBox.X = area.X
			slot.BoundingBox.W = area.W
		}
		slot.Text = &TextConstraints{MaxChars: cfg.MaxChars, MinFontSize: cfg.MinFontSize, MaxFontSize: cfg.MaxFontSize, FullWidth: cfg.FullWidth}
		return slot, nil
	}

	switch cell.Content.Kind {
	case ContentEmpty:
		slot.BoundingBox = Rect{X: cell.Bounds.X, Y: cell.Bounds.Y, W: 0, H: 0}
	case ContentText:
		geo, err := TextContentGeometry(cell.Bounds, cell.Content.Text, m)
		if err != nil {
			return ContentSlot{}, err
		}
		slot.BoundingBox = geo.Box
		if cfg.FullWidth {
			area := cell.Bounds.Inset(cell.Content.Text.Padding)
			slot.BoundingBox.X = area.X
			slot.BoundingBox.W = area.W
		}
		slot.Text = &TextConstraints{MaxChars: cfg.MaxChars, MinFontSize: cfg.MinFontSize, MaxFontSize: cfg.MaxFontSize, FullWidth: cfg.FullWidth}
	case ContentMedia:
		slot.BoundingBox = MediaContentBox(cell.Bounds, cell.Content.Media)
		slot.Media = &MediaConstraints{FitMode: cfg.FitMode, MaxResourceBytes: cfg.MaxResourceBytes}
	default:
		return ContentSlot{}, fmt.Errorf("未知内容类型 %d", cell.Content.Kind)
	}
	return slot, nil
}

// TextGeometry 是文本内容的完整渲染几何：渲染器按它绘制，槽位按它
// 报告包围盒，两者因此必然一致。
type TextGeometry struct {
	Lines []TextLine
	Box   Rect
	Size  float64 // 实际使用的字号（mm），自动字号解析后的值
}

// TextContentGeometry 对文本内容做真实排版并返回紧致包围盒。
// 包围盒宽度取最宽行（不是单元格宽度），高度为各行行高与行距之和，
// 盒子按对齐方式放进内容区域（单元格矩形减去内边距）。
func TextContentGeometry(bounds Rect, tc *TextContent, m Measurer) (TextGeometry, error) {
	area := bounds.Inset(tc.Padding)
	lineHeight := tc.LineHeight
	if lineHeight <= 0 {
		lineHeight = DefaultLineHeight
	}
	font := FontResource{Name: tc.Font}

	size := tc.Size
	var lines []TextLine
	var err error
	if size > 0 {
		lines, err = LayoutLines(tc.Text, area.W, font, size, lineHeight, m)
	} else {
		size, lines, err = autoFitSize(tc, area, font, lineHeight, m)
	}
	if err != nil {
		return TextGeometry{}, err
	}

	boxW := LinesMaxWidth(lines)
	boxH := LinesHeight(lines)
	box := Rect{
		X: alignX(area, boxW, tc.AlignH),
		Y: alignY(area, boxH, tc.AlignV),
		W: boxW,
		H: boxH,
	}
	return TextGeometry{Lines: lines, Box: box, Size: size}, nil
}

// autoFitSize 解析自动字号：从上界逐步收缩，直到排版结果放得进
// 内容区域；到达下界仍放不下时使用下界。
func autoFitSize(tc *TextContent, area Rect, font FontResource, lineHeight float64, m Measurer) (float64, []TextLine, error) {
	const step = 0.25 // mm
	min := tc.AutoMinSize
	if min <= 0 {
		min = DefaultAutoMinSizeMM
	}
	max := tc.AutoMaxSize
	if max <= 0 || max > area.H {
		max = area.H
	}
	if max < min {
		max = min
	}
	for size := max; size > min; size -= step {
		lines, err := LayoutLines(tc.Text, area.W, font, size, lineHeight, m)
		if err != nil {
			return 0, nil, err
		}
		if LinesHeight(lines) <= area.H && LinesMaxWidth(lines) <= area.W {
			return size, lines, nil
		}
	}
	lines, err := LayoutLines(tc.Text, area.W, font, min, lineHeight, m)
	if err != nil {
		return 0, nil, err
	}
	return min, lines, nil
}

// MediaContentBox 返回媒体内容的包围盒。
//
//   - 资源未就绪：以单元格矩形作保守占位；
//   - cover/stretch：裁剪到内容区域，包围盒恰为内容区域；
//   - fit：自然尺寸 × scale，可向任意一侧溢出单元格；
//   - 旋转围绕内容中心，报告旋转后矩形的轴对齐包围盒。
func MediaContentBox(bounds Rect, mc *MediaContent) Rect {
	if mc == nil || !mc.Resource.Ready() {
		return bounds
	}
	area := bounds.Inset(mc.Padding)
	switch mc.Fill {
	case FillCover, FillStretch:
		return area
	}

	scale := mc.Scale
	if scale <= 0 {
		scale = 1
	}
	w := mc.Resource.NaturalWidth * scale
	h := mc.Resource.NaturalHeight * scale
	bw, bh := w, h
	if mc.Rotation != 0 {
		bw, bh = rotatedAABB(w, h, mc.Rotation)
	}
	return Rect{
		X: alignX(area, bw, mc.AlignH),
		Y: alignY(area, bh, mc.AlignV),
		W: bw,
		H: bh,
	}
}

// rotatedAABB 返回 w×h 矩形绕自身中心旋转 deg 度后的轴对齐包围盒尺寸。
func rotatedAABB(w, h, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	return w*cos + h*sin, w*sin + h*cos
}

// alignX 在 area 内水平放置宽 w 的盒子；盒子宽于区域时照常计算，
// 结果可以越出区域（溢出是受支持的视觉效果）。
func alignX(area Rect, w float64, a HAlign) float64 {
	switch a {
	case AlignCenter:
		return area.X + (area.W-w)/2
	case AlignRight:
		return area.Right() - w
	default:
		return area.X
	}
}

// alignY 在 area 内垂直放置高 h 的盒子。
func alignY(area Rect, h float64, a VAlign) float64 {
	switch a {
	case AlignMiddle:
		return area.Y + (area.H-h)/2
	case AlignBottom:
		return area.Bottom() - h
	default:
		return area.Y
	}
}

// SlotRegistry 是网格之外的槽位登记表：以单元格身份令牌为键保存
// 字段配置，包围盒每次查询时重新计算。
type SlotRegistry struct {
	configs map[string]SlotConfig
}

// NewSlotRegistry 创建空登记表。
func NewSlotRegistry() *SlotRegistry {
	return &SlotRegistry{configs: map[string]SlotConfig{}}
}

// Configure 登记（或更新）一个单元格的字段配置。
func (r *SlotRegistry) Configure(cellID string, cfg SlotConfig) {
	r.configs[cellID] = cfg
}

// Remove 删除一个单元格的字段配置。
func (r *SlotRegistry) Remove(cellID string) {
	delete(r.configs, cellID)
}

// Config 返回登记过的配置。
func (r *SlotRegistry) Config(cellID string) (SlotConfig, bool) {
	cfg, ok := r.configs[cellID]
	return cfg, ok
}

// Len 返回登记的字段数。
func (r *SlotRegistry) Len() int { return len(r.configs) }

// Migrate 在网格重建后应用身份映射：匹配到新单元格的配置随身份
// 迁移，无匹配的配置删除。
func (r *SlotRegistry) Migrate(mapping map[string]string) {
	for oldID, newID := range mapping {
		cfg, ok := r.configs[oldID]
		if !ok {
			continue
		}
		delete(r.configs, oldID)
		if newID != "" {
			r.configs[newID] = cfg
		}
	}
}

// Slots 对网格中每个登记过的单元格计算槽位，按字段名排序返回。
// 登记过但已不存在的单元格跳过。
func (r *SlotRegistry) Slots(g *Grid, m Measurer) ([]ContentSlot, error) {
	out := make([]ContentSlot, 0, len(r.configs))
	for cellID, cfg := range r.configs {
		cell := g.CellByID(cellID)
		if cell == nil {
			continue
		}
		slot, err := CreateSlot(cell, cfg, m)
		if err != nil {
			return nil, fmt.Errorf("计算槽位 %s 失败: %w", cfg.FieldName, err)
		}
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldName < out[j].FieldName })
	return out, nil
}
