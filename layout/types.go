package layout

import "strings"

// 该文件定义画布几何与单元格模型：矩形、对齐、资源描述、
// 封闭的内容联合类型（空/文本/媒体）以及两类单元格。

// Rect 以毫米为单位描述一个矩形，原点位于画布左上角。
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Contains 判断点是否落在矩形内（左闭右开，保证分割不重叠）。
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Inset 返回按内边距收缩后的矩形；收缩到负尺寸时在原位置归零。
func (r Rect) Inset(p Padding) Rect {
	out := Rect{
		X: r.X + p.Left,
		Y: r.Y + p.Top,
		W: r.W - p.Left - p.Right,
		H: r.H - p.Top - p.Bottom,
	}
	if out.W < 0 {
		out.W = 0
	}
	if out.H < 0 {
		out.H = 0
	}
	return out
}

// Padding 以毫米为单位。
type Padding struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Uniform 返回四边等宽的内边距。
func Uniform(v float64) Padding {
	return Padding{Top: v, Right: v, Bottom: v, Left: v}
}

// HAlign 是水平对齐方式的封闭枚举。
type HAlign int

const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignRight
)

// VAlign 是垂直对齐方式的封闭枚举。
type VAlign int

const (
	AlignTop VAlign = iota
	AlignMiddle
	AlignBottom
)

// ParseHAlign 解析对齐关键字，支持 start/end 别名；未知值按 left 处理。
func ParseHAlign(v string) HAlign {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "center", "middle":
		return AlignCenter
	case "right", "end":
		return AlignRight
	default:
		return AlignLeft
	}
}

// ParseVAlign 解析垂直对齐关键字；未知值按 top 处理。
func ParseVAlign(v string) VAlign {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "middle", "center":
		return AlignMiddle
	case "bottom", "end":
		return AlignBottom
	default:
		return AlignTop
	}
}

func (a HAlign) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

func (a VAlign) String() string {
	switch a {
	case AlignMiddle:
		return "middle"
	case AlignBottom:
		return "bottom"
	default:
		return "top"
	}
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// FontResource 描述字体资源，src 可以是文件路径或 embed:* 内置字体名。
type FontResource struct {
	Name     string `json:"name"`
	Src      string `json:"src"`
	Style    string `json:"style"`
	Family   string `json:"family"`
	Fallback string `json:"fallback"`
}

// MediaDecl 是资源段声明的媒体条目；DPI 用于像素→毫米换算（缺省 96）。
type MediaDecl struct {
	Name string `json:"name"`
	Src  string `json:"src"`
	DPI  int    `json:"dpi"`
}

// ResourceSet 记录解析出的字体、颜色与媒体定义。
type ResourceSet struct {
	Fonts  map[string]FontResource `json:"fonts"`
	Colors map[string]Color        `json:"colors"`
	Media  map[string]MediaDecl    `json:"media"`
}

// TextStyle 描述一行文本的样式；Size/LineHeight 为零时由调用方回填默认值。
type TextStyle struct {
	Font       string  `json:"font"`
	Size       float64 `json:"size"`       // mm
	LineHeight float64 `json:"lineHeight"` // 相对字号的倍数
	Color      Color   `json:"color"`
	Weight     string  `json:"weight,omitempty"`     // regular/bold/italic...
	Align      HAlign  `json:"align"`
	Decoration string  `json:"decoration,omitempty"` // underline/strike
}

// 默认样式常量：12pt 字号、1.4 倍行高，与排版器缺省一致。
const (
	DefaultFontSizeMM    = 12 * PtToMm
	DefaultLineHeight    = 1.4
	DefaultAutoMinSizeMM = 6 * PtToMm
)

// Normalized 返回回填过默认值的样式副本。
func (s TextStyle) Normalized() TextStyle {
	if s.Size <= 0 {
		s.Size = DefaultFontSizeMM
	}
	if s.LineHeight <= 0 {
		s.LineHeight = DefaultLineHeight
	}
	return s
}

// LineAdvanceMM 返回该样式下一行占用的纵向空间（mm）。
func (s TextStyle) LineAdvanceMM() float64 {
	n := s.Normalized()
	return n.Size * n.LineHeight
}

// BlockLine 是源文本块中的一行及其已解析的样式。
type BlockLine struct {
	Text  string    `json:"text"`
	Style TextStyle `json:"style"`
}

// TextBlock 是用户输入的多行文本块，网格由它推导。
type TextBlock struct {
	Lines []BlockLine `json:"lines"`
	Style TextStyle   `json:"style"` // 块级默认样式
}

// TextLine 表示排版后的一行文本内容及其宽高（mm）。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// ContentKind 是内容单元格内容的封闭联合标签。
type ContentKind int

const (
	ContentEmpty ContentKind = iota
	ContentText
	ContentMedia
)

func (k ContentKind) String() string {
	switch k {
	case ContentText:
		return "text"
	case ContentMedia:
		return "media"
	default:
		return "empty"
	}
}

// Content 是内容单元格的内容描述：空、文本或媒体三者之一。
// Kind 决定哪个分支有效；渲染与几何计算均对 Kind 做穷尽匹配。
type Content struct {
	Kind  ContentKind   `json:"kind"`
	Text  *TextContent  `json:"text,omitempty"`
	Media *MediaContent `json:"media,omitempty"`
}

// EmptyContent 返回空内容描述。
func EmptyContent() Content { return Content{Kind: ContentEmpty} }

// TextContent 是用户填入内容单元格的文本及其样式。
// Size 为 0 表示自动字号：在 [AutoMinSize, AutoMaxSize] 内收缩至恰好放下。
type TextContent struct {
	Text        string  `json:"text"`
	Font        string  `json:"font"`
	Size        float64 `json:"size"` // mm；0 = auto
	AutoMinSize float64 `json:"autoMinSize,omitempty"`
	AutoMaxSize float64 `json:"autoMaxSize,omitempty"`
	LineHeight  float64 `json:"lineHeight"`
	Color       Color   `json:"color"`
	AlignH      HAlign  `json:"alignH"`
	AlignV      VAlign  `json:"alignV"`
	Padding     Padding `json:"padding"`
}

// FillMode 是媒体放置策略的封闭枚举。
// FillFit（fit/free）：相对媒体自然尺寸缩放，允许溢出单元格；
// FillCover（fill/cover）与 FillStretch（stretch）：裁剪到内容区域。
type FillMode int

const (
	FillFit FillMode = iota
	FillCover
	FillStretch
)

// ParseFillMode 解析 fit/free/fill/cover/stretch；未知值按 fit 处理。
func ParseFillMode(v string) FillMode {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "fill", "cover":
		return FillCover
	case "stretch":
		return FillStretch
	default:
		return FillFit
	}
}

func (m FillMode) String() string {
	switch m {
	case FillCover:
		return "cover"
	case FillStretch:
		return "stretch"
	default:
		return "fit"
	}
}

// MediaContent 是用户填入内容单元格的媒体及其变换参数。
// Scale 相对媒体自然尺寸（而非单元格尺寸）缩放，这决定内容是否溢出。
type MediaContent struct {
	Resource *MediaResource `json:"resource"`
	Scale    float64        `json:"scale"` // <=0 按 1 处理
	Fill     FillMode       `json:"fill"`
	AlignH   HAlign         `json:"alignH"`
	AlignV   VAlign         `json:"alignV"`
	Rotation float64        `json:"rotation"` // 角度，围绕内容中心
	Padding  Padding        `json:"padding"`
}

// AnimState 是单元格的动画配置；播放不在本模块范围内，
// 但该状态必须随单元格身份在重建后迁移。
type AnimState struct {
	Name       string `json:"name,omitempty"`
	DurationMS int    `json:"durationMs,omitempty"`
	DelayMS    int    `json:"delayMs,omitempty"`
}

// CellKind 是单元格种类的封闭枚举。
type CellKind int

const (
	CellText CellKind = iota
	CellContent
)

func (k CellKind) String() string {
	if k == CellContent {
		return "content"
	}
	return "text"
}

// Cell 是网格的可寻址单元。文本单元格由检测器生成、对用户只读；
// 内容单元格的 Content 由用户填写，并在重建后按身份迁移。
type Cell struct {
	ID           string   `json:"id"`
	DisplayIndex int      `json:"displayIndex"`
	Row          int      `json:"row"`
	Col          int      `json:"col"`
	Bounds       Rect     `json:"bounds"`
	Kind         CellKind `json:"kind"`

	// 仅文本单元格有效
	SourceLine string    `json:"sourceLine,omitempty"`
	LineIndex  int       `json:"lineIndex,omitempty"`
	Style      TextStyle `json:"style,omitempty"`
	TextBounds Rect      `json:"textBounds,omitempty"`
	Line       TextLine  `json:"line,omitempty"`

	// 仅内容单元格有效
	Content Content   `json:"content,omitempty"`
	Anim    AnimState `json:"anim,omitempty"`
}

// IsContent 报告该单元格是否为内容单元格。
func (c *Cell) IsContent() bool { return c != nil && c.Kind == CellContent }
