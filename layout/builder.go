package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/mosaic/binding"
	"github.com/ByLCY/mosaic/dsl"
)

// 该文件把场景 AST 绑定到布局引擎：解析资源段、画布配置、文本块、
// 内容填充（fill）与槽位配置（slot），产出可渲染的 Scene。

// SceneMeta 保存场景元信息（输出到 PDF 文档信息）。
type SceneMeta struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Creator string `json:"creator"`
}

// BuildOptions 配置构建阶段的依赖。
type BuildOptions struct {
	Measurer Measurer
	Prober   MediaProber
	// Data 为文本中 ${path} 占位符提供数据；为空时占位符原样保留。
	Data any
}

// Build 根据场景 AST 生成 Scene：检测网格、应用内容填充与槽位配置。
func Build(doc *dsl.Document, opts BuildOptions) (*Scene, error) {
	if doc == nil {
		return nil, fmt.Errorf("场景为空")
	}
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少度量后端 Measurer")
	}

	res := collectResources(doc)
	meta := collectMeta(doc)
	if reg, ok := opts.Measurer.(FontRegistrar); ok {
		reg.RegisterFonts(res.Fonts)
	}

	canvasSection := firstCanvas(doc)
	if canvasSection == nil {
		return nil, fmt.Errorf("场景中缺少 canvas 段落")
	}
	if canvasSection.Block == nil {
		return nil, fmt.Errorf("canvas 段落缺少内容")
	}
	cfg, err := resolveCanvasConfig(canvasSection.Spec)
	if err != nil {
		return nil, err
	}

	block, err := buildTextBlock(canvasSection.Block, res, opts.Data)
	if err != nil {
		return nil, err
	}

	scene, err := NewScene(cfg, block, res, opts.Measurer, opts.Prober)
	if err != nil {
		return nil, err
	}
	scene.Meta = meta

	if err := applyFills(scene, canvasSection.Block, res, opts.Data); err != nil {
		return nil, err
	}
	if err := applySlots(scene, canvasSection.Block); err != nil {
		return nil, err
	}
	return scene, nil
}

// resolveCanvasConfig 解析 canvas 头部参数：
//
//	canvas 210mm 297mm padding 10mm valign middle min-cell 8mm
//
// 前两个数值为宽高；padding 接受 1-4 个长度（CSS 语义）。
func resolveCanvasConfig(spec dsl.CanvasSpec) (CanvasConfig, error) {
	cfg := CanvasConfig{VAlign: AlignMiddle}
	var dims []float64
	params := spec.Params
	for i := 0; i < len(params); i++ {
		token := params[i]
		switch strings.ToLower(token.Value) {
		case "padding":
			vals := []float64{}
			for j := i + 1; j < len(params) && len(vals) < 4; j++ {
				if !isLengthToken(params[j].Value) {
					break
				}
				vals = append(vals, ParseLength(params[j].Value))
			}
			i += len(vals)
			switch len(vals) {
			case 1:
				cfg.Padding = Uniform(vals[0])
			case 2:
				cfg.Padding = Padding{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
			case 3:
				cfg.Padding = Padding{Top: vals[0], Right: vals[1], Bottom: vals[2]}
			case 4:
				cfg.Padding = Padding{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
			}
		case "valign":
			if i+1 < len(params) {
				cfg.VAlign = ParseVAlign(params[i+1].Value)
				i++
			}
		case "min-cell":
			if i+1 < len(params) {
				cfg.MinCell = ParseLength(params[i+1].Value)
				i++
			}
		default:
			if isLengthToken(token.Value) && len(dims) < 2 {
				dims = append(dims, ParseLength(token.Value))
			}
		}
	}
	if len(dims) < 2 {
		return cfg, fmt.Errorf("canvas 需要宽高两个尺寸参数")
	}
	cfg.Width, cfg.Height = dims[0], dims[1]
	return cfg, nil
}

func isLengthToken(v string) bool {
	num := v
	for _, suffix := range []string{"pt", "mm", "cm", "in", "%"} {
		if strings.HasSuffix(v, suffix) {
			num = strings.TrimSuffix(v, suffix)
			break
		}
	}
	_, err := strconv.ParseFloat(num, 64)
	return err == nil
}

// buildTextBlock 从 canvas 块中的 text 命令构建源文本块。
// 块级属性来自 text 块内的赋值；裸字符串按块级样式成行；
// line 子命令允许逐行覆盖样式。
func buildTextBlock(block *dsl.Block, res ResourceSet, data any) (TextBlock, error) {
	var out TextBlock
	textCmd := findCommand(block, "text")
	if textCmd == nil || textCmd.Block == nil {
		return out, nil // 空文本块是合法的退化输入
	}

	attrs := attrsOf(textCmd.Block)
	out.Style = styleFromAttrs(TextStyle{}, attrs, res)

	appendLine := func(text string, style TextStyle) {
		if data != nil {
			text = binding.Interpolate(text, data)
		}
		out.Lines = append(out.Lines, BlockLine{Text: text, Style: style})
	}

	for _, stmt := range textCmd.Block.Statements {
		switch {
		case stmt.Text != nil:
			appendLine(string(stmt.Text.Value), out.Style)
		case stmt.Command != nil && stmt.Command.Name == "line":
			lineAttrs := attrsOf(stmt.Command.Block)
			style := styleFromAttrs(out.Style, lineAttrs, res)
			for _, ls := range textLiteralsOf(stmt.Command.Block) {
				appendLine(ls, style)
			}
		}
	}
	return out, nil
}

// applyFills 处理 fill 命令：给 (row, col) 处的内容单元格赋内容。
func applyFills(scene *Scene, block *dsl.Block, res ResourceSet, data any) error {
	for _, stmt := range block.Statements {
		cmd := stmt.Command
		if cmd == nil || cmd.Name != "fill" {
			continue
		}
		row, col, err := cellCoords(cmd.Args)
		if err != nil {
			return fmt.Errorf("fill 语句坐标非法: %w", err)
		}
		cell := scene.Grid().CellAt(row, col)
		if cell == nil {
			return fmt.Errorf("fill (%d,%d)：该位置没有单元格", row, col)
		}
		if cell.Kind != CellContent {
			return fmt.Errorf("fill (%d,%d)：文本单元格内容只读", row, col)
		}
		attrs := attrsOf(cmd.Block)
		content, dpi, err := contentFromAttrs(attrs, res, data)
		if err != nil {
			return fmt.Errorf("fill (%d,%d): %w", row, col, err)
		}
		if err := scene.AssignContent(cell.ID, content); err != nil {
			return err
		}
		if anim := animFromAttrs(attrs); anim.Name != "" {
			if err := scene.SetAnim(cell.ID, anim); err != nil {
				return err
			}
		}
		if content.Kind == ContentMedia {
			scene.ProbeMedia(cell.ID, dpi)
		}
	}
	return nil
}

// applySlots 处理 slot 命令：登记 (row, col) 处单元格的字段配置。
func applySlots(scene *Scene, block *dsl.Block) error {
	for _, stmt := range block.Statements {
		cmd := stmt.Command
		if cmd == nil || cmd.Name != "slot" {
			continue
		}
		row, col, err := cellCoords(cmd.Args)
		if err != nil {
			return fmt.Errorf("slot 语句坐标非法: %w", err)
		}
		cell := scene.Grid().CellAt(row, col)
		if cell == nil {
			return fmt.Errorf("slot (%d,%d)：该位置没有单元格", row, col)
		}
		attrs := attrsOf(cmd.Block)
		cfg := SlotConfig{
			FieldName:        attrs["field"],
			FieldLabel:       attrs["label"],
			Required:         attrs["required"] == "true",
			FullWidth:        attrs["full-width"] == "true",
			MinFontSize:      ParseLength(attrs["min-size"]),
			MaxFontSize:      ParseLength(attrs["max-size"]),
			FitMode:          ParseFillMode(attrs["fit"]),
			MaxResourceBytes: parseInt64(attrs["max-bytes"]),
		}
		if v := attrs["max-chars"]; v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				cfg.MaxChars = n
			}
		}
		if cfg.FieldName == "" {
			return fmt.Errorf("slot (%d,%d) 缺少 field 名称", row, col)
		}
		scene.Registry.Configure(cell.ID, cfg)
	}
	return nil
}

// contentFromAttrs 从属性表构造内容描述：出现 media/src 为媒体，
// 出现 text 为文本，都没有则为空内容。
func contentFromAttrs(attrs map[string]string, res ResourceSet, data any) (Content, int, error) {
	if name := firstNonEmpty(attrs["media"], attrs["src"]); name != "" {
		decl, ok := res.Media[name]
		if !ok {
			decl = MediaDecl{Name: name, Src: name}
		}
		src := decl.Src
		if src == "" {
			src = name
		}
		mc := &MediaContent{
			Resource: NewPendingMedia(src),
			Scale:    1,
			Fill:     ParseFillMode(attrs["fit"]),
			AlignH:   ParseHAlign(attrs["align"]),
			AlignV:   ParseVAlign(attrs["valign"]),
			Padding:  Uniform(ParseLength(attrs["padding"])),
		}
		if v := attrs["scale"]; v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				mc.Scale = f
			}
		}
		if v := attrs["rotate"]; v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				mc.Rotation = f
			}
		}
		return Content{Kind: ContentMedia, Media: mc}, decl.DPI, nil
	}

	if text, ok := attrs["text"]; ok {
		if data != nil {
			text = binding.Interpolate(text, data)
		}
		tc := &TextContent{
			Text:       text,
			Font:       attrs["font"],
			Color:      resolveColor(attrs["color"], res),
			AlignH:     ParseHAlign(attrs["align"]),
			AlignV:     ParseVAlign(attrs["valign"]),
			Padding:    Uniform(ParseLength(attrs["padding"])),
			LineHeight: parseLineHeightFactor(attrs["line-height"]),
		}
		if v := strings.TrimSpace(attrs["size"]); v != "" && !strings.EqualFold(v, "auto") {
			tc.Size = ParseLength(v)
		}
		tc.AutoMinSize = ParseLength(attrs["min-size"])
		tc.AutoMaxSize = ParseLength(attrs["max-size"])
		return Content{Kind: ContentText, Text: tc}, 0, nil
	}

	return EmptyContent(), 0, nil
}

func animFromAttrs(attrs map[string]string) AnimState {
	anim := AnimState{Name: attrs["anim"]}
	if v := attrs["anim-duration"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			anim.DurationMS = n
		}
	}
	if v := attrs["anim-delay"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			anim.DelayMS = n
		}
	}
	return anim
}

// styleFromAttrs 在 base 样式上应用属性覆盖。
func styleFromAttrs(base TextStyle, attrs map[string]string, res ResourceSet) TextStyle {
	style := base
	if v := attrs["font"]; v != "" {
		style.Font = v
	}
	if v := attrs["size"]; v != "" {
		if s := ParseLength(v); s > 0 {
			style.Size = s
		}
	}
	if v := attrs["line-height"]; v != "" {
		if f := parseLineHeightFactor(v); f > 0 {
			style.LineHeight = f
		}
	}
	if v := attrs["color"]; v != "" {
		style.Color = resolveColor(v, res)
	}
	if v := attrs["align"]; v != "" {
		style.Align = ParseHAlign(v)
	}
	if v := attrs["weight"]; v != "" {
		style.Weight = v
	}
	if v := attrs["decoration"]; v != "" {
		style.Decoration = v
	}
	return style
}

// parseLineHeightFactor 解析行高倍数："1.2x" 或裸数字；绝对长度
// 换算为相对默认字号的倍数没有意义，这里不支持，返回 0 交由默认值。
func parseLineHeightFactor(v string) float64 {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "x"))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return f
}

func collectResources(doc *dsl.Document) ResourceSet {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Colors: map[string]Color{},
		Media:  map[string]MediaDecl{},
	}
	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			switch stmt.Command.Name {
			case "font":
				font := parseFontResource(stmt.Command)
				if font.Name != "" {
					res.Fonts[font.Name] = font
				}
			case "color":
				name, value := firstAndLastArg(stmt.Command)
				if name == "" || value == "" {
					continue
				}
				if c, err := parseColor(value); err == nil {
					res.Colors[name] = c
				}
			case "media":
				media := parseMediaDecl(stmt.Command)
				if media.Name != "" {
					res.Media[media.Name] = media
				}
			}
		}
	}

	if len(res.Fonts) == 0 {
		res.Fonts["Body"] = FontResource{
			Name:   "Body",
			Src:    "embed:lmroman10-regular",
			Family: "Body",
		}
	}
	return res
}

func collectMeta(doc *dsl.Document) SceneMeta {
	meta := SceneMeta{Creator: "Mosaic"}
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = valueToString(stmt.Assignment.Value)
			case "author":
				meta.Author = valueToString(stmt.Assignment.Value)
			case "creator":
				meta.Creator = valueToString(stmt.Assignment.Value)
			}
		}
	}
	return meta
}

func parseFontResource(cmd *dsl.Command) FontResource {
	if len(cmd.Args) == 0 {
		return FontResource{}
	}
	font := FontResource{
		Name:   cmd.Args[0].Value,
		Family: cmd.Args[0].Value,
	}
	if cmd.Block == nil {
		return font
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		val := valueToString(stmt.Assignment.Value)
		switch stmt.Assignment.Key {
		case "src":
			font.Src = val
		case "style":
			font.Style = val
		case "fallback":
			font.Fallback = val
		}
	}
	return font
}

func parseMediaDecl(cmd *dsl.Command) MediaDecl {
	if len(cmd.Args) == 0 {
		return MediaDecl{}
	}
	media := MediaDecl{Name: cmd.Args[0].Value}
	if cmd.Block == nil {
		return media
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		val := valueToString(stmt.Assignment.Value)
		switch stmt.Assignment.Key {
		case "src":
			media.Src = val
		case "dpi":
			if n, err := strconv.Atoi(val); err == nil {
				media.DPI = n
			}
		}
	}
	return media
}

// ResolveFont 按名称解析字体资源：未定义时退回 Body，再退回任意
// 已定义字体；一个都没有时返回内置默认字体。
func ResolveFont(name string, res ResourceSet) FontResource {
	if font, ok := res.Fonts[name]; ok {
		return font
	}
	if font, ok := res.Fonts["Body"]; ok {
		return font
	}
	for _, font := range res.Fonts {
		return font
	}
	return FontResource{Name: "Body", Src: "embed:lmroman10-regular"}
}

func resolveColor(value string, res ResourceSet) Color {
	if value == "" {
		return Color{R: 30, G: 30, B: 30}
	}
	if c, ok := res.Colors[value]; ok {
		return c
	}
	if strings.HasPrefix(value, "#") {
		if c, err := parseColor(value); err == nil {
			return c
		}
	}
	return Color{R: 30, G: 30, B: 30}
}

func parseColor(value string) (Color, error) {
	value = strings.TrimPrefix(value, "#")
	switch len(value) {
	case 3:
		return Color{
			R: mustHex(strings.Repeat(string(value[0]), 2)),
			G: mustHex(strings.Repeat(string(value[1]), 2)),
			B: mustHex(strings.Repeat(string(value[2]), 2)),
		}, nil
	case 6, 8:
		return Color{
			R: mustHex(value[0:2]),
			G: mustHex(value[2:4]),
			B: mustHex(value[4:6]),
		}, nil
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}

// --- AST 辅助 ---

func firstCanvas(doc *dsl.Document) *dsl.CanvasSection {
	for _, section := range doc.Sections {
		if section.Canvas != nil {
			return section.Canvas
		}
	}
	return nil
}

func findCommand(block *dsl.Block, name string) *dsl.Command {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Statements {
		if stmt.Command != nil && stmt.Command.Name == name {
			return stmt.Command
		}
	}
	return nil
}

// attrsOf 收集块内全部赋值为属性表。
func attrsOf(block *dsl.Block) map[string]string {
	out := map[string]string{}
	if block == nil {
		return out
	}
	for _, stmt := range block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		if v := valueToString(stmt.Assignment.Value); v != "" {
			out[stmt.Assignment.Key] = v
		}
	}
	return out
}

func textLiteralsOf(block *dsl.Block) []string {
	var out []string
	if block == nil {
		return out
	}
	for _, stmt := range block.Statements {
		if stmt.Text != nil {
			out = append(out, string(stmt.Text.Value))
		}
	}
	return out
}

// cellCoords 从命令参数解析 (row, col)。
func cellCoords(args []*dsl.Lexeme) (int, int, error) {
	var nums []int
	for _, a := range args {
		n, err := strconv.Atoi(a.Value)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	if len(nums) < 2 {
		return 0, 0, fmt.Errorf("需要 row col 两个坐标")
	}
	return nums[0], nums[1], nil
}

func firstAndLastArg(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	value := ""
	if len(cmd.Args) > 1 {
		value = cmd.Args[len(cmd.Args)-1].Value
	}
	return name, value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseInt64(v string) int64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		var builder strings.Builder
		for _, part := range val.Expr.Parts {
			builder.WriteString(part.Value)
		}
		return builder.String()
	default:
		return ""
	}
}
