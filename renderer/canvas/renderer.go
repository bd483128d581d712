package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	xdraw "golang.org/x/image/draw"

	"github.com/ByLCY/mosaic/fonts"
	"github.com/ByLCY/mosaic/layout"
	"github.com/ByLCY/mosaic/renderer"
)

// Renderer 通过 github.com/tdewolff/canvas 绘制场景，同时充当布局的
// 度量后端与媒体探测器：几何计算与最终绘制共用同一套字体面与解码
// 路径，槽位包围盒因此与渲染结果逐点一致。
type Renderer struct {
	baseDir string

	// injected resources
	fontBlobs  map[string][]byte // by unique name
	imageBlobs map[string][]byte // by unique name

	fontMu         sync.Mutex
	fontTable      map[string]layout.FontResource // 按名称解析只带名字的字体引用
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer    = (*Renderer)(nil)
	_ layout.Measurer      = (*Renderer)(nil)
	_ layout.MediaProber   = (*Renderer)(nil)
	_ layout.FontRegistrar = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // built-in fonts accessible via built-in:<name>
	Images  map[string]Resource // built-in images accessible via built-in:<name>
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fontBlobs:    map[string][]byte{},
		imageBlobs:   map[string][]byte{},
		fontTable:    map[string]layout.FontResource{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if data := resourceBytes(res); len(data) > 0 {
			r.fontBlobs[name] = data
		}
	}
	for name, res := range opts.Images {
		if name == "" {
			continue
		}
		if data := resourceBytes(res); len(data) > 0 {
			r.imageBlobs[name] = data
		}
	}
	return r
}

func resourceBytes(res Resource) []byte {
	if len(res.Bytes) > 0 {
		return res.Bytes
	}
	if res.Path != "" {
		data, _ := os.ReadFile(res.Path) // 错误延迟到真正使用时暴露
		return data
	}
	return nil
}

// RegisterFonts 登记场景字体表，此后 Src 为空的字体引用按名称解析。
func (r *Renderer) RegisterFonts(table map[string]layout.FontResource) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	for name, font := range table {
		r.fontTable[name] = font
	}
}

// Measure 实现 layout.Measurer。
// 约定：入参字号为毫米（mm），内部与字体系统交互使用 pt，在边界换算。
// 字体解析失败时回退到内置缺省字体，保证度量总能给出结果。
func (r *Renderer) Measure(text string, font layout.FontResource, sizeMM float64) (layout.TextMetrics, error) {
	face, err := r.fontFace(font, toPt(sizeMM), layout.Color{R: 30, G: 30, B: 30}, "")
	if err != nil {
		return layout.TextMetrics{}, err
	}
	metrics := face.Metrics()
	return layout.TextMetrics{
		Width:   face.TextWidth(text),
		Height:  metrics.LineHeight,
		Ascent:  metrics.Ascent,
		Descent: metrics.Descent,
	}, nil
}

// Probe 实现 layout.MediaProber：只读图片头部取像素尺寸，不做完整解码。
func (r *Renderer) Probe(src string) (int, int, error) {
	reader, closer, err := r.openMedia(src)
	if err != nil {
		return 0, 0, err
	}
	defer closer()
	cfg, _, err := image.DecodeConfig(reader)
	if err != nil {
		return 0, 0, fmt.Errorf("解析图片 %s 尺寸失败: %w", src, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Render 将场景渲染为 PDF 字节切片。
func (r *Renderer) Render(scene *layout.Scene) ([]byte, error) {
	if scene == nil {
		return nil, fmt.Errorf("场景为空")
	}
	grid := scene.Grid()
	cfg := grid.Config

	var buf bytes.Buffer
	writer := pdf.New(&buf, cfg.Width, cfg.Height, nil)
	writer.SetInfo(scene.Meta.Title, "", "", scene.Meta.Author, scene.Meta.Creator)

	c := canvas.New(cfg.Width, cfg.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	for _, cell := range grid.Cells {
		if err := r.drawCell(ctx, cell, scene.Resources); err != nil {
			return nil, err
		}
	}
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawCell(ctx *canvas.Context, cell *layout.Cell, res layout.ResourceSet) error {
	if cell.Kind == layout.CellText {
		return r.drawTextCell(ctx, cell, res)
	}
	switch cell.Content.Kind {
	case layout.ContentEmpty:
		return nil
	case layout.ContentText:
		return r.drawTextContent(ctx, cell)
	case layout.ContentMedia:
		return r.drawMediaContent(ctx, cell)
	default:
		slog.Warn("跳过未知内容类型的单元格", "cell", cell.ID, "kind", int(cell.Content.Kind))
		return nil
	}
}

// drawTextCell 绘制文本单元格的单行内容。行的位置与对齐在检测阶段
// 已经落实到 TextBounds，这里只需在该矩形内按基线绘制。
func (r *Renderer) drawTextCell(ctx *canvas.Context, cell *layout.Cell, res layout.ResourceSet) error {
	style := cell.Style.Normalized()
	font := layout.ResolveFont(style.Font, res)
	if style.Weight != "" && font.Style == "" {
		font.Style = style.Weight
	}
	face, err := r.fontFace(font, toPt(style.Size), style.Color, style.Decoration)
	if err != nil {
		return err
	}
	baseline := cell.TextBounds.Y + face.Metrics().Ascent
	ctx.DrawText(cell.TextBounds.X, baseline, canvas.NewTextLine(face, cell.Line.Content, canvas.Left))
	return nil
}

// drawTextContent 绘制内容单元格中的文本：几何由 TextContentGeometry
// 给出（包括自动字号的解析结果），逐行按紧致盒内的对齐绘制。
func (r *Renderer) drawTextContent(ctx *canvas.Context, cell *layout.Cell) error {
	tc := cell.Content.Text
	geo, err := layout.TextContentGeometry(cell.Bounds, tc, r)
	if err != nil {
		return err
	}
	font := layout.FontResource{Name: tc.Font}
	face, err := r.fontFace(font, toPt(geo.Size), tc.Color, "")
	if err != nil {
		return err
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch tc.AlignH {
	case layout.AlignCenter:
		textAlign = canvas.Center
		anchorX = geo.Box.X + geo.Box.W/2
	case layout.AlignRight:
		textAlign = canvas.Right
		anchorX = geo.Box.Right()
	default:
		textAlign = canvas.Left
		anchorX = geo.Box.X
	}

	ascent := face.Metrics().Ascent
	cursorY := geo.Box.Y
	for _, line := range geo.Lines {
		cursorY += line.GapBefore
		ctx.DrawText(anchorX, cursorY+ascent, canvas.NewTextLine(face, line.Content, textAlign))
		cursorY += line.Height
	}
	return nil
}

// drawMediaContent 绘制内容单元格中的媒体。
//
//   - 资源未就绪：在单元格内画浅灰占位块；
//   - fit：按自然尺寸 × scale 绘制，允许溢出单元格；
//   - cover：按内容区域比例居中裁剪后铺满内容区域；
//   - stretch：重采样到内容区域的精确尺寸；
//   - 旋转围绕内容中心，只对 fit 生效（cover/stretch 已钉死在区域内）。
func (r *Renderer) drawMediaContent(ctx *canvas.Context, cell *layout.Cell) error {
	mc := cell.Content.Media
	if mc == nil {
		return nil
	}
	if !mc.Resource.Ready() {
		ctx.SetFillColor(canvas.Hex("#e8e8e8"))
		ctx.SetStrokeColor(color.RGBA{})
		ctx.DrawPath(cell.Bounds.X, cell.Bounds.Y, canvas.Rectangle(cell.Bounds.W, cell.Bounds.H))
		return nil
	}

	img, err := r.decodeMedia(mc.Resource.Src)
	if err != nil {
		return err
	}
	area := cell.Bounds.Inset(mc.Padding)

	switch mc.Fill {
	case layout.FillStretch:
		return drawResampled(ctx, img, img.Bounds(), area)
	case layout.FillCover:
		return drawResampled(ctx, img, coverCrop(img.Bounds(), area), area)
	}

	scale := mc.Scale
	if scale <= 0 {
		scale = 1
	}
	w := mc.Resource.NaturalWidth * scale
	h := mc.Resource.NaturalHeight * scale
	if w <= 0 || h <= 0 {
		return nil
	}
	box := layout.MediaContentBox(cell.Bounds, mc)
	// 未旋转矩形与旋转后包围盒共享中心
	cx := box.X + box.W/2
	cy := box.Y + box.H/2
	dpmm := float64(img.Bounds().Dx()) / w

	if mc.Rotation != 0 {
		ctx.Push()
		ctx.RotateAbout(-mc.Rotation, cx, cy) // CartesianIV 翻转 Y 轴，角度取反保持顺时针语义
		ctx.DrawImage(cx-w/2, cy-h/2, img, canvas.DPMM(dpmm))
		ctx.Pop()
		return nil
	}
	ctx.DrawImage(cx-w/2, cy-h/2, img, canvas.DPMM(dpmm))
	return nil
}

// drawResampled 把源图的 crop 区域重采样后铺进 area（mm）。
func drawResampled(ctx *canvas.Context, img image.Image, crop image.Rectangle, area layout.Rect) error {
	if area.W <= 0 || area.H <= 0 || crop.Dx() <= 0 || crop.Dy() <= 0 {
		return nil
	}
	// 目标像素密度沿用源图横向密度，避免无谓放大
	dpmm := float64(crop.Dx()) / area.W
	if dpmm <= 0 {
		dpmm = 1
	}
	dstW := int(math.Round(area.W * dpmm))
	dstH := int(math.Round(area.H * dpmm))
	if dstW <= 0 || dstH <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, xdraw.Over, nil)
	ctx.DrawImage(area.X, area.Y, dst, canvas.DPMM(dpmm))
	return nil
}

// coverCrop 返回与 area 同比例、在源图内居中的最大裁剪区域。
func coverCrop(src image.Rectangle, area layout.Rect) image.Rectangle {
	if area.W <= 0 || area.H <= 0 {
		return src
	}
	target := area.W / area.H
	w := float64(src.Dx())
	h := float64(src.Dy())
	cropW, cropH := w, h
	if w/h > target {
		cropW = h * target
	} else {
		cropH = w / target
	}
	x0 := src.Min.X + int((w-cropW)/2)
	y0 := src.Min.Y + int((h-cropH)/2)
	return image.Rect(x0, y0, x0+int(cropW), y0+int(cropH))
}

// openMedia 按 src 打开媒体数据流：built-in:<name> 取注入资源，
// 其余按 baseDir 相对路径或绝对路径读取文件。
func (r *Renderer) openMedia(src string) (io.Reader, func(), error) {
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		blob, ok := r.imageBlobs[name]
		if !ok {
			return nil, nil, fmt.Errorf("找不到内置图片资源 built-in:%s", name)
		}
		return bytes.NewReader(blob), func() {}, nil
	}
	if r.baseDir == "" && !filepath.IsAbs(src) {
		return nil, nil, fmt.Errorf("未指定资源目录时不允许直接使用路径：%s（请改用 built-in:）", src)
	}
	path := src
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	return file, func() { file.Close() }, nil
}

func (r *Renderer) decodeMedia(src string) (image.Image, error) {
	reader, closer, err := r.openMedia(src)
	if err != nil {
		return nil, err
	}
	defer closer()
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", src, err)
	}
	return img, nil
}

func (r *Renderer) fontFace(font layout.FontResource, sizePt float64, col layout.Color, decoration string) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	fill := colorFromLayout(col)
	d := strings.ToLower(decoration)
	underline := strings.Contains(d, "underline")
	strike := strings.Contains(d, "strike")
	switch {
	case underline && strike:
		return family.Face(sizePt, fill, style, canvas.FontNormal, canvas.FontUnderline, canvas.FontStrikethrough), nil
	case underline:
		return family.Face(sizePt, fill, style, canvas.FontNormal, canvas.FontUnderline), nil
	case strike:
		return family.Face(sizePt, fill, style, canvas.FontNormal, canvas.FontStrikethrough), nil
	default:
		return family.Face(sizePt, fill, style, canvas.FontNormal), nil
	}
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if font.Src == "" {
		if resolved, ok := r.fontTable[font.Name]; ok {
			font = resolved
		}
	}
	key := fontCacheKey(font)
	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Family
	if familyName == "" {
		familyName = font.Name
	}
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	src := font.Src
	if src == "" {
		// 没有任何来源信息的引用直接用内置缺省字体
		return fonts.Default(), nil
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	family := canvas.NewFontFamily("mosaic-fallback")
	if err := family.LoadFont(fonts.Default(), 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
