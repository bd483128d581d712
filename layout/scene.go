package layout

import (
	"fmt"
	"log/slog"
)

// Scene 是编辑器面向的文档根：当前文本块、当前网格、槽位登记表与
// 资源表。所有网格/单元格变更都在单个输入事件内同步完成；重建期间
// 不暴露半成品网格——新网格完整构建后一次性替换旧网格。

type Scene struct {
	Meta      SceneMeta
	Block     TextBlock
	Resources ResourceSet
	Registry  *SlotRegistry

	grid     *Grid
	measurer Measurer
	prober   MediaProber
}

// NewScene 用初始文本块构建场景并完成首次网格检测。
func NewScene(cfg CanvasConfig, block TextBlock, res ResourceSet, m Measurer, p MediaProber) (*Scene, error) {
	if m == nil {
		return nil, fmt.Errorf("scene: 缺少度量后端 Measurer")
	}
	g, err := Detect(block, cfg, m)
	if err != nil {
		return nil, err
	}
	return &Scene{
		Block:     block,
		Resources: res,
		Registry:  NewSlotRegistry(),
		grid:      g,
		measurer:  m,
		prober:    p,
	}, nil
}

// Grid 返回当前网格。
func (s *Scene) Grid() *Grid { return s.grid }

// Measurer 返回场景使用的度量后端。
func (s *Scene) Measurer() Measurer { return s.measurer }

// SetText 用新文本块重建网格：检测、按身份迁移内容与槽位配置，
// 然后原子替换。检测失败时场景保持原状。
func (s *Scene) SetText(block TextBlock) (map[string]string, error) {
	ng, mapping, err := s.grid.Rebuild(block, s.measurer)
	if err != nil {
		return nil, err
	}
	s.Block = block
	s.grid = ng
	s.Registry.Migrate(mapping)
	return mapping, nil
}

// AssignContent 给内容单元格赋内容。单元格只保留最近一次赋值。
func (s *Scene) AssignContent(cellID string, content Content) error {
	cell := s.grid.CellByID(cellID)
	if cell == nil {
		return fmt.Errorf("单元格 %s 不存在", cellID)
	}
	if cell.Kind != CellContent {
		return fmt.Errorf("单元格 %s 是文本单元格，内容只读", cellID)
	}
	cell.Content = content
	return nil
}

// SetAnim 设置内容单元格的动画状态（随身份迁移，播放不在此处）。
func (s *Scene) SetAnim(cellID string, anim AnimState) error {
	cell := s.grid.CellByID(cellID)
	if cell == nil || cell.Kind != CellContent {
		return fmt.Errorf("单元格 %s 不存在或不是内容单元格", cellID)
	}
	cell.Anim = anim
	return nil
}

// ResolveMedia 把一次异步解码结果写回单元格持有的资源句柄。
// 只有当单元格仍持有同一 src 的媒体内容时才生效（最新赋值优先，
// 过期的解码结果直接丢弃），返回值报告是否生效。
func (s *Scene) ResolveMedia(cellID, src string, widthPx, heightPx, dpi int) bool {
	cell := s.grid.CellByID(cellID)
	if cell == nil || cell.Content.Kind != ContentMedia || cell.Content.Media == nil {
		return false
	}
	res := cell.Content.Media.Resource
	if res == nil || res.Src != src {
		slog.Debug("丢弃过期的媒体解码结果", "cell", cellID, "src", src)
		return false
	}
	res.Resolve(PxToMM(widthPx, dpi), PxToMM(heightPx, dpi))
	return true
}

// ProbeMedia 用场景的探测器同步解析单元格媒体的自然尺寸。
// 探测失败时资源保持 Pending（几何计算继续使用单元格矩形占位），
// 不作为错误上抛。
func (s *Scene) ProbeMedia(cellID string, dpi int) {
	if s.prober == nil {
		return
	}
	cell := s.grid.CellByID(cellID)
	if cell == nil || cell.Content.Kind != ContentMedia || cell.Content.Media == nil {
		return
	}
	res := cell.Content.Media.Resource
	if res == nil || res.Ready() {
		return
	}
	w, h, err := s.prober.Probe(res.Src)
	if err != nil {
		slog.Warn("媒体资源探测失败，保持占位尺寸", "src", res.Src, "err", err)
		return
	}
	s.ResolveMedia(cellID, res.Src, w, h, dpi)
}

// Slots 返回当前全部槽位（每次调用重新计算包围盒）。
func (s *Scene) Slots() ([]ContentSlot, error) {
	return s.Registry.Slots(s.grid, s.measurer)
}
