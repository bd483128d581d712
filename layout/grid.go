package layout

// Grid 持有当前文档状态下的全部单元格。文本或画布尺寸变化时整体
// 重建；重建时按内容单元格的阅读序号把旧内容迁移到新网格，并返回
// 显式的旧身份→新身份映射。

// Grid 是一次检测的完整结果：互不重叠、覆盖整个内容区域的单元格集合。
type Grid struct {
	Config CanvasConfig `json:"config"`
	Rows   int          `json:"rows"`
	Cells  []*Cell      `json:"cells"`

	minCell float64
}

// MinCell 返回本次检测实际使用的最小单元尺寸（mm）。
func (g *Grid) MinCell() float64 { return g.minCell }

// ContentArea 返回内容区域矩形。
func (g *Grid) ContentArea() Rect { return g.Config.ContentArea() }

// ContentCells 按阅读顺序返回全部内容单元格。
func (g *Grid) ContentCells() []*Cell {
	var out []*Cell
	for _, c := range g.Cells {
		if c.Kind == CellContent {
			out = append(out, c)
		}
	}
	return out
}

// TextCells 按阅读顺序返回全部文本单元格。
func (g *Grid) TextCells() []*Cell {
	var out []*Cell
	for _, c := range g.Cells {
		if c.Kind == CellText {
			out = append(out, c)
		}
	}
	return out
}

// CellByID 按身份令牌查找单元格；不存在时返回 nil。
func (g *Grid) CellByID(id string) *Cell {
	for _, c := range g.Cells {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// CellAt 返回 (row, col) 处的单元格；不存在时返回 nil。
func (g *Grid) CellAt(row, col int) *Cell {
	for _, c := range g.Cells {
		if c.Row == row && c.Col == col {
			return c
		}
	}
	return nil
}

// Rebuild 用新的文本块重新检测网格，并把旧内容单元格的内容、样式
// 与动画状态迁移到新网格。
//
// 匹配策略：按内容单元格在阅读顺序中的序号一一对应；序号超出新网格
// 范围的旧单元格视为无匹配（其内容丢弃）。匹配成功的新单元格沿用旧
// 单元格的身份令牌，因此以 ID 为键的外部状态（槽位配置等）自然存续。
// 返回的映射对每个旧 ID 都有一项：匹配到的新 ID，或空串表示无匹配。
//
// 序号匹配在网格形状变化（增删行）时会整体错位，这是沿用的原始行为；
// 显式映射让错位可被调用方观察到。
func (g *Grid) Rebuild(block TextBlock, m Measurer) (*Grid, map[string]string, error) {
	ng, err := Detect(block, g.Config, m)
	if err != nil {
		return nil, nil, err
	}

	oldCC := g.ContentCells()
	newCC := ng.ContentCells()
	mapping := make(map[string]string, len(oldCC))
	for i, old := range oldCC {
		if i >= len(newCC) {
			mapping[old.ID] = ""
			continue
		}
		fresh := newCC[i]
		fresh.ID = old.ID
		fresh.Content = old.Content
		fresh.Anim = old.Anim
		mapping[old.ID] = fresh.ID
	}
	return ng, mapping, nil
}
