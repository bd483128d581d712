package layout

import (
	"encoding/json"
	"os"
)

// 网格快照：序列化协作方与渲染面消费的完整网格视图。字段集合需要
// 无损往返（bounds/type/content/槽位），格式本身由协作方负责。

// Snapshot 是一次性导出的网格视图。
type Snapshot struct {
	Canvas CanvasConfig  `json:"canvas"`
	Cells  []*Cell       `json:"cells"`
	Slots  []ContentSlot `json:"slots,omitempty"`
}

// Snapshot 生成当前场景的网格快照（单元格按阅读顺序，槽位按字段名）。
func (s *Scene) Snapshot() (*Snapshot, error) {
	slots, err := s.Slots()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Canvas: s.grid.Config,
		Cells:  s.grid.Cells,
		Slots:  slots,
	}, nil
}

// WriteSnapshotJSON 将快照输出为 JSON，便于调试或交给序列化协作方。
func WriteSnapshotJSON(snap *Snapshot, path string) error {
	if snap == nil {
		return nil
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
