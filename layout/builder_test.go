package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ByLCY/mosaic/dsl"
)

const sceneText = `scene demo v1 {
	meta {
		title: "Demo"
		author: "tester"
	}
	resources {
		color accent #ff6600
		media logo {
			src: "logo.png"
			dpi: 300
		}
	}
	canvas 200 200 padding 10 valign middle min-cell 10 {
		text {
			size: 8
			align: left
			"Hello world"
			""
			"Second line"
		}
		fill 0 0 {
			text: "Name: ${user.name}"
			size: 6
			align: center
			color: accent
		}
		slot 0 0 {
			field: "headline"
			label: "Headline"
			required: true
			max-chars: 40
		}
	}
}`

func buildTestScene(t *testing.T, data any) *Scene {
	t.Helper()
	doc, err := dsl.Parse(strings.NewReader(sceneText))
	require.NoError(t, err)
	scene, err := Build(doc, BuildOptions{Measurer: stubMeasurer{}, Data: data})
	require.NoError(t, err)
	return scene
}

// TestBuildSceneStructure 验证从场景文件到网格的完整构建。
func TestBuildSceneStructure(t *testing.T) {
	scene := buildTestScene(t, nil)

	require.Equal(t, "Demo", scene.Meta.Title)
	require.Equal(t, "tester", scene.Meta.Author)
	require.Equal(t, Color{R: 255, G: 102, B: 0}, scene.Resources.Colors["accent"])
	require.Equal(t, "logo.png", scene.Resources.Media["logo"].Src)
	require.Equal(t, 300, scene.Resources.Media["logo"].DPI)

	g := scene.Grid()
	require.Equal(t, CanvasConfig{
		Width: 200, Height: 200,
		Padding: Uniform(10),
		VAlign:  AlignMiddle,
		MinCell: 10,
	}, g.Config)
	// 上空余 / 第一行 / 空行 / 第二行 / 下空余
	require.Equal(t, 5, g.Rows)
	require.Len(t, g.TextCells(), 2)
	assertPartition(t, g)
}

// TestBuildAppliesFillAndSlot 验证 fill 与 slot 命令落到目标单元格。
func TestBuildAppliesFillAndSlot(t *testing.T) {
	scene := buildTestScene(t, map[string]any{
		"user": map[string]any{"name": "Ada"},
	})

	cell := scene.Grid().CellAt(0, 0)
	require.NotNil(t, cell)
	require.Equal(t, ContentText, cell.Content.Kind)
	require.Equal(t, "Name: Ada", cell.Content.Text.Text)
	require.InDelta(t, 6, cell.Content.Text.Size, 1e-9)
	require.Equal(t, AlignCenter, cell.Content.Text.AlignH)
	require.Equal(t, Color{R: 255, G: 102, B: 0}, cell.Content.Text.Color)

	cfg, ok := scene.Registry.Config(cell.ID)
	require.True(t, ok)
	require.Equal(t, "headline", cfg.FieldName)
	require.Equal(t, "Headline", cfg.FieldLabel)
	require.True(t, cfg.Required)
	require.Equal(t, 40, cfg.MaxChars)

	slots, err := scene.Slots()
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, cell.ID, slots[0].CellID)
}

// TestBuildWithoutDataKeepsPlaceholders 验证无绑定数据时占位符原样保留。
func TestBuildWithoutDataKeepsPlaceholders(t *testing.T) {
	scene := buildTestScene(t, nil)
	cell := scene.Grid().CellAt(0, 0)
	require.Equal(t, "Name: ${user.name}", cell.Content.Text.Text)
}

// TestBuildRejectsBadInput 验证缺失段落与非法坐标返回错误。
func TestBuildRejectsBadInput(t *testing.T) {
	doc, err := dsl.ParseString(`scene empty v1 { meta { title: "x" } }`)
	require.NoError(t, err)
	_, err = Build(doc, BuildOptions{Measurer: stubMeasurer{}})
	require.Error(t, err)

	doc, err = dsl.ParseString(`scene bad v1 {
	canvas 100 100 {
		text {
			"hi"
		}
		fill 99 99 {
			text: "nope"
		}
	}
}`)
	require.NoError(t, err)
	_, err = Build(doc, BuildOptions{Measurer: stubMeasurer{}})
	require.Error(t, err)
}

// TestBuildFillOnTextCellFails 验证文本单元格不可被 fill。
func TestBuildFillOnTextCellFails(t *testing.T) {
	doc, err := dsl.ParseString(`scene bad v1 {
	canvas 100 100 valign middle min-cell 10 {
		text {
			size: 8
			"hello"
		}
		fill 1 0 {
			text: "nope"
		}
	}
}`)
	require.NoError(t, err)
	_, err = Build(doc, BuildOptions{Measurer: stubMeasurer{}})
	require.Error(t, err)
}
