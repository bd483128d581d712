package canvasrenderer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ByLCY/mosaic/dsl"
	"github.com/ByLCY/mosaic/layout"
)

// TestMeasureWithBuiltinFont 用真实内置字体验证度量接口：宽度为正、
// 随文本变长单调增长，行高与上升部可用。
func TestMeasureWithBuiltinFont(t *testing.T) {
	r := NewRenderer("")
	font := layout.FontResource{Name: "Body", Src: "embed:lmroman10-regular"}

	short, err := r.Measure("Hi", font, 5)
	require.NoError(t, err)
	long, err := r.Measure("Hello world", font, 5)
	require.NoError(t, err)

	require.Greater(t, short.Width, 0.0)
	require.Greater(t, long.Width, short.Width)
	require.Greater(t, short.Height, 0.0)
	require.Greater(t, short.Ascent, 0.0)
}

// TestMeasureFallsBackOnBadFont 验证字体解析失败时回退到缺省字体，
// 度量仍然给出结果。
func TestMeasureFallsBackOnBadFont(t *testing.T) {
	r := NewRenderer("")
	tm, err := r.Measure("text", layout.FontResource{Name: "Nope", Src: "embed:does-not-exist"}, 5)
	require.NoError(t, err)
	require.Greater(t, tm.Width, 0.0)
}

// TestRegisteredFontResolution 验证登记字体表后，只带名称的引用
// 与带 src 的引用度量一致。
func TestRegisteredFontResolution(t *testing.T) {
	r := NewRenderer("")
	full := layout.FontResource{Name: "Body", Src: "embed:lmroman10-bold"}
	r.RegisterFonts(map[string]layout.FontResource{"Body": full})

	byName, err := r.Measure("sample", layout.FontResource{Name: "Body"}, 6)
	require.NoError(t, err)
	bySrc, err := r.Measure("sample", full, 6)
	require.NoError(t, err)
	require.InDelta(t, bySrc.Width, byName.Width, 1e-9)
}

// TestRenderScenePDF 端到端：解析场景、构建网格并输出 PDF。
func TestRenderScenePDF(t *testing.T) {
	const sceneText = `scene demo v1 {
	meta {
		title: "Demo"
	}
	resources {
		font Body {
			src: "embed:lmroman10-regular"
		}
	}
	canvas 120 90 padding 5 valign middle min-cell 8 {
		text {
			font: Body
			size: 5
			"Hello world"
			""
			"second line of text"
		}
		fill 0 0 {
			text: "filled"
			size: 4
			align: center
		}
	}
}`
	r := NewRenderer("")
	doc, err := dsl.ParseString(sceneText)
	require.NoError(t, err)

	scene, err := layout.Build(doc, layout.BuildOptions{Measurer: r, Prober: r})
	require.NoError(t, err)
	require.NotEmpty(t, scene.Grid().TextCells())

	data, err := r.Render(scene)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")), "输出应为 PDF")
}

// TestRenderNilScene 验证空场景返回错误。
func TestRenderNilScene(t *testing.T) {
	r := NewRenderer("")
	_, err := r.Render(nil)
	require.Error(t, err)
}
