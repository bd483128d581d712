package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ByLCY/mosaic/dsl"
	"github.com/ByLCY/mosaic/layout"
	"github.com/ByLCY/mosaic/renderer"
	canvasrenderer "github.com/ByLCY/mosaic/renderer/canvas"
)

func main() {
	input := flag.String("in", "examples/demo.mosaic", "场景文件路径")
	output := flag.String("out", "output/demo.pdf", "PDF 输出路径")
	snapshot := flag.String("snapshot", "", "网格快照 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到场景文本的 JSON 数据")
	flag.Parse()

	var inputData any
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	r := canvasrenderer.NewRenderer(filepath.Dir(*input))
	if err := run(*input, *output, *snapshot, inputData, r); err != nil {
		log.Fatalf("生成 PDF 失败: %v", err)
	}
	fmt.Printf("已生成 PDF：%s\n", *output)
}

// run 串联解析、网格检测与渲染。
func run(inputPath, outputPath, snapshotPath string, data any, r renderer.Renderer) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("无法打开场景文件 %s: %w", inputPath, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return fmt.Errorf("解析场景失败: %w", err)
	}

	m, ok := r.(layout.Measurer)
	if !ok {
		return fmt.Errorf("renderer 未实现度量接口")
	}
	prober, _ := r.(layout.MediaProber)

	scene, err := layout.Build(doc, layout.BuildOptions{
		Measurer: m,
		Prober:   prober,
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("网格检测失败: %w", err)
	}

	if snapshotPath != "" {
		if err := writeSnapshot(scene, snapshotPath); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	pdfBytes, err := r.Render(scene)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}

	return nil
}

func writeSnapshot(scene *layout.Scene, snapshotPath string) error {
	if err := os.MkdirAll(filepath.Dir(snapshotPath), 0o755); err != nil {
		return fmt.Errorf("创建快照目录失败: %w", err)
	}
	snap, err := scene.Snapshot()
	if err != nil {
		return fmt.Errorf("生成网格快照失败: %w", err)
	}
	if err := layout.WriteSnapshotJSON(snap, snapshotPath); err != nil {
		return fmt.Errorf("输出快照 JSON 失败: %w", err)
	}
	return nil
}
