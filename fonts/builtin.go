package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10oblique"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// DefaultName 是缺省字体的内置名称，所有字体解析失败时最终回退到它。
const DefaultName = "lmroman10-regular"

// 内置字体目录。src 写作 "embed:<name>" 时按此表取字节数据。
var builtin = map[string][]byte{
	"lmroman10-regular": lmroman10regular.TTF,
	"lmroman10-bold":    lmroman10bold.TTF,
	"lmroman10-italic":  lmroman10italic.TTF,
	"lmsans10-regular":  lmsans10regular.TTF,
	"lmsans10-bold":     lmsans10bold.TTF,
	"lmsans10-oblique":  lmsans10oblique.TTF,
	"lmmono10-regular":  lmmono10regular.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:lmroman10-regular" 或直接 "lmroman10-regular"。
func Load(name string) ([]byte, error) {
	key := strings.TrimPrefix(strings.TrimSpace(name), "embed:")
	if data, ok := builtin[key]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("内置字体 %s 不存在（可用：%s）", key, strings.Join(Names(), ", "))
}

// Default 返回缺省字体的字节数据。
func Default() []byte { return builtin[DefaultName] }

// Names 返回全部内置字体名称（字典序），用于错误提示与文档。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
