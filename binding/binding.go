package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 占位符插值：把文本中的 ${path.to[0].value} 替换成数据中的值。
// 数据来自 JSON 解码，因此只需处理 map[string]any 与 []any 两种容器。

var placeholder = regexp.MustCompile(`\$\{([^}]*)\}`)

// Interpolate 替换 text 中的全部占位符。data 为空、路径为空或路径
// 解析失败时，对应占位符原样保留。
func Interpolate(text string, data any) string {
	if data == nil || !strings.Contains(text, "${") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if path == "" {
			return match
		}
		val, ok := Lookup(data, path)
		if !ok {
			return match
		}
		return fmt.Sprint(val)
	})
}

// Lookup 沿路径在数据中取值。路径由点分隔的字段名与 [n] 下标组成，
// 如 items[2].name。
func Lookup(data any, path string) (any, bool) {
	current := data
	for _, seg := range splitPath(path) {
		var ok bool
		if seg.index >= 0 {
			current, ok = elemAt(current, seg.index)
		} else {
			current, ok = fieldOf(current, seg.name)
		}
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// segment 是路径的一个步骤：字段名或下标（index >= 0 时为下标）。
type segment struct {
	name  string
	index int
}

func splitPath(path string) []segment {
	var segs []segment
	rest := path
	for rest != "" {
		switch rest[0] {
		case '.':
			rest = rest[1:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return append(segs, segment{name: rest, index: -1})
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil || idx < 0 {
				idx = -1
			}
			segs = append(segs, segment{index: idx, name: rest[1:end]})
			rest = rest[end+1:]
		default:
			stop := strings.IndexAny(rest, ".[")
			if stop < 0 {
				stop = len(rest)
			}
			segs = append(segs, segment{name: rest[:stop], index: -1})
			rest = rest[stop:]
		}
	}
	return segs
}

func fieldOf(current any, key string) (any, bool) {
	m, ok := current.(map[string]any)
	if !ok {
		return nil, false
	}
	val, ok := m[key]
	return val, ok
}

func elemAt(current any, idx int) (any, bool) {
	arr, ok := current.([]any)
	if !ok || idx >= len(arr) {
		return nil, false
	}
	return arr[idx], true
}
