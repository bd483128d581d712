package binding

import "testing"

func sampleData() any {
	return map[string]any{
		"user": map[string]any{
			"name": "Ada",
			"tags": []any{"x", "y"},
		},
		"items": []any{
			map[string]any{"title": "First"},
			map[string]any{"title": "Second"},
		},
		"count": 3,
	}
}

// TestInterpolate 覆盖字段、数组下标与嵌套路径的替换。
func TestInterpolate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello ${user.name}", "Hello Ada"},
		{"${items[1].title} of ${count}", "Second of 3"},
		{"${user.tags[0]}/${user.tags[1]}", "x/y"},
		{"no placeholder", "no placeholder"},
		{"${}", "${}"},
		{"${missing.path}", "${missing.path}"},
		{"${items[9].title}", "${items[9].title}"},
		{"${items[-1].title}", "${items[-1].title}"},
	}
	data := sampleData()
	for _, c := range cases {
		if got := Interpolate(c.in, data); got != c.want {
			t.Fatalf("Interpolate(%q) 期望 %q，实际 %q", c.in, c.want, got)
		}
	}
}

// TestInterpolateNilData 验证无数据时占位符原样保留。
func TestInterpolateNilData(t *testing.T) {
	in := "Hello ${user.name}"
	if got := Interpolate(in, nil); got != in {
		t.Fatalf("nil 数据应原样返回，实际 %q", got)
	}
}

// TestLookup 验证路径解析的布尔结果。
func TestLookup(t *testing.T) {
	data := sampleData()
	if v, ok := Lookup(data, "user.name"); !ok || v != "Ada" {
		t.Fatalf("user.name 解析失败: %v %v", v, ok)
	}
	if _, ok := Lookup(data, "user.name.deeper"); ok {
		t.Fatalf("标量下的路径不应解析成功")
	}
	if _, ok := Lookup(data, "items[2]"); ok {
		t.Fatalf("越界下标不应解析成功")
	}
}
