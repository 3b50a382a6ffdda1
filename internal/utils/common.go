package utils

import (
	"encoding/json"
	"fmt"
)

// MapToJSON map转出为json
func MapToJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// NestedMap 取 m[k1][k2]... 的对象，不存在返回 nil
func NestedMap(m map[string]any, keys ...string) map[string]any {
	cur := m
	for _, k := range keys {
		if cur == nil {
			return nil
		}
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// NestedString 取 m[k1]...[kn] 的字符串值，数字按文本返回
func NestedString(m map[string]any, keys ...string) string {
	if len(keys) == 0 {
		return ""
	}
	parent := NestedMap(m, keys[:len(keys)-1]...)
	if parent == nil {
		return ""
	}
	switch v := parent[keys[len(keys)-1]].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// CloneMap 浅拷贝
func CloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
