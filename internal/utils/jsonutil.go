package utils

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// StringOrNumber 网关响应码可能是字符串也可能是数字
type StringOrNumber string

func (s *StringOrNumber) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = StringOrNumber(str)
		return nil
	}
	*s = StringOrNumber(strings.TrimSpace(string(b)))
	return nil
}

// FlexibleMsg 网关错误信息可能是 string / object / array
type FlexibleMsg struct {
	Text string
}

func (m *FlexibleMsg) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Text = s
		return nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			switch val := obj[k].(type) {
			case string:
				parts = append(parts, fmt.Sprintf("%s: %s", k, val))
			case float64:
				parts = append(parts, fmt.Sprintf("%s: %v", k, val))
			default:
				b, _ := json.Marshal(val)
				parts = append(parts, fmt.Sprintf("%s: %s", k, string(b)))
			}
		}
		m.Text = strings.Join(parts, "; ")
		return nil
	}

	m.Text = string(data)
	return nil
}

func (m FlexibleMsg) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Text)
}
