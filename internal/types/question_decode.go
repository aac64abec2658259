package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// 题库文件多为手工编辑，题目字段按宽松规则解码：
// 数字和布尔值转为字符串，marks 接受数字字符串，其余无法识别的值取零值。
// 单个字段类型不对不会导致整个题库被跳过。

// UnmarshalJSON 实现 json.Unmarshaler
func (q *QuestionRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*q = questionFromRaw(raw)
	return nil
}

// UnmarshalYAML 实现 yaml.Unmarshaler
func (q *QuestionRecord) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*q = questionFromRaw(raw)
	return nil
}

// 不是对象的题目解码为空记录，规范化时因缺少 id 被丢弃
func questionFromRaw(raw any) QuestionRecord {
	m, ok := raw.(map[string]any)
	if !ok {
		return QuestionRecord{}
	}
	return QuestionRecord{
		ID:       scalarText(m["id"]),
		Level:    scalarText(m["level"]),
		Question: scalarText(m["question"]),
		Keywords: keywordList(m["keywords"]),
		Marks:    marksValue(m["marks"]),
	}
}

func scalarText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// 单个字符串视为只有一个关键词
func keywordList(v any) []string {
	switch x := v.(type) {
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s := scalarText(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case nil:
		return nil
	default:
		if s := scalarText(x); s != "" {
			return []string{s}
		}
		return nil
	}
}

// marksValue 无法解析或不是有限正数时返回 0，即未声明
func marksValue(v any) float64 {
	var f float64
	switch x := v.(type) {
	case json.Number:
		f, _ = x.Float64()
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case float64:
		f = x
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
