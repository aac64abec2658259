package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// All 需要自动迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&QuestionBank{},
		&BankQuestion{},
		&ResumeAnalysis{},
		&OutboxMessage{},
	}
}

// toJSON 序列化为 JSON 列，nil 切片写成 []
func toJSON[T any](v []T) (datatypes.JSON, error) {
	if v == nil {
		v = []T{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// fromJSON 反序列化 JSON 列，空列或格式错误时返回空切片
func fromJSON[T any](data datatypes.JSON) []T {
	out := []T{}
	if len(data) == 0 {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return []T{}
	}
	return out
}
