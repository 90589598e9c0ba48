package senml

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record SenML 记录（一个 pack 是记录数组）
type Record struct {
	BaseName string  `json:"bn,omitempty"`
	BaseTime float64 `json:"bt,omitempty"`
	Entries  []Entry `json:"e"`
}

// Entry SenML 条目，值字段按 v -> vb -> vs 优先级解析
type Entry struct {
	Name        string   `json:"n"`
	Unit        string   `json:"u,omitempty"`
	Value       *float64 `json:"v,omitempty"`
	BoolValue   *bool    `json:"vb,omitempty"`
	StringValue *string  `json:"vs,omitempty"`
	Time        float64  `json:"t,omitempty"`
}

// Measurement 解码后的单条测量
type Measurement struct {
	Name      string
	Unit      string
	Value     interface{}
	Timestamp float64
}

// Parse 解码 SenML pack 为测量列表
// 名称规则：bn 存在时为 "bn/n"，bt + t 得到绝对时间戳
func Parse(payload []byte) ([]Measurement, error) {
	var pack []Record
	if err := json.Unmarshal(payload, &pack); err != nil {
		return nil, fmt.Errorf("payload is not a SenML pack: %w", err)
	}

	var out []Measurement
	for _, rec := range pack {
		bn := strings.TrimRight(rec.BaseName, "/")
		for _, e := range rec.Entries {
			var val interface{}
			switch {
			case e.Value != nil:
				val = *e.Value
			case e.BoolValue != nil:
				val = *e.BoolValue
			case e.StringValue != nil:
				val = *e.StringValue
			default:
				val = nil
			}

			name := e.Name
			if bn != "" {
				name = bn + "/" + e.Name
			}

			out = append(out, Measurement{
				Name:      name,
				Unit:      e.Unit,
				Value:     val,
				Timestamp: rec.BaseTime + e.Time,
			})
		}
	}
	return out, nil
}

// Build 构造设备侧 SenML pack（测试与模拟设备使用）
func Build(deviceID string, entries []Entry, baseTime float64) ([]byte, error) {
	pack := []Record{{
		BaseName: deviceID + "/",
		BaseTime: baseTime,
		Entries:  entries,
	}}
	return json.Marshal(pack)
}
