package models

// AlertMessage 报警主题消息（SC/alerts/<User>/<Room>/...）
type AlertMessage struct {
	Events []AlertEvent `json:"events"`
}

// AlertEvent 单条报警事件
type AlertEvent struct {
	Status  string  `json:"status"`
	Field   string  `json:"field,omitempty"`
	Value   float64 `json:"value,omitempty"`
	Message string  `json:"message,omitempty"`
}
