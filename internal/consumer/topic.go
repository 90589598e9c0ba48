package consumer

import "strings"

// TopicInfo 主题路径解析结果
type TopicInfo struct {
	UserID  string
	RoomID  string
	Leaf    string
	IsAlert bool
}

// ParseTopic 解析遥测/报警主题
// 遥测：SC/<User>/<Room>/<...>/<leaf>；报警：SC/alerts/<User>/<Room>/<...>
// 段数不足或根段不是 SC 的主题返回 ok=false（静默忽略）
func ParseTopic(topic string) (TopicInfo, bool) {
	t := strings.TrimLeft(strings.TrimSpace(topic), "/")
	for strings.Contains(t, "//") {
		t = strings.ReplaceAll(t, "//", "/")
	}

	parts := strings.Split(t, "/")
	if len(parts) < 4 || parts[0] != "SC" {
		return TopicInfo{}, false
	}

	info := TopicInfo{Leaf: parts[len(parts)-1]}
	if parts[1] == "alerts" {
		info.IsAlert = true
		info.UserID = parts[2]
		info.RoomID = parts[3]
	} else {
		info.UserID = parts[1]
		info.RoomID = parts[2]
	}

	if info.UserID == "" || info.RoomID == "" || info.Leaf == "" {
		return TopicInfo{}, false
	}
	return info, true
}

// NormalizeSubscriptions 订阅模板归一化
// {User}/{Room} 占位符替换为 + 通配符，清理空白与重复斜杠；不发明新的订阅
func NormalizeSubscriptions(templates []string) []string {
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		t = strings.ReplaceAll(t, "{User}", "+")
		t = strings.ReplaceAll(t, "{Room}", "+")
		for strings.Contains(t, "//") {
			t = strings.ReplaceAll(t, "//", "/")
		}
		out = append(out, t)
	}
	return out
}
