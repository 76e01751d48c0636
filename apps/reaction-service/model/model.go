package model

import "time"

// Reaction 反应文档，(post_id, user_id)唯一，一个用户对一个帖子最多一条反应
type Reaction struct {
	ID        int64     `bson:"_id" json:"id"`
	PostID    int64     `bson:"post_id" json:"post_id"`
	UserID    int64     `bson:"user_id" json:"user_id"`
	Type      string    `bson:"type" json:"type"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ToggleResult 切换反应的结果
type ToggleResult struct {
	Result   string `json:"result"`              // added / removed / switched
	Type     string `json:"type"`                // 本次请求的反应类型
	PrevType string `json:"prev_type,omitempty"` // switched时的原类型
}

// ToggleOutcome 根据已有反应类型计算切换动作
// 无反应则添加，同类型则移除，不同类型则切换
func ToggleOutcome(existingType, requestedType string) string {
	switch {
	case existingType == "":
		return ToggleResultAdded
	case existingType == requestedType:
		return ToggleResultRemoved
	default:
		return ToggleResultSwitched
	}
}

// TotalReactions 汇总各类型反应数，nil与缺失字段按0处理
func TotalReactions(counts map[string]int64) int64 {
	var total int64
	for _, c := range counts {
		if c > 0 {
			total += c
		}
	}
	return total
}
