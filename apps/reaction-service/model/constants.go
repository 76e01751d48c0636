package model

import "time"

// 反应类型
const (
	ReactionTypeLike = "like"
	ReactionTypeLove = "love"
	ReactionTypeHaha = "haha"
	ReactionTypeSad  = "sad"
)

// ValidReactionTypes 支持的反应类型列表
var ValidReactionTypes = []string{
	ReactionTypeLike,
	ReactionTypeLove,
	ReactionTypeHaha,
	ReactionTypeSad,
}

// IsValidReactionType 校验反应类型
func IsValidReactionType(t string) bool {
	for _, valid := range ValidReactionTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// 切换结果
const (
	ToggleResultAdded    = "added"
	ToggleResultRemoved  = "removed"
	ToggleResultSwitched = "switched"
)

// 错误原因码
const (
	ReasonInvalidParams    = "INVALID_PARAMS"
	ReasonReactionConflict = "REACTION_CONFLICT"
	ReasonPostNotFound     = "POST_NOT_FOUND"
)

// 缓存键
const (
	ReactionCountsCacheKey = "reaction:counts:%d" // 帖子反应计数缓存
	ReactionCacheExpire    = 5 * time.Minute
)

// Kafka事件
const (
	TopicReactionEvents = "reaction-events"

	EventReactionAdded    = "reaction.added"
	EventReactionRemoved  = "reaction.removed"
	EventReactionSwitched = "reaction.switched"
)
