package model

import "time"

// 可见性
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
	VisibilityGroup   = "group"
)

// IsValidVisibility 校验可见性取值
func IsValidVisibility(v string) bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityGroup:
		return true
	}
	return false
}

// 校验限制
const (
	MaxContentLength = 5000
	MaxImages        = 9
	MinRating        = 1
	MaxRating        = 5

	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// 错误原因码
const (
	ReasonPostNotFound     = "POST_NOT_FOUND"
	ReasonPermissionDenied = "PERMISSION_DENIED"
	ReasonInvalidParams    = "INVALID_PARAMS"
)

// 缓存键
const (
	PostCacheKey    = "post:info:%d" // 帖子详情缓存
	PostCacheExpire = 10 * time.Minute
)

// Kafka事件
const (
	TopicPostEvents = "post-events"

	EventPostCreated = "post.created"
	EventPostUpdated = "post.updated"
	EventPostDeleted = "post.deleted"
)
