package model

import "time"

// 校验限制
const (
	MaxCommentLength = 2000
	MaxReplyLength   = 1000
)

// 错误原因码
const (
	ReasonCommentNotFound = "COMMENT_NOT_FOUND"
	ReasonReplyNotFound   = "REPLY_NOT_FOUND"
	ReasonPostNotFound    = "POST_NOT_FOUND"
	ReasonInvalidParams   = "INVALID_PARAMS"
)

// 缓存键
const (
	CommentListCacheKey = "comment:list:%d" // 帖子评论列表缓存
	CommentCacheExpire  = 5 * time.Minute
)

// Kafka事件
const (
	TopicCommentEvents = "comment-events"

	EventCommentCreated = "comment.created"
	EventCommentDeleted = "comment.deleted"
	EventReplyAdded     = "comment.reply_added"
	EventReplyRemoved   = "comment.reply_removed"
)
