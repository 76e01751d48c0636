package model

import "time"

// 参数校验
const (
	MaxGroupNameLength = 50
	MaxDescLength      = 500
)

// 错误原因码
const (
	ReasonGroupNotFound    = "GROUP_NOT_FOUND"
	ReasonNotGroupMember   = "NOT_GROUP_MEMBER"
	ReasonPermissionDenied = "PERMISSION_DENIED"
	ReasonInvalidParams    = "INVALID_PARAMS"
	ReasonMemberConflict   = "MEMBER_CONFLICT"
	ReasonRoleCorrupt      = "ROLE_CORRUPT"
)

// 缓存键
const (
	GroupInfoCacheKey    = "group:info:%d"    // 群组信息缓存
	GroupMembersCacheKey = "group:members:%d" // 群成员列表缓存
	GroupCacheExpire     = 10 * time.Minute
)

// Kafka事件
const (
	TopicGroupEvents = "group-events"

	EventGroupCreated   = "group.created"
	EventGroupDisbanded = "group.disbanded"
	EventMemberJoined   = "group.member_joined"
	EventMemberAdded    = "group.member_added"
	EventMemberRemoved  = "group.member_removed"
	EventMemberLeft     = "group.member_left"
	EventAdminPromoted  = "group.admin_promoted"
)
