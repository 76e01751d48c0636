package dao

import (
	"context"

	"github.com/maiphh/food-social/apps/group-service/model"
)

// GroupDAO 群组数据访问接口
type GroupDAO interface {
	// CreateGroup 创建群组文档
	CreateGroup(ctx context.Context, group *model.Group) error
	// GetGroup 按ID获取群组，不存在时返回NotFound
	GetGroup(ctx context.Context, groupID int64) (*model.Group, error)
	// DeleteGroup 删除群组文档
	DeleteGroup(ctx context.Context, groupID int64) error
	// GetUserGroups 获取用户加入的所有群组
	GetUserGroups(ctx context.Context, userID int64) ([]*model.Group, error)

	// AddMemberIfAbsent 以单文档更新加入成员
	// 仅当角色键不存在时写入member角色，返回是否真正加入（false表示已是成员）
	AddMemberIfAbsent(ctx context.Context, groupID, userID int64) (bool, error)
	// RemoveMember 以单文档更新移除成员及其角色，返回是否有移除发生
	// 过滤条件比较当前角色，角色在授权检查之后发生变化时返回false
	RemoveMember(ctx context.Context, groupID, userID int64, role model.Role) (bool, error)
	// UpdateMemberRole 带前置条件的角色变更，当前角色不等于from时返回false
	UpdateMemberRole(ctx context.Context, groupID, userID int64, from, to model.Role) (bool, error)

	// GetUsersByIDs 批量获取用户资料，缺失的ID不在返回值中
	GetUsersByIDs(ctx context.Context, userIDs []int64) (map[int64]*model.User, error)
}
