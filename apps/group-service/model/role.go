package model

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
)

// Role 群组内角色
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole 解析存储的角色值，未知值视为数据损坏
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleMember:
		return Role(s), nil
	default:
		return "", errors.Conflict(ReasonRoleCorrupt, fmt.Sprintf("未知的角色值: %q", s))
	}
}

// CanAddMember 是否有权拉人入群
func (r Role) CanAddMember() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanPromote 是否有权提升管理员
func (r Role) CanPromote() bool {
	return r == RoleOwner
}

// CanRemoveMember 校验移除成员的权限
// 规则：任何人不能移除自己（退出群组走LeaveGroup）；
// 群主可移除除自己外的任何成员；管理员只能移除普通成员
func CanRemoveMember(actorRole, targetRole Role, actorID, targetID int64) error {
	if actorID == targetID {
		return errors.Forbidden(ReasonPermissionDenied, "不能移除自己，请使用退出群组")
	}

	switch actorRole {
	case RoleOwner:
		return nil
	case RoleAdmin:
		if targetRole == RoleMember {
			return nil
		}
		return errors.Forbidden(ReasonPermissionDenied,
			fmt.Sprintf("管理员只能移除普通成员，目标角色: %s", targetRole))
	default:
		return errors.Forbidden(ReasonPermissionDenied,
			fmt.Sprintf("普通成员无权移除他人，当前角色: %s", actorRole))
	}
}
