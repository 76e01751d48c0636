package model

import (
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
)

// TestParseRole 测试角色解析
func TestParseRole(t *testing.T) {
	t.Run("合法角色", func(t *testing.T) {
		for _, s := range []string{"owner", "admin", "member"} {
			role, err := ParseRole(s)
			if err != nil {
				t.Errorf("解析角色 %q 不应报错: %v", s, err)
			}
			if string(role) != s {
				t.Errorf("期望角色 %q, 实际 %q", s, role)
			}
		}
	})

	t.Run("非法角色", func(t *testing.T) {
		for _, s := range []string{"", "superadmin", "OWNER", "moderator"} {
			_, err := ParseRole(s)
			if err == nil {
				t.Errorf("解析角色 %q 应该报错", s)
			}
			if !errors.IsConflict(err) {
				t.Errorf("非法角色 %q 应返回Conflict错误, 实际: %v", s, err)
			}
		}
	})
}

// TestRolePermissions 测试角色权限判定
func TestRolePermissions(t *testing.T) {
	t.Run("添加成员权限", func(t *testing.T) {
		if !RoleOwner.CanAddMember() {
			t.Error("群主应有添加成员权限")
		}
		if !RoleAdmin.CanAddMember() {
			t.Error("管理员应有添加成员权限")
		}
		if RoleMember.CanAddMember() {
			t.Error("普通成员不应有添加成员权限")
		}
	})

	t.Run("晋升权限", func(t *testing.T) {
		if !RoleOwner.CanPromote() {
			t.Error("群主应有晋升权限")
		}
		if RoleAdmin.CanPromote() {
			t.Error("管理员不应有晋升权限")
		}
		if RoleMember.CanPromote() {
			t.Error("普通成员不应有晋升权限")
		}
	})
}

// TestCanRemoveMember 测试移除成员的权限矩阵
func TestCanRemoveMember(t *testing.T) {
	cases := []struct {
		name      string
		actorRole Role
		target    Role
		actorID   int64
		targetID  int64
		allowed   bool
	}{
		{"群主移除普通成员", RoleOwner, RoleMember, 1, 2, true},
		{"群主移除管理员", RoleOwner, RoleAdmin, 1, 2, true},
		{"管理员移除普通成员", RoleAdmin, RoleMember, 2, 3, true},
		{"管理员移除管理员", RoleAdmin, RoleAdmin, 2, 3, false},
		{"管理员移除群主", RoleAdmin, RoleOwner, 2, 1, false},
		{"普通成员移除普通成员", RoleMember, RoleMember, 3, 4, false},
		{"群主移除自己", RoleOwner, RoleOwner, 1, 1, false},
		{"管理员移除自己", RoleAdmin, RoleAdmin, 2, 2, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanRemoveMember(tc.actorRole, tc.target, tc.actorID, tc.targetID)
			if tc.allowed && err != nil {
				t.Errorf("应允许操作, 实际被拒绝: %v", err)
			}
			if !tc.allowed {
				if err == nil {
					t.Fatal("应拒绝操作, 实际被允许")
				}
				if !errors.IsForbidden(err) {
					t.Errorf("拒绝应为Forbidden错误, 实际: %v", err)
				}
			}
		})
	}
}
