package model

import (
	"strconv"
	"time"
)

// Group 群组文档
// roles 以十进制用户ID字符串为键，值为角色名，members 与 roles 的键集合始终一致
type Group struct {
	ID          int64             `bson:"_id" json:"id"`
	Name        string            `bson:"name" json:"name"`
	Description string            `bson:"description" json:"description"`
	Avatar      string            `bson:"avatar" json:"avatar"`
	OwnerID     int64             `bson:"owner_id" json:"owner_id"`
	IsPrivate   bool              `bson:"is_private" json:"is_private"`
	Members     []int64           `bson:"members" json:"members"`
	Roles       map[string]string `bson:"roles" json:"roles"`
	CreatedAt   time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `bson:"updated_at" json:"updated_at"`
}

// RoleOf 返回指定用户在群组内的角色
// 第二个返回值表示该用户是否为群成员，存储的角色值非法时返回错误
func (g *Group) RoleOf(userID int64) (Role, bool, error) {
	raw, ok := g.Roles[strconv.FormatInt(userID, 10)]
	if !ok {
		return "", false, nil
	}
	role, err := ParseRole(raw)
	if err != nil {
		return "", true, err
	}
	return role, true, nil
}

// MemberCount 群成员数量
func (g *Group) MemberCount() int {
	return len(g.Members)
}

// User 用户资料文档
type User struct {
	ID        int64     `bson:"_id" json:"id"`
	Username  string    `bson:"username" json:"username"`
	Nickname  string    `bson:"nickname" json:"nickname"`
	Avatar    string    `bson:"avatar" json:"avatar"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// GroupMember 成员列表项，成员资料与角色的组合视图
type GroupMember struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Role     Role   `json:"role"`
}
