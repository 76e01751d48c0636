package dao

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/maiphh/food-social/apps/group-service/model"
	"github.com/maiphh/food-social/pkg/database"
)

const (
	groupCollection = "groups"
	userCollection  = "users"
)

// groupMongoDAO 基于MongoDB的群组DAO实现
type groupMongoDAO struct {
	db *database.MongoDB
}

// NewGroupDAO 创建群组DAO
func NewGroupDAO(db *database.MongoDB) GroupDAO {
	return &groupMongoDAO{db: db}
}

// CreateGroup 创建群组文档
func (d *groupMongoDAO) CreateGroup(ctx context.Context, group *model.Group) error {
	coll := d.db.GetCollection(groupCollection)
	if _, err := coll.InsertOne(ctx, group); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Conflict(model.ReasonMemberConflict, "群组ID冲突")
		}
		return fmt.Errorf("failed to create group: %v", err)
	}
	return nil
}

// GetGroup 按ID获取群组
func (d *groupMongoDAO) GetGroup(ctx context.Context, groupID int64) (*model.Group, error) {
	coll := d.db.GetCollection(groupCollection)

	var group model.Group
	err := coll.FindOne(ctx, bson.M{"_id": groupID}).Decode(&group)
	if err == mongo.ErrNoDocuments {
		return nil, errors.NotFound(model.ReasonGroupNotFound, "群组不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %v", err)
	}
	return &group, nil
}

// DeleteGroup 删除群组文档
func (d *groupMongoDAO) DeleteGroup(ctx context.Context, groupID int64) error {
	coll := d.db.GetCollection(groupCollection)

	result, err := coll.DeleteOne(ctx, bson.M{"_id": groupID})
	if err != nil {
		return fmt.Errorf("failed to delete group: %v", err)
	}
	if result.DeletedCount == 0 {
		return errors.NotFound(model.ReasonGroupNotFound, "群组不存在")
	}
	return nil
}

// GetUserGroups 获取用户加入的所有群组
func (d *groupMongoDAO) GetUserGroups(ctx context.Context, userID int64) ([]*model.Group, error) {
	coll := d.db.GetCollection(groupCollection)

	cursor, err := coll.Find(ctx, bson.M{"members": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to query user groups: %v", err)
	}
	defer cursor.Close(ctx)

	var groups []*model.Group
	for cursor.Next(ctx) {
		var group model.Group
		if err := cursor.Decode(&group); err != nil {
			return nil, fmt.Errorf("failed to decode group: %v", err)
		}
		groups = append(groups, &group)
	}
	return groups, cursor.Err()
}

// AddMemberIfAbsent 加入成员
// 过滤条件要求角色键不存在，成员数组与角色映射在同一次更新中写入，
// 保证members与roles键集合一致，且重复加入不会降级已有角色
func (d *groupMongoDAO) AddMemberIfAbsent(ctx context.Context, groupID, userID int64) (bool, error) {
	coll := d.db.GetCollection(groupCollection)
	roleKey := "roles." + strconv.FormatInt(userID, 10)

	filter := bson.M{
		"_id":   groupID,
		roleKey: bson.M{"$exists": false},
	}
	update := bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set": bson.M{
			roleKey:      string(model.RoleMember),
			"updated_at": time.Now(),
		},
	}

	result, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to add member: %v", err)
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	// 未匹配：要么群组不存在，要么用户已是成员
	count, err := coll.CountDocuments(ctx, bson.M{"_id": groupID})
	if err != nil {
		return false, fmt.Errorf("failed to check group existence: %v", err)
	}
	if count == 0 {
		return false, errors.NotFound(model.ReasonGroupNotFound, "群组不存在")
	}
	return false, nil
}

// RemoveMember 移除成员及其角色，单文档更新保证两者同步
// 过滤条件比较授权时观察到的角色，并发晋升会让匹配落空而不是误删
func (d *groupMongoDAO) RemoveMember(ctx context.Context, groupID, userID int64, role model.Role) (bool, error) {
	coll := d.db.GetCollection(groupCollection)
	roleKey := "roles." + strconv.FormatInt(userID, 10)

	filter := bson.M{
		"_id":   groupID,
		roleKey: string(role),
	}
	update := bson.M{
		"$pull":  bson.M{"members": userID},
		"$unset": bson.M{roleKey: ""},
		"$set":   bson.M{"updated_at": time.Now()},
	}

	result, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to remove member: %v", err)
	}
	return result.MatchedCount > 0, nil
}

// UpdateMemberRole 带前置条件的角色变更
// 过滤条件比较当前角色，并发下的晋升/移除竞争只有一方能生效
func (d *groupMongoDAO) UpdateMemberRole(ctx context.Context, groupID, userID int64, from, to model.Role) (bool, error) {
	coll := d.db.GetCollection(groupCollection)
	roleKey := "roles." + strconv.FormatInt(userID, 10)

	filter := bson.M{
		"_id":   groupID,
		roleKey: string(from),
	}
	update := bson.M{
		"$set": bson.M{
			roleKey:      string(to),
			"updated_at": time.Now(),
		},
	}

	result, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update member role: %v", err)
	}
	return result.MatchedCount > 0, nil
}

// GetUsersByIDs 批量获取用户资料
func (d *groupMongoDAO) GetUsersByIDs(ctx context.Context, userIDs []int64) (map[int64]*model.User, error) {
	if len(userIDs) == 0 {
		return map[int64]*model.User{}, nil
	}

	coll := d.db.GetCollection(userCollection)
	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %v", err)
	}
	defer cursor.Close(ctx)

	users := make(map[int64]*model.User, len(userIDs))
	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, fmt.Errorf("failed to decode user: %v", err)
		}
		users[user.ID] = &user
	}
	return users, cursor.Err()
}
