package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/maiphh/food-social/apps/group-service/dao"
	"github.com/maiphh/food-social/apps/group-service/model"
	tracecontext "github.com/maiphh/food-social/pkg/context"
	"github.com/maiphh/food-social/pkg/kafka"
	"github.com/maiphh/food-social/pkg/logger"
	"github.com/maiphh/food-social/pkg/redis"
	"github.com/maiphh/food-social/pkg/snowflake"
	"github.com/maiphh/food-social/pkg/telemetry"
)

// Service 群组服务
type Service struct {
	dao    dao.GroupDAO
	redis  *redis.RedisClient
	kafka  *kafka.Producer
	logger logger.Logger
}

// NewService 创建群组服务实例
func NewService(groupDAO dao.GroupDAO, redis *redis.RedisClient, kafka *kafka.Producer, log logger.Logger) *Service {
	return &Service{
		dao:    groupDAO,
		redis:  redis,
		kafka:  kafka,
		logger: log,
	}
}

// CreateGroup 创建群组，创建者自动成为群主
func (s *Service) CreateGroup(ctx context.Context, name, description, avatar string, ownerID int64, isPrivate bool) (*model.Group, error) {
	ctx, span := telemetry.StartSpan(ctx, "group.service.CreateGroup")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, ownerID)
	span.SetAttributes(attribute.String("group.name", name))

	name = strings.TrimSpace(name)
	if name == "" {
		err := errors.BadRequest(model.ReasonInvalidParams, "群组名称不能为空")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid group name")
		return nil, err
	}
	if len([]rune(name)) > model.MaxGroupNameLength {
		err := errors.BadRequest(model.ReasonInvalidParams,
			fmt.Sprintf("群组名称不能超过%d个字符", model.MaxGroupNameLength))
		span.RecordError(err)
		span.SetStatus(codes.Error, "group name too long")
		return nil, err
	}
	if ownerID <= 0 {
		err := errors.BadRequest(model.ReasonInvalidParams, "创建者ID无效")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid owner id")
		return nil, err
	}

	now := time.Now()
	group := &model.Group{
		ID:          snowflake.GenerateID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Avatar:      avatar,
		OwnerID:     ownerID,
		IsPrivate:   isPrivate,
		Members:     []int64{ownerID},
		Roles:       map[string]string{strconv.FormatInt(ownerID, 10): string(model.RoleOwner)},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.dao.CreateGroup(ctx, group); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create group")
		return nil, err
	}

	s.publishGroupEvent(ctx, model.EventGroupCreated, group.ID, ownerID, 0)

	span.SetAttributes(attribute.Int64("group.id", group.ID))
	span.SetStatus(codes.Ok, "group created")
	return group, nil
}

// GetGroup 获取群组信息
func (s *Service) GetGroup(ctx context.Context, groupID int64) (*model.Group, error) {
	ctx, span := telemetry.StartSpan(ctx, "group.service.GetGroup")
	defer span.End()

	ctx = tracecontext.WithGroupID(ctx, groupID)

	// 先查缓存
	if group := s.getGroupFromCache(ctx, groupID); group != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "group from cache")
		return group, nil
	}

	group, err := s.dao.GetGroup(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get group")
		return nil, err
	}

	s.cacheGroup(ctx, group)
	span.SetStatus(codes.Ok, "group fetched")
	return group, nil
}

// GetUserGroups 获取用户加入的群组列表
func (s *Service) GetUserGroups(ctx context.Context, userID int64) ([]*model.Group, error) {
	ctx, span := telemetry.StartSpan(ctx, "group.service.GetUserGroups")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, userID)

	groups, err := s.dao.GetUserGroups(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get user groups")
		return nil, err
	}

	span.SetAttributes(attribute.Int("group.count", len(groups)))
	span.SetStatus(codes.Ok, "user groups fetched")
	return groups, nil
}

// JoinGroup 加入群组，幂等操作，重复加入不会降级已有角色
func (s *Service) JoinGroup(ctx context.Context, groupID, userID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "group.service.JoinGroup")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, userID)
	ctx = tracecontext.WithGroupID(ctx, groupID)

	if groupID <= 0 || userID <= 0 {
		err := errors.BadRequest(model.ReasonInvalidParams, "群组ID和用户ID不能为空")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid params")
		return err
	}

	added, err := s.dao.AddMemberIfAbsent(ctx, groupID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to join group")
		return err
	}
	if !added {
		// 已是成员，保持幂等
		s.logger.Debug(ctx, "User already in group, join is a no-op",
			logger.F("groupID", groupID),
			logger.F("userID", userID))
		span.SetStatus(codes.Ok, "already a member")
		return nil
	}

	s.invalidateGroupCache(ctx, groupID)
	s.publishGroupEvent(ctx, model.EventMemberJoined, groupID, userID, userID)

	span.SetStatus(codes.Ok, "joined group")
	return nil
}

// AddMember 拉人入群，需要群主或管理员权限
func (s *Service) AddMember(ctx context.Context, groupID, actorID, userID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "group.service.AddMember")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, actorID)
	ctx = tracecontext.WithGroupID(ctx, groupID)
	span.SetAttributes(attribute.Int64("target.user_id", userID))

	actorRole, err := s.requireMemberRole(ctx, groupID, actorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "actor check failed")
		return err
	}
	if !actorRole.CanAddMember() {
		err := errors.Forbidden(model.ReasonPermissionDenied,
			fmt.Sprintf("只有群主或管理员可以添加成员，当前角色: %s", actorRole))
		span.RecordError(err)
		span.SetStatus(codes.Error, "permission denied")
		return err
	}

	added, err := s.dao.AddMemberIfAbsent(ctx, groupID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add member")
		return err
	}
	if !added {
		span.SetStatus(codes.Ok, "already a member")
		return nil
	}

	s.invalidateGroupCache(ctx, groupID)
	s.publishGroupEvent(ctx, model.EventMemberAdded, groupID, actorID, userID)

	span.SetStatus(codes.Ok, "member added")
	return nil
}

// RemoveMember 移除群成员
// 权限规则见model.CanRemoveMember：群主可移除任何人，管理员只能移除普通成员
func (s *Service) RemoveMember(ctx context.Context, groupID, actorID, userID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "group.service.RemoveMember")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, actorID)
	ctx = tracecontext.WithGroupID(ctx, groupID)
	span.SetAttributes(attribute.Int64("target.user_id", userID))

	group, err := s.dao.GetGroup(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get group")
		return err
	}

	actorRole, actorIsMember, err := group.RoleOf(actorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt actor role")
		return err
	}
	if !actorIsMember {
		err := errors.Forbidden(model.ReasonPermissionDenied, "非群成员无权操作")
		span.RecordError(err)
		span.SetStatus(codes.Error, "actor not a member")
		return err
	}

	targetRole, targetIsMember, err := group.RoleOf(userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt target role")
		return err
	}
	if !targetIsMember {
		err := errors.NotFound(model.ReasonNotGroupMember, "该用户不是群成员")
		span.RecordError(err)
		span.SetStatus(codes.Error, "target not a member")
		return err
	}

	if err := model.CanRemoveMember(actorRole, targetRole, actorID, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "permission denied")
		return err
	}

	removed, err := s.dao.RemoveMember(ctx, groupID, userID, targetRole)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to remove member")
		return err
	}
	if !removed {
		err := errors.Conflict(model.ReasonMemberConflict, "成员状态已变化，请重试")
		span.RecordError(err)
		span.SetStatus(codes.Error, "member state changed")
		return err
	}

	s.invalidateGroupCache(ctx, groupID)
	s.publishGroupEvent(ctx, model.EventMemberRemoved, groupID, actorID, userID)

	span.SetStatus(codes.Ok, "member removed")
	return nil
}

// MakeAdmin 提升普通成员为管理员，仅群主可操作
func (s *Service) MakeAdmin(ctx context.Context, groupID, actorID, userID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "group.service.MakeAdmin")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, actorID)
	ctx = tracecontext.WithGroupID(ctx, groupID)
	span.SetAttributes(attribute.Int64("target.user_id", userID))

	group, err := s.dao.GetGroup(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get group")
		return err
	}

	actorRole, actorIsMember, err := group.RoleOf(actorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt actor role")
		return err
	}
	if !actorIsMember || !actorRole.CanPromote() {
		err := errors.Forbidden(model.ReasonPermissionDenied, "只有群主可以设置管理员")
		span.RecordError(err)
		span.SetStatus(codes.Error, "permission denied")
		return err
	}

	targetRole, targetIsMember, err := group.RoleOf(userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt target role")
		return err
	}
	if !targetIsMember {
		err := errors.NotFound(model.ReasonNotGroupMember, "该用户不是群成员")
		span.RecordError(err)
		span.SetStatus(codes.Error, "target not a member")
		return err
	}
	if targetRole != model.RoleMember {
		err := errors.Conflict(model.ReasonMemberConflict,
			fmt.Sprintf("只能提升普通成员，目标当前角色: %s", targetRole))
		span.RecordError(err)
		span.SetStatus(codes.Error, "target not a plain member")
		return err
	}

	ok, err := s.dao.UpdateMemberRole(ctx, groupID, userID, model.RoleMember, model.RoleAdmin)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update role")
		return err
	}
	if !ok {
		err := errors.Conflict(model.ReasonMemberConflict, "成员状态已变化，请重试")
		span.RecordError(err)
		span.SetStatus(codes.Error, "role precondition failed")
		return err
	}

	s.invalidateGroupCache(ctx, groupID)
	s.publishGroupEvent(ctx, model.EventAdminPromoted, groupID, actorID, userID)

	span.SetStatus(codes.Ok, "admin promoted")
	return nil
}

// LeaveGroup 退出群组，群主不能退出，只能解散
func (s *Service) LeaveGroup(ctx context.Context, groupID, userID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "group.service.LeaveGroup")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, userID)
	ctx = tracecontext.WithGroupID(ctx, groupID)

	group, err := s.dao.GetGroup(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get group")
		return err
	}

	role, isMember, err := group.RoleOf(userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt role")
		return err
	}
	if !isMember {
		err := errors.NotFound(model.ReasonNotGroupMember, "该用户不是群成员")
		span.RecordError(err)
		span.SetStatus(codes.Error, "not a member")
		return err
	}
	if role == model.RoleOwner {
		err := errors.Forbidden(model.ReasonPermissionDenied, "群主不能退出群组，请先解散群组")
		span.RecordError(err)
		span.SetStatus(codes.Error, "owner cannot leave")
		return err
	}

	removed, err := s.dao.RemoveMember(ctx, groupID, userID, role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to leave group")
		return err
	}
	if !removed {
		err := errors.Conflict(model.ReasonMemberConflict, "成员状态已变化，请重试")
		span.RecordError(err)
		span.SetStatus(codes.Error, "member state changed")
		return err
	}

	s.invalidateGroupCache(ctx, groupID)
	s.publishGroupEvent(ctx, model.EventMemberLeft, groupID, userID, userID)

	span.SetStatus(codes.Ok, "left group")
	return nil
}

// DisbandGroup 解散群组，仅群主可操作
func (s *Service) DisbandGroup(ctx context.Context, groupID, actorID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "group.service.DisbandGroup")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, actorID)
	ctx = tracecontext.WithGroupID(ctx, groupID)

	group, err := s.dao.GetGroup(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get group")
		return err
	}
	if group.OwnerID != actorID {
		err := errors.Forbidden(model.ReasonPermissionDenied, "只有群主可以解散群组")
		span.RecordError(err)
		span.SetStatus(codes.Error, "permission denied")
		return err
	}

	if err := s.dao.DeleteGroup(ctx, groupID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to disband group")
		return err
	}

	s.invalidateGroupCache(ctx, groupID)
	s.publishGroupEvent(ctx, model.EventGroupDisbanded, groupID, actorID, 0)

	span.SetStatus(codes.Ok, "group disbanded")
	return nil
}

// GetMembers 获取群成员列表，按members数组顺序返回
// 资料缺失的成员会被跳过并记录警告，保持与角色映射的宽容读取策略
func (s *Service) GetMembers(ctx context.Context, groupID int64) ([]*model.GroupMember, error) {
	ctx, span := telemetry.StartSpan(ctx, "group.service.GetMembers")
	defer span.End()

	ctx = tracecontext.WithGroupID(ctx, groupID)

	group, err := s.dao.GetGroup(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get group")
		return nil, err
	}

	users, err := s.dao.GetUsersByIDs(ctx, group.Members)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get member profiles")
		return nil, err
	}

	members := make([]*model.GroupMember, 0, len(group.Members))
	for _, uid := range group.Members {
		role, _, err := group.RoleOf(uid)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "corrupt member role")
			return nil, err
		}

		user, ok := users[uid]
		if !ok {
			s.logger.Warn(ctx, "Member profile missing, skipped in member list",
				logger.F("groupID", groupID),
				logger.F("userID", uid))
			continue
		}

		members = append(members, &model.GroupMember{
			UserID:   uid,
			Username: user.Username,
			Nickname: user.Nickname,
			Avatar:   user.Avatar,
			Role:     role,
		})
	}

	span.SetAttributes(attribute.Int("member.count", len(members)))
	span.SetStatus(codes.Ok, "members fetched")
	return members, nil
}

// requireMemberRole 获取操作者在群组内的角色，非成员视为无权限
func (s *Service) requireMemberRole(ctx context.Context, groupID, userID int64) (model.Role, error) {
	group, err := s.dao.GetGroup(ctx, groupID)
	if err != nil {
		return "", err
	}

	role, isMember, err := group.RoleOf(userID)
	if err != nil {
		return "", err
	}
	if !isMember {
		return "", errors.Forbidden(model.ReasonPermissionDenied, "非群成员无权操作")
	}
	return role, nil
}

// getGroupFromCache 从缓存读取群组
func (s *Service) getGroupFromCache(ctx context.Context, groupID int64) *model.Group {
	if s.redis == nil {
		return nil
	}

	key := fmt.Sprintf(model.GroupInfoCacheKey, groupID)
	data, err := s.redis.Get(ctx, key)
	if err != nil {
		return nil
	}

	var group model.Group
	if err := json.Unmarshal([]byte(data), &group); err != nil {
		return nil
	}
	return &group
}

// cacheGroup 写入群组缓存
func (s *Service) cacheGroup(ctx context.Context, group *model.Group) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(group)
	if err != nil {
		return
	}

	key := fmt.Sprintf(model.GroupInfoCacheKey, group.ID)
	if err := s.redis.Set(ctx, key, string(data), model.GroupCacheExpire); err != nil {
		s.logger.Warn(ctx, "Failed to cache group info",
			logger.F("groupID", group.ID),
			logger.F("error", err.Error()))
	}
}

// invalidateGroupCache 失效群组相关缓存
func (s *Service) invalidateGroupCache(ctx context.Context, groupID int64) {
	if s.redis == nil {
		return
	}

	keys := []string{
		fmt.Sprintf(model.GroupInfoCacheKey, groupID),
		fmt.Sprintf(model.GroupMembersCacheKey, groupID),
	}
	if err := s.redis.Del(ctx, keys...); err != nil {
		s.logger.Warn(ctx, "Failed to invalidate group cache",
			logger.F("groupID", groupID),
			logger.F("error", err.Error()))
	}
}

// publishGroupEvent 异步发布群组事件
func (s *Service) publishGroupEvent(ctx context.Context, eventType string, groupID, actorID, targetID int64) {
	if s.kafka == nil {
		return
	}

	go func() {
		event := map[string]interface{}{
			"type":      eventType,
			"group_id":  groupID,
			"actor_id":  actorID,
			"target_id": targetID,
			"timestamp": time.Now().Unix(),
		}

		data, err := json.Marshal(event)
		if err != nil {
			s.logger.Error(context.Background(), "Failed to marshal group event",
				logger.F("error", err.Error()),
				logger.F("type", eventType))
			return
		}

		key := strconv.FormatInt(groupID, 10)
		if err := s.kafka.SendMessage(model.TopicGroupEvents, []byte(key), data); err != nil {
			s.logger.Error(context.Background(), "Failed to publish group event",
				logger.F("error", err.Error()),
				logger.F("type", eventType))
		}
	}()
}
