package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/maiphh/food-social/apps/reaction-service/dao"
	"github.com/maiphh/food-social/apps/reaction-service/model"
	tracecontext "github.com/maiphh/food-social/pkg/context"
	"github.com/maiphh/food-social/pkg/kafka"
	"github.com/maiphh/food-social/pkg/logger"
	"github.com/maiphh/food-social/pkg/redis"
	"github.com/maiphh/food-social/pkg/snowflake"
	"github.com/maiphh/food-social/pkg/telemetry"
)

// Service 反应服务
type Service struct {
	dao    dao.ReactionDAO
	redis  *redis.RedisClient
	kafka  *kafka.Producer
	logger logger.Logger
}

// NewService 创建反应服务实例
func NewService(reactionDAO dao.ReactionDAO, redis *redis.RedisClient, kafka *kafka.Producer, log logger.Logger) *Service {
	return &Service{
		dao:    reactionDAO,
		redis:  redis,
		kafka:  kafka,
		logger: log,
	}
}

// ToggleReaction 切换用户对帖子的反应
// 同类型再点则取消，不同类型则切换，双击竞争由事务和唯一索引兜底
func (s *Service) ToggleReaction(ctx context.Context, postID, userID int64, reactionType string) (*model.ToggleResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "reaction.service.ToggleReaction")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, userID)
	ctx = tracecontext.WithPostID(ctx, postID)
	span.SetAttributes(attribute.String("reaction.type", reactionType))

	if postID <= 0 || userID <= 0 {
		err := errors.BadRequest(model.ReasonInvalidParams, "帖子ID和用户ID不能为空")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid params")
		return nil, err
	}
	if !model.IsValidReactionType(reactionType) {
		err := errors.BadRequest(model.ReasonInvalidParams,
			fmt.Sprintf("不支持的反应类型: %s", reactionType))
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reaction type")
		return nil, err
	}

	result, err := s.dao.ToggleReaction(ctx, postID, userID, reactionType, snowflake.GenerateID())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to toggle reaction")
		return nil, err
	}

	s.invalidateCountsCache(ctx, postID)
	s.publishReactionEvent(ctx, result, postID, userID)

	span.SetAttributes(attribute.String("reaction.result", result.Result))
	span.SetStatus(codes.Ok, "reaction toggled")
	return result, nil
}

// GetUserReaction 获取用户对帖子的反应，没有反应时data为空
func (s *Service) GetUserReaction(ctx context.Context, postID, userID int64) (*model.Reaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "reaction.service.GetUserReaction")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, userID)
	ctx = tracecontext.WithPostID(ctx, postID)

	reaction, err := s.dao.GetUserReaction(ctx, postID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get user reaction")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("reaction.exists", reaction != nil))
	span.SetStatus(codes.Ok, "user reaction fetched")
	return reaction, nil
}

// GetReactionCounts 获取帖子各类型反应计数，从反应记录聚合并缓存
func (s *Service) GetReactionCounts(ctx context.Context, postID int64) (map[string]int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "reaction.service.GetReactionCounts")
	defer span.End()

	ctx = tracecontext.WithPostID(ctx, postID)

	// 先查缓存
	if counts := s.getCountsFromCache(ctx, postID); counts != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "counts from cache")
		return counts, nil
	}

	counts, err := s.dao.CountByType(ctx, postID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count reactions")
		return nil, err
	}

	s.cacheCounts(ctx, postID, counts)
	span.SetStatus(codes.Ok, "counts aggregated")
	return counts, nil
}

// GetTotalReactions 获取帖子反应总数
func (s *Service) GetTotalReactions(ctx context.Context, postID int64) (int64, error) {
	counts, err := s.GetReactionCounts(ctx, postID)
	if err != nil {
		return 0, err
	}
	return model.TotalReactions(counts), nil
}

// RecountReactions 对账：以反应记录为准重建帖子上的计数字段
func (s *Service) RecountReactions(ctx context.Context, postID int64) (map[string]int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "reaction.service.RecountReactions")
	defer span.End()

	ctx = tracecontext.WithPostID(ctx, postID)

	counts, err := s.dao.RecountReactions(ctx, postID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to recount reactions")
		return nil, err
	}

	s.invalidateCountsCache(ctx, postID)

	s.logger.Info(ctx, "Reaction counts rebuilt from reaction records",
		logger.F("postID", postID),
		logger.F("total", model.TotalReactions(counts)))
	span.SetStatus(codes.Ok, "reactions recounted")
	return counts, nil
}

// getCountsFromCache 从缓存读取反应计数
func (s *Service) getCountsFromCache(ctx context.Context, postID int64) map[string]int64 {
	if s.redis == nil {
		return nil
	}

	key := fmt.Sprintf(model.ReactionCountsCacheKey, postID)
	data, err := s.redis.Get(ctx, key)
	if err != nil {
		return nil
	}

	var counts map[string]int64
	if err := json.Unmarshal([]byte(data), &counts); err != nil {
		return nil
	}
	return counts
}

// cacheCounts 写入反应计数缓存
func (s *Service) cacheCounts(ctx context.Context, postID int64, counts map[string]int64) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(counts)
	if err != nil {
		return
	}

	key := fmt.Sprintf(model.ReactionCountsCacheKey, postID)
	if err := s.redis.Set(ctx, key, string(data), model.ReactionCacheExpire); err != nil {
		s.logger.Warn(ctx, "Failed to cache reaction counts",
			logger.F("postID", postID),
			logger.F("error", err.Error()))
	}
}

// invalidateCountsCache 失效反应计数缓存
func (s *Service) invalidateCountsCache(ctx context.Context, postID int64) {
	if s.redis == nil {
		return
	}

	key := fmt.Sprintf(model.ReactionCountsCacheKey, postID)
	if err := s.redis.Del(ctx, key); err != nil {
		s.logger.Warn(ctx, "Failed to invalidate reaction counts cache",
			logger.F("postID", postID),
			logger.F("error", err.Error()))
	}
}

// publishReactionEvent 异步发布反应事件
func (s *Service) publishReactionEvent(ctx context.Context, result *model.ToggleResult, postID, userID int64) {
	if s.kafka == nil {
		return
	}

	var eventType string
	switch result.Result {
	case model.ToggleResultAdded:
		eventType = model.EventReactionAdded
	case model.ToggleResultRemoved:
		eventType = model.EventReactionRemoved
	case model.ToggleResultSwitched:
		eventType = model.EventReactionSwitched
	default:
		return
	}

	go func() {
		event := map[string]interface{}{
			"type":      eventType,
			"post_id":   postID,
			"user_id":   userID,
			"reaction":  result.Type,
			"prev_type": result.PrevType,
			"timestamp": time.Now().Unix(),
		}

		data, err := json.Marshal(event)
		if err != nil {
			s.logger.Error(context.Background(), "Failed to marshal reaction event",
				logger.F("error", err.Error()),
				logger.F("type", eventType))
			return
		}

		key := strconv.FormatInt(postID, 10)
		if err := s.kafka.SendMessage(model.TopicReactionEvents, []byte(key), data); err != nil {
			s.logger.Error(context.Background(), "Failed to publish reaction event",
				logger.F("error", err.Error()),
				logger.F("type", eventType))
		}
	}()
}
