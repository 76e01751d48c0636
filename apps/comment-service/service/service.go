package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/maiphh/food-social/apps/comment-service/dao"
	"github.com/maiphh/food-social/apps/comment-service/model"
	tracecontext "github.com/maiphh/food-social/pkg/context"
	"github.com/maiphh/food-social/pkg/kafka"
	"github.com/maiphh/food-social/pkg/logger"
	"github.com/maiphh/food-social/pkg/redis"
	"github.com/maiphh/food-social/pkg/snowflake"
	"github.com/maiphh/food-social/pkg/telemetry"
)

// Service 评论服务
type Service struct {
	dao    dao.CommentDAO
	redis  *redis.RedisClient
	kafka  *kafka.Producer
	logger logger.Logger
}

// NewService 创建评论服务实例
func NewService(commentDAO dao.CommentDAO, redis *redis.RedisClient, kafka *kafka.Producer, log logger.Logger) *Service {
	return &Service{
		dao:    commentDAO,
		redis:  redis,
		kafka:  kafka,
		logger: log,
	}
}

// CreateComment 创建评论
func (s *Service) CreateComment(ctx context.Context, postID, userID int64, userName, userAvatar, content string) (*model.Comment, error) {
	ctx, span := telemetry.StartSpan(ctx, "comment.service.CreateComment")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, userID)
	ctx = tracecontext.WithPostID(ctx, postID)

	if postID <= 0 || userID <= 0 {
		err := errors.BadRequest(model.ReasonInvalidParams, "帖子ID和用户ID不能为空")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid params")
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		err := errors.BadRequest(model.ReasonInvalidParams, "评论内容不能为空")
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty content")
		return nil, err
	}
	if len(content) > model.MaxCommentLength {
		err := errors.BadRequest(model.ReasonInvalidParams,
			fmt.Sprintf("评论内容过长，最多%d个字符", model.MaxCommentLength))
		span.RecordError(err)
		span.SetStatus(codes.Error, "content too long")
		return nil, err
	}

	comment := &model.Comment{
		ID:         snowflake.GenerateID(),
		PostID:     postID,
		UserID:     userID,
		UserName:   userName,
		UserAvatar: userAvatar,
		Content:    content,
		CreatedAt:  time.Now(),
		Replies:    []model.Reply{},
	}

	if err := s.dao.CreateComment(ctx, comment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create comment")
		return nil, err
	}

	s.invalidateCommentsCache(ctx, postID)
	s.publishCommentEvent(ctx, model.EventCommentCreated, comment.ID, postID, userID)

	ctx = tracecontext.WithCommentID(ctx, comment.ID)
	s.logger.Info(ctx, "Comment created",
		logger.F("commentID", comment.ID),
		logger.F("postID", postID),
		logger.F("userID", userID))
	span.SetStatus(codes.Ok, "comment created")
	return comment, nil
}

// DeleteComment 删除评论，内嵌回复级联删除
func (s *Service) DeleteComment(ctx context.Context, commentID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "comment.service.DeleteComment")
	defer span.End()

	ctx = tracecontext.WithCommentID(ctx, commentID)

	comment, err := s.dao.GetComment(ctx, commentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "comment not found")
		return err
	}

	if err := s.dao.DeleteComment(ctx, commentID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete comment")
		return err
	}

	s.invalidateCommentsCache(ctx, comment.PostID)
	s.publishCommentEvent(ctx, model.EventCommentDeleted, commentID, comment.PostID, comment.UserID)

	s.logger.Info(ctx, "Comment deleted",
		logger.F("commentID", commentID),
		logger.F("postID", comment.PostID),
		logger.F("replies", len(comment.Replies)))
	span.SetStatus(codes.Ok, "comment deleted")
	return nil
}

// GetComments 获取帖子的评论列表，按创建时间升序
func (s *Service) GetComments(ctx context.Context, postID int64) ([]*model.Comment, error) {
	ctx, span := telemetry.StartSpan(ctx, "comment.service.GetComments")
	defer span.End()

	ctx = tracecontext.WithPostID(ctx, postID)

	if comments := s.getCommentsFromCache(ctx, postID); comments != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "comments from cache")
		return comments, nil
	}

	comments, err := s.dao.GetComments(ctx, postID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get comments")
		return nil, err
	}

	s.cacheComments(ctx, postID, comments)
	span.SetAttributes(attribute.Int("comment.count", len(comments)))
	span.SetStatus(codes.Ok, "comments fetched")
	return comments, nil
}

// AddReply 向评论追加回复，回复不计入帖子评论计数
func (s *Service) AddReply(ctx context.Context, commentID, userID int64, text string) (*model.Reply, error) {
	ctx, span := telemetry.StartSpan(ctx, "comment.service.AddReply")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, userID)
	ctx = tracecontext.WithCommentID(ctx, commentID)

	if commentID <= 0 || userID <= 0 {
		err := errors.BadRequest(model.ReasonInvalidParams, "评论ID和用户ID不能为空")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid params")
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		err := errors.BadRequest(model.ReasonInvalidParams, "回复内容不能为空")
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty text")
		return nil, err
	}
	if len(text) > model.MaxReplyLength {
		err := errors.BadRequest(model.ReasonInvalidParams,
			fmt.Sprintf("回复内容过长，最多%d个字符", model.MaxReplyLength))
		span.RecordError(err)
		span.SetStatus(codes.Error, "text too long")
		return nil, err
	}

	// 先取评论拿到post_id，写入成功后缓存失效和事件不再依赖第二次查询
	comment, err := s.dao.GetComment(ctx, commentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "comment not found")
		return nil, err
	}

	reply := &model.Reply{
		ReplyID:   uuid.New().String(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	if err := s.dao.AddReply(ctx, commentID, reply); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add reply")
		return nil, err
	}

	s.invalidateCommentsCache(ctx, comment.PostID)
	s.publishCommentEvent(ctx, model.EventReplyAdded, commentID, comment.PostID, userID)

	span.SetStatus(codes.Ok, "reply added")
	return reply, nil
}

// RemoveReply 按reply_id移除回复
func (s *Service) RemoveReply(ctx context.Context, commentID int64, replyID string) error {
	ctx, span := telemetry.StartSpan(ctx, "comment.service.RemoveReply")
	defer span.End()

	ctx = tracecontext.WithCommentID(ctx, commentID)
	span.SetAttributes(attribute.String("reply.id", replyID))

	if replyID == "" {
		err := errors.BadRequest(model.ReasonInvalidParams, "回复ID不能为空")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid params")
		return err
	}

	comment, err := s.dao.GetComment(ctx, commentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "comment not found")
		return err
	}

	if err := s.dao.RemoveReply(ctx, commentID, replyID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to remove reply")
		return err
	}

	s.invalidateCommentsCache(ctx, comment.PostID)
	s.publishCommentEvent(ctx, model.EventReplyRemoved, commentID, comment.PostID, comment.UserID)

	span.SetStatus(codes.Ok, "reply removed")
	return nil
}

// CountComments 统计帖子的评论数
func (s *Service) CountComments(ctx context.Context, postID int64) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "comment.service.CountComments")
	defer span.End()

	ctx = tracecontext.WithPostID(ctx, postID)

	count, err := s.dao.CountComments(ctx, postID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count comments")
		return 0, err
	}

	span.SetAttributes(attribute.Int64("comment.count", count))
	span.SetStatus(codes.Ok, "comments counted")
	return count, nil
}

// RecountComments 对账：以评论记录为准重建帖子上的计数字段
func (s *Service) RecountComments(ctx context.Context, postID int64) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "comment.service.RecountComments")
	defer span.End()

	ctx = tracecontext.WithPostID(ctx, postID)

	count, err := s.dao.RecountComments(ctx, postID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to recount comments")
		return 0, err
	}

	s.logger.Info(ctx, "Comment count rebuilt from comment records",
		logger.F("postID", postID),
		logger.F("count", count))
	span.SetStatus(codes.Ok, "comments recounted")
	return count, nil
}

// getCommentsFromCache 从缓存读取评论列表
func (s *Service) getCommentsFromCache(ctx context.Context, postID int64) []*model.Comment {
	if s.redis == nil {
		return nil
	}

	key := fmt.Sprintf(model.CommentListCacheKey, postID)
	data, err := s.redis.Get(ctx, key)
	if err != nil {
		return nil
	}

	var comments []*model.Comment
	if err := json.Unmarshal([]byte(data), &comments); err != nil {
		return nil
	}
	return comments
}

// cacheComments 写入评论列表缓存
func (s *Service) cacheComments(ctx context.Context, postID int64, comments []*model.Comment) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(comments)
	if err != nil {
		return
	}

	key := fmt.Sprintf(model.CommentListCacheKey, postID)
	if err := s.redis.Set(ctx, key, string(data), model.CommentCacheExpire); err != nil {
		s.logger.Warn(ctx, "Failed to cache comments",
			logger.F("postID", postID),
			logger.F("error", err.Error()))
	}
}

// invalidateCommentsCache 失效评论列表缓存
func (s *Service) invalidateCommentsCache(ctx context.Context, postID int64) {
	if s.redis == nil {
		return
	}

	key := fmt.Sprintf(model.CommentListCacheKey, postID)
	if err := s.redis.Del(ctx, key); err != nil {
		s.logger.Warn(ctx, "Failed to invalidate comments cache",
			logger.F("postID", postID),
			logger.F("error", err.Error()))
	}
}

// publishCommentEvent 异步发布评论事件
func (s *Service) publishCommentEvent(ctx context.Context, eventType string, commentID, postID, userID int64) {
	if s.kafka == nil {
		return
	}

	go func() {
		event := map[string]interface{}{
			"type":       eventType,
			"comment_id": commentID,
			"post_id":    postID,
			"user_id":    userID,
			"timestamp":  time.Now().Unix(),
		}

		data, err := json.Marshal(event)
		if err != nil {
			s.logger.Error(context.Background(), "Failed to marshal comment event",
				logger.F("error", err.Error()),
				logger.F("type", eventType))
			return
		}

		key := strconv.FormatInt(postID, 10)
		if err := s.kafka.SendMessage(model.TopicCommentEvents, []byte(key), data); err != nil {
			s.logger.Error(context.Background(), "Failed to publish comment event",
				logger.F("error", err.Error()),
				logger.F("type", eventType))
		}
	}()
}
