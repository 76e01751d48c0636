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

	"github.com/maiphh/food-social/apps/post-service/dao"
	"github.com/maiphh/food-social/apps/post-service/model"
	tracecontext "github.com/maiphh/food-social/pkg/context"
	"github.com/maiphh/food-social/pkg/kafka"
	"github.com/maiphh/food-social/pkg/logger"
	"github.com/maiphh/food-social/pkg/redis"
	"github.com/maiphh/food-social/pkg/snowflake"
	"github.com/maiphh/food-social/pkg/telemetry"
)

// Service 帖子服务
type Service struct {
	dao    dao.PostDAO
	redis  *redis.RedisClient
	kafka  *kafka.Producer
	logger logger.Logger
}

// NewService 创建帖子服务实例
func NewService(postDAO dao.PostDAO, redis *redis.RedisClient, kafka *kafka.Producer, log logger.Logger) *Service {
	return &Service{
		dao:    postDAO,
		redis:  redis,
		kafka:  kafka,
		logger: log,
	}
}

// validatePostInput 校验帖子内容字段
func validatePostInput(content, visibility string, images []string, ratings model.Ratings, groupID int64) error {
	if strings.TrimSpace(content) == "" {
		return errors.BadRequest(model.ReasonInvalidParams, "帖子内容不能为空")
	}
	if len(content) > model.MaxContentLength {
		return errors.BadRequest(model.ReasonInvalidParams,
			fmt.Sprintf("帖子内容过长，最多%d个字符", model.MaxContentLength))
	}
	if len(images) > model.MaxImages {
		return errors.BadRequest(model.ReasonInvalidParams,
			fmt.Sprintf("图片数量超限，最多%d张", model.MaxImages))
	}
	if !model.IsValidVisibility(visibility) {
		return errors.BadRequest(model.ReasonInvalidParams,
			fmt.Sprintf("不支持的可见性: %s", visibility))
	}
	if visibility == model.VisibilityGroup && groupID <= 0 {
		return errors.BadRequest(model.ReasonInvalidParams, "群组帖子必须指定群组ID")
	}
	if ratings.Food != 0 && (ratings.Food < model.MinRating || ratings.Food > model.MaxRating) {
		return errors.BadRequest(model.ReasonInvalidParams, "美食评分必须在1到5之间")
	}
	if ratings.Ambiance != 0 && (ratings.Ambiance < model.MinRating || ratings.Ambiance > model.MaxRating) {
		return errors.BadRequest(model.ReasonInvalidParams, "环境评分必须在1到5之间")
	}
	return nil
}

// CreatePost 创建帖子
func (s *Service) CreatePost(ctx context.Context, authorID int64, content string, images []string, ratings model.Ratings, visibility string, groupID int64) (*model.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "post.service.CreatePost")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, authorID)

	if authorID <= 0 {
		err := errors.BadRequest(model.ReasonInvalidParams, "作者ID不能为空")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid params")
		return nil, err
	}
	if err := validatePostInput(content, visibility, images, ratings, groupID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid post input")
		return nil, err
	}

	now := time.Now()
	post := &model.Post{
		ID:            snowflake.GenerateID(),
		AuthorID:      authorID,
		Content:       strings.TrimSpace(content),
		Images:        images,
		Ratings:       ratings,
		Visibility:    visibility,
		ReactionCount: map[string]int64{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if visibility == model.VisibilityGroup {
		post.GroupID = groupID
	}

	if err := s.dao.CreatePost(ctx, post); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create post")
		return nil, err
	}

	s.publishPostEvent(ctx, model.EventPostCreated, post.ID, authorID)

	ctx = tracecontext.WithPostID(ctx, post.ID)
	s.logger.Info(ctx, "Post created",
		logger.F("postID", post.ID),
		logger.F("authorID", authorID),
		logger.F("visibility", visibility))
	span.SetStatus(codes.Ok, "post created")
	return post, nil
}

// GetPost 获取帖子详情
func (s *Service) GetPost(ctx context.Context, postID int64) (*model.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "post.service.GetPost")
	defer span.End()

	ctx = tracecontext.WithPostID(ctx, postID)

	if post := s.getPostFromCache(ctx, postID); post != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "post from cache")
		return post, nil
	}

	post, err := s.dao.GetPost(ctx, postID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get post")
		return nil, err
	}

	s.cachePost(ctx, post)
	span.SetStatus(codes.Ok, "post fetched")
	return post, nil
}

// UpdatePost 更新帖子，仅作者可操作
func (s *Service) UpdatePost(ctx context.Context, postID, actorID int64, content string, images []string, ratings model.Ratings, visibility string, groupID int64) (*model.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "post.service.UpdatePost")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, actorID)
	ctx = tracecontext.WithPostID(ctx, postID)

	post, err := s.dao.GetPost(ctx, postID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "post not found")
		return nil, err
	}
	if post.AuthorID != actorID {
		err := errors.Forbidden(model.ReasonPermissionDenied, "只有作者可以修改帖子")
		span.RecordError(err)
		span.SetStatus(codes.Error, "not the author")
		return nil, err
	}
	if err := validatePostInput(content, visibility, images, ratings, groupID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid post input")
		return nil, err
	}

	post.Content = strings.TrimSpace(content)
	post.Images = images
	post.Ratings = ratings
	post.Visibility = visibility
	if visibility == model.VisibilityGroup {
		post.GroupID = groupID
	} else {
		post.GroupID = 0
	}
	post.UpdatedAt = time.Now()

	if err := s.dao.UpdatePost(ctx, post); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update post")
		return nil, err
	}

	s.invalidatePostCache(ctx, postID)
	s.publishPostEvent(ctx, model.EventPostUpdated, postID, actorID)

	span.SetStatus(codes.Ok, "post updated")
	return post, nil
}

// DeletePost 删除帖子，仅作者可操作
func (s *Service) DeletePost(ctx context.Context, postID, actorID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "post.service.DeletePost")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, actorID)
	ctx = tracecontext.WithPostID(ctx, postID)

	post, err := s.dao.GetPost(ctx, postID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "post not found")
		return err
	}
	if post.AuthorID != actorID {
		err := errors.Forbidden(model.ReasonPermissionDenied, "只有作者可以删除帖子")
		span.RecordError(err)
		span.SetStatus(codes.Error, "not the author")
		return err
	}

	if err := s.dao.DeletePost(ctx, postID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete post")
		return err
	}

	s.invalidatePostCache(ctx, postID)
	s.publishPostEvent(ctx, model.EventPostDeleted, postID, actorID)

	s.logger.Info(ctx, "Post deleted",
		logger.F("postID", postID),
		logger.F("actorID", actorID))
	span.SetStatus(codes.Ok, "post deleted")
	return nil
}

// GetPublicFeed 获取公开帖子流，按创建时间倒序
func (s *Service) GetPublicFeed(ctx context.Context, limit int64) ([]*model.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "post.service.GetPublicFeed")
	defer span.End()

	if limit <= 0 {
		limit = model.DefaultFeedLimit
	}
	if limit > model.MaxFeedLimit {
		limit = model.MaxFeedLimit
	}
	span.SetAttributes(attribute.Int64("feed.limit", limit))

	posts, err := s.dao.GetPublicFeed(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get feed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("feed.count", len(posts)))
	span.SetStatus(codes.Ok, "feed fetched")
	return posts, nil
}

// GetUserPosts 获取用户发布的帖子，按创建时间倒序
func (s *Service) GetUserPosts(ctx context.Context, authorID int64) ([]*model.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "post.service.GetUserPosts")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, authorID)

	posts, err := s.dao.GetUserPosts(ctx, authorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get user posts")
		return nil, err
	}

	span.SetAttributes(attribute.Int("post.count", len(posts)))
	span.SetStatus(codes.Ok, "user posts fetched")
	return posts, nil
}

// GetGroupPosts 获取群组内的帖子，按创建时间倒序
func (s *Service) GetGroupPosts(ctx context.Context, groupID int64) ([]*model.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "post.service.GetGroupPosts")
	defer span.End()

	ctx = tracecontext.WithGroupID(ctx, groupID)

	posts, err := s.dao.GetGroupPosts(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get group posts")
		return nil, err
	}

	span.SetAttributes(attribute.Int("post.count", len(posts)))
	span.SetStatus(codes.Ok, "group posts fetched")
	return posts, nil
}

// SavePost 收藏帖子，幂等
func (s *Service) SavePost(ctx context.Context, userID, postID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "post.service.SavePost")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, userID)
	ctx = tracecontext.WithPostID(ctx, postID)

	// 只收藏存在的帖子
	if _, err := s.dao.GetPost(ctx, postID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "post not found")
		return err
	}

	if err := s.dao.SavePost(ctx, userID, postID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save post")
		return err
	}

	span.SetStatus(codes.Ok, "post saved")
	return nil
}

// UnsavePost 取消收藏，幂等
func (s *Service) UnsavePost(ctx context.Context, userID, postID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "post.service.UnsavePost")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, userID)
	ctx = tracecontext.WithPostID(ctx, postID)

	if err := s.dao.UnsavePost(ctx, userID, postID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unsave post")
		return err
	}

	span.SetStatus(codes.Ok, "post unsaved")
	return nil
}

// IsPostSaved 查询帖子是否已被用户收藏
func (s *Service) IsPostSaved(ctx context.Context, userID, postID int64) (bool, error) {
	return s.dao.IsPostSaved(ctx, userID, postID)
}

// GetSavedPosts 获取用户收藏的帖子，已删除的帖子被跳过
func (s *Service) GetSavedPosts(ctx context.Context, userID int64) ([]*model.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "post.service.GetSavedPosts")
	defer span.End()

	ctx = tracecontext.WithUserID(ctx, userID)

	postIDs, err := s.dao.GetSavedPostIDs(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get saved post ids")
		return nil, err
	}
	if len(postIDs) == 0 {
		span.SetStatus(codes.Ok, "no saved posts")
		return []*model.Post{}, nil
	}

	postMap, err := s.dao.GetPostsByIDs(ctx, postIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get saved posts")
		return nil, err
	}

	posts := make([]*model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		post, ok := postMap[id]
		if !ok {
			s.logger.Warn(ctx, "Saved post no longer exists, skipping",
				logger.F("postID", id),
				logger.F("userID", userID))
			continue
		}
		posts = append(posts, post)
	}

	span.SetAttributes(attribute.Int("post.count", len(posts)))
	span.SetStatus(codes.Ok, "saved posts fetched")
	return posts, nil
}

// getPostFromCache 从缓存读取帖子
func (s *Service) getPostFromCache(ctx context.Context, postID int64) *model.Post {
	if s.redis == nil {
		return nil
	}

	key := fmt.Sprintf(model.PostCacheKey, postID)
	data, err := s.redis.Get(ctx, key)
	if err != nil {
		return nil
	}

	var post model.Post
	if err := json.Unmarshal([]byte(data), &post); err != nil {
		return nil
	}
	return &post
}

// cachePost 写入帖子缓存
func (s *Service) cachePost(ctx context.Context, post *model.Post) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(post)
	if err != nil {
		return
	}

	key := fmt.Sprintf(model.PostCacheKey, post.ID)
	if err := s.redis.Set(ctx, key, string(data), model.PostCacheExpire); err != nil {
		s.logger.Warn(ctx, "Failed to cache post",
			logger.F("postID", post.ID),
			logger.F("error", err.Error()))
	}
}

// invalidatePostCache 失效帖子缓存
func (s *Service) invalidatePostCache(ctx context.Context, postID int64) {
	if s.redis == nil {
		return
	}

	key := fmt.Sprintf(model.PostCacheKey, postID)
	if err := s.redis.Del(ctx, key); err != nil {
		s.logger.Warn(ctx, "Failed to invalidate post cache",
			logger.F("postID", postID),
			logger.F("error", err.Error()))
	}
}

// publishPostEvent 异步发布帖子事件
func (s *Service) publishPostEvent(ctx context.Context, eventType string, postID, userID int64) {
	if s.kafka == nil {
		return
	}

	go func() {
		event := map[string]interface{}{
			"type":      eventType,
			"post_id":   postID,
			"user_id":   userID,
			"timestamp": time.Now().Unix(),
		}

		data, err := json.Marshal(event)
		if err != nil {
			s.logger.Error(context.Background(), "Failed to marshal post event",
				logger.F("error", err.Error()),
				logger.F("type", eventType))
			return
		}

		key := strconv.FormatInt(postID, 10)
		if err := s.kafka.SendMessage(model.TopicPostEvents, []byte(key), data); err != nil {
			s.logger.Error(context.Background(), "Failed to publish post event",
				logger.F("error", err.Error()),
				logger.F("type", eventType))
		}
	}()
}
