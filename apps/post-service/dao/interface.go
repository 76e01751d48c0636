package dao

import (
	"context"

	"github.com/maiphh/food-social/apps/post-service/model"
)

// PostDAO 帖子数据访问接口
type PostDAO interface {
	// CreatePost 创建帖子
	CreatePost(ctx context.Context, post *model.Post) error

	// GetPost 获取帖子，不存在返回NotFound
	GetPost(ctx context.Context, postID int64) (*model.Post, error)

	// UpdatePost 更新帖子的内容字段
	UpdatePost(ctx context.Context, post *model.Post) error

	// DeletePost 删除帖子，不存在返回NotFound
	DeletePost(ctx context.Context, postID int64) error

	// GetPublicFeed 按创建时间倒序返回公开帖子
	GetPublicFeed(ctx context.Context, limit int64) ([]*model.Post, error)

	// GetUserPosts 按创建时间倒序返回用户的帖子
	GetUserPosts(ctx context.Context, authorID int64) ([]*model.Post, error)

	// GetGroupPosts 按创建时间倒序返回群组内的帖子
	GetGroupPosts(ctx context.Context, groupID int64) ([]*model.Post, error)

	// GetPostsByIDs 批量获取帖子，缺失的ID被跳过
	GetPostsByIDs(ctx context.Context, postIDs []int64) (map[int64]*model.Post, error)

	// SavePost 收藏帖子，幂等
	SavePost(ctx context.Context, userID, postID int64) error

	// UnsavePost 取消收藏，幂等
	UnsavePost(ctx context.Context, userID, postID int64) error

	// IsPostSaved 查询帖子是否已被用户收藏
	IsPostSaved(ctx context.Context, userID, postID int64) (bool, error)

	// GetSavedPostIDs 返回用户收藏的帖子ID列表
	GetSavedPostIDs(ctx context.Context, userID int64) ([]int64, error)
}
