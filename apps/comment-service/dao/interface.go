package dao

import (
	"context"

	"github.com/maiphh/food-social/apps/comment-service/model"
)

// CommentDAO 评论数据访问接口
type CommentDAO interface {
	// CreateComment 创建评论并在同一事务内递增帖子的评论计数
	CreateComment(ctx context.Context, comment *model.Comment) error

	// GetComment 获取单条评论，不存在返回NotFound
	GetComment(ctx context.Context, commentID int64) (*model.Comment, error)

	// DeleteComment 删除评论（连同内嵌回复）并在同一事务内递减帖子计数，减到0为止
	DeleteComment(ctx context.Context, commentID int64) error

	// GetComments 按创建时间升序返回帖子的评论
	GetComments(ctx context.Context, postID int64) ([]*model.Comment, error)

	// AddReply 向评论追加一条回复，评论不存在返回NotFound
	AddReply(ctx context.Context, commentID int64, reply *model.Reply) error

	// RemoveReply 按reply_id移除回复
	// 评论不存在返回COMMENT_NOT_FOUND，回复不存在返回REPLY_NOT_FOUND
	RemoveReply(ctx context.Context, commentID int64, replyID string) error

	// CountComments 统计帖子的评论数（权威来源，不含回复）
	CountComments(ctx context.Context, postID int64) (int64, error)

	// RecountComments 重新统计并回写帖子上的评论计数字段
	RecountComments(ctx context.Context, postID int64) (int64, error)
}
