package dao

import (
	"context"

	"github.com/maiphh/food-social/apps/reaction-service/model"
)

// ReactionDAO 反应数据访问接口
type ReactionDAO interface {
	// ToggleReaction 切换反应，读-改-写全程在单个事务内执行
	// 无反应则添加，同类型则移除，不同类型则切换；计数在同一事务内增减，减到0为止
	// newReactionID 在需要插入新反应时使用
	ToggleReaction(ctx context.Context, postID, userID int64, reactionType string, newReactionID int64) (*model.ToggleResult, error)

	// GetUserReaction 获取用户对帖子的反应，没有反应时返回(nil, nil)
	GetUserReaction(ctx context.Context, postID, userID int64) (*model.Reaction, error)

	// CountByType 从反应记录聚合各类型计数（权威来源）
	CountByType(ctx context.Context, postID int64) (map[string]int64, error)

	// RecountReactions 重新聚合并回写帖子上的反应计数缓存字段
	RecountReactions(ctx context.Context, postID int64) (map[string]int64, error)
}
