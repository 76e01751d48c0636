package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maiphh/food-social/apps/reaction-service/model"
	"github.com/maiphh/food-social/pkg/database"
)

const (
	reactionCollection = "reactions"
	postCollection     = "posts"
)

// reactionMongoDAO 基于MongoDB的反应DAO实现
type reactionMongoDAO struct {
	db *database.MongoDB
}

// NewReactionDAO 创建反应DAO，并确保(post_id, user_id)唯一索引
// 唯一索引是并发双击下"最多一条反应"的最终防线
func NewReactionDAO(db *database.MongoDB) ReactionDAO {
	d := &reactionMongoDAO{db: db}
	d.ensureIndexes()
	return d
}

func (d *reactionMongoDAO) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	coll := d.db.GetCollection(reactionCollection)
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
}

// ToggleReaction 切换反应，整个读-改-写在单个事务内
func (d *reactionMongoDAO) ToggleReaction(ctx context.Context, postID, userID int64, reactionType string, newReactionID int64) (*model.ToggleResult, error) {
	var result *model.ToggleResult

	err := d.db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		reactions := d.db.GetCollection(reactionCollection)

		var existing model.Reaction
		existingType := ""
		err := reactions.FindOne(sc, bson.M{"post_id": postID, "user_id": userID}).Decode(&existing)
		if err == nil {
			existingType = existing.Type
		} else if err != mongo.ErrNoDocuments {
			return fmt.Errorf("failed to query existing reaction: %v", err)
		}

		switch model.ToggleOutcome(existingType, reactionType) {
		case model.ToggleResultAdded:
			reaction := &model.Reaction{
				ID:        newReactionID,
				PostID:    postID,
				UserID:    userID,
				Type:      reactionType,
				CreatedAt: time.Now(),
			}
			if _, err := reactions.InsertOne(sc, reaction); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return errors.Conflict(model.ReasonReactionConflict, "反应已存在，请重试")
				}
				return fmt.Errorf("failed to insert reaction: %v", err)
			}
			if err := d.incrReactionCount(sc, postID, reactionType, 1); err != nil {
				return err
			}
			result = &model.ToggleResult{Result: model.ToggleResultAdded, Type: reactionType}

		case model.ToggleResultRemoved:
			// 按_id加类型删除，类型不匹配说明状态已被并发修改
			res, err := reactions.DeleteOne(sc, bson.M{"_id": existing.ID, "type": reactionType})
			if err != nil {
				return fmt.Errorf("failed to delete reaction: %v", err)
			}
			if res.DeletedCount == 0 {
				return errors.Conflict(model.ReasonReactionConflict, "反应状态已变化，请重试")
			}
			if err := d.incrReactionCount(sc, postID, reactionType, -1); err != nil {
				return err
			}
			result = &model.ToggleResult{Result: model.ToggleResultRemoved, Type: reactionType}

		case model.ToggleResultSwitched:
			res, err := reactions.DeleteOne(sc, bson.M{"_id": existing.ID, "type": existing.Type})
			if err != nil {
				return fmt.Errorf("failed to delete old reaction: %v", err)
			}
			if res.DeletedCount == 0 {
				return errors.Conflict(model.ReasonReactionConflict, "反应状态已变化，请重试")
			}
			reaction := &model.Reaction{
				ID:        newReactionID,
				PostID:    postID,
				UserID:    userID,
				Type:      reactionType,
				CreatedAt: time.Now(),
			}
			if _, err := reactions.InsertOne(sc, reaction); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return errors.Conflict(model.ReasonReactionConflict, "反应已存在，请重试")
				}
				return fmt.Errorf("failed to insert new reaction: %v", err)
			}
			if err := d.incrReactionCount(sc, postID, existing.Type, -1); err != nil {
				return err
			}
			if err := d.incrReactionCount(sc, postID, reactionType, 1); err != nil {
				return err
			}
			result = &model.ToggleResult{
				Result:   model.ToggleResultSwitched,
				Type:     reactionType,
				PrevType: existing.Type,
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// incrReactionCount 增减帖子上的反应计数，减少时钳制在0
func (d *reactionMongoDAO) incrReactionCount(sc mongo.SessionContext, postID int64, reactionType string, delta int64) error {
	posts := d.db.GetCollection(postCollection)
	field := "reaction_count." + reactionType

	if delta > 0 {
		_, err := posts.UpdateOne(sc, bson.M{"_id": postID}, bson.M{"$inc": bson.M{field: delta}})
		if err != nil {
			return fmt.Errorf("failed to increment reaction count: %v", err)
		}
		return nil
	}

	// 管道更新：max(0, 当前值+delta)，字段缺失按0处理
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			field: bson.M{"$max": bson.A{
				0,
				bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$" + field, 0}}, delta}},
			}},
		}}},
	}
	if _, err := posts.UpdateOne(sc, bson.M{"_id": postID}, pipeline); err != nil {
		return fmt.Errorf("failed to decrement reaction count: %v", err)
	}
	return nil
}

// GetUserReaction 获取用户对帖子的反应，无反应不算错误
func (d *reactionMongoDAO) GetUserReaction(ctx context.Context, postID, userID int64) (*model.Reaction, error) {
	coll := d.db.GetCollection(reactionCollection)

	var reaction model.Reaction
	err := coll.FindOne(ctx, bson.M{"post_id": postID, "user_id": userID}).Decode(&reaction)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user reaction: %v", err)
	}
	return &reaction, nil
}

// CountByType 从反应记录聚合各类型计数
func (d *reactionMongoDAO) CountByType(ctx context.Context, postID int64) (map[string]int64, error) {
	coll := d.db.GetCollection(reactionCollection)

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"post_id": postID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$type",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reactions: %v", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			Type  string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode aggregation row: %v", err)
		}
		counts[row.Type] = row.Count
	}
	return counts, cursor.Err()
}

// RecountReactions 重新聚合并回写帖子的反应计数字段
func (d *reactionMongoDAO) RecountReactions(ctx context.Context, postID int64) (map[string]int64, error) {
	counts, err := d.CountByType(ctx, postID)
	if err != nil {
		return nil, err
	}

	posts := d.db.GetCollection(postCollection)
	result, err := posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$set": bson.M{"reaction_count": counts}})
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite reaction counts: %v", err)
	}
	if result.MatchedCount == 0 {
		return nil, errors.NotFound(model.ReasonPostNotFound, "帖子不存在")
	}
	return counts, nil
}
