package dao

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maiphh/food-social/apps/comment-service/model"
	"github.com/maiphh/food-social/pkg/database"
)

const (
	commentCollection = "comments"
	postCollection    = "posts"
)

// commentMongoDAO 基于MongoDB的评论DAO实现
type commentMongoDAO struct {
	db *database.MongoDB
}

// NewCommentDAO 创建评论DAO
func NewCommentDAO(db *database.MongoDB) CommentDAO {
	return &commentMongoDAO{db: db}
}

// CreateComment 创建评论，插入与帖子计数递增在同一事务内
func (d *commentMongoDAO) CreateComment(ctx context.Context, comment *model.Comment) error {
	return d.db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		comments := d.db.GetCollection(commentCollection)
		if _, err := comments.InsertOne(sc, comment); err != nil {
			return fmt.Errorf("failed to insert comment: %v", err)
		}

		posts := d.db.GetCollection(postCollection)
		if _, err := posts.UpdateOne(sc, bson.M{"_id": comment.PostID},
			bson.M{"$inc": bson.M{"comment_count": 1}}); err != nil {
			return fmt.Errorf("failed to increment comment count: %v", err)
		}
		return nil
	})
}

// GetComment 获取单条评论
func (d *commentMongoDAO) GetComment(ctx context.Context, commentID int64) (*model.Comment, error) {
	coll := d.db.GetCollection(commentCollection)

	var comment model.Comment
	err := coll.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		return nil, errors.NotFound(model.ReasonCommentNotFound, "评论不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %v", err)
	}
	return &comment, nil
}

// DeleteComment 删除评论，内嵌回复随文档一并删除，计数递减钳制在0
func (d *commentMongoDAO) DeleteComment(ctx context.Context, commentID int64) error {
	return d.db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		comments := d.db.GetCollection(commentCollection)

		var comment model.Comment
		err := comments.FindOneAndDelete(sc, bson.M{"_id": commentID}).Decode(&comment)
		if err == mongo.ErrNoDocuments {
			return errors.NotFound(model.ReasonCommentNotFound, "评论不存在")
		}
		if err != nil {
			return fmt.Errorf("failed to delete comment: %v", err)
		}

		// 管道更新：max(0, 当前值-1)，字段缺失按0处理
		posts := d.db.GetCollection(postCollection)
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$set", Value: bson.M{
				"comment_count": bson.M{"$max": bson.A{
					0,
					bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$comment_count", 0}}, -1}},
				}},
			}}},
		}
		if _, err := posts.UpdateOne(sc, bson.M{"_id": comment.PostID}, pipeline); err != nil {
			return fmt.Errorf("failed to decrement comment count: %v", err)
		}
		return nil
	})
}

// GetComments 按创建时间升序返回帖子的评论
func (d *commentMongoDAO) GetComments(ctx context.Context, postID int64) ([]*model.Comment, error) {
	coll := d.db.GetCollection(commentCollection)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := coll.Find(ctx, bson.M{"post_id": postID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %v", err)
	}
	defer cursor.Close(ctx)

	var comments []*model.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %v", err)
	}
	return comments, nil
}

// AddReply 向评论追加一条回复
func (d *commentMongoDAO) AddReply(ctx context.Context, commentID int64, reply *model.Reply) error {
	coll := d.db.GetCollection(commentCollection)

	result, err := coll.UpdateOne(ctx, bson.M{"_id": commentID},
		bson.M{"$push": bson.M{"replies": reply}})
	if err != nil {
		return fmt.Errorf("failed to add reply: %v", err)
	}
	if result.MatchedCount == 0 {
		return errors.NotFound(model.ReasonCommentNotFound, "评论不存在")
	}
	return nil
}

// RemoveReply 按reply_id移除回复
func (d *commentMongoDAO) RemoveReply(ctx context.Context, commentID int64, replyID string) error {
	coll := d.db.GetCollection(commentCollection)

	result, err := coll.UpdateOne(ctx, bson.M{"_id": commentID},
		bson.M{"$pull": bson.M{"replies": bson.M{"reply_id": replyID}}})
	if err != nil {
		return fmt.Errorf("failed to remove reply: %v", err)
	}
	if result.MatchedCount == 0 {
		return errors.NotFound(model.ReasonCommentNotFound, "评论不存在")
	}
	if result.ModifiedCount == 0 {
		return errors.NotFound(model.ReasonReplyNotFound, "回复不存在")
	}
	return nil
}

// CountComments 统计帖子的评论数
func (d *commentMongoDAO) CountComments(ctx context.Context, postID int64) (int64, error) {
	coll := d.db.GetCollection(commentCollection)

	count, err := coll.CountDocuments(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %v", err)
	}
	return count, nil
}

// RecountComments 重新统计并回写帖子上的评论计数字段
func (d *commentMongoDAO) RecountComments(ctx context.Context, postID int64) (int64, error) {
	count, err := d.CountComments(ctx, postID)
	if err != nil {
		return 0, err
	}

	posts := d.db.GetCollection(postCollection)
	result, err := posts.UpdateOne(ctx, bson.M{"_id": postID},
		bson.M{"$set": bson.M{"comment_count": count}})
	if err != nil {
		return 0, fmt.Errorf("failed to rewrite comment count: %v", err)
	}
	if result.MatchedCount == 0 {
		return 0, errors.NotFound(model.ReasonPostNotFound, "帖子不存在")
	}
	return count, nil
}
