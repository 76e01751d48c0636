package dao

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maiphh/food-social/apps/post-service/model"
	"github.com/maiphh/food-social/pkg/database"
)

const (
	postCollection  = "posts"
	savedCollection = "saved_posts"
)

// postMongoDAO 基于MongoDB的帖子DAO实现
type postMongoDAO struct {
	db *database.MongoDB
}

// NewPostDAO 创建帖子DAO
func NewPostDAO(db *database.MongoDB) PostDAO {
	return &postMongoDAO{db: db}
}

// CreatePost 创建帖子
func (d *postMongoDAO) CreatePost(ctx context.Context, post *model.Post) error {
	coll := d.db.GetCollection(postCollection)
	if _, err := coll.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("failed to insert post: %v", err)
	}
	return nil
}

// GetPost 获取帖子
func (d *postMongoDAO) GetPost(ctx context.Context, postID int64) (*model.Post, error) {
	coll := d.db.GetCollection(postCollection)

	var post model.Post
	err := coll.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, errors.NotFound(model.ReasonPostNotFound, "帖子不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %v", err)
	}
	return &post, nil
}

// UpdatePost 更新帖子的内容字段，计数字段不在此处维护
func (d *postMongoDAO) UpdatePost(ctx context.Context, post *model.Post) error {
	coll := d.db.GetCollection(postCollection)

	update := bson.M{"$set": bson.M{
		"content":    post.Content,
		"images":     post.Images,
		"ratings":    post.Ratings,
		"visibility": post.Visibility,
		"group_id":   post.GroupID,
		"updated_at": post.UpdatedAt,
	}}
	result, err := coll.UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update post: %v", err)
	}
	if result.MatchedCount == 0 {
		return errors.NotFound(model.ReasonPostNotFound, "帖子不存在")
	}
	return nil
}

// DeletePost 删除帖子
func (d *postMongoDAO) DeletePost(ctx context.Context, postID int64) error {
	coll := d.db.GetCollection(postCollection)

	result, err := coll.DeleteOne(ctx, bson.M{"_id": postID})
	if err != nil {
		return fmt.Errorf("failed to delete post: %v", err)
	}
	if result.DeletedCount == 0 {
		return errors.NotFound(model.ReasonPostNotFound, "帖子不存在")
	}
	return nil
}

func (d *postMongoDAO) findPosts(ctx context.Context, filter bson.M, limit int64) ([]*model.Post, error) {
	coll := d.db.GetCollection(postCollection)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %v", err)
	}
	defer cursor.Close(ctx)

	var posts []*model.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %v", err)
	}
	return posts, nil
}

// GetPublicFeed 按创建时间倒序返回公开帖子
func (d *postMongoDAO) GetPublicFeed(ctx context.Context, limit int64) ([]*model.Post, error) {
	return d.findPosts(ctx, bson.M{"visibility": model.VisibilityPublic}, limit)
}

// GetUserPosts 按创建时间倒序返回用户的帖子
func (d *postMongoDAO) GetUserPosts(ctx context.Context, authorID int64) ([]*model.Post, error) {
	return d.findPosts(ctx, bson.M{"author_id": authorID}, 0)
}

// GetGroupPosts 按创建时间倒序返回群组内的帖子
func (d *postMongoDAO) GetGroupPosts(ctx context.Context, groupID int64) ([]*model.Post, error) {
	return d.findPosts(ctx, bson.M{"visibility": model.VisibilityGroup, "group_id": groupID}, 0)
}

// GetPostsByIDs 批量获取帖子
func (d *postMongoDAO) GetPostsByIDs(ctx context.Context, postIDs []int64) (map[int64]*model.Post, error) {
	if len(postIDs) == 0 {
		return map[int64]*model.Post{}, nil
	}

	coll := d.db.GetCollection(postCollection)
	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": postIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to query posts by ids: %v", err)
	}
	defer cursor.Close(ctx)

	posts := make(map[int64]*model.Post)
	for cursor.Next(ctx) {
		var post model.Post
		if err := cursor.Decode(&post); err != nil {
			return nil, fmt.Errorf("failed to decode post: %v", err)
		}
		posts[post.ID] = &post
	}
	return posts, cursor.Err()
}

// SavePost 收藏帖子，upsert加$addToSet保证幂等
func (d *postMongoDAO) SavePost(ctx context.Context, userID, postID int64) error {
	coll := d.db.GetCollection(savedCollection)

	_, err := coll.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"posts": postID}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save post: %v", err)
	}
	return nil
}

// UnsavePost 取消收藏
func (d *postMongoDAO) UnsavePost(ctx context.Context, userID, postID int64) error {
	coll := d.db.GetCollection(savedCollection)

	_, err := coll.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"posts": postID}})
	if err != nil {
		return fmt.Errorf("failed to unsave post: %v", err)
	}
	return nil
}

// IsPostSaved 查询帖子是否已被用户收藏
func (d *postMongoDAO) IsPostSaved(ctx context.Context, userID, postID int64) (bool, error) {
	coll := d.db.GetCollection(savedCollection)

	count, err := coll.CountDocuments(ctx, bson.M{"_id": userID, "posts": postID})
	if err != nil {
		return false, fmt.Errorf("failed to check saved post: %v", err)
	}
	return count > 0, nil
}

// GetSavedPostIDs 返回用户收藏的帖子ID列表
func (d *postMongoDAO) GetSavedPostIDs(ctx context.Context, userID int64) ([]int64, error) {
	coll := d.db.GetCollection(savedCollection)

	var saved model.SavedPosts
	err := coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&saved)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saved posts: %v", err)
	}
	return saved.PostIDs, nil
}
