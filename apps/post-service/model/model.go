package model

import "time"

// Post 帖子文档
// reaction_count和comment_count是计数缓存字段，权威数据在反应与评论记录里
type Post struct {
	ID            int64            `bson:"_id" json:"id"`
	AuthorID      int64            `bson:"author_id" json:"author_id"`
	Content       string           `bson:"content" json:"content"`
	Images        []string         `bson:"images" json:"images"`
	Ratings       Ratings          `bson:"ratings" json:"ratings"`
	Visibility    string           `bson:"visibility" json:"visibility"`
	GroupID       int64            `bson:"group_id,omitempty" json:"group_id,omitempty"`
	ReactionCount map[string]int64 `bson:"reaction_count" json:"reaction_count"`
	CommentCount  int64            `bson:"comment_count" json:"comment_count"`
	CreatedAt     time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `bson:"updated_at" json:"updated_at"`
}

// Ratings 美食评分，1-5分
type Ratings struct {
	Food     int `bson:"food" json:"food"`
	Ambiance int `bson:"ambiance" json:"ambiance"`
}

// SavedPosts 用户收藏的帖子集合，以用户ID为文档主键
type SavedPosts struct {
	UserID  int64   `bson:"_id" json:"user_id"`
	PostIDs []int64 `bson:"posts" json:"posts"`
}
