package model

import "time"

// Comment 评论文档，回复以内嵌数组的形式随评论存储和删除
type Comment struct {
	ID         int64     `bson:"_id" json:"id"`
	PostID     int64     `bson:"post_id" json:"post_id"`
	UserID     int64     `bson:"user_id" json:"user_id"`
	UserName   string    `bson:"user_name" json:"user_name"`
	UserAvatar string    `bson:"user_avatar" json:"user_avatar"`
	Content    string    `bson:"content" json:"content"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	Replies    []Reply   `bson:"replies" json:"replies"`
}

// Reply 评论下的回复，reply_id为UUID，不参与帖子评论计数
type Reply struct {
	ReplyID   string    `bson:"reply_id" json:"reply_id"`
	UserID    int64     `bson:"user_id" json:"user_id"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
