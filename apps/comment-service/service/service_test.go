package service

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/errors"

	"github.com/maiphh/food-social/apps/comment-service/dao"
	"github.com/maiphh/food-social/apps/comment-service/model"
	"github.com/maiphh/food-social/pkg/logger"
	"github.com/maiphh/food-social/pkg/snowflake"
)

func TestMain(m *testing.M) {
	if err := snowflake.InitGlobalSnowflake(1); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeCommentDAO 内存版评论DAO，计数递减钳制在0，与Mongo实现的契约一致
type fakeCommentDAO struct {
	comments map[int64]*model.Comment
	counts   map[int64]int64 // postID -> comment_count
	posts    map[int64]bool
}

var _ dao.CommentDAO = (*fakeCommentDAO)(nil)

func newFakeCommentDAO() *fakeCommentDAO {
	return &fakeCommentDAO{
		comments: make(map[int64]*model.Comment),
		counts:   make(map[int64]int64),
		posts:    make(map[int64]bool),
	}
}

func (f *fakeCommentDAO) CreateComment(ctx context.Context, comment *model.Comment) error {
	f.comments[comment.ID] = comment
	f.counts[comment.PostID]++
	return nil
}

func (f *fakeCommentDAO) GetComment(ctx context.Context, commentID int64) (*model.Comment, error) {
	comment, ok := f.comments[commentID]
	if !ok {
		return nil, errors.NotFound(model.ReasonCommentNotFound, "评论不存在")
	}
	return comment, nil
}

func (f *fakeCommentDAO) DeleteComment(ctx context.Context, commentID int64) error {
	comment, ok := f.comments[commentID]
	if !ok {
		return errors.NotFound(model.ReasonCommentNotFound, "评论不存在")
	}
	delete(f.comments, commentID)
	if f.counts[comment.PostID] > 0 {
		f.counts[comment.PostID]--
	}
	return nil
}

func (f *fakeCommentDAO) GetComments(ctx context.Context, postID int64) ([]*model.Comment, error) {
	var comments []*model.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (f *fakeCommentDAO) AddReply(ctx context.Context, commentID int64, reply *model.Reply) error {
	comment, ok := f.comments[commentID]
	if !ok {
		return errors.NotFound(model.ReasonCommentNotFound, "评论不存在")
	}
	comment.Replies = append(comment.Replies, *reply)
	return nil
}

func (f *fakeCommentDAO) RemoveReply(ctx context.Context, commentID int64, replyID string) error {
	comment, ok := f.comments[commentID]
	if !ok {
		return errors.NotFound(model.ReasonCommentNotFound, "评论不存在")
	}
	for i, r := range comment.Replies {
		if r.ReplyID == replyID {
			comment.Replies = append(comment.Replies[:i], comment.Replies[i+1:]...)
			return nil
		}
	}
	return errors.NotFound(model.ReasonReplyNotFound, "回复不存在")
}

func (f *fakeCommentDAO) CountComments(ctx context.Context, postID int64) (int64, error) {
	var count int64
	for _, c := range f.comments {
		if c.PostID == postID {
			count++
		}
	}
	return count, nil
}

func (f *fakeCommentDAO) RecountComments(ctx context.Context, postID int64) (int64, error) {
	if !f.posts[postID] {
		return 0, errors.NotFound(model.ReasonPostNotFound, "帖子不存在")
	}
	count, _ := f.CountComments(ctx, postID)
	f.counts[postID] = count
	return count, nil
}

func newTestService(d dao.CommentDAO) *Service {
	return NewService(d, nil, nil, logger.GetLogger())
}

// lookupFailDAO GetComment始终失败，其余操作走内存实现
type lookupFailDAO struct {
	*fakeCommentDAO
}

func (d *lookupFailDAO) GetComment(ctx context.Context, commentID int64) (*model.Comment, error) {
	return nil, errors.NotFound(model.ReasonCommentNotFound, "评论不存在")
}

func TestCreateComment(t *testing.T) {
	ctx := context.Background()

	t.Run("正常创建", func(t *testing.T) {
		d := newFakeCommentDAO()
		svc := newTestService(d)

		comment, err := svc.CreateComment(ctx, 100, 1, "张三", "avatar.png", "味道不错")
		if err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}
		if comment.ID == 0 {
			t.Error("expected non-zero comment ID")
		}
		if comment.Content != "味道不错" {
			t.Errorf("unexpected content: %q", comment.Content)
		}
		if d.counts[100] != 1 {
			t.Errorf("expected comment count 1, got %d", d.counts[100])
		}
	})

	t.Run("内容为空", func(t *testing.T) {
		svc := newTestService(newFakeCommentDAO())

		if _, err := svc.CreateComment(ctx, 100, 1, "张三", "", "   "); !errors.IsBadRequest(err) {
			t.Errorf("expected BadRequest for blank content, got %v", err)
		}
	})

	t.Run("参数非法", func(t *testing.T) {
		svc := newTestService(newFakeCommentDAO())

		if _, err := svc.CreateComment(ctx, 0, 1, "", "", "内容"); !errors.IsBadRequest(err) {
			t.Errorf("expected BadRequest for zero post ID, got %v", err)
		}
	})
}

func TestDeleteComment(t *testing.T) {
	ctx := context.Background()

	t.Run("级联删除回复并递减计数", func(t *testing.T) {
		d := newFakeCommentDAO()
		svc := newTestService(d)

		comment, err := svc.CreateComment(ctx, 100, 1, "张三", "", "评论")
		if err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}
		if _, err := svc.AddReply(ctx, comment.ID, 2, "回复"); err != nil {
			t.Fatalf("AddReply failed: %v", err)
		}

		if err := svc.DeleteComment(ctx, comment.ID); err != nil {
			t.Fatalf("DeleteComment failed: %v", err)
		}

		if _, ok := d.comments[comment.ID]; ok {
			t.Error("expected comment to be deleted")
		}
		if d.counts[100] != 0 {
			t.Errorf("expected comment count 0, got %d", d.counts[100])
		}
	})

	t.Run("评论不存在", func(t *testing.T) {
		svc := newTestService(newFakeCommentDAO())

		if err := svc.DeleteComment(ctx, 999); !errors.IsNotFound(err) {
			t.Errorf("expected NotFound error, got %v", err)
		}
	})
}

func TestGetComments(t *testing.T) {
	ctx := context.Background()
	d := newFakeCommentDAO()
	svc := newTestService(d)

	first, err := svc.CreateComment(ctx, 100, 1, "张三", "", "第一条")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	// 保证创建时间单调递增
	d.comments[first.ID].CreatedAt = time.Now().Add(-time.Minute)

	second, err := svc.CreateComment(ctx, 100, 2, "李四", "", "第二条")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	if _, err := svc.CreateComment(ctx, 200, 3, "王五", "", "别的帖子"); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	comments, err := svc.GetComments(ctx, 100)
	if err != nil {
		t.Fatalf("GetComments failed: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].ID != first.ID || comments[1].ID != second.ID {
		t.Error("expected comments in ascending creation order")
	}
}

func TestReplies(t *testing.T) {
	ctx := context.Background()

	t.Run("添加与移除回复", func(t *testing.T) {
		d := newFakeCommentDAO()
		svc := newTestService(d)

		comment, err := svc.CreateComment(ctx, 100, 1, "张三", "", "评论")
		if err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}

		reply, err := svc.AddReply(ctx, comment.ID, 2, "回复内容")
		if err != nil {
			t.Fatalf("AddReply failed: %v", err)
		}
		if reply.ReplyID == "" {
			t.Error("expected non-empty reply ID")
		}
		if len(d.comments[comment.ID].Replies) != 1 {
			t.Fatalf("expected 1 reply, got %d", len(d.comments[comment.ID].Replies))
		}

		// 回复不计入帖子评论计数
		if d.counts[100] != 1 {
			t.Errorf("expected comment count 1 after reply, got %d", d.counts[100])
		}

		if err := svc.RemoveReply(ctx, comment.ID, reply.ReplyID); err != nil {
			t.Fatalf("RemoveReply failed: %v", err)
		}
		if len(d.comments[comment.ID].Replies) != 0 {
			t.Errorf("expected 0 replies, got %d", len(d.comments[comment.ID].Replies))
		}
	})

	t.Run("回复不存在的评论", func(t *testing.T) {
		svc := newTestService(newFakeCommentDAO())

		if _, err := svc.AddReply(ctx, 999, 2, "回复"); !errors.IsNotFound(err) {
			t.Errorf("expected NotFound error, got %v", err)
		}
	})

	t.Run("移除不存在的回复", func(t *testing.T) {
		d := newFakeCommentDAO()
		svc := newTestService(d)

		comment, err := svc.CreateComment(ctx, 100, 1, "张三", "", "评论")
		if err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}

		err = svc.RemoveReply(ctx, comment.ID, "missing-reply-id")
		if !errors.IsNotFound(err) {
			t.Errorf("expected NotFound error, got %v", err)
		}
	})

	t.Run("取不到评论时不写入回复", func(t *testing.T) {
		d := newFakeCommentDAO()
		comment := &model.Comment{ID: 7, PostID: 100, UserID: 1, Content: "评论", Replies: []model.Reply{}}
		d.comments[comment.ID] = comment

		svc := newTestService(&lookupFailDAO{fakeCommentDAO: d})

		if _, err := svc.AddReply(ctx, comment.ID, 2, "回复"); !errors.IsNotFound(err) {
			t.Errorf("评论查询失败时应返回NotFound, 实际: %v", err)
		}
		if len(d.comments[comment.ID].Replies) != 0 {
			t.Errorf("评论查询失败时不应写入回复, 实际 %d 条", len(d.comments[comment.ID].Replies))
		}

		comment.Replies = append(comment.Replies, model.Reply{ReplyID: "r1", UserID: 2, Text: "回复"})
		if err := svc.RemoveReply(ctx, comment.ID, "r1"); !errors.IsNotFound(err) {
			t.Errorf("评论查询失败时应返回NotFound, 实际: %v", err)
		}
		if len(d.comments[comment.ID].Replies) != 1 {
			t.Errorf("评论查询失败时不应移除回复, 实际 %d 条", len(d.comments[comment.ID].Replies))
		}
	})

	t.Run("回复内容为空", func(t *testing.T) {
		d := newFakeCommentDAO()
		svc := newTestService(d)

		comment, err := svc.CreateComment(ctx, 100, 1, "张三", "", "评论")
		if err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}

		if _, err := svc.AddReply(ctx, comment.ID, 2, "  "); !errors.IsBadRequest(err) {
			t.Errorf("expected BadRequest for blank reply, got %v", err)
		}
	})
}

func TestRecountComments(t *testing.T) {
	ctx := context.Background()

	t.Run("重建漂移的计数", func(t *testing.T) {
		d := newFakeCommentDAO()
		d.posts[100] = true
		svc := newTestService(d)

		if _, err := svc.CreateComment(ctx, 100, 1, "张三", "", "一"); err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}
		if _, err := svc.CreateComment(ctx, 100, 2, "李四", "", "二"); err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}

		// 模拟计数字段漂移
		d.counts[100] = 42

		count, err := svc.RecountComments(ctx, 100)
		if err != nil {
			t.Fatalf("RecountComments failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected rebuilt count 2, got %d", count)
		}
		if d.counts[100] != 2 {
			t.Errorf("expected stored count 2, got %d", d.counts[100])
		}
	})

	t.Run("帖子不存在", func(t *testing.T) {
		svc := newTestService(newFakeCommentDAO())

		if _, err := svc.RecountComments(ctx, 999); !errors.IsNotFound(err) {
			t.Errorf("expected NotFound error, got %v", err)
		}
	})
}
