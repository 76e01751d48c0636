package service

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/errors"

	"github.com/maiphh/food-social/apps/post-service/dao"
	"github.com/maiphh/food-social/apps/post-service/model"
	"github.com/maiphh/food-social/pkg/logger"
	"github.com/maiphh/food-social/pkg/snowflake"
)

func TestMain(m *testing.M) {
	if err := snowflake.InitGlobalSnowflake(1); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakePostDAO 内存版帖子DAO
type fakePostDAO struct {
	posts map[int64]*model.Post
	saved map[int64][]int64 // userID -> postIDs
}

var _ dao.PostDAO = (*fakePostDAO)(nil)

func newFakePostDAO() *fakePostDAO {
	return &fakePostDAO{
		posts: make(map[int64]*model.Post),
		saved: make(map[int64][]int64),
	}
}

func (f *fakePostDAO) CreatePost(ctx context.Context, post *model.Post) error {
	f.posts[post.ID] = post
	return nil
}

func (f *fakePostDAO) GetPost(ctx context.Context, postID int64) (*model.Post, error) {
	post, ok := f.posts[postID]
	if !ok {
		return nil, errors.NotFound(model.ReasonPostNotFound, "帖子不存在")
	}
	return post, nil
}

func (f *fakePostDAO) UpdatePost(ctx context.Context, post *model.Post) error {
	if _, ok := f.posts[post.ID]; !ok {
		return errors.NotFound(model.ReasonPostNotFound, "帖子不存在")
	}
	f.posts[post.ID] = post
	return nil
}

func (f *fakePostDAO) DeletePost(ctx context.Context, postID int64) error {
	if _, ok := f.posts[postID]; !ok {
		return errors.NotFound(model.ReasonPostNotFound, "帖子不存在")
	}
	delete(f.posts, postID)
	return nil
}

func (f *fakePostDAO) filter(pred func(*model.Post) bool, limit int64) []*model.Post {
	var posts []*model.Post
	for _, p := range f.posts {
		if pred(p) {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if limit > 0 && int64(len(posts)) > limit {
		posts = posts[:limit]
	}
	return posts
}

func (f *fakePostDAO) GetPublicFeed(ctx context.Context, limit int64) ([]*model.Post, error) {
	return f.filter(func(p *model.Post) bool { return p.Visibility == model.VisibilityPublic }, limit), nil
}

func (f *fakePostDAO) GetUserPosts(ctx context.Context, authorID int64) ([]*model.Post, error) {
	return f.filter(func(p *model.Post) bool { return p.AuthorID == authorID }, 0), nil
}

func (f *fakePostDAO) GetGroupPosts(ctx context.Context, groupID int64) ([]*model.Post, error) {
	return f.filter(func(p *model.Post) bool {
		return p.Visibility == model.VisibilityGroup && p.GroupID == groupID
	}, 0), nil
}

func (f *fakePostDAO) GetPostsByIDs(ctx context.Context, postIDs []int64) (map[int64]*model.Post, error) {
	result := make(map[int64]*model.Post)
	for _, id := range postIDs {
		if p, ok := f.posts[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (f *fakePostDAO) SavePost(ctx context.Context, userID, postID int64) error {
	for _, id := range f.saved[userID] {
		if id == postID {
			return nil
		}
	}
	f.saved[userID] = append(f.saved[userID], postID)
	return nil
}

func (f *fakePostDAO) UnsavePost(ctx context.Context, userID, postID int64) error {
	ids := f.saved[userID]
	for i, id := range ids {
		if id == postID {
			f.saved[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakePostDAO) IsPostSaved(ctx context.Context, userID, postID int64) (bool, error) {
	for _, id := range f.saved[userID] {
		if id == postID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePostDAO) GetSavedPostIDs(ctx context.Context, userID int64) ([]int64, error) {
	return f.saved[userID], nil
}

func newTestService(d dao.PostDAO) *Service {
	return NewService(d, nil, nil, logger.GetLogger())
}

func TestCreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("正常创建", func(t *testing.T) {
		svc := newTestService(newFakePostDAO())

		post, err := svc.CreatePost(ctx, 1, "今天的拉面很好吃", []string{"ramen.jpg"},
			model.Ratings{Food: 5, Ambiance: 4}, model.VisibilityPublic, 0)
		if err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
		if post.ID == 0 {
			t.Error("expected non-zero post ID")
		}
		if post.Ratings.Food != 5 {
			t.Errorf("expected food rating 5, got %d", post.Ratings.Food)
		}
		if post.ReactionCount == nil {
			t.Error("expected initialized reaction count map")
		}
	})

	t.Run("内容为空", func(t *testing.T) {
		svc := newTestService(newFakePostDAO())

		_, err := svc.CreatePost(ctx, 1, "  ", nil, model.Ratings{}, model.VisibilityPublic, 0)
		if !errors.IsBadRequest(err) {
			t.Errorf("expected BadRequest for blank content, got %v", err)
		}
	})

	t.Run("可见性非法", func(t *testing.T) {
		svc := newTestService(newFakePostDAO())

		_, err := svc.CreatePost(ctx, 1, "内容", nil, model.Ratings{}, "friends", 0)
		if !errors.IsBadRequest(err) {
			t.Errorf("expected BadRequest for invalid visibility, got %v", err)
		}
	})

	t.Run("群组帖子缺群组ID", func(t *testing.T) {
		svc := newTestService(newFakePostDAO())

		_, err := svc.CreatePost(ctx, 1, "内容", nil, model.Ratings{}, model.VisibilityGroup, 0)
		if !errors.IsBadRequest(err) {
			t.Errorf("expected BadRequest for group post without group ID, got %v", err)
		}
	})

	t.Run("评分超出范围", func(t *testing.T) {
		svc := newTestService(newFakePostDAO())

		_, err := svc.CreatePost(ctx, 1, "内容", nil, model.Ratings{Food: 6}, model.VisibilityPublic, 0)
		if !errors.IsBadRequest(err) {
			t.Errorf("expected BadRequest for out-of-range rating, got %v", err)
		}
	})
}

func TestUpdatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("作者更新", func(t *testing.T) {
		d := newFakePostDAO()
		svc := newTestService(d)

		post, err := svc.CreatePost(ctx, 1, "原内容", nil, model.Ratings{}, model.VisibilityPublic, 0)
		if err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}

		updated, err := svc.UpdatePost(ctx, post.ID, 1, "新内容", nil, model.Ratings{Food: 3}, model.VisibilityPrivate, 0)
		if err != nil {
			t.Fatalf("UpdatePost failed: %v", err)
		}
		if updated.Content != "新内容" {
			t.Errorf("unexpected content: %q", updated.Content)
		}
		if updated.Visibility != model.VisibilityPrivate {
			t.Errorf("unexpected visibility: %q", updated.Visibility)
		}
	})

	t.Run("非作者更新被拒绝", func(t *testing.T) {
		svc := newTestService(newFakePostDAO())

		post, err := svc.CreatePost(ctx, 1, "内容", nil, model.Ratings{}, model.VisibilityPublic, 0)
		if err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}

		_, err = svc.UpdatePost(ctx, post.ID, 2, "篡改", nil, model.Ratings{}, model.VisibilityPublic, 0)
		if !errors.IsForbidden(err) {
			t.Errorf("expected Forbidden for non-author, got %v", err)
		}
	})

	t.Run("帖子不存在", func(t *testing.T) {
		svc := newTestService(newFakePostDAO())

		_, err := svc.UpdatePost(ctx, 999, 1, "内容", nil, model.Ratings{}, model.VisibilityPublic, 0)
		if !errors.IsNotFound(err) {
			t.Errorf("expected NotFound error, got %v", err)
		}
	})
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	d := newFakePostDAO()
	svc := newTestService(d)

	post, err := svc.CreatePost(ctx, 1, "内容", nil, model.Ratings{}, model.VisibilityPublic, 0)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if err := svc.DeletePost(ctx, post.ID, 2); !errors.IsForbidden(err) {
		t.Errorf("expected Forbidden for non-author, got %v", err)
	}

	if err := svc.DeletePost(ctx, post.ID, 1); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, ok := d.posts[post.ID]; ok {
		t.Error("expected post to be deleted")
	}
}

func TestGetPublicFeed(t *testing.T) {
	ctx := context.Background()
	d := newFakePostDAO()
	svc := newTestService(d)

	base := time.Now()
	for i := 0; i < 5; i++ {
		post, err := svc.CreatePost(ctx, 1, "公开帖子", nil, model.Ratings{}, model.VisibilityPublic, 0)
		if err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
		d.posts[post.ID].CreatedAt = base.Add(time.Duration(i) * time.Minute)
	}
	if _, err := svc.CreatePost(ctx, 1, "私密帖子", nil, model.Ratings{}, model.VisibilityPrivate, 0); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	t.Run("过滤私密帖子", func(t *testing.T) {
		posts, err := svc.GetPublicFeed(ctx, 0)
		if err != nil {
			t.Fatalf("GetPublicFeed failed: %v", err)
		}
		if len(posts) != 5 {
			t.Errorf("expected 5 public posts, got %d", len(posts))
		}
		for i := 1; i < len(posts); i++ {
			if posts[i].CreatedAt.After(posts[i-1].CreatedAt) {
				t.Error("expected descending creation order")
			}
		}
	})

	t.Run("限制条数", func(t *testing.T) {
		posts, err := svc.GetPublicFeed(ctx, 3)
		if err != nil {
			t.Fatalf("GetPublicFeed failed: %v", err)
		}
		if len(posts) != 3 {
			t.Errorf("expected 3 posts, got %d", len(posts))
		}
	})
}

func TestGroupPosts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakePostDAO())

	if _, err := svc.CreatePost(ctx, 1, "群组帖子", nil, model.Ratings{}, model.VisibilityGroup, 10); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if _, err := svc.CreatePost(ctx, 1, "别的群组", nil, model.Ratings{}, model.VisibilityGroup, 20); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	posts, err := svc.GetGroupPosts(ctx, 10)
	if err != nil {
		t.Fatalf("GetGroupPosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 group post, got %d", len(posts))
	}
	if posts[0].GroupID != 10 {
		t.Errorf("unexpected group ID: %d", posts[0].GroupID)
	}
}

func TestSavedPosts(t *testing.T) {
	ctx := context.Background()

	t.Run("收藏与取消收藏", func(t *testing.T) {
		d := newFakePostDAO()
		svc := newTestService(d)

		post, err := svc.CreatePost(ctx, 1, "内容", nil, model.Ratings{}, model.VisibilityPublic, 0)
		if err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}

		if err := svc.SavePost(ctx, 2, post.ID); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
		// 重复收藏是幂等的
		if err := svc.SavePost(ctx, 2, post.ID); err != nil {
			t.Fatalf("second SavePost failed: %v", err)
		}

		saved, err := svc.IsPostSaved(ctx, 2, post.ID)
		if err != nil {
			t.Fatalf("IsPostSaved failed: %v", err)
		}
		if !saved {
			t.Error("expected post to be saved")
		}
		if len(d.saved[2]) != 1 {
			t.Errorf("expected 1 saved post, got %d", len(d.saved[2]))
		}

		if err := svc.UnsavePost(ctx, 2, post.ID); err != nil {
			t.Fatalf("UnsavePost failed: %v", err)
		}
		saved, _ = svc.IsPostSaved(ctx, 2, post.ID)
		if saved {
			t.Error("expected post to be unsaved")
		}
	})

	t.Run("收藏不存在的帖子", func(t *testing.T) {
		svc := newTestService(newFakePostDAO())

		if err := svc.SavePost(ctx, 2, 999); !errors.IsNotFound(err) {
			t.Errorf("expected NotFound error, got %v", err)
		}
	})

	t.Run("收藏列表跳过已删除的帖子", func(t *testing.T) {
		d := newFakePostDAO()
		svc := newTestService(d)

		first, err := svc.CreatePost(ctx, 1, "第一篇", nil, model.Ratings{}, model.VisibilityPublic, 0)
		if err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
		second, err := svc.CreatePost(ctx, 1, "第二篇", nil, model.Ratings{}, model.VisibilityPublic, 0)
		if err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}

		if err := svc.SavePost(ctx, 2, first.ID); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
		if err := svc.SavePost(ctx, 2, second.ID); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}

		// 作者删除第一篇，收藏记录仍指向它
		if err := svc.DeletePost(ctx, first.ID, 1); err != nil {
			t.Fatalf("DeletePost failed: %v", err)
		}

		posts, err := svc.GetSavedPosts(ctx, 2)
		if err != nil {
			t.Fatalf("GetSavedPosts failed: %v", err)
		}
		if len(posts) != 1 {
			t.Fatalf("expected 1 saved post, got %d", len(posts))
		}
		if posts[0].ID != second.ID {
			t.Errorf("expected second post, got %d", posts[0].ID)
		}
	})
}
