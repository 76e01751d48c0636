package service

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/errors"

	"github.com/maiphh/food-social/apps/reaction-service/dao"
	"github.com/maiphh/food-social/apps/reaction-service/model"
	"github.com/maiphh/food-social/pkg/logger"
	"github.com/maiphh/food-social/pkg/snowflake"
)

func TestMain(m *testing.M) {
	if err := snowflake.InitGlobalSnowflake(1); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeReactionDAO 内存版反应DAO，按照Mongo实现的契约模拟切换事务
type fakeReactionDAO struct {
	reactions map[string]*model.Reaction // key: "postID:userID"
	counts    map[int64]map[string]int64 // postID -> type -> count
	posts     map[int64]bool
}

var _ dao.ReactionDAO = (*fakeReactionDAO)(nil)

func newFakeReactionDAO() *fakeReactionDAO {
	return &fakeReactionDAO{
		reactions: make(map[string]*model.Reaction),
		counts:    make(map[int64]map[string]int64),
		posts:     make(map[int64]bool),
	}
}

func reactionKey(postID, userID int64) string {
	return fmt.Sprintf("%d:%d", postID, userID)
}

func (f *fakeReactionDAO) incr(postID int64, reactionType string, delta int64) {
	if f.counts[postID] == nil {
		f.counts[postID] = make(map[string]int64)
	}
	next := f.counts[postID][reactionType] + delta
	if next < 0 {
		next = 0
	}
	f.counts[postID][reactionType] = next
}

func (f *fakeReactionDAO) ToggleReaction(ctx context.Context, postID, userID int64, reactionType string, newReactionID int64) (*model.ToggleResult, error) {
	key := reactionKey(postID, userID)
	existing := f.reactions[key]
	existingType := ""
	if existing != nil {
		existingType = existing.Type
	}

	switch model.ToggleOutcome(existingType, reactionType) {
	case model.ToggleResultAdded:
		f.reactions[key] = &model.Reaction{
			ID:        newReactionID,
			PostID:    postID,
			UserID:    userID,
			Type:      reactionType,
			CreatedAt: time.Now(),
		}
		f.incr(postID, reactionType, 1)
		return &model.ToggleResult{Result: model.ToggleResultAdded, Type: reactionType}, nil

	case model.ToggleResultRemoved:
		delete(f.reactions, key)
		f.incr(postID, reactionType, -1)
		return &model.ToggleResult{Result: model.ToggleResultRemoved, Type: reactionType}, nil

	default:
		prev := existing.Type
		f.reactions[key] = &model.Reaction{
			ID:        newReactionID,
			PostID:    postID,
			UserID:    userID,
			Type:      reactionType,
			CreatedAt: time.Now(),
		}
		f.incr(postID, prev, -1)
		f.incr(postID, reactionType, 1)
		return &model.ToggleResult{Result: model.ToggleResultSwitched, Type: reactionType, PrevType: prev}, nil
	}
}

func (f *fakeReactionDAO) GetUserReaction(ctx context.Context, postID, userID int64) (*model.Reaction, error) {
	r, ok := f.reactions[reactionKey(postID, userID)]
	if !ok {
		return nil, nil
	}
	return r, nil
}

func (f *fakeReactionDAO) CountByType(ctx context.Context, postID int64) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, r := range f.reactions {
		if r.PostID == postID {
			counts[r.Type]++
		}
	}
	return counts, nil
}

func (f *fakeReactionDAO) RecountReactions(ctx context.Context, postID int64) (map[string]int64, error) {
	if !f.posts[postID] {
		return nil, errors.NotFound(model.ReasonPostNotFound, "帖子不存在")
	}
	counts, _ := f.CountByType(ctx, postID)
	f.counts[postID] = counts
	return counts, nil
}

func newTestService(d dao.ReactionDAO) *Service {
	return NewService(d, nil, nil, logger.GetLogger())
}

func TestToggleReaction(t *testing.T) {
	ctx := context.Background()

	t.Run("添加反应", func(t *testing.T) {
		d := newFakeReactionDAO()
		svc := newTestService(d)

		result, err := svc.ToggleReaction(ctx, 100, 1, model.ReactionTypeLike)
		if err != nil {
			t.Fatalf("ToggleReaction failed: %v", err)
		}
		if result.Result != model.ToggleResultAdded {
			t.Errorf("expected result %q, got %q", model.ToggleResultAdded, result.Result)
		}
		if result.Type != model.ReactionTypeLike {
			t.Errorf("expected type %q, got %q", model.ReactionTypeLike, result.Type)
		}
		if d.counts[100][model.ReactionTypeLike] != 1 {
			t.Errorf("expected like count 1, got %d", d.counts[100][model.ReactionTypeLike])
		}
	})

	t.Run("同类型再点则取消", func(t *testing.T) {
		d := newFakeReactionDAO()
		svc := newTestService(d)

		if _, err := svc.ToggleReaction(ctx, 100, 1, model.ReactionTypeLike); err != nil {
			t.Fatalf("first toggle failed: %v", err)
		}
		result, err := svc.ToggleReaction(ctx, 100, 1, model.ReactionTypeLike)
		if err != nil {
			t.Fatalf("second toggle failed: %v", err)
		}
		if result.Result != model.ToggleResultRemoved {
			t.Errorf("expected result %q, got %q", model.ToggleResultRemoved, result.Result)
		}

		reaction, err := svc.GetUserReaction(ctx, 100, 1)
		if err != nil {
			t.Fatalf("GetUserReaction failed: %v", err)
		}
		if reaction != nil {
			t.Errorf("expected no reaction after removal, got %+v", reaction)
		}
		if d.counts[100][model.ReactionTypeLike] != 0 {
			t.Errorf("expected like count 0, got %d", d.counts[100][model.ReactionTypeLike])
		}
	})

	t.Run("不同类型则切换", func(t *testing.T) {
		d := newFakeReactionDAO()
		svc := newTestService(d)

		if _, err := svc.ToggleReaction(ctx, 100, 1, model.ReactionTypeLike); err != nil {
			t.Fatalf("first toggle failed: %v", err)
		}
		result, err := svc.ToggleReaction(ctx, 100, 1, model.ReactionTypeLove)
		if err != nil {
			t.Fatalf("switch toggle failed: %v", err)
		}
		if result.Result != model.ToggleResultSwitched {
			t.Errorf("expected result %q, got %q", model.ToggleResultSwitched, result.Result)
		}
		if result.PrevType != model.ReactionTypeLike {
			t.Errorf("expected prev type %q, got %q", model.ReactionTypeLike, result.PrevType)
		}

		if d.counts[100][model.ReactionTypeLike] != 0 {
			t.Errorf("expected like count 0 after switch, got %d", d.counts[100][model.ReactionTypeLike])
		}
		if d.counts[100][model.ReactionTypeLove] != 1 {
			t.Errorf("expected love count 1 after switch, got %d", d.counts[100][model.ReactionTypeLove])
		}

		reaction, err := svc.GetUserReaction(ctx, 100, 1)
		if err != nil {
			t.Fatalf("GetUserReaction failed: %v", err)
		}
		if reaction == nil || reaction.Type != model.ReactionTypeLove {
			t.Errorf("expected love reaction, got %+v", reaction)
		}
	})

	t.Run("不支持的反应类型", func(t *testing.T) {
		svc := newTestService(newFakeReactionDAO())

		_, err := svc.ToggleReaction(ctx, 100, 1, "angry")
		if !errors.IsBadRequest(err) {
			t.Errorf("expected BadRequest error, got %v", err)
		}
	})

	t.Run("参数非法", func(t *testing.T) {
		svc := newTestService(newFakeReactionDAO())

		if _, err := svc.ToggleReaction(ctx, 0, 1, model.ReactionTypeLike); !errors.IsBadRequest(err) {
			t.Errorf("expected BadRequest for zero post ID, got %v", err)
		}
		if _, err := svc.ToggleReaction(ctx, 100, 0, model.ReactionTypeLike); !errors.IsBadRequest(err) {
			t.Errorf("expected BadRequest for zero user ID, got %v", err)
		}
	})
}

func TestGetReactionCounts(t *testing.T) {
	ctx := context.Background()
	d := newFakeReactionDAO()
	svc := newTestService(d)

	for userID := int64(1); userID <= 3; userID++ {
		if _, err := svc.ToggleReaction(ctx, 100, userID, model.ReactionTypeLike); err != nil {
			t.Fatalf("toggle for user %d failed: %v", userID, err)
		}
	}
	if _, err := svc.ToggleReaction(ctx, 100, 4, model.ReactionTypeLove); err != nil {
		t.Fatalf("toggle for user 4 failed: %v", err)
	}

	counts, err := svc.GetReactionCounts(ctx, 100)
	if err != nil {
		t.Fatalf("GetReactionCounts failed: %v", err)
	}
	if counts[model.ReactionTypeLike] != 3 {
		t.Errorf("expected 3 likes, got %d", counts[model.ReactionTypeLike])
	}
	if counts[model.ReactionTypeLove] != 1 {
		t.Errorf("expected 1 love, got %d", counts[model.ReactionTypeLove])
	}

	total, err := svc.GetTotalReactions(ctx, 100)
	if err != nil {
		t.Fatalf("GetTotalReactions failed: %v", err)
	}
	if total != 4 {
		t.Errorf("expected total 4, got %d", total)
	}
}

func TestTotalReactions(t *testing.T) {
	if got := model.TotalReactions(nil); got != 0 {
		t.Errorf("expected 0 for nil map, got %d", got)
	}
	if got := model.TotalReactions(map[string]int64{}); got != 0 {
		t.Errorf("expected 0 for empty map, got %d", got)
	}
	counts := map[string]int64{
		model.ReactionTypeLike: 2,
		model.ReactionTypeLove: 3,
		model.ReactionTypeSad:  0,
	}
	if got := model.TotalReactions(counts); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}

func TestRecountReactions(t *testing.T) {
	ctx := context.Background()

	t.Run("重建漂移的计数", func(t *testing.T) {
		d := newFakeReactionDAO()
		d.posts[100] = true
		svc := newTestService(d)

		if _, err := svc.ToggleReaction(ctx, 100, 1, model.ReactionTypeLike); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if _, err := svc.ToggleReaction(ctx, 100, 2, model.ReactionTypeLike); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}

		// 模拟计数字段漂移
		d.counts[100][model.ReactionTypeLike] = 99

		counts, err := svc.RecountReactions(ctx, 100)
		if err != nil {
			t.Fatalf("RecountReactions failed: %v", err)
		}
		if counts[model.ReactionTypeLike] != 2 {
			t.Errorf("expected rebuilt like count 2, got %d", counts[model.ReactionTypeLike])
		}
		if d.counts[100][model.ReactionTypeLike] != 2 {
			t.Errorf("expected stored like count 2, got %d", d.counts[100][model.ReactionTypeLike])
		}
	})

	t.Run("帖子不存在", func(t *testing.T) {
		svc := newTestService(newFakeReactionDAO())

		_, err := svc.RecountReactions(ctx, 999)
		if !errors.IsNotFound(err) {
			t.Errorf("expected NotFound error, got %v", err)
		}
	})
}

func TestToggleOutcome(t *testing.T) {
	tests := []struct {
		name      string
		existing  string
		requested string
		want      string
	}{
		{"无反应则添加", "", model.ReactionTypeLike, model.ToggleResultAdded},
		{"同类型则移除", model.ReactionTypeLike, model.ReactionTypeLike, model.ToggleResultRemoved},
		{"不同类型则切换", model.ReactionTypeLike, model.ReactionTypeLove, model.ToggleResultSwitched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := model.ToggleOutcome(tt.existing, tt.requested); got != tt.want {
				t.Errorf("ToggleOutcome(%q, %q) = %q, want %q", tt.existing, tt.requested, got, tt.want)
			}
		})
	}
}
