package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maiphh/food-social/apps/post-service/model"
	"github.com/maiphh/food-social/apps/post-service/service"
	"github.com/maiphh/food-social/pkg/httpx"
	"github.com/maiphh/food-social/pkg/logger"
)

// HTTPHandler HTTP处理器
type HTTPHandler struct {
	svc    *service.Service
	logger logger.Logger
}

// NewHTTPHandler 创建HTTP处理器
func NewHTTPHandler(svc *service.Service, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: log,
	}
}

// RegisterRoutes 注册HTTP路由
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/post")
	{
		api.POST("/create", h.CreatePost)     // 创建帖子
		api.POST("/get", h.GetPost)           // 获取帖子
		api.POST("/update", h.UpdatePost)     // 更新帖子
		api.POST("/delete", h.DeletePost)     // 删除帖子
		api.POST("/feed", h.GetPublicFeed)    // 公开帖子流（免鉴权）
		api.POST("/mine", h.GetUserPosts)     // 用户帖子列表
		api.POST("/group", h.GetGroupPosts)   // 群组帖子列表
		api.POST("/save", h.SavePost)         // 收藏帖子
		api.POST("/unsave", h.UnsavePost)     // 取消收藏
		api.POST("/saved", h.GetSavedPosts)   // 收藏列表
	}
}

// RatingsRequest 评分请求
type RatingsRequest struct {
	Food     int `json:"food"`
	Ambiance int `json:"ambiance"`
}

// CreatePostRequest 创建帖子请求
type CreatePostRequest struct {
	AuthorID   int64          `json:"author_id" binding:"required"`
	Content    string         `json:"content" binding:"required"`
	Images     []string       `json:"images"`
	Ratings    RatingsRequest `json:"ratings"`
	Visibility string         `json:"visibility" binding:"required"`
	GroupID    int64          `json:"group_id"`
}

// CreatePost 创建帖子
func (h *HTTPHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	ratings := model.Ratings{Food: req.Ratings.Food, Ambiance: req.Ratings.Ambiance}
	post, err := h.svc.CreatePost(c.Request.Context(), req.AuthorID, req.Content, req.Images, ratings, req.Visibility, req.GroupID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to create post",
			logger.F("error", err.Error()),
			logger.F("authorID", req.AuthorID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "发布成功",
		"data":    post,
	})
}

// GetPostRequest 获取帖子请求
type GetPostRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
}

// GetPost 获取帖子详情
func (h *HTTPHandler) GetPost(c *gin.Context) {
	var req GetPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	post, err := h.svc.GetPost(c.Request.Context(), req.PostID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get post",
			logger.F("error", err.Error()),
			logger.F("postID", req.PostID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "获取成功",
		"data":    post,
	})
}

// UpdatePostRequest 更新帖子请求
type UpdatePostRequest struct {
	PostID     int64          `json:"post_id" binding:"required"`
	ActorID    int64          `json:"actor_id" binding:"required"`
	Content    string         `json:"content" binding:"required"`
	Images     []string       `json:"images"`
	Ratings    RatingsRequest `json:"ratings"`
	Visibility string         `json:"visibility" binding:"required"`
	GroupID    int64          `json:"group_id"`
}

// UpdatePost 更新帖子
func (h *HTTPHandler) UpdatePost(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	ratings := model.Ratings{Food: req.Ratings.Food, Ambiance: req.Ratings.Ambiance}
	post, err := h.svc.UpdatePost(c.Request.Context(), req.PostID, req.ActorID, req.Content, req.Images, ratings, req.Visibility, req.GroupID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to update post",
			logger.F("error", err.Error()),
			logger.F("postID", req.PostID),
			logger.F("actorID", req.ActorID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "更新成功",
		"data":    post,
	})
}

// DeletePostRequest 删除帖子请求
type DeletePostRequest struct {
	PostID  int64 `json:"post_id" binding:"required"`
	ActorID int64 `json:"actor_id" binding:"required"`
}

// DeletePost 删除帖子
func (h *HTTPHandler) DeletePost(c *gin.Context) {
	var req DeletePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	if err := h.svc.DeletePost(c.Request.Context(), req.PostID, req.ActorID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to delete post",
			logger.F("error", err.Error()),
			logger.F("postID", req.PostID),
			logger.F("actorID", req.ActorID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "删除成功",
	})
}

// GetPublicFeedRequest 公开帖子流请求
type GetPublicFeedRequest struct {
	Limit int64 `json:"limit"`
}

// GetPublicFeed 获取公开帖子流
func (h *HTTPHandler) GetPublicFeed(c *gin.Context) {
	var req GetPublicFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	posts, err := h.svc.GetPublicFeed(c.Request.Context(), req.Limit)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get public feed",
			logger.F("error", err.Error()))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "获取成功",
		"data":    posts,
	})
}

// GetUserPostsRequest 用户帖子列表请求
type GetUserPostsRequest struct {
	AuthorID int64 `json:"author_id" binding:"required"`
}

// GetUserPosts 获取用户发布的帖子
func (h *HTTPHandler) GetUserPosts(c *gin.Context) {
	var req GetUserPostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	posts, err := h.svc.GetUserPosts(c.Request.Context(), req.AuthorID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get user posts",
			logger.F("error", err.Error()),
			logger.F("authorID", req.AuthorID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "获取成功",
		"data":    posts,
	})
}

// GetGroupPostsRequest 群组帖子列表请求
type GetGroupPostsRequest struct {
	GroupID int64 `json:"group_id" binding:"required"`
}

// GetGroupPosts 获取群组内的帖子
func (h *HTTPHandler) GetGroupPosts(c *gin.Context) {
	var req GetGroupPostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	posts, err := h.svc.GetGroupPosts(c.Request.Context(), req.GroupID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get group posts",
			logger.F("error", err.Error()),
			logger.F("groupID", req.GroupID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "获取成功",
		"data":    posts,
	})
}

// SavePostRequest 收藏帖子请求
type SavePostRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
	PostID int64 `json:"post_id" binding:"required"`
}

// SavePost 收藏帖子
func (h *HTTPHandler) SavePost(c *gin.Context) {
	var req SavePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	if err := h.svc.SavePost(c.Request.Context(), req.UserID, req.PostID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to save post",
			logger.F("error", err.Error()),
			logger.F("userID", req.UserID),
			logger.F("postID", req.PostID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "收藏成功",
	})
}

// UnsavePostRequest 取消收藏请求
type UnsavePostRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
	PostID int64 `json:"post_id" binding:"required"`
}

// UnsavePost 取消收藏
func (h *HTTPHandler) UnsavePost(c *gin.Context) {
	var req UnsavePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	if err := h.svc.UnsavePost(c.Request.Context(), req.UserID, req.PostID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to unsave post",
			logger.F("error", err.Error()),
			logger.F("userID", req.UserID),
			logger.F("postID", req.PostID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "已取消收藏",
	})
}

// GetSavedPostsRequest 收藏列表请求
type GetSavedPostsRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// GetSavedPosts 获取用户收藏的帖子
func (h *HTTPHandler) GetSavedPosts(c *gin.Context) {
	var req GetSavedPostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	posts, err := h.svc.GetSavedPosts(c.Request.Context(), req.UserID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get saved posts",
			logger.F("error", err.Error()),
			logger.F("userID", req.UserID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "获取成功",
		"data":    posts,
	})
}
