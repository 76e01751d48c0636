package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maiphh/food-social/apps/comment-service/service"
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
	api := r.Group("/api/v1/comment")
	{
		api.POST("/create", h.CreateComment)      // 创建评论
		api.POST("/delete", h.DeleteComment)      // 删除评论
		api.POST("/list", h.GetComments)          // 获取评论列表
		api.POST("/count", h.CountComments)       // 统计评论数
		api.POST("/recount", h.RecountComments)   // 重建评论计数
		api.POST("/reply/add", h.AddReply)        // 添加回复
		api.POST("/reply/remove", h.RemoveReply)  // 移除回复
	}
}

// CreateCommentRequest 创建评论请求
type CreateCommentRequest struct {
	PostID     int64  `json:"post_id" binding:"required"`
	UserID     int64  `json:"user_id" binding:"required"`
	UserName   string `json:"user_name"`
	UserAvatar string `json:"user_avatar"`
	Content    string `json:"content" binding:"required"`
}

// CreateComment 创建评论
func (h *HTTPHandler) CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	comment, err := h.svc.CreateComment(c.Request.Context(), req.PostID, req.UserID, req.UserName, req.UserAvatar, req.Content)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to create comment",
			logger.F("error", err.Error()),
			logger.F("postID", req.PostID),
			logger.F("userID", req.UserID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "评论成功",
		"data":    comment,
	})
}

// DeleteCommentRequest 删除评论请求
type DeleteCommentRequest struct {
	CommentID int64 `json:"comment_id" binding:"required"`
}

// DeleteComment 删除评论
func (h *HTTPHandler) DeleteComment(c *gin.Context) {
	var req DeleteCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	if err := h.svc.DeleteComment(c.Request.Context(), req.CommentID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to delete comment",
			logger.F("error", err.Error()),
			logger.F("commentID", req.CommentID))
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

// GetCommentsRequest 获取评论列表请求
type GetCommentsRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
}

// GetComments 获取帖子评论列表
func (h *HTTPHandler) GetComments(c *gin.Context) {
	var req GetCommentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	comments, err := h.svc.GetComments(c.Request.Context(), req.PostID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get comments",
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
		"data":    comments,
	})
}

// CountCommentsRequest 统计评论数请求
type CountCommentsRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
}

// CountComments 统计帖子评论数
func (h *HTTPHandler) CountComments(c *gin.Context) {
	var req CountCommentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	count, err := h.svc.CountComments(c.Request.Context(), req.PostID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to count comments",
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
		"message": "统计成功",
		"data":    gin.H{"count": count},
	})
}

// RecountCommentsRequest 重建评论计数请求
type RecountCommentsRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
}

// RecountComments 以评论记录为准重建帖子计数
func (h *HTTPHandler) RecountComments(c *gin.Context) {
	var req RecountCommentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	count, err := h.svc.RecountComments(c.Request.Context(), req.PostID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to recount comments",
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
		"message": "重建成功",
		"data":    gin.H{"count": count},
	})
}

// AddReplyRequest 添加回复请求
type AddReplyRequest struct {
	CommentID int64  `json:"comment_id" binding:"required"`
	UserID    int64  `json:"user_id" binding:"required"`
	Text      string `json:"text" binding:"required"`
}

// AddReply 添加回复
func (h *HTTPHandler) AddReply(c *gin.Context) {
	var req AddReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	reply, err := h.svc.AddReply(c.Request.Context(), req.CommentID, req.UserID, req.Text)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to add reply",
			logger.F("error", err.Error()),
			logger.F("commentID", req.CommentID),
			logger.F("userID", req.UserID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "回复成功",
		"data":    reply,
	})
}

// RemoveReplyRequest 移除回复请求
type RemoveReplyRequest struct {
	CommentID int64  `json:"comment_id" binding:"required"`
	ReplyID   string `json:"reply_id" binding:"required"`
}

// RemoveReply 移除回复
func (h *HTTPHandler) RemoveReply(c *gin.Context) {
	var req RemoveReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	if err := h.svc.RemoveReply(c.Request.Context(), req.CommentID, req.ReplyID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to remove reply",
			logger.F("error", err.Error()),
			logger.F("commentID", req.CommentID),
			logger.F("replyID", req.ReplyID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "移除成功",
	})
}
