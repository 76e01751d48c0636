package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maiphh/food-social/apps/reaction-service/model"
	"github.com/maiphh/food-social/apps/reaction-service/service"
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
	api := r.Group("/api/v1/reaction")
	{
		api.POST("/toggle", h.ToggleReaction)     // 切换反应
		api.POST("/mine", h.GetUserReaction)      // 获取我的反应
		api.POST("/counts", h.GetReactionCounts)  // 获取反应计数
		api.POST("/recount", h.RecountReactions)  // 重建反应计数
	}
}

// ToggleReactionRequest 切换反应请求
type ToggleReactionRequest struct {
	PostID int64  `json:"post_id" binding:"required"`
	UserID int64  `json:"user_id" binding:"required"`
	Type   string `json:"type" binding:"required"`
}

// ToggleReaction 切换反应
func (h *HTTPHandler) ToggleReaction(c *gin.Context) {
	var req ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	result, err := h.svc.ToggleReaction(c.Request.Context(), req.PostID, req.UserID, req.Type)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to toggle reaction",
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
		"message": "操作成功",
		"data":    result,
	})
}

// GetUserReactionRequest 获取用户反应请求
type GetUserReactionRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
	UserID int64 `json:"user_id" binding:"required"`
}

// GetUserReaction 获取用户对帖子的反应
func (h *HTTPHandler) GetUserReaction(c *gin.Context) {
	var req GetUserReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	reaction, err := h.svc.GetUserReaction(c.Request.Context(), req.PostID, req.UserID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get user reaction",
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
		"message": "查询成功",
		"data":    reaction,
	})
}

// GetReactionCountsRequest 获取反应计数请求
type GetReactionCountsRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
}

// GetReactionCounts 获取帖子反应计数
func (h *HTTPHandler) GetReactionCounts(c *gin.Context) {
	var req GetReactionCountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	counts, err := h.svc.GetReactionCounts(c.Request.Context(), req.PostID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get reaction counts",
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
		"data": gin.H{
			"counts": counts,
			"total":  model.TotalReactions(counts),
		},
	})
}

// RecountReactionsRequest 重建反应计数请求
type RecountReactionsRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
}

// RecountReactions 以反应记录为准重建帖子计数
func (h *HTTPHandler) RecountReactions(c *gin.Context) {
	var req RecountReactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	counts, err := h.svc.RecountReactions(c.Request.Context(), req.PostID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to recount reactions",
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
		"data":    counts,
	})
}
