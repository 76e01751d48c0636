package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maiphh/food-social/apps/group-service/service"
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
	api := r.Group("/api/v1/group")
	{
		api.POST("/create", h.CreateGroup)         // 创建群组
		api.POST("/get", h.GetGroup)               // 获取群组信息
		api.POST("/list", h.GetUserGroups)         // 获取用户加入的群组
		api.POST("/members", h.GetMembers)         // 获取群成员列表
		api.POST("/join", h.JoinGroup)             // 加入群组
		api.POST("/leave", h.LeaveGroup)           // 退出群组
		api.POST("/add_member", h.AddMember)       // 拉人入群
		api.POST("/remove_member", h.RemoveMember) // 移除成员
		api.POST("/make_admin", h.MakeAdmin)       // 设置管理员
		api.POST("/disband", h.DisbandGroup)       // 解散群组
	}
}

// CreateGroupRequest 创建群组请求
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Avatar      string `json:"avatar"`
	OwnerID     int64  `json:"owner_id" binding:"required"`
	IsPrivate   bool   `json:"is_private"`
}

// CreateGroup 创建群组
func (h *HTTPHandler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	group, err := h.svc.CreateGroup(c.Request.Context(), req.Name, req.Description, req.Avatar, req.OwnerID, req.IsPrivate)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to create group",
			logger.F("error", err.Error()),
			logger.F("ownerID", req.OwnerID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "创建成功",
		"data":    group,
	})
}

// GetGroupRequest 获取群组请求
type GetGroupRequest struct {
	GroupID int64 `json:"group_id" binding:"required"`
}

// GetGroup 获取群组信息
func (h *HTTPHandler) GetGroup(c *gin.Context) {
	var req GetGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	group, err := h.svc.GetGroup(c.Request.Context(), req.GroupID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get group",
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
		"data":    group,
	})
}

// GetUserGroupsRequest 获取用户群组请求
type GetUserGroupsRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// GetUserGroups 获取用户加入的群组
func (h *HTTPHandler) GetUserGroups(c *gin.Context) {
	var req GetUserGroupsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	groups, err := h.svc.GetUserGroups(c.Request.Context(), req.UserID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get user groups",
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
		"data":    groups,
	})
}

// GetMembersRequest 获取群成员请求
type GetMembersRequest struct {
	GroupID int64 `json:"group_id" binding:"required"`
}

// GetMembers 获取群成员列表
func (h *HTTPHandler) GetMembers(c *gin.Context) {
	var req GetMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	members, err := h.svc.GetMembers(c.Request.Context(), req.GroupID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get group members",
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
		"data":    members,
	})
}

// JoinGroupRequest 加入群组请求
type JoinGroupRequest struct {
	GroupID int64 `json:"group_id" binding:"required"`
	UserID  int64 `json:"user_id" binding:"required"`
}

// JoinGroup 加入群组
func (h *HTTPHandler) JoinGroup(c *gin.Context) {
	var req JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	if err := h.svc.JoinGroup(c.Request.Context(), req.GroupID, req.UserID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to join group",
			logger.F("error", err.Error()),
			logger.F("groupID", req.GroupID),
			logger.F("userID", req.UserID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "加入成功",
	})
}

// LeaveGroupRequest 退出群组请求
type LeaveGroupRequest struct {
	GroupID int64 `json:"group_id" binding:"required"`
	UserID  int64 `json:"user_id" binding:"required"`
}

// LeaveGroup 退出群组
func (h *HTTPHandler) LeaveGroup(c *gin.Context) {
	var req LeaveGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	if err := h.svc.LeaveGroup(c.Request.Context(), req.GroupID, req.UserID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to leave group",
			logger.F("error", err.Error()),
			logger.F("groupID", req.GroupID),
			logger.F("userID", req.UserID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "退出成功",
	})
}

// AddMemberRequest 拉人入群请求
type AddMemberRequest struct {
	GroupID int64 `json:"group_id" binding:"required"`
	ActorID int64 `json:"actor_id" binding:"required"`
	UserID  int64 `json:"user_id" binding:"required"`
}

// AddMember 拉人入群
func (h *HTTPHandler) AddMember(c *gin.Context) {
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	if err := h.svc.AddMember(c.Request.Context(), req.GroupID, req.ActorID, req.UserID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to add member",
			logger.F("error", err.Error()),
			logger.F("groupID", req.GroupID),
			logger.F("actorID", req.ActorID),
			logger.F("userID", req.UserID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "添加成功",
	})
}

// RemoveMemberRequest 移除成员请求
type RemoveMemberRequest struct {
	GroupID int64 `json:"group_id" binding:"required"`
	ActorID int64 `json:"actor_id" binding:"required"`
	UserID  int64 `json:"user_id" binding:"required"`
}

// RemoveMember 移除成员
func (h *HTTPHandler) RemoveMember(c *gin.Context) {
	var req RemoveMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	if err := h.svc.RemoveMember(c.Request.Context(), req.GroupID, req.ActorID, req.UserID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to remove member",
			logger.F("error", err.Error()),
			logger.F("groupID", req.GroupID),
			logger.F("actorID", req.ActorID),
			logger.F("userID", req.UserID))
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

// MakeAdminRequest 设置管理员请求
type MakeAdminRequest struct {
	GroupID int64 `json:"group_id" binding:"required"`
	ActorID int64 `json:"actor_id" binding:"required"`
	UserID  int64 `json:"user_id" binding:"required"`
}

// MakeAdmin 设置管理员
func (h *HTTPHandler) MakeAdmin(c *gin.Context) {
	var req MakeAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	if err := h.svc.MakeAdmin(c.Request.Context(), req.GroupID, req.ActorID, req.UserID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to make admin",
			logger.F("error", err.Error()),
			logger.F("groupID", req.GroupID),
			logger.F("actorID", req.ActorID),
			logger.F("userID", req.UserID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "设置成功",
	})
}

// DisbandGroupRequest 解散群组请求
type DisbandGroupRequest struct {
	GroupID int64 `json:"group_id" binding:"required"`
	ActorID int64 `json:"actor_id" binding:"required"`
}

// DisbandGroup 解散群组
func (h *HTTPHandler) DisbandGroup(c *gin.Context) {
	var req DisbandGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	if err := h.svc.DisbandGroup(c.Request.Context(), req.GroupID, req.ActorID); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to disband group",
			logger.F("error", err.Error()),
			logger.F("groupID", req.GroupID),
			logger.F("actorID", req.ActorID))
		c.JSON(httpx.ErrorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "解散成功",
	})
}
