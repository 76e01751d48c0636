package context

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// 上下文键类型
type contextKey string

const (
	// 业务相关的上下文键
	TraceIDKey   contextKey = "trace_id"
	UserIDKey    contextKey = "user_id"
	GroupIDKey   contextKey = "group_id"
	PostIDKey    contextKey = "post_id"
	CommentIDKey contextKey = "comment_id"
	RequestIDKey contextKey = "request_id"
)

// TraceContext 业务追踪上下文
type TraceContext struct {
	TraceID   string
	UserID    int64
	GroupID   int64
	PostID    int64
	CommentID int64
	RequestID string
}

// WithTraceID 在context中设置TraceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = GenerateTraceID()
	}

	// 同时设置到OpenTelemetry span中
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.String("trace.id", traceID))
	}

	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID 从context中获取TraceID
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	// 优先从OpenTelemetry span中获取
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}

	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}

	return ""
}

// WithUserID 在context中设置UserID
func WithUserID(ctx context.Context, userID int64) context.Context {
	if userID <= 0 {
		return ctx
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int64("user.id", userID))
	}

	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID 从context中获取UserID
func GetUserID(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if userID, ok := ctx.Value(UserIDKey).(int64); ok {
		return userID
	}
	return 0
}

// WithGroupID 在context中设置GroupID
func WithGroupID(ctx context.Context, groupID int64) context.Context {
	if groupID <= 0 {
		return ctx
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int64("group.id", groupID))
	}

	return context.WithValue(ctx, GroupIDKey, groupID)
}

// GetGroupID 从context中获取GroupID
func GetGroupID(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if groupID, ok := ctx.Value(GroupIDKey).(int64); ok {
		return groupID
	}
	return 0
}

// WithPostID 在context中设置PostID
func WithPostID(ctx context.Context, postID int64) context.Context {
	if postID <= 0 {
		return ctx
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int64("post.id", postID))
	}

	return context.WithValue(ctx, PostIDKey, postID)
}

// GetPostID 从context中获取PostID
func GetPostID(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if postID, ok := ctx.Value(PostIDKey).(int64); ok {
		return postID
	}
	return 0
}

// WithCommentID 在context中设置CommentID
func WithCommentID(ctx context.Context, commentID int64) context.Context {
	if commentID <= 0 {
		return ctx
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int64("comment.id", commentID))
	}

	return context.WithValue(ctx, CommentIDKey, commentID)
}

// GetCommentID 从context中获取CommentID
func GetCommentID(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if commentID, ok := ctx.Value(CommentIDKey).(int64); ok {
		return commentID
	}
	return 0
}

// WithRequestID 在context中设置RequestID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = GenerateRequestID()
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.String("request.id", requestID))
	}

	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID 从context中获取RequestID
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GenerateTraceID 生成TraceID
func GenerateTraceID() string {
	return uuid.New().String()
}

// GenerateRequestID 生成RequestID
func GenerateRequestID() string {
	return uuid.New().String()
}

// ExtractTraceContext 从context中提取业务追踪信息
func ExtractTraceContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID:   GetTraceID(ctx),
		UserID:    GetUserID(ctx),
		GroupID:   GetGroupID(ctx),
		PostID:    GetPostID(ctx),
		CommentID: GetCommentID(ctx),
		RequestID: GetRequestID(ctx),
	}
}

// ToMap 将TraceContext转换为map，用于日志输出
func (tc *TraceContext) ToMap() map[string]interface{} {
	result := make(map[string]interface{})

	if tc.TraceID != "" {
		result["trace_id"] = tc.TraceID
	}
	if tc.UserID > 0 {
		result["user_id"] = tc.UserID
	}
	if tc.GroupID > 0 {
		result["group_id"] = tc.GroupID
	}
	if tc.PostID > 0 {
		result["post_id"] = tc.PostID
	}
	if tc.CommentID > 0 {
		result["comment_id"] = tc.CommentID
	}
	if tc.RequestID != "" {
		result["request_id"] = tc.RequestID
	}

	return result
}

// Int64ToString 将数值转换为字符串，用于兼容现有代码
func Int64ToString(val int64) string {
	if val <= 0 {
		return ""
	}
	return strconv.FormatInt(val, 10)
}
