package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-kratos/kratos/v2/errors"
	"google.golang.org/protobuf/proto"
)

// WriteObject 兼容protobuf和json
func WriteObject(c *gin.Context, obj interface{}, err error) {
	status := http.StatusOK
	if err != nil {
		status = ErrorStatus(err)
	}

	switch c.ContentType() {
	case binding.MIMEPROTOBUF:
		if msg, ok := obj.(proto.Message); ok {
			c.ProtoBuf(status, msg)
			return
		}
		c.String(http.StatusInternalServerError, "expected proto.Message for protobuf response")
	default:
		c.JSON(status, obj)
	}
}

// ErrorStatus 从错误中解析HTTP状态码
// Kratos错误自带状态码，其余一律按500处理
func ErrorStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if se := errors.FromError(err); se != nil && se.Code > 0 {
		return int(se.Code)
	}
	return http.StatusInternalServerError
}
