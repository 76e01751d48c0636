package main

import (
	"github.com/gin-gonic/gin"

	"github.com/maiphh/food-social/apps/comment-service/dao"
	"github.com/maiphh/food-social/apps/comment-service/handler"
	"github.com/maiphh/food-social/apps/comment-service/service"
	"github.com/maiphh/food-social/pkg/server"
)

func main() {
	// 创建应用程序
	app := server.NewApplication("comment-service")

	// 启用HTTP服务器
	app.EnableHTTP()

	// 初始化DAO层
	commentDAO := dao.NewCommentDAO(app.GetMongoDB())

	// 初始化Service层
	svc := service.NewService(commentDAO, app.GetRedisClient(), app.GetKafkaProducer(), app.GetLogger())

	// 初始化Handler
	httpHandler := handler.NewHTTPHandler(svc, app.GetLogger())

	// 注册HTTP路由
	app.RegisterHTTPRoutes(func(engine *gin.Engine) {
		httpHandler.RegisterRoutes(engine)
	})

	// 运行应用程序
	if err := app.Run(); err != nil {
		panic(err)
	}
}
