package controller

import (
	"studyshare_backend/internal/service"
	"studyshare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotifyController struct {
	Hub *service.NotifyHub
}

func NewNotifyController(hub *service.NotifyHub) *NotifyController {
	return &NotifyController{Hub: hub}
}

// Connect godoc
// @Summary WebSocket 通知连接
// @Description 升级为 WebSocket，接收试卷生成完成等事件推送。token 通过 query 传递。
// @Tags 通知
// @Security ApiKeyAuth
// @Router /api/ws/notifications [get]
func (c *NotifyController) Connect(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	service.ServeNotifyWs(c.Hub, ctx.Writer, ctx.Request, claims.UserID)
}
