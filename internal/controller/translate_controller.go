package controller

import (
	"studyshare_backend/internal/service"
	"studyshare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TranslateController struct {
	TranslationService *service.TranslationService
}

func NewTranslateController(translationService *service.TranslationService) *TranslateController {
	return &TranslateController{TranslationService: translationService}
}

type TranslateRequest struct {
	Text       string `json:"text" binding:"required,max=5000"`
	SourceLang string `json:"sourceLang" binding:"required,oneof=zh en"`
	TargetLang string `json:"targetLang" binding:"required,oneof=zh en"`
}

// Translate godoc
// @Summary 文本翻译
// @Description 结果缓存于 Redis；翻译服务不可用时原样返回文本
// @Tags 翻译
// @Accept  json
// @Produce  json
// @Param   body body TranslateRequest true "翻译请求"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/translate [post]
func (c *TranslateController) Translate(ctx *gin.Context) {
	var req TranslateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	translated, cached, err := c.TranslationService.Translate(
		ctx.Request.Context(), req.Text, req.SourceLang, req.TargetLang)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"translatedText": translated,
		"cached":         cached,
	})
}
