package controller

import (
	"strconv"

	"studyshare_backend/internal/service"
	"studyshare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MaterialController struct {
	MaterialService *service.MaterialService
}

func NewMaterialController(materialService *service.MaterialService) *MaterialController {
	return &MaterialController{MaterialService: materialService}
}

// Upload godoc
// @Summary 上传课程资料
// @Description multipart 上传，同内容文件按哈希去重
// @Tags 资料
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param courseId formData int true "课程ID"
// @Param title formData string true "资料标题"
// @Param category formData string false "分类" Enums(lecture, exercise, exam, reference, video)
// @Param file formData file true "文件"
// @Success 201 {object} util.Response{data=model.Material} "上传成功"
// @Failure 400 {object} util.Response "参数或文件类型错误"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/materials [post]
func (c *MaterialController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.UploadMaterialRequest
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少上传文件")
		return
	}

	material, err := c.MaterialService.Upload(ctx.Request.Context(), claims.UserID, req, header)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, material)
}

// Get godoc
// @Summary 资料详情
// @Tags 资料
// @Produce  json
// @Param id path int true "资料ID"
// @Success 200 {object} util.Response{data=model.Material} "成功"
// @Failure 403 {object} util.Response "无权查看"
// @Failure 404 {object} util.Response "资料不存在"
// @Router /api/materials/{id} [get]
func (c *MaterialController) Get(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的资料ID")
		return
	}

	viewerID, role := viewerIdentity(ctx)
	material, err := c.MaterialService.Get(id, viewerID, role)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, material)
}

// Download godoc
// @Summary 下载资料
// @Description 记录下载并返回文件访问地址
// @Tags 资料
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "资料ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "资料不存在"
// @Router /api/materials/{id}/download [get]
func (c *MaterialController) Download(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的资料ID")
		return
	}

	material, url, err := c.MaterialService.Download(id, claims.UserID, claims.Role,
		ctx.ClientIP(), ctx.Request.UserAgent())
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"url":      url,
		"fileName": material.FileName,
		"fileSize": material.FileSize,
		"mimeType": material.MimeType,
	})
}

// Update godoc
// @Summary 更新资料信息
// @Tags 资料
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "资料ID"
// @Param body body service.UpdateMaterialRequest true "更新内容"
// @Success 200 {object} util.Response{data=model.Material} "成功"
// @Failure 403 {object} util.Response "仅上传者或管理员可修改"
// @Router /api/materials/{id} [put]
func (c *MaterialController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的资料ID")
		return
	}

	var req service.UpdateMaterialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	material, err := c.MaterialService.Update(id, claims.UserID, claims.Role, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, material)
}

// Delete godoc
// @Summary 删除资料
// @Description 删除记录；物理文件引用归零时一并清理
// @Tags 资料
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "资料ID"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "仅上传者或管理员可删除"
// @Router /api/materials/{id} [delete]
func (c *MaterialController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的资料ID")
		return
	}

	if err := c.MaterialService.Delete(ctx.Request.Context(), id, claims.UserID, claims.Role); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListByCourse godoc
// @Summary 课程资料列表
// @Tags 资料
// @Produce  json
// @Param courseId path int true "课程ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Param category query string false "分类"
// @Param sortBy query string false "排序" Enums(latest, downloads, likes, name)
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/courses/{courseId}/materials [get]
func (c *MaterialController) ListByCourse(ctx *gin.Context) {
	courseID, err := parseIDParam(ctx, "courseId")
	if err != nil {
		util.BadRequest(ctx, "无效的课程ID")
		return
	}

	page, limit := pagination(ctx)
	materials, total, err := c.MaterialService.ListByCourse(courseID, page, limit,
		ctx.Query("category"), ctx.Query("sortBy"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  materials,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Search godoc
// @Summary 搜索公开资料
// @Tags 资料
// @Produce  json
// @Param keyword query string true "关键词"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/materials/search [get]
func (c *MaterialController) Search(ctx *gin.Context) {
	page, limit := pagination(ctx)
	materials, total, err := c.MaterialService.Search(ctx.Query("keyword"), page, limit)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  materials,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Popular godoc
// @Summary 热门资料
// @Tags 资料
// @Produce  json
// @Param limit query int false "数量" default(10)
// @Param courseId query int false "限定课程"
// @Success 200 {object} util.Response{data=[]model.Material} "成功"
// @Router /api/materials/popular [get]
func (c *MaterialController) Popular(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}
	courseID, _ := strconv.ParseUint(ctx.DefaultQuery("courseId", "0"), 10, 64)

	materials, err := c.MaterialService.ListPopular(limit, uint(courseID))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, materials)
}

// ToggleLike godoc
// @Summary 点赞/取消点赞资料
// @Tags 资料
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "资料ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/materials/{id}/like [post]
func (c *MaterialController) ToggleLike(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的资料ID")
		return
	}

	liked, err := c.MaterialService.ToggleLike(claims.UserID, id)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"liked": liked})
}

type RateRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"omitempty,max=1000"`
}

// Rate godoc
// @Summary 评分资料
// @Description 1-5 分，重复评分覆盖旧值
// @Tags 资料
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "资料ID"
// @Param body body RateRequest true "评分"
// @Success 200 {object} util.Response{data=repository.RatingSummary} "成功"
// @Router /api/materials/{id}/rate [post]
func (c *MaterialController) Rate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的资料ID")
		return
	}

	var req RateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	summary, err := c.MaterialService.Rate(claims.UserID, id, req.Rating, req.Comment)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
