package controller

import (
	"strconv"

	"studyshare_backend/internal/service"
	"studyshare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PaperController struct {
	PaperService      *service.PaperService
	GenerationService *service.GenerationService
}

func NewPaperController(paperService *service.PaperService, generationService *service.GenerationService) *PaperController {
	return &PaperController{
		PaperService:      paperService,
		GenerationService: generationService,
	}
}

// Generate godoc
// @Summary 生成试卷
// @Description 基于课程资料异步生成试卷。AI 提交成功返回 202 并后台轮询；
// @Description AI 服务不可用时同步降级为模板出题并返回 201。
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.GenerateRequest true "生成参数"
// @Success 201 {object} util.Response{data=service.GenerateResponse} "模板出题已完成"
// @Success 202 {object} util.Response{data=service.GenerateResponse} "AI任务已受理"
// @Failure 400 {object} util.Response "源资料为空或不属于该课程"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/papers/generate [post]
func (c *PaperController) Generate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.GenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.GenerationService.SubmitGeneration(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	if resp.Status == "completed" {
		util.Created(ctx, resp)
		return
	}
	util.Accepted(ctx, resp)
}

// GenerationStatus godoc
// @Summary 查询生成进度
// @Description 仅创建者可查。进行中的 AI 任务顺带实时查询上游状态。
// @Tags 试卷
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.GenerationStatusResponse} "成功"
// @Failure 403 {object} util.Response "非创建者"
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/papers/{id}/generation-status [get]
func (c *PaperController) GenerationStatus(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的试卷ID")
		return
	}

	status, err := c.GenerationService.QueryGenerationStatus(ctx.Request.Context(), id, claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, status)
}

// Get godoc
// @Summary 试卷详情
// @Description 非创建者查看公开试卷时隐藏答案与解析
// @Tags 试卷
// @Produce  json
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.PaperDetail} "成功"
// @Failure 403 {object} util.Response "无权查看"
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/papers/{id} [get]
func (c *PaperController) Get(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的试卷ID")
		return
	}

	viewerID, role := viewerIdentity(ctx)
	detail, err := c.PaperService.Get(id, viewerID, role)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// Download godoc
// @Summary 导出试卷
// @Description 导出含答案的完整试卷并记录下载
// @Tags 试卷
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.PaperDetail} "成功"
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/papers/{id}/download [get]
func (c *PaperController) Download(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的试卷ID")
		return
	}

	detail, err := c.PaperService.Download(id, claims.UserID, claims.Role,
		ctx.ClientIP(), ctx.Request.UserAgent())
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// Update godoc
// @Summary 更新试卷信息
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Param body body service.UpdatePaperRequest true "更新内容"
// @Success 200 {object} util.Response{data=model.Paper} "成功"
// @Failure 403 {object} util.Response "仅创建者或管理员可修改"
// @Router /api/papers/{id} [put]
func (c *PaperController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的试卷ID")
		return
	}

	var req service.UpdatePaperRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	paper, err := c.PaperService.Update(id, claims.UserID, claims.Role, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, paper)
}

// Delete godoc
// @Summary 删除试卷
// @Description 试卷与题目同事务删除
// @Tags 试卷
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "仅创建者或管理员可删除"
// @Router /api/papers/{id} [delete]
func (c *PaperController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的试卷ID")
		return
	}

	if err := c.PaperService.Delete(id, claims.UserID, claims.Role); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListByCourse godoc
// @Summary 课程试卷列表
// @Description 公开试卷对所有人可见，私有试卷仅创建者可见
// @Tags 试卷
// @Produce  json
// @Param courseId path int true "课程ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/courses/{courseId}/papers [get]
func (c *PaperController) ListByCourse(ctx *gin.Context) {
	courseID, err := parseIDParam(ctx, "courseId")
	if err != nil {
		util.BadRequest(ctx, "无效的课程ID")
		return
	}

	viewerID, _ := viewerIdentity(ctx)
	page, limit := pagination(ctx)

	papers, total, err := c.PaperService.ListByCourse(courseID, page, limit, viewerID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  papers,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Popular godoc
// @Summary 热门试卷
// @Tags 试卷
// @Produce  json
// @Param limit query int false "数量" default(10)
// @Param courseId query int false "限定课程"
// @Success 200 {object} util.Response{data=[]model.Paper} "成功"
// @Router /api/papers/popular [get]
func (c *PaperController) Popular(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}
	courseID, _ := strconv.ParseUint(ctx.DefaultQuery("courseId", "0"), 10, 64)

	papers, err := c.PaperService.ListPopular(limit, uint(courseID))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, papers)
}

// ToggleLike godoc
// @Summary 点赞/取消点赞试卷
// @Tags 试卷
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/papers/{id}/like [post]
func (c *PaperController) ToggleLike(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的试卷ID")
		return
	}

	liked, err := c.PaperService.ToggleLike(claims.UserID, id)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"liked": liked})
}

// Rate godoc
// @Summary 评分试卷
// @Description 1-5 分，重复评分覆盖旧值
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Param body body RateRequest true "评分"
// @Success 200 {object} util.Response{data=repository.RatingSummary} "成功"
// @Router /api/papers/{id}/rate [post]
func (c *PaperController) Rate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "无效的试卷ID")
		return
	}

	var req RateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	summary, err := c.PaperService.Rate(claims.UserID, id, req.Rating, req.Comment)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
