package controller

import (
	"strconv"

	"studyshare_backend/internal/model"
	"studyshare_backend/internal/service"
	"studyshare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
	StatsService  *service.StatsService
}

func NewCourseController(courseService *service.CourseService, statsService *service.StatsService) *CourseController {
	return &CourseController{
		CourseService: courseService,
		StatsService:  statsService,
	}
}

// Create godoc
// @Summary 创建课程
// @Description 管理员创建新课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateCourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Failure 409 {object} util.Response "课程代码已存在"
// @Router /api/courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Create(claims.UserID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// List godoc
// @Summary 课程列表
// @Description 分页查询课程，附带每门课的资料数与试卷数
// @Tags 课程
// @Produce  json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Param department query string false "院系"
// @Param semester query string false "学期"
// @Param keyword query string false "名称或代码关键词"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	page, limit := pagination(ctx)

	rows, total, err := c.CourseService.List(page, limit,
		ctx.Query("department"), ctx.Query("semester"), ctx.Query("keyword"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  rows,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Get godoc
// @Summary 课程详情
// @Tags 课程
// @Produce  json
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{courseId} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "courseId")
	if err != nil {
		util.BadRequest(ctx, "无效的课程ID")
		return
	}

	course, err := c.CourseService.Get(id)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// Stats godoc
// @Summary 平台统计
// @Description 用户、课程、资料、试卷总量
// @Tags 系统
// @Produce  json
// @Success 200 {object} util.Response{data=service.PlatformStats} "成功"
// @Router /api/stats [get]
func (c *CourseController) Stats(ctx *gin.Context) {
	stats, err := c.StatsService.Overview()
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

func pagination(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func parseIDParam(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	return uint(id), err
}

func viewerIdentity(ctx *gin.Context) (uint, model.UserRole) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return 0, model.RoleUser
	}
	return claims.UserID, claims.Role
}
