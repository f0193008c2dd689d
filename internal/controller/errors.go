package controller

import (
	"errors"
	"net/http"

	"studyshare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// handleServiceError 把服务层哨兵错误映射为 HTTP 状态码
func handleServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrCourseNotFound),
		errors.Is(err, util.ErrMaterialNotFound),
		errors.Is(err, util.ErrPaperNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrNoSourceMaterials),
		errors.Is(err, util.ErrMaterialMismatch):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrEmailRegistered),
		errors.Is(err, util.ErrUsernameTaken),
		errors.Is(err, util.ErrCourseCodeTaken):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Unauthorized(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
