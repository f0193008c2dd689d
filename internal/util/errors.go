package util

import "errors"

var (
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrUsernameTaken       = errors.New("用户名已被占用")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrCourseNotFound      = errors.New("课程不存在")
	ErrCourseCodeTaken     = errors.New("课程代码已存在")
	ErrMaterialNotFound    = errors.New("资料不存在")
	ErrMaterialMismatch    = errors.New("部分源资料不存在或不属于该课程")
	ErrPaperNotFound       = errors.New("试卷不存在")
	ErrNoSourceMaterials   = errors.New("请至少选择一份学习资料")
	ErrUpstreamUnavailable = errors.New("题目生成服务不可用")
	ErrGenerationTimeout   = errors.New("题目生成任务超时")
	ErrEmptyGeneration     = errors.New("未能生成有效题目")
	ErrAlreadyRated        = errors.New("已评价过该内容")
)
