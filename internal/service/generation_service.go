package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"studyshare_backend/internal/config"
	"studyshare_backend/internal/model"
	"studyshare_backend/internal/util"
	"studyshare_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 后台轮询与状态持久化通过下面的小接口隔离，便于用内存实现做状态机测试。

type generationPaperStore interface {
	Create(p *model.Paper) error
	FindByID(id uint) (*model.Paper, error)
	UpdateGenerationState(paperID uint, state model.GenerationState) error
	ReplaceQuestions(paperID uint, questions []model.PaperQuestion) error
	CountQuestions(paperID uint) (int64, error)
}

type generationMaterialStore interface {
	FindByIDsAndCourse(ids []uint, courseID uint) ([]model.Material, error)
}

type generationCourseStore interface {
	FindByID(id uint) (*model.Course, error)
}

type taskGenerator interface {
	SubmitTask(ctx context.Context, materials string, numQuestions int) (string, error)
	TaskStatus(ctx context.Context, taskID string) (status string, errMsg string, err error)
	TaskResult(ctx context.Context, taskID string) (*GenerationResult, error)
}

type generationNotifier interface {
	NotifyUser(userID uint, event string, payload interface{})
}

type contentReader interface {
	ReadContent(m *model.Material) ([]byte, error)
}

// GenerationService 试卷生成编排器。
// 提交后即返回，AI 路径由后台 goroutine 轮询推进；AI 提交失败时同步降级为模板出题。
type GenerationService struct {
	papers    generationPaperStore
	materials generationMaterialStore
	courses   generationCourseStore
	generator taskGenerator
	files     contentReader
	notifier  generationNotifier
	cfg       config.GeneratorConfig
	log       *zap.Logger
}

func NewGenerationService(
	papers generationPaperStore,
	materials generationMaterialStore,
	courses generationCourseStore,
	generator taskGenerator,
	files contentReader,
	notifier generationNotifier,
	cfg config.GeneratorConfig,
	log *zap.Logger,
) *GenerationService {
	return &GenerationService{
		papers:    papers,
		materials: materials,
		courses:   courses,
		generator: generator,
		files:     files,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
	}
}

type GenerateRequest struct {
	CourseID        uint   `json:"courseId" binding:"required"`
	Title           string `json:"title" binding:"required,max=255"`
	Description     string `json:"description"`
	DifficultyLevel string `json:"difficultyLevel" binding:"omitempty,oneof=easy medium hard"`
	TotalQuestions  int    `json:"totalQuestions" binding:"required,min=1,max=50"`
	EstimatedTime   int    `json:"estimatedTime"`
	Language        string `json:"language" binding:"omitempty,oneof=zh en"`
	IsPublic        bool   `json:"isPublic"`
	SourceMaterials []uint `json:"sourceMaterials" binding:"required,min=1"`
}

type GenerateResponse struct {
	Paper  *model.Paper `json:"paper"`
	Status string       `json:"status"` // processing | completed
	Method string       `json:"method"` // ai | mock
}

// SubmitGeneration 校验请求、落库初始状态，然后尝试提交 AI 任务。
// 提交成功立即返回 processing 并由后台轮询；提交失败同步走模板兜底并返回 completed。
func (s *GenerationService) SubmitGeneration(ctx context.Context, userID uint, req GenerateRequest) (*GenerateResponse, error) {
	if req.DifficultyLevel == "" {
		req.DifficultyLevel = "medium"
	}
	if req.Language == "" {
		req.Language = "zh"
	}
	if len(req.SourceMaterials) == 0 {
		return nil, util.ErrNoSourceMaterials
	}

	course, err := s.courses.FindByID(req.CourseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	materials, err := s.materials.FindByIDsAndCourse(req.SourceMaterials, req.CourseID)
	if err != nil {
		return nil, err
	}
	if len(materials) != len(req.SourceMaterials) {
		return nil, util.ErrMaterialMismatch
	}

	sourceIDs, _ := json.Marshal(req.SourceMaterials)
	paper := &model.Paper{
		CourseID:        req.CourseID,
		CreatedBy:       userID,
		Title:           req.Title,
		Description:     req.Description,
		DifficultyLevel: req.DifficultyLevel,
		TotalQuestions:  req.TotalQuestions,
		EstimatedTime:   req.EstimatedTime,
		Language:        req.Language,
		IsPublic:        req.IsPublic,
		SourceMaterials: sourceIDs,
		GenerationMeta: model.GenerationState{
			TaskStatus:      model.TaskStatusSubmitted,
			SourceMaterials: req.SourceMaterials,
		}.Encode(),
	}
	if err := s.papers.Create(paper); err != nil {
		return nil, err
	}

	content := s.extractContent(materials, course, req.Language)

	taskID, err := s.generator.SubmitTask(ctx, content, req.TotalQuestions)
	if err != nil || taskID == "" {
		if err != nil {
			s.log.Warn("AI任务提交失败，降级为模板出题",
				zap.Uint("paperId", paper.ID), zap.Error(err))
		}
		return s.fallbackToMock(paper, req)
	}

	state := model.GenerationState{
		Method:          model.GenerationMethodAI,
		AITaskID:        taskID,
		TaskStatus:      model.TaskStatusSubmitted,
		SourceMaterials: req.SourceMaterials,
	}
	if err := s.papers.UpdateGenerationState(paper.ID, state); err != nil {
		return nil, err
	}
	paper.GenerationMeta = state.Encode()

	go s.pollGenerationTask(paper.ID, userID, taskID, req)

	return &GenerateResponse{
		Paper:  paper,
		Status: "processing",
		Method: model.GenerationMethodAI,
	}, nil
}

// fallbackToMock 同步生成模板题并标记完成
func (s *GenerationService) fallbackToMock(paper *model.Paper, req GenerateRequest) (*GenerateResponse, error) {
	questions := GenerateMockQuestions(req.TotalQuestions, req.DifficultyLevel, req.Language)
	if err := s.papers.ReplaceQuestions(paper.ID, questions); err != nil {
		return nil, err
	}

	state := model.GenerationState{
		Method:          model.GenerationMethodMock,
		TaskStatus:      model.TaskStatusCompleted,
		SourceMaterials: req.SourceMaterials,
	}
	if err := s.papers.UpdateGenerationState(paper.ID, state); err != nil {
		return nil, err
	}
	paper.GenerationMeta = state.Encode()

	monitoring.GenerationCounter.WithLabelValues(model.GenerationMethodMock, "completed").Inc()
	s.notify(paper.CreatedBy, "paper_generated", map[string]interface{}{
		"paperId": paper.ID,
		"status":  model.TaskStatusCompleted,
		"method":  model.GenerationMethodMock,
	})

	return &GenerateResponse{
		Paper:  paper,
		Status: "completed",
		Method: model.GenerationMethodMock,
	}, nil
}

// pollGenerationTask 后台轮询 AI 任务直到终态或耗尽次数。
// 每次循环都计入次数，包括瞬时查询失败，保证总时长有上界。
func (s *GenerationService) pollGenerationTask(paperID, userID uint, taskID string, req GenerateRequest) {
	ctx := context.Background()

	for attempt := 1; attempt <= s.cfg.MaxPollAttempts; attempt++ {
		time.Sleep(s.cfg.PollInterval)

		status, upstreamErr, err := s.generator.TaskStatus(ctx, taskID)
		if err != nil {
			s.log.Warn("轮询AI任务状态失败",
				zap.Uint("paperId", paperID), zap.String("taskId", taskID),
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		switch status {
		case GeneratorTaskCompleted:
			s.finishFromResult(ctx, paperID, userID, taskID, req)
			return
		case GeneratorTaskFailed:
			if upstreamErr == "" {
				upstreamErr = "生成任务失败"
			}
			s.failGeneration(paperID, userID, taskID, req.SourceMaterials, upstreamErr)
			return
		}
		// pending / processing：继续等待
	}

	s.failGeneration(paperID, userID, taskID, req.SourceMaterials, util.ErrGenerationTimeout.Error())
}

// finishFromResult 拉取结果、转换并持久化。转换或落库失败同样进入失败终态，不留半成品。
func (s *GenerationService) finishFromResult(ctx context.Context, paperID, userID uint, taskID string, req GenerateRequest) {
	result, err := s.generator.TaskResult(ctx, taskID)
	if err != nil {
		s.failGeneration(paperID, userID, taskID, req.SourceMaterials, fmt.Sprintf("拉取生成结果失败: %v", err))
		return
	}

	questions := ConvertGeneratedQuestions(result.Questions, req.TotalQuestions, req.DifficultyLevel, req.Language)
	if err := s.papers.ReplaceQuestions(paperID, questions); err != nil {
		s.failGeneration(paperID, userID, taskID, req.SourceMaterials, fmt.Sprintf("保存题目失败: %v", err))
		return
	}

	state := model.GenerationState{
		Method:          model.GenerationMethodAI,
		AITaskID:        taskID,
		TaskStatus:      model.TaskStatusCompleted,
		GenerationTime:  result.GenerationTime,
		SourceMaterials: req.SourceMaterials,
	}
	if err := s.papers.UpdateGenerationState(paperID, state); err != nil {
		s.log.Error("更新生成状态失败", zap.Uint("paperId", paperID), zap.Error(err))
		return
	}

	monitoring.GenerationCounter.WithLabelValues(model.GenerationMethodAI, "completed").Inc()
	s.log.Info("AI出题完成",
		zap.Uint("paperId", paperID), zap.String("taskId", taskID),
		zap.Int("questions", len(questions)))
	s.notify(userID, "paper_generated", map[string]interface{}{
		"paperId": paperID,
		"status":  model.TaskStatusCompleted,
		"method":  model.GenerationMethodAI,
	})
}

func (s *GenerationService) failGeneration(paperID, userID uint, taskID string, sourceMaterials []uint, reason string) {
	state := model.GenerationState{
		Method:          model.GenerationMethodAI,
		AITaskID:        taskID,
		TaskStatus:      model.TaskStatusFailed,
		Error:           reason,
		SourceMaterials: sourceMaterials,
	}
	if err := s.papers.UpdateGenerationState(paperID, state); err != nil {
		s.log.Error("标记生成失败状态出错", zap.Uint("paperId", paperID), zap.Error(err))
	}

	monitoring.GenerationCounter.WithLabelValues(model.GenerationMethodAI, "failed").Inc()
	s.log.Warn("试卷生成失败",
		zap.Uint("paperId", paperID), zap.String("taskId", taskID), zap.String("reason", reason))
	s.notify(userID, "paper_generated", map[string]interface{}{
		"paperId": paperID,
		"status":  model.TaskStatusFailed,
		"error":   reason,
	})
}

func (s *GenerationService) notify(userID uint, event string, payload interface{}) {
	if s.notifier != nil {
		s.notifier.NotifyUser(userID, event, payload)
	}
}

// extractContent 拼接资料内容作为出题输入。文本类资料读取正文，
// 其余类型只附文件名与类型占位；全部不可读时退化为课程名提示词。
func (s *GenerationService) extractContent(materials []model.Material, course *model.Course, language string) string {
	var b strings.Builder
	for i := range materials {
		m := &materials[i]
		b.WriteString(fmt.Sprintf("【资料】%s\n", m.Title))
		if m.IsTextual() && s.files != nil {
			data, err := s.files.ReadContent(m)
			if err == nil && len(data) > 0 {
				b.Write(data)
				b.WriteString("\n\n")
				continue
			}
			if err != nil {
				s.log.Debug("读取资料内容失败", zap.Uint("materialId", m.ID), zap.Error(err))
			}
		}
		b.WriteString(fmt.Sprintf("（文件 %s，类型 %s，暂不支持内容提取）\n\n", m.FileName, m.MimeType))
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		if language == "en" {
			return fmt.Sprintf("Generate exam questions covering the common topics of the course %q.", course.Name)
		}
		return fmt.Sprintf("请围绕课程《%s》的常见考点出题。", course.Name)
	}
	return content
}

// GenerationStatusResponse 生成进度查询结果
type GenerationStatusResponse struct {
	PaperID            uint    `json:"paperId"`
	Status             string  `json:"status"` // processing | completed | failed
	Method             string  `json:"method,omitempty"`
	Progress           string  `json:"progress,omitempty"`
	Error              string  `json:"error,omitempty"`
	QuestionsGenerated int64   `json:"questionsGenerated"`
	TotalQuestions     int     `json:"totalQuestions"`
	GenerationTime     float64 `json:"generationTime,omitempty"`
}

// QueryGenerationStatus 创建者查询生成进度。
// 仍在进行中的 AI 任务会顺带实时查询一次上游；上游查不到时回落到库中状态，绝不失败。
func (s *GenerationService) QueryGenerationStatus(ctx context.Context, paperID, requesterID uint) (*GenerationStatusResponse, error) {
	paper, err := s.papers.FindByID(paperID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrPaperNotFound
		}
		return nil, err
	}
	if paper.CreatedBy != requesterID {
		return nil, util.ErrPermissionDenied
	}

	state := paper.GenerationState()
	count, err := s.papers.CountQuestions(paperID)
	if err != nil {
		return nil, err
	}

	resp := &GenerationStatusResponse{
		PaperID:            paper.ID,
		Method:             state.Method,
		Error:              state.Error,
		QuestionsGenerated: count,
		TotalQuestions:     paper.TotalQuestions,
		GenerationTime:     state.GenerationTime,
	}

	switch state.TaskStatus {
	case model.TaskStatusCompleted:
		resp.Status = "completed"
	case model.TaskStatusFailed:
		resp.Status = "failed"
	default:
		resp.Status = "processing"
		if state.AITaskID != "" {
			status, upstreamErr, lerr := s.generator.TaskStatus(ctx, state.AITaskID)
			if lerr != nil {
				resp.Progress = "状态查询失败，以库中状态为准"
			} else {
				resp.Progress = status
				if upstreamErr != "" {
					resp.Error = upstreamErr
				}
			}
		}
	}
	return resp, nil
}
