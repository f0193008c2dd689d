package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"studyshare_backend/internal/config"
	"studyshare_backend/internal/util"
)

// 出题微服务的任务状态
const (
	GeneratorTaskPending    = "pending"
	GeneratorTaskProcessing = "processing"
	GeneratorTaskCompleted  = "completed"
	GeneratorTaskFailed     = "failed"
)

// GeneratorService 外部出题微服务客户端。
// 该服务被视为不可信依赖：所有调用都有超时，任何失败都可恢复。
type GeneratorService struct {
	cfg    config.GeneratorConfig
	client *http.Client
}

func NewGeneratorService(cfg config.GeneratorConfig) *GeneratorService {
	return &GeneratorService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type generateTaskRequest struct {
	Materials    string `json:"materials"`
	NumQuestions int    `json:"num_questions"`
}

type generateTaskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type taskStatusResponse struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	Progress     string `json:"progress,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// GeneratedQuestion 出题服务返回的启发式题目格式
type GeneratedQuestion struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty,omitempty"`
	Topic      string   `json:"topic,omitempty"`
	Options    []string `json:"options,omitempty"`
}

type GenerationResult struct {
	Questions      []GeneratedQuestion `json:"questions"`
	GenerationTime float64             `json:"generation_time"`
}

type taskResultResponse struct {
	TaskID       string            `json:"task_id"`
	Status       string            `json:"status"`
	Result       *GenerationResult `json:"result,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// SubmitTask 提交生成任务，返回任务ID。任何网络/协议错误都折叠为上游不可用。
func (s *GeneratorService) SubmitTask(ctx context.Context, materials string, numQuestions int) (string, error) {
	body, err := json.Marshal(generateTaskRequest{
		Materials:    materials,
		NumQuestions: numQuestions,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/tasks/generate", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", util.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", util.ErrUpstreamUnavailable
	}

	var result generateTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", util.ErrUpstreamUnavailable
	}
	if result.TaskID == "" {
		return "", util.ErrUpstreamUnavailable
	}
	return result.TaskID, nil
}

// TaskStatus 查询任务状态，返回 status 与上游错误描述
func (s *GeneratorService) TaskStatus(ctx context.Context, taskID string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/tasks/%s/status", s.cfg.BaseURL, taskID), nil)
	if err != nil {
		return "", "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", util.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("generator status error (status %d): %s", resp.StatusCode, string(body))
	}

	var result taskStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", err
	}
	return result.Status, result.ErrorMessage, nil
}

// TaskResult 拉取完整生成结果
func (s *GeneratorService) TaskResult(ctx context.Context, taskID string) (*GenerationResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/tasks/%s/result", s.cfg.BaseURL, taskID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, util.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("generator result error (status %d): %s", resp.StatusCode, string(body))
	}

	var result taskResultResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.Result == nil || len(result.Result.Questions) == 0 {
		return nil, util.ErrEmptyGeneration
	}
	return result.Result, nil
}
