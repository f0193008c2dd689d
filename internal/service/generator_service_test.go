package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studyshare_backend/internal/config"
	"studyshare_backend/internal/util"
)

func testGeneratorConfig(baseURL string) config.GeneratorConfig {
	return config.GeneratorConfig{
		BaseURL:         baseURL,
		RequestTimeout:  2 * time.Second,
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 3,
	}
}

func TestSubmitTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tasks/generate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req generateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.NumQuestions != 5 {
			t.Errorf("num_questions = %d, want 5", req.NumQuestions)
		}

		json.NewEncoder(w).Encode(generateTaskResponse{TaskID: "task-42", Status: "pending"})
	}))
	defer srv.Close()

	svc := NewGeneratorService(testGeneratorConfig(srv.URL))
	taskID, err := svc.SubmitTask(context.Background(), "资料内容", 5)
	if err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}
	if taskID != "task-42" {
		t.Fatalf("taskID = %q, want task-42", taskID)
	}
}

func TestSubmitTaskUnreachable(t *testing.T) {
	svc := NewGeneratorService(testGeneratorConfig("http://127.0.0.1:1"))
	_, err := svc.SubmitTask(context.Background(), "资料内容", 5)
	if !errors.Is(err, util.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestSubmitTaskBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewGeneratorService(testGeneratorConfig(srv.URL))
	if _, err := svc.SubmitTask(context.Background(), "x", 1); !errors.Is(err, util.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestSubmitTaskEmptyTaskID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateTaskResponse{})
	}))
	defer srv.Close()

	svc := NewGeneratorService(testGeneratorConfig(srv.URL))
	if _, err := svc.SubmitTask(context.Background(), "x", 1); !errors.Is(err, util.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestTaskStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/task-42/status" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(taskStatusResponse{
			TaskID: "task-42",
			Status: GeneratorTaskProcessing,
		})
	}))
	defer srv.Close()

	svc := NewGeneratorService(testGeneratorConfig(srv.URL))
	status, errMsg, err := svc.TaskStatus(context.Background(), "task-42")
	if err != nil {
		t.Fatalf("TaskStatus: %v", err)
	}
	if status != GeneratorTaskProcessing || errMsg != "" {
		t.Fatalf("status = %q errMsg = %q", status, errMsg)
	}
}

func TestTaskStatusFailedWithMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(taskStatusResponse{
			TaskID:       "task-42",
			Status:       GeneratorTaskFailed,
			ErrorMessage: "model overloaded",
		})
	}))
	defer srv.Close()

	svc := NewGeneratorService(testGeneratorConfig(srv.URL))
	status, errMsg, err := svc.TaskStatus(context.Background(), "task-42")
	if err != nil {
		t.Fatalf("TaskStatus: %v", err)
	}
	if status != GeneratorTaskFailed || errMsg != "model overloaded" {
		t.Fatalf("status = %q errMsg = %q", status, errMsg)
	}
}

func TestTaskResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/task-42/result" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(taskResultResponse{
			TaskID: "task-42",
			Status: GeneratorTaskCompleted,
			Result: &GenerationResult{
				Questions: []GeneratedQuestion{
					{Question: "简述一个概念。", Answer: "略"},
				},
				GenerationTime: 12.5,
			},
		})
	}))
	defer srv.Close()

	svc := NewGeneratorService(testGeneratorConfig(srv.URL))
	result, err := svc.TaskResult(context.Background(), "task-42")
	if err != nil {
		t.Fatalf("TaskResult: %v", err)
	}
	if len(result.Questions) != 1 || result.GenerationTime != 12.5 {
		t.Fatalf("result = %+v", result)
	}
}

func TestTaskResultEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(taskResultResponse{
			TaskID: "task-42",
			Status: GeneratorTaskCompleted,
			Result: &GenerationResult{},
		})
	}))
	defer srv.Close()

	svc := NewGeneratorService(testGeneratorConfig(srv.URL))
	if _, err := svc.TaskResult(context.Background(), "task-42"); !errors.Is(err, util.ErrEmptyGeneration) {
		t.Fatalf("err = %v, want ErrEmptyGeneration", err)
	}
}
