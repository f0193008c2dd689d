package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"studyshare_backend/internal/config"
	"studyshare_backend/internal/model"
	"studyshare_backend/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 内存实现，供状态机测试使用

type fakePaperStore struct {
	mu        sync.Mutex
	papers    map[uint]*model.Paper
	questions map[uint][]model.PaperQuestion
	nextID    uint
}

func newFakePaperStore() *fakePaperStore {
	return &fakePaperStore{
		papers:    make(map[uint]*model.Paper),
		questions: make(map[uint][]model.PaperQuestion),
	}
}

func (f *fakePaperStore) Create(p *model.Paper) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.papers[p.ID] = &cp
	return nil
}

func (f *fakePaperStore) FindByID(id uint) (*model.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.papers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaperStore) UpdateGenerationState(paperID uint, state model.GenerationState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.papers[paperID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.GenerationMeta = state.Encode()
	return nil
}

func (f *fakePaperStore) ReplaceQuestions(paperID uint, questions []model.PaperQuestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]model.PaperQuestion, len(questions))
	copy(cp, questions)
	f.questions[paperID] = cp
	return nil
}

func (f *fakePaperStore) CountQuestions(paperID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.questions[paperID])), nil
}

func (f *fakePaperStore) state(t *testing.T, paperID uint) model.GenerationState {
	t.Helper()
	p, err := f.FindByID(paperID)
	if err != nil {
		t.Fatalf("paper %d missing: %v", paperID, err)
	}
	return p.GenerationState()
}

// waitForTerminal 等待后台轮询进入终态
func (f *fakePaperStore) waitForTerminal(t *testing.T, paperID uint) model.GenerationState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := f.state(t, paperID)
		if state.TaskStatus == model.TaskStatusCompleted || state.TaskStatus == model.TaskStatusFailed {
			return state
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("generation never reached a terminal state")
	return model.GenerationState{}
}

type fakeMaterialStore struct {
	materials []model.Material
}

func (f *fakeMaterialStore) FindByIDsAndCourse(ids []uint, courseID uint) ([]model.Material, error) {
	var out []model.Material
	for _, m := range f.materials {
		if m.CourseID != courseID {
			continue
		}
		for _, id := range ids {
			if m.ID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

type fakeCourseStore struct {
	courses map[uint]*model.Course
}

func (f *fakeCourseStore) FindByID(id uint) (*model.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

// fakeGenerator 按脚本推进任务状态
type fakeGenerator struct {
	mu          sync.Mutex
	submitErr   error
	taskID      string
	statuses    []string // 依次返回；耗尽后重复最后一个
	statusErr   error
	upstreamMsg string
	result      *GenerationResult
	resultErr   error
	statusCalls int
}

func (f *fakeGenerator) SubmitTask(ctx context.Context, materials string, n int) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.taskID, nil
}

func (f *fakeGenerator) TaskStatus(ctx context.Context, taskID string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return "", "", f.statusErr
	}
	idx := f.statusCalls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return f.statuses[idx], f.upstreamMsg, nil
}

func (f *fakeGenerator) TaskResult(ctx context.Context, taskID string) (*GenerationResult, error) {
	if f.resultErr != nil {
		return nil, f.resultErr
	}
	return f.result, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) NotifyUser(userID uint, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newTestGenerationService(papers *fakePaperStore, gen *fakeGenerator, notifier *fakeNotifier) *GenerationService {
	courses := &fakeCourseStore{courses: map[uint]*model.Course{
		1: {Name: "数据结构"},
	}}
	courses.courses[1].ID = 1

	materials := &fakeMaterialStore{materials: []model.Material{
		{CourseID: 1, Title: "第一章讲义", FileName: "ch1.pdf", MimeType: "application/pdf"},
	}}
	materials.materials[0].ID = 10

	cfg := config.GeneratorConfig{
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 5,
	}
	return NewGenerationService(papers, materials, courses, gen, nil, notifier, cfg, zap.NewNop())
}

func defaultGenerateRequest() GenerateRequest {
	return GenerateRequest{
		CourseID:        1,
		Title:           "期中模拟卷",
		TotalQuestions:  4,
		SourceMaterials: []uint{10},
	}
}

func TestSubmitGenerationCourseNotFound(t *testing.T) {
	svc := newTestGenerationService(newFakePaperStore(), &fakeGenerator{}, &fakeNotifier{})

	req := defaultGenerateRequest()
	req.CourseID = 99
	if _, err := svc.SubmitGeneration(context.Background(), 1, req); !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("err = %v, want ErrCourseNotFound", err)
	}
}

func TestSubmitGenerationNoSourceMaterials(t *testing.T) {
	svc := newTestGenerationService(newFakePaperStore(), &fakeGenerator{}, &fakeNotifier{})

	req := defaultGenerateRequest()
	req.SourceMaterials = nil
	if _, err := svc.SubmitGeneration(context.Background(), 1, req); !errors.Is(err, util.ErrNoSourceMaterials) {
		t.Fatalf("err = %v, want ErrNoSourceMaterials", err)
	}
}

func TestSubmitGenerationMaterialMismatch(t *testing.T) {
	svc := newTestGenerationService(newFakePaperStore(), &fakeGenerator{}, &fakeNotifier{})

	req := defaultGenerateRequest()
	req.SourceMaterials = []uint{10, 999}
	if _, err := svc.SubmitGeneration(context.Background(), 1, req); !errors.Is(err, util.ErrMaterialMismatch) {
		t.Fatalf("err = %v, want ErrMaterialMismatch", err)
	}
}

// AI 提交失败时同步降级为模板出题，题目数精确等于请求数
func TestSubmitGenerationMockFallback(t *testing.T) {
	papers := newFakePaperStore()
	notifier := &fakeNotifier{}
	svc := newTestGenerationService(papers, &fakeGenerator{submitErr: util.ErrUpstreamUnavailable}, notifier)

	resp, err := svc.SubmitGeneration(context.Background(), 1, defaultGenerateRequest())
	if err != nil {
		t.Fatalf("SubmitGeneration: %v", err)
	}
	if resp.Status != "completed" || resp.Method != model.GenerationMethodMock {
		t.Fatalf("resp = %+v", resp)
	}

	state := papers.state(t, resp.Paper.ID)
	if state.TaskStatus != model.TaskStatusCompleted || state.Method != model.GenerationMethodMock {
		t.Fatalf("state = %+v", state)
	}

	count, _ := papers.CountQuestions(resp.Paper.ID)
	if count != 4 {
		t.Fatalf("questions = %d, want 4", count)
	}
	if notifier.count() != 1 {
		t.Fatalf("notifications = %d, want 1", notifier.count())
	}
}

// AI 路径：提交即返回 processing，后台轮询到 completed 后落库
func TestSubmitGenerationAICompletes(t *testing.T) {
	papers := newFakePaperStore()
	notifier := &fakeNotifier{}
	gen := &fakeGenerator{
		taskID:   "task-1",
		statuses: []string{GeneratorTaskPending, GeneratorTaskProcessing, GeneratorTaskCompleted},
		result: &GenerationResult{
			Questions: []GeneratedQuestion{
				{Question: "下列哪个选项是线性结构？", Answer: "A"},
				{Question: "判断：栈是先进先出。", Answer: "错误"},
			},
			GenerationTime: 7.5,
		},
	}
	svc := newTestGenerationService(papers, gen, notifier)

	resp, err := svc.SubmitGeneration(context.Background(), 1, defaultGenerateRequest())
	if err != nil {
		t.Fatalf("SubmitGeneration: %v", err)
	}
	if resp.Status != "processing" || resp.Method != model.GenerationMethodAI {
		t.Fatalf("resp = %+v", resp)
	}

	state := papers.waitForTerminal(t, resp.Paper.ID)
	if state.TaskStatus != model.TaskStatusCompleted {
		t.Fatalf("state = %+v", state)
	}
	if state.Method != model.GenerationMethodAI || state.AITaskID != "task-1" {
		t.Fatalf("state = %+v", state)
	}
	if state.GenerationTime != 7.5 {
		t.Fatalf("generationTime = %v", state.GenerationTime)
	}

	// 完成态题目数恰好等于请求数（结果不足时模板补齐）
	count, _ := papers.CountQuestions(resp.Paper.ID)
	if count != 4 {
		t.Fatalf("questions = %d, want 4", count)
	}
}

// 轮询超过次数上限后进入失败终态，不留半成品题目
func TestSubmitGenerationPollTimeout(t *testing.T) {
	papers := newFakePaperStore()
	notifier := &fakeNotifier{}
	gen := &fakeGenerator{
		taskID:   "task-1",
		statuses: []string{GeneratorTaskProcessing},
	}
	svc := newTestGenerationService(papers, gen, notifier)

	resp, err := svc.SubmitGeneration(context.Background(), 1, defaultGenerateRequest())
	if err != nil {
		t.Fatalf("SubmitGeneration: %v", err)
	}

	state := papers.waitForTerminal(t, resp.Paper.ID)
	if state.TaskStatus != model.TaskStatusFailed {
		t.Fatalf("state = %+v", state)
	}
	if state.Error != util.ErrGenerationTimeout.Error() {
		t.Fatalf("error = %q", state.Error)
	}

	count, _ := papers.CountQuestions(resp.Paper.ID)
	if count != 0 {
		t.Fatalf("questions = %d, want 0", count)
	}
}

// 状态查询报错同样计入轮询次数，保证总时长有上界
func TestSubmitGenerationTransientErrorsCountTowardCap(t *testing.T) {
	papers := newFakePaperStore()
	gen := &fakeGenerator{
		taskID:    "task-1",
		statusErr: errors.New("connection reset"),
	}
	svc := newTestGenerationService(papers, gen, &fakeNotifier{})

	resp, err := svc.SubmitGeneration(context.Background(), 1, defaultGenerateRequest())
	if err != nil {
		t.Fatalf("SubmitGeneration: %v", err)
	}

	state := papers.waitForTerminal(t, resp.Paper.ID)
	if state.TaskStatus != model.TaskStatusFailed {
		t.Fatalf("state = %+v", state)
	}

	gen.mu.Lock()
	calls := gen.statusCalls
	gen.mu.Unlock()
	if calls != 5 {
		t.Fatalf("status calls = %d, want 5 (MaxPollAttempts)", calls)
	}
}

// 上游明确失败：错误信息透传到状态元数据
func TestSubmitGenerationUpstreamFailed(t *testing.T) {
	papers := newFakePaperStore()
	gen := &fakeGenerator{
		taskID:      "task-1",
		statuses:    []string{GeneratorTaskFailed},
		upstreamMsg: "model overloaded",
	}
	svc := newTestGenerationService(papers, gen, &fakeNotifier{})

	resp, err := svc.SubmitGeneration(context.Background(), 1, defaultGenerateRequest())
	if err != nil {
		t.Fatalf("SubmitGeneration: %v", err)
	}

	state := papers.waitForTerminal(t, resp.Paper.ID)
	if state.TaskStatus != model.TaskStatusFailed || state.Error != "model overloaded" {
		t.Fatalf("state = %+v", state)
	}
}

func TestQueryGenerationStatusCreatorOnly(t *testing.T) {
	papers := newFakePaperStore()
	svc := newTestGenerationService(papers, &fakeGenerator{submitErr: util.ErrUpstreamUnavailable}, &fakeNotifier{})

	resp, err := svc.SubmitGeneration(context.Background(), 1, defaultGenerateRequest())
	if err != nil {
		t.Fatalf("SubmitGeneration: %v", err)
	}

	if _, err := svc.QueryGenerationStatus(context.Background(), resp.Paper.ID, 2); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}

	status, err := svc.QueryGenerationStatus(context.Background(), resp.Paper.ID, 1)
	if err != nil {
		t.Fatalf("QueryGenerationStatus: %v", err)
	}
	if status.Status != "completed" || status.Method != model.GenerationMethodMock {
		t.Fatalf("status = %+v", status)
	}
	if status.QuestionsGenerated != 4 || status.TotalQuestions != 4 {
		t.Fatalf("status = %+v", status)
	}
}

func TestQueryGenerationStatusNotFound(t *testing.T) {
	svc := newTestGenerationService(newFakePaperStore(), &fakeGenerator{}, &fakeNotifier{})
	if _, err := svc.QueryGenerationStatus(context.Background(), 123, 1); !errors.Is(err, util.ErrPaperNotFound) {
		t.Fatalf("err = %v, want ErrPaperNotFound", err)
	}
}

// 进行中的任务顺带实时查询上游；上游查不到时回落到库中状态
func TestQueryGenerationStatusLiveLookupDegrades(t *testing.T) {
	papers := newFakePaperStore()
	paper := &model.Paper{
		CreatedBy:      1,
		TotalQuestions: 4,
		GenerationMeta: model.GenerationState{
			Method:     model.GenerationMethodAI,
			AITaskID:   "task-1",
			TaskStatus: model.TaskStatusSubmitted,
		}.Encode(),
	}
	if err := papers.Create(paper); err != nil {
		t.Fatal(err)
	}

	gen := &fakeGenerator{statusErr: errors.New("connection reset")}
	svc := newTestGenerationService(papers, gen, &fakeNotifier{})

	status, err := svc.QueryGenerationStatus(context.Background(), paper.ID, 1)
	if err != nil {
		t.Fatalf("QueryGenerationStatus: %v", err)
	}
	if status.Status != "processing" {
		t.Fatalf("status = %+v", status)
	}
	if status.Progress == "" {
		t.Fatal("expected degradation note in progress")
	}
}
