package model

import (
	"encoding/json"
)

// 生成任务的终态与中间态
const (
	TaskStatusSubmitted = "submitted"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// 生成方式
const (
	GenerationMethodAI   = "ai"
	GenerationMethodMock = "mock"
)

// 题型
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
	QuestionTypeShortAnswer    = "short_answer"
	QuestionTypeCalculation    = "calculation"
)

// GenerationState 试卷生成状态元数据，整体序列化进 generated_papers.generation_metadata。
// 一张试卷同一时刻至多一个生成中的任务。
type GenerationState struct {
	Method          string  `json:"method,omitempty"` // ai | mock
	AITaskID        string  `json:"aiTaskId,omitempty"`
	TaskStatus      string  `json:"taskStatus"` // submitted | completed | failed
	GenerationTime  float64 `json:"generationTime,omitempty"`
	Error           string  `json:"error,omitempty"`
	SourceMaterials []uint  `json:"sourceMaterials,omitempty"`
}

func (s GenerationState) Encode() json.RawMessage {
	raw, err := json.Marshal(s)
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}

// DecodeGenerationState 容错解析历史元数据。旧版 Express 后端把整个对象再包了一层
// 字符串编码，这里统一在读取侧兼容，写入侧只产出结构化形式。
func DecodeGenerationState(raw json.RawMessage) GenerationState {
	var state GenerationState
	if len(raw) == 0 {
		return state
	}
	if err := json.Unmarshal(raw, &state); err == nil {
		return state
	}
	var legacy string
	if err := json.Unmarshal(raw, &legacy); err == nil {
		_ = json.Unmarshal([]byte(legacy), &state)
	}
	return state
}

// swagger:model Paper
type Paper struct {
	BaseModel
	CourseID        uint            `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	CreatedBy       uint            `gorm:"index;type:bigint unsigned;not null" json:"createdBy"`
	Title           string          `gorm:"size:255;not null" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	DifficultyLevel string          `gorm:"size:20;default:'medium'" json:"difficultyLevel"`
	TotalQuestions  int             `gorm:"not null" json:"totalQuestions"`
	EstimatedTime   int             `gorm:"default:0" json:"estimatedTime"` // 分钟
	Language        string          `gorm:"size:10;default:'zh'" json:"language"`
	IsPublic        bool            `gorm:"default:false" json:"isPublic"`
	SourceMaterials json.RawMessage `gorm:"type:json" json:"sourceMaterials,omitempty"`
	GenerationMeta  json.RawMessage `gorm:"column:generation_metadata;type:json" json:"generationMetadata,omitempty"`
	ViewCount       int             `gorm:"default:0" json:"viewCount"`
	DownloadCount   int             `gorm:"default:0" json:"downloadCount"`
	LikeCount       int             `gorm:"default:0" json:"likeCount"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Paper) TableName() string {
	return "generated_papers"
}

// GenerationState 解析当前生成状态，永不失败
func (p *Paper) GenerationState() GenerationState {
	return DecodeGenerationState(p.GenerationMeta)
}

type PaperQuestion struct {
	BaseModel
	PaperID        uint            `gorm:"uniqueIndex:idx_paper_qnum;type:bigint unsigned;not null" json:"paperId"`
	QuestionNumber int             `gorm:"uniqueIndex:idx_paper_qnum;not null" json:"questionNumber"`
	QuestionType   string          `gorm:"size:50;not null" json:"questionType"`
	QuestionText   string          `gorm:"type:text;not null" json:"questionText"`
	Options        json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	CorrectAnswer  string          `gorm:"type:text" json:"correctAnswer"`
	Explanation    string          `gorm:"type:text" json:"explanation"`
	Points         int             `gorm:"default:1" json:"points"`
	Difficulty     string          `gorm:"size:20;default:'medium'" json:"difficulty"`
}

func (PaperQuestion) TableName() string {
	return "paper_questions"
}
