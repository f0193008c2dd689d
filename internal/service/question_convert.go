package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"studyshare_backend/internal/model"
)

// QuestionOption 题目选项的持久化形式
type QuestionOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

func encodeOptions(opts []QuestionOption) json.RawMessage {
	raw, err := json.Marshal(opts)
	if err != nil {
		return nil
	}
	return raw
}

// InferQuestionType 按题干关键词推断题型。启发式、有损，推断不出时一律按简答处理。
func InferQuestionType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "选择") ||
		strings.Contains(text, "下列哪") ||
		strings.Contains(text, "以下哪") ||
		strings.Contains(lower, "choice") ||
		strings.Contains(lower, "which of the following") ||
		strings.Contains(lower, "select the"):
		return model.QuestionTypeMultipleChoice
	case strings.Contains(text, "判断") ||
		strings.Contains(text, "对错") ||
		strings.Contains(text, "是否正确") ||
		strings.Contains(lower, "true or false") ||
		strings.Contains(lower, "true/false"):
		return model.QuestionTypeTrueFalse
	default:
		return model.QuestionTypeShortAnswer
	}
}

// choiceOptions 生成服务未给出选项时的四选项占位
func choiceOptions(provided []string, language string) []QuestionOption {
	keys := []string{"A", "B", "C", "D"}
	opts := make([]QuestionOption, 0, 4)
	for i, key := range keys {
		text := ""
		if i < len(provided) {
			text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(provided[i]), key+"."))
		}
		if text == "" {
			if language == "en" {
				text = fmt.Sprintf("Option %s", key)
			} else {
				text = fmt.Sprintf("选项%s", key)
			}
		}
		opts = append(opts, QuestionOption{Key: key, Text: text})
	}
	return opts
}

func trueFalseOptions(language string) []QuestionOption {
	if language == "en" {
		return []QuestionOption{
			{Key: "A", Text: "True"},
			{Key: "B", Text: "False"},
		}
	}
	return []QuestionOption{
		{Key: "A", Text: "正确"},
		{Key: "B", Text: "错误"},
	}
}

// normalizeChoiceAnswer 把各种写法的答案收敛到 A-D
func normalizeChoiceAnswer(answer string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(answer))
	if trimmed == "" {
		return "A"
	}
	first := trimmed[:1]
	if first >= "A" && first <= "D" {
		return first
	}
	return "A"
}

// normalizeBooleanAnswer 布尔类答案收敛到 A（正确）/ B（错误）
func normalizeBooleanAnswer(answer string) string {
	trimmed := strings.ToLower(strings.TrimSpace(answer))
	switch trimmed {
	case "a", "true", "t", "yes", "y", "正确", "对", "是":
		return "A"
	case "b", "false", "f", "no", "n", "错误", "错", "否":
		return "B"
	}
	if strings.HasPrefix(trimmed, "true") || strings.HasPrefix(trimmed, "正确") {
		return "A"
	}
	if strings.HasPrefix(trimmed, "false") || strings.HasPrefix(trimmed, "错误") {
		return "B"
	}
	return "A"
}

func normalizeDifficulty(difficulty, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "easy", "简单":
		return "easy"
	case "medium", "中等":
		return "medium"
	case "hard", "困难":
		return "hard"
	}
	return fallback
}

func questionPoints(questionType string) int {
	switch questionType {
	case model.QuestionTypeMultipleChoice, model.QuestionTypeTrueFalse:
		return 1
	default:
		return 2
	}
}

// ConvertGeneratedQuestions 把生成服务的结果转换为可持久化的题目列表。
// 转换是有损且不抛错的：每个字段缺失都有默认值，题量超出 total 时截断，
// 不足时用本地模板补齐，保证完成态的题目数恰好等于 total。
func ConvertGeneratedQuestions(generated []GeneratedQuestion, total int, difficulty, language string) []model.PaperQuestion {
	questions := make([]model.PaperQuestion, 0, total)
	for i, g := range generated {
		if len(questions) >= total {
			break
		}
		text := strings.TrimSpace(g.Question)
		if text == "" {
			if language == "en" {
				text = fmt.Sprintf("Question %d", i+1)
			} else {
				text = fmt.Sprintf("第%d题", i+1)
			}
		}

		qType := InferQuestionType(text)
		q := model.PaperQuestion{
			QuestionNumber: len(questions) + 1,
			QuestionType:   qType,
			QuestionText:   text,
			Difficulty:     normalizeDifficulty(g.Difficulty, difficulty),
			Points:         questionPoints(qType),
		}

		switch qType {
		case model.QuestionTypeMultipleChoice:
			q.Options = encodeOptions(choiceOptions(g.Options, language))
			q.CorrectAnswer = normalizeChoiceAnswer(g.Answer)
		case model.QuestionTypeTrueFalse:
			q.Options = encodeOptions(trueFalseOptions(language))
			q.CorrectAnswer = normalizeBooleanAnswer(g.Answer)
		default:
			q.CorrectAnswer = strings.TrimSpace(g.Answer)
			if q.CorrectAnswer == "" {
				if language == "en" {
					q.CorrectAnswer = "See course materials."
				} else {
					q.CorrectAnswer = "参考课程资料。"
				}
			}
		}
		if g.Topic != "" {
			q.Explanation = g.Topic
		}
		questions = append(questions, q)
	}

	// 不足部分用模板题补齐
	if len(questions) < total {
		filler := GenerateMockQuestions(total-len(questions), difficulty, language)
		for i := range filler {
			filler[i].QuestionNumber = len(questions) + i + 1
		}
		questions = append(questions, filler...)
	}
	return questions
}
