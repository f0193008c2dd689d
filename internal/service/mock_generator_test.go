package service

import (
	"reflect"
	"strings"
	"testing"

	"studyshare_backend/internal/model"
)

func TestGenerateMockQuestionsCount(t *testing.T) {
	for _, count := range []int{1, 4, 10} {
		questions := GenerateMockQuestions(count, "medium", "zh")
		if len(questions) != count {
			t.Fatalf("count %d: got %d questions", count, len(questions))
		}
		for i, q := range questions {
			if q.QuestionNumber != i+1 {
				t.Fatalf("question numbers not contiguous: %d at index %d", q.QuestionNumber, i)
			}
			if q.QuestionText == "" || q.CorrectAnswer == "" {
				t.Fatalf("question %d incomplete: %+v", i+1, q)
			}
			if q.Difficulty != "medium" {
				t.Fatalf("question %d difficulty = %q", i+1, q.Difficulty)
			}
		}
	}
}

func TestGenerateMockQuestionsTypeCycle(t *testing.T) {
	questions := GenerateMockQuestions(8, "easy", "zh")
	wantCycle := []string{
		model.QuestionTypeMultipleChoice,
		model.QuestionTypeTrueFalse,
		model.QuestionTypeShortAnswer,
		model.QuestionTypeCalculation,
	}
	for i, q := range questions {
		if q.QuestionType != wantCycle[i%len(wantCycle)] {
			t.Fatalf("question %d type = %q, want %q", i+1, q.QuestionType, wantCycle[i%len(wantCycle)])
		}
	}

	// 选择与判断必须带选项，其余不带
	for _, q := range questions {
		hasOptions := len(q.Options) > 0
		needsOptions := q.QuestionType == model.QuestionTypeMultipleChoice ||
			q.QuestionType == model.QuestionTypeTrueFalse
		if hasOptions != needsOptions {
			t.Fatalf("type %q options mismatch", q.QuestionType)
		}
	}
}

func TestGenerateMockQuestionsDeterministic(t *testing.T) {
	a := GenerateMockQuestions(6, "hard", "en")
	b := GenerateMockQuestions(6, "hard", "en")
	if !reflect.DeepEqual(a, b) {
		t.Fatal("mock generation is not deterministic")
	}
}

func TestGenerateMockQuestionsLanguage(t *testing.T) {
	zh := GenerateMockQuestions(4, "medium", "zh")
	for _, q := range zh {
		if !strings.Contains(q.QuestionText, "题") {
			t.Fatalf("zh question looks wrong: %q", q.QuestionText)
		}
	}

	en := GenerateMockQuestions(4, "medium", "en")
	for _, q := range en {
		if !strings.HasPrefix(q.QuestionText, "Question ") {
			t.Fatalf("en question looks wrong: %q", q.QuestionText)
		}
	}
}
