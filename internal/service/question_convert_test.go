package service

import (
	"encoding/json"
	"testing"

	"studyshare_backend/internal/model"
)

func TestInferQuestionType(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"下列哪个选项描述了栈的特性？", model.QuestionTypeMultipleChoice},
		{"关于二叉树，请选择正确的说法", model.QuestionTypeMultipleChoice},
		{"Which of the following is a sorting algorithm?", model.QuestionTypeMultipleChoice},
		{"Select the correct definition of recursion.", model.QuestionTypeMultipleChoice},
		{"判断：快速排序是稳定排序。", model.QuestionTypeTrueFalse},
		{"下述说法是否正确：TCP 是无连接协议。", model.QuestionTypeTrueFalse},
		{"True or false: HTTP is stateless.", model.QuestionTypeTrueFalse},
		{"简述操作系统中进程与线程的区别。", model.QuestionTypeShortAnswer},
		{"Explain the CAP theorem.", model.QuestionTypeShortAnswer},
		{"", model.QuestionTypeShortAnswer},
	}

	for _, tc := range cases {
		if got := InferQuestionType(tc.text); got != tc.want {
			t.Errorf("InferQuestionType(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestNormalizeChoiceAnswer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"A", "A"},
		{" b ", "B"},
		{"C. 栈", "C"},
		{"d", "D"},
		{"E", "A"},
		{"", "A"},
		{"正确答案未知", "A"},
	}
	for _, tc := range cases {
		if got := normalizeChoiceAnswer(tc.in); got != tc.want {
			t.Errorf("normalizeChoiceAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeBooleanAnswer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"true", "A"},
		{"True story", "A"},
		{"正确", "A"},
		{"对", "A"},
		{"yes", "A"},
		{"false", "B"},
		{"错误", "B"},
		{"no", "B"},
		{"B", "B"},
		{"完全看不懂", "A"},
	}
	for _, tc := range cases {
		if got := normalizeBooleanAnswer(tc.in); got != tc.want {
			t.Errorf("normalizeBooleanAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestConvertGeneratedQuestionsChoiceScaffold(t *testing.T) {
	generated := []GeneratedQuestion{
		{Question: "下列哪个选项是线性结构？", Answer: "b"},
	}
	questions := ConvertGeneratedQuestions(generated, 1, "medium", "zh")
	if len(questions) != 1 {
		t.Fatalf("len = %d, want 1", len(questions))
	}

	q := questions[0]
	if q.QuestionType != model.QuestionTypeMultipleChoice {
		t.Fatalf("type = %q", q.QuestionType)
	}
	if q.CorrectAnswer != "B" {
		t.Fatalf("answer = %q, want B", q.CorrectAnswer)
	}

	var opts []QuestionOption
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		t.Fatalf("options decode: %v", err)
	}
	if len(opts) != 4 {
		t.Fatalf("options len = %d, want 4", len(opts))
	}
	for i, key := range []string{"A", "B", "C", "D"} {
		if opts[i].Key != key {
			t.Fatalf("option[%d].Key = %q, want %q", i, opts[i].Key, key)
		}
		if opts[i].Text == "" {
			t.Fatalf("option[%d] has empty text", i)
		}
	}
}

func TestConvertGeneratedQuestionsTrueFalse(t *testing.T) {
	generated := []GeneratedQuestion{
		{Question: "判断：哈希表查找平均时间复杂度为 O(1)。", Answer: "正确"},
	}
	questions := ConvertGeneratedQuestions(generated, 1, "medium", "zh")

	q := questions[0]
	if q.QuestionType != model.QuestionTypeTrueFalse {
		t.Fatalf("type = %q", q.QuestionType)
	}
	if q.CorrectAnswer != "A" {
		t.Fatalf("answer = %q, want A", q.CorrectAnswer)
	}

	var opts []QuestionOption
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		t.Fatalf("options decode: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("options len = %d, want 2", len(opts))
	}
}

// 转换永不失败：字段全缺也要产出可持久化的题目
func TestConvertGeneratedQuestionsDefaults(t *testing.T) {
	generated := []GeneratedQuestion{
		{},
		{Question: "简述 B+ 树相对 B 树的优势。"},
	}
	questions := ConvertGeneratedQuestions(generated, 2, "hard", "zh")
	if len(questions) != 2 {
		t.Fatalf("len = %d, want 2", len(questions))
	}

	for i, q := range questions {
		if q.QuestionNumber != i+1 {
			t.Fatalf("question %d number = %d", i, q.QuestionNumber)
		}
		if q.QuestionText == "" {
			t.Fatalf("question %d has empty text", i)
		}
		if q.CorrectAnswer == "" {
			t.Fatalf("question %d has empty answer", i)
		}
		if q.Difficulty != "hard" {
			t.Fatalf("question %d difficulty = %q", i, q.Difficulty)
		}
		if q.Points < 1 {
			t.Fatalf("question %d points = %d", i, q.Points)
		}
	}
}

// 题量不匹配：超出截断，不足用模板补齐，最终恰好等于 total
func TestConvertGeneratedQuestionsCount(t *testing.T) {
	over := make([]GeneratedQuestion, 8)
	for i := range over {
		over[i] = GeneratedQuestion{Question: "简述一个概念。", Answer: "略"}
	}
	if got := ConvertGeneratedQuestions(over, 5, "medium", "zh"); len(got) != 5 {
		t.Fatalf("truncate: len = %d, want 5", len(got))
	}

	under := []GeneratedQuestion{{Question: "简述一个概念。", Answer: "略"}}
	got := ConvertGeneratedQuestions(under, 4, "medium", "zh")
	if len(got) != 4 {
		t.Fatalf("pad: len = %d, want 4", len(got))
	}
	for i, q := range got {
		if q.QuestionNumber != i+1 {
			t.Fatalf("question numbers not contiguous: %d at index %d", q.QuestionNumber, i)
		}
	}
}
