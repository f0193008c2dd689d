package service

import (
	"fmt"

	"studyshare_backend/internal/model"
)

// 模板题型按固定顺序轮转，同样的入参永远产出同样的试卷
var mockTypeCycle = []string{
	model.QuestionTypeMultipleChoice,
	model.QuestionTypeTrueFalse,
	model.QuestionTypeShortAnswer,
	model.QuestionTypeCalculation,
}

// GenerateMockQuestions 本地模板出题，出题服务不可用时的兜底路径。
// 纯函数：不依赖时钟、随机数或外部状态。
func GenerateMockQuestions(count int, difficulty, language string) []model.PaperQuestion {
	questions := make([]model.PaperQuestion, 0, count)
	for i := 0; i < count; i++ {
		qType := mockTypeCycle[i%len(mockTypeCycle)]
		q := model.PaperQuestion{
			QuestionNumber: i + 1,
			QuestionType:   qType,
			Difficulty:     difficulty,
			Points:         questionPoints(qType),
		}

		switch qType {
		case model.QuestionTypeMultipleChoice:
			if language == "en" {
				q.QuestionText = fmt.Sprintf("Question %d: Which of the following statements about the core concepts of this course is correct?", i+1)
				q.Explanation = "Review the key definitions in the course materials."
			} else {
				q.QuestionText = fmt.Sprintf("第%d题：关于本课程核心概念，下列说法正确的是？", i+1)
				q.Explanation = "请复习课程资料中的关键定义。"
			}
			q.Options = encodeOptions(choiceOptions(nil, language))
			q.CorrectAnswer = "A"
		case model.QuestionTypeTrueFalse:
			if language == "en" {
				q.QuestionText = fmt.Sprintf("Question %d: The fundamental principle covered in this course applies to all the scenarios discussed. True or false?", i+1)
			} else {
				q.QuestionText = fmt.Sprintf("第%d题：判断：本课程讲授的基本原理适用于所讨论的全部场景。", i+1)
			}
			q.Options = encodeOptions(trueFalseOptions(language))
			q.CorrectAnswer = "A"
		case model.QuestionTypeShortAnswer:
			if language == "en" {
				q.QuestionText = fmt.Sprintf("Question %d: Briefly explain one of the key concepts from this course and give an example.", i+1)
				q.CorrectAnswer = "Open-ended; graded on understanding of the concept and the quality of the example."
			} else {
				q.QuestionText = fmt.Sprintf("第%d题：简述本课程中的一个关键概念，并举例说明。", i+1)
				q.CorrectAnswer = "开放题，按概念理解与举例质量评分。"
			}
		default: // calculation
			if language == "en" {
				q.QuestionText = fmt.Sprintf("Question %d: Solve the following problem using the methods introduced in this course, showing all steps.", i+1)
				q.CorrectAnswer = "Full credit requires correct method and complete steps."
			} else {
				q.QuestionText = fmt.Sprintf("第%d题：运用本课程介绍的方法求解下列问题，要求写出完整步骤。", i+1)
				q.CorrectAnswer = "方法正确且步骤完整方可得满分。"
			}
		}
		questions = append(questions, q)
	}
	return questions
}
