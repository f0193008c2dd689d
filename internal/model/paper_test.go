package model

import (
	"encoding/json"
	"testing"
)

func TestDecodeGenerationStateObject(t *testing.T) {
	raw := json.RawMessage(`{"method":"ai","aiTaskId":"task-1","taskStatus":"submitted","sourceMaterials":[1,2]}`)
	state := DecodeGenerationState(raw)

	if state.Method != GenerationMethodAI {
		t.Fatalf("method = %q, want ai", state.Method)
	}
	if state.AITaskID != "task-1" {
		t.Fatalf("aiTaskId = %q, want task-1", state.AITaskID)
	}
	if state.TaskStatus != TaskStatusSubmitted {
		t.Fatalf("taskStatus = %q, want submitted", state.TaskStatus)
	}
	if len(state.SourceMaterials) != 2 || state.SourceMaterials[0] != 1 {
		t.Fatalf("sourceMaterials = %v", state.SourceMaterials)
	}
}

// 旧版后端把整个对象再包了一层字符串编码，读取侧必须兼容
func TestDecodeGenerationStateLegacyDoubleEncoded(t *testing.T) {
	inner := GenerationState{
		Method:     GenerationMethodMock,
		TaskStatus: TaskStatusCompleted,
	}
	innerRaw, err := json.Marshal(inner)
	if err != nil {
		t.Fatal(err)
	}
	outer, err := json.Marshal(string(innerRaw))
	if err != nil {
		t.Fatal(err)
	}

	state := DecodeGenerationState(outer)
	if state.Method != GenerationMethodMock {
		t.Fatalf("method = %q, want mock", state.Method)
	}
	if state.TaskStatus != TaskStatusCompleted {
		t.Fatalf("taskStatus = %q, want completed", state.TaskStatus)
	}
}

func TestDecodeGenerationStateMalformed(t *testing.T) {
	cases := []json.RawMessage{
		nil,
		json.RawMessage(``),
		json.RawMessage(`not json`),
		json.RawMessage(`"not even inner json"`),
		json.RawMessage(`42`),
	}
	for _, raw := range cases {
		state := DecodeGenerationState(raw)
		if state.TaskStatus != "" || state.Method != "" {
			t.Fatalf("DecodeGenerationState(%q) = %+v, want zero value", raw, state)
		}
	}
}

func TestGenerationStateEncodeRoundTrip(t *testing.T) {
	orig := GenerationState{
		Method:          GenerationMethodAI,
		AITaskID:        "task-9",
		TaskStatus:      TaskStatusFailed,
		Error:           "题目生成任务超时",
		SourceMaterials: []uint{3},
	}
	state := DecodeGenerationState(orig.Encode())
	if state.Method != orig.Method || state.AITaskID != orig.AITaskID ||
		state.TaskStatus != orig.TaskStatus || state.Error != orig.Error {
		t.Fatalf("round trip mismatch: %+v", state)
	}
	if len(state.SourceMaterials) != 1 || state.SourceMaterials[0] != 3 {
		t.Fatalf("sourceMaterials = %v, want [3]", state.SourceMaterials)
	}
}
