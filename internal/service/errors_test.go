package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{400, KindRemoteClient},
		{401, KindRemoteClient},
		{404, KindRemoteClient},
		{499, KindRemoteClient},
		{500, KindRemoteServer},
		{503, KindRemoteServer},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, "", nil)
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.status, err.Status)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestErrorIsSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Validation("add task", "title and details are required"))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrAuthMissing))
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestErrorMessage(t *testing.T) {
	err := WithOp("delete task", FromStatus(404, "task not found", nil))
	assert.Equal(t, "delete task: task not found (404)", err.Error())

	assert.Equal(t, "list tasks: not logged in", AuthMissing("list tasks").Error())
}

func TestWithOpDoesNotMutateOriginal(t *testing.T) {
	orig := FromStatus(500, "boom", nil)
	tagged := WithOp("load", orig)

	assert.Equal(t, "", orig.Op)
	assert.Equal(t, "load", tagged.Op)
	assert.Equal(t, KindRemoteServer, tagged.Kind)
}

func TestWithOpClassifiesForeignErrors(t *testing.T) {
	cause := errors.New("connection refused")
	err := WithOp("list tasks", cause)

	assert.Equal(t, KindNetwork, err.Kind)
	assert.ErrorIs(t, err, cause)
}

func TestUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(FromStatus(401, "", nil)))
	assert.True(t, IsUnauthorized(FromStatus(403, "", nil)))
	assert.False(t, IsUnauthorized(FromStatus(404, "", nil)))
	assert.False(t, IsUnauthorized(errors.New("plain")))
}

func TestTaskIDDecoding(t *testing.T) {
	var tasks []Task
	data := `[{"id":1,"title":"X","details":"Y","completed":false},{"id":"abc","title":"Z","details":"","completed":true}]`
	require.NoError(t, json.Unmarshal([]byte(data), &tasks))
	require.Len(t, tasks, 2)

	assert.Equal(t, ID("1"), tasks[0].ID)
	assert.Equal(t, ID("abc"), tasks[1].ID)
	assert.True(t, tasks[1].Completed)
}

func TestTaskIDDecodingRejectsObjects(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"id":{"nested":true}}`), &task)
	assert.Error(t, err)
}

func TestTaskIDNumericForms(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`1`, "1"},
		{`1.0`, "1"},
		{`1e0`, "1"},
		{`-7`, "-7"},
		{`42E1`, "420"},
		{`1.5`, "1.5"},
		{`"1.0"`, "1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.in), &id))
			assert.Equal(t, tt.want, id)
		})
	}
}
