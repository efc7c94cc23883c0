package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodoItem_JSONShape(t *testing.T) {
	item := TodoItem{
		UserID:    "google-oauth2|123",
		TodoID:    "5a3e",
		CreatedAt: "2024-01-01T10:00:00.000Z",
		Name:      "Buy milk",
	}

	raw, err := json.Marshal(item)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, false, fields["done"])
	assert.Equal(t, "", fields["dueDate"])
	assert.NotContains(t, fields, "attachmentUrl")
	assert.Contains(t, fields, "userId")
	assert.Contains(t, fields, "todoId")
}

func TestNormalize(t *testing.T) {
	create := CreateTodoRequest{Name: "  Buy milk \n", DueDate: " 2024-01-01 "}
	create.Normalize()
	assert.Equal(t, "Buy milk", create.Name)
	assert.Equal(t, "2024-01-01", create.DueDate)

	update := UpdateTodoRequest{Name: "\t", Done: true}
	update.Normalize()
	assert.Empty(t, update.Name)
	assert.True(t, update.Done)
}
