package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertOptionsToObjects(t *testing.T) {
	got := ConvertOptionsToObjects([]string{"4", "", "5"})

	assert.Equal(t, []QuestionOption{
		{ID: 0, Text: "4"},
		{ID: 1, Text: "(пустой вариант)"},
		{ID: 2, Text: "5"},
	}, got)
	assert.Empty(t, ConvertOptionsToObjects(nil))
}

func TestDifficultyLabels(t *testing.T) {
	assert.Equal(t, []string{"Very Easy", "Easy", "Medium", "Hard"}, DifficultyLabels())
}
