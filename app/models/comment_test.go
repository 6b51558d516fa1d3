package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommentValidation(t *testing.T) {
	tests := []struct {
		name    string
		comment *Comment
		wantErr bool
	}{
		{
			name:    "valid comment",
			comment: &Comment{PostID: 1, AuthorID: 1, Text: "This is a valid comment"},
			wantErr: false,
		},
		{
			name:    "empty text",
			comment: &Comment{PostID: 1, AuthorID: 1, Text: ""},
			wantErr: true,
		},
		{
			name:    "blank text",
			comment: &Comment{PostID: 1, AuthorID: 1, Text: "   "},
			wantErr: true,
		},
		{
			name:    "missing post",
			comment: &Comment{AuthorID: 1, Text: "Valid content"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.comment.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommentStampCreated(t *testing.T) {
	comment := &Comment{PostID: 1, AuthorID: 1, Text: "Test Comment"}

	assert.True(t, comment.Created.IsZero())
	comment.StampCreated()
	assert.False(t, comment.Created.IsZero())
}

func TestCommentString(t *testing.T) {
	comment := &Comment{Text: "Комментарий длиннее пятнадцати символов"}
	assert.Equal(t, "Комментарий дли", comment.String())

	short := &Comment{Text: "ok"}
	assert.Equal(t, "ok", short.String())
}
