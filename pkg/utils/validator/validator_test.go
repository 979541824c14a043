package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ingestProbe struct {
	CollectionName string `json:"collection_name" validate:"required,collectionname"`
	APIKey         string `json:"api_key" validate:"required,nowhitespace"`
	Limit          int    `json:"limit" validate:"omitempty,gt=0"`
}

func TestStructValid(t *testing.T) {
	probe := ingestProbe{
		CollectionName: "knowledge_base.v2",
		APIKey:         "sk-abc123",
		Limit:          10,
	}
	assert.NoError(t, Struct(probe))
}

func TestStructRequiredUsesJSONFieldName(t *testing.T) {
	err := Struct(ingestProbe{APIKey: "sk-abc123"})
	require.Error(t, err)

	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "collection_name", fieldErr.Field)
	assert.Equal(t, "required", fieldErr.Tag)
	assert.Contains(t, fieldErr.Message, "collection_name")
}

func TestCollectionNameRule(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"plain", "documents", true},
		{"with underscore and dot", "app_db.events", true},
		{"digits", "docs2024", true},
		{"sql injection", "docs; DROP TABLE users", false},
		{"spaces", "my docs", false},
		{"quotes", `docs"`, false},
		{"hyphen", "my-docs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidCollectionName(tt.value))

			err := Struct(ingestProbe{CollectionName: tt.value, APIKey: "k"})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNoWhitespaceRule(t *testing.T) {
	err := Struct(ingestProbe{CollectionName: "docs", APIKey: "sk abc"})
	require.Error(t, err)

	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "api_key", fieldErr.Field)
	assert.Equal(t, TagNoWhitespace, fieldErr.Tag)
}

func TestStructLangChinese(t *testing.T) {
	err := Global().StructLang(ingestProbe{APIKey: "k"}, LangZH)
	require.Error(t, err)

	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.NotEmpty(t, fieldErr.Message)
}

func TestTranslateAll(t *testing.T) {
	msgs := Global().TranslateAll(ingestProbe{Limit: -1}, LangEN)
	// collection_name required, api_key required, limit gt
	assert.Len(t, msgs, 3)
}
