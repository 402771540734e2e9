package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTemporary(t *testing.T) {
	assert.True(t, IsTemporary(&StatusError{Provider: "ollama", Code: 503}))
	assert.True(t, IsTemporary(fmt.Errorf("wrapped: %w", &StatusError{Code: 429})))
	assert.True(t, IsTemporary(context.DeadlineExceeded))
	assert.False(t, IsTemporary(&StatusError{Code: 404}))
	assert.False(t, IsTemporary(errors.New("unmarshal response: bad json")))
}
