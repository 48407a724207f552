package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBaseModel_BeforeCreateAndForget(t *testing.T) {
	var b Brand
	assert.NoError(t, b.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, b.ID)

	id := b.ID
	assert.NoError(t, b.BeforeCreate(nil))
	assert.Equal(t, id, b.ID, "existing ids are kept")

	var row Identified = &b
	row.Forget()
	assert.Equal(t, uuid.Nil, b.ID)
}

func TestParseHelpers(t *testing.T) {
	g, ok := ParseGender("women")
	assert.True(t, ok)
	assert.Equal(t, GenderWomen, g)

	_, ok = ParseGender("kids")
	assert.False(t, ok)

	assert.Equal(t, NoteBase, ParseNoteType("base"))
	assert.Equal(t, NoteMiddle, ParseNoteType("heart"))
}
