package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEntity(t *testing.T) {
	entity := NewBaseEntity()

	assert.NotEqual(t, uuid.Nil, entity.ID)
	assert.False(t, entity.CreatedAt.IsZero())
	assert.Equal(t, entity.CreatedAt, entity.UpdatedAt)
	assert.Equal(t, entity.ID, entity.GetID())
}

func TestBaseEntityTouch(t *testing.T) {
	entity := NewBaseEntity()
	entity.UpdatedAt = time.Now().Add(-time.Hour)
	before := entity.UpdatedAt

	entity.Touch()

	assert.True(t, entity.UpdatedAt.After(before))
	assert.Equal(t, entity.UpdatedAt, entity.GetUpdatedAt())
}
