package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasModule(t *testing.T) {
	org := &Organization{EnabledModules: []string{"sales", "procurement"}}

	assert.True(t, org.HasModule("sales"))
	assert.True(t, org.HasModule("procurement"))
	assert.False(t, org.HasModule("employee_requests"))
	assert.False(t, org.HasModule(""))
	assert.False(t, org.HasModule("Sales"), "matching is case-sensitive")
	assert.False(t, org.HasModule("sales "))
}

func TestHasModuleEmptySet(t *testing.T) {
	org := &Organization{}
	assert.False(t, org.HasModule("sales"))
}
