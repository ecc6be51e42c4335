package validation

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSlug(t *testing.T) {
	valid := []string{"intro-to-go", "webinar2026", "a", "k8s-101-basics"}
	invalid := []string{"", "Intro", "double--hyphen", "-leading", "trailing-", "with space", "under_score", strings.Repeat("a", MaxSlugLength+1)}

	for _, s := range valid {
		assert.True(t, IsSlug(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsSlug(s), s)
	}
}

func TestRegister(t *testing.T) {
	v := validator.New()
	Register(v)

	type query struct {
		WebinarID string `form:"webinarId" binding:"required,uuid" validate:"required,uuid"`
		Slug      string `uri:"slug" validate:"required,slug"`
	}

	err := v.Struct(query{WebinarID: "not-a-uuid", Slug: "ok-slug"})
	require.Error(t, err)
	assert.Equal(t, "webinarId must be a valid UUID", Message(err))

	err = v.Struct(query{WebinarID: "0b8d4f3e-6a1c-4c61-9f0e-3d5c6b7a8e90", Slug: "Bad Slug"})
	require.Error(t, err)
	assert.Equal(t, "slug must be a valid slug", Message(err))

	err = v.Struct(query{Slug: "ok"})
	require.Error(t, err)
	assert.Equal(t, "webinarId is required", Message(err))

	assert.NoError(t, v.Struct(query{WebinarID: "0b8d4f3e-6a1c-4c61-9f0e-3d5c6b7a8e90", Slug: "ok"}))
}
