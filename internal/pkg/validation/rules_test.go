package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

type sample struct {
	Title    string   `json:"title" binding:"required"`
	Duration int      `json:"durationMinutes" binding:"required,min=1"`
	Students []string `json:"studentIds" binding:"required,min=1"`
}

func TestFromBindingError_ValidationFields(t *testing.T) {
	RegisterJSONTagNames()

	err := binding.Validator.ValidateStruct(&sample{Students: []string{}})
	require.Error(t, err)

	converted := FromBindingError(err)
	var verr *apperrors.ValidationError
	require.True(t, errors.As(converted, &verr))
	assert.ErrorIs(t, converted, apperrors.ErrValidationFailed)

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "title is required", fields["title"])
	assert.Contains(t, fields, "durationMinutes")
	assert.Contains(t, fields, "studentIds")
}

func TestFromBindingError_Malformed(t *testing.T) {
	err := FromBindingError(errors.New("unexpected EOF"))
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.Nil(t, FromBindingError(nil))
}

func TestValidateGrade(t *testing.T) {
	assert.NoError(t, ValidateGrade(0, 100))
	assert.NoError(t, ValidateGrade(100, 100))
	assert.NoError(t, ValidateGrade(42.5, 100))

	for _, g := range []float64{-1, 100.5, math.NaN(), math.Inf(1)} {
		err := ValidateGrade(g, 100)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "grade %v", g)
	}
}

func TestRequireNonEmpty(t *testing.T) {
	assert.ErrorIs(t, RequireNonEmpty("studentIds", 0), apperrors.ErrValidationFailed)
	assert.NoError(t, RequireNonEmpty("studentIds", 2))
}
