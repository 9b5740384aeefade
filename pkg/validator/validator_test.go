package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Email string `json:"email" validate:"required,email"`
	Score int    `json:"score" validate:"min=0,max=100"`
	Role  string `json:"role,omitempty" validate:"omitempty,oneof=Student Mentor"`
}

func TestValidateStructPasses(t *testing.T) {
	require.NoError(t, ValidateStruct(sampleInput{Email: "a@example.com", Score: 50}))
	require.NoError(t, ValidateStruct(sampleInput{Email: "a@example.com", Score: 100, Role: "Mentor"}))
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(sampleInput{Email: "not-an-email", Score: 150, Role: "Wizard"})
	require.Error(t, err)

	var failures ValidationErrors
	require.True(t, errors.As(err, &failures))
	require.Len(t, failures, 3)

	fields := map[string]string{}
	for _, f := range failures {
		fields[f.Field] = f.Tag
	}
	require.Equal(t, "email", fields["email"])
	require.Equal(t, "max", fields["score"])
	require.Equal(t, "oneof", fields["role"])

	require.Contains(t, err.Error(), "score failed on max=100")
}
