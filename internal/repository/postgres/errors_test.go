package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name:       "matching_constraint",
			err:        &pq.Error{Code: "23505", Constraint: adminUsernameConstraint},
			constraint: adminUsernameConstraint,
			want:       true,
		},
		{
			name:       "any_constraint",
			err:        &pq.Error{Code: "23505", Constraint: adminEmailConstraint},
			constraint: "",
			want:       true,
		},
		{
			name:       "different_constraint",
			err:        &pq.Error{Code: "23505", Constraint: adminEmailConstraint},
			constraint: adminUsernameConstraint,
			want:       false,
		},
		{
			name:       "foreign_key_violation",
			err:        &pq.Error{Code: "23503", Constraint: "sessions_admin_id_fkey"},
			constraint: "sessions_admin_id_fkey",
			want:       false,
		},
		{
			name:       "wrapped_pq_error",
			err:        fmt.Errorf("failed to create admin: %w", &pq.Error{Code: "23505", Constraint: adminUsernameConstraint}),
			constraint: adminUsernameConstraint,
			want:       true,
		},
		{
			name:       "not_pq_error",
			err:        errors.New("some other error"),
			constraint: adminUsernameConstraint,
			want:       false,
		},
		{
			name: "nil_error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err, tt.constraint))
		})
	}
}

func TestIsInvalidText(t *testing.T) {
	assert.True(t, IsInvalidText(&pq.Error{Code: "22P02"}))
	assert.True(t, IsInvalidText(fmt.Errorf("failed to get contact: %w", &pq.Error{Code: "22P02"})))
	assert.False(t, IsInvalidText(&pq.Error{Code: "23505"}))
	assert.False(t, IsInvalidText(errors.New("boom")))
	assert.False(t, IsInvalidText(nil))
}
