package validate

import (
	"errors"
	"testing"

	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	ImageID     string `json:"image_id,omitempty" validate:"omitempty,uuid"`
}

func TestStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		in        sample
		wantField string
		wantMsg   string
	}{
		{name: "valid", in: sample{PhoneNumber: "1"}},
		{name: "missing", in: sample{}, wantField: "phone_number", wantMsg: MsgRequired},
		{name: "bad uuid", in: sample{PhoneNumber: "1", ImageID: "nope"}, wantField: "image_id", wantMsg: MsgUUID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(v, tt.in)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var fe *errs.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantField, fe.Field)
			assert.Equal(t, tt.wantMsg, fe.Message)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}
