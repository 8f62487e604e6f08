package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/molscore/pkg/errors"
)

func TestRunRecord_Prefix(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))
	rec := RunRecord{RequestID: "r-1", At: at}
	assert.Equal(t, "runs/2024-03-10/r-1", rec.Prefix())

	rec.RunID = "0b5e"
	assert.Equal(t, "runs/2024-03-10/r-1/0b5e", rec.Prefix())
}

func TestValidRequestID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"r-1", true},
		{"3f2a9c1e-7d4b-4c55-9a0e-1b2c3d4e5f60", true},
		{"batch_7.run", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../../models/x", false},
		{"a/b", false},
		{"-leading", false},
		{"has space", false},
		{string(make([]byte, 200)), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidRequestID(tt.id), "%q", tt.id)
	}
}

func TestRunRecord_Validate(t *testing.T) {
	assert.NoError(t, RunRecord{RequestID: "r-1", RunID: "abc"}.Validate())
	assert.NoError(t, RunRecord{RequestID: "r-1"}.Validate())

	for _, rec := range []RunRecord{
		{},
		{RequestID: "../../../etc"},
		{RequestID: "r-1", RunID: "../x"},
	} {
		err := rec.Validate()
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidation), "%+v", rec)
	}
}

//Personal.AI order the ending
