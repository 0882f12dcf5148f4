package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Stage       string          `json:"stage" validate:"required,stage"`
	QCStatus    string          `json:"qc_status" validate:"omitempty,qc_status"`
	Meters      decimal.Decimal `json:"meters" validate:"gte=0"`
	Phone       string          `json:"phone" validate:"omitempty,phone"`
	Permissions []string        `json:"permissions" validate:"dive,permission"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{"valid", sample{Stage: "dyeing", QCStatus: "pass", Meters: decimal.NewFromInt(10), Phone: "+91 98765 43210", Permissions: []string{"production:read"}}, ""},
		{"missing stage", sample{}, "stage is required"},
		{"unknown stage", sample{Stage: "weaving"}, "stage must be a known production stage"},
		{"bad qc status", sample{Stage: "dyeing", QCStatus: "ok"}, "qc_status must be one of pass, fail, partial"},
		{"negative meters", sample{Stage: "dyeing", Meters: decimal.NewFromInt(-1)}, "meters must be greater than or equal to 0"},
		{"bad phone", sample{Stage: "dyeing", Phone: "12"}, "phone must be a valid phone number"},
		{"unknown permission", sample{Stage: "dyeing", Permissions: []string{"root"}}, "permissions[0] contains an unknown permission"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, Message(err))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("098765 43210")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", got)

	got, err = NormalizePhone("+44 20 7946 0958")
	require.NoError(t, err)
	assert.Equal(t, "+442079460958", got)

	_, err = NormalizePhone("not a phone")
	assert.Error(t, err)
}
