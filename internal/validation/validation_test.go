package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type sample struct {
	Name   string          `json:"name" validate:"required,max=5"`
	Rating int             `json:"rating" validate:"gte=1,lte=5"`
	Price  decimal.Decimal `json:"price" validate:"gte=0"`
	Inner  inner           `json:"inner"`
}

type inner struct {
	City string `json:"city" validate:"required"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		input  sample
		fields []string
	}{
		{
			name:  "valid",
			input: sample{Name: "ok", Rating: 3, Price: decimal.NewFromInt(10), Inner: inner{City: "Pune"}},
		},
		{
			name:   "missing name",
			input:  sample{Rating: 3, Inner: inner{City: "Pune"}},
			fields: []string{"name"},
		},
		{
			name:   "rating out of range",
			input:  sample{Name: "ok", Rating: 6, Inner: inner{City: "Pune"}},
			fields: []string{"rating"},
		},
		{
			name:   "negative decimal",
			input:  sample{Name: "ok", Rating: 1, Price: decimal.NewFromFloat(-0.5), Inner: inner{City: "Pune"}},
			fields: []string{"price"},
		},
		{
			name:   "nested field uses json path",
			input:  sample{Name: "ok", Rating: 1},
			fields: []string{"inner.city"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}

			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Struct() error = %v, want *Error", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Fatalf("fields = %+v, want %v", verr.Fields, tt.fields)
			}
			for i, f := range tt.fields {
				if verr.Fields[i].Field != f {
					t.Fatalf("field[%d] = %q, want %q", i, verr.Fields[i].Field, f)
				}
			}
		})
	}
}

func TestFail(t *testing.T) {
	err := Fail("numOfReviews", "must equal the number of reviews")
	if err.Error() != "numOfReviews must equal the number of reviews" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
