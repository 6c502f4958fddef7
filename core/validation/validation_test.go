package validation

import (
	"errors"
	"testing"
)

type signup struct {
	Email string `form:"email" validate:"required,email"`
	Name  string `form:"fullName" validate:"required"`
	Age   int    `validate:"min=18"`
}

func TestStruct(t *testing.T) {
	err := Struct(&signup{Email: "nope", Age: 3})
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if fe["email"] != "Enter a valid email address." {
		t.Errorf("email = %q", fe["email"])
	}
	if fe["fullName"] != "This field is required." {
		t.Errorf("fullName = %q", fe["fullName"])
	}
	if fe["age"] != "Must be at least 18." {
		t.Errorf("age = %q", fe["age"])
	}
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(&signup{Email: "a@b.co", Name: "A", Age: 20}); err != nil {
		t.Errorf("Struct = %v", err)
	}
}

func TestFromError_Other(t *testing.T) {
	fe := FromError(errors.New("boom"), &signup{})
	if fe["_"] == "" {
		t.Errorf("FromError = %v", fe)
	}
}
