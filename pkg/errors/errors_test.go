package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeConversion, "invalid literal for boolean: %q", "maybe")
	if !Is(err, ErrCodeConversion) {
		t.Error("Is(err, ErrCodeConversion) = false")
	}
	if GetCode(err) != ErrCodeConversion {
		t.Errorf("GetCode = %v", GetCode(err))
	}
	want := `CONVERSION_ERROR: invalid literal for boolean: "maybe"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Wrap(ErrCodeGeometry, cause, "parse geometry of edge (%d, %d)", 1, 2)

	if !Is(err, ErrCodeGeometry) {
		t.Error("Is(err, ErrCodeGeometry) = false")
	}
	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause lost from the chain")
	}

	// Code checks unwrap through plain fmt wrapping too.
	outer := fmt.Errorf("context: %w", err)
	if !Is(outer, ErrCodeGeometry) {
		t.Error("Is through fmt wrapping = false")
	}
}

func TestGetCodeForeignError(t *testing.T) {
	if GetCode(stderrors.New("plain")) != "" {
		t.Error("GetCode of a foreign error should be empty")
	}
	if Is(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("Is of a foreign error should be false")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidArgument, "pass exactly one of Path or XML")
	if got := UserMessage(err); got != "pass exactly one of Path or XML" {
		t.Errorf("UserMessage = %q", got)
	}
	plain := stderrors.New("plain")
	if UserMessage(plain) != "plain" {
		t.Errorf("UserMessage of foreign error = %q", UserMessage(plain))
	}
}
