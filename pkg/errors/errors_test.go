package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeTemplateNotFound, "no template for %q", "dubai_bike")
	if err.Code != ErrCodeTemplateNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeTemplateNotFound)
	}
	if !strings.Contains(err.Error(), "dubai_bike") {
		t.Errorf("Error message should contain key: %s", err.Error())
	}
	if !strings.Contains(err.Error(), string(ErrCodeTemplateNotFound)) {
		t.Errorf("Error string should contain code: %s", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(ErrCodeAssetLoad, cause, "fetch background")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("Error string should include cause: %s", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeEncode, "webp encode failed")

	if !Is(err, ErrCodeEncode) {
		t.Error("Is should match the error's code")
	}
	if Is(err, ErrCodeUpload) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeEncode) {
		t.Error("Is should not match plain errors")
	}

	// Code survives further wrapping with %w.
	wrapped := fmt.Errorf("generate scene: %w", err)
	if !Is(wrapped, ErrCodeEncode) {
		t.Error("Is should unwrap fmt-wrapped errors")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeUpload, "x")); got != ErrCodeUpload {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeUpload)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode for plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidRegion, "unknown region")
	if got := UserMessage(err); got != "unknown region" {
		t.Errorf("UserMessage = %q, want %q", got, "unknown region")
	}

	plain := stderrors.New("raw failure")
	if got := UserMessage(plain); got != "raw failure" {
		t.Errorf("UserMessage for plain error = %q", got)
	}
}
