package handler_test

import (
	"errors"
	"testing"

	"github.com/dshills/switchyard/internal/dispatcher/handler"
)

func TestResultStatus(t *testing.T) {
	tests := []struct {
		status   handler.ResultStatus
		expected string
	}{
		{handler.StatusOK, "ok"},
		{handler.StatusNoOp, "no-op"},
		{handler.StatusError, "error"},
		{handler.StatusCancelled, "cancelled"},
		{handler.ResultStatus(99), "unknown"},
	}

	for _, tc := range tests {
		if tc.status.String() != tc.expected {
			t.Errorf("ResultStatus(%d).String() = %q, want %q", tc.status, tc.status.String(), tc.expected)
		}
	}
}

func TestSucceeded(t *testing.T) {
	tests := []struct {
		name   string
		result handler.Result
		want   bool
	}{
		{"success", handler.Success(), true},
		{"noop", handler.NoOp(), true},
		{"error", handler.Error(errors.New("x")), false},
		{"cancelled", handler.Cancelled(), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.result.Succeeded(); got != tc.want {
				t.Errorf("Succeeded() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSuccessWithMessage(t *testing.T) {
	result := handler.SuccessWithMessage("done")

	if !result.IsOK() {
		t.Errorf("expected StatusOK, got %v", result.Status)
	}
	if result.Message != "done" {
		t.Errorf("expected message 'done', got %q", result.Message)
	}
}

func TestErrorf(t *testing.T) {
	result := handler.Errorf("failed: %d", 42)

	if !result.IsError() {
		t.Errorf("expected StatusError, got %v", result.Status)
	}
	if result.Error == nil || result.Error.Error() != "failed: 42" {
		t.Errorf("unexpected error %v", result.Error)
	}
}

func TestFromBool(t *testing.T) {
	if handler.FromBool(true).Status != handler.StatusOK {
		t.Error("FromBool(true) should be OK")
	}
	if handler.FromBool(false).Status != handler.StatusCancelled {
		t.Error("FromBool(false) should be Cancelled")
	}
}

func TestWithDataCopies(t *testing.T) {
	base := handler.SuccessWithData("a", 1)
	derived := base.WithData("b", "two").WithMessage("msg")

	if _, ok := base.GetData("b"); ok {
		t.Error("WithData must not modify the original result")
	}
	if derived.GetDataString("b") != "two" {
		t.Errorf("expected b=two, got %q", derived.GetDataString("b"))
	}
	if v, _ := derived.GetData("a"); v != 1 {
		t.Errorf("expected a=1 to be kept, got %v", v)
	}
	if derived.Message != "msg" {
		t.Errorf("expected message, got %q", derived.Message)
	}
	if handler.Cancelled().GetDataString("missing") != "" {
		t.Error("expected empty string for missing data")
	}
}
