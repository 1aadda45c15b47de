package retry_test

import (
	"errors"
	"fmt"
	"frame-differencer/internal/retry"
	"io"
	"net"
	"net/http"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOn_CheckResponse(t *testing.T) {
	type in struct {
		retryOn string
		status  int
	}

	type want struct {
		retry bool
	}

	tests := []struct {
		name string
		in   in
		want want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{"5xx", http.StatusInternalServerError},
			want{true},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{"5xx", http.StatusUnprocessableEntity},
			want{false},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{"gateway-error", http.StatusGatewayTimeout},
			want{true},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{"gateway-error", http.StatusInternalServerError},
			want{false},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{"retriable-4xx", http.StatusTooManyRequests},
			want{true},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{"retriable-4xx", http.StatusNotFound},
			want{false},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{" connect-failure , 413 ", http.StatusRequestEntityTooLarge},
			want{true},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{retry.DefaultRetryOn, http.StatusUnprocessableEntity},
			want{false},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{"", http.StatusServiceUnavailable},
			want{false},
		},
	}
	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			o, err := retry.NewRetryOnFromString(in.retryOn)
			if err != nil {
				t.Fatal(err)
			}
			got := o.CheckResponse(&http.Response{StatusCode: in.status})
			if diff := cmp.Diff(want.retry, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestOn_CheckError(t *testing.T) {
	type in struct {
		retryOn string
		err     error
	}

	type want struct {
		retry bool
	}

	tests := []struct {
		name string
		in   in
		want want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{"connect-failure", io.EOF},
			want{true},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{"5xx", &net.DNSError{IsTemporary: true}},
			want{true},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{"connect-failure", errors.New("permanent")},
			want{false},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{"gateway-error,retriable-4xx", io.EOF},
			want{false},
		},
	}
	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			o, err := retry.NewRetryOnFromString(in.retryOn)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want.retry, o.CheckError(in.err)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewRetryOnFromString(t *testing.T) {
	t.Run("Canonical", func(t *testing.T) {
		o, err := retry.NewRetryOnFromString("429, retriable-4xx,gateway-error,429")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff("gateway-error,retriable-4xx,429", o.String()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	for _, s := range []string{"5xx,teapot", "42", "600"} {
		if _, err := retry.NewRetryOnFromString(s); err == nil {
			t.Errorf("Expected error for %q", s)
		}
	}
}

func TestMustRetryOn(t *testing.T) {
	if diff := cmp.Diff(retry.DefaultRetryOn, retry.NewDefaultRetryOn().String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("Expected panic for invalid policy")
		}
	}()
	retry.MustRetryOn("sometimes")
}
