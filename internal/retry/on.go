package retry

import (
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// DefaultRetryOn is used when nothing else is configured.
const DefaultRetryOn = "gateway-error,connect-failure,retriable-4xx"

type condition uint8

const (
	on5xx condition = 1 << iota
	onGatewayError
	onConnectFailure
	onRetriable4xx
)

var conditionTokens = []struct {
	token     string
	condition condition
}{
	{"5xx", on5xx},
	{"gateway-error", onGatewayError},
	{"connect-failure", onConnectFailure},
	{"retriable-4xx", onRetriable4xx},
}

// On is a retry policy written as a comma separated list of envoy
// x-envoy-retry-on tokens plus bare status codes, e.g. "gateway-error,429".
type On struct {
	conditions  condition
	statusCodes []int
}

func NewDefaultRetryOn() *On {
	return MustRetryOn(DefaultRetryOn)
}

// MustRetryOn is NewRetryOnFromString for constant policies. It panics on an
// invalid token.
func MustRetryOn(s string) *On {
	o, err := NewRetryOnFromString(s)
	if err != nil {
		panic(err)
	}
	return o
}

func NewRetryOnFromString(s string) (*On, error) {
	o := &On{}
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if c, ok := lookupCondition(token); ok {
			o.conditions |= c
			continue
		}

		statusCode, err := strconv.Atoi(token)
		if err != nil || statusCode < 100 || statusCode > 599 {
			return nil, xerrors.Errorf("invalid retryOn token %q in %q", token, s)
		}
		if !slices.Contains(o.statusCodes, statusCode) {
			o.statusCodes = append(o.statusCodes, statusCode)
		}
	}
	return o, nil
}

func lookupCondition(token string) (condition, bool) {
	for _, t := range conditionTokens {
		if t.token == token {
			return t.condition, true
		}
	}
	return 0, false
}

func (o *On) has(c condition) bool {
	return o.conditions&c != 0
}

// String renders the policy in canonical token order.
func (o *On) String() string {
	var tokens []string
	for _, t := range conditionTokens {
		if o.has(t.condition) {
			tokens = append(tokens, t.token)
		}
	}
	for _, statusCode := range o.statusCodes {
		tokens = append(tokens, strconv.Itoa(statusCode))
	}
	return strings.Join(tokens, ",")
}

// CheckResponse follows envoy's retry_state_impl.cc, except that
// retriable-4xx also covers 429.
func (o *On) CheckResponse(response *http.Response) bool {
	status := response.StatusCode
	switch {
	case o.has(on5xx) && status >= 500 && status < 600:
		return true
	case o.has(onGatewayError) && status >= http.StatusBadGateway && status <= http.StatusGatewayTimeout:
		return true
	case o.has(onRetriable4xx) && (status == http.StatusConflict || status == http.StatusTooManyRequests):
		return true
	}
	return slices.Contains(o.statusCodes, status)
}

// CheckError reports whether a transport error is a disconnect, reset or
// timeout that connect-failure (or 5xx, as in envoy) retries.
func (o *On) CheckError(err error) bool {
	if !o.has(onConnectFailure) && !o.has(on5xx) {
		return false
	}

	type temporary interface{ Temporary() bool }
	var terr temporary
	return (errors.As(err, &terr) && terr.Temporary()) || errors.Is(err, io.EOF)
}
