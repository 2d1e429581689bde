package outcome

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type ErrorType string

const (
	ClientError  ErrorType = "Client Error"
	ServerError  ErrorType = "Server Error"
	TimeoutError ErrorType = "Timeout Error"
	NetworkError ErrorType = "Network Error"
)

const (
	SentinelTimeout = "Timeout"
	SentinelError   = "Error"
)

// StatusCode is either an HTTP status or one of the sentinels "Timeout" and
// "Error". It is written to JSON as a number or a string accordingly.
type StatusCode struct {
	Code     int
	Sentinel string
}

func HTTPStatus(code int) StatusCode { return StatusCode{Code: code} }

func TimeoutStatus() StatusCode { return StatusCode{Sentinel: SentinelTimeout} }

func ErrorStatus() StatusCode { return StatusCode{Sentinel: SentinelError} }

func (s StatusCode) IsHTTP() bool { return s.Sentinel == "" }

func (s StatusCode) String() string {
	if s.Sentinel != "" {
		return s.Sentinel
	}
	return strconv.Itoa(s.Code)
}

func (s StatusCode) MarshalJSON() ([]byte, error) {
	if s.Sentinel != "" {
		return json.Marshal(s.Sentinel)
	}
	return []byte(strconv.Itoa(s.Code)), nil
}

func (s *StatusCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		if n, err := strconv.Atoi(str); err == nil {
			*s = StatusCode{Code: n}
			return nil
		}
		*s = StatusCode{Sentinel: str}
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("status code: %w", err)
	}
	*s = StatusCode{Code: n}
	return nil
}

// Outcome is the record of an unhealthy target. Healthy targets have none.
type Outcome struct {
	URL         string     `json:"url"`
	Locale      string     `json:"locale"`
	StatusCode  StatusCode `json:"statusCode"`
	ErrorType   ErrorType  `json:"errorType"`
	LastChecked time.Time  `json:"lastChecked"`
	Latency     float64    `json:"latency"`
	IsDeepCheck bool       `json:"isDeepCheck"`
	Source      string     `json:"source"`
	Text        string     `json:"text"`
}

// Class is the verdict for an HTTP status code.
type Class int

const (
	ClassHealthy Class = iota
	ClassClientError
	ClassServerError
)

// StatusFalsePositive is returned by some large external hosts to bots while
// the page itself is reachable.
const StatusFalsePositive = 999

// Classify maps any status code to exactly one class. Codes outside
// [400,600) are healthy, as is 999.
func Classify(code int) Class {
	switch {
	case code == StatusFalsePositive:
		return ClassHealthy
	case code >= 400 && code < 500:
		return ClassClientError
	case code >= 500 && code < 600:
		return ClassServerError
	default:
		return ClassHealthy
	}
}

func (c Class) ErrorType() ErrorType {
	switch c {
	case ClassClientError:
		return ClientError
	case ClassServerError:
		return ServerError
	default:
		return ""
	}
}

func (c Class) String() string {
	switch c {
	case ClassClientError:
		return "client_error"
	case ClassServerError:
		return "server_error"
	default:
		return "healthy"
	}
}
