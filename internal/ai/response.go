package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the three shapes a classification outcome can take.
type Kind int

const (
	// KindParsed means the provider returned structured JSON.
	KindParsed Kind = iota
	// KindRawOnly means the provider returned plain text with no JSON in
	// it. Not an error, merely unstructured.
	KindRawOnly
	// KindFailed means the call or the JSON decode failed.
	KindFailed
)

// Response is the tagged result of one classification call. Exactly one
// variant is populated: Data for Parsed, Raw for RawOnly, Raw+ErrDetail for
// Failed.
type Response struct {
	Kind      Kind
	Data      map[string]any
	Raw       string
	ErrDetail string
}

func Parsed(data map[string]any) Response {
	return Response{Kind: KindParsed, Data: data}
}

func RawOnly(text string) Response {
	return Response{Kind: KindRawOnly, Raw: text}
}

func Failed(raw, detail string) Response {
	return Response{Kind: KindFailed, Raw: raw, ErrDetail: detail}
}

// TotalScore extracts the required total_score field from a Parsed response.
// A missing or non-numeric field is a contract violation reported as an
// error, never silently zeroed.
func (r Response) TotalScore() (int, error) {
	if r.Kind != KindParsed {
		return 0, fmt.Errorf("response is not parsed JSON")
	}
	v, ok := r.Data["total_score"]
	if !ok {
		return 0, fmt.Errorf("total_score missing from model response")
	}

	switch n := v.(type) {
	case float64:
		return int(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("total_score not numeric: %q", n.String())
		}
		return int(f), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("total_score not numeric: %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("total_score has unsupported type %T", v)
	}
}
