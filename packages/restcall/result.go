package restcall

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Outcome tags which branch of the response reduction produced a Result.
type Outcome int

const (
	OutcomeNotSent Outcome = iota
	OutcomeTransportFailure
	OutcomeBadStatus
	OutcomeNoContent
	OutcomeParseFailure
	OutcomeSuccess
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotSent:
		return "not_sent"
	case OutcomeTransportFailure:
		return "transport_failure"
	case OutcomeBadStatus:
		return "bad_status"
	case OutcomeNoContent:
		return "no_content"
	case OutcomeParseFailure:
		return "parse_failure"
	case OutcomeSuccess:
		return "success"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the reduced response of one call. JSON is only populated when
// Outcome is OutcomeSuccess.
type Result struct {
	Outcome     Outcome
	StatusCode  int
	Status      string
	ContentType string
	JSON        gjson.Result
}

func (r Result) IsSuccess() bool {
	return r.Outcome == OutcomeSuccess
}

func (r Result) IsNoContent() bool {
	return r.Outcome == OutcomeNoContent
}

// Get looks up a gjson path in the parsed document.
func (r Result) Get(path string) gjson.Result {
	if r.Outcome != OutcomeSuccess {
		return gjson.Result{}
	}
	return r.JSON.Get(path)
}

// Decode unmarshals the parsed document into v. Members missing from the
// document are left at their zero value and unknown members are ignored.
func (r Result) Decode(v any) error {
	if r.Outcome != OutcomeSuccess {
		return fmt.Errorf("decode: result has no JSON document (%s)", r.Outcome)
	}
	if err := json.Unmarshal([]byte(r.JSON.Raw), v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (r Result) String() string {
	if r.Outcome != OutcomeSuccess {
		return ""
	}
	return r.JSON.Raw
}
