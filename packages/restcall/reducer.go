package restcall

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/jsoncall/packages/http"
)

// minJSONLength is the shortest body that can hold a JSON document ("{}").
const minJSONLength = 2

var errNoResponse = errors.New("transport returned no response")

func (c *Caller) reduce(path string, resp *http.Response, err error) (Result, *CallError) {
	if err == nil && resp == nil {
		err = errNoResponse
	}
	if err != nil {
		return Result{Outcome: OutcomeTransportFailure}, callFailedError(c.host, path, err)
	}

	c.response = resp.Body
	c.responseContentType = resp.ContentType()

	result := Result{
		StatusCode:  resp.StatusCode,
		Status:      resp.StatusText(),
		ContentType: c.responseContentType,
	}

	if !resp.IsSuccess() {
		result.Outcome = OutcomeBadStatus
		return result, badStatusError(c.host, path, resp.StatusCode, result.Status, resp.BodyString())
	}

	if len(resp.Body) < minJSONLength {
		result.Outcome = OutcomeNoContent
		return result, nil
	}

	if !gjson.ValidBytes(resp.Body) {
		result.Outcome = OutcomeParseFailure
		return result, parseFailedError(c.host, path, resp.StatusCode, parseDiagnostic(resp.Body))
	}

	if !resp.IsJSON() {
		c.logger.Debug("JSON body under a non-JSON content type",
			zap.String("host", c.host),
			zap.String("path", path),
			zap.String("content_type", c.responseContentType),
		)
	}

	result.Outcome = OutcomeSuccess
	result.JSON = gjson.ParseBytes(resp.Body)
	return result, nil
}

// parseDiagnostic reports where the document stops being JSON.
func parseDiagnostic(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return err.Error()
	}
	return "malformed JSON document"
}
