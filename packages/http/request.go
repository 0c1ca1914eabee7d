package http

// Header is a single name/value pair. Slices of Header keep insertion order.
type Header struct {
	Name  string
	Value string
}

type Request struct {
	Method  string
	URL     string
	Headers []Header
	Body    []byte
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method: method,
		URL:    requestURL,
	}
}

// AddHeader appends a header. Duplicate names are kept; the client applies
// them in order so the last one wins on the wire.
func (r *Request) AddHeader(key, value string) *Request {
	r.Headers = append(r.Headers, Header{Name: key, Value: value})
	return r
}

// Header returns the last value registered for key, matched exactly.
func (r *Request) Header(key string) (string, bool) {
	for i := len(r.Headers) - 1; i >= 0; i-- {
		if r.Headers[i].Name == key {
			return r.Headers[i].Value, true
		}
	}
	return "", false
}

func (r *Request) SetBody(body []byte) *Request {
	r.Body = body
	return r
}

