package errors

import (
	"errors"
	"fmt"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	UpstreamStatus int      `json:"upstream_status,omitempty"`
	UpstreamBody   string   `json:"upstream_body,omitempty"`
	UpstreamURL    string   `json:"upstream_url,omitempty"`
	Missing        []string `json:"missing,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		typed, ok := e.(*Error)
		if !ok {
			continue
		}
		switch details := typed.details.(type) {
		case UpstreamDetails:
			d.UpstreamStatus = details.Status
			d.UpstreamBody = details.Body
			d.UpstreamURL = details.URL
			return d
		case []string:
			d.Missing = details
			return d
		}
	}

	return d
}

// Fields flattens a dump into logger fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error_message": d.TopMessage,
		"error_code":    d.Code,
		"error_chain":   d.Chain,
	}
	if d.UpstreamStatus != 0 {
		fields["upstream_status"] = d.UpstreamStatus
		fields["upstream_body"] = d.UpstreamBody
	}
	if d.UpstreamURL != "" {
		fields["upstream_url"] = d.UpstreamURL
	}
	if len(d.Missing) > 0 {
		fields["missing_columns"] = d.Missing
	}
	return fields
}
