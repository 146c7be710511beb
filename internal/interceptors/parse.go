package interceptors

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/gqlerror"

	chain "github.com/gqlpipe/gqlpipe/internal/chain"
	exec "github.com/gqlpipe/gqlpipe/internal/exec"
	schema "github.com/gqlpipe/gqlpipe/internal/schema"
)

// ErrNoResponseToParse indicates the parse stage ran before any
// interceptor produced a response body.
var ErrNoResponseToParse = errors.New("interceptors: no response to parse")

// ResultMapper converts a selection-applied result into the typed
// result R. The default mapper goes through a JSON round trip of the
// flattened data.
type ResultMapper[R any] func(res *exec.Result) (*R, error)

// Parse decodes the raw response body, applies the operation's
// selection tree to it (recording fulfilled-fragment provenance on
// every object), and maps the outcome into the typed result.
type Parse[R any] struct {
	Schema *schema.Registry
	// Map overrides the default JSON-round-trip mapper.
	Map ResultMapper[R]
}

func (p *Parse[R]) Intercept(link *chain.Link[R], req *chain.Request, resp *chain.Response[R]) {
	if resp == nil {
		link.HandleError(ErrNoResponseToParse, req, resp)
		return
	}
	if resp.HasParsedResult() {
		link.Proceed(req, resp)
		return
	}

	if resp.Normalized == nil {
		var envelope struct {
			Data   map[string]any `json:"data"`
			Errors gqlerror.List  `json:"errors"`
		}
		if err := json.Unmarshal(resp.Raw, &envelope); err != nil {
			link.HandleError(fmt.Errorf("interceptors: decoding response body: %w", err), req, resp)
			return
		}
		if envelope.Data == nil {
			if len(envelope.Errors) > 0 {
				link.HandleError(envelope.Errors, req, resp)
				return
			}
			link.HandleError(errors.New("interceptors: response carries neither data nor errors"), req, resp)
			return
		}
		ectx := &exec.Context{
			Variables: req.Operation.Variables,
			Schema:    p.Schema,
		}
		res := exec.Apply(req.Operation.Selections, envelope.Data, ectx)
		res.Errors = append(res.Errors, envelope.Errors...)
		resp.Normalized = res
	}

	result, err := p.mapResult(resp.Normalized)
	if err != nil {
		link.HandleError(err, req, resp)
		return
	}
	resp.Result = result
	link.Proceed(req, resp)
}

func (p *Parse[R]) mapResult(res *exec.Result) (*R, error) {
	if p.Map != nil {
		return p.Map(res)
	}
	encoded, err := json.Marshal(res.Flatten())
	if err != nil {
		return nil, fmt.Errorf("interceptors: encoding result data: %w", err)
	}
	result := new(R)
	if err := json.Unmarshal(encoded, result); err != nil {
		return nil, fmt.Errorf("interceptors: mapping result data: %w", err)
	}
	return result, nil
}
