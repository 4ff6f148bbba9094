package fetch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alinski29/stonks/internal/batch"
	"github.com/alinski29/stonks/internal/model"
	"github.com/alinski29/stonks/internal/transport"
)

// RequestBuilderError reports a template placeholder with no value: a
// configuration defect, caught before any network call is made.
type RequestBuilderError struct {
	Resource    string
	Placeholder string
	Template    string
}

func (e *RequestBuilderError) Error() string {
	return fmt.Sprintf("request builder: resource %s: no value for {%s} in %q", e.Resource, e.Placeholder, e.Template)
}

var placeholderPattern = regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_]*\}`)

// resolve turns a batch into a concrete request by substituting template
// placeholders with default params, caller params, the joined identifier
// list and the computed date window. The returned map holds the full set of
// resolved values and is later handed to the parser.
func resolve(spec ResourceSpec, b batch.Batch, opts Options) (transport.Request, map[string]string, error) {
	values := make(map[string]string, len(spec.Params)+len(opts.Params)+5)
	for k, v := range spec.Params {
		values[k] = v
	}
	for k, v := range opts.Params {
		values[k] = v
	}

	ids := b.Identifiers()
	joined := strings.Join(identifierStrings(ids), ",")
	values["symbols"] = joined
	values["symbol"] = joined
	if bases, targets, ok := compoundParts(ids); ok {
		values["base"] = strings.Join(bases, ",")
		values["target"] = strings.Join(targets, ",")
	}

	from := b.From
	if from == nil {
		from = opts.From
	}
	if from != nil {
		values["from"] = from.Format(model.DateLayout)
	}
	to := b.To
	if to == nil {
		to = opts.To
	}
	if to != nil {
		values["to"] = to.Format(model.DateLayout)
	}

	url := substitute(spec.URL, values)
	if ph := unresolved(url); ph != "" {
		return transport.Request{}, nil, &RequestBuilderError{Resource: spec.Name, Placeholder: ph, Template: spec.URL}
	}
	query := make(map[string]string, len(spec.Query))
	for key, tmpl := range spec.Query {
		v := substitute(tmpl, values)
		if ph := unresolved(v); ph != "" {
			return transport.Request{}, nil, &RequestBuilderError{Resource: spec.Name, Placeholder: ph, Template: tmpl}
		}
		query[key] = v
	}

	req := transport.Request{
		URL:        url,
		Headers:    spec.Headers,
		Query:      query,
		MaxRetries: spec.MaxRetries,
	}
	return req, values, nil
}

func substitute(template string, values map[string]string) string {
	out := template
	for k, v := range values {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

func unresolved(s string) string {
	if m := placeholderPattern.FindString(s); m != "" {
		return strings.Trim(m, "{}")
	}
	return ""
}

func identifierStrings(ids []model.Identifier) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// compoundParts splits compound identifiers into their base and target
// columns. It reports false unless every identifier in the batch is
// compound, so simple and compound series never mix in one request.
func compoundParts(ids []model.Identifier) (bases, targets []string, ok bool) {
	for _, id := range ids {
		if !id.IsCompound() {
			return nil, nil, false
		}
		bases = append(bases, id.Symbol)
		targets = append(targets, id.Target)
	}
	return bases, targets, len(ids) > 0
}
