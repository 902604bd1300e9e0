package evaluator

import (
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/value"
)

// schemaCache compiles each distinct parameter schema document once,
// grounded on the teacher's core/types.Validator schema-hash cache
// (there: keyed by a hash of the marshalled ParamSchema struct; here:
// keyed by the raw document bytes directly, since ours arrives
// pre-serialized from the directive AST rather than built up field by
// field).
var schemaCache sync.Map // map[string]*jsonschema.Schema

func compileParamSchema(doc []byte) (*jsonschema.Schema, error) {
	key := string(doc)
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}
	url := "mem://param-schema/" + strconv.Itoa(len(doc))
	compiled, err := jsonschema.CompileString(url, key)
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, compiled)
	return compiled, nil
}

// validateParams checks the values bound to params in scope against
// exe's declared schema (spec.md SPEC_FULL.md domain-stack entry:
// "validates declared executable parameter shapes"). A nil/empty
// schema is always valid — validation is opt-in per declaration.
func validateParams(schemaDoc []byte, params []string, scope *environment.Scope) error {
	if len(schemaDoc) == 0 {
		return nil
	}
	compiled, err := compileParamSchema(schemaDoc)
	if err != nil {
		return &EvalError{Kind: ErrInvalidArgumentCount, Msg: "parameter schema does not compile: " + err.Error()}
	}

	doc := make(map[string]any, len(params))
	for _, p := range params {
		v, ok := scope.Get(p)
		if !ok {
			continue
		}
		payload, err := v.Payload()
		if err != nil {
			return err
		}
		doc[p] = jsonableForSchema(payload)
	}

	if err := compiled.Validate(doc); err != nil {
		return &EvalError{Kind: ErrInvalidArgumentCount, Msg: "parameter validation failed: " + err.Error()}
	}
	return nil
}

// jsonableForSchema reduces a Value payload to the plain
// map/slice/scalar shapes jsonschema.Validate expects, mirroring
// value.coerce.go's own jsonable() helper for the handful of payload
// kinds parameters actually carry.
func jsonableForSchema(payload any) any {
	switch p := payload.(type) {
	case value.Object:
		m := make(map[string]any, len(p.Keys))
		for _, k := range p.Keys {
			f := p.Fields[k]
			fp, err := f.Payload()
			if err != nil {
				continue
			}
			m[k] = jsonableForSchema(fp)
		}
		return m
	case []value.Value:
		out := make([]any, len(p))
		for i, item := range p {
			ip, err := item.Payload()
			if err == nil {
				out[i] = jsonableForSchema(ip)
			}
		}
		return out
	case value.PathPayload:
		return p.Raw
	case value.CommandResult:
		return strings.TrimSuffix(p.Stdout, "\n")
	case value.PipelineInput:
		return p.Raw
	default:
		return p
	}
}
