// Copyright 2015 Comcast Cable Communications Management, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// End Copyright

package transform

// maxRuleDepth is the soft recursion limit on rule tree nesting (spec §9):
// hand-written mapping programs never approach it, so hitting it means a
// rules document references itself or is otherwise pathological.
const maxRuleDepth = 64

// Interpreter evaluates a compiled rule tree against a source document. It
// owns a path-compile cache, so the same Interpreter should be reused across
// calls to TransformDocs for a given rules document rather than rebuilt per
// call (the package-level Transform builds a fresh one each time). The zero
// value is not usable; use NewInterpreter.
type Interpreter struct {
	paths  *pathCache
	Logger Logger
}

// NewInterpreter builds an Interpreter with a fresh path-compile cache.
func NewInterpreter() *Interpreter {
	return &Interpreter{paths: newPathCache(), Logger: NullLogger{}}
}

// Transform parses source and rules as JSON, compiles rules into a rule
// tree (an "object" rule at the document root, per spec §4.1), and
// evaluates it against source, returning the resulting JSON document.
func Transform(source, rules []byte) ([]byte, error) {
	in := NewInterpreter()
	return in.TransformDocs(source, rules)
}

// TransformDocs is Transform reusing in's path-compile cache; callers that
// run many mapping documents through one Interpreter should prefer this.
func (in *Interpreter) TransformDocs(source, rules []byte) ([]byte, error) {
	srcVal, err := ParseValue(source)
	if err != nil {
		return nil, NewBadSourceError("%s", err)
	}
	rulesVal, err := ParseValue(rules)
	if err != nil {
		return nil, NewBadRulesError("%s", err)
	}
	rulesObj, ok := rulesVal.Object()
	if !ok {
		return nil, NewBadRulesError("rules document root is not an object")
	}

	result := NewObject()
	for _, field := range rulesObj.Keys() {
		fieldRuleVal, _ := rulesObj.Get(field)
		rule, err := compileRule(fieldRuleVal)
		if err != nil {
			return nil, NewFieldFailure(field, err)
		}
		val, err := in.eval(srcVal, rule, 0)
		if err != nil {
			return nil, NewFieldFailure(field, err)
		}
		result.Set(field, val)
	}

	out := ObjectValueOf(result)
	return out.MarshalJSON()
}

// evalPath resolves a compiled-and-cached path against source.
func (in *Interpreter) evalPath(source Value, path string) (Value, error) {
	if path == "" {
		return source, nil
	}
	cp, err := in.paths.compile(path)
	if err != nil {
		return Value{}, err
	}
	return cp.evaluate(source)
}

// eval dispatches on rule's concrete type and returns the Value it produces
// against source, per spec §§4.1, 4.5-4.9.
func (in *Interpreter) eval(source Value, rule Rule, depth int) (Value, error) {
	if depth > maxRuleDepth {
		return Value{}, NewRecursionLimitError("exceeded depth %d", maxRuleDepth)
	}

	switch r := rule.(type) {
	case *PathRule:
		return in.evalPath(source, r.Path)

	case *LiteralRule:
		return r.Literal, nil

	case *ValueRule:
		resolved, err := in.evalPath(source, r.SourcePath)
		if err != nil {
			return Value{}, err
		}
		if resolved.IsNull() {
			if r.Default != nil {
				return in.eval(source, r.Default, depth+1)
			}
			return Null(), nil
		}
		if elems, isArray := resolved.Array(); isArray {
			out := make([]Value, 0, len(elems))
			for _, e := range elems {
				v, matched, err := in.lookupMapping(source, r, e, depth)
				if err != nil {
					return Value{}, err
				}
				if !matched {
					// No match, no default: the element passes through
					// unchanged (spec §4.5, §9 open question).
					out = append(out, e)
					continue
				}
				out = append(out, v)
			}
			return ArrayValue(out), nil
		}

		v, matched, err := in.lookupMapping(source, r, resolved, depth)
		if err != nil {
			return Value{}, err
		}
		if matched {
			return v, nil
		}
		return Null(), nil

	case *FunctionRule:
		return in.evalFunction(source, r, depth)

	case *ConditionalRule:
		for _, cond := range r.Conditions {
			matched, err := in.evalCondition(source, cond.Path, cond.Operator, cond.Value)
			if err != nil {
				return Value{}, err
			}
			if matched {
				return in.eval(source, cond.Result, depth+1)
			}
		}
		if r.Default != nil {
			return in.eval(source, r.Default, depth+1)
		}
		return Null(), nil

	case *ArrayRule:
		resolved, err := in.evalPath(source, r.SourcePath)
		if err != nil {
			return Value{}, err
		}
		elems, ok := resolved.Array()
		if !ok {
			if r.WrapAsArray {
				if _, isObj := resolved.Object(); isObj {
					elems = []Value{resolved}
				}
			}
		}
		out := make([]Value, 0, len(elems))
		for _, e := range elems {
			obj := NewObject()
			for _, f := range r.ItemMapping {
				v, err := in.eval(e, f.Rule, depth+1)
				if err != nil {
					return Value{}, NewFieldFailure(f.Name, err)
				}
				obj.Set(f.Name, v)
			}
			out = append(out, ObjectValueOf(obj))
		}
		return ArrayValue(out), nil

	case *ObjectRule:
		obj := NewObject()
		for _, f := range r.Fields {
			v, err := in.eval(source, f.Rule, depth+1)
			if err != nil {
				return Value{}, NewFieldFailure(f.Name, err)
			}
			obj.Set(f.Name, v)
		}
		return ObjectValueOf(obj), nil
	}

	return Value{}, NewMissingTypeError("unhandled rule type %T", rule)
}

// evalFunction resolves input = sourcePath ? eval_path(source, sourcePath)
// : source, and invokes the registered function with args resolved
// VERBATIM (spec §4.6) — the rules document's literal Values, not
// sub-rules. $concat and $coalesce alone re-resolve a "$"-prefixed text
// arg against source (funcContext carries what they need for that).
func (in *Interpreter) evalFunction(source Value, r *FunctionRule, depth int) (Value, error) {
	fn, ok := functionRegistry[r.Name]
	if !ok {
		return Value{}, NewUnknownFunctionError("%q", r.Name)
	}

	input := source
	if r.HasSourcePath {
		v, err := in.evalPath(source, r.SourcePath)
		if err != nil {
			return Value{}, NewFunctionFailure(r.Name, err)
		}
		input = v
	}

	fc := &funcContext{in: in, source: source}
	v, err := fn(fc, input, r.Args)
	if err != nil {
		return Value{}, NewFunctionFailure(r.Name, err)
	}
	return v, nil
}

// lookupMapping matches candidate's TEXT FORM against r.Mappings (spec
// §4.5's literal wording), consulting a wildcard "*" entry (SPEC_FULL.md
// §4) after all literal entries miss, before default/pass-through.
// matched=false with a nil error means "no default either" — the caller
// decides between Null (scalar) and pass-through (array element).
func (in *Interpreter) lookupMapping(source Value, r *ValueRule, candidate Value, depth int) (Value, bool, error) {
	candidateText := candidate.TextForm()
	var wildcard *Mapping
	for i := range r.Mappings {
		m := &r.Mappings[i]
		if m.Wildcard {
			wildcard = m
			continue
		}
		if m.Source.TextForm() == candidateText {
			v, err := in.eval(source, m.Target, depth+1)
			return v, true, err
		}
	}
	if wildcard != nil {
		v, err := in.eval(source, wildcard.Target, depth+1)
		return v, true, err
	}
	if r.Default != nil {
		v, err := in.eval(source, r.Default, depth+1)
		return v, true, err
	}
	return Value{}, false, nil
}
