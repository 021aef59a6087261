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

// Rule is a compiled node of the rule tree (spec §3.2, §4.1). Each rule
// kind corresponds to one "type" discriminator value in the rules
// document, except PathRule and LiteralRule, which are the bare-scalar
// shorthand forms (§4.1's dispatch table: a leading "$" string delegates
// to the path evaluator, any other scalar/array is returned verbatim).
type Rule interface {
	ruleKind() string
}

// PathRule is the "$..." string shorthand for a path lookup.
type PathRule struct {
	Path string
}

func (*PathRule) ruleKind() string { return "path" }

// LiteralRule is any rule-document value returned verbatim: a non-"$"
// string, a number, bool, null, a bare array, or an explicit
// {"type":"literal","value":...} object (the latter is FluxMap's own
// canonical spelling for a literal that happens to need an object shape,
// e.g. to hold a nested array/object as a mapping target).
type LiteralRule struct {
	Literal Value
}

func (*LiteralRule) ruleKind() string { return "literal" }

// Mapping is one entry of a ValueRule's lookup table (spec §3.2, §4.5).
// Matching against a resolved value is by TEXT FORM, not typed equality,
// per §4.5's literal wording ("look up ... text form in the mappings
// table") — a deliberate departure from the type-strict comparisons used
// elsewhere (§4.4) documented in DESIGN.md.
//
// Wildcard is FluxMap's supplemental "*" source (SPEC_FULL.md §4): it
// matches any value not matched by a literal entry, before default/
// pass-through.
type Mapping struct {
	Source   Value
	Wildcard bool
	Target   Rule
}

// ValueRule resolves sourcePath, looks it up against Mappings, and
// evaluates the matching entry's Target; Default is used when nothing
// matches (scalar source) or per-element when iterating an array source.
type ValueRule struct {
	SourcePath string
	Mappings   []Mapping
	Default    Rule
}

func (*ValueRule) ruleKind() string { return "value" }

// FunctionRule applies a registered function (spec §4.3, §4.6).
// Args are resolved VERBATIM (spec §4.6: "Resolve args[] verbatim") —
// they are plain Values from the rules document, not sub-rules; the
// function itself (only $concat and $coalesce) decides whether a text
// arg beginning with "$" should be re-evaluated as a path against the
// source document.
type FunctionRule struct {
	Name          string
	SourcePath    string
	HasSourcePath bool
	Args          []Value
}

func (*FunctionRule) ruleKind() string { return "function" }

// Condition is one arm of a ConditionalRule (spec §3.2, §4.4).
type Condition struct {
	Path     string
	Operator string
	Value    Value
	Result   Rule
}

// ConditionalRule evaluates Conditions in order and returns the Result of
// the first whose condition is true, or Default if none match.
type ConditionalRule struct {
	Conditions []Condition
	Default    Rule
}

func (*ConditionalRule) ruleKind() string { return "conditional" }

// ArrayRule iterates an array resolved from SourcePath (wrapping a
// non-array object into a singleton first when WrapAsArray is set, per
// §4.7), evaluating ItemMapping against each element (the element becomes
// the new root "$" for that sub-evaluation) to build one object per
// element.
type ArrayRule struct {
	SourcePath  string
	WrapAsArray bool
	ItemMapping []ObjectField
}

func (*ArrayRule) ruleKind() string { return "array" }

// ObjectRule builds an object by evaluating each field's Rule against the
// current source document. Per §3.2/§4.8, the rule object's own sibling
// keys (everything but "type") are the field rules — there is no nested
// "fields" wrapper.
type ObjectRule struct {
	Fields []ObjectField
}

type ObjectField struct {
	Name string
	Rule Rule
}

func (*ObjectRule) ruleKind() string { return "object" }

// compileRule turns a parsed rule document node into a Rule tree, per the
// dispatch table in spec §4.1.
func compileRule(v Value) (Rule, error) {
	switch v.Kind() {
	case KindText:
		if s, _ := v.Text(); len(s) > 0 && s[0] == '$' {
			return &PathRule{Path: s}, nil
		}
		return &LiteralRule{Literal: v}, nil
	case KindBool, KindInt, KindDecimal, KindNull, KindArray:
		return &LiteralRule{Literal: v}, nil
	}

	obj, ok := v.Object()
	if !ok {
		return &LiteralRule{Literal: v}, nil
	}

	typeVal, hasType := obj.Get("type")
	if !hasType {
		return nil, NewMissingTypeError("rule object missing \"type\"")
	}
	kind, _ := typeVal.Text()

	switch kind {
	case "literal":
		lit, _ := obj.Get("value")
		return &LiteralRule{Literal: lit}, nil

	case "value":
		sourcePath, _ := obj.Get("sourcePath")
		sp, _ := sourcePath.Text()
		mappingsVal, hasMappings := obj.Get("mappings")
		if !hasMappings {
			return nil, NewMissingMappingsError("\"value\" rule missing \"mappings\"")
		}
		mappingsArr, ok := mappingsVal.Array()
		if !ok {
			return nil, NewMissingMappingsError("\"mappings\" is not an array")
		}
		vr := &ValueRule{SourcePath: sp}
		for _, m := range mappingsArr {
			mObj, ok := m.Object()
			if !ok {
				return nil, NewBadRulesError("mapping entry is not an object")
			}
			srcVal, _ := mObj.Get("source")
			targetVal, hasTarget := mObj.Get("target")
			if !hasTarget {
				return nil, NewBadRulesError("mapping entry missing \"target\"")
			}
			targetRule, err := compileRule(targetVal)
			if err != nil {
				return nil, err
			}
			srcText, isText := srcVal.Text()
			if isText && srcText == "*" {
				vr.Mappings = append(vr.Mappings, Mapping{Wildcard: true, Target: targetRule})
				continue
			}
			vr.Mappings = append(vr.Mappings, Mapping{Source: srcVal, Target: targetRule})
		}
		if defVal, hasDefault := obj.Get("default"); hasDefault {
			defRule, err := compileRule(defVal)
			if err != nil {
				return nil, err
			}
			vr.Default = defRule
		}
		return vr, nil

	case "function":
		nameVal, _ := obj.Get("function")
		name, _ := nameVal.Text()
		if _, ok := functionRegistry[name]; !ok {
			return nil, NewUnknownFunctionError("%q", name)
		}
		fr := &FunctionRule{Name: name}
		if spVal, hasSP := obj.Get("sourcePath"); hasSP {
			sp, _ := spVal.Text()
			fr.SourcePath = sp
			fr.HasSourcePath = true
		}
		if argsVal, hasArgs := obj.Get("args"); hasArgs {
			argsArr, ok := argsVal.Array()
			if !ok {
				return nil, NewBadRulesError("\"args\" is not an array")
			}
			fr.Args = argsArr
		}
		return fr, nil

	case "conditional":
		condsVal, hasConds := obj.Get("conditions")
		if !hasConds {
			return nil, NewBadRulesError("\"conditional\" rule missing \"conditions\"")
		}
		condsArr, ok := condsVal.Array()
		if !ok {
			return nil, NewBadRulesError("\"conditions\" is not an array")
		}
		cr := &ConditionalRule{}
		for _, c := range condsArr {
			cObj, ok := c.Object()
			if !ok {
				return nil, NewBadRulesError("condition entry is not an object")
			}
			pathVal, _ := cObj.Get("path")
			path, _ := pathVal.Text()
			opVal, _ := cObj.Get("operator")
			op, _ := opVal.Text()
			litVal, _ := cObj.Get("value")
			resultVal, hasResult := cObj.Get("result")
			if !hasResult {
				return nil, NewBadRulesError("condition entry missing \"result\"")
			}
			resultRule, err := compileRule(resultVal)
			if err != nil {
				return nil, err
			}
			cr.Conditions = append(cr.Conditions, Condition{
				Path: path, Operator: op, Value: litVal, Result: resultRule,
			})
		}
		if defVal, hasDefault := obj.Get("default"); hasDefault {
			defRule, err := compileRule(defVal)
			if err != nil {
				return nil, err
			}
			cr.Default = defRule
		}
		return cr, nil

	case "array":
		sourcePath, _ := obj.Get("sourcePath")
		sp, _ := sourcePath.Text()
		itemVal, hasItem := obj.Get("itemMapping")
		if !hasItem {
			return nil, NewBadRulesError("\"array\" rule missing \"itemMapping\"")
		}
		itemObj, ok := itemVal.Object()
		if !ok {
			return nil, NewBadRulesError("\"itemMapping\" is not an object")
		}
		ar := &ArrayRule{SourcePath: sp}
		if wrapVal, hasWrap := obj.Get("wrapAsArray"); hasWrap {
			wrap, _ := wrapVal.Bool()
			ar.WrapAsArray = wrap
		}
		for _, name := range itemObj.Keys() {
			fv, _ := itemObj.Get(name)
			fr, err := compileRule(fv)
			if err != nil {
				return nil, err
			}
			ar.ItemMapping = append(ar.ItemMapping, ObjectField{Name: name, Rule: fr})
		}
		return ar, nil

	case "object":
		or := &ObjectRule{}
		for _, name := range obj.Keys() {
			if name == "type" {
				continue
			}
			fv, _ := obj.Get(name)
			fr, err := compileRule(fv)
			if err != nil {
				return nil, err
			}
			or.Fields = append(or.Fields, ObjectField{Name: name, Rule: fr})
		}
		return or, nil

	default:
		return nil, NewMissingTypeError("unknown rule type %q", kind)
	}
}
