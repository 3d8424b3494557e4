// internal/rules/evaluate.go
package rules

/*
 * Condition evaluation.
 *
 * Evaluates one rule against one canonical record, producing a verdict
 * (ok / warning / critical) and a human-readable detail string.
 *
 * Status semantics:
 *   - ok when the condition holds
 *   - the rule's criticality when the data violates the condition
 *   - warning, regardless of configured criticality, for structural or
 *     evaluation faults (invalid regex, unsupported operator): the fault is
 *     in the rule, not the data, so it must neither crash nor escalate
 *
 * One deliberate escalation: a range condition over a non-numeric value
 * yields the rule's criticality, because range contractually requires a
 * number and the feed data itself is defective.
 *
 * Field lookup goes through the bilingual vocabulary resolver (canonical id
 * first, then either label), shared by every condition kind and by
 * cross-field comparison. Evaluation never returns an error and never
 * panics; worst case is a warning verdict with a diagnostic detail.
 */

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/feedaudit/feedaudit/internal/types"
	"github.com/feedaudit/feedaudit/internal/vocab"
)

// Verdict is the outcome of evaluating one (record, rule) pair.
type Verdict struct {
	Status  types.Status
	Details string
}

// Evaluator evaluates conditions against canonical records. Stateless apart
// from the injected resolver and regex cache; safe for concurrent use.
type Evaluator struct {
	resolver *vocab.Resolver
	regexes  *RegexCache
}

// NewEvaluator creates an evaluator with the given resolver and regex cache.
func NewEvaluator(resolver *vocab.Resolver, regexes *RegexCache) *Evaluator {
	return &Evaluator{resolver: resolver, regexes: regexes}
}

// Evaluate computes the verdict for one (record, rule) pair.
func (e *Evaluator) Evaluate(rec types.Record, rule types.Rule) Verdict {
	if rule.Condition == nil {
		return Verdict{Status: types.StatusWarning, Details: "rule has no condition"}
	}

	value, _ := e.resolver.Lookup(rec, rule.Condition.TargetField())

	switch cond := rule.Condition.(type) {
	case types.NotEmptyCondition:
		return e.notEmpty(rule, cond, value)
	case types.MinLengthCondition:
		return e.minLength(rule, cond, value)
	case types.MaxLengthCondition:
		return e.maxLength(rule, cond, value)
	case types.ContainsCondition:
		return e.contains(rule, cond, value)
	case types.DoesntContainCondition:
		return e.doesntContain(rule, cond, value)
	case types.RegexCondition:
		return e.regex(rule, cond, value)
	case types.RangeCondition:
		return e.numericRange(rule, cond, value)
	case types.CrossFieldCondition:
		return e.crossField(rule, cond, rec, value)
	case types.DateCondition:
		return e.date(rule, cond, value)
	default:
		return Verdict{
			Status:  types.StatusWarning,
			Details: fmt.Sprintf("unknown condition type %q", rule.Condition.Kind()),
		}
	}
}

// violation builds the verdict for a data violation: the rule's configured
// criticality becomes the status.
func violation(rule types.Rule, format string, args ...any) Verdict {
	return Verdict{Status: rule.Criticality.Status(), Details: fmt.Sprintf(format, args...)}
}

// ruleFault builds the verdict for a structurally invalid condition: always
// a warning so a malformed rule neither crashes nor masks critical findings.
func ruleFault(format string, args ...any) Verdict {
	return Verdict{Status: types.StatusWarning, Details: fmt.Sprintf(format, args...)}
}

var verdictOK = Verdict{Status: types.StatusOK}

func (e *Evaluator) notEmpty(rule types.Rule, cond types.NotEmptyCondition, value string) Verdict {
	if strings.TrimSpace(value) == "" {
		return violation(rule, "field %q is empty", cond.Field)
	}
	return verdictOK
}

func (e *Evaluator) minLength(rule types.Rule, cond types.MinLengthCondition, value string) Verdict {
	if n := utf8.RuneCountInString(value); n < cond.Min {
		return violation(rule, "field %q has %d characters, at least %d required", cond.Field, n, cond.Min)
	}
	return verdictOK
}

func (e *Evaluator) maxLength(rule types.Rule, cond types.MaxLengthCondition, value string) Verdict {
	if n := utf8.RuneCountInString(value); n > cond.Max {
		return violation(rule, "field %q has %d characters, at most %d allowed", cond.Field, n, cond.Max)
	}
	return verdictOK
}

func (e *Evaluator) contains(rule types.Rule, cond types.ContainsCondition, value string) Verdict {
	if !containsFold(value, cond.Substring, cond.CaseSensitive) {
		return violation(rule, "field %q does not contain %q", cond.Field, cond.Substring)
	}
	return verdictOK
}

func (e *Evaluator) doesntContain(rule types.Rule, cond types.DoesntContainCondition, value string) Verdict {
	if containsFold(value, cond.Substring, cond.CaseSensitive) {
		return violation(rule, "field %q contains forbidden %q", cond.Field, cond.Substring)
	}
	return verdictOK
}

// containsFold is the single substring check shared by contains and
// doesntContain, keeping the two kinds exact logical complements.
func containsFold(value, substring string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(value, substring)
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(substring))
}

func (e *Evaluator) regex(rule types.Rule, cond types.RegexCondition, value string) Verdict {
	pattern := cond.Pattern
	if !cond.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := e.regexes.Get(pattern)
	if err != nil {
		return ruleFault("invalid regex %q", cond.Pattern)
	}
	if !re.MatchString(value) {
		return violation(rule, "field %q does not match pattern %q", cond.Field, cond.Pattern)
	}
	return verdictOK
}

func (e *Evaluator) numericRange(rule types.Rule, cond types.RangeCondition, value string) Verdict {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		// Escalated by design: range contractually requires a number, so a
		// non-numeric value is defective feed data, not a defective rule.
		return violation(rule, "field %q value %q is not numeric", cond.Field, value)
	}
	if n < cond.Min || n > cond.Max {
		return violation(rule, "field %q value %v outside range [%v, %v]", cond.Field, n, cond.Min, cond.Max)
	}
	return verdictOK
}

func (e *Evaluator) crossField(rule types.Rule, cond types.CrossFieldCondition, rec types.Record, value string) Verdict {
	refValue, _ := e.resolver.Lookup(rec, cond.RefField)

	matched, supported := compareFields(cond.Operator, value, refValue)
	if !supported {
		return ruleFault("unsupported operator %q", cond.Operator)
	}
	if !matched {
		return violation(rule, "field %q (%q) is not %s field %q (%q)",
			cond.Field, value, operatorPhrase(cond.Operator), cond.RefField, refValue)
	}
	return verdictOK
}

// dateLayouts maps each accepted format to the Go layouts tried in order.
var dateLayouts = map[types.DateFormat][]string{
	types.DateISO:    {time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"},
	types.DateYMD:    {"2006-01-02"},
	types.DateDMY:    {"02/01/2006"},
	types.DateMDY:    {"01/02/2006"},
	types.DateDMYDot: {"02.01.2006"},
}

func (e *Evaluator) date(rule types.Rule, cond types.DateCondition, value string) Verdict {
	layouts, known := dateLayouts[cond.Format]
	if !known {
		return ruleFault("unsupported date format %q", cond.Format)
	}
	trimmed := strings.TrimSpace(value)
	for _, layout := range layouts {
		if _, err := time.Parse(layout, trimmed); err == nil {
			return verdictOK
		}
	}
	return violation(rule, "field %q value %q does not match format %s", cond.Field, value, cond.Format)
}
