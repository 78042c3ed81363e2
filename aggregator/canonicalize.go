package aggregator

import (
	"strings"

	"errtracer/call"
	"errtracer/catalog"
)

// BaseParam canonicalizes a call by function name plus the value of its
// "base" parameter (the file-descriptor-or-path argument that most
// controllable functions take as their first operand; link/symlink use
// their second, the new-name/target side). Functions with no base-param
// entry — readdir and closedir among the controllable set — canonicalize
// to "name()", matching BaseParamAggregator::toString when the lookup
// misses.
//
// Two calls to the same function against different files produce distinct
// graph nodes under this strategy, unlike NameOnly.
func BaseParam(c *call.Call) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('(')
	if idx, ok := catalog.BaseParamIndex(c.Function); ok {
		b.WriteString(c.Param(idx))
	}
	b.WriteByte(')')
	return b.String()
}

// StrategyByName resolves a config-file strategy name ("name" or
// "base_param") to its Canonicalize function.
func StrategyByName(name string) (Canonicalize, bool) {
	switch name {
	case "name":
		return NameOnly, true
	case "base_param":
		return BaseParam, true
	default:
		return nil, false
	}
}

// traceString joins a window of node canonical strings in order, matching
// Aggregator::toString(Trace*) — each entry terminated by ";", including
// the last.
func traceString(canonicals []string) string {
	var b strings.Builder
	for _, c := range canonicals {
		b.WriteString(c)
		b.WriteByte(';')
	}
	return b.String()
}

