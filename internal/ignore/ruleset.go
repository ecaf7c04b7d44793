// Copyright 2025 Antenore Gatta
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

package ignore

// Rule is a compiled pattern together with the name of the source it came from.
type Rule struct {
	*Pattern
	Source string
}

// RuleSet is an ordered list of rules in file order. The last rule that
// applies to a path decides whether it is ignored.
type RuleSet []Rule

// CompileRuleSet compiles lines in order, dropping blanks and comments.
func CompileRuleSet(source string, lines []string) RuleSet {
	rules := make(RuleSet, 0, len(lines))
	for _, line := range lines {
		if p := Compile(line); p != nil {
			rules = append(rules, Rule{Pattern: p, Source: source})
		}
	}
	return rules
}

// Append returns a new RuleSet with other's rules after rs's rules.
func (rs RuleSet) Append(other RuleSet) RuleSet {
	out := make(RuleSet, 0, len(rs)+len(other))
	out = append(out, rs...)
	return append(out, other...)
}

// Patterns returns the raw text of every rule in order.
func (rs RuleSet) Patterns() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Raw
	}
	return out
}

// Match returns the rule that decides the path segments. Rules are scanned
// from the last one. An exclusion decides as soon as it matches the path or
// one of its parents, and so does a negation matching the whole path. A
// negation matching only a parent re-includes that directory: earlier rules
// still decide if they match deeper than it, otherwise the negation stands.
func (rs RuleSet) Match(segs []string, isDir bool) (Rule, bool) {
	var reincluded Rule
	found := false
	floor := 0
	for i := len(rs) - 1; i >= 0; i-- {
		level := rs[i].level(segs, isDir)
		if level <= floor {
			continue
		}
		if !rs[i].Negate || level == len(segs) {
			return rs[i], true
		}
		if !found {
			reincluded, found = rs[i], true
		}
		floor = level
	}
	return reincluded, found
}

// Ignored reports whether the path is ignored by the rule set.
func (rs RuleSet) Ignored(segs []string, isDir bool) bool {
	r, ok := rs.Match(segs, isDir)
	return ok && !r.Negate
}
