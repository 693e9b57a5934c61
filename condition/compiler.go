// Copyright 2025 Blink Labs Software
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

package condition

import (
	"fmt"
	"strings"

	"github.com/blinklabs-io/rollcall/database/models"
)

// NullSentinel is the literal operand that means "attribute is blank or
// absent" for equality and list comparisons.
const NullSentinel = "NULL"

// AdditionalInfoResolver resolves a comparison against a contract-scoped
// additional-info field to the set of matching user ids. The member-level
// predicate then becomes membership in that id list.
type AdditionalInfoResolver interface {
	MatchAdditionalInfoUserIDs(
		contractID uint,
		displayName string,
		cmp Comparison,
		operand string,
	) ([]uint, error)
}

// RuleSet is one parent condition together with its children, the unit the
// contract-level compiler works on.
type RuleSet struct {
	Parent   models.ParentCondition
	Children []models.ChildCondition
}

// CompileMemberFilter translates the children of one parent condition into a
// single conjunctive filter over the member table. The filter always
// includes the implicit active-roster conjuncts for the organization. An
// empty child list returns ok=false, the "no filter" sentinel: callers must
// not treat it as "match everything".
//
// A child whose target cannot be resolved, or whose comparison type is
// unknown, contributes no constraint. The condition degrades to a weaker
// filter instead of failing the compile.
func CompileMemberFilter(
	orgID uint,
	contractID uint,
	children []models.ChildCondition,
	additionalInfoNames []string,
	resolver AdditionalInfoResolver,
) (Expr, bool, error) {
	if len(children) == 0 {
		return nil, false, nil
	}
	filter := And{
		Compare{Column: "org_id", Op: OpExact, Value: orgID},
		Compare{Column: "is_active", Op: OpExact, Value: true},
		Compare{Column: "is_delete", Op: OpExact, Value: false},
	}
	for _, child := range children {
		cmp := Comparison(child.ComparisonType)
		if !cmp.Valid() {
			continue
		}
		target, ok := ParseTarget(child.ComparisonTarget, additionalInfoNames)
		if !ok {
			continue
		}
		expr, ok, err := compileChild(contractID, target, cmp, child.ComparisonString, resolver)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		filter = append(filter, expr)
	}
	return filter, true, nil
}

// CompileContractFilter unions the per-parent filters for every rule set
// under a contract. Parents without children contribute nothing. Zero usable
// parents returns ok=false, meaning "match nothing" (not "match
// everything").
func CompileContractFilter(
	orgID uint,
	contractID uint,
	rules []RuleSet,
	additionalInfoNames []string,
	resolver AdditionalInfoResolver,
) (Expr, bool, error) {
	var union Or
	for _, rule := range rules {
		expr, ok, err := CompileMemberFilter(
			orgID,
			contractID,
			rule.Children,
			additionalInfoNames,
			resolver,
		)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		union = append(union, expr)
	}
	if len(union) == 0 {
		return nil, false, nil
	}
	return union, true, nil
}

func compileChild(
	contractID uint,
	target Target,
	cmp Comparison,
	operand string,
	resolver AdditionalInfoResolver,
) (Expr, bool, error) {
	switch target.Kind {
	case TargetMemberCode:
		return valueExpr("code", cmp, operand, true)
	case TargetOrg:
		return valueExpr(fmt.Sprintf("org%d", target.Index), cmp, operand, true)
	case TargetItem:
		return valueExpr(fmt.Sprintf("item%d", target.Index), cmp, operand, true)
	case TargetUsername:
		return relationExpr("user", "id", "username", cmp, operand)
	case TargetEmail:
		return relationExpr("user", "id", "email", cmp, operand)
	case TargetLoginCode:
		return relationExpr("login_credential", "user_id", "login_code", cmp, operand)
	case TargetGroupName:
		return groupNameExpr(cmp, operand)
	case TargetAdditionalInfo:
		if resolver == nil {
			return nil, false, nil
		}
		ids, err := resolver.MatchAdditionalInfoUserIDs(
			contractID,
			target.Name,
			cmp,
			operand,
		)
		if err != nil {
			return nil, false, err
		}
		return InIDs{Column: "user_id", IDs: ids}, true, nil
	default:
		return nil, false, nil
	}
}

// relationExpr compiles a comparison reached through a 1:1 relation as
// membership in a subquery over the related table.
func relationExpr(
	table, sel, col string,
	cmp Comparison,
	operand string,
) (Expr, bool, error) {
	inner, ok, err := valueExpr(col, cmp, operand, true)
	if err != nil || !ok {
		return nil, ok, err
	}
	return InSubquery{
		Column: "user_id",
		Table:  table,
		Select: sel,
		Where:  inner,
	}, true, nil
}

// groupNameExpr compiles subgroup-name comparisons. The NULL sentinel is
// substituted only for equality here: a member with no subgroup has a NULL
// group reference, and IN/NOT_IN lists keep the literal string. This
// asymmetry is long-standing behavior that stored conditions depend on.
func groupNameExpr(cmp Comparison, operand string) (Expr, bool, error) {
	if operand == NullSentinel {
		switch cmp {
		case ComparisonEqual:
			return IsNull{Column: "group_id"}, true, nil
		case ComparisonNotEqual:
			return Not{X: IsNull{Column: "group_id"}}, true, nil
		}
	}
	inner, ok, err := valueExpr("name", cmp, operand, false)
	if err != nil || !ok {
		return nil, ok, err
	}
	return InSubquery{
		Column: "group_id",
		Table:  "org_group",
		Select: "id",
		Where:  inner,
	}, true, nil
}

// CompileValue compiles a single-column comparison with NULL-sentinel
// substitution, for callers that evaluate a condition outside the member
// table (the additional-info value store).
func CompileValue(col string, cmp Comparison, operand string) (Expr, bool, error) {
	return valueExpr(col, cmp, operand, true)
}

// valueExpr compiles a single-column comparison. When substituteNull is set,
// the NULL sentinel becomes a blank-or-absent predicate for equality and is
// folded into list membership for IN/NOT_IN.
func valueExpr(
	col string,
	cmp Comparison,
	operand string,
	substituteNull bool,
) (Expr, bool, error) {
	switch cmp {
	case ComparisonEqual:
		if substituteNull && operand == NullSentinel {
			return Blank{Column: col}, true, nil
		}
		return Compare{Column: col, Op: OpExact, Value: operand}, true, nil
	case ComparisonNotEqual:
		inner, ok, err := valueExpr(col, ComparisonEqual, operand, substituteNull)
		if err != nil || !ok {
			return nil, ok, err
		}
		return Not{X: inner}, true, nil
	case ComparisonContains:
		return Compare{Column: col, Op: OpContains, Value: operand}, true, nil
	case ComparisonNotContains:
		return Not{X: Compare{Column: col, Op: OpContains, Value: operand}}, true, nil
	case ComparisonStartsWith:
		return Compare{Column: col, Op: OpStartsWith, Value: operand}, true, nil
	case ComparisonEndsWith:
		return Compare{Column: col, Op: OpEndsWith, Value: operand}, true, nil
	case ComparisonIn:
		return inExpr(col, operand, substituteNull), true, nil
	case ComparisonNotIn:
		return Not{X: inExpr(col, operand, substituteNull)}, true, nil
	default:
		return nil, false, nil
	}
}

func inExpr(col, operand string, substituteNull bool) Expr {
	values := strings.Split(operand, ",")
	if !substituteNull {
		return In{Column: col, Values: values}
	}
	kept := make([]string, 0, len(values))
	includeBlank := false
	for _, v := range values {
		if v == NullSentinel {
			includeBlank = true
			continue
		}
		kept = append(kept, v)
	}
	return In{Column: col, Values: kept, IncludeBlank: includeBlank}
}
