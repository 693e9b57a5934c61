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

// Package condition implements the membership rule language: comparison
// targets and operators, the filter expression tree, and the compiler that
// turns persisted child conditions into a single member filter.
package condition

import (
	"fmt"
	"strconv"
	"strings"
)

// Comparison is the closed set of condition operators. The numeric values
// are the persisted form.
type Comparison int

const (
	ComparisonEqual Comparison = iota + 1
	ComparisonNotEqual
	ComparisonContains
	ComparisonNotContains
	ComparisonStartsWith
	ComparisonEndsWith
	ComparisonIn
	ComparisonNotIn
)

// Valid returns true for a known comparison operator.
func (c Comparison) Valid() bool {
	return c >= ComparisonEqual && c <= ComparisonNotIn
}

func (c Comparison) String() string {
	switch c {
	case ComparisonEqual:
		return "equal"
	case ComparisonNotEqual:
		return "not equal"
	case ComparisonContains:
		return "contains"
	case ComparisonNotContains:
		return "not contains"
	case ComparisonStartsWith:
		return "starts with"
	case ComparisonEndsWith:
		return "ends with"
	case ComparisonIn:
		return "in"
	case ComparisonNotIn:
		return "not in"
	default:
		return fmt.Sprintf("unknown (%d)", int(c))
	}
}

// TargetKind is the closed set of attribute families a condition can compare
// against.
type TargetKind int

const (
	TargetUsername TargetKind = iota + 1
	TargetEmail
	TargetLoginCode
	TargetMemberCode
	TargetGroupName
	TargetOrg
	TargetItem
	TargetAdditionalInfo
)

// Target identifies one concrete comparison target. Index is the slot for
// the org/item families (1-10); Name is the display name for contract-scoped
// additional-info fields.
type Target struct {
	Name  string
	Kind  TargetKind
	Index int
}

// Persisted target names for the fixed attribute families.
const (
	targetNameUsername  = "username"
	targetNameEmail     = "email"
	targetNameLoginCode = "login_code"
	targetNameCode      = "code"
	targetNameGroupName = "group_name"
)

// NumGenericSlots is the number of generic org and item attributes on a
// member record.
const NumGenericSlots = 10

// ParseTarget resolves the persisted string form of a comparison target. The
// additionalInfoNames list scopes which free-form names are valid for the
// contract being compiled. Unknown targets return ok=false; callers drop the
// predicate rather than failing the compile.
func ParseTarget(s string, additionalInfoNames []string) (Target, bool) {
	switch s {
	case targetNameUsername:
		return Target{Kind: TargetUsername}, true
	case targetNameEmail:
		return Target{Kind: TargetEmail}, true
	case targetNameLoginCode:
		return Target{Kind: TargetLoginCode}, true
	case targetNameCode:
		return Target{Kind: TargetMemberCode}, true
	case targetNameGroupName:
		return Target{Kind: TargetGroupName}, true
	}
	for _, prefix := range []string{"org", "item"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			idx, err := strconv.Atoi(rest)
			if err == nil && idx >= 1 && idx <= NumGenericSlots {
				kind := TargetOrg
				if prefix == "item" {
					kind = TargetItem
				}
				return Target{Kind: kind, Index: idx}, true
			}
		}
	}
	for _, name := range additionalInfoNames {
		if s == name {
			return Target{Kind: TargetAdditionalInfo, Name: name}, true
		}
	}
	return Target{}, false
}

// String returns the persisted form of the target.
func (t Target) String() string {
	switch t.Kind {
	case TargetUsername:
		return targetNameUsername
	case TargetEmail:
		return targetNameEmail
	case TargetLoginCode:
		return targetNameLoginCode
	case TargetMemberCode:
		return targetNameCode
	case TargetGroupName:
		return targetNameGroupName
	case TargetOrg:
		return fmt.Sprintf("org%d", t.Index)
	case TargetItem:
		return fmt.Sprintf("item%d", t.Index)
	case TargetAdditionalInfo:
		return t.Name
	default:
		return ""
	}
}

// IsFixed returns true for targets that map to fixed member attributes, as
// opposed to contract-scoped additional-info fields. Used when copying
// conditions between contracts, where additional-info names do not carry
// over.
func (t Target) IsFixed() bool {
	return t.Kind != TargetAdditionalInfo && t.Kind != 0
}
