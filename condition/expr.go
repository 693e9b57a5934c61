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
	"strings"
)

// Expr is one node of a member filter expression. The tree is built in
// memory and only rendered to SQL at the storage edge, so the compiler can
// be tested without a database.
type Expr interface {
	// SQL renders the node as a parameterized SQL fragment.
	SQL() (string, []any)
}

// CompareOp is the base operator of a Compare node.
type CompareOp int

const (
	OpExact CompareOp = iota + 1
	OpContains
	OpStartsWith
	OpEndsWith
)

// And is the conjunction of its operands. An empty conjunction matches
// everything.
type And []Expr

func (a And) SQL() (string, []any) {
	return joinExprs(a, " AND ", "1 = 1")
}

// Or is the disjunction of its operands. An empty disjunction matches
// nothing.
type Or []Expr

func (o Or) SQL() (string, []any) {
	return joinExprs(o, " OR ", "1 = 0")
}

func joinExprs(exprs []Expr, sep, empty string) (string, []any) {
	if len(exprs) == 0 {
		return empty, nil
	}
	var parts []string
	var args []any
	for _, e := range exprs {
		sql, a := e.SQL()
		parts = append(parts, "("+sql+")")
		args = append(args, a...)
	}
	return strings.Join(parts, sep), args
}

// Not negates its operand.
type Not struct {
	X Expr
}

func (n Not) SQL() (string, []any) {
	sql, args := n.X.SQL()
	return "NOT (" + sql + ")", args
}

// Compare is a single column comparison.
type Compare struct {
	Value  any
	Column string
	Op     CompareOp
}

func (c Compare) SQL() (string, []any) {
	switch c.Op {
	case OpContains:
		return c.Column + " LIKE ? ESCAPE '\\'", []any{"%" + escapeLike(c.Value) + "%"}
	case OpStartsWith:
		return c.Column + " LIKE ? ESCAPE '\\'", []any{escapeLike(c.Value) + "%"}
	case OpEndsWith:
		return c.Column + " LIKE ? ESCAPE '\\'", []any{"%" + escapeLike(c.Value)}
	default:
		return c.Column + " = ?", []any{c.Value}
	}
}

func escapeLike(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// In is a set-membership test. IncludeBlank extends the set with the
// blank-or-absent value (the compiled form of the NULL sentinel inside a
// list).
type In struct {
	Column       string
	Values       []string
	IncludeBlank bool
}

func (i In) SQL() (string, []any) {
	var parts []string
	var args []any
	if len(i.Values) > 0 {
		placeholders := strings.TrimSuffix(
			strings.Repeat("?, ", len(i.Values)),
			", ",
		)
		parts = append(parts, i.Column+" IN ("+placeholders+")")
		for _, v := range i.Values {
			args = append(args, v)
		}
	}
	if i.IncludeBlank {
		parts = append(parts, i.Column+" IS NULL", i.Column+" = ''")
	}
	if len(parts) == 0 {
		return "1 = 0", nil
	}
	return strings.Join(parts, " OR "), args
}

// InIDs is membership in an explicit id list, used for predicates resolved
// outside the member table (additional-info matches).
type InIDs struct {
	Column string
	IDs    []uint
}

func (i InIDs) SQL() (string, []any) {
	if len(i.IDs) == 0 {
		return "1 = 0", nil
	}
	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(i.IDs)),
		", ",
	)
	args := make([]any, 0, len(i.IDs))
	for _, id := range i.IDs {
		args = append(args, id)
	}
	return i.Column + " IN (" + placeholders + ")", args
}

// InSubquery is membership in a single-column subquery over another table,
// used for predicates that reach through a relation (user, login credential,
// subgroup).
type InSubquery struct {
	Where  Expr
	Column string
	Table  string
	Select string
}

func (i InSubquery) SQL() (string, []any) {
	where, args := i.Where.SQL()
	sql := i.Column + " IN (SELECT " + i.Select + " FROM " + i.Table +
		" WHERE " + where + ")"
	return sql, args
}

// Blank matches a blank or absent column value. This is the compiled form of
// the NULL sentinel for equality comparisons.
type Blank struct {
	Column string
}

func (b Blank) SQL() (string, []any) {
	return "(" + b.Column + " IS NULL OR " + b.Column + " = '')", nil
}

// IsNull matches an absent relation (a member with no subgroup).
type IsNull struct {
	Column string
}

func (n IsNull) SQL() (string, []any) {
	return n.Column + " IS NULL", nil
}
