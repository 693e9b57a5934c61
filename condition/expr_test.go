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

package condition_test

import (
	"testing"

	"github.com/blinklabs-io/rollcall/condition"
	"github.com/stretchr/testify/assert"
)

func TestAndSQL(t *testing.T) {
	sql, args := condition.And{}.SQL()
	assert.Equal(t, "1 = 1", sql)
	assert.Empty(t, args)

	sql, args = condition.And{
		condition.Compare{Column: "code", Op: condition.OpExact, Value: "A1"},
		condition.Compare{Column: "org1", Op: condition.OpExact, Value: "sales"},
	}.SQL()
	assert.Equal(t, "(code = ?) AND (org1 = ?)", sql)
	assert.Equal(t, []any{"A1", "sales"}, args)
}

func TestOrSQL(t *testing.T) {
	sql, args := condition.Or{}.SQL()
	assert.Equal(t, "1 = 0", sql)
	assert.Empty(t, args)

	sql, args = condition.Or{
		condition.Compare{Column: "code", Op: condition.OpExact, Value: "A1"},
		condition.Compare{Column: "code", Op: condition.OpExact, Value: "A2"},
	}.SQL()
	assert.Equal(t, "(code = ?) OR (code = ?)", sql)
	assert.Equal(t, []any{"A1", "A2"}, args)
}

func TestNotSQL(t *testing.T) {
	sql, args := condition.Not{
		X: condition.Compare{Column: "code", Op: condition.OpExact, Value: "A1"},
	}.SQL()
	assert.Equal(t, "NOT (code = ?)", sql)
	assert.Equal(t, []any{"A1"}, args)
}

func TestCompareSQL(t *testing.T) {
	testDefs := []struct {
		name     string
		expr     condition.Compare
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "exact",
			expr:     condition.Compare{Column: "code", Op: condition.OpExact, Value: "A1"},
			wantSQL:  "code = ?",
			wantArgs: []any{"A1"},
		},
		{
			name:     "contains",
			expr:     condition.Compare{Column: "org1", Op: condition.OpContains, Value: "sale"},
			wantSQL:  "org1 LIKE ? ESCAPE '\\'",
			wantArgs: []any{"%sale%"},
		},
		{
			name:     "starts with",
			expr:     condition.Compare{Column: "org1", Op: condition.OpStartsWith, Value: "sale"},
			wantSQL:  "org1 LIKE ? ESCAPE '\\'",
			wantArgs: []any{"sale%"},
		},
		{
			name:     "ends with",
			expr:     condition.Compare{Column: "org1", Op: condition.OpEndsWith, Value: "dept"},
			wantSQL:  "org1 LIKE ? ESCAPE '\\'",
			wantArgs: []any{"%dept"},
		},
		{
			name:     "wildcards escaped",
			expr:     condition.Compare{Column: "org1", Op: condition.OpContains, Value: `50%_a\b`},
			wantSQL:  "org1 LIKE ? ESCAPE '\\'",
			wantArgs: []any{`%50\%\_a\\b%`},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			sql, args := testDef.expr.SQL()
			assert.Equal(t, testDef.wantSQL, sql)
			assert.Equal(t, testDef.wantArgs, args)
		})
	}
}

func TestInSQL(t *testing.T) {
	sql, args := condition.In{Column: "code", Values: []string{"A1", "A2"}}.SQL()
	assert.Equal(t, "code IN (?, ?)", sql)
	assert.Equal(t, []any{"A1", "A2"}, args)

	sql, args = condition.In{
		Column:       "code",
		Values:       []string{"A1"},
		IncludeBlank: true,
	}.SQL()
	assert.Equal(t, "code IN (?) OR code IS NULL OR code = ''", sql)
	assert.Equal(t, []any{"A1"}, args)

	sql, args = condition.In{Column: "code", IncludeBlank: true}.SQL()
	assert.Equal(t, "code IS NULL OR code = ''", sql)
	assert.Empty(t, args)

	sql, args = condition.In{Column: "code"}.SQL()
	assert.Equal(t, "1 = 0", sql)
	assert.Empty(t, args)
}

func TestInIDsSQL(t *testing.T) {
	sql, args := condition.InIDs{Column: "user_id", IDs: []uint{3, 7}}.SQL()
	assert.Equal(t, "user_id IN (?, ?)", sql)
	assert.Equal(t, []any{uint(3), uint(7)}, args)

	sql, args = condition.InIDs{Column: "user_id"}.SQL()
	assert.Equal(t, "1 = 0", sql)
	assert.Empty(t, args)
}

func TestInSubquerySQL(t *testing.T) {
	sql, args := condition.InSubquery{
		Column: "user_id",
		Table:  "user",
		Select: "id",
		Where:  condition.Compare{Column: "username", Op: condition.OpExact, Value: "alice"},
	}.SQL()
	assert.Equal(
		t,
		"user_id IN (SELECT id FROM user WHERE username = ?)",
		sql,
	)
	assert.Equal(t, []any{"alice"}, args)
}

func TestBlankSQL(t *testing.T) {
	sql, args := condition.Blank{Column: "org1"}.SQL()
	assert.Equal(t, "(org1 IS NULL OR org1 = '')", sql)
	assert.Empty(t, args)
}

func TestIsNullSQL(t *testing.T) {
	sql, args := condition.IsNull{Column: "group_id"}.SQL()
	assert.Equal(t, "group_id IS NULL", sql)
	assert.Empty(t, args)
}
