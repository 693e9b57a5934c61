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

package reconcile

import (
	"github.com/blinklabs-io/rollcall/condition"
	"github.com/blinklabs-io/rollcall/database"
	"github.com/blinklabs-io/rollcall/database/models"
)

// Snapshot is the frozen input of one reflection run: the organization,
// contract, its options, course list, and the compiled member filter. A run
// evaluates against the snapshot only, so condition edits made while a run
// is executing do not affect it.
type Snapshot struct {
	Org      models.Organization
	Contract models.Contract
	Option   models.ContractOption
	Details  []models.ContractDetail
	Rules    []condition.RuleSet

	filter    condition.Expr
	hasFilter bool
}

// BuildSnapshot loads and freezes everything a reflection run needs for one
// contract. Additional-info predicates are resolved to user id lists here,
// so the snapshot's filter is self-contained.
func BuildSnapshot(
	db *database.Database,
	orgID uint,
	contractID uint,
) (*Snapshot, error) {
	org, err := db.Organization(orgID, nil)
	if err != nil {
		return nil, err
	}
	contract, err := db.Contract(contractID, nil)
	if err != nil {
		return nil, err
	}
	option, err := db.GetOrCreateContractOption(contractID, 0, nil)
	if err != nil {
		return nil, err
	}
	details, err := db.ContractDetails(contractID, nil)
	if err != nil {
		return nil, err
	}
	rules, err := db.RuleSets(contractID, nil)
	if err != nil {
		return nil, err
	}
	infoNames, err := db.AdditionalInfoNames(contractID, nil)
	if err != nil {
		return nil, err
	}
	filter, ok, err := condition.CompileContractFilter(
		orgID,
		contractID,
		rules,
		infoNames,
		db,
	)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Org:       *org,
		Contract:  *contract,
		Option:    *option,
		Details:   details,
		Rules:     rules,
		filter:    filter,
		hasFilter: ok,
	}, nil
}

// HasConditions reports whether any usable condition exists. A snapshot
// without conditions matches no members.
func (s *Snapshot) HasConditions() bool {
	return s.hasFilter
}

// Filter returns the compiled member filter. The second return is false
// when no usable condition exists.
func (s *Snapshot) Filter() (condition.Expr, bool) {
	return s.filter, s.hasFilter
}

// CourseIDs returns the contract's course list.
func (s *Snapshot) CourseIDs() []string {
	ret := make([]string, 0, len(s.Details))
	for _, detail := range s.Details {
		ret = append(ret, detail.CourseID)
	}
	return ret
}
