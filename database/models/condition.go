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

package models

import "time"

// ParentCondition setting types. The type only affects how the owning UI
// edits the condition, not how it evaluates.
const (
	SettingTypeSimple   = 1
	SettingTypeAdvanced = 2
)

// ParentCondition is one named rule-set for a contract. Its children are
// AND-ed together; parents are OR-ed across the contract. A parent with zero
// children contributes nothing to evaluation.
type ParentCondition struct {
	ID          uint   `gorm:"primarykey"`
	ContractID  uint   `gorm:"index"`
	Name        string `gorm:"size:255"`
	SettingType int
	CreatedAt   time.Time
	CreatedBy   uint
	ModifiedAt  *time.Time
	ModifiedBy  uint
}

func (ParentCondition) TableName() string {
	return "parent_condition"
}

// ChildCondition is a single predicate: a comparison target, a comparison
// type, and the literal (or comma-separated list) operand. The contract
// reference is denormalized for query efficiency.
type ChildCondition struct {
	ID                uint   `gorm:"primarykey"`
	ContractID        uint   `gorm:"index"`
	ParentConditionID uint   `gorm:"index"`
	ParentName        string `gorm:"size:255"`
	ComparisonTarget  string `gorm:"size:255"`
	ComparisonType    int
	ComparisonString  string
}

func (ChildCondition) TableName() string {
	return "child_condition"
}
