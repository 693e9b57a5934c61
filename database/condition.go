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

package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/rollcall/condition"
	"github.com/blinklabs-io/rollcall/database/models"
	"gorm.io/gorm"
)

var ErrConditionNotFound = errors.New("condition not found")

// DefaultConditionName is the placeholder name given to freshly created or
// reset parent conditions.
const DefaultConditionName = "Unknown condition"

// RuleSets loads every parent condition of a contract together with its
// children, in creation order.
func (d *Database) RuleSets(
	contractID uint,
	txn *gorm.DB,
) ([]condition.RuleSet, error) {
	if txn == nil {
		txn = d.DB()
	}
	var parents []models.ParentCondition
	result := txn.
		Where("contract_id = ?", contractID).
		Order("id").
		Find(&parents)
	if result.Error != nil {
		return nil, result.Error
	}
	ret := make([]condition.RuleSet, 0, len(parents))
	for _, parent := range parents {
		children, err := d.ChildConditions(parent.ID, txn)
		if err != nil {
			return nil, err
		}
		ret = append(ret, condition.RuleSet{
			Parent:   parent,
			Children: children,
		})
	}
	return ret, nil
}

// ParentCondition gets a parent condition by id.
func (d *Database) ParentCondition(
	id uint,
	txn *gorm.DB,
) (*models.ParentCondition, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.ParentCondition{}
	result := txn.First(ret, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConditionNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// ChildConditions returns the children of a parent condition.
func (d *Database) ChildConditions(
	parentID uint,
	txn *gorm.DB,
) ([]models.ChildCondition, error) {
	if txn == nil {
		txn = d.DB()
	}
	var ret []models.ChildCondition
	result := txn.
		Where("parent_condition_id = ?", parentID).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// ChildConditionCount returns the number of child conditions stored for a
// contract across all parents.
func (d *Database) ChildConditionCount(
	contractID uint,
	txn *gorm.DB,
) (int64, error) {
	if txn == nil {
		txn = d.DB()
	}
	var count int64
	result := txn.Model(&models.ChildCondition{}).
		Where("contract_id = ?", contractID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// CreateParentCondition adds a new, empty parent condition for a contract.
func (d *Database) CreateParentCondition(
	contractID uint,
	name string,
	settingType int,
	createdBy uint,
	txn *gorm.DB,
) (*models.ParentCondition, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.ParentCondition{
		ContractID:  contractID,
		Name:        name,
		SettingType: settingType,
		CreatedBy:   createdBy,
	}
	result := txn.Create(ret)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create condition: %w", result.Error)
	}
	return ret, nil
}

// SaveCondition replaces the children of a parent condition and updates the
// parent's name and setting type, as one transaction.
func (d *Database) SaveCondition(
	parentID uint,
	name string,
	settingType int,
	children []models.ChildCondition,
	modifiedBy uint,
) error {
	return d.Transaction(func(txn *gorm.DB) error {
		parent, err := d.ParentCondition(parentID, txn)
		if err != nil {
			return err
		}
		if result := txn.
			Where("parent_condition_id = ?", parentID).
			Delete(&models.ChildCondition{}); result.Error != nil {
			return result.Error
		}
		for i := range children {
			children[i].ID = 0
			children[i].ContractID = parent.ContractID
			children[i].ParentConditionID = parentID
			children[i].ParentName = name
			if result := txn.Create(&children[i]); result.Error != nil {
				return result.Error
			}
		}
		now := time.Now()
		parent.Name = name
		parent.SettingType = settingType
		parent.ModifiedAt = &now
		parent.ModifiedBy = modifiedBy
		return txn.Save(parent).Error
	})
}

// DeleteCondition removes a parent condition and its children. When the
// caller confirms resetAuto and this was the contract's last active
// condition, the contract option's auto-register flag and any pending
// reservation date are cleared as well, since nothing is left to evaluate.
func (d *Database) DeleteCondition(
	parentID uint,
	resetAuto bool,
) error {
	return d.Transaction(func(txn *gorm.DB) error {
		parent, err := d.ParentCondition(parentID, txn)
		if err != nil {
			return err
		}
		remaining, err := d.ActiveConditionCountExcluding(
			parent.ContractID,
			parentID,
			txn,
		)
		if err != nil {
			return err
		}
		if result := txn.
			Where("parent_condition_id = ?", parentID).
			Delete(&models.ChildCondition{}); result.Error != nil {
			return result.Error
		}
		if result := txn.Delete(&models.ParentCondition{}, parentID); result.Error != nil {
			return result.Error
		}
		if remaining == 0 && resetAuto {
			result := txn.Model(&models.ContractOption{}).
				Where("contract_id = ?", parent.ContractID).
				Updates(map[string]any{
					"auto_register_students": false,
					"reservation_date":       nil,
				})
			if result.Error != nil {
				return result.Error
			}
		}
		return nil
	})
}

// ActiveConditionCountExcluding counts the parent conditions of a contract
// that have at least one child, excluding the given parent id. The owning UI
// uses this to warn when deleting the last condition would disable automatic
// registration.
func (d *Database) ActiveConditionCountExcluding(
	contractID uint,
	excludeParentID uint,
	txn *gorm.DB,
) (int64, error) {
	if txn == nil {
		txn = d.DB()
	}
	var count int64
	result := txn.Model(&models.ParentCondition{}).
		Where("contract_id = ? AND id <> ?", contractID, excludeParentID).
		Where("id IN (SELECT parent_condition_id FROM child_condition)").
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// CopyConditions replaces the condition set of a contract with the one from
// another contract. Parents whose children reference targets that do not
// carry over (contract-scoped additional-info fields) are reset to an empty
// placeholder condition and their names returned, so the caller can report
// what was skipped.
func (d *Database) CopyConditions(
	fromContractID uint,
	toContractID uint,
	actor uint,
) ([]string, error) {
	var skipped []string
	err := d.Transaction(func(txn *gorm.DB) error {
		// Wholesale replace on the destination
		if result := txn.
			Where("contract_id = ?", toContractID).
			Delete(&models.ChildCondition{}); result.Error != nil {
			return result.Error
		}
		if result := txn.
			Where("contract_id = ?", toContractID).
			Delete(&models.ParentCondition{}); result.Error != nil {
			return result.Error
		}
		rules, err := d.RuleSets(fromContractID, txn)
		if err != nil {
			return err
		}
		for _, rule := range rules {
			copyable := true
			for _, child := range rule.Children {
				target, ok := condition.ParseTarget(child.ComparisonTarget, nil)
				if !ok || !target.IsFixed() {
					copyable = false
					break
				}
			}
			name := rule.Parent.Name
			settingType := rule.Parent.SettingType
			if !copyable {
				skipped = append(skipped, name)
				name = DefaultConditionName
				settingType = models.SettingTypeSimple
			}
			parent, err := d.CreateParentCondition(
				toContractID,
				name,
				settingType,
				actor,
				txn,
			)
			if err != nil {
				return err
			}
			if !copyable {
				continue
			}
			for _, child := range rule.Children {
				newChild := models.ChildCondition{
					ContractID:        toContractID,
					ParentConditionID: parent.ID,
					ParentName:        name,
					ComparisonTarget:  child.ComparisonTarget,
					ComparisonType:    child.ComparisonType,
					ComparisonString:  child.ComparisonString,
				}
				if result := txn.Create(&newChild); result.Error != nil {
					return result.Error
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return skipped, nil
}
