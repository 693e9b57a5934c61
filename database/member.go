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
	"fmt"

	"github.com/blinklabs-io/rollcall/condition"
	"github.com/blinklabs-io/rollcall/database/models"
	"gorm.io/gorm"
)

// ActiveMembers returns the current roster of an organization.
func (d *Database) ActiveMembers(
	orgID uint,
	txn *gorm.DB,
) ([]models.Member, error) {
	if txn == nil {
		txn = d.DB()
	}
	var ret []models.Member
	result := txn.
		Where("org_id = ? AND is_active = ? AND is_delete = ?", orgID, true, false).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// ActiveMemberCount returns the size of the current roster of an
// organization.
func (d *Database) ActiveMemberCount(
	orgID uint,
	txn *gorm.DB,
) (int64, error) {
	if txn == nil {
		txn = d.DB()
	}
	var count int64
	result := txn.Model(&models.Member{}).
		Where("org_id = ? AND is_active = ? AND is_delete = ?", orgID, true, false).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// DeletePendingMembers returns the members flagged for removal, awaiting
// mask and purge.
func (d *Database) DeletePendingMembers(
	orgID uint,
	txn *gorm.DB,
) ([]models.Member, error) {
	if txn == nil {
		txn = d.DB()
	}
	var ret []models.Member
	result := txn.
		Where("org_id = ? AND is_active = ? AND is_delete = ?", orgID, false, true).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// MembersMatching returns the members selected by a compiled filter
// expression, ordered by member code.
func (d *Database) MembersMatching(
	filter condition.Expr,
	txn *gorm.DB,
) ([]models.Member, error) {
	if txn == nil {
		txn = d.DB()
	}
	sql, args := filter.SQL()
	var ret []models.Member
	result := txn.
		Where(sql, args...).
		Order("code").
		Find(&ret)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query members: %w", result.Error)
	}
	return ret, nil
}

// CountMembersMatching returns the size of the matched set for a compiled
// filter expression without loading the rows.
func (d *Database) CountMembersMatching(
	filter condition.Expr,
	txn *gorm.DB,
) (int64, error) {
	if txn == nil {
		txn = d.DB()
	}
	sql, args := filter.SQL()
	var count int64
	result := txn.Model(&models.Member{}).
		Where(sql, args...).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count members: %w", result.Error)
	}
	return count, nil
}

// PurgeMemberRows removes a user's backup and delete-pending member rows for
// an organization. Used after masking so the cleanup is final.
func (d *Database) PurgeMemberRows(
	orgID uint,
	userID uint,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.
		Where("org_id = ? AND user_id = ? AND is_active = ?", orgID, userID, false).
		Delete(&models.Member{})
	return result.Error
}

// MoveActiveToBackup flips the current roster of an organization to backup
// rows ahead of a roster import.
func (d *Database) MoveActiveToBackup(
	orgID uint,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Model(&models.Member{}).
		Where("org_id = ? AND is_active = ?", orgID, true).
		Update("is_active", false)
	return result.Error
}

// DeleteBackupMembers removes the backup rows of an organization.
func (d *Database) DeleteBackupMembers(
	orgID uint,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.
		Where("org_id = ? AND is_active = ? AND is_delete = ?", orgID, false, false).
		Delete(&models.Member{})
	return result.Error
}

// CreateMember inserts a roster row.
func (d *Database) CreateMember(
	member *models.Member,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Create(member)
	return result.Error
}

// SaveMember persists changes to a roster row.
func (d *Database) SaveMember(
	member *models.Member,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Save(member)
	return result.Error
}
