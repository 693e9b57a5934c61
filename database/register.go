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

	"github.com/blinklabs-io/rollcall/database/models"
	"gorm.io/gorm"
)

// RegistersForUsers returns the registration rows of a contract for the
// given users, excluding rows already in the given status. Pass an empty
// excludeStatus to return all rows.
func (d *Database) RegistersForUsers(
	contractID uint,
	userIDs []uint,
	excludeStatus string,
	txn *gorm.DB,
) ([]models.ContractRegister, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	if txn == nil {
		txn = d.DB()
	}
	query := txn.Where("contract_id = ? AND user_id IN ?", contractID, userIDs)
	if excludeStatus != "" {
		query = query.Where("status <> ?", excludeStatus)
	}
	var ret []models.ContractRegister
	result := query.Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// HasRegisterWithStatus reports whether a registration row with the given
// status exists for (contract, user).
func (d *Database) HasRegisterWithStatus(
	contractID uint,
	userID uint,
	status string,
	txn *gorm.DB,
) (bool, error) {
	if txn == nil {
		txn = d.DB()
	}
	var count int64
	result := txn.Model(&models.ContractRegister{}).
		Where("contract_id = ? AND user_id = ? AND status = ?", contractID, userID, status).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// GetOrCreateRegister fetches the registration row for (contract, user),
// creating it in the initial status when absent.
func (d *Database) GetOrCreateRegister(
	contractID uint,
	userID uint,
	txn *gorm.DB,
) (*models.ContractRegister, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.ContractRegister{}
	result := txn.
		Where(models.ContractRegister{ContractID: contractID, UserID: userID}).
		Attrs(models.ContractRegister{Status: models.RegisterStatusInput}).
		FirstOrCreate(ret)
	if result.Error != nil {
		return nil, fmt.Errorf(
			"failed to find or create contract register: %w",
			result.Error,
		)
	}
	return ret, nil
}

// SaveRegister persists changes to a registration row.
func (d *Database) SaveRegister(
	register *models.ContractRegister,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Save(register)
	return result.Error
}

// Register gets the registration row for (contract, user), or nil when the
// user was never registered.
func (d *Database) Register(
	contractID uint,
	userID uint,
	txn *gorm.DB,
) (*models.ContractRegister, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.ContractRegister{}
	result := txn.
		Where("contract_id = ? AND user_id = ?", contractID, userID).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}
