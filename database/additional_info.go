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
	"github.com/blinklabs-io/rollcall/condition"
	"github.com/blinklabs-io/rollcall/database/models"
)

// MatchAdditionalInfoUserIDs resolves an additional-info predicate to the
// ids of users whose stored value matches. Predicates over these settings
// cannot be expressed as a column filter on the member table, so they are
// pre-resolved to an id list before the member query runs.
func (d *Database) MatchAdditionalInfoUserIDs(
	contractID uint,
	displayName string,
	cmp condition.Comparison,
	operand string,
) ([]uint, error) {
	expr, ok, err := condition.CompileValue("value", cmp, operand)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	sql, args := expr.SQL()
	query := d.DB().Model(&models.AdditionalInfoSetting{}).
		Where("contract_id = ? AND display_name = ?", contractID, displayName).
		Where(sql, args...)
	var ret []uint
	result := query.Order("user_id").Pluck("user_id", &ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SaveAdditionalInfoSetting upserts one user's value for an additional
// info item.
func (d *Database) SaveAdditionalInfoSetting(
	contractID uint,
	userID uint,
	displayName string,
	value string,
) error {
	setting := &models.AdditionalInfoSetting{}
	result := d.DB().
		Where(models.AdditionalInfoSetting{
			ContractID:  contractID,
			UserID:      userID,
			DisplayName: displayName,
		}).
		FirstOrCreate(setting)
	if result.Error != nil {
		return result.Error
	}
	setting.Value = value
	return d.DB().Save(setting).Error
}
