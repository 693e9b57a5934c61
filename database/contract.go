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

	"github.com/blinklabs-io/rollcall/database/models"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrContractNotFound     = errors.New("contract not found")
	ErrUserNotFound         = errors.New("user not found")

	// ErrPastReservationDate is returned when scheduling a reservation for
	// a date that has already passed.
	ErrPastReservationDate = errors.New("reservation date is in the past")

	// ErrReservationDateSet is returned when toggling automatic
	// registration while a reservation date is pending.
	ErrReservationDateSet = errors.New("a reservation date is pending")
)

// Organization gets an organization by id.
func (d *Database) Organization(
	id uint,
	txn *gorm.DB,
) (*models.Organization, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.Organization{}
	result := txn.First(ret, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// Organizations returns every organization except the one with the given
// code. The platform-owner organization is excluded from scheduled
// reflection this way.
func (d *Database) Organizations(
	excludeCode string,
	txn *gorm.DB,
) ([]models.Organization, error) {
	if txn == nil {
		txn = d.DB()
	}
	var ret []models.Organization
	result := txn.
		Where("code <> ?", excludeCode).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// Contract gets a contract by id.
func (d *Database) Contract(
	id uint,
	txn *gorm.DB,
) (*models.Contract, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.Contract{}
	result := txn.First(ret, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// ContractsByOrg returns the contracts of a contractor organization.
func (d *Database) ContractsByOrg(
	orgID uint,
	txn *gorm.DB,
) ([]models.Contract, error) {
	if txn == nil {
		txn = d.DB()
	}
	var ret []models.Contract
	result := txn.
		Where("contractor_org_id = ?", orgID).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// ContractDetails returns the course list of a contract.
func (d *Database) ContractDetails(
	contractID uint,
	txn *gorm.DB,
) ([]models.ContractDetail, error) {
	if txn == nil {
		txn = d.DB()
	}
	var ret []models.ContractDetail
	result := txn.
		Where("contract_id = ?", contractID).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// AdditionalInfoNames returns the contract-scoped custom field names valid
// as comparison targets for a contract.
func (d *Database) AdditionalInfoNames(
	contractID uint,
	txn *gorm.DB,
) ([]string, error) {
	if txn == nil {
		txn = d.DB()
	}
	var ret []string
	result := txn.Model(&models.AdditionalInfo{}).
		Where("contract_id = ?", contractID).
		Order("id").
		Pluck("display_name", &ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// GetOrCreateContractOption fetches the option row for a contract, creating
// it with defaults on first use.
func (d *Database) GetOrCreateContractOption(
	contractID uint,
	modifiedBy uint,
	txn *gorm.DB,
) (*models.ContractOption, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.ContractOption{}
	result := txn.
		Where(models.ContractOption{ContractID: contractID}).
		Attrs(models.ContractOption{ModifiedBy: modifiedBy}).
		FirstOrCreate(ret)
	if result.Error != nil {
		return nil, fmt.Errorf(
			"failed to find or create contract option: %w",
			result.Error,
		)
	}
	return ret, nil
}

// SaveContractOption persists changes to a contract option row.
func (d *Database) SaveContractOption(
	option *models.ContractOption,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Save(option)
	return result.Error
}

// SetReservationDate schedules a one-shot reflection of a contract. Dates
// before today are refused.
func (d *Database) SetReservationDate(
	contractID uint,
	date time.Time,
	modifiedBy uint,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	now := time.Now()
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return ErrPastReservationDate
	}
	option, err := d.GetOrCreateContractOption(contractID, modifiedBy, txn)
	if err != nil {
		return err
	}
	option.ReservationDate = &date
	option.ModifiedBy = modifiedBy
	return d.SaveContractOption(option, txn)
}

// SetAutoRegister toggles automatic registration for a contract. The flag
// cannot change while a reservation date is pending.
func (d *Database) SetAutoRegister(
	contractID uint,
	enabled bool,
	modifiedBy uint,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	option, err := d.GetOrCreateContractOption(contractID, modifiedBy, txn)
	if err != nil {
		return err
	}
	if option.ReservationDate != nil {
		return ErrReservationDateSet
	}
	option.AutoRegisterStudents = enabled
	option.ModifiedBy = modifiedBy
	return d.SaveContractOption(option, txn)
}

// ClearReservationDate removes the one-shot reservation date of a contract
// after the reservation run has happened.
func (d *Database) ClearReservationDate(
	contractID uint,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Model(&models.ContractOption{}).
		Where("contract_id = ?", contractID).
		Update("reservation_date", nil)
	return result.Error
}

// User gets a user by id.
func (d *Database) User(
	id uint,
	txn *gorm.DB,
) (*models.User, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.User{}
	result := txn.First(ret, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// LoginCredentialByUser gets a user's login credential, or nil when the user
// has none.
func (d *Database) LoginCredentialByUser(
	userID uint,
	txn *gorm.DB,
) (*models.LoginCredential, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.LoginCredential{}
	result := txn.Where("user_id = ?", userID).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// ContractMailTemplate returns the registration mail template for a contract
// and mail type, falling back to the platform default row (contract id 0)
// when the contract has no customized template.
func (d *Database) ContractMailTemplate(
	contractID uint,
	mailType string,
	txn *gorm.DB,
) (*models.ContractMail, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.ContractMail{}
	result := txn.
		Where("contract_id = ? AND mail_type = ?", contractID, mailType).
		First(ret)
	if result.Error == nil {
		return ret, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}
	result = txn.
		Where("contract_id = ? AND mail_type = ?", 0, mailType).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}
