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

// Contract kinds. SPOC kinds carry a fixed course list in ContractDetail;
// the gacco-service kind does not.
const (
	ContractTypePF           = "PF"
	ContractTypeOwners       = "O"
	ContractTypeGaccoService = "GS"
	ContractTypeOwnerService = "OS"
)

// Contract is a B2B agreement scoping a set of courses and members for one
// contractor organization.
type Contract struct {
	ID              uint   `gorm:"primarykey"`
	ContractorOrgID uint   `gorm:"index"`
	Name            string `gorm:"size:255"`
	ContractType    string `gorm:"size:255"`
	InvitationCode  string `gorm:"uniqueIndex;size:255"`
	// HasAuth marks contracts whose members authenticate with a login code.
	HasAuth bool
	// SendMail allows registration mail for login-code contracts.
	SendMail  bool
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Contract) TableName() string {
	return "contract"
}

// SpocAvailable returns true for contract kinds with a fixed course list.
func (c *Contract) SpocAvailable() bool {
	switch c.ContractType {
	case ContractTypePF, ContractTypeOwners, ContractTypeOwnerService:
		return true
	default:
		return false
	}
}

// CanSendMail returns true when registration mail may be sent for this
// contract.
func (c *Contract) CanSendMail() bool {
	return !c.HasAuth || c.SendMail
}

// ContractOption holds the mutable per-contract switches controlled from the
// condition administration surface. Created on first use.
type ContractOption struct {
	ID         uint `gorm:"primarykey"`
	ContractID uint `gorm:"uniqueIndex"`
	// AutoRegisterStudents enables the scheduled reflection batch for this
	// contract.
	AutoRegisterStudents bool
	// ReservationDate schedules a one-shot reflection run on that day.
	ReservationDate *time.Time
	CustomizeMail   bool
	ModifiedBy      uint
	UpdatedAt       time.Time
}

func (ContractOption) TableName() string {
	return "contract_option"
}

// ContractDetail is one course attached to a contract, with the default
// enrollment mode applied on registration.
type ContractDetail struct {
	ID         uint   `gorm:"primarykey"`
	ContractID uint   `gorm:"index"`
	CourseID   string `gorm:"index;size:255"`
	Mode       string `gorm:"size:100;default:honor"`
}

func (ContractDetail) TableName() string {
	return "contract_detail"
}

// AdditionalInfo declares a contract-scoped custom field name that may be
// used as a comparison target in reflection conditions.
type AdditionalInfo struct {
	ID          uint   `gorm:"primarykey"`
	ContractID  uint   `gorm:"index"`
	DisplayName string `gorm:"index;size:255"`
}

func (AdditionalInfo) TableName() string {
	return "additional_info"
}

// AdditionalInfoSetting is one user's value for a contract-scoped custom
// field.
type AdditionalInfoSetting struct {
	ID          uint   `gorm:"primarykey"`
	ContractID  uint   `gorm:"index"`
	UserID      uint   `gorm:"index"`
	DisplayName string `gorm:"index;size:255"`
	Value       string `gorm:"size:255"`
}

func (AdditionalInfoSetting) TableName() string {
	return "additional_info_setting"
}

// ContractMail mail types.
const (
	MailTypeRegisterNewUser               = "RNU"
	MailTypeRegisterExistingUser          = "REU"
	MailTypeRegisterExistingUserLoginCode = "REUWLC"
)

// ContractMail is a registration mail template. A row with a zero ContractID
// is the platform default for its mail type.
type ContractMail struct {
	ID         uint   `gorm:"primarykey"`
	ContractID uint   `gorm:"index"`
	MailType   string `gorm:"index;size:255"`
	Subject    string `gorm:"size:128"`
	Body       string
}

func (ContractMail) TableName() string {
	return "contract_mail"
}
