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

// ContractRegister statuses. The absence of a row means the user was never
// registered against the contract.
const (
	RegisterStatusInput      = "Input"
	RegisterStatusRegister   = "Register"
	RegisterStatusUnregister = "Unregister"
)

// ContractRegister records a user's registration status against a contract.
type ContractRegister struct {
	ID         uint   `gorm:"primarykey"`
	ContractID uint   `gorm:"index;uniqueIndex:idx_register_contract_user"`
	UserID     uint   `gorm:"index;uniqueIndex:idx_register_contract_user"`
	Status     string `gorm:"size:255;default:Input"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ContractRegister) TableName() string {
	return "contract_register"
}

// IsRegistered returns true when the row carries the registered status.
func (r *ContractRegister) IsRegistered() bool {
	return r.Status == RegisterStatusRegister
}
