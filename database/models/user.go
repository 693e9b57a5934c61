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

// User is a platform account. Only the fields the reflection engine reads
// and masks are modeled here.
type User struct {
	ID        uint      `gorm:"primarykey"`
	Username  string    `gorm:"uniqueIndex;size:255"`
	Email     string    `gorm:"index;size:255"`
	Name      string    `gorm:"size:255"`
	FirstName string    `gorm:"size:32"`
	LastName  string    `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "user"
}

// LoginCredential is the optional alternate credential attached to a user
// for contracts that authenticate with a login code instead of a username.
type LoginCredential struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"uniqueIndex"`
	LoginCode string `gorm:"index;size:255"`
}

func (LoginCredential) TableName() string {
	return "login_credential"
}
