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

// Member records one person's association with one organization, including
// the twenty free-text attributes that reflection conditions compare against.
//
// Lifecycle flags:
//   - active:         is_active AND NOT is_delete (current roster)
//   - backup:         NOT is_active AND NOT is_delete (previous roster rows)
//   - delete-pending: NOT is_active AND is_delete (awaiting mask + purge)
type Member struct {
	ID        uint   `gorm:"primarykey"`
	OrgID     uint   `gorm:"index"`
	GroupID   *uint  `gorm:"index"`
	UserID    uint   `gorm:"index"`
	Code      string `gorm:"index;size:255"`
	Org1      string `gorm:"size:100"`
	Org2      string `gorm:"size:100"`
	Org3      string `gorm:"size:100"`
	Org4      string `gorm:"size:100"`
	Org5      string `gorm:"size:100"`
	Org6      string `gorm:"size:100"`
	Org7      string `gorm:"size:100"`
	Org8      string `gorm:"size:100"`
	Org9      string `gorm:"size:100"`
	Org10     string `gorm:"size:100"`
	Item1     string `gorm:"size:100"`
	Item2     string `gorm:"size:100"`
	Item3     string `gorm:"size:100"`
	Item4     string `gorm:"size:100"`
	Item5     string `gorm:"size:100"`
	Item6     string `gorm:"size:100"`
	Item7     string `gorm:"size:100"`
	Item8     string `gorm:"size:100"`
	Item9     string `gorm:"size:100"`
	Item10    string `gorm:"size:100"`
	IsActive  bool   `gorm:"index"`
	IsDelete  bool   `gorm:"index"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`
	CreatedBy uint
	UpdatedBy uint
}

func (Member) TableName() string {
	return "member"
}
