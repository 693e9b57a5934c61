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

// ReflectionHistory is the audit record of one reflection run. It is created
// before any side effect and updated once with the aggregate result. A nil
// RequesterID marks a scheduled (system) run.
type ReflectionHistory struct {
	ID          uint   `gorm:"primarykey"`
	OrgID       uint   `gorm:"index"`
	ContractID  uint   `gorm:"index"`
	TaskID      string `gorm:"index;size:255"`
	Result      bool
	Messages    string
	RequesterID *uint
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func (ReflectionHistory) TableName() string {
	return "reflection_history"
}
