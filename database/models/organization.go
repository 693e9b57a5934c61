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

// Organization is a contractor organization owning a member roster.
type Organization struct {
	ID        uint   `gorm:"primarykey"`
	Code      string `gorm:"uniqueIndex;size:255"`
	Name      string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
	// AutoMask enables automatic personal-information masking of
	// delete-pending members during reflection runs.
	AutoMask bool
	// Reservation mail delivery time of day (local). Zero values fall back
	// to the default delivery hour.
	ReservationMailHour   int
	ReservationMailMinute int
}

func (Organization) TableName() string {
	return "organization"
}

// Group is an organization subgroup members may belong to.
type Group struct {
	ID    uint   `gorm:"primarykey"`
	OrgID uint   `gorm:"index"`
	Code  string `gorm:"index;size:255"`
	Name  string `gorm:"index;size:255"`
}

func (Group) TableName() string {
	return "org_group"
}
