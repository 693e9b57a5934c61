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

// CourseEnrollment is a user's enrollment in one course. Unenrollment
// deactivates the row instead of deleting it.
type CourseEnrollment struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"index;uniqueIndex:idx_enrollment_user_course"`
	CourseID  string `gorm:"index;size:255;uniqueIndex:idx_enrollment_user_course"`
	Mode      string `gorm:"size:100;default:honor"`
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CourseEnrollment) TableName() string {
	return "course_enrollment"
}

// Certificate is a generated course certificate. The holder name is
// overwritten during personal-information masking.
type Certificate struct {
	ID          uint   `gorm:"primarykey"`
	UserID      uint   `gorm:"index"`
	CourseID    string `gorm:"index;size:255"`
	Name        string `gorm:"size:255"`
	DownloadURL string `gorm:"size:255"`
}

func (Certificate) TableName() string {
	return "certificate"
}
