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

// ReservationMail is a queued registration mail. Rows are written by the
// reflection engine and drained by the sendmail batch; the body is masked
// after delivery.
type ReservationMail struct {
	ID        uint `gorm:"primarykey"`
	OrgID     uint `gorm:"index"`
	UserID    uint `gorm:"index"`
	Subject   string `gorm:"size:128"`
	Body      string
	SentFlag  bool `gorm:"index"`
	SentDate  *time.Time
	CreatedAt time.Time
}

func (ReservationMail) TableName() string {
	return "reservation_mail"
}
