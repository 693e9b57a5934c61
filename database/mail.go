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
	"time"

	"github.com/blinklabs-io/rollcall/database/models"
	"gorm.io/gorm"
)

// EnqueueReservationMail stores a rendered mail for later delivery at the
// organization's configured send time.
func (d *Database) EnqueueReservationMail(
	orgID uint,
	userID uint,
	subject string,
	body string,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	mail := &models.ReservationMail{
		OrgID:   orgID,
		UserID:  userID,
		Subject: subject,
		Body:    body,
	}
	result := txn.Create(mail)
	return result.Error
}

// UnsentReservationMails returns the pending mails for an organization in
// enqueue order.
func (d *Database) UnsentReservationMails(
	orgID uint,
	txn *gorm.DB,
) ([]models.ReservationMail, error) {
	if txn == nil {
		txn = d.DB()
	}
	var ret []models.ReservationMail
	result := txn.
		Where("org_id = ? AND sent_flag = ?", orgID, false).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// MarkReservationMailSent flags a mail as delivered and blanks its body.
// The body may contain credentials, so it is not retained after send.
func (d *Database) MarkReservationMailSent(
	mail *models.ReservationMail,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	now := time.Now()
	mail.SentFlag = true
	mail.SentDate = &now
	mail.Body = ""
	result := txn.Save(mail)
	return result.Error
}
