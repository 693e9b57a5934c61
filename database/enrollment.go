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

	"github.com/blinklabs-io/rollcall/database/models"
	"gorm.io/gorm"
)

// IsEnrolled reports whether a user has an active enrollment in a course.
func (d *Database) IsEnrolled(
	userID uint,
	courseID string,
	txn *gorm.DB,
) (bool, error) {
	if txn == nil {
		txn = d.DB()
	}
	var count int64
	result := txn.Model(&models.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ? AND active = ?", userID, courseID, true).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// GetOrCreateEnrollment fetches the enrollment row for (user, course),
// creating an inactive one when absent.
func (d *Database) GetOrCreateEnrollment(
	userID uint,
	courseID string,
	txn *gorm.DB,
) (*models.CourseEnrollment, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.CourseEnrollment{}
	result := txn.
		Where(models.CourseEnrollment{UserID: userID, CourseID: courseID}).
		FirstOrCreate(ret)
	if result.Error != nil {
		return nil, fmt.Errorf(
			"failed to find or create enrollment: %w",
			result.Error,
		)
	}
	return ret, nil
}

// UpdateEnrollment sets the active flag and mode of an enrollment row.
func (d *Database) UpdateEnrollment(
	enrollment *models.CourseEnrollment,
	active bool,
	mode string,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	enrollment.Active = active
	if mode != "" {
		enrollment.Mode = mode
	}
	result := txn.Save(enrollment)
	return result.Error
}

// Unenroll deactivates a user's enrollment in a course. Missing or inactive
// enrollments are not an error.
func (d *Database) Unenroll(
	userID uint,
	courseID string,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.CourseEnrollment{}
	result := txn.
		Where("user_id = ? AND course_id = ? AND active = ?", userID, courseID, true).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		return result.Error
	}
	ret.Active = false
	return txn.Save(ret).Error
}

// ActiveEnrollmentCourseIDs returns the course ids a user is actively
// enrolled in.
func (d *Database) ActiveEnrollmentCourseIDs(
	userID uint,
	txn *gorm.DB,
) ([]string, error) {
	if txn == nil {
		txn = d.DB()
	}
	var ret []string
	result := txn.Model(&models.CourseEnrollment{}).
		Where("user_id = ? AND active = ?", userID, true).
		Order("id").
		Pluck("course_id", &ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CertificatesByUser returns a user's generated certificates.
func (d *Database) CertificatesByUser(
	userID uint,
	txn *gorm.DB,
) ([]models.Certificate, error) {
	if txn == nil {
		txn = d.DB()
	}
	var ret []models.Certificate
	result := txn.
		Where("user_id = ?", userID).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// DeleteCertificate removes one certificate row.
func (d *Database) DeleteCertificate(
	id uint,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Delete(&models.Certificate{}, id)
	return result.Error
}

// SaveCertificate persists changes to a certificate row.
func (d *Database) SaveCertificate(
	certificate *models.Certificate,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Save(certificate)
	return result.Error
}

// SaveUser persists changes to a user row.
func (d *Database) SaveUser(
	user *models.User,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Save(user)
	return result.Error
}

// SaveLoginCredential persists changes to a login credential row.
func (d *Database) SaveLoginCredential(
	credential *models.LoginCredential,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Save(credential)
	return result.Error
}
