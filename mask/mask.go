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

// Package mask irreversibly removes personal information from users who
// have left an organization. Masking replaces the real name and mail
// address with salted hashes, regenerates the login code, and deletes any
// generated certificates. There is no unmask operation.
package mask

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/rollcall/database"
	"github.com/blinklabs-io/rollcall/database/models"
	"gorm.io/gorm"
)

const maskedMailDomain = "masked.invalid"

// Service performs personal information masking.
type Service struct {
	db     *database.Database
	salt   string
	logger *slog.Logger
}

func NewService(db *database.Database, salt string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:     db,
		salt:   salt,
		logger: logger,
	}
}

// MaskUser scrubs one user's personal information inside an existing
// transaction. Certificates keep the masked name so that their records stay
// internally consistent.
func (s *Service) MaskUser(user *models.User, txn *gorm.DB) error {
	masked := s.hash(user.Name)

	certs, err := s.db.CertificatesByUser(user.ID, txn)
	if err != nil {
		return err
	}
	for i := range certs {
		certs[i].Name = masked
		if err := s.db.SaveCertificate(&certs[i], txn); err != nil {
			return err
		}
	}

	if err := s.randomizeLoginCode(user.ID, txn); err != nil {
		return err
	}

	user.Name = masked
	user.FirstName = ""
	user.LastName = ""
	user.Email = s.hash(user.Email) + "@" + maskedMailDomain
	return s.db.SaveUser(user, txn)
}

// DeleteCertificates removes a user's certificates for the given courses.
// Failures are logged and skipped so that one bad row does not block the
// rest of the cleanup.
func (s *Service) DeleteCertificates(
	userID uint,
	courseIDs []string,
	txn *gorm.DB,
) error {
	certs, err := s.db.CertificatesByUser(userID, txn)
	if err != nil {
		return err
	}
	courses := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		courses[id] = true
	}
	for _, cert := range certs {
		if !courses[cert.CourseID] {
			continue
		}
		if err := s.db.DeleteCertificate(cert.ID, txn); err != nil {
			s.logger.Warn(
				"failed to delete certificate",
				"component", "mask",
				"user_id", userID,
				"course_id", cert.CourseID,
				"error", err,
			)
		}
	}
	return nil
}

func (s *Service) randomizeLoginCode(userID uint, txn *gorm.DB) error {
	credential, err := s.db.LoginCredentialByUser(userID, txn)
	if err != nil {
		return err
	}
	if credential == nil {
		return nil
	}
	code, err := randomCode()
	if err != nil {
		return err
	}
	credential.LoginCode = code
	return s.db.SaveLoginCredential(credential, txn)
}

func (s *Service) hash(value string) string {
	sum := sha256.Sum256([]byte(s.salt + value))
	return hex.EncodeToString(sum[:])
}

func randomCode() (string, error) {
	buf := make([]byte, 15)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate login code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
