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

// Package reconcile reflects membership conditions onto contract
// registrations. One run works against a frozen snapshot of a contract and
// walks the member set in fixed passes: members matching the conditions are
// registered, registered users no longer matching are unregistered, and
// users marked for deletion are unregistered and masked. Each member is
// processed inside its own transaction, so one bad row does not roll back
// the rest of the run.
package reconcile

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/blinklabs-io/rollcall/database"
	"github.com/blinklabs-io/rollcall/database/models"
	"github.com/blinklabs-io/rollcall/mail"
	"github.com/blinklabs-io/rollcall/mask"
	"gorm.io/gorm"
)

// Member processing outcomes.
type Action int

const (
	ActionNone Action = iota
	ActionRegister
	ActionUnregister
	ActionMask
)

func (a Action) String() string {
	switch a {
	case ActionRegister:
		return "register"
	case ActionUnregister:
		return "unregister"
	case ActionMask:
		return "mask"
	default:
		return "none"
	}
}

// MemberResult is the outcome of processing one member. Err is set when the
// member's transaction rolled back.
type MemberResult struct {
	UserID uint
	Action Action
	Err    error
}

// Result is the aggregate outcome of one reflection run.
type Result struct {
	Registered   int
	Unregistered int
	Masked       int
	Failed       int
	Errors       []string
	Members      []MemberResult
}

// Executor performs the reflection passes for one snapshot.
type Executor struct {
	db      *database.Database
	masker  *mask.Service
	logger  *slog.Logger
	metrics *reconcileMetrics
}

func NewExecutor(
	db *database.Database,
	masker *mask.Service,
	logger *slog.Logger,
	metrics *reconcileMetrics,
) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		db:      db,
		masker:  masker,
		logger:  logger,
		metrics: metrics,
	}
}

// Execute runs the reflection passes against a snapshot. The sendMail flag
// is the caller's request to queue registration mail; the contract's own
// mail flags still apply on top of it. Per-member failures are recorded in
// the result, not returned; the returned error is reserved for failures
// that prevent the run as a whole.
func (e *Executor) Execute(snap *Snapshot, sendMail bool) (*Result, error) {
	result := &Result{}

	filter, ok := snap.Filter()
	if !ok {
		// No usable conditions. Nothing matches, nothing changes.
		return result, nil
	}
	matched, err := e.db.MembersMatching(filter, nil)
	if err != nil {
		return nil, err
	}
	matchedUsers := make(map[uint]bool, len(matched))
	for _, m := range matched {
		matchedUsers[m.UserID] = true
	}

	courseIDs := snap.CourseIDs()

	deletePending, err := e.db.DeletePendingMembers(snap.Org.ID, nil)
	if err != nil {
		return nil, err
	}

	// Active members no longer matching any condition lose their
	// registration. Delete-pending users are handled in their own pass so
	// their removal is attributed to the member deletion, not the
	// conditions.
	if err := e.unregisterUnmatched(snap, matchedUsers, courseIDs, result); err != nil {
		return nil, err
	}

	// Users marked for deletion are unregistered regardless of what the
	// conditions say. Not counted toward the unregister total.
	for _, m := range deletePending {
		e.processMember(snap, m.UserID, result, func(txn *gorm.DB) (Action, error) {
			if err := e.unregister(snap, m.UserID, courseIDs, txn); err != nil {
				return ActionUnregister, err
			}
			return ActionNone, nil
		})
	}

	// Matching members gain a registration and course enrollments.
	for _, m := range matched {
		e.processMember(snap, m.UserID, result, func(txn *gorm.DB) (Action, error) {
			registered, err := e.register(snap, m.UserID, sendMail, txn)
			if err != nil {
				return ActionNone, err
			}
			if registered {
				return ActionRegister, nil
			}
			return ActionNone, nil
		})
	}

	// Finally, users marked for deletion have their personal information
	// masked when the organization allows it.
	for _, m := range deletePending {
		e.processMember(snap, m.UserID, result, func(txn *gorm.DB) (Action, error) {
			masked, err := e.maskUser(snap, m.UserID, courseIDs, txn)
			if err != nil {
				return ActionNone, err
			}
			if masked {
				return ActionMask, nil
			}
			return ActionNone, nil
		})
	}

	if e.metrics != nil {
		e.metrics.membersProcessed.WithLabelValues("register").
			Add(float64(result.Registered))
		e.metrics.membersProcessed.WithLabelValues("unregister").
			Add(float64(result.Unregistered))
		e.metrics.membersProcessed.WithLabelValues("mask").
			Add(float64(result.Masked))
		e.metrics.membersProcessed.WithLabelValues("failed").
			Add(float64(result.Failed))
	}
	return result, nil
}

// processMember runs one member operation in its own transaction and folds
// the outcome into the result.
func (e *Executor) processMember(
	snap *Snapshot,
	userID uint,
	result *Result,
	fn func(txn *gorm.DB) (Action, error),
) {
	var action Action
	err := e.db.Transaction(func(txn *gorm.DB) error {
		var err error
		action, err = fn(txn)
		return err
	})
	result.Members = append(result.Members, MemberResult{
		UserID: userID,
		Action: action,
		Err:    err,
	})
	if err != nil {
		result.Failed++
		result.Errors = append(
			result.Errors,
			e.failureMessage(userID, action, err),
		)
		e.logger.Warn(
			"member processing failed",
			"component", "reconcile",
			"contract_id", snap.Contract.ID,
			"user_id", userID,
			"error", err,
		)
		return
	}
	switch action {
	case ActionRegister:
		result.Registered++
	case ActionUnregister:
		result.Unregistered++
	case ActionMask:
		result.Masked++
	}
}

func (e *Executor) failureMessage(userID uint, action Action, err error) string {
	username := fmt.Sprintf("user %d", userID)
	if user, userErr := e.db.User(userID, nil); userErr == nil {
		username = user.Username
	}
	switch action {
	case ActionUnregister:
		return fmt.Sprintf("Failed to unregister of %s.", username)
	case ActionMask:
		return fmt.Sprintf("Failed to mask of %s.", username)
	default:
		return fmt.Sprintf("Failed to register of %s.", username)
	}
}

// unregisterUnmatched walks the organization's active roster: members not
// in the matched set whose registration row is in any status but
// unregistered are flipped and counted. Registrations of users outside the
// roster are left alone.
func (e *Executor) unregisterUnmatched(
	snap *Snapshot,
	matchedUsers map[uint]bool,
	courseIDs []string,
	result *Result,
) error {
	active, err := e.db.ActiveMembers(snap.Org.ID, nil)
	if err != nil {
		return err
	}
	unmatched := make([]uint, 0, len(active))
	for _, m := range active {
		if !matchedUsers[m.UserID] {
			unmatched = append(unmatched, m.UserID)
		}
	}
	registers, err := e.db.RegistersForUsers(
		snap.Contract.ID,
		unmatched,
		models.RegisterStatusUnregister,
		nil,
	)
	if err != nil {
		return err
	}
	for _, register := range registers {
		userID := register.UserID
		e.processMember(snap, userID, result, func(txn *gorm.DB) (Action, error) {
			if err := e.unregister(snap, userID, courseIDs, txn); err != nil {
				return ActionUnregister, err
			}
			return ActionUnregister, nil
		})
	}
	return nil
}

// unregister flips a registration to the unregistered status and, for SPOC
// contracts, deactivates the contract's course enrollments. Users without a
// registration row are left alone.
func (e *Executor) unregister(
	snap *Snapshot,
	userID uint,
	courseIDs []string,
	txn *gorm.DB,
) error {
	register, err := e.db.Register(snap.Contract.ID, userID, txn)
	if err != nil {
		return err
	}
	if register == nil || register.Status == models.RegisterStatusUnregister {
		return nil
	}
	register.Status = models.RegisterStatusUnregister
	if err := e.db.SaveRegister(register, txn); err != nil {
		return err
	}
	if snap.Contract.SpocAvailable() {
		for _, courseID := range courseIDs {
			if err := e.db.Unenroll(userID, courseID, txn); err != nil {
				return err
			}
		}
	}
	return nil
}

// register promotes a user to the registered status, enrolls them in the
// contract's courses, and queues registration mail when the contract allows
// it and the caller asked for it. Mail is queued on every run for every
// matched member, not only on the run that flipped the status. Returns
// false when the user was already registered.
func (e *Executor) register(
	snap *Snapshot,
	userID uint,
	sendMail bool,
	txn *gorm.DB,
) (bool, error) {
	register, err := e.db.GetOrCreateRegister(snap.Contract.ID, userID, txn)
	if err != nil {
		return false, err
	}
	alreadyRegistered := register.IsRegistered()
	if !alreadyRegistered {
		register.Status = models.RegisterStatusRegister
		if err := e.db.SaveRegister(register, txn); err != nil {
			return false, err
		}
	}
	for _, detail := range snap.Details {
		enrollment, err := e.db.GetOrCreateEnrollment(userID, detail.CourseID, txn)
		if err != nil {
			return false, err
		}
		if !enrollment.Active {
			if err := e.db.UpdateEnrollment(enrollment, true, detail.Mode, txn); err != nil {
				return false, err
			}
		}
	}
	if snap.Contract.CanSendMail() && sendMail {
		if err := e.queueRegistrationMail(snap, userID, txn); err != nil {
			return false, err
		}
	}
	return !alreadyRegistered, nil
}

func (e *Executor) queueRegistrationMail(
	snap *Snapshot,
	userID uint,
	txn *gorm.DB,
) error {
	user, err := e.db.User(userID, txn)
	if err != nil {
		return err
	}
	mailType := models.MailTypeRegisterExistingUser
	params := map[string]string{
		mail.ParamUsername:     user.Username,
		mail.ParamEmailAddress: user.Email,
		mail.ParamContractName: snap.Contract.Name,
	}
	if snap.Contract.HasAuth {
		credential, err := e.db.LoginCredentialByUser(userID, txn)
		if err != nil {
			return err
		}
		if credential != nil {
			mailType = models.MailTypeRegisterExistingUserLoginCode
			params[mail.ParamLoginCode] = credential.LoginCode
		}
	}
	template, err := e.db.ContractMailTemplate(snap.Contract.ID, mailType, txn)
	if err != nil {
		return err
	}
	if template == nil {
		// No template configured, registration proceeds without mail.
		e.logger.Debug(
			"no mail template",
			"component", "reconcile",
			"contract_id", snap.Contract.ID,
			"mail_type", mailType,
		)
		return nil
	}
	return e.db.EnqueueReservationMail(
		snap.Org.ID,
		userID,
		mail.Render(template.Subject, params),
		mail.Render(template.Body, params),
		txn,
	)
}

// maskUser scrubs a delete-pending user's personal information when the
// organization has auto-masking enabled. SPOC contracts only; a user still
// actively enrolled in a course outside the contract blocks the mask since
// that enrollment belongs to someone else's relationship with the user.
func (e *Executor) maskUser(
	snap *Snapshot,
	userID uint,
	courseIDs []string,
	txn *gorm.DB,
) (bool, error) {
	if !snap.Org.AutoMask || !snap.Contract.SpocAvailable() {
		return false, nil
	}
	active, err := e.db.ActiveEnrollmentCourseIDs(userID, txn)
	if err != nil {
		return false, err
	}
	for _, courseID := range active {
		if !slices.Contains(courseIDs, courseID) {
			return false, nil
		}
	}
	user, err := e.db.User(userID, txn)
	if err != nil {
		return false, err
	}
	if err := e.masker.DeleteCertificates(userID, courseIDs, txn); err != nil {
		return false, err
	}
	if err := e.masker.MaskUser(user, txn); err != nil {
		return false, err
	}
	if err := e.db.PurgeMemberRows(snap.Org.ID, userID, txn); err != nil {
		return false, err
	}
	return true, nil
}
