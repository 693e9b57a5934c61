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

package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blinklabs-io/rollcall/database"
	"github.com/blinklabs-io/rollcall/database/models"
	"github.com/blinklabs-io/rollcall/event"
	"github.com/blinklabs-io/rollcall/mail"
	"github.com/blinklabs-io/rollcall/task"
)

const (
	// DefaultImmediateCeiling caps how many members an immediate run may
	// touch. Larger member sets must go through the scheduled batch.
	DefaultImmediateCeiling = 10000

	// DefaultOwnerOrgCode is the platform owner organization, excluded
	// from scheduled reflection.
	DefaultOwnerOrgCode = "gacco"
)

var (
	// ErrNoConditions is returned when an immediate run is requested for a
	// contract without any usable condition.
	ErrNoConditions = errors.New("contract has no usable conditions")

	// ErrTooManyMatches is returned when an immediate run would touch more
	// members than the configured ceiling.
	ErrTooManyMatches = errors.New("too many matching members for an immediate run")

	// ErrAlreadyRunning is returned when a reflection task for the same
	// organization is still in progress.
	ErrAlreadyRunning = errors.New("a reflection task for this organization is already running")
)

// Runner drives reflection runs and records their history and task rows.
type Runner struct {
	db               *database.Database
	executor         *Executor
	bus              *event.EventBus
	sender           mail.Sender
	logger           *slog.Logger
	metrics          *reconcileMetrics
	ownerOrgCode     string
	immediateCeiling int64
}

func NewRunner(
	db *database.Database,
	executor *Executor,
	bus *event.EventBus,
	sender mail.Sender,
	logger *slog.Logger,
	metrics *reconcileMetrics,
	ownerOrgCode string,
	immediateCeiling int64,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if ownerOrgCode == "" {
		ownerOrgCode = DefaultOwnerOrgCode
	}
	if immediateCeiling <= 0 {
		immediateCeiling = DefaultImmediateCeiling
	}
	return &Runner{
		db:               db,
		executor:         executor,
		bus:              bus,
		sender:           sender,
		logger:           logger,
		metrics:          metrics,
		ownerOrgCode:     ownerOrgCode,
		immediateCeiling: immediateCeiling,
	}
}

// RunScheduled walks every organization except the platform owner and
// reflects each contract that has automatic registration enabled or a
// reservation scheduled for today. Automatic registration takes precedence:
// the reservation date fires, and is cleared, only on contracts without it.
// Scheduled runs always request registration mail. Per-contract failures
// are logged and do not stop the batch.
func (r *Runner) RunScheduled(now time.Time) error {
	orgs, err := r.db.Organizations(r.ownerOrgCode, nil)
	if err != nil {
		return err
	}
	for _, org := range orgs {
		contracts, err := r.db.ContractsByOrg(org.ID, nil)
		if err != nil {
			return err
		}
		for _, contract := range contracts {
			option, err := r.db.GetOrCreateContractOption(contract.ID, 0, nil)
			if err != nil {
				return err
			}
			taskType := ""
			switch {
			case option.AutoRegisterStudents:
				taskType = task.TypeReflectConditionsBatch
			case reservationDue(option, now):
				taskType = task.TypeReflectConditionsReservation
			default:
				continue
			}
			snap, err := BuildSnapshot(r.db, org.ID, contract.ID)
			if err != nil {
				r.logger.Error(
					"failed to snapshot contract",
					"component", "reconcile",
					"org_id", org.ID,
					"contract_id", contract.ID,
					"error", err,
				)
				continue
			}
			if _, err := r.runContract(snap, nil, taskType, true); err != nil {
				r.logger.Error(
					"scheduled reflection failed",
					"component", "reconcile",
					"org_id", org.ID,
					"contract_id", contract.ID,
					"error", err,
				)
			}
			if taskType == task.TypeReflectConditionsReservation {
				if err := r.db.ClearReservationDate(contract.ID, nil); err != nil {
					r.logger.Error(
						"failed to clear reservation date",
						"component", "reconcile",
						"contract_id", contract.ID,
						"error", err,
					)
				}
			}
		}
	}
	return nil
}

func reservationDue(option *models.ContractOption, now time.Time) bool {
	if option.ReservationDate == nil {
		return false
	}
	y1, m1, d1 := option.ReservationDate.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// RunImmediate reflects one contract on demand. Registration mail is queued
// only when the caller sets sendMail. The run is refused when the contract
// has no usable conditions, when the matching member set exceeds the
// immediate ceiling, or when another reflection task for the same
// organization is still running.
func (r *Runner) RunImmediate(
	orgID uint,
	contractID uint,
	sendMail bool,
	requesterID *uint,
) (*Result, error) {
	snap, err := BuildSnapshot(r.db, orgID, contractID)
	if err != nil {
		return nil, err
	}
	if !snap.HasConditions() {
		return nil, ErrNoConditions
	}
	filter, _ := snap.Filter()
	count, err := r.db.CountMembersMatching(filter, nil)
	if err != nil {
		return nil, err
	}
	if count > r.immediateCeiling {
		return nil, fmt.Errorf(
			"%w: %d members match, limit is %d",
			ErrTooManyMatches,
			count,
			r.immediateCeiling,
		)
	}
	running, err := r.db.HasRunningTask(
		task.TypeReflectConditionsImmediate,
		task.DedupKey(snap.Org.Code),
		nil,
	)
	if err != nil {
		return nil, err
	}
	if running {
		return nil, ErrAlreadyRunning
	}
	return r.runContract(
		snap,
		requesterID,
		task.TypeReflectConditionsImmediate,
		sendMail,
	)
}

// HandleMemberImport reflects an organization's auto-registered contracts
// after a member import has replaced the member set. No registration mail
// is requested for these runs. Oversized contracts are skipped with a log
// line instead of failing the import.
func (r *Runner) HandleMemberImport(evt event.Event) {
	data, ok := evt.Data.(event.MemberImportCompletedEvent)
	if !ok {
		return
	}
	contracts, err := r.db.ContractsByOrg(data.OrgID, nil)
	if err != nil {
		r.logger.Error(
			"failed to load contracts after member import",
			"component", "reconcile",
			"org_id", data.OrgID,
			"error", err,
		)
		return
	}
	for _, contract := range contracts {
		option, err := r.db.GetOrCreateContractOption(contract.ID, 0, nil)
		if err != nil || !option.AutoRegisterStudents {
			continue
		}
		snap, err := BuildSnapshot(r.db, data.OrgID, contract.ID)
		if err != nil || !snap.HasConditions() {
			continue
		}
		filter, _ := snap.Filter()
		count, err := r.db.CountMembersMatching(filter, nil)
		if err != nil {
			continue
		}
		if count > r.immediateCeiling {
			r.logger.Warn(
				"skipping post-import reflection, member set too large",
				"component", "reconcile",
				"org_id", data.OrgID,
				"contract_id", contract.ID,
				"matched", count,
			)
			continue
		}
		if _, err := r.runContract(snap, data.RequesterID, task.TypeReflectConditionsImmediate, false); err != nil {
			r.logger.Error(
				"post-import reflection failed",
				"component", "reconcile",
				"org_id", data.OrgID,
				"contract_id", contract.ID,
				"error", err,
			)
		}
	}
}

// runContract executes one snapshot and persists the history and task rows
// around it.
func (r *Runner) runContract(
	snap *Snapshot,
	requesterID *uint,
	taskType string,
	sendMail bool,
) (*Result, error) {
	started := time.Now()
	activeCount, err := r.db.ActiveMemberCount(snap.Org.ID, nil)
	if err != nil {
		return nil, err
	}
	history, err := r.db.CreateReflectionHistory(
		snap.Org.ID,
		snap.Contract.ID,
		requesterID,
		nil,
	)
	if err != nil {
		return nil, err
	}
	taskRow := &models.Task{
		TaskID:      task.NewTaskID(),
		TaskType:    taskType,
		TaskKey:     task.DedupKey(snap.Org.Code),
		RequesterID: requesterID,
	}
	if err := r.db.CreateTask(taskRow, nil); err != nil {
		return nil, err
	}
	if err := r.db.LinkHistoryToTask(history, taskRow.TaskID, nil); err != nil {
		return nil, err
	}

	result, err := r.executor.Execute(snap, sendMail)
	if err != nil {
		_ = r.db.FinishTask(taskRow, models.TaskStateFailure, "", nil)
		_ = r.db.UpdateHistoryResult(history, false, err.Error(), nil)
		if r.metrics != nil {
			r.metrics.runsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	// Attempted and total report the organization's roster size at the
	// start of the run; succeeded is the number of status flips.
	progress := task.NewProgress(taskType)
	progress.Attempted = int(activeCount)
	progress.Succeeded = result.Registered + result.Unregistered
	progress.Failed = result.Failed
	progress.Registered = result.Registered
	progress.Unregistered = result.Unregistered
	progress.Masked = result.Masked
	output, err := progress.Output()
	if err != nil {
		return nil, err
	}
	taskState := models.TaskStateSuccess
	if result.Failed > 0 {
		taskState = models.TaskStateFailure
	}
	if err := r.db.FinishTask(taskRow, taskState, output, nil); err != nil {
		return nil, err
	}

	success := result.Failed == 0
	if err := r.db.UpdateHistoryResult(history, success, summarize(result), nil); err != nil {
		return nil, err
	}

	if r.metrics != nil {
		label := "success"
		if !success {
			label = "failure"
		}
		r.metrics.runsTotal.WithLabelValues(label).Inc()
		r.metrics.runDuration.Observe(time.Since(started).Seconds())
	}
	r.logger.Info(
		"reflection run finished",
		"component", "reconcile",
		"org_id", snap.Org.ID,
		"contract_id", snap.Contract.ID,
		"task_id", taskRow.TaskID,
		"registered", result.Registered,
		"unregistered", result.Unregistered,
		"masked", result.Masked,
		"failed", result.Failed,
	)
	if r.bus != nil {
		r.bus.Publish(
			event.ReflectionCompletedEventType,
			event.NewEvent(
				event.ReflectionCompletedEventType,
				event.ReflectionCompletedEvent{
					OrgID:        snap.Org.ID,
					ContractID:   snap.Contract.ID,
					TaskID:       taskRow.TaskID,
					Success:      success,
					Registered:   result.Registered,
					Unregistered: result.Unregistered,
					Masked:       result.Masked,
					Failed:       result.Failed,
				},
			),
		)
	}
	return result, nil
}

// summarize renders the history messages for a finished run. Per-member
// failure messages follow the counters, one per line.
func summarize(result *Result) string {
	lines := []string{
		fmt.Sprintf(
			"Register: %d, Unregister: %d, Masked: %d, Failed: %d",
			result.Registered,
			result.Unregistered,
			result.Masked,
			result.Failed,
		),
	}
	lines = append(lines, result.Errors...)
	return strings.Join(lines, "\n")
}

// SendReservationMails delivers an organization's queued registration mail
// once the organization's configured delivery time has passed for the day.
// Bodies are cleared once sent. Returns the number delivered.
func (r *Runner) SendReservationMails(orgID uint) (int, error) {
	if r.sender == nil {
		return 0, errors.New("no mail sender configured")
	}
	org, err := r.db.Organization(orgID, nil)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	y, m, d := now.Date()
	deliverAt := time.Date(
		y, m, d,
		org.ReservationMailHour,
		org.ReservationMailMinute,
		0, 0,
		now.Location(),
	)
	if now.Before(deliverAt) {
		r.logger.Info(
			"reservation mail delivery time not reached",
			"component", "reconcile",
			"org_id", orgID,
			"deliver_at", deliverAt,
		)
		return 0, nil
	}
	mails, err := r.db.UnsentReservationMails(orgID, nil)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range mails {
		user, err := r.db.User(mails[i].UserID, nil)
		if err != nil {
			r.logger.Warn(
				"skipping mail for unknown user",
				"component", "reconcile",
				"user_id", mails[i].UserID,
				"error", err,
			)
			continue
		}
		if err := r.sender.Send(mail.Message{
			To:      user.Email,
			Subject: mails[i].Subject,
			Body:    mails[i].Body,
		}); err != nil {
			r.logger.Error(
				"failed to send mail",
				"component", "reconcile",
				"user_id", mails[i].UserID,
				"error", err,
			)
			continue
		}
		if err := r.db.MarkReservationMailSent(&mails[i], nil); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}
