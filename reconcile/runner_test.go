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

package reconcile_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/blinklabs-io/rollcall/condition"
	"github.com/blinklabs-io/rollcall/database/models"
	"github.com/blinklabs-io/rollcall/event"
	"github.com/blinklabs-io/rollcall/mail"
	"github.com/blinklabs-io/rollcall/reconcile"
	"github.com/blinklabs-io/rollcall/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) newRunner(
	bus *event.EventBus,
	sender mail.Sender,
	ceiling int64,
) *reconcile.Runner {
	return reconcile.NewRunner(
		f.db,
		f.executor,
		bus,
		sender,
		nil,
		nil,
		"",
		ceiling,
	)
}

func TestRunImmediateNoConditions(t *testing.T) {
	f := newFixture(t)
	runner := f.newRunner(nil, nil, 0)
	_, err := runner.RunImmediate(f.org.ID, f.contract.ID, false, nil)
	assert.ErrorIs(t, err, reconcile.ErrNoConditions)
}

func TestRunImmediateTooManyMatches(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "engineering")
	f.addUser(t, "bob", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	runner := f.newRunner(nil, nil, 1)
	_, err := runner.RunImmediate(f.org.ID, f.contract.ID, false, nil)
	assert.ErrorIs(t, err, reconcile.ErrTooManyMatches)
}

func TestRunImmediateRecordsHistoryAndTask(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	requester := uint(99)
	runner := f.newRunner(nil, nil, 0)
	result, err := runner.RunImmediate(f.org.ID, f.contract.ID, false, &requester)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Registered)

	histories, err := f.db.ReflectionHistories(f.org.ID, nil)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	assert.True(t, histories[0].Result)
	assert.Equal(
		t,
		"Register: 1, Unregister: 0, Masked: 0, Failed: 0",
		histories[0].Messages,
	)
	require.NotEmpty(t, histories[0].TaskID)
	require.NotNil(t, histories[0].RequesterID)
	assert.Equal(t, requester, *histories[0].RequesterID)

	taskRow, err := f.db.TaskByTaskID(histories[0].TaskID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStateSuccess, taskRow.TaskState)
	assert.Equal(t, task.DedupKey(f.org.Code), taskRow.TaskKey)
	assert.Contains(t, taskRow.TaskOutput, `"student_register":1`)
}

func TestRunImmediateTaskOutputCounters(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "engineering")
	bob := f.addUser(t, "bob", "sales")
	f.addUser(t, "carol", "support")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	// Bob was registered under an earlier condition set.
	register, err := f.db.GetOrCreateRegister(f.contract.ID, bob.ID, nil)
	require.NoError(t, err)
	register.Status = models.RegisterStatusRegister
	require.NoError(t, f.db.SaveRegister(register, nil))

	runner := f.newRunner(nil, nil, 0)
	result, err := runner.RunImmediate(f.org.ID, f.contract.ID, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Registered)
	assert.Equal(t, 1, result.Unregistered)

	histories, err := f.db.ReflectionHistories(f.org.ID, nil)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	taskRow, err := f.db.TaskByTaskID(histories[0].TaskID, nil)
	require.NoError(t, err)

	var output map[string]any
	require.NoError(t, json.Unmarshal([]byte(taskRow.TaskOutput), &output))
	// Attempted and total report the roster size; succeeded counts the
	// status flips in either direction.
	assert.Equal(t, float64(3), output["attempted"])
	assert.Equal(t, float64(3), output["total"])
	assert.Equal(t, float64(2), output["succeeded"])
	assert.Equal(t, float64(0), output["failed"])
	assert.Equal(t, float64(1), output["student_register"])
	assert.Equal(t, float64(1), output["student_unregister"])
}

func TestRunImmediateRefusedWhileRunning(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	// Another reflection task for the same organization is in progress.
	require.NoError(t, f.db.CreateTask(&models.Task{
		TaskID:   "other-task",
		TaskType: task.TypeReflectConditionsImmediate,
		TaskKey:  task.DedupKey(f.org.Code),
	}, nil))

	runner := f.newRunner(nil, nil, 0)
	_, err := runner.RunImmediate(f.org.ID, f.contract.ID, false, nil)
	assert.ErrorIs(t, err, reconcile.ErrAlreadyRunning)
}

func TestRunScheduledAutoRegister(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	option, err := f.db.GetOrCreateContractOption(f.contract.ID, 1, nil)
	require.NoError(t, err)
	option.AutoRegisterStudents = true
	require.NoError(t, f.db.SaveContractOption(option, nil))

	runner := f.newRunner(nil, nil, 0)
	require.NoError(t, runner.RunScheduled(time.Now()))

	assert.Equal(t, models.RegisterStatusRegister, f.registerStatus(t, alice.ID))
}

func TestRunScheduledReservationFiresOnceAndClears(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	option, err := f.db.GetOrCreateContractOption(f.contract.ID, 1, nil)
	require.NoError(t, err)
	option.ReservationDate = &today
	require.NoError(t, f.db.SaveContractOption(option, nil))

	runner := f.newRunner(nil, nil, 0)
	require.NoError(t, runner.RunScheduled(now))

	assert.Equal(t, models.RegisterStatusRegister, f.registerStatus(t, alice.ID))

	// The reservation is one-shot.
	option, err = f.db.GetOrCreateContractOption(f.contract.ID, 1, nil)
	require.NoError(t, err)
	assert.Nil(t, option.ReservationDate)
}

func TestRunScheduledAutoRegisterKeepsReservationDate(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	option, err := f.db.GetOrCreateContractOption(f.contract.ID, 1, nil)
	require.NoError(t, err)
	option.AutoRegisterStudents = true
	option.ReservationDate = &today
	require.NoError(t, f.db.SaveContractOption(option, nil))

	runner := f.newRunner(nil, nil, 0)
	require.NoError(t, runner.RunScheduled(now))

	assert.Equal(t, models.RegisterStatusRegister, f.registerStatus(t, alice.ID))

	// Automatic registration drove this run, so the reservation stays
	// armed for when it is switched off.
	option, err = f.db.GetOrCreateContractOption(f.contract.ID, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, option.ReservationDate)

	histories, err := f.db.ReflectionHistories(f.org.ID, nil)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	taskRow, err := f.db.TaskByTaskID(histories[0].TaskID, nil)
	require.NoError(t, err)
	assert.Equal(t, task.TypeReflectConditionsBatch, taskRow.TaskType)
}

func TestRunScheduledQueuesRegistrationMail(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.DB().Create(&models.ContractMail{
		ContractID: 0,
		MailType:   models.MailTypeRegisterExistingUser,
		Subject:    "Welcome",
		Body:       "Hello {username}",
	}).Error)
	f.addUser(t, "alice", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	option, err := f.db.GetOrCreateContractOption(f.contract.ID, 1, nil)
	require.NoError(t, err)
	option.AutoRegisterStudents = true
	require.NoError(t, f.db.SaveContractOption(option, nil))

	runner := f.newRunner(nil, nil, 0)
	require.NoError(t, runner.RunScheduled(time.Now()))

	mails, err := f.db.UnsentReservationMails(f.org.ID, nil)
	require.NoError(t, err)
	assert.Len(t, mails, 1)
}

func TestRunScheduledSkipsContractsWithoutTriggers(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	runner := f.newRunner(nil, nil, 0)
	require.NoError(t, runner.RunScheduled(time.Now()))

	assert.Empty(t, f.registerStatus(t, alice.ID))
}

func TestRunScheduledExcludesOwnerOrg(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")
	require.NoError(
		t,
		f.db.DB().Model(f.org).Update("code", reconcile.DefaultOwnerOrgCode).Error,
	)

	option, err := f.db.GetOrCreateContractOption(f.contract.ID, 1, nil)
	require.NoError(t, err)
	option.AutoRegisterStudents = true
	require.NoError(t, f.db.SaveContractOption(option, nil))

	runner := f.newRunner(nil, nil, 0)
	require.NoError(t, runner.RunScheduled(time.Now()))

	assert.Empty(t, f.registerStatus(t, alice.ID))
}

func TestHandleMemberImportReflectsAutoContracts(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	option, err := f.db.GetOrCreateContractOption(f.contract.ID, 1, nil)
	require.NoError(t, err)
	option.AutoRegisterStudents = true
	require.NoError(t, f.db.SaveContractOption(option, nil))

	runner := f.newRunner(nil, nil, 0)
	runner.HandleMemberImport(event.NewEvent(
		event.MemberImportCompletedEventType,
		event.MemberImportCompletedEvent{OrgID: f.org.ID},
	))

	assert.Equal(t, models.RegisterStatusRegister, f.registerStatus(t, alice.ID))
}

func TestHandleMemberImportQueuesNoMail(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.DB().Create(&models.ContractMail{
		ContractID: 0,
		MailType:   models.MailTypeRegisterExistingUser,
		Subject:    "Welcome",
		Body:       "Hello {username}",
	}).Error)
	alice := f.addUser(t, "alice", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	option, err := f.db.GetOrCreateContractOption(f.contract.ID, 1, nil)
	require.NoError(t, err)
	option.AutoRegisterStudents = true
	require.NoError(t, f.db.SaveContractOption(option, nil))

	runner := f.newRunner(nil, nil, 0)
	runner.HandleMemberImport(event.NewEvent(
		event.MemberImportCompletedEventType,
		event.MemberImportCompletedEvent{OrgID: f.org.ID},
	))

	require.Equal(t, models.RegisterStatusRegister, f.registerStatus(t, alice.ID))
	mails, err := f.db.UnsentReservationMails(f.org.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, mails)
}

func TestHandleMemberImportSkipsOversizedContracts(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice", "engineering")
	f.addUser(t, "bob", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	option, err := f.db.GetOrCreateContractOption(f.contract.ID, 1, nil)
	require.NoError(t, err)
	option.AutoRegisterStudents = true
	require.NoError(t, f.db.SaveContractOption(option, nil))

	runner := f.newRunner(nil, nil, 1)
	runner.HandleMemberImport(event.NewEvent(
		event.MemberImportCompletedEventType,
		event.MemberImportCompletedEvent{OrgID: f.org.ID},
	))

	assert.Empty(t, f.registerStatus(t, alice.ID))
}

func TestRunPublishesCompletionEvent(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "engineering")
	f.addCondition(t, "org1", condition.ComparisonEqual, "engineering")

	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	received := make(chan event.Event, 1)
	bus.SubscribeFunc(
		event.ReflectionCompletedEventType,
		func(evt event.Event) {
			received <- evt
		},
	)

	runner := f.newRunner(bus, nil, 0)
	_, err := runner.RunImmediate(f.org.ID, f.contract.ID, false, nil)
	require.NoError(t, err)

	select {
	case evt := <-received:
		data, ok := evt.Data.(event.ReflectionCompletedEvent)
		require.True(t, ok)
		assert.True(t, data.Success)
		assert.Equal(t, 1, data.Registered)
		assert.Equal(t, f.contract.ID, data.ContractID)
	case <-time.After(2 * time.Second):
		t.Fatalf("did not receive completion event within timeout")
	}
}

func TestSendReservationMails(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "alice", "engineering")
	require.NoError(t, f.db.EnqueueReservationMail(
		f.org.ID,
		user.ID,
		"Welcome",
		"Hello alice",
		nil,
	))

	sender := mail.NewConsoleSender(nil)
	runner := f.newRunner(nil, sender, 0)
	sent, err := runner.SendReservationMails(f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	messages := sender.Sent()
	require.Len(t, messages, 1)
	assert.Equal(t, "alice@example.com", messages[0].To)
	assert.Equal(t, "Welcome", messages[0].Subject)

	pending, err := f.db.UnsentReservationMails(f.org.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
