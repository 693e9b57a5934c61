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

package database_test

import (
	"testing"
	"time"

	"github.com/blinklabs-io/rollcall/condition"
	"github.com/blinklabs-io/rollcall/database"
	"github.com/blinklabs-io/rollcall/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New("", nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func seedUser(t *testing.T, db *database.Database, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Name:     "Test " + username,
	}
	require.NoError(t, db.DB().Create(user).Error)
	return user
}

func TestActiveMembers(t *testing.T) {
	db := newTestDatabase(t)
	org := &models.Organization{Code: "acme", Name: "Acme"}
	require.NoError(t, db.DB().Create(org).Error)
	for i, m := range []models.Member{
		{Code: "m1", IsActive: true, IsDelete: false},
		{Code: "m2", IsActive: false, IsDelete: false},
		{Code: "m3", IsActive: false, IsDelete: true},
	} {
		m.OrgID = org.ID
		m.UserID = uint(i + 1)
		require.NoError(t, db.CreateMember(&m, nil))
	}

	members, err := db.ActiveMembers(org.ID, nil)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "m1", members[0].Code)

	pending, err := db.DeletePendingMembers(org.ID, nil)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "m3", pending[0].Code)

	count, err := db.ActiveMemberCount(org.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMembersMatchingFilter(t *testing.T) {
	db := newTestDatabase(t)
	org := &models.Organization{Code: "acme", Name: "Acme"}
	require.NoError(t, db.DB().Create(org).Error)
	for i, code := range []string{"dev-1", "dev-2", "ops-1"} {
		m := &models.Member{
			OrgID:    org.ID,
			UserID:   uint(i + 1),
			Code:     code,
			IsActive: true,
		}
		require.NoError(t, db.CreateMember(m, nil))
	}

	filter := condition.And{
		condition.Compare{
			Column: "org_id",
			Op:     condition.OpExact,
			Value:  org.ID,
		},
		condition.Compare{
			Column: "code",
			Op:     condition.OpStartsWith,
			Value:  "dev",
		},
	}
	members, err := db.MembersMatching(filter, nil)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "dev-1", members[0].Code)
	assert.Equal(t, "dev-2", members[1].Code)

	count, err := db.CountMembersMatching(filter, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMoveActiveToBackup(t *testing.T) {
	db := newTestDatabase(t)
	org := &models.Organization{Code: "acme", Name: "Acme"}
	require.NoError(t, db.DB().Create(org).Error)
	active := &models.Member{
		OrgID:    org.ID,
		UserID:   1,
		Code:     "m1",
		IsActive: true,
	}
	require.NoError(t, db.CreateMember(active, nil))
	backup := &models.Member{
		OrgID:    org.ID,
		UserID:   1,
		Code:     "m1-old",
		IsActive: false,
	}
	require.NoError(t, db.CreateMember(backup, nil))

	require.NoError(t, db.DeleteBackupMembers(org.ID, nil))
	require.NoError(t, db.MoveActiveToBackup(org.ID, nil))

	count, err := db.ActiveMemberCount(org.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	var rows []models.Member
	require.NoError(t, db.DB().Where("org_id = ?", org.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "m1", rows[0].Code)
	assert.False(t, rows[0].IsActive)
}

func TestGetOrCreateRegister(t *testing.T) {
	db := newTestDatabase(t)
	reg, err := db.GetOrCreateRegister(7, 42, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RegisterStatusInput, reg.Status)

	reg.Status = models.RegisterStatusRegister
	require.NoError(t, db.SaveRegister(reg, nil))

	again, err := db.GetOrCreateRegister(7, 42, nil)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, again.ID)
	assert.Equal(t, models.RegisterStatusRegister, again.Status)

}

func TestRegistersForUsers(t *testing.T) {
	db := newTestDatabase(t)
	for userID, status := range map[uint]string{
		1: models.RegisterStatusInput,
		2: models.RegisterStatusRegister,
		3: models.RegisterStatusUnregister,
	} {
		reg, err := db.GetOrCreateRegister(7, userID, nil)
		require.NoError(t, err)
		reg.Status = status
		require.NoError(t, db.SaveRegister(reg, nil))
	}

	// Rows already in the excluded status are filtered out; user 4 has no
	// row at all.
	regs, err := db.RegistersForUsers(
		7,
		[]uint{1, 2, 3, 4},
		models.RegisterStatusUnregister,
		nil,
	)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	users := []uint{regs[0].UserID, regs[1].UserID}
	assert.ElementsMatch(t, []uint{1, 2}, users)

	regs, err = db.RegistersForUsers(7, nil, "", nil)
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestContractMailTemplateFallback(t *testing.T) {
	db := newTestDatabase(t)
	fallback := &models.ContractMail{
		ContractID: 0,
		MailType:   models.MailTypeRegisterNewUser,
		Subject:    "Welcome",
		Body:       "Hello {username}",
	}
	require.NoError(t, db.DB().Create(fallback).Error)

	mail, err := db.ContractMailTemplate(9, models.MailTypeRegisterNewUser, nil)
	require.NoError(t, err)
	require.NotNil(t, mail)
	assert.Equal(t, "Welcome", mail.Subject)

	custom := &models.ContractMail{
		ContractID: 9,
		MailType:   models.MailTypeRegisterNewUser,
		Subject:    "Custom welcome",
		Body:       "Hi {username}",
	}
	require.NoError(t, db.DB().Create(custom).Error)

	mail, err = db.ContractMailTemplate(9, models.MailTypeRegisterNewUser, nil)
	require.NoError(t, err)
	require.NotNil(t, mail)
	assert.Equal(t, "Custom welcome", mail.Subject)

	mail, err = db.ContractMailTemplate(
		9,
		models.MailTypeRegisterExistingUserLoginCode,
		nil,
	)
	require.NoError(t, err)
	assert.Nil(t, mail)
}

func TestSaveAndDeleteCondition(t *testing.T) {
	db := newTestDatabase(t)
	contract := &models.Contract{
		ContractorOrgID: 1,
		ContractType:    models.ContractTypePF,
		Name:            "c1",
		InvitationCode:  "inv-1",
	}
	require.NoError(t, db.DB().Create(contract).Error)

	parent, err := db.CreateParentCondition(
		contract.ID,
		"engineers",
		models.SettingTypeSimple,
		1,
		nil,
	)
	require.NoError(t, err)

	children := []models.ChildCondition{
		{
			ComparisonTarget: "org1",
			ComparisonType:   int(condition.ComparisonEqual),
			ComparisonString: "engineering",
		},
	}
	require.NoError(
		t,
		db.SaveCondition(
			parent.ID,
			"engineers",
			models.SettingTypeSimple,
			children,
			1,
		),
	)

	got, err := db.ChildConditions(parent.ID, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, contract.ID, got[0].ContractID)
	assert.Equal(t, "engineers", got[0].ParentName)

	rules, err := db.RuleSets(contract.ID, nil)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Len(t, rules[0].Children, 1)

	// Deleting the last active condition resets auto-register settings.
	opt, err := db.GetOrCreateContractOption(contract.ID, 1, nil)
	require.NoError(t, err)
	opt.AutoRegisterStudents = true
	require.NoError(t, db.SaveContractOption(opt, nil))

	require.NoError(t, db.DeleteCondition(parent.ID, true))

	opt, err = db.GetOrCreateContractOption(contract.ID, 1, nil)
	require.NoError(t, err)
	assert.False(t, opt.AutoRegisterStudents)
}

func TestCopyConditionsSkipsAdditionalInfo(t *testing.T) {
	db := newTestDatabase(t)
	src := &models.Contract{
		ContractorOrgID: 1,
		ContractType:    models.ContractTypePF,
		Name:            "src",
		InvitationCode:  "inv-src",
	}
	dst := &models.Contract{
		ContractorOrgID: 1,
		ContractType:    models.ContractTypePF,
		Name:            "dst",
		InvitationCode:  "inv-dst",
	}
	require.NoError(t, db.DB().Create(src).Error)
	require.NoError(t, db.DB().Create(dst).Error)
	require.NoError(t, db.DB().Create(&models.AdditionalInfo{
		ContractID:  src.ID,
		DisplayName: "employee_id",
	}).Error)

	fixed, err := db.CreateParentCondition(
		src.ID,
		"by-code",
		models.SettingTypeSimple,
		1,
		nil,
	)
	require.NoError(t, err)
	require.NoError(t, db.SaveCondition(
		fixed.ID,
		"by-code",
		models.SettingTypeSimple,
		[]models.ChildCondition{{
			ComparisonTarget: "code",
			ComparisonType:   int(condition.ComparisonEqual),
			ComparisonString: "x",
		}},
		1,
	))

	extra, err := db.CreateParentCondition(
		src.ID,
		"by-employee",
		models.SettingTypeAdvanced,
		1,
		nil,
	)
	require.NoError(t, err)
	require.NoError(t, db.SaveCondition(
		extra.ID,
		"by-employee",
		models.SettingTypeAdvanced,
		[]models.ChildCondition{{
			ComparisonTarget: "employee_id",
			ComparisonType:   int(condition.ComparisonEqual),
			ComparisonString: "123",
		}},
		1,
	))

	skipped, err := db.CopyConditions(src.ID, dst.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"by-employee"}, skipped)

	rules, err := db.RuleSets(dst.ID, nil)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	byName := map[string][]models.ChildCondition{}
	for _, r := range rules {
		byName[r.Parent.Name] = r.Children
	}
	assert.Len(t, byName["by-code"], 1)
	assert.Empty(t, byName[database.DefaultConditionName])
}

func TestMatchAdditionalInfoUserIDs(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.SaveAdditionalInfoSetting(5, 1, "division", "sales"))
	require.NoError(t, db.SaveAdditionalInfoSetting(5, 2, "division", "support"))
	require.NoError(t, db.SaveAdditionalInfoSetting(5, 3, "division", ""))
	require.NoError(t, db.SaveAdditionalInfoSetting(6, 4, "division", "sales"))

	ids, err := db.MatchAdditionalInfoUserIDs(
		5,
		"division",
		condition.ComparisonEqual,
		"sales",
	)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ids)

	// The NULL sentinel matches blank values.
	ids, err = db.MatchAdditionalInfoUserIDs(
		5,
		"division",
		condition.ComparisonEqual,
		condition.NullSentinel,
	)
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, ids)

	ids, err = db.MatchAdditionalInfoUserIDs(
		5,
		"division",
		condition.ComparisonNotEqual,
		"sales",
	)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 3}, ids)
}

func TestEnrollmentLifecycle(t *testing.T) {
	db := newTestDatabase(t)
	user := seedUser(t, db, "alice")

	enrolled, err := db.IsEnrolled(user.ID, "course-1", nil)
	require.NoError(t, err)
	assert.False(t, enrolled)

	enrollment, err := db.GetOrCreateEnrollment(user.ID, "course-1", nil)
	require.NoError(t, err)
	require.NoError(t, db.UpdateEnrollment(enrollment, true, "honor", nil))

	enrolled, err = db.IsEnrolled(user.ID, "course-1", nil)
	require.NoError(t, err)
	assert.True(t, enrolled)

	courses, err := db.ActiveEnrollmentCourseIDs(user.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"course-1"}, courses)

	require.NoError(t, db.Unenroll(user.ID, "course-1", nil))
	enrolled, err = db.IsEnrolled(user.ID, "course-1", nil)
	require.NoError(t, err)
	assert.False(t, enrolled)

	// Unenrolling twice is not an error.
	require.NoError(t, db.Unenroll(user.ID, "course-1", nil))
}

func TestReservationMailQueue(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(
		t,
		db.EnqueueReservationMail(3, 1, "Welcome", "secret body", nil),
	)

	mails, err := db.UnsentReservationMails(3, nil)
	require.NoError(t, err)
	require.Len(t, mails, 1)

	require.NoError(t, db.MarkReservationMailSent(&mails[0], nil))

	mails, err = db.UnsentReservationMails(3, nil)
	require.NoError(t, err)
	assert.Empty(t, mails)

	var row models.ReservationMail
	require.NoError(t, db.DB().First(&row).Error)
	assert.True(t, row.SentFlag)
	assert.Empty(t, row.Body)
	assert.NotNil(t, row.SentDate)
}

func TestTaskLifecycle(t *testing.T) {
	db := newTestDatabase(t)
	task := &models.Task{
		TaskID:   "task-1",
		TaskType: "reflect_conditions_immediate",
		TaskKey:  "abc123",
	}
	require.NoError(t, db.CreateTask(task, nil))

	running, err := db.HasRunningTask(
		"reflect_conditions_immediate",
		"abc123",
		nil,
	)
	require.NoError(t, err)
	assert.True(t, running)

	require.NoError(
		t,
		db.FinishTask(task, models.TaskStateSuccess, `{"total":0}`, nil),
	)

	got, err := db.TaskByTaskID("task-1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStateSuccess, got.TaskState)
	assert.True(t, got.Ready())

	_, err = db.TaskByTaskID("missing", nil)
	assert.ErrorIs(t, err, database.ErrTaskNotFound)
}

func TestClearReservationDate(t *testing.T) {
	db := newTestDatabase(t)
	opt, err := db.GetOrCreateContractOption(11, 1, nil)
	require.NoError(t, err)
	assert.Nil(t, opt.ReservationDate)

	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	opt.ReservationDate = &date
	require.NoError(t, db.SaveContractOption(opt, nil))

	require.NoError(t, db.ClearReservationDate(11, nil))

	opt, err = db.GetOrCreateContractOption(11, 1, nil)
	require.NoError(t, err)
	assert.Nil(t, opt.ReservationDate)
}

func TestSetReservationDateGuards(t *testing.T) {
	db := newTestDatabase(t)

	past := time.Now().AddDate(0, 0, -1)
	err := db.SetReservationDate(12, past, 1, nil)
	assert.ErrorIs(t, err, database.ErrPastReservationDate)

	future := time.Now().AddDate(0, 0, 7)
	require.NoError(t, db.SetReservationDate(12, future, 1, nil))

	opt, err := db.GetOrCreateContractOption(12, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, opt.ReservationDate)

	// Automatic registration cannot change while a reservation is pending.
	err = db.SetAutoRegister(12, true, 1, nil)
	assert.ErrorIs(t, err, database.ErrReservationDateSet)

	require.NoError(t, db.ClearReservationDate(12, nil))
	require.NoError(t, db.SetAutoRegister(12, true, 1, nil))

	opt, err = db.GetOrCreateContractOption(12, 1, nil)
	require.NoError(t, err)
	assert.True(t, opt.AutoRegisterStudents)
}
