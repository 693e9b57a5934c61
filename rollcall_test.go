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

package rollcall_test

import (
	"context"
	"testing"
	"time"

	rollcall "github.com/blinklabs-io/rollcall"
	"github.com/blinklabs-io/rollcall/condition"
	"github.com/blinklabs-io/rollcall/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *rollcall.Service {
	t.Helper()
	svc, err := rollcall.New(rollcall.NewConfig(
		rollcall.WithMaskSalt("test-salt"),
	))
	require.NoError(t, err)
	t.Cleanup(func() {
		svc.Stop()
	})
	return svc
}

// TestImportTriggersReflection exercises the full path: a member import
// publishes a completion event, which reflects the organization's
// auto-registered contract against the new member set.
func TestImportTriggersReflection(t *testing.T) {
	svc := newTestService(t)
	db := svc.Database()

	org := &models.Organization{Code: "acme", Name: "Acme"}
	require.NoError(t, db.DB().Create(org).Error)
	contract := &models.Contract{
		ContractorOrgID: org.ID,
		ContractType:    models.ContractTypePF,
		Name:            "Acme Training",
		InvitationCode:  "inv-acme",
	}
	require.NoError(t, db.DB().Create(contract).Error)
	user := &models.User{
		Username: "alice",
		Email:    "alice@example.com",
		Name:     "Alice",
	}
	require.NoError(t, db.DB().Create(user).Error)

	parent, err := db.CreateParentCondition(
		contract.ID,
		"engineers",
		models.SettingTypeSimple,
		1,
		nil,
	)
	require.NoError(t, err)
	require.NoError(t, db.SaveCondition(
		parent.ID,
		"engineers",
		models.SettingTypeSimple,
		[]models.ChildCondition{{
			ComparisonTarget: "org1",
			ComparisonType:   int(condition.ComparisonEqual),
			ComparisonString: "engineering",
		}},
		1,
	))
	option, err := db.GetOrCreateContractOption(contract.ID, 1, nil)
	require.NoError(t, err)
	option.AutoRegisterStudents = true
	require.NoError(t, db.SaveContractOption(option, nil))

	count, err := svc.ImportMembers(org.ID, []models.Member{
		{UserID: user.ID, Code: "m-001", Org1: "engineering"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The reflection runs on the import completion event.
	require.Eventually(t, func() bool {
		register, err := db.Register(contract.ID, user.ID, nil)
		if err != nil || register == nil {
			return false
		}
		return register.IsRegistered()
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRunImmediateThroughService(t *testing.T) {
	svc := newTestService(t)
	db := svc.Database()

	org := &models.Organization{Code: "acme", Name: "Acme"}
	require.NoError(t, db.DB().Create(org).Error)
	contract := &models.Contract{
		ContractorOrgID: org.ID,
		ContractType:    models.ContractTypePF,
		Name:            "Acme Training",
		InvitationCode:  "inv-acme",
	}
	require.NoError(t, db.DB().Create(contract).Error)

	// No conditions configured yet.
	_, err := svc.RunImmediate(org.ID, contract.ID, false, nil)
	assert.Error(t, err)
}

func TestRunScheduledThroughService(t *testing.T) {
	svc := newTestService(t)
	// Empty database, nothing to do.
	require.NoError(t, svc.RunScheduled(time.Now()))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	svc, err := rollcall.New(rollcall.NewConfig(
		rollcall.WithMaskSalt("test-salt"),
		rollcall.WithScheduleInterval(10 * time.Millisecond),
	))
	require.NoError(t, err)
	defer svc.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx)
	}()
	// Let at least one scheduled pass fire against the empty database.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after context cancel")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := rollcall.NewConfig()
	svc, err := rollcall.New(cfg)
	require.NoError(t, err)
	require.NoError(t, svc.Stop())
	// Stop twice is safe.
	require.NoError(t, svc.Stop())
}
