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

// Package member replaces an organization's active member set from an
// uploaded register. The previous active generation is kept as an inactive
// backup so that one bad upload can be recovered from.
package member

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/rollcall/database"
	"github.com/blinklabs-io/rollcall/database/models"
	"github.com/blinklabs-io/rollcall/event"
	"github.com/blinklabs-io/rollcall/task"
	"gorm.io/gorm"
)

// Importer runs member register imports.
type Importer struct {
	db     *database.Database
	bus    *event.EventBus
	logger *slog.Logger
}

func NewImporter(
	db *database.Database,
	bus *event.EventBus,
	logger *slog.Logger,
) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		db:     db,
		bus:    bus,
		logger: logger,
	}
}

// Import replaces the active member set of an organization with the given
// rows, as one transaction. The previous backup generation is dropped and
// the previous active generation becomes the new backup. On success a
// completion event is published so that auto-registered contracts can
// reflect their conditions against the new member set.
func (i *Importer) Import(
	orgID uint,
	rows []models.Member,
	requesterID *uint,
) (int, error) {
	taskID := task.NewTaskID()
	taskRow := &models.Task{
		TaskID:      taskID,
		TaskType:    task.TypeMemberRegister,
		TaskKey:     fmt.Sprintf("%d", orgID),
		RequesterID: requesterID,
	}
	if err := i.db.CreateTask(taskRow, nil); err != nil {
		return 0, err
	}

	progress := task.NewProgress(task.TypeMemberRegister)
	err := i.db.Transaction(func(txn *gorm.DB) error {
		if err := i.db.DeleteBackupMembers(orgID, txn); err != nil {
			return err
		}
		if err := i.db.MoveActiveToBackup(orgID, txn); err != nil {
			return err
		}
		for idx := range rows {
			progress.Attempt()
			rows[idx].ID = 0
			rows[idx].OrgID = orgID
			rows[idx].IsActive = true
			rows[idx].IsDelete = false
			if err := i.db.CreateMember(&rows[idx], txn); err != nil {
				return fmt.Errorf(
					"failed to import member %q: %w",
					rows[idx].Code,
					err,
				)
			}
			progress.Succeed()
		}
		return nil
	})
	if err != nil {
		progress.Fail()
		if output, outErr := progress.Output(); outErr == nil {
			_ = i.db.FinishTask(taskRow, models.TaskStateFailure, output, nil)
		}
		return 0, err
	}

	output, err := progress.Output()
	if err != nil {
		return 0, err
	}
	if err := i.db.FinishTask(taskRow, models.TaskStateSuccess, output, nil); err != nil {
		return 0, err
	}

	i.logger.Info(
		"member import completed",
		"component", "member",
		"org_id", orgID,
		"imported", len(rows),
		"task_id", taskID,
	)
	if i.bus != nil {
		i.bus.Publish(
			event.MemberImportCompletedEventType,
			event.NewEvent(
				event.MemberImportCompletedEventType,
				event.MemberImportCompletedEvent{
					OrgID:       orgID,
					TaskID:      taskID,
					Imported:    len(rows),
					RequesterID: requesterID,
				},
			),
		)
	}
	return len(rows), nil
}
