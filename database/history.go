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
	"time"

	"github.com/blinklabs-io/rollcall/database/models"
	"gorm.io/gorm"
)

// ErrTaskNotFound is returned when a task lookup matches no row.
var ErrTaskNotFound = errors.New("task not found")

// CreateReflectionHistory records the start of a reflection run for an
// organization and contract. The requester is nil for scheduled runs.
func (d *Database) CreateReflectionHistory(
	orgID uint,
	contractID uint,
	requesterID *uint,
	txn *gorm.DB,
) (*models.ReflectionHistory, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.ReflectionHistory{
		OrgID:       orgID,
		ContractID:  contractID,
		RequesterID: requesterID,
	}
	result := txn.Create(ret)
	if result.Error != nil {
		return nil, fmt.Errorf(
			"failed to create reflection history: %w",
			result.Error,
		)
	}
	return ret, nil
}

// LinkHistoryToTask attaches a task id to a history row once the task
// has been created.
func (d *Database) LinkHistoryToTask(
	history *models.ReflectionHistory,
	taskID string,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	history.TaskID = taskID
	result := txn.Save(history)
	return result.Error
}

// UpdateHistoryResult finalizes a history row with the run outcome and
// summary messages.
func (d *Database) UpdateHistoryResult(
	history *models.ReflectionHistory,
	success bool,
	messages string,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	now := time.Now()
	history.Result = success
	history.Messages = messages
	history.UpdatedAt = &now
	result := txn.Save(history)
	return result.Error
}

// ReflectionHistories returns an organization's reflection history rows,
// newest first.
func (d *Database) ReflectionHistories(
	orgID uint,
	txn *gorm.DB,
) ([]models.ReflectionHistory, error) {
	if txn == nil {
		txn = d.DB()
	}
	var ret []models.ReflectionHistory
	result := txn.
		Where("org_id = ?", orgID).
		Order("created_at DESC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// LatestReflectionHistory returns the most recent history row for a
// contract, or nil when none exists.
func (d *Database) LatestReflectionHistory(
	contractID uint,
	txn *gorm.DB,
) (*models.ReflectionHistory, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.ReflectionHistory{}
	result := txn.
		Where("contract_id = ?", contractID).
		Order("created_at DESC").
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// CreateTask records a new task row in the progress state.
func (d *Database) CreateTask(
	task *models.Task,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	if task.TaskState == "" {
		task.TaskState = models.TaskStateProgress
	}
	result := txn.Create(task)
	if result.Error != nil {
		return fmt.Errorf("failed to create task: %w", result.Error)
	}
	return nil
}

// FinishTask transitions a task to a terminal state with its output JSON.
func (d *Database) FinishTask(
	task *models.Task,
	state string,
	output string,
	txn *gorm.DB,
) error {
	if txn == nil {
		txn = d.DB()
	}
	task.TaskState = state
	task.TaskOutput = output
	result := txn.Save(task)
	return result.Error
}

// TaskByTaskID fetches a task by its external task id.
func (d *Database) TaskByTaskID(
	taskID string,
	txn *gorm.DB,
) (*models.Task, error) {
	if txn == nil {
		txn = d.DB()
	}
	ret := &models.Task{}
	result := txn.Where("task_id = ?", taskID).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// HasRunningTask reports whether a task with the given type and dedup key
// is still in progress.
func (d *Database) HasRunningTask(
	taskType string,
	taskKey string,
	txn *gorm.DB,
) (bool, error) {
	if txn == nil {
		txn = d.DB()
	}
	var count int64
	result := txn.Model(&models.Task{}).
		Where(
			"task_type = ? AND task_key = ? AND task_state = ?",
			taskType,
			taskKey,
			models.TaskStateProgress,
		).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}
