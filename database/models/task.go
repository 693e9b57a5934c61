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

package models

import "time"

// Task states. Success and Failure are terminal.
const (
	TaskStateProgress = "PROGRESS"
	TaskStateSuccess  = "SUCCESS"
	TaskStateFailure  = "FAILURE"
)

// Task is one tracked background execution. TaskKey is the dedup key that
// serializes runs per organization; TaskOutput carries the JSON progress
// payload once the task completes.
type Task struct {
	ID          uint   `gorm:"primarykey"`
	TaskID      string `gorm:"uniqueIndex;size:255"`
	TaskType    string `gorm:"index;size:255"`
	TaskKey     string `gorm:"index;size:255"`
	TaskInput   string
	TaskState   string `gorm:"size:50"`
	TaskOutput  string
	RequesterID *uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Task) TableName() string {
	return "task"
}

// Ready returns true when the task reached a terminal state.
func (t *Task) Ready() bool {
	return t.TaskState == TaskStateSuccess || t.TaskState == TaskStateFailure
}
