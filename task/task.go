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

// Package task tracks the progress of long-running reflection jobs and
// serializes their outcome for the task table.
package task

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task types recorded in the task table.
const (
	TypeReflectConditionsBatch       = "reflect_conditions_batch"
	TypeReflectConditionsReservation = "reflect_conditions_reservation"
	TypeReflectConditionsImmediate   = "reflect_conditions_immediate"
	TypeMemberRegister               = "member_register"
)

// NewTaskID returns a fresh external task id.
func NewTaskID() string {
	return uuid.NewString()
}

// DedupKey derives the task dedup key for an organization. One reflection
// task per organization may run at a time.
func DedupKey(orgCode string) string {
	sum := md5.Sum([]byte(orgCode))
	return hex.EncodeToString(sum[:])
}

// Progress accumulates per-member outcomes over one run.
type Progress struct {
	ActionName string
	started    time.Time

	Attempted int
	Succeeded int
	Skipped   int
	Failed    int

	Registered   int
	Unregistered int
	Masked       int
}

// NewProgress starts a progress record, stamping the start time for the
// duration in the final output.
func NewProgress(actionName string) *Progress {
	return &Progress{
		ActionName: actionName,
		started:    time.Now(),
	}
}

// Attempt counts one member entering processing.
func (p *Progress) Attempt() {
	p.Attempted++
}

// Succeed counts one member fully processed.
func (p *Progress) Succeed() {
	p.Succeeded++
}

// Skip counts one member passed over without changes.
func (p *Progress) Skip() {
	p.Skipped++
}

// Fail counts one member whose processing failed.
func (p *Progress) Fail() {
	p.Failed++
}

// Output renders the run summary as the task output JSON.
func (p *Progress) Output() (string, error) {
	out := map[string]any{
		"attempted":          p.Attempted,
		"succeeded":          p.Succeeded,
		"skipped":            p.Skipped,
		"failed":             p.Failed,
		"total":              p.Attempted,
		"duration_ms":        time.Since(p.started).Milliseconds(),
		"student_register":   p.Registered,
		"student_unregister": p.Unregistered,
		"personalinfo_mask":  p.Masked,
	}
	if p.ActionName != "" {
		out["action_name"] = p.ActionName
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
