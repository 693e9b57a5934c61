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

package event

// ReflectionCompletedEventType is the event type for finished reflection
// runs
const ReflectionCompletedEventType = EventType("reflection.completed")

// ReflectionCompletedEvent is emitted after a condition reflection run for
// one contract has finished, whether it succeeded or not.
type ReflectionCompletedEvent struct {
	// OrgID is the contractor organization
	OrgID uint
	// ContractID is the reflected contract
	ContractID uint
	// TaskID is the external id of the reflection task, if one was recorded
	TaskID string
	// Success reports whether the run completed without member failures
	Success bool
	// Registered is the number of members registered
	Registered int
	// Unregistered is the number of members unregistered
	Unregistered int
	// Masked is the number of users masked
	Masked int
	// Failed is the number of members whose processing failed
	Failed int
}
