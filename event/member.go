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

// MemberImportCompletedEventType is the event type for finished member
// register batches
const MemberImportCompletedEventType = EventType("member.import.completed")

// MemberImportCompletedEvent is emitted after a member register batch has
// replaced an organization's active member set. Contracts with automatic
// registration enabled react to it by running condition reflection.
type MemberImportCompletedEvent struct {
	// OrgID is the organization whose members were replaced
	OrgID uint
	// TaskID is the external id of the import task
	TaskID string
	// Imported is the number of member rows written
	Imported int
	// RequesterID is the user who started the import, if any
	RequesterID *uint
}
