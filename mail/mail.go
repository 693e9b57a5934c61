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

// Package mail renders and delivers registration notification mail.
//
// Mail templates are stored per contract with brace-delimited parameters
// such as {username} and {email_address}. Rendering is plain string
// substitution and never fails, so a malformed template degrades to sending
// its literal text.
package mail

import (
	"strings"
)

// Template parameter names accepted in mail subjects and bodies.
const (
	ParamUsername     = "username"
	ParamEmailAddress = "email_address"
	ParamPassword     = "password"
	ParamLoginCode    = "logincode"
	ParamContractName = "contract_name"
)

// Message is one rendered mail ready for delivery.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers rendered messages. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(msg Message) error
}

// Render substitutes {name} parameters into a template string. Unknown
// parameters are left as-is.
func Render(template string, params map[string]string) string {
	if len(params) == 0 {
		return template
	}
	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
