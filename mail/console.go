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

package mail

import (
	"log/slog"
	"sync"
)

// ConsoleSender logs mail instead of delivering it. Used in development and
// as the default when no delivery backend is configured. Sent messages are
// retained for tests.
type ConsoleSender struct {
	logger *slog.Logger

	mutex sync.Mutex
	sent  []Message
}

func NewConsoleSender(logger *slog.Logger) *ConsoleSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleSender{
		logger: logger,
	}
}

func (c *ConsoleSender) Send(msg Message) error {
	c.logger.Info(
		"mail (console)",
		"component", "mail",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

// Sent returns a copy of the messages delivered so far.
func (c *ConsoleSender) Sent() []Message {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	ret := make([]Message, len(c.sent))
	copy(ret, c.sent)
	return ret
}
