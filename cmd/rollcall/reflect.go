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

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/rollcall/internal/config"
	"github.com/spf13/cobra"
)

// reflectCommand runs one contract's reflection immediately.
func reflectCommand() *cobra.Command {
	var orgID, contractID, requesterID uint
	var sendMail bool
	cmd := &cobra.Command{
		Use:   "reflect",
		Short: "Reflect conditions for one contract now",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			logger := commonRun()
			svc, err := newService(cfg, logger)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			defer svc.Stop()
			var requester *uint
			if requesterID > 0 {
				requester = &requesterID
			}
			result, err := svc.RunImmediate(orgID, contractID, sendMail, requester)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			fmt.Printf(
				"Register: %d, Unregister: %d, Masked: %d, Failed: %d\n",
				result.Registered,
				result.Unregistered,
				result.Masked,
				result.Failed,
			)
		},
	}
	cmd.Flags().UintVar(&orgID, "org", 0, "organization id")
	cmd.Flags().UintVar(&contractID, "contract", 0, "contract id")
	cmd.Flags().UintVar(&requesterID, "requester", 0, "requesting user id")
	cmd.Flags().
		BoolVar(&sendMail, "send-mail", false, "queue registration mail for matched members")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}
