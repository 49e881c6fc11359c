// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/kluniversity/klu-agent/internal/session"

// ReplyMsg delivers the outcome of a pending question.
type ReplyMsg struct {
	Turn  *session.Turn
	Reply session.Reply
}

// ExportedMsg reports the result of an export.
type ExportedMsg struct {
	Path string
	Err  error
}
