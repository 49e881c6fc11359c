// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package offline holds the process-wide offline switch.
//
// When offline mode is on the resolver never contacts the chat API and
// answers straight from the local knowledge base. The switch is set from
// --offline, KLU_OFFLINE or api.offline in the config file.
//
//	offline.SetOfflineMode(true)
//	if err := offline.CheckRemoteAllowed(); err != nil {
//	    // answer locally
//	}
package offline
