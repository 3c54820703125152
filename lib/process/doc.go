// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds process-level helpers shared by binary
// entrypoints.
package process
