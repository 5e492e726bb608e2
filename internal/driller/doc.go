// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package driller resolves dotted paths into course records for the raw
// attributes of --attrs and --filter.
package driller
