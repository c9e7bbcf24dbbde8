// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package report renders an [audit.Report] for humans and machines.
//
// Three formats are supported:
//   - text: one block per server unit, coloured with fatih/color unless
//     colour is disabled or stdout is not a terminal
//   - table: one markdown row per server unit, rendered with tablewriter
//   - json: the structured report, indented
//
// Text and table output end with the summary line
//
//	Total: N  OK: a  NG: b  Insufficient: c
//
// Renderers never fail on report content; errors come only from the writer.
package report
