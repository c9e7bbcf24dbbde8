// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package audit runs a full verification over one or more certificate trees.
//
// For every server unit the [Auditor]:
//   - loads the candidate passphrases that apply to it,
//   - probes every certificate, key and CSR,
//   - sets CA certificates aside as chain material,
//   - resolves the intermediate of each single-certificate leaf, first among the
//     unit's own chain material and then among the global candidates,
//   - checks the issuer links of fullchain files,
//   - cross-compares the remaining certificates, keys and CSRs.
//
// Problems with individual files are recorded on the unit and never stop the
// walk. Only a missing required tree, or a cancelled context, aborts a run.
//
// Organizations are audited concurrently up to [Options.Workers]; the report is
// always ordered tree, organization, server.
package audit
