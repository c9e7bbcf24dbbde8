// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package verify cross-checks the key material of one server unit.
//
// Every certificate is compared with every key and every CSR, and every key with
// every CSR, by public-key fingerprint. An artifact whose fingerprint could not
// be extracted (an encrypted key nobody could open, a file that failed to parse)
// never produces a mismatch: its comparisons are reported as
// [UnextractableFingerprint] so an operator can tell "wrong key" apart from
// "could not look".
//
// [Summarize] folds the comparisons into one verdict per unit: [VerdictOK] when
// at least one comparison ran and all matched, [VerdictInsufficient] when there
// was nothing to compare, [VerdictNG] otherwise.
package verify
