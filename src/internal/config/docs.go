// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config loads the verifier configuration.
//
// Configuration Priority:
//  1. [Default] values
//  2. The file named by the caller, or by CERTTREE_CONFIG_FILE (.json, .yaml, .yml)
//  3. Environment overrides (CERTTREE_OLD_ROOT, CERTTREE_NEW_ROOT, CERTTREE_ENGINE,
//     CERTTREE_OPENSSL, CERTTREE_WORKERS)
//
// Both the file as written and the merged result are validated against an
// embedded JSON schema; every violation is listed in one [ErrInvalidConfig].
//
// Example file:
//
//	roots: { old: ./old, new: ./new, required: [new] }
//	passphrase: { fileName: passphrase.txt, envVar: CERTTREE_PASSPHRASE_FILE }
//	chain: { searchRoots: [./intermediates] }
//	engine: { kind: native }
//	output: { format: text, warnDays: 30 }
//	workers: 4
package config
