// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package secret holds candidate passphrases for encrypted private keys.
//
// A [Passphrase] is only ever handed out through [Passphrase.Use], which gives
// the callback a private copy and zeroes it when the callback returns, on every
// path. [Passphrase.Wipe] clears the stored value once a run is finished.
// The source file path is kept for reporting; the secret itself never is.
package secret
