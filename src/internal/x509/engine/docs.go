// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509engine defines the crypto capability boundary used by the probe.
//
// An [Engine] extracts subject, issuer, validity and a public-key fingerprint from
// certificates, certificate requests and private keys. Two implementations are
// provided:
//   - [NativeEngine]: Go crypto with [PKCS8] and [cfssl] helpers for encrypted and legacy keys.
//   - [OpenSSLEngine]: shells out to an openssl binary through a [CommandExecutor].
//
// Fingerprints are algorithm aware ("RSA:", "EC:", "ED25519:" followed by the hex
// SHA-256 of the PKIX SubjectPublicKeyInfo DER), so both engines agree for every key
// type and EC keys are never reported as "always different".
//
// Engines never prompt. A passphrase-protected key without a passphrase yields
// [ErrEncryptedKey]; a wrong passphrase yields [ErrDecrypt].
//
// [PKCS8]: https://grokipedia.com/page/PKCS_8
// [cfssl]: https://github.com/cloudflare/cfssl
package x509engine
