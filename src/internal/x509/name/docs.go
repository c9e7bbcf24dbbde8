// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509name provides a structured [X.509] distinguished name with a
// canonical [RFC 2253] encoding. Issuer and subject names are compared through
// this canonical form, so two names are equal only when their encodings are
// byte-identical.
//
// [X.509]: https://grokipedia.com/page/X.509
// [RFC 2253]: https://www.rfc-editor.org/rfc/rfc2253
package x509name
