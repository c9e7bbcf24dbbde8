// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509certs is the container codec for certificate files.
//
// Format detection is textual and never parses: [DetectFormat] looks at the
// leading bytes, [CountCertificateBlocks] counts "BEGIN CERTIFICATE" markers and
// [NormalizePEM] fixes line endings before files are concatenated. Decoding goes
// through [Certificate], which reads [PEM] bundles (skipping key blocks stored
// alongside), raw DER and [PKCS7] containers.
//
// [PKCS7]: https://grokipedia.com/page/PKCS_7
// [PEM]: https://grokipedia.com/page/PEM#privacy-enhanced-mail
package x509certs
