// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain implements [X.509] certificate chain resolution on local files.
// It provides capabilities to:
//   - Discover candidate intermediate certificates by filename pattern.
//   - Select the one intermediate whose subject equals a leaf's issuer, refusing to guess
//     when there are none or several.
//   - Classify how complete a certificate bundle looks from its block count.
//   - Merge leaf, intermediate and root PEM into a normalized fullchain.
//   - Check issuer/subject links and signatures inside a bundle and render them.
//
// Names are compared in their canonical RFC 2253 form, byte for byte.
//
// [X.509]: https://grokipedia.com/page/X.509
package x509chain
