// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509probe extracts comparable attributes from certificate, private key
// and certificate request files.
//
// A [Prober] reads a file, detects its container format textually and hands the
// bytes to an [x509engine.Engine]. Probing is fail-soft: every call returns a
// non-nil artifact carrying whatever could be determined, together with an error
// describing what could not. Callers record the error against the file and carry on.
//
// Encrypted keys are tried against candidate passphrases in order until one
// decrypts; nothing ever prompts.
package x509probe
