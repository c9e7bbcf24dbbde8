// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package orgtree walks a multi-organization certificate tree.
//
// A scan root holds one directory per organization, and each organization holds
// one directory per server:
//
//	new/
//	├── passphrase.txt
//	├── acme/
//	│   ├── passphrase.txt
//	│   ├── web01/ server.crt server.key server.csr
//	│   └── web02/ fullchain.pem privkey.pem
//	└── globex/ server.crt server.key
//
// Files sitting directly in a scanned directory form a synthetic unit named
// [RootUnitName]. An organization without server directories (globex above) is
// itself a single [RootUnitName] server.
//
// Directory listings are sorted and hidden entries (leading dot) are skipped, so
// a walk over the same tree always yields the same units in the same order.
//
// [ResolvePassphraseSources] computes, without touching the filesystem, the
// ordered list of passphrase files that apply to a server directory.
package orgtree
