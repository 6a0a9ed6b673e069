// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

// Package auth implements account registration, login, and logout.
//
// # Domain Types
//
// User is created with NewUser and persisted through a UserRepository, which
// assigns the ID. Passwords are only ever stored as argon2id hashes produced
// by a PasswordHasher.
//
// # Services
//
// Service coordinates validation, repository lookups, hashing, and session
// mutation. Every operation takes the caller's SessionContext explicitly and
// returns a Result rather than an error: validation and business-rule
// failures become 400 results, infrastructure failures become logged 500
// results.
package auth
