// Package models defines the core domain models for Payback.
//
// # Identity
//
// Every entity carries an opaque string ID and is compared by ID alone.
// Display names, nicknames, and the denormalized participant-name caches
// are presentation data and never take part in identity or lookup.
//
// # Model Overview
//
//   - Member / GroupMember: an identity inside one spending group. A
//     GroupMember may carry a LinkedFriendID back-reference to the
//     account-level friend roster; FriendLookupKey documents the fallback
//     rule used to cross-reference the two ID spaces.
//   - AccountFriend: a friend at the account-roster level, optionally
//     linked to a real account.
//   - SpendingGroup: an ordered set of GroupMembers. Direct groups are
//     exactly a 1:1 pairing and behave identically in balance math.
//   - Expense / ExpenseSplit: a shared cost and its per-member shares.
//     Settlement is tracked per split; the expense-level flag is only an
//     informational rollup.
//   - LinkFailureRecord: bookkeeping for a failed account-link attempt.
//
// # Design Principles
//
//  1. Amounts are decimal.Decimal, never binary floats: balance math must
//     be exact at the cent level.
//  2. Cross-entity relationships use ID strings instead of pointers, so no
//     ownership cycles exist between group-scoped and account-scoped data.
//  3. Models carry no behavior beyond small lookup helpers; computation
//     lives in the ledger and friends packages.
package models
