// Package models defines the core domain models for fintrack.
//
// # Models
//
//   - User: registered account that can own transactions and belong to groups
//   - Group, Member: a set of users sharing transactions, each with a Role
//   - Transaction: a group expense referenced by split proposals
//   - SplitProposal: a proposed division of one transaction among members
//   - MemberDebt: an amount owed by one member, created when a proposal is approved
//
// # Design Principles
//
//  1. Relationships use ID strings, not pointers
//  2. Money is decimal.Decimal, never float64
//  3. Status types carry their own transition rules
//  4. Split rules are stored as raw JSON so legacy payload shapes survive
package models
