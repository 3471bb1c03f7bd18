// Package model defines the values a book form session works with: the three
// user-entered fields (FormState), the status of the latest submission
// (Outcome), and the error payload a failed submission carries. The types are
// plain values so controllers can hand out snapshots without sharing state.
package model
