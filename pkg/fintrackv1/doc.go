// Package fintrackv1 defines the fintrack.v1 Connect services: message
// types, the JSON codec they travel in, and handler and client
// constructors in the shape connect-go generates.
package fintrackv1
