// Package order provides the repair order aggregate and its lifecycle rules.
//
// The package includes:
//   - Order: the aggregate root holding identity, customer details, mechanic and status
//   - Status: the closed lifecycle enum and its transition graph
//   - Urgency: the closed low/medium/high priority enum, fixed at creation
//   - ServiceType, Mechanic, Vehicle, ID: value objects validated on construction
//   - Snapshot: the immutable read model shared by stores, queries and subscribers
//
// Key business rules:
//   - Orders start Pending and move Pending -> Accepted -> InProgress -> Completed
//   - Any non-terminal order can be Cancelled; Completed and Cancelled are final
//   - A mechanic must be attached before an order becomes Accepted
//   - The total cost is recorded on completion and never before
//   - Every mutation advances UpdatedAt and Version
package order
