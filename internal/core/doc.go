// Package core holds the data contracts shared by every component of the
// request transport: the audit trail vocabulary, the pipeline error
// taxonomy, the per-call RequestData, and the HttpDetails ("ApiCall")
// every response carries. It imports nothing from the packages that
// implement the pipeline — this keeps the dependency graph a tree rooted
// at the public estransport package instead of a cycle.
package core
