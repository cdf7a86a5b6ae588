// Package pipeline drives one logical request through node selection,
// optional sniff/ping, the HTTP call, and response building, advancing
// through a fixed sequence of states: Fresh, Bootstrapped, Iterating,
// Succeeded, Failed.
//
// Each attempt follows the same shape: try a node, classify the
// result, update the pool's health state, move on to the next node if
// the budget allows. What varies across attempts is that this is a
// per-request loop bounded by a retry budget and able to fail over
// mid-request, rather than a fixed periodic sweep over every node.
package pipeline
