// Package component defines the lifecycle interface for long-lived
// infrastructure pieces of a served pipeline deployment.
//
// The serving endpoint server and the optional result cache implement
// Component; a Registry starts them in registration order, stops them in
// reverse, and aggregates their health for the /health route.
//
// BaseLazyComponent supports components whose backing connection should
// not be dialed until first use.
package component
