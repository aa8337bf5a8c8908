// Package fuzztests holds fuzz harnesses for the document pipeline
// (decode -> exports -> local scopes -> link). They guard against panics and
// runaway allocations on arbitrary input.
package fuzztests
