// Package llm provides language model access for the advisor. It supports
// multiple providers behind a common client interface covering plain
// completions, single-round tool calling, and vision-based receipt reading.
package llm
