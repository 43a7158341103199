// Package copilot answers questions about a workspace through a text
// generation backend, speaking as one of several agent personas.
//
// Three built-in agents are always available; custom agents are stored in
// the workspace's agents collection and listed after them. Generation
// failures never reach the caller: Ask answers with FallbackReply instead.
package copilot
