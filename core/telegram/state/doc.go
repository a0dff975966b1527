// Package state tracks per-chat conversation sessions for a form-filling flow.
// Transitions between idle and filling are validated by a looplab/fsm table;
// sessions are kept in a keyed Store injected into the router.
package state
