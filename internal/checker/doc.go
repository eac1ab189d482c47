// Package checker is the blocking instance/solution validator the job
// processor offloads checking work to. It parses the instance and the
// candidate solution the solver produced, classifies the outcome, and
// harvests the "#s <key> <json>" lines either file carries into an
// ordered SolutionInfos sequence.
//
// The actual combinatorial matching between an instance's tree
// decomposition and the solver's proposed forest is a well-defined but
// external concern (the real project ships a dedicated validator
// library); this package implements the interface Check-and-Extract is
// specified to expose, with a structurally-faithful but simplified
// matching rule so the job processor's state machine, error taxonomy
// and upload path all have a real collaborator to drive.
package checker
