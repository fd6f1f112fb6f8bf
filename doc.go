// Package gomip provides the root-node orchestration core of a
// branch-and-cut solver for mixed integer programs (MIP).
//
// The core keeps a globally consistent primal/dual bound state, accepts or
// rejects candidate incumbents under floating point tolerances, tightens the
// root linear relaxation with cutting planes and domain propagation, runs
// primal heuristics under an effort budget, decides when to restart with a
// freshly re-presolved model, and finally seeds the branch-and-bound tree
// with a single root node.
//
// Expensive collaborators (the LP relaxation solver, the presolver, the
// domain propagation engine, cut separators, primal heuristics, symmetry
// detection) are consumed through narrow interfaces defined in mip/solver;
// this module does not implement them.
//
// Packages:
//   - mip: model and solution vocabulary shared by all components
//   - mip/solver: the orchestration core itself
//   - logger: global structured logger used across components
package gomip
