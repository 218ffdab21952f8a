// Package physical implements the buffer-bounded physical join and sort
// operators: ExternalSort, SortMergeJoin, and BlockNestedJoin.
//
// Every operator here respects a strict page-buffer memory budget (numBuff
// pages) and spills to disk when the input doesn't fit. They follow the
// pull-based iterator (volcano) protocol — Open / Next / Close — plus
// GetBlock, which BlockNestedJoin's left child must support.
//
// # Sub-components
//
//   - Value / Tuple / Batch / Block — page-sized tuple containers and the
//     tagged-scalar comparison they're built on.
//   - Operator — the pull protocol every leaf scan the core consumes must
//     also implement.
//   - ExternalSort — two-phase external merge sort.
//   - SortMergeJoin — merges two ExternalSort outputs on equality keys.
//   - BlockNestedJoin — materializes the right child, streams the left in
//     blocks.
//
// This module contains no planner and no other join or sort strategies;
// choosing which operator to run is left to the host that embeds the
// package.
package physical
