// Package board carries the static register topology of each supported
// chassis variant: which status/event/mask register triples exist, which
// bits map to which physical slots, and which aggregation bits summarize
// each group. Profiles are plain data, either builtin tables selected by
// board id or custom tables loaded from YAML, validated once and immutable
// afterwards. The package also derives the register access table and
// power-on defaults a profile implies.
package board
