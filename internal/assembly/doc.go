// Package assembly holds the part/instance tree produced by a model function
// and the pure operations over it.
//
// A model function may return a fully built *Assembly, a list of part
// definitions, or a list of bare geometry handles. Normalize turns all of
// these into an Assembly with a synthetic root. Walk and Flatten traverse the
// tree depth-first, carrying the absolute quantity (product of quantities on
// the root path) and the absolute transform (sum of translations on the root
// path) to every node. CollectShapes and FlatBOM derive the placed geometry
// and the flat bill of materials from that traversal.
//
// PartDefinitions are immutable and may be referenced by many Instances;
// Instances are owned by exactly one parent. The tree is never cyclic.
package assembly
