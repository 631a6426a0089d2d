// Package registry maps model family names to the Go functions that build
// them and to the parameter schemas declared in their HCL manifests.
//
// Go code registers model functions through Module values; manifests are
// either embedded by the module (ManifestProvider) or discovered on disk
// under the models path. Init and Rescan load manifests and then validate
// that every manifest has a function and every function has a manifest, so a
// mismatch fails at startup rather than on the first run.
package registry
