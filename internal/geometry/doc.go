// Package geometry defines the surface of the external geometry kernel that
// the assembly engine consumes, together with the mesh types it produces.
//
// The kernel is opaque: shapes and compounds are handles owned by a Backend
// and are only ever passed back into the same Backend. The engine never
// inspects them.
package geometry
