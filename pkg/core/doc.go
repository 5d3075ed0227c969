// Package core defines the shared language of dbschema.
//
// This package contains:
//   - Catalog entities (Table, Field, Relation, Constraint)
//   - Collaborator interfaces (Source, Describer, Provider)
//   - Name folding and staging detection
//
// The Golden Rule: pkg/core imports ONLY golang.org/x/text and stdlib.
// All other packages depend on core, not the reverse.
package core
