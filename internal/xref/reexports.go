package xref

import (
	"strings"

	"github.com/jcdickinson/cratemap/internal/rustdoc"
)

// Reexport records a `pub use` that exposes an item under a path different
// from its canonical one.
type Reexport struct {
	LocalPrefix  string // path as seen from the re-exporting crate
	SourceCrate  string // crate that defines the item
	SourcePrefix string // canonical path in the source crate
}

// CollectReexports walks the crate's module tree and returns all re-export
// mappings. Imports whose target id is null or unresolvable are skipped:
// nothing can be remapped without a canonical path.
func (r *Resolver) CollectReexports(crateName string) []Reexport {
	var reexports []Reexport
	r.walkModuleReexports(r.crate.Root, crateName, map[rustdoc.Id]bool{}, &reexports)
	return reexports
}

func (r *Resolver) walkModuleReexports(moduleID rustdoc.Id, crateName string, seen map[rustdoc.Id]bool, reexports *[]Reexport) {
	if seen[moduleID] {
		return
	}
	seen[moduleID] = true

	moduleItem, ok := r.crate.Index[moduleID]
	if !ok {
		return
	}
	mod, ok := moduleItem.Inner.(*rustdoc.Module)
	if !ok {
		return
	}

	modulePath := crateName
	if p := r.Path(moduleID); p != "" {
		modulePath = p
	}

	for _, childID := range mod.Items {
		childItem, ok := r.crate.Index[childID]
		if !ok {
			continue
		}

		switch inner := childItem.Inner.(type) {
		case *rustdoc.Module:
			r.walkModuleReexports(childID, crateName, seen, reexports)
		case *rustdoc.Import:
			if inner.ID == nil {
				continue
			}
			targetSummary, ok := r.crate.Paths[*inner.ID]
			if !ok {
				continue
			}

			sourcePath := strings.Join(targetSummary.Path, "::")
			var sourceCrate string
			if targetSummary.CrateID == 0 {
				sourceCrate = crateName
			} else {
				sourceCrate = r.CrateName(targetSummary.CrateID)
				if sourceCrate == "" {
					continue
				}
			}

			localPath := modulePath
			if !inner.Glob {
				localPath = modulePath + "::" + inner.Name
			}
			if localPath == sourcePath && sourceCrate == crateName {
				continue // not a real re-export
			}
			*reexports = append(*reexports, Reexport{
				LocalPrefix:  localPath,
				SourceCrate:  sourceCrate,
				SourcePrefix: sourcePath,
			})
		}
	}
}
